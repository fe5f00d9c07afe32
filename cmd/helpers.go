package cmd

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/lendcore/lendcore/app/node"
	"github.com/lendcore/lendcore/pkg/actors/proposal/dutchauction"
	"github.com/lendcore/lendcore/pkg/repo"
	"github.com/lendcore/lendcore/pkg/vm"
)

var fromFlag = &cli.StringFlag{
	Name:     "from",
	Usage:    "address the call is made as",
	Required: true,
}

// withNode opens the repo, builds a node over it and runs fn.
func withNode(cctx *cli.Context, fn func(nd *node.Node) error) error {
	r, err := repo.OpenFSRepo(cctx.String(repoFlag), repo.LatestVersion)
	if err != nil {
		return err
	}
	nd, err := node.New(cctx.Context, node.RepoConfigOption(r))
	if err != nil {
		_ = r.Close()
		return err
	}
	defer nd.Stop(cctx.Context)
	return fn(nd)
}

func parseAddress(s string) (address.Address, error) {
	a, err := address.NewFromString(s)
	if err != nil {
		return address.Undef, errors.Wrapf(err, "invalid address %q", s)
	}
	return a, nil
}

func fromAddress(cctx *cli.Context) (address.Address, error) {
	return parseAddress(cctx.String("from"))
}

func parseBigInt(s string) (big.Int, error) {
	v, err := big.FromString(s)
	if err != nil {
		return big.Zero(), errors.Wrapf(err, "invalid integer %q", s)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.Wrapf(err, "invalid boolean %q", s)
	}
	return v, nil
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex")
	}
	return b, nil
}

// splitList splits a comma separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

func encodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

func readProposal(path string) (*dutchauction.Proposal, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p dutchauction.Proposal
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, errors.Wrapf(err, "failed to parse proposal %s", path)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func printJSON(cctx *cli.Context, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cctx.App.Writer, string(b))
	return err
}

type receiptOutput struct {
	CallID   string                   `json:"callId"`
	Caller   string                   `json:"caller"`
	Time     uint64                   `json:"time"`
	ExitCode int64                    `json:"exitCode"`
	Events   []map[string]interface{} `json:"events,omitempty"`
}

func printReceipt(cctx *cli.Context, rcpt *vm.Receipt) error {
	out := receiptOutput{
		CallID:   rcpt.CallID.String(),
		Caller:   rcpt.Caller.String(),
		Time:     rcpt.Time,
		ExitCode: int64(rcpt.ExitCode),
	}
	for _, e := range rcpt.Events {
		m := map[string]interface{}{"topic": e.Topic(), "event": e.Name()}
		kvs := e.KVs()
		for i := 0; i+1 < len(kvs); i += 2 {
			m[fmt.Sprint(kvs[i])] = fmt.Sprint(kvs[i+1])
		}
		out.Events = append(out.Events, m)
	}
	return printJSON(cctx, out)
}
