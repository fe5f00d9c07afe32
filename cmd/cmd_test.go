package cmd_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendcore/lendcore/cmd"
	"github.com/lendcore/lendcore/pkg/actors/proposal/dutchauction"
	tf "github.com/lendcore/lendcore/pkg/testhelpers/testflags"
	"github.com/lendcore/lendcore/pkg/types"
)

const (
	owner    = "t0100"
	loan     = "t0500"
	password = "test-password"
)

type harness struct {
	t    *testing.T
	repo string
	dir  string
}

func newCLI(t *testing.T) *harness {
	dir := t.TempDir()
	return &harness{t: t, repo: filepath.Join(dir, "repo"), dir: dir}
}

func (c *harness) run(args ...string) (string, string, int) {
	var stdout, stderr bytes.Buffer
	argv := append([]string{"lendcore", "--repo", c.repo}, args...)
	code := cmd.Run(context.Background(), argv, &stdout, &stderr)
	return strings.TrimSpace(stdout.String()), stderr.String(), code
}

func (c *harness) mustRun(args ...string) string {
	out, errOut, code := c.run(args...)
	require.Equal(c.t, 0, code, "lendcore %v: %s", args, errOut)
	return out
}

func (c *harness) mustFail(args ...string) string {
	_, errOut, code := c.run(args...)
	require.NotEqual(c.t, 0, code, "lendcore %v unexpectedly succeeded", args)
	return errOut
}

func (c *harness) init() {
	c.mustRun("init", "--owner", owner, "--loan-contract", loan)
	c.mustRun("config", "set", "wallet.scryptN", "2")
}

func (c *harness) newProposer() string {
	return c.mustRun("wallet", "--password", password, "new")
}

func (c *harness) writeProposal(name string, p *dutchauction.Proposal) string {
	b, err := json.Marshal(p)
	require.NoError(c.t, err)
	path := filepath.Join(c.dir, name)
	require.NoError(c.t, ioutil.WriteFile(path, b, 0644))
	return path
}

// offer starts a minute ago and prices between 1000 and 1001, so an intended
// amount of 1000 with slippage 1 is valid for the whole auction.
func offer(t *testing.T, proposer string, nonce int64) *dutchauction.Proposal {
	proposerAddr, err := address.NewFromString(proposer)
	require.NoError(t, err)
	collateral, err := address.NewIDAddress(800)
	require.NoError(t, err)
	credit, err := address.NewIDAddress(801)
	require.NoError(t, err)
	loanAddr, err := address.NewFromString(loan)
	require.NoError(t, err)

	return &dutchauction.Proposal{
		CollateralCategory:   types.AssetNonFungible,
		CollateralAddress:    collateral,
		CollateralID:         big.NewInt(7),
		CollateralAmount:     big.Zero(),
		CreditAddress:        credit,
		MinCreditAmount:      big.NewInt(1000),
		MaxCreditAmount:      big.NewInt(1001),
		AvailableCreditLimit: big.NewInt(5000),
		FixedInterestAmount:  big.NewInt(10),
		AccruingInterestAPR:  500,
		Duration:             86400,
		AuctionStart:         uint64(time.Now().Unix()) - 60,
		AuctionDuration:      100 * 60,
		AllowedAcceptor:      address.Undef,
		Proposer:             proposerAddr,
		IsOffer:              true,
		RefinancingLoanID:    big.Zero(),
		NonceSpace:           big.Zero(),
		Nonce:                big.NewInt(nonce),
		LoanContract:         loanAddr,
	}
}

func TestInitAndTags(t *testing.T) {
	tf.IntegrationTest(t)
	c := newCLI(t)
	c.init()

	assert.Equal(t, owner, c.mustRun("tag", "owner"))
	assert.Equal(t, "true", c.mustRun("tag", "has", loan, "ActiveLoan"))
	assert.Equal(t, "false", c.mustRun("tag", "has", "t0600", "ActiveLoan"))

	// only the owner may govern tags
	errOut := c.mustFail("tag", "set", "--from", "t0600", "t0600", "ActiveLoan", "true")
	assert.Contains(t, errOut, "ERR:")

	c.mustRun("tag", "set-many", "--from", owner, "true", "t0600:ActiveLoan", "t0601:NonceManager")
	assert.Equal(t, "true", c.mustRun("tag", "has", "t0600", "ActiveLoan"))
	assert.Equal(t, "true", c.mustRun("tag", "has", "t0601", "NonceManager"))

	c.mustRun("tag", "transfer", "--from", owner, "t0101")
	assert.Equal(t, "t0101", c.mustRun("tag", "owner"))

	// a second init over the same repo fails
	c.mustFail("init", "--owner", owner)
}

func TestConfigCommands(t *testing.T) {
	tf.IntegrationTest(t)
	c := newCLI(t)
	c.init()

	assert.Equal(t, "314", c.mustRun("config", "get", "protocol.chainId"))
	c.mustRun("config", "set", "protocol.signatureCacheSize", "16")
	assert.Equal(t, "16", c.mustRun("config", "get", "protocol.signatureCacheSize"))

	c.mustFail("config", "get", "protocol.nope")
	c.mustFail("config", "set", "datastore.type", `"leveldb"`)
	assert.Equal(t, `"badgerds"`, c.mustRun("config", "get", "datastore.type"))
}

func TestNonceCommands(t *testing.T) {
	tf.IntegrationTest(t)
	c := newCLI(t)
	c.init()

	status := func(nonce string) map[string]bool {
		var out map[string]bool
		require.NoError(t, json.Unmarshal([]byte(c.mustRun("nonce", "status", "t0200", "0", nonce)), &out))
		return out
	}
	assert.Equal(t, map[string]bool{"revoked": false, "usable": true}, status("3"))

	c.mustRun("nonce", "revoke", "--from", "t0200", "3", "4")
	assert.Equal(t, map[string]bool{"revoked": true, "usable": false}, status("3"))
	assert.Equal(t, map[string]bool{"revoked": true, "usable": false}, status("4"))

	c.mustFail("nonce", "revoke", "--from", "t0200", "3")

	assert.Equal(t, "0", c.mustRun("nonce", "space", "t0200"))
	c.mustRun("nonce", "revoke-space", "--from", "t0200")
	assert.Equal(t, "1", c.mustRun("nonce", "space", "t0200"))
	assert.Equal(t, map[string]bool{"revoked": false, "usable": false}, status("5"))

	// revoking for another owner needs the NonceManager tag
	c.mustFail("nonce", "revoke", "--from", "t0201", "--owner", "t0200", "9")
}

func TestProposalCommands(t *testing.T) {
	tf.IntegrationTest(t)
	c := newCLI(t)
	c.init()

	proposer := c.newProposer()
	assert.Equal(t, proposer, c.mustRun("wallet", "--password", password, "list"))

	p := offer(t, proposer, 1)
	pFile := c.writeProposal("offer.json", p)

	var hashOut map[string]string
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("proposal", "hash", pFile)), &hashOut))
	assert.True(t, strings.HasPrefix(hashOut["hash"], "0x"))

	assert.Equal(t, "1000", c.mustRun("proposal", "price", pFile))
	c.mustFail("proposal", "price", "--time", "1", pFile)

	data := c.mustRun("proposal", "encode", "--intended", "1000", "--slippage", "1", pFile)
	var decoded struct {
		Proposal *dutchauction.Proposal     `json:"proposal"`
		Values   dutchauction.ProposalValues `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("proposal", "decode", data)), &decoded))
	assert.Equal(t, p.Nonce, decoded.Proposal.Nonce)
	assert.Equal(t, big.NewInt(1000), decoded.Values.IntendedCreditAmount)

	c.mustFail("proposal", "sign", "--signer", proposer, "--password", "wrong", pFile)
	sig := c.mustRun("proposal", "sign", "--signer", proposer, "--password", password, pFile)

	// only an active loan contract may accept
	c.mustFail("proposal", "accept", "--from", "t0600", "--acceptor", "t0600", "--signature", sig, data)

	var accepted struct {
		Hash  string      `json:"hash"`
		Terms types.Terms `json:"terms"`
	}
	out := c.mustRun("proposal", "accept", "--from", loan, "--acceptor", "t0600", "--signature", sig, data)
	require.NoError(t, json.Unmarshal([]byte(out), &accepted))
	assert.Equal(t, hashOut["hash"], accepted.Hash)
	assert.Equal(t, big.NewInt(1000), accepted.Terms.Credit.Amount)
	assert.Equal(t, proposer, accepted.Terms.Lender.String())
	assert.Equal(t, "t0600", accepted.Terms.Borrower.String())

	var st map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("proposal", "status", accepted.Hash)), &st))
	assert.Equal(t, false, st["made"])
	assert.Equal(t, "1000", st["creditUsed"])

	// the proposer revokes the nonce and the proposal stops accepting
	c.mustRun("proposal", "revoke-nonce", "--from", proposer, "0", "1")
	c.mustFail("proposal", "accept", "--from", loan, "--acceptor", "t0600", "--signature", sig, data)
}

func TestProposalMultiSignAndMake(t *testing.T) {
	tf.IntegrationTest(t)
	c := newCLI(t)
	c.init()

	proposer := c.newProposer()

	files := []string{
		c.writeProposal("a.json", offer(t, proposer, 1)),
		c.writeProposal("b.json", offer(t, proposer, 2)),
		c.writeProposal("c.json", offer(t, proposer, 3)),
	}
	var multi struct {
		Root      string `json:"root"`
		Signature string `json:"signature"`
		Proposals []struct {
			Hash  string   `json:"hash"`
			Proof []string `json:"proof"`
		} `json:"proposals"`
	}
	args := append([]string{"proposal", "sign-multi", "--signer", proposer, "--password", password}, files...)
	require.NoError(t, json.Unmarshal([]byte(c.mustRun(args...)), &multi))
	require.Len(t, multi.Proposals, 3)

	data := c.mustRun("proposal", "encode", "--intended", "1000", "--slippage", "1", files[1])
	proof := strings.Join(multi.Proposals[1].Proof, ",")
	c.mustRun("proposal", "accept", "--from", loan, "--acceptor", "t0600",
		"--signature", multi.Signature, "--proof", proof, data)

	// a proof for a different leaf does not authenticate
	wrong := strings.Join(multi.Proposals[0].Proof, ",")
	data3 := c.mustRun("proposal", "encode", "--intended", "1000", "--slippage", "1", files[2])
	c.mustFail("proposal", "accept", "--from", loan, "--acceptor", "t0600",
		"--signature", multi.Signature, "--proof", wrong, data3)

	// registering a proposal on chain replaces the signature
	c.mustFail("proposal", "make", "--from", "t0600", files[2])
	c.mustRun("proposal", "make", "--from", proposer, files[2])
	var st map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("proposal", "status", multi.Proposals[2].Hash)), &st))
	assert.Equal(t, true, st["made"])
	c.mustRun("proposal", "accept", "--from", loan, "--acceptor", "t0600", data3)
}

func TestWalletCommands(t *testing.T) {
	tf.IntegrationTest(t)
	c := newCLI(t)
	c.init()

	c.mustFail("wallet", "new")
	assert.Equal(t, "", c.mustRun("wallet", "--password", password, "list"))

	a := c.newProposer()
	b := c.newProposer()
	listed := strings.Split(c.mustRun("wallet", "--password", password, "list"), "\n")
	assert.ElementsMatch(t, []string{a, b}, listed)

	keyFile := filepath.Join(c.dir, "a.key")
	c.mustRun("wallet", "--password", password, "export", a, keyFile)
	c.mustFail("wallet", "--password", "wrong", "export", a, keyFile)

	// the exported key moves to another repo
	other := newCLI(t)
	other.init()
	assert.Equal(t, a, other.mustRun("wallet", "--password", "another", "import", keyFile))
	c.mustFail("wallet", "--password", password, "import", keyFile)

	c.mustRun("wallet", "--password", password, "delete", a)
	assert.Equal(t, b, c.mustRun("wallet", "--password", password, "list"))
}
