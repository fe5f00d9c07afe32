package cmd

import (
	"fmt"
	"strings"

	"github.com/filecoin-project/go-address"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/lendcore/lendcore/app/node"
	"github.com/lendcore/lendcore/pkg/actors/hub"
)

var tagCmd = &cli.Command{
	Name:  "tag",
	Usage: "inspect and govern the capability tag registry",
	Subcommands: []*cli.Command{
		{
			Name:      "set",
			Usage:     "grant or revoke a tag; tags are well-known names or 0x hashes",
			ArgsUsage: "<address> <tag> <true|false>",
			Flags:     []cli.Flag{fromFlag},
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() != 3 {
					return errors.New("expected an address, a tag and a value")
				}
				from, err := fromAddress(cctx)
				if err != nil {
					return err
				}
				addr, err := parseAddress(cctx.Args().Get(0))
				if err != nil {
					return err
				}
				tag, err := hub.ParseTag(cctx.Args().Get(1))
				if err != nil {
					return err
				}
				value, err := parseBool(cctx.Args().Get(2))
				if err != nil {
					return err
				}
				return withNode(cctx, func(nd *node.Node) error {
					rcpt, err := nd.SetTag(cctx.Context, from, addr, tag, value)
					if err != nil {
						return err
					}
					return printReceipt(cctx, rcpt)
				})
			},
		},
		{
			Name:      "set-many",
			Usage:     "set one value for several address:tag pairs at once",
			ArgsUsage: "<true|false> <address:tag>...",
			Flags:     []cli.Flag{fromFlag},
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() < 2 {
					return errors.New("expected a value and at least one pair")
				}
				from, err := fromAddress(cctx)
				if err != nil {
					return err
				}
				value, err := parseBool(cctx.Args().First())
				if err != nil {
					return err
				}
				var (
					addrs []address.Address
					tags  []hub.Tag
				)
				for _, pair := range cctx.Args().Tail() {
					a, t, err := splitPair(pair)
					if err != nil {
						return err
					}
					addr, err := parseAddress(a)
					if err != nil {
						return err
					}
					tag, err := hub.ParseTag(t)
					if err != nil {
						return err
					}
					addrs = append(addrs, addr)
					tags = append(tags, tag)
				}
				return withNode(cctx, func(nd *node.Node) error {
					rcpt, err := nd.SetTags(cctx.Context, from, addrs, tags, value)
					if err != nil {
						return err
					}
					return printReceipt(cctx, rcpt)
				})
			},
		},
		{
			Name:      "has",
			ArgsUsage: "<address> <tag>",
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() != 2 {
					return errors.New("expected an address and a tag")
				}
				addr, err := parseAddress(cctx.Args().Get(0))
				if err != nil {
					return err
				}
				tag, err := hub.ParseTag(cctx.Args().Get(1))
				if err != nil {
					return err
				}
				return withNode(cctx, func(nd *node.Node) error {
					ok, err := nd.HasTag(cctx.Context, addr, tag)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cctx.App.Writer, ok)
					return err
				})
			},
		},
		{
			Name:  "owner",
			Usage: "print the registry owner",
			Action: func(cctx *cli.Context) error {
				return withNode(cctx, func(nd *node.Node) error {
					owner, err := nd.HubOwner(cctx.Context)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cctx.App.Writer, owner)
					return err
				})
			},
		},
		{
			Name:      "transfer",
			Usage:     "transfer registry ownership",
			ArgsUsage: "<new owner>",
			Flags:     []cli.Flag{fromFlag},
			Action: func(cctx *cli.Context) error {
				from, err := fromAddress(cctx)
				if err != nil {
					return err
				}
				newOwner, err := parseAddress(cctx.Args().First())
				if err != nil {
					return err
				}
				return withNode(cctx, func(nd *node.Node) error {
					rcpt, err := nd.TransferHubOwnership(cctx.Context, from, newOwner)
					if err != nil {
						return err
					}
					return printReceipt(cctx, rcpt)
				})
			},
		},
	},
}

func splitPair(pair string) (string, string, error) {
	i := strings.LastIndex(pair, ":")
	if i < 0 {
		return "", "", errors.Errorf("expected address:tag, got %q", pair)
	}
	return pair[:i], pair[i+1:], nil
}
