package cmd

import (
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/lendcore/lendcore/app/node"
	"github.com/lendcore/lendcore/pkg/vm"
)

var nonceCmd = &cli.Command{
	Name:  "nonce",
	Usage: "revoke and inspect proposal nonces",
	Subcommands: []*cli.Command{
		{
			Name: "revoke",
			Usage: "revoke nonces of the caller, or of --owner when the caller is a nonce manager; " +
				"several nonces are revoked all or nothing",
			ArgsUsage: "<nonce>...",
			Flags: []cli.Flag{
				fromFlag,
				&cli.StringFlag{
					Name:  "owner",
					Usage: "revoke on behalf of this owner",
				},
				&cli.StringFlag{
					Name:  "space",
					Usage: "nonce space; defaults to the current one",
				},
			},
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() == 0 {
					return errors.New("expected at least one nonce")
				}
				from, err := fromAddress(cctx)
				if err != nil {
					return err
				}
				nonces := make([]big.Int, 0, cctx.NArg())
				for _, s := range cctx.Args().Slice() {
					n, err := parseBigInt(s)
					if err != nil {
						return err
					}
					nonces = append(nonces, n)
				}

				owner := address.Undef
				if cctx.IsSet("owner") {
					if owner, err = parseAddress(cctx.String("owner")); err != nil {
						return err
					}
				}
				var space *big.Int
				if cctx.IsSet("space") {
					s, err := parseBigInt(cctx.String("space"))
					if err != nil {
						return err
					}
					space = &s
				}
				if len(nonces) > 1 && (owner != address.Undef || space != nil) {
					return errors.New("several nonces can only be revoked in the caller's current space")
				}

				return withNode(cctx, func(nd *node.Node) error {
					var (
						rcpt *vm.Receipt
						err  error
						ctx  = cctx.Context
					)
					switch {
					case len(nonces) > 1:
						rcpt, err = nd.RevokeNonces(ctx, from, nonces)
					case owner != address.Undef && space != nil:
						rcpt, err = nd.RevokeNonceInSpaceFor(ctx, from, owner, *space, nonces[0])
					case owner != address.Undef:
						rcpt, err = nd.RevokeNonceFor(ctx, from, owner, nonces[0])
					case space != nil:
						rcpt, err = nd.RevokeNonceInSpace(ctx, from, *space, nonces[0])
					default:
						rcpt, err = nd.RevokeNonce(ctx, from, nonces[0])
					}
					if err != nil {
						return err
					}
					return printReceipt(cctx, rcpt)
				})
			},
		},
		{
			Name:  "revoke-space",
			Usage: "invalidate every nonce of the caller's current space",
			Flags: []cli.Flag{fromFlag},
			Action: func(cctx *cli.Context) error {
				from, err := fromAddress(cctx)
				if err != nil {
					return err
				}
				return withNode(cctx, func(nd *node.Node) error {
					next, rcpt, err := nd.RevokeNonceSpace(cctx.Context, from)
					if err != nil {
						return err
					}
					log.Infof("%s moved to nonce space %s", from, next)
					return printReceipt(cctx, rcpt)
				})
			},
		},
		{
			Name:      "space",
			Usage:     "print the current nonce space of an owner",
			ArgsUsage: "<owner>",
			Action: func(cctx *cli.Context) error {
				owner, err := parseAddress(cctx.Args().First())
				if err != nil {
					return err
				}
				return withNode(cctx, func(nd *node.Node) error {
					space, err := nd.CurrentNonceSpace(cctx.Context, owner)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cctx.App.Writer, space)
					return err
				})
			},
		},
		{
			Name:      "status",
			Usage:     "print whether a nonce is revoked and whether it is usable",
			ArgsUsage: "<owner> <space> <nonce>",
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() != 3 {
					return errors.New("expected an owner, a space and a nonce")
				}
				owner, err := parseAddress(cctx.Args().Get(0))
				if err != nil {
					return err
				}
				space, err := parseBigInt(cctx.Args().Get(1))
				if err != nil {
					return err
				}
				nonce, err := parseBigInt(cctx.Args().Get(2))
				if err != nil {
					return err
				}
				return withNode(cctx, func(nd *node.Node) error {
					revoked, err := nd.IsNonceRevoked(cctx.Context, owner, space, nonce)
					if err != nil {
						return err
					}
					usable, err := nd.IsNonceUsable(cctx.Context, owner, space, nonce)
					if err != nil {
						return err
					}
					return printJSON(cctx, map[string]bool{"revoked": revoked, "usable": usable})
				})
			},
		},
	},
}
