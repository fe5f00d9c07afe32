package cmd

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/lendcore/lendcore/pkg/constants"
	"github.com/lendcore/lendcore/pkg/crypto"
	"github.com/lendcore/lendcore/pkg/repo"
	"github.com/lendcore/lendcore/pkg/wallet"
)

var passwordFlag = &cli.StringFlag{
	Name:     "password",
	Usage:    "wallet passphrase",
	EnvVars:  []string{constants.WalletPasswordEnv},
	Required: true,
}

func openWallet(cctx *cli.Context, r repo.Repo) (*wallet.Wallet, error) {
	return wallet.New(r.WalletDatastore(), r.Config().Wallet, []byte(cctx.String("password")))
}

// withWallet opens the repo and its wallet and runs fn.
func withWallet(cctx *cli.Context, fn func(w *wallet.Wallet) error) error {
	r, err := repo.OpenFSRepo(cctx.String(repoFlag), repo.LatestVersion)
	if err != nil {
		return err
	}
	defer r.Close() // nolint: errcheck

	w, err := openWallet(cctx, r)
	if err != nil {
		return err
	}
	return fn(w)
}

var walletCmd = &cli.Command{
	Name:  "wallet",
	Usage: "manage the encrypted proposer keys held in the repo",
	Flags: []cli.Flag{passwordFlag},
	Subcommands: []*cli.Command{
		{
			Name:  "new",
			Usage: "generate a secp256k1 key and print its address",
			Action: func(cctx *cli.Context) error {
				return withWallet(cctx, func(w *wallet.Wallet) error {
					addr, err := w.NewAddress(cctx.Context)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cctx.App.Writer, addr)
					return err
				})
			},
		},
		{
			Name: "list",
			Action: func(cctx *cli.Context) error {
				return withWallet(cctx, func(w *wallet.Wallet) error {
					addrs, err := w.Addresses(cctx.Context)
					if err != nil {
						return err
					}
					for _, a := range addrs {
						if _, err := fmt.Fprintln(cctx.App.Writer, a); err != nil {
							return err
						}
					}
					return nil
				})
			},
		},
		{
			Name:      "import",
			Usage:     "import a json key file",
			ArgsUsage: "<file>",
			Action: func(cctx *cli.Context) error {
				b, err := ioutil.ReadFile(cctx.Args().First())
				if err != nil {
					return err
				}
				var ki crypto.KeyInfo
				if err := json.Unmarshal(b, &ki); err != nil {
					return errors.Wrap(err, "failed to parse key file")
				}
				return withWallet(cctx, func(w *wallet.Wallet) error {
					addr, err := w.Import(cctx.Context, &ki)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cctx.App.Writer, addr)
					return err
				})
			},
		},
		{
			Name:      "export",
			Usage:     "write the key of an address as a json key file",
			ArgsUsage: "<address> <file>",
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() != 2 {
					return errors.New("expected an address and an output file")
				}
				addr, err := parseAddress(cctx.Args().Get(0))
				if err != nil {
					return err
				}
				return withWallet(cctx, func(w *wallet.Wallet) error {
					ki, err := w.Export(cctx.Context, addr)
					if err != nil {
						return err
					}
					b, err := json.Marshal(ki)
					if err != nil {
						return err
					}
					return ioutil.WriteFile(cctx.Args().Get(1), b, 0600)
				})
			},
		},
		{
			Name:      "delete",
			ArgsUsage: "<address>",
			Action: func(cctx *cli.Context) error {
				addr, err := parseAddress(cctx.Args().First())
				if err != nil {
					return err
				}
				return withWallet(cctx, func(w *wallet.Wallet) error {
					return w.Delete(cctx.Context, addr)
				})
			},
		},
	},
}
