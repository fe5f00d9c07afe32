package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/lendcore/lendcore/app/node"
	"github.com/lendcore/lendcore/pkg/config"
	"github.com/lendcore/lendcore/pkg/repo"
)

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "initialize a lendcore repo and bootstrap the tag registry",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "owner",
			Usage:    "address owning the tag registry",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "loan-contract",
			Usage: "comma separated loan contracts granted the ActiveLoan tag",
		},
		&cli.Uint64Flag{
			Name:  "chain-id",
			Usage: "chain id of the signing domain",
		},
		&cli.StringFlag{
			Name:  "datastore",
			Usage: "datastore type, badgerds or memds",
			Value: "badgerds",
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg := config.NewDefaultConfig()
		cfg.Actors.HubOwner = cctx.String("owner")
		if cctx.IsSet("loan-contract") {
			cfg.Actors.LoanContracts = splitList(cctx.String("loan-contract"))
		}
		if cctx.IsSet("chain-id") {
			cfg.Protocol.ChainID = cctx.Uint64("chain-id")
		}
		cfg.Datastore.Type = cctx.String("datastore")

		repoPath := cctx.String(repoFlag)
		if err := repo.InitFSRepo(repoPath, repo.LatestVersion, cfg); err != nil {
			return err
		}
		r, err := repo.OpenFSRepo(repoPath, repo.LatestVersion)
		if err != nil {
			return err
		}
		defer r.Close() // nolint: errcheck

		if err := node.Init(cctx.Context, r); err != nil {
			return errors.Wrap(err, "failed to bootstrap repo")
		}
		log.Infof("initialized repo at %s", repoPath)
		_, err = fmt.Fprintf(cctx.App.Writer, "initialized lendcore repo at %s\n", repoPath)
		return err
	},
}

var configCmd = &cli.Command{
	Name:  "config",
	Usage: "get and set repo config values",
	Subcommands: []*cli.Command{
		{
			Name:      "get",
			ArgsUsage: "<key>",
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() != 1 {
					return errors.New("expected a key")
				}
				r, err := repo.OpenFSRepo(cctx.String(repoFlag), repo.LatestVersion)
				if err != nil {
					return err
				}
				defer r.Close() // nolint: errcheck

				v, err := r.Config().Get(cctx.Args().First())
				if err != nil {
					return err
				}
				return printJSON(cctx, v)
			},
		},
		{
			Name:      "set",
			ArgsUsage: "<key> <toml value>",
			Action: func(cctx *cli.Context) error {
				if cctx.NArg() != 2 {
					return errors.New("expected a key and a value")
				}
				r, err := repo.OpenFSRepo(cctx.String(repoFlag), repo.LatestVersion)
				if err != nil {
					return err
				}
				defer r.Close() // nolint: errcheck

				cfg := r.Config()
				v, err := cfg.Set(cctx.Args().Get(0), cctx.Args().Get(1))
				if err != nil {
					return err
				}
				if err := r.ReplaceConfig(cfg); err != nil {
					return err
				}
				return printJSON(cctx, v)
			},
		},
	},
}
