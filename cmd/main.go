// Package cmd implements the lendcore command line.
package cmd

import (
	"context"
	"fmt"
	"io"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"

	"github.com/lendcore/lendcore/pkg/constants"
)

var log = logging.Logger("cmd")

const repoFlag = "repo"

// NewApp returns the lendcore cli application.
func NewApp(out io.Writer) *cli.App {
	app := &cli.App{
		Name:                 "lendcore",
		Usage:                "proposal authorization and Dutch auction pricing for peer to peer loans",
		Version:              constants.UserVersion(),
		EnableBashCompletion: true,
		Writer:               out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    repoFlag,
				Usage:   "path of the lendcore repo",
				EnvVars: []string{constants.RepoPathEnv},
				Value:   constants.DefaultRepoPath,
			},
		},
		Commands: []*cli.Command{
			initCmd,
			configCmd,
			walletCmd,
			tagCmd,
			nonceCmd,
			proposalCmd,
			daemonCmd,
		},
	}
	app.Setup()
	return app
}

// Run runs the cli with args and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := NewApp(stdout).RunContext(ctx, args); err != nil {
		fmt.Fprintf(stderr, "ERR: %v\n", err) // nolint: errcheck
		return 1
	}
	return 0
}
