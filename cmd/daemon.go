package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/lendcore/lendcore/app/node"
	"github.com/lendcore/lendcore/pkg/repo"
)

var daemonCmd = &cli.Command{
	Name:  "daemon",
	Usage: "open the repo and serve metrics until interrupted",
	Action: func(cctx *cli.Context) error {
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

		if err := nd.Start(cctx.Context); err != nil {
			return err
		}
		log.Infof("lendcore running with repo %s", cctx.String(repoFlag))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			log.Warnf("received %s, shutting down", sig)
		case <-cctx.Context.Done():
		}
		return nil
	},
}
