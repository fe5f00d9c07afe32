package node

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/filecoin-project/go-address"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/lendcore/lendcore/pkg/actors/hub"
	"github.com/lendcore/lendcore/pkg/actors/proposal"
	"github.com/lendcore/lendcore/pkg/actors/revokednonce"
	"github.com/lendcore/lendcore/pkg/constants"
	"github.com/lendcore/lendcore/pkg/journal"
	"github.com/lendcore/lendcore/pkg/metrics"
	"github.com/lendcore/lendcore/pkg/repo"
	"github.com/lendcore/lendcore/pkg/vm"
)

var log = logging.Logger("node")

// Built-in component addresses.
var (
	HubAddress                  = mustIDAddress(constants.HubActorID)
	RevokedNonceAddress         = mustIDAddress(constants.RevokedNonceActorID)
	DutchAuctionProposalAddress = mustIDAddress(constants.DutchAuctionProposalActorID)
)

func mustIDAddress(id uint64) address.Address {
	a, err := address.NewIDAddress(id)
	if err != nil {
		panic(err)
	}
	return a
}

// Node hosts the lending core components over one VM.
type Node struct {
	// repo is the repo this node was created with.
	//
	// It contains all persistent artifacts of the node.
	repo repo.Repo

	vm      *vm.VM
	journal journal.Journal

	//
	// Components
	//
	hub          *hub.Actor
	nonces       *revokednonce.Actor
	dutchAuction *proposal.Authorizer

	metricsServer *http.Server
	closers       []func() error
}

// Repo returns the node repo.
func (node *Node) Repo() repo.Repo {
	return node.repo
}

// VM returns the node VM.
func (node *Node) VM() *vm.VM {
	return node.vm
}

// DutchAuction returns the Dutch auction proposal authorizer.
func (node *Node) DutchAuction() *proposal.Authorizer {
	return node.dutchAuction
}

// Start serves metrics when enabled in the config.
func (node *Node) Start(ctx context.Context) error {
	cfg := node.repo.Config().Metrics
	if !cfg.Enabled {
		return nil
	}

	handler, err := metrics.NewExporter(cfg.Namespace)
	if err != nil {
		return errors.Wrap(err, "failed to create metrics exporter")
	}
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", cfg.Address)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	node.metricsServer = &http.Server{Handler: mux}
	go func() {
		if err := node.metricsServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server stopped: %s", err)
		}
	}()
	log.Infof("serving metrics on %s/metrics", ln.Addr())
	return nil
}

// Stop shuts down the metrics server, flushes the journal and closes the
// repo.
func (node *Node) Stop(ctx context.Context) {
	if node.metricsServer != nil {
		sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := node.metricsServer.Shutdown(sctx); err != nil {
			log.Errorf("error shutting down metrics server: %s", err)
		}
	}
	for _, c := range node.closers {
		if err := c(); err != nil {
			log.Warnf("error closing node resource: %s", err)
		}
	}
	if err := node.repo.Close(); err != nil {
		log.Errorf("error closing repo: %s", err)
	}
	log.Info("stopping lendcore :(")
}
