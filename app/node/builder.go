package node

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lendcore/lendcore/pkg/actors/hub"
	"github.com/lendcore/lendcore/pkg/actors/proposal"
	"github.com/lendcore/lendcore/pkg/actors/proposal/dutchauction"
	"github.com/lendcore/lendcore/pkg/actors/revokednonce"
	"github.com/lendcore/lendcore/pkg/clock"
	"github.com/lendcore/lendcore/pkg/journal"
	"github.com/lendcore/lendcore/pkg/repo"
	"github.com/lendcore/lendcore/pkg/vm"
)

// Builder is a helper to aid in the construction of a lendcore node.
type Builder struct {
	repo    repo.Repo
	journal journal.Journal
	clock   clock.Clock
}

// BuilderOpt is an option for building a lendcore node.
type BuilderOpt func(*Builder) error

// RepoConfigOption sets the repo the node reads its config and state from.
func RepoConfigOption(r repo.Repo) BuilderOpt {
	return func(c *Builder) error {
		c.repo = r
		return nil
	}
}

// JournalConfigOption returns a function that sets the journal to use in the node.
func JournalConfigOption(jrl journal.Journal) BuilderOpt {
	return func(c *Builder) error {
		c.journal = jrl
		return nil
	}
}

// ClockConfigOption returns a function that sets the clock calls read their
// time from.
func ClockConfigOption(clk clock.Clock) BuilderOpt {
	return func(c *Builder) error {
		c.clock = clk
		return nil
	}
}

// New creates a new node.
func New(ctx context.Context, opts ...BuilderOpt) (*Node, error) {
	// initialize builder and set base values
	n := &Builder{}
	// apply builder options
	for _, o := range opts {
		if err := o(n); err != nil {
			return nil, err
		}
	}

	// build the node
	return n.build(ctx)
}

func (b *Builder) build(ctx context.Context) (*Node, error) {
	//
	// Set default values on un-initialized fields
	//
	if b.repo == nil {
		b.repo = repo.NewInMemoryRepo()
	}
	if b.clock == nil {
		b.clock = clock.NewSystemClock()
	}

	cfg := b.repo.Config()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	nd := &Node{repo: b.repo}

	if b.journal == nil {
		if cfg.Journal.Enabled {
			zj, err := journal.NewZapJournal(b.repo.JournalPath())
			if err != nil {
				return nil, errors.Wrap(err, "failed to open journal")
			}
			b.journal = zj
			nd.closers = append(nd.closers, zj.Close)
		} else {
			b.journal = journal.NewNoopJournal()
		}
	}
	nd.journal = b.journal

	nd.vm = vm.NewVM(b.repo.Datastore(), b.clock, b.journal)
	nd.hub = hub.NewActor()
	nd.nonces = revokednonce.NewActor(nd.hub)

	var err error
	nd.dutchAuction, err = proposal.NewAuthorizer(proposal.Config{
		Variant:            dutchauction.Variant{},
		Address:            DutchAuctionProposalAddress,
		ChainID:            cfg.Protocol.ChainID,
		Tags:               nd.hub,
		Nonces:             nd.nonces,
		SignatureCacheSize: cfg.Protocol.SignatureCacheSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build node.dutchAuction")
	}

	log.Infow("node built", "chainId", cfg.Protocol.ChainID, "datastore", cfg.Datastore.Type, "journal", cfg.Journal.Enabled)
	return nd, nil
}

// Repo returns the repo.
func (b Builder) Repo() repo.Repo {
	return b.repo
}
