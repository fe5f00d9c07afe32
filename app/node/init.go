package node

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/pkg/errors"

	"github.com/lendcore/lendcore/pkg/actors/hub"
	"github.com/lendcore/lendcore/pkg/journal"
	"github.com/lendcore/lendcore/pkg/repo"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

// initCfg contains configuration for initializing a node's repo.
type initCfg struct {
	grants []grant
	opts   []BuilderOpt
}

type grant struct {
	addr address.Address
	tag  hub.Tag
}

// InitOpt is an option for initialization of a node's repo.
type InitOpt func(*initCfg)

// GrantTagOpt grants tag to addr during initialization.
func GrantTagOpt(addr address.Address, tag hub.Tag) InitOpt {
	return func(opts *initCfg) {
		opts.grants = append(opts.grants, grant{addr: addr, tag: tag})
	}
}

// BuilderOpts passes options to the node built for initialization.
func BuilderOpts(bopts ...BuilderOpt) InitOpt {
	return func(opts *initCfg) {
		opts.opts = append(opts.opts, bopts...)
	}
}

// Init constructs the tag registry of a fresh repo with the configured hub
// owner and grants the built-in capabilities: the proposal authorizer manages
// nonces and is a registered proposal variant, and every configured loan
// contract is active.
func Init(ctx context.Context, r repo.Repo, opts ...InitOpt) error {
	cfg := new(initCfg)
	for _, o := range opts {
		o(cfg)
	}

	owner, err := r.Config().Actors.HubOwnerAddress()
	if err != nil {
		return errors.Wrap(err, "could not init node")
	}
	loans, err := r.Config().Actors.LoanContractAddresses()
	if err != nil {
		return errors.Wrap(err, "could not init node")
	}

	bopts := append([]BuilderOpt{RepoConfigOption(r), JournalConfigOption(journal.NewNoopJournal())}, cfg.opts...)
	nd, err := New(ctx, bopts...)
	if err != nil {
		return errors.Wrap(err, "could not init node")
	}

	addrs := []address.Address{DutchAuctionProposalAddress, DutchAuctionProposalAddress}
	tags := []hub.Tag{hub.NonceManagerTag, hub.LoanProposalTag}
	for _, l := range loans {
		addrs = append(addrs, l)
		tags = append(tags, hub.ActiveLoanTag)
	}
	for _, g := range cfg.grants {
		addrs = append(addrs, g.addr)
		tags = append(tags, g.tag)
	}

	_, err = nd.vm.Apply(ctx, owner, func(rt runtime.Runtime) error {
		if err := nd.hub.Constructor(rt, owner); err != nil {
			return err
		}
		return nd.hub.SetTags(rt, addrs, tags, true)
	})
	if err != nil {
		return errors.Wrap(err, "failed to bootstrap tag registry")
	}
	log.Infow("repo initialized", "owner", owner, "loanContracts", len(loans), "grants", len(addrs))
	return nil
}
