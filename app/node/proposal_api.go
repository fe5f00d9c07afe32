package node

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/lendcore/lendcore/pkg/actors/proposal"
	"github.com/lendcore/lendcore/pkg/actors/proposal/dutchauction"
	"github.com/lendcore/lendcore/pkg/types"
	"github.com/lendcore/lendcore/pkg/vm"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

// GetProposalHash returns the identity of p under the node's domain.
func (node *Node) GetProposalHash(p *dutchauction.Proposal) (types.Hash, error) {
	return node.dutchAuction.GetProposalHash(dutchauction.NewCandidate(p))
}

// GetCreditAmount returns the auction price of p at time t.
func (node *Node) GetCreditAmount(p *dutchauction.Proposal, t uint64) (big.Int, error) {
	return dutchauction.GetCreditAmount(p, t)
}

// EncodeProposalData encodes p with acceptance values v.
func (node *Node) EncodeProposalData(p *dutchauction.Proposal, v dutchauction.ProposalValues) ([]byte, error) {
	return dutchauction.EncodeProposalData(p, v)
}

// DecodeProposalData reverses EncodeProposalData.
func (node *Node) DecodeProposalData(data []byte) (*dutchauction.Proposal, dutchauction.ProposalValues, error) {
	return dutchauction.DecodeProposalData(data)
}

// MakeProposal registers p on behalf of its proposer.
func (node *Node) MakeProposal(ctx context.Context, caller address.Address, p *dutchauction.Proposal) (types.Hash, *vm.Receipt, error) {
	var hash types.Hash
	rcpt, err := node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		var err error
		hash, err = node.dutchAuction.MakeProposal(rt, dutchauction.NewCandidate(p))
		return err
	})
	return hash, rcpt, err
}

// IsProposalMade reports whether hash was registered.
func (node *Node) IsProposalMade(ctx context.Context, hash types.Hash) (bool, error) {
	var made bool
	err := node.vm.View(ctx, address.Undef, func(rt runtime.Runtime) error {
		var err error
		made, err = node.dutchAuction.IsProposalMade(rt, hash)
		return err
	})
	return made, err
}

// GetCreditUsed returns the credit drawn from hash so far.
func (node *Node) GetCreditUsed(ctx context.Context, hash types.Hash) (big.Int, error) {
	var used big.Int
	err := node.vm.View(ctx, address.Undef, func(rt runtime.Runtime) error {
		var err error
		used, err = node.dutchAuction.GetCreditUsed(rt, hash)
		return err
	})
	return used, err
}

// RevokeProposalNonce revokes a nonce of the caller through the authorizer.
func (node *Node) RevokeProposalNonce(ctx context.Context, caller address.Address, space, nonce big.Int) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.dutchAuction.RevokeNonce(rt, space, nonce)
	})
}

// AcceptProposal redeems a proposal as the calling loan contract.
func (node *Node) AcceptProposal(ctx context.Context, caller address.Address, params proposal.AcceptParams) (types.Hash, *types.Terms, *vm.Receipt, error) {
	var (
		hash  types.Hash
		terms *types.Terms
	)
	rcpt, err := node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		var err error
		hash, terms, err = node.dutchAuction.AcceptProposal(rt, params)
		return err
	})
	return hash, terms, rcpt, err
}
