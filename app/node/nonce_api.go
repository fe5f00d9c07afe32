package node

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/lendcore/lendcore/pkg/vm"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

// RevokeNonce revokes nonce in the caller's current space.
func (node *Node) RevokeNonce(ctx context.Context, caller address.Address, nonce big.Int) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.nonces.RevokeNonce(rt, nonce)
	})
}

// RevokeNonceInSpace revokes nonce in the caller's space.
func (node *Node) RevokeNonceInSpace(ctx context.Context, caller address.Address, space, nonce big.Int) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.nonces.RevokeNonceInSpace(rt, space, nonce)
	})
}

// RevokeNonceFor revokes nonce in owner's current space. The caller must be
// a nonce manager.
func (node *Node) RevokeNonceFor(ctx context.Context, caller, owner address.Address, nonce big.Int) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.nonces.RevokeNonceFor(rt, owner, nonce)
	})
}

// RevokeNonceInSpaceFor revokes nonce in owner's space. The caller must be a
// nonce manager.
func (node *Node) RevokeNonceInSpaceFor(ctx context.Context, caller, owner address.Address, space, nonce big.Int) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.nonces.RevokeNonceInSpaceFor(rt, owner, space, nonce)
	})
}

// RevokeNonces revokes every nonce in the caller's current space, or none.
func (node *Node) RevokeNonces(ctx context.Context, caller address.Address, nonces []big.Int) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.nonces.RevokeNonces(rt, nonces)
	})
}

// RevokeNonceSpace moves the caller to a new nonce space and returns it.
func (node *Node) RevokeNonceSpace(ctx context.Context, caller address.Address) (big.Int, *vm.Receipt, error) {
	var next big.Int
	rcpt, err := node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		var err error
		next, err = node.nonces.RevokeNonceSpace(rt)
		return err
	})
	return next, rcpt, err
}

// CurrentNonceSpace returns owner's current nonce space.
func (node *Node) CurrentNonceSpace(ctx context.Context, owner address.Address) (big.Int, error) {
	var space big.Int
	err := node.vm.View(ctx, address.Undef, func(rt runtime.Runtime) error {
		var err error
		space, err = node.nonces.CurrentNonceSpace(rt, owner)
		return err
	})
	return space, err
}

// IsNonceRevoked reports whether nonce was explicitly revoked in space.
func (node *Node) IsNonceRevoked(ctx context.Context, owner address.Address, space, nonce big.Int) (bool, error) {
	var revoked bool
	err := node.vm.View(ctx, address.Undef, func(rt runtime.Runtime) error {
		var err error
		revoked, err = node.nonces.IsNonceRevoked(rt, owner, space, nonce)
		return err
	})
	return revoked, err
}

// IsNonceUsable reports whether nonce can still authorize a proposal.
func (node *Node) IsNonceUsable(ctx context.Context, owner address.Address, space, nonce big.Int) (bool, error) {
	var usable bool
	err := node.vm.View(ctx, address.Undef, func(rt runtime.Runtime) error {
		var err error
		usable, err = node.nonces.IsNonceUsable(rt, owner, space, nonce)
		return err
	})
	return usable, err
}
