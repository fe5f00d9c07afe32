package node

import (
	"context"

	"github.com/filecoin-project/go-address"

	"github.com/lendcore/lendcore/pkg/actors/hub"
	"github.com/lendcore/lendcore/pkg/vm"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

// HubOwner returns the tag registry owner.
func (node *Node) HubOwner(ctx context.Context) (address.Address, error) {
	var owner address.Address
	err := node.vm.View(ctx, address.Undef, func(rt runtime.Runtime) error {
		var err error
		owner, err = node.hub.Owner(rt)
		return err
	})
	return owner, err
}

// TransferHubOwnership hands the tag registry to newOwner.
func (node *Node) TransferHubOwnership(ctx context.Context, caller, newOwner address.Address) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.hub.TransferOwnership(rt, newOwner)
	})
}

// SetTag grants or revokes tag for addr.
func (node *Node) SetTag(ctx context.Context, caller, addr address.Address, tag hub.Tag, value bool) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.hub.SetTag(rt, addr, tag, value)
	})
}

// SetTags sets value for every (addrs[i], tags[i]) pair in one call.
func (node *Node) SetTags(ctx context.Context, caller address.Address, addrs []address.Address, tags []hub.Tag, value bool) (*vm.Receipt, error) {
	return node.vm.Apply(ctx, caller, func(rt runtime.Runtime) error {
		return node.hub.SetTags(rt, addrs, tags, value)
	})
}

// HasTag reports whether addr holds tag.
func (node *Node) HasTag(ctx context.Context, addr address.Address, tag hub.Tag) (bool, error) {
	var ok bool
	err := node.vm.View(ctx, address.Undef, func(rt runtime.Runtime) error {
		var err error
		ok, err = node.hub.HasTag(rt, addr, tag)
		return err
	})
	return ok, err
}
