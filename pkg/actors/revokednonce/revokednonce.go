// Package revokednonce implements the per-owner nonce ledger.
//
// Every owner has a current nonce space, starting at zero, and a revoked
// bit per (space, nonce). A nonce is usable iff it belongs to the owner's
// current space and its bit is unset. Bits never clear and spaces never
// decrease, so a nonce that stopped being usable never becomes usable again.
package revokednonce

import (
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"

	"github.com/lendcore/lendcore/pkg/actors/hub"
	"github.com/lendcore/lendcore/pkg/types"
	"github.com/lendcore/lendcore/pkg/vm/errors"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

var log = logging.Logger("revokednonce")

var (
	spacePrefix   = datastore.NewKey("/revokednonce/space")
	revokedPrefix = datastore.NewKey("/revokednonce/revoked")
)

func spaceKey(owner address.Address) datastore.Key {
	return spacePrefix.ChildString(owner.String())
}

func revokedKey(owner address.Address, space, nonce big.Int) datastore.Key {
	return revokedPrefix.ChildString(owner.String()).ChildString(space.String()).ChildString(nonce.String())
}

// Actor is the nonce revocation ledger. Delegated revocation requires the
// caller to hold hub.NonceManagerTag in tags.
type Actor struct {
	tags hub.TagSource
}

// NewActor returns a ledger consulting tags for delegated calls.
func NewActor(tags hub.TagSource) *Actor {
	return &Actor{tags: tags}
}

// CurrentNonceSpace returns owner's current nonce space.
func (a *Actor) CurrentNonceSpace(rt runtime.Runtime, owner address.Address) (big.Int, error) {
	space, err := rt.State().GetUint(rt.Context(), spaceKey(owner))
	if err != nil {
		return big.Zero(), errors.FaultErrorWrap(err, "failed to load nonce space")
	}
	return space, nil
}

// IsNonceRevoked reads the revoked bit regardless of the current space.
func (a *Actor) IsNonceRevoked(rt runtime.Runtime, owner address.Address, space, nonce big.Int) (bool, error) {
	if err := checkU256(space, nonce); err != nil {
		return false, err
	}
	revoked, err := rt.State().GetBool(rt.Context(), revokedKey(owner, space, nonce))
	if err != nil {
		return false, errors.FaultErrorWrap(err, "failed to load revoked nonce")
	}
	return revoked, nil
}

// IsNonceUsable reports whether space is owner's current space and nonce
// is not revoked in it.
func (a *Actor) IsNonceUsable(rt runtime.Runtime, owner address.Address, space, nonce big.Int) (bool, error) {
	if err := checkU256(space, nonce); err != nil {
		return false, err
	}
	current, err := a.CurrentNonceSpace(rt, owner)
	if err != nil {
		return false, err
	}
	if !current.Equals(space) {
		return false, nil
	}
	revoked, err := a.IsNonceRevoked(rt, owner, space, nonce)
	if err != nil {
		return false, err
	}
	return !revoked, nil
}

// RevokeNonce revokes nonce in the caller's current space.
func (a *Actor) RevokeNonce(rt runtime.Runtime, nonce big.Int) error {
	owner := rt.Caller()
	space, err := a.CurrentNonceSpace(rt, owner)
	if err != nil {
		return err
	}
	return a.revoke(rt, owner, space, nonce)
}

// RevokeNonceInSpace revokes nonce in an explicit space of the caller.
func (a *Actor) RevokeNonceInSpace(rt runtime.Runtime, space, nonce big.Int) error {
	return a.revoke(rt, rt.Caller(), space, nonce)
}

// RevokeNonceFor revokes nonce in owner's current space on owner's behalf.
func (a *Actor) RevokeNonceFor(rt runtime.Runtime, owner address.Address, nonce big.Int) error {
	if err := a.requireNonceManager(rt); err != nil {
		return err
	}
	space, err := a.CurrentNonceSpace(rt, owner)
	if err != nil {
		return err
	}
	return a.revoke(rt, owner, space, nonce)
}

// RevokeNonceInSpaceFor revokes nonce in an explicit space on owner's behalf.
func (a *Actor) RevokeNonceInSpaceFor(rt runtime.Runtime, owner address.Address, space, nonce big.Int) error {
	if err := a.requireNonceManager(rt); err != nil {
		return err
	}
	return a.revoke(rt, owner, space, nonce)
}

// RevokeNonces revokes every nonce in the caller's current space, in order.
// The first already revoked nonce fails the whole call.
func (a *Actor) RevokeNonces(rt runtime.Runtime, nonces []big.Int) error {
	owner := rt.Caller()
	space, err := a.CurrentNonceSpace(rt, owner)
	if err != nil {
		return err
	}
	for _, nonce := range nonces {
		if err := a.revoke(rt, owner, space, nonce); err != nil {
			return err
		}
	}
	return nil
}

// RevokeNonceSpace moves the caller to the next nonce space and returns it.
func (a *Actor) RevokeNonceSpace(rt runtime.Runtime) (big.Int, error) {
	owner := rt.Caller()
	previous, err := a.CurrentNonceSpace(rt, owner)
	if err != nil {
		return big.Zero(), err
	}
	next := big.Add(previous, big.NewInt(1))
	if !types.IsU256(next) {
		return big.Zero(), errors.NewInvalidInputData("nonce space exhausted")
	}
	if err := rt.State().PutUint(spaceKey(owner), next); err != nil {
		return big.Zero(), errors.FaultErrorWrap(err, "failed to store nonce space")
	}
	log.Debugw("nonce space revoked", "owner", owner, "previous", previous)
	rt.Emit(&NonceSpaceRevoked{Owner: owner, PreviousSpace: previous})
	return next, nil
}

func (a *Actor) revoke(rt runtime.Runtime, owner address.Address, space, nonce big.Int) error {
	revoked, err := a.IsNonceRevoked(rt, owner, space, nonce)
	if err != nil {
		return err
	}
	if revoked {
		return &NonceAlreadyRevoked{Owner: owner, Space: space, Nonce: nonce}
	}
	if err := rt.State().PutBool(revokedKey(owner, space, nonce), true); err != nil {
		return errors.FaultErrorWrap(err, "failed to store revoked nonce")
	}
	log.Debugw("nonce revoked", "owner", owner, "space", space, "nonce", nonce)
	rt.Emit(&NonceRevoked{Owner: owner, Space: space, Nonce: nonce})
	return nil
}

func (a *Actor) requireNonceManager(rt runtime.Runtime) error {
	ok, err := a.tags.HasTag(rt, rt.Caller(), hub.NonceManagerTag)
	if err != nil {
		return err
	}
	if !ok {
		return &errors.AddressMissingHubTag{Addr: rt.Caller(), Tag: hub.NonceManagerTag}
	}
	return nil
}

func checkU256(values ...big.Int) error {
	for _, v := range values {
		if v.Int == nil || !types.IsU256(v) {
			return errors.NewInvalidInputData("value %s is not an unsigned 256 bit integer", v)
		}
	}
	return nil
}
