package hub

//go:generate go run github.com/golang/mock/mockgen@v1.6.0 -destination=./mock/tagsource.go -package=mock . TagSource

import (
	"github.com/filecoin-project/go-address"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/lendcore/lendcore/pkg/types"
	"github.com/lendcore/lendcore/pkg/vm/errors"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

var log = logging.Logger("hub")

// Tag is an opaque capability identifier.
type Tag = types.Hash

// TagFromName derives a tag from a human readable name.
func TagFromName(name string) Tag {
	return types.Sum256([]byte(name))
}

var (
	// ActiveLoanTag marks loan contracts allowed to redeem proposals.
	ActiveLoanTag = TagFromName("ActiveLoan")
	// NonceManagerTag marks addresses allowed to revoke nonces on behalf of
	// their owners.
	NonceManagerTag = TagFromName("NonceManager")
	// LoanProposalTag marks registered proposal variants.
	LoanProposalTag = TagFromName("LoanProposal")
)

// KnownTags maps the names of well-known tags to their values.
var KnownTags = map[string]Tag{
	"ActiveLoan":   ActiveLoanTag,
	"NonceManager": NonceManagerTag,
	"LoanProposal": LoanProposalTag,
}

// ParseTag accepts a well-known tag name or a 0x prefixed 32 byte hex string.
func ParseTag(s string) (Tag, error) {
	if t, ok := KnownTags[s]; ok {
		return t, nil
	}
	t, err := types.HashFromHex(s)
	if err != nil {
		return Tag{}, xerrors.Errorf("unknown tag %q: %w", s, err)
	}
	return t, nil
}

// TagSource answers capability queries. The registry actor is the
// production implementation.
type TagSource interface {
	HasTag(rt runtime.Runtime, addr address.Address, tag Tag) (bool, error)
}

var (
	ownerKey   = datastore.NewKey("/hub/owner")
	tagsPrefix = datastore.NewKey("/hub/tags")
)

func tagKey(addr address.Address, tag Tag) datastore.Key {
	return tagsPrefix.ChildString(addr.String()).ChildString(tag.Hex())
}

// Actor is the owner-governed capability tag registry.
type Actor struct{}

var _ TagSource = (*Actor)(nil)

// NewActor returns the registry actor.
func NewActor() *Actor {
	return &Actor{}
}

// Constructor sets the initial owner. It can only run once.
func (a *Actor) Constructor(rt runtime.Runtime, owner address.Address) error {
	current, err := a.Owner(rt)
	if err != nil {
		return err
	}
	if current != address.Undef {
		return errors.NewCodedRevertErrorf(errors.ErrUnauthorized, "hub already has owner %s", current)
	}
	if owner == address.Undef {
		return errors.NewInvalidInputData("hub owner must be set")
	}
	if err := rt.State().Put(ownerKey, owner.Bytes()); err != nil {
		return errors.FaultErrorWrap(err, "failed to store hub owner")
	}
	rt.Emit(&OwnershipTransferred{Previous: address.Undef, New: owner})
	return nil
}

// Owner returns the registry owner, or address.Undef before construction.
func (a *Actor) Owner(rt runtime.Runtime) (address.Address, error) {
	b, found, err := rt.State().Get(rt.Context(), ownerKey)
	if err != nil {
		return address.Undef, errors.FaultErrorWrap(err, "failed to load hub owner")
	}
	if !found {
		return address.Undef, nil
	}
	owner, err := address.NewFromBytes(b)
	if err != nil {
		return address.Undef, errors.FaultErrorWrap(err, "corrupt hub owner")
	}
	return owner, nil
}

// TransferOwnership hands the registry to newOwner.
func (a *Actor) TransferOwnership(rt runtime.Runtime, newOwner address.Address) error {
	owner, err := a.requireOwner(rt)
	if err != nil {
		return err
	}
	if newOwner == address.Undef {
		return errors.NewInvalidInputData("new owner must be set")
	}
	if err := rt.State().Put(ownerKey, newOwner.Bytes()); err != nil {
		return errors.FaultErrorWrap(err, "failed to store hub owner")
	}
	rt.Emit(&OwnershipTransferred{Previous: owner, New: newOwner})
	return nil
}

// SetTag grants or removes tag for addr.
func (a *Actor) SetTag(rt runtime.Runtime, addr address.Address, tag Tag, value bool) error {
	if _, err := a.requireOwner(rt); err != nil {
		return err
	}
	return a.setTag(rt, addr, tag, value)
}

// SetTags assigns tags[i] to addrs[i] for every i. Both slices must have
// the same length.
func (a *Actor) SetTags(rt runtime.Runtime, addrs []address.Address, tags []Tag, value bool) error {
	if _, err := a.requireOwner(rt); err != nil {
		return err
	}
	if len(addrs) != len(tags) {
		return errors.NewInvalidInputData("%d addresses but %d tags", len(addrs), len(tags))
	}
	for i := range addrs {
		if err := a.setTag(rt, addrs[i], tags[i], value); err != nil {
			return err
		}
	}
	return nil
}

// HasTag reports whether addr currently holds tag.
func (a *Actor) HasTag(rt runtime.Runtime, addr address.Address, tag Tag) (bool, error) {
	v, err := rt.State().GetBool(rt.Context(), tagKey(addr, tag))
	if err != nil {
		return false, errors.FaultErrorWrap(err, "failed to load tag")
	}
	return v, nil
}

func (a *Actor) setTag(rt runtime.Runtime, addr address.Address, tag Tag, value bool) error {
	if err := rt.State().PutBool(tagKey(addr, tag), value); err != nil {
		return errors.FaultErrorWrap(err, "failed to store tag")
	}
	log.Debugw("tag set", "address", addr, "tag", tag, "value", value)
	rt.Emit(&TagSet{Address: addr, Tag: tag, Value: value})
	return nil
}

func (a *Actor) requireOwner(rt runtime.Runtime) (address.Address, error) {
	owner, err := a.Owner(rt)
	if err != nil {
		return address.Undef, err
	}
	if owner == address.Undef || rt.Caller() != owner {
		return address.Undef, &errors.Unauthorized{Caller: rt.Caller(), Owner: owner}
	}
	return owner, nil
}
