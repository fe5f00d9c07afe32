package hub

import (
	"github.com/filecoin-project/go-address"
)

// Topic is the journal topic of registry events.
const Topic = "hub"

// TagSet is emitted on every tag assignment, including unchanged ones.
type TagSet struct {
	Address address.Address
	Tag     Tag
	Value   bool
}

func (e *TagSet) Topic() string { return Topic }

func (e *TagSet) Name() string { return "TagSet" }

func (e *TagSet) KVs() []interface{} {
	return []interface{}{"address", e.Address.String(), "tag", e.Tag.Hex(), "value", e.Value}
}

// OwnershipTransferred is emitted when the registry changes hands.
type OwnershipTransferred struct {
	Previous address.Address
	New      address.Address
}

func (e *OwnershipTransferred) Topic() string { return Topic }

func (e *OwnershipTransferred) Name() string { return "OwnershipTransferred" }

func (e *OwnershipTransferred) KVs() []interface{} {
	return []interface{}{"previous", e.Previous.String(), "new", e.New.String()}
}
