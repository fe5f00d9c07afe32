package revokednonce

import (
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
)

// Topic is the journal topic of ledger events.
const Topic = "revokednonce"

// NonceRevoked is emitted when a revoked bit is set.
type NonceRevoked struct {
	Owner address.Address
	Space big.Int
	Nonce big.Int
}

func (e *NonceRevoked) Topic() string { return Topic }

func (e *NonceRevoked) Name() string { return "NonceRevoked" }

func (e *NonceRevoked) KVs() []interface{} {
	return []interface{}{"owner", e.Owner.String(), "space", e.Space.String(), "nonce", e.Nonce.String()}
}

// NonceSpaceRevoked is emitted when an owner moves to a new nonce space.
type NonceSpaceRevoked struct {
	Owner         address.Address
	PreviousSpace big.Int
}

func (e *NonceSpaceRevoked) Topic() string { return Topic }

func (e *NonceSpaceRevoked) Name() string { return "NonceSpaceRevoked" }

func (e *NonceSpaceRevoked) KVs() []interface{} {
	return []interface{}{"owner", e.Owner.String(), "previousSpace", e.PreviousSpace.String()}
}
