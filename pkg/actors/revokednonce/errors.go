package revokednonce

import (
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"

	"github.com/lendcore/lendcore/pkg/vm/errors"
)

const (
	// ErrNonceAlreadyRevoked signals a second revocation of the same nonce.
	ErrNonceAlreadyRevoked = errors.LastSharedExitCode + 1 + iota
	// ErrNonceNotUsable signals a revoked nonce or a stale nonce space.
	ErrNonceNotUsable

	LastExitCode = ErrNonceNotUsable
)

// NonceAlreadyRevoked is returned when the revoked bit is already set.
type NonceAlreadyRevoked struct {
	Owner address.Address
	Space big.Int
	Nonce big.Int
}

func (e *NonceAlreadyRevoked) Error() string {
	return fmt.Sprintf("nonce %s in space %s of %s already revoked", e.Nonce, e.Space, e.Owner)
}

func (e *NonceAlreadyRevoked) Code() exitcode.ExitCode { return ErrNonceAlreadyRevoked }

func (e *NonceAlreadyRevoked) RevertState() bool { return true }

// NonceNotUsable is returned when a proposal's nonce fails IsNonceUsable.
type NonceNotUsable struct {
	Owner address.Address
	Space big.Int
	Nonce big.Int
}

func (e *NonceNotUsable) Error() string {
	return fmt.Sprintf("nonce %s in space %s of %s is not usable", e.Nonce, e.Space, e.Owner)
}

func (e *NonceNotUsable) Code() exitcode.ExitCode { return ErrNonceNotUsable }

func (e *NonceNotUsable) RevertState() bool { return true }
