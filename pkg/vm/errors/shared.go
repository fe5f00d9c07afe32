package errors

import (
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/exitcode"

	"github.com/lendcore/lendcore/pkg/types"
)

// Unauthorized is returned when a caller other than the owner invokes an
// owner-only method.
type Unauthorized struct {
	Caller address.Address
	Owner  address.Address
}

func (e *Unauthorized) Error() string {
	return fmt.Sprintf("caller %s is not the owner %s", e.Caller, e.Owner)
}

func (e *Unauthorized) Code() exitcode.ExitCode { return ErrUnauthorized }

func (e *Unauthorized) RevertState() bool { return true }

// AddressMissingHubTag is returned when Addr does not hold Tag.
type AddressMissingHubTag struct {
	Addr address.Address
	Tag  types.Hash
}

func (e *AddressMissingHubTag) Error() string {
	return fmt.Sprintf("address %s is missing hub tag %s", e.Addr, e.Tag)
}

func (e *AddressMissingHubTag) Code() exitcode.ExitCode { return ErrAddressMissingHubTag }

func (e *AddressMissingHubTag) RevertState() bool { return true }

// InvalidInputData is returned for malformed caller supplied data.
type InvalidInputData struct {
	Reason string
}

func (e *InvalidInputData) Error() string {
	return "invalid input data: " + e.Reason
}

func (e *InvalidInputData) Code() exitcode.ExitCode { return ErrInvalidInputData }

func (e *InvalidInputData) RevertState() bool { return true }

// NewInvalidInputData formats an InvalidInputData.
func NewInvalidInputData(format string, args ...interface{}) error {
	return &InvalidInputData{Reason: fmt.Sprintf(format, args...)}
}
