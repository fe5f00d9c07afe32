package proposal

import (
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"

	"github.com/lendcore/lendcore/pkg/actors/revokednonce"
	"github.com/lendcore/lendcore/pkg/types"
)

const (
	// ErrCallerIsNotStatedProposer signals makeProposal by someone else.
	ErrCallerIsNotStatedProposer = revokednonce.LastExitCode + 1 + iota
	// ErrInvalidSignature signals a signature not made by the proposer.
	ErrInvalidSignature
	// ErrInvalidInclusionProof signals a multiproposal proof or signature mismatch.
	ErrInvalidInclusionProof
	// ErrExpired signals a proposal past its validity window.
	ErrExpired
	// ErrAvailableCreditLimitExceeded signals an overdraw of the credit limit.
	ErrAvailableCreditLimitExceeded
	// ErrCallerNotLoanContract signals acceptance by the wrong contract.
	ErrCallerNotLoanContract
	// ErrCallerNotAllowedAcceptor signals an acceptor the proposer excluded.
	ErrCallerNotAllowedAcceptor
	// ErrInvalidRefinancingLoanID signals a refinancing link mismatch.
	ErrInvalidRefinancingLoanID

	LastExitCode = ErrInvalidRefinancingLoanID
)

// CallerIsNotStatedProposer is returned when the caller of MakeProposal is
// not the proposal's proposer.
type CallerIsNotStatedProposer struct {
	Caller   address.Address
	Proposer address.Address
}

func (e *CallerIsNotStatedProposer) Error() string {
	return fmt.Sprintf("caller %s is not stated proposer %s", e.Caller, e.Proposer)
}

func (e *CallerIsNotStatedProposer) Code() exitcode.ExitCode { return ErrCallerIsNotStatedProposer }

func (e *CallerIsNotStatedProposer) RevertState() bool { return true }

// InvalidSignature is returned when a signature does not recover to Signer.
type InvalidSignature struct {
	Signer address.Address
	Hash   types.Hash
	Reason string
}

func (e *InvalidSignature) Error() string {
	return fmt.Sprintf("invalid signature of %s over %s: %s", e.Signer, e.Hash, e.Reason)
}

func (e *InvalidSignature) Code() exitcode.ExitCode { return ErrInvalidSignature }

func (e *InvalidSignature) RevertState() bool { return true }

// InvalidInclusionProof is returned when the proof and signature do not
// establish that Signer committed to a multiproposal containing Hash.
type InvalidInclusionProof struct {
	Signer address.Address
	Hash   types.Hash
	Root   types.Hash
}

func (e *InvalidInclusionProof) Error() string {
	return fmt.Sprintf("proposal %s not committed by %s under root %s", e.Hash, e.Signer, e.Root)
}

func (e *InvalidInclusionProof) Code() exitcode.ExitCode { return ErrInvalidInclusionProof }

func (e *InvalidInclusionProof) RevertState() bool { return true }

// Expired is returned when Current is past Expiration.
type Expired struct {
	Current    uint64
	Expiration uint64
}

func (e *Expired) Error() string {
	return fmt.Sprintf("expired at %d, now %d", e.Expiration, e.Current)
}

func (e *Expired) Code() exitcode.ExitCode { return ErrExpired }

func (e *Expired) RevertState() bool { return true }

// AvailableCreditLimitExceeded is returned when Used would exceed Limit.
type AvailableCreditLimitExceeded struct {
	Used  big.Int
	Limit big.Int
}

func (e *AvailableCreditLimitExceeded) Error() string {
	return fmt.Sprintf("credit used %s would exceed limit %s", e.Used, e.Limit)
}

func (e *AvailableCreditLimitExceeded) Code() exitcode.ExitCode {
	return ErrAvailableCreditLimitExceeded
}

func (e *AvailableCreditLimitExceeded) RevertState() bool { return true }

// CallerNotLoanContract is returned when acceptance is not requested by the
// proposal's loan contract.
type CallerNotLoanContract struct {
	Caller       address.Address
	LoanContract address.Address
}

func (e *CallerNotLoanContract) Error() string {
	return fmt.Sprintf("caller %s is not loan contract %s", e.Caller, e.LoanContract)
}

func (e *CallerNotLoanContract) Code() exitcode.ExitCode { return ErrCallerNotLoanContract }

func (e *CallerNotLoanContract) RevertState() bool { return true }

// CallerNotAllowedAcceptor is returned when the proposal names another
// acceptor.
type CallerNotAllowedAcceptor struct {
	Current address.Address
	Allowed address.Address
}

func (e *CallerNotAllowedAcceptor) Error() string {
	return fmt.Sprintf("acceptor %s is not allowed acceptor %s", e.Current, e.Allowed)
}

func (e *CallerNotAllowedAcceptor) Code() exitcode.ExitCode { return ErrCallerNotAllowedAcceptor }

func (e *CallerNotAllowedAcceptor) RevertState() bool { return true }

// InvalidRefinancingLoanID is returned when the proposal's refinancing link
// does not match the loan being refinanced.
type InvalidRefinancingLoanID struct {
	RefinancingLoanID big.Int
}

func (e *InvalidRefinancingLoanID) Error() string {
	return fmt.Sprintf("invalid refinancing loan id %s", e.RefinancingLoanID)
}

func (e *InvalidRefinancingLoanID) Code() exitcode.ExitCode { return ErrInvalidRefinancingLoanID }

func (e *InvalidRefinancingLoanID) RevertState() bool { return true }
