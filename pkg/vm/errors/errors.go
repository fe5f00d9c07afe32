// Package errors distinguishes revert errors, which abort a call and are
// reported to the caller with an exit code, from faults, which signal a
// broken node (storage failure, corrupt state). Both abort the call with no
// state change.
package errors

import (
	"fmt"

	"github.com/filecoin-project/go-state-types/exitcode"
	"golang.org/x/xerrors"
)

// Exit codes shared by every actor. Actor packages allocate their own codes
// after LastSharedExitCode.
const (
	// ErrUnauthorized signals a caller that is not the owner.
	ErrUnauthorized = exitcode.FirstActorSpecificExitCode + iota
	// ErrAddressMissingHubTag signals an address lacking a capability tag.
	ErrAddressMissingHubTag
	// ErrInvalidInputData signals malformed caller supplied data.
	ErrInvalidInputData

	LastSharedExitCode = ErrInvalidInputData
)

// CodedError is implemented by every revert error.
type CodedError interface {
	error
	Code() exitcode.ExitCode
}

type revertError interface {
	RevertState() bool
}

type revertErrorWrap struct {
	code exitcode.ExitCode
	msg  string
	err  error
}

func (re *revertErrorWrap) Error() string {
	if re.err == nil {
		return re.msg
	}
	return fmt.Sprintf("%s: %s", re.msg, re.err)
}

func (re *revertErrorWrap) Unwrap() error { return re.err }

func (re *revertErrorWrap) Code() exitcode.ExitCode { return re.code }

func (re *revertErrorWrap) RevertState() bool { return true }

// NewCodedRevertError returns a revert error with an exit code.
func NewCodedRevertError(code exitcode.ExitCode, msg string) error {
	return &revertErrorWrap{code: code, msg: msg}
}

// NewCodedRevertErrorf is NewCodedRevertError with formatting.
func NewCodedRevertErrorf(code exitcode.ExitCode, format string, args ...interface{}) error {
	return &revertErrorWrap{code: code, msg: fmt.Sprintf(format, args...)}
}

// RevertErrorWrap attaches an exit code to err.
func RevertErrorWrap(code exitcode.ExitCode, err error, msg string) error {
	return &revertErrorWrap{code: code, msg: msg, err: err}
}

// ShouldRevert reports whether err, or anything it wraps, is a revert error.
func ShouldRevert(err error) bool {
	var rev revertError
	return xerrors.As(err, &rev) && rev.RevertState()
}

type faultError struct {
	msg string
	err error
}

func (fe *faultError) Error() string {
	if fe.err == nil {
		return fe.msg
	}
	return fmt.Sprintf("%s: %s", fe.msg, fe.err)
}

func (fe *faultError) Unwrap() error { return fe.err }

func (fe *faultError) IsFault() bool { return true }

// NewFaultError returns a fault.
func NewFaultError(msg string) error {
	return &faultError{msg: msg}
}

// FaultErrorWrap marks err as a fault.
func FaultErrorWrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &faultError{msg: msg, err: err}
}

// FaultErrorWrapf is FaultErrorWrap with formatting.
func FaultErrorWrapf(err error, format string, args ...interface{}) error {
	return FaultErrorWrap(err, fmt.Sprintf(format, args...))
}

// IsFault reports whether err is, or wraps, a fault.
func IsFault(err error) bool {
	var f interface{ IsFault() bool }
	return xerrors.As(err, &f) && f.IsFault()
}

// CodeOf returns the exit code carried by err. Faults and uncoded errors map
// to exitcode.ErrIllegalState.
func CodeOf(err error) exitcode.ExitCode {
	if err == nil {
		return exitcode.Ok
	}
	if IsFault(err) {
		return exitcode.ErrIllegalState
	}
	var ce CodedError
	if xerrors.As(err, &ce) {
		return ce.Code()
	}
	return exitcode.ErrIllegalState
}
