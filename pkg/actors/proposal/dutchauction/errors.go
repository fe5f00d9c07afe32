package dutchauction

import (
	"fmt"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"

	"github.com/lendcore/lendcore/pkg/actors/proposal"
)

const (
	// ErrInvalidAuctionDuration signals an auction shorter than a minute.
	ErrInvalidAuctionDuration = proposal.LastExitCode + 1 + iota
	// ErrAuctionDurationNotInFullMinutes signals a duration off the minute grid.
	ErrAuctionDurationNotInFullMinutes
	// ErrInvalidCreditAmountRange signals min >= max.
	ErrInvalidCreditAmountRange
	// ErrAuctionNotInProgress signals a time before the auction start.
	ErrAuctionNotInProgress
	// ErrInvalidCreditAmount signals an intended amount outside the slippage band.
	ErrInvalidCreditAmount
)

// InvalidAuctionDuration is returned for durations under Limit seconds.
type InvalidAuctionDuration struct {
	Current uint64
	Limit   uint64
}

func (e *InvalidAuctionDuration) Error() string {
	return fmt.Sprintf("auction duration %d is below %d", e.Current, e.Limit)
}

func (e *InvalidAuctionDuration) Code() exitcode.ExitCode { return ErrInvalidAuctionDuration }

func (e *InvalidAuctionDuration) RevertState() bool { return true }

// AuctionDurationNotInFullMinutes is returned for durations that are not a
// multiple of the minute unit.
type AuctionDurationNotInFullMinutes struct {
	Current uint64
}

func (e *AuctionDurationNotInFullMinutes) Error() string {
	return fmt.Sprintf("auction duration %d is not in full minutes", e.Current)
}

func (e *AuctionDurationNotInFullMinutes) Code() exitcode.ExitCode {
	return ErrAuctionDurationNotInFullMinutes
}

func (e *AuctionDurationNotInFullMinutes) RevertState() bool { return true }

// InvalidCreditAmountRange is returned when Min >= Max.
type InvalidCreditAmountRange struct {
	Min big.Int
	Max big.Int
}

func (e *InvalidCreditAmountRange) Error() string {
	return fmt.Sprintf("invalid credit amount range [%s, %s]", e.Min, e.Max)
}

func (e *InvalidCreditAmountRange) Code() exitcode.ExitCode { return ErrInvalidCreditAmountRange }

func (e *InvalidCreditAmountRange) RevertState() bool { return true }

// AuctionNotInProgress is returned before the auction starts.
type AuctionNotInProgress struct {
	Time  uint64
	Start uint64
}

func (e *AuctionNotInProgress) Error() string {
	return fmt.Sprintf("auction starts at %d, now %d", e.Start, e.Time)
}

func (e *AuctionNotInProgress) Code() exitcode.ExitCode { return ErrAuctionNotInProgress }

func (e *AuctionNotInProgress) RevertState() bool { return true }

// InvalidCreditAmount is returned when the intended amount lies outside the
// slippage band around the auction price.
type InvalidCreditAmount struct {
	AuctionCreditAmount  big.Int
	IntendedCreditAmount big.Int
	Slippage             big.Int
}

func (e *InvalidCreditAmount) Error() string {
	return fmt.Sprintf("intended credit amount %s outside slippage %s of auction amount %s",
		e.IntendedCreditAmount, e.Slippage, e.AuctionCreditAmount)
}

func (e *InvalidCreditAmount) Code() exitcode.ExitCode { return ErrInvalidCreditAmount }

func (e *InvalidCreditAmount) RevertState() bool { return true }
