// Package dutchauction is the Dutch auction proposal variant: a credit
// amount that moves linearly over time between a declared minimum and
// maximum, accepted within a caller supplied slippage.
package dutchauction

import (
	"math"
	gobig "math/big"

	"github.com/filecoin-project/go-state-types/big"

	"github.com/lendcore/lendcore/pkg/actors/proposal"
	"github.com/lendcore/lendcore/pkg/constants"
)

// Expiration is the last second at which p can be accepted: one minute of
// grace past the nominal end. It saturates at math.MaxUint64.
func (p *Proposal) Expiration() uint64 {
	end := p.AuctionStart
	for _, d := range []uint64{p.AuctionDuration, constants.AuctionGracePeriod} {
		if end > math.MaxUint64-d {
			return math.MaxUint64
		}
		end += d
	}
	return end
}

// checkAuction validates the auction parameters and the time window, in
// that order.
func checkAuction(p *Proposal, t uint64) error {
	if p.AuctionDuration < constants.MinuteUnit {
		return &InvalidAuctionDuration{Current: p.AuctionDuration, Limit: constants.MinuteUnit}
	}
	if p.AuctionDuration%constants.MinuteUnit != 0 {
		return &AuctionDurationNotInFullMinutes{Current: p.AuctionDuration}
	}
	if p.MinCreditAmount.GreaterThanEqual(p.MaxCreditAmount) {
		return &InvalidCreditAmountRange{Min: p.MinCreditAmount, Max: p.MaxCreditAmount}
	}
	if t < p.AuctionStart {
		return &AuctionNotInProgress{Time: t, Start: p.AuctionStart}
	}
	if exp := p.Expiration(); t > exp {
		return &proposal.Expired{Current: t, Expiration: exp}
	}
	return nil
}

// GetCreditAmount returns the auction price of p at time t. Elapsed time is
// floored to whole minutes and capped at the auction duration, so the
// terminal price holds through the grace minute.
func GetCreditAmount(p *Proposal, t uint64) (big.Int, error) {
	if err := checkAuction(p, t); err != nil {
		return big.Zero(), err
	}

	elapsed := (t - p.AuctionStart) / constants.MinuteUnit * constants.MinuteUnit
	if elapsed > p.AuctionDuration {
		elapsed = p.AuctionDuration
	}

	spread := big.Sub(p.MaxCreditAmount, p.MinCreditAmount)
	delta := big.Div(
		big.Mul(spread, big.NewFromGo(new(gobig.Int).SetUint64(elapsed))),
		big.NewFromGo(new(gobig.Int).SetUint64(p.AuctionDuration)),
	)
	if p.IsOffer {
		return big.Add(p.MinCreditAmount, delta), nil
	}
	return big.Sub(p.MaxCreditAmount, delta), nil
}

// CheckCreditAmount validates v against the auction price of p at t and
// returns the realized credit amount, which is the intended amount.
func CheckCreditAmount(p *Proposal, v ProposalValues, t uint64) (big.Int, error) {
	price, err := GetCreditAmount(p, t)
	if err != nil {
		return big.Zero(), err
	}

	var low, high big.Int
	if p.IsOffer {
		low, high = big.Sub(price, v.Slippage), price
	} else {
		low, high = price, big.Add(price, v.Slippage)
	}
	if v.IntendedCreditAmount.LessThan(low) || v.IntendedCreditAmount.GreaterThan(high) {
		return big.Zero(), &InvalidCreditAmount{
			AuctionCreditAmount:  price,
			IntendedCreditAmount: v.IntendedCreditAmount,
			Slippage:             v.Slippage,
		}
	}
	return big.Add(v.IntendedCreditAmount, big.Zero()), nil
}
