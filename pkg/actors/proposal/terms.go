package proposal

import (
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/lendcore/lendcore/pkg/types"
)

// DeriveTerms resolves a validated proposal, accepted by acceptor for
// creditAmount, into loan terms. The proposer lends on offers and borrows
// on requests; only the proposer's spec hash is known here.
func DeriveTerms(env Envelope, acceptor address.Address, creditAmount big.Int) *types.Terms {
	terms := &types.Terms{
		Duration:   env.Duration,
		Collateral: copyAsset(env.Collateral),
		Credit: types.Asset{
			Category:     types.AssetFungible,
			AssetAddress: env.CreditAddress,
			ID:           big.Zero(),
			Amount:       big.Add(creditAmount, big.Zero()),
		},
		FixedInterestAmount: big.Add(env.FixedInterestAmount, big.Zero()),
		AccruingInterestAPR: env.AccruingInterestAPR,
	}
	if env.IsOffer {
		terms.Lender = env.Proposer
		terms.Borrower = acceptor
		terms.LenderSpecHash = env.ProposerSpecHash
	} else {
		terms.Lender = acceptor
		terms.Borrower = env.Proposer
		terms.BorrowerSpecHash = env.ProposerSpecHash
	}
	return terms
}

func copyAsset(a types.Asset) types.Asset {
	return types.Asset{
		Category:     a.Category,
		AssetAddress: a.AssetAddress,
		ID:           big.Add(a.ID, big.Zero()),
		Amount:       big.Add(a.Amount, big.Zero()),
	}
}
