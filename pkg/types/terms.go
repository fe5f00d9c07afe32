package types

import (
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
)

// Terms are the resolved loan parameters handed to the settlement
// collaborator after a successful acceptance. They are never persisted here.
type Terms struct {
	Lender              address.Address `json:"lender"`
	Borrower            address.Address `json:"borrower"`
	Duration            uint64          `json:"duration"`
	Collateral          Asset           `json:"collateral"`
	Credit              Asset           `json:"credit"`
	FixedInterestAmount big.Int         `json:"fixedInterestAmount"`
	AccruingInterestAPR uint64          `json:"accruingInterestAPR"`
	// Only the proposer's side is known at acceptance; the other hash is
	// supplied by the settlement collaborator.
	LenderSpecHash   Hash `json:"lenderSpecHash"`
	BorrowerSpecHash Hash `json:"borrowerSpecHash"`
}
