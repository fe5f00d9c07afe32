package dutchauction

import (
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"golang.org/x/xerrors"

	"github.com/lendcore/lendcore/pkg/types"
)

// ProposalTypeString is the canonical type of Proposal. Its field order is
// the hashing and encoding order; any change must bump
// constants.DutchAuctionProposalVersion.
const ProposalTypeString = "Proposal(" +
	"uint8 collateralCategory," +
	"address collateralAddress," +
	"uint256 collateralId," +
	"uint256 collateralAmount," +
	"bool checkCollateralStateFingerprint," +
	"bytes32 collateralStateFingerprint," +
	"address creditAddress," +
	"uint256 minCreditAmount," +
	"uint256 maxCreditAmount," +
	"uint256 availableCreditLimit," +
	"uint256 fixedInterestAmount," +
	"uint64 accruingInterestAPR," +
	"uint64 duration," +
	"uint64 auctionStart," +
	"uint64 auctionDuration," +
	"address allowedAcceptor," +
	"address proposer," +
	"bytes32 proposerSpecHash," +
	"bool isOffer," +
	"uint256 refinancingLoanId," +
	"uint256 nonceSpace," +
	"uint256 nonce," +
	"address loanContract)"

var proposalTypeHash = types.TypeHash(ProposalTypeString)

// Proposal is a Dutch auction loan offer or request. The credit amount
// moves linearly from MinCreditAmount to MaxCreditAmount (offers) or from
// MaxCreditAmount to MinCreditAmount (requests) over AuctionDuration.
type Proposal struct {
	CollateralCategory              types.AssetCategory `json:"collateralCategory"`
	CollateralAddress               address.Address     `json:"collateralAddress"`
	CollateralID                    big.Int             `json:"collateralId"`
	CollateralAmount                big.Int             `json:"collateralAmount"`
	CheckCollateralStateFingerprint bool                `json:"checkCollateralStateFingerprint"`
	CollateralStateFingerprint      types.Hash          `json:"collateralStateFingerprint"`
	CreditAddress                   address.Address     `json:"creditAddress"`
	MinCreditAmount                 big.Int             `json:"minCreditAmount"`
	MaxCreditAmount                 big.Int             `json:"maxCreditAmount"`
	AvailableCreditLimit            big.Int             `json:"availableCreditLimit"`
	FixedInterestAmount             big.Int             `json:"fixedInterestAmount"`
	AccruingInterestAPR             uint64              `json:"accruingInterestAPR"`
	Duration                        uint64              `json:"duration"`
	AuctionStart                    uint64              `json:"auctionStart"`
	AuctionDuration                 uint64              `json:"auctionDuration"`
	AllowedAcceptor                 address.Address     `json:"allowedAcceptor"`
	Proposer                        address.Address     `json:"proposer"`
	ProposerSpecHash                types.Hash          `json:"proposerSpecHash"`
	IsOffer                         bool                `json:"isOffer"`
	RefinancingLoanID               big.Int             `json:"refinancingLoanId"`
	NonceSpace                      big.Int             `json:"nonceSpace"`
	Nonce                           big.Int             `json:"nonce"`
	LoanContract                    address.Address     `json:"loanContract"`
}

// ProposalValues are supplied by the acceptor.
type ProposalValues struct {
	IntendedCreditAmount big.Int `json:"intendedCreditAmount"`
	Slippage             big.Int `json:"slippage"`
}

// StructHash returns the structural hash of p.
func (p *Proposal) StructHash() (types.Hash, error) {
	return types.NewStructHasher(proposalTypeHash).
		Uint64(uint64(p.CollateralCategory)).
		Address(p.CollateralAddress).
		Uint("collateralId", p.CollateralID).
		Uint("collateralAmount", p.CollateralAmount).
		Bool(p.CheckCollateralStateFingerprint).
		Hash(p.CollateralStateFingerprint).
		Address(p.CreditAddress).
		Uint("minCreditAmount", p.MinCreditAmount).
		Uint("maxCreditAmount", p.MaxCreditAmount).
		Uint("availableCreditLimit", p.AvailableCreditLimit).
		Uint("fixedInterestAmount", p.FixedInterestAmount).
		Uint64(p.AccruingInterestAPR).
		Uint64(p.Duration).
		Uint64(p.AuctionStart).
		Uint64(p.AuctionDuration).
		Address(p.AllowedAcceptor).
		Address(p.Proposer).
		Hash(p.ProposerSpecHash).
		Bool(p.IsOffer).
		Uint("refinancingLoanId", p.RefinancingLoanID).
		Uint("nonceSpace", p.NonceSpace).
		Uint("nonce", p.Nonce).
		Address(p.LoanContract).
		Sum()
}

// Validate checks the static shape of p.
func (p *Proposal) Validate() error {
	if !p.CollateralCategory.Valid() {
		return xerrors.Errorf("unknown collateral category %d", p.CollateralCategory)
	}
	for _, f := range []struct {
		name string
		v    big.Int
	}{
		{"collateralId", p.CollateralID},
		{"collateralAmount", p.CollateralAmount},
		{"minCreditAmount", p.MinCreditAmount},
		{"maxCreditAmount", p.MaxCreditAmount},
		{"availableCreditLimit", p.AvailableCreditLimit},
		{"fixedInterestAmount", p.FixedInterestAmount},
		{"refinancingLoanId", p.RefinancingLoanID},
		{"nonceSpace", p.NonceSpace},
		{"nonce", p.Nonce},
	} {
		if f.v.Int == nil || !types.IsU256(f.v) {
			return xerrors.Errorf("field %s is not an unsigned 256 bit integer", f.name)
		}
	}
	return nil
}

// Validate checks the static shape of v.
func (v *ProposalValues) Validate() error {
	if v.IntendedCreditAmount.Int == nil || !types.IsU256(v.IntendedCreditAmount) {
		return xerrors.Errorf("intended credit amount is not an unsigned 256 bit integer")
	}
	if v.Slippage.Int == nil || !types.IsU256(v.Slippage) {
		return xerrors.Errorf("slippage is not an unsigned 256 bit integer")
	}
	return nil
}
