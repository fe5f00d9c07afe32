package dutchauction

import (
	"github.com/filecoin-project/go-state-types/big"

	"github.com/lendcore/lendcore/pkg/actors/proposal"
	"github.com/lendcore/lendcore/pkg/constants"
	"github.com/lendcore/lendcore/pkg/types"
)

// Variant plugs Dutch auction proposals into a proposal.Authorizer.
type Variant struct{}

var _ proposal.Variant = Variant{}

// Name implements proposal.Variant.
func (Variant) Name() string { return constants.DutchAuctionProposalName }

// Version implements proposal.Variant.
func (Variant) Version() string { return constants.DutchAuctionProposalVersion }

// Decode implements proposal.Variant.
func (Variant) Decode(proposalData []byte) (proposal.Candidate, error) {
	p, v, err := DecodeProposalData(proposalData)
	if err != nil {
		return nil, err
	}
	return &Candidate{Proposal: p, Values: v}, nil
}

// Candidate is a Dutch auction proposal with its acceptance values.
type Candidate struct {
	Proposal *Proposal
	Values   ProposalValues
}

var _ proposal.Candidate = (*Candidate)(nil)

// NewCandidate wraps p for registration or hashing, with zero acceptance
// values.
func NewCandidate(p *Proposal) *Candidate {
	return &Candidate{
		Proposal: p,
		Values:   ProposalValues{IntendedCreditAmount: big.Zero(), Slippage: big.Zero()},
	}
}

// Envelope implements proposal.Candidate.
func (c *Candidate) Envelope() proposal.Envelope {
	p := c.Proposal
	return proposal.Envelope{
		Collateral: types.Asset{
			Category:     p.CollateralCategory,
			AssetAddress: p.CollateralAddress,
			ID:           p.CollateralID,
			Amount:       p.CollateralAmount,
		},
		CheckCollateralStateFingerprint: p.CheckCollateralStateFingerprint,
		CollateralStateFingerprint:      p.CollateralStateFingerprint,
		CreditAddress:                   p.CreditAddress,
		AvailableCreditLimit:            p.AvailableCreditLimit,
		FixedInterestAmount:             p.FixedInterestAmount,
		AccruingInterestAPR:             p.AccruingInterestAPR,
		Duration:                        p.Duration,
		AllowedAcceptor:                 p.AllowedAcceptor,
		Proposer:                        p.Proposer,
		ProposerSpecHash:                p.ProposerSpecHash,
		IsOffer:                         p.IsOffer,
		RefinancingLoanID:               p.RefinancingLoanID,
		NonceSpace:                      p.NonceSpace,
		Nonce:                           p.Nonce,
		LoanContract:                    p.LoanContract,
	}
}

// StructHash implements proposal.Candidate.
func (c *Candidate) StructHash() (types.Hash, error) {
	return c.Proposal.StructHash()
}

// EncodeProposal implements proposal.Candidate.
func (c *Candidate) EncodeProposal() ([]byte, error) {
	return EncodeProposal(c.Proposal)
}

// CheckTime implements proposal.Candidate.
func (c *Candidate) CheckTime(now uint64) error {
	return checkAuction(c.Proposal, now)
}

// RequestedCreditAmount implements proposal.Candidate.
func (c *Candidate) RequestedCreditAmount() big.Int {
	return c.Values.IntendedCreditAmount
}

// Price implements proposal.Candidate.
func (c *Candidate) Price(now uint64) (big.Int, error) {
	return CheckCreditAmount(c.Proposal, c.Values, now)
}
