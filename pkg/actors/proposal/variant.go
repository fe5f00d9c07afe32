package proposal

import (
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/lendcore/lendcore/pkg/types"
)

// Envelope is the part of a proposal every variant shares.
type Envelope struct {
	Collateral                      types.Asset
	CheckCollateralStateFingerprint bool
	CollateralStateFingerprint      types.Hash
	CreditAddress                   address.Address
	AvailableCreditLimit            big.Int
	FixedInterestAmount             big.Int
	AccruingInterestAPR             uint64
	Duration                        uint64
	AllowedAcceptor                 address.Address
	Proposer                        address.Address
	ProposerSpecHash                types.Hash
	IsOffer                         bool
	RefinancingLoanID               big.Int
	NonceSpace                      big.Int
	Nonce                           big.Int
	LoanContract                    address.Address
}

// Variant is a proposal type plugged into the Authorizer.
type Variant interface {
	// Name and Version select the signing domain. Changing either changes
	// every proposal hash of the variant.
	Name() string
	Version() string
	// Decode parses proposal data produced by the variant's encoder into a
	// Candidate. Malformed data yields an error.
	Decode(proposalData []byte) (Candidate, error)
}

// Candidate is one decoded proposal with its acceptance-time values.
type Candidate interface {
	Envelope() Envelope
	// StructHash is the structural hash of the proposal fields.
	StructHash() (types.Hash, error)
	// EncodeProposal encodes the proposal without acceptance values.
	EncodeProposal() ([]byte, error)
	// CheckTime fails when the proposal cannot be accepted at now.
	CheckTime(now uint64) error
	// RequestedCreditAmount is the amount drawn against the credit limit.
	RequestedCreditAmount() big.Int
	// Price validates the acceptance values at now and returns the
	// realized credit amount.
	Price(now uint64) (big.Int, error)
}
