package dutchauction

import (
	"io"

	"golang.org/x/xerrors"

	"github.com/lendcore/lendcore/pkg/encoding"
	"github.com/lendcore/lendcore/pkg/types"
)

// Tuple encodings. Field order follows ProposalTypeString.

const (
	proposalFields       = 23
	proposalValuesFields = 2
	proposalDataFields   = 2
)

func (p *Proposal) MarshalCBOR(w io.Writer) error {
	if p == nil {
		return xerrors.New("cannot encode nil proposal")
	}
	if err := encoding.WriteArrayHeader(w, proposalFields); err != nil {
		return err
	}
	steps := []func() error{
		func() error { return encoding.WriteUint64(w, uint64(p.CollateralCategory)) },
		func() error { return encoding.WriteAddress(w, p.CollateralAddress) },
		func() error { return encoding.WriteBigInt(w, p.CollateralID) },
		func() error { return encoding.WriteBigInt(w, p.CollateralAmount) },
		func() error { return encoding.WriteBool(w, p.CheckCollateralStateFingerprint) },
		func() error { return encoding.WriteBytes(w, p.CollateralStateFingerprint[:]) },
		func() error { return encoding.WriteAddress(w, p.CreditAddress) },
		func() error { return encoding.WriteBigInt(w, p.MinCreditAmount) },
		func() error { return encoding.WriteBigInt(w, p.MaxCreditAmount) },
		func() error { return encoding.WriteBigInt(w, p.AvailableCreditLimit) },
		func() error { return encoding.WriteBigInt(w, p.FixedInterestAmount) },
		func() error { return encoding.WriteUint64(w, p.AccruingInterestAPR) },
		func() error { return encoding.WriteUint64(w, p.Duration) },
		func() error { return encoding.WriteUint64(w, p.AuctionStart) },
		func() error { return encoding.WriteUint64(w, p.AuctionDuration) },
		func() error { return encoding.WriteAddress(w, p.AllowedAcceptor) },
		func() error { return encoding.WriteAddress(w, p.Proposer) },
		func() error { return encoding.WriteBytes(w, p.ProposerSpecHash[:]) },
		func() error { return encoding.WriteBool(w, p.IsOffer) },
		func() error { return encoding.WriteBigInt(w, p.RefinancingLoanID) },
		func() error { return encoding.WriteBigInt(w, p.NonceSpace) },
		func() error { return encoding.WriteBigInt(w, p.Nonce) },
		func() error { return encoding.WriteAddress(w, p.LoanContract) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			return xerrors.Errorf("proposal field %d: %w", i, err)
		}
	}
	return nil
}

func (p *Proposal) UnmarshalCBOR(r io.Reader) error {
	*p = Proposal{}
	if err := encoding.ReadArrayHeader(r, proposalFields); err != nil {
		return err
	}
	var category uint64
	steps := []func() error{
		func() (err error) { category, err = encoding.ReadUint64(r); return },
		func() (err error) { p.CollateralAddress, err = encoding.ReadAddress(r); return },
		func() (err error) { p.CollateralID, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.CollateralAmount, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.CheckCollateralStateFingerprint, err = encoding.ReadBool(r); return },
		func() (err error) { p.CollateralStateFingerprint, err = readHash(r); return },
		func() (err error) { p.CreditAddress, err = encoding.ReadAddress(r); return },
		func() (err error) { p.MinCreditAmount, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.MaxCreditAmount, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.AvailableCreditLimit, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.FixedInterestAmount, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.AccruingInterestAPR, err = encoding.ReadUint64(r); return },
		func() (err error) { p.Duration, err = encoding.ReadUint64(r); return },
		func() (err error) { p.AuctionStart, err = encoding.ReadUint64(r); return },
		func() (err error) { p.AuctionDuration, err = encoding.ReadUint64(r); return },
		func() (err error) { p.AllowedAcceptor, err = encoding.ReadAddress(r); return },
		func() (err error) { p.Proposer, err = encoding.ReadAddress(r); return },
		func() (err error) { p.ProposerSpecHash, err = readHash(r); return },
		func() (err error) { p.IsOffer, err = encoding.ReadBool(r); return },
		func() (err error) { p.RefinancingLoanID, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.NonceSpace, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.Nonce, err = encoding.ReadBigInt(r); return },
		func() (err error) { p.LoanContract, err = encoding.ReadAddress(r); return },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			return xerrors.Errorf("proposal field %d: %w", i, err)
		}
	}
	if category > 0xff {
		return xerrors.Errorf("collateral category %d out of range", category)
	}
	p.CollateralCategory = types.AssetCategory(category)
	return nil
}

func (v *ProposalValues) MarshalCBOR(w io.Writer) error {
	if v == nil {
		return xerrors.New("cannot encode nil proposal values")
	}
	if err := encoding.WriteArrayHeader(w, proposalValuesFields); err != nil {
		return err
	}
	if err := encoding.WriteBigInt(w, v.IntendedCreditAmount); err != nil {
		return err
	}
	return encoding.WriteBigInt(w, v.Slippage)
}

func (v *ProposalValues) UnmarshalCBOR(r io.Reader) (err error) {
	*v = ProposalValues{}
	if err := encoding.ReadArrayHeader(r, proposalValuesFields); err != nil {
		return err
	}
	if v.IntendedCreditAmount, err = encoding.ReadBigInt(r); err != nil {
		return err
	}
	v.Slippage, err = encoding.ReadBigInt(r)
	return err
}

// proposalData is the wire form accepted by AcceptProposal.
type proposalData struct {
	Proposal Proposal
	Values   ProposalValues
}

func (d *proposalData) MarshalCBOR(w io.Writer) error {
	if err := encoding.WriteArrayHeader(w, proposalDataFields); err != nil {
		return err
	}
	if err := d.Proposal.MarshalCBOR(w); err != nil {
		return err
	}
	return d.Values.MarshalCBOR(w)
}

func (d *proposalData) UnmarshalCBOR(r io.Reader) error {
	if err := encoding.ReadArrayHeader(r, proposalDataFields); err != nil {
		return err
	}
	if err := d.Proposal.UnmarshalCBOR(r); err != nil {
		return err
	}
	return d.Values.UnmarshalCBOR(r)
}

func readHash(r io.Reader) (types.Hash, error) {
	b, err := encoding.ReadBytes(r, types.HashLength)
	if err != nil {
		return types.EmptyHash, err
	}
	return types.HashFromBytes(b)
}

// EncodeProposal returns the tuple encoding of p alone.
func EncodeProposal(p *Proposal) ([]byte, error) {
	return encoding.Encode(p)
}

// DecodeProposal parses the output of EncodeProposal.
func DecodeProposal(data []byte) (*Proposal, error) {
	var p Proposal
	if err := encoding.Decode(data, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// EncodeProposalData encodes a proposal with its acceptance values.
func EncodeProposalData(p *Proposal, v ProposalValues) ([]byte, error) {
	if p == nil {
		return nil, xerrors.New("cannot encode nil proposal")
	}
	return encoding.Encode(&proposalData{Proposal: *p, Values: v})
}

// DecodeProposalData is the inverse of EncodeProposalData.
func DecodeProposalData(data []byte) (*Proposal, ProposalValues, error) {
	var d proposalData
	if err := encoding.Decode(data, &d); err != nil {
		return nil, ProposalValues{}, err
	}
	if err := d.Proposal.Validate(); err != nil {
		return nil, ProposalValues{}, err
	}
	if err := d.Values.Validate(); err != nil {
		return nil, ProposalValues{}, err
	}
	return &d.Proposal, d.Values, nil
}
