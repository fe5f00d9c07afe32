package dutchauction_test

import (
	"bytes"
	gobig "math/big"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendcore/lendcore/pkg/actors/proposal/dutchauction"
	"github.com/lendcore/lendcore/pkg/testhelpers"
	tf "github.com/lendcore/lendcore/pkg/testhelpers/testflags"
	"github.com/lendcore/lendcore/pkg/types"
)

func fullProposal(t *testing.T) *dutchauction.Proposal {
	addrs := testhelpers.NewForTestGetter()
	huge := big.NewFromGo(new(gobig.Int).Lsh(gobig.NewInt(1), 255))
	return &dutchauction.Proposal{
		CollateralCategory:              types.AssetSemiFungible,
		CollateralAddress:               addrs(),
		CollateralID:                    big.NewInt(42),
		CollateralAmount:                big.NewInt(3),
		CheckCollateralStateFingerprint: true,
		CollateralStateFingerprint:      types.Sum256([]byte("state")),
		CreditAddress:                   testhelpers.RequireIDAddress(t, 77),
		MinCreditAmount:                 big.NewInt(1000),
		MaxCreditAmount:                 huge,
		AvailableCreditLimit:            types.MaxU256,
		FixedInterestAmount:             big.NewInt(12),
		AccruingInterestAPR:             550,
		Duration:                        86400 * 30,
		AuctionStart:                    1700000000,
		AuctionDuration:                 3600,
		AllowedAcceptor:                 address.Undef,
		Proposer:                        addrs(),
		ProposerSpecHash:                types.Sum256([]byte("spec")),
		IsOffer:                         true,
		RefinancingLoanID:               big.NewInt(9),
		NonceSpace:                      big.NewInt(1),
		Nonce:                           big.NewInt(123456789),
		LoanContract:                    testhelpers.RequireIDAddress(t, 500),
	}
}

func TestProposalDataRoundTrip(t *testing.T) {
	tf.UnitTest(t)

	p := fullProposal(t)
	v := dutchauction.ProposalValues{IntendedCreditAmount: big.NewInt(5000), Slippage: big.NewInt(7)}

	data, err := dutchauction.EncodeProposalData(p, v)
	require.NoError(t, err)

	p2, v2, err := dutchauction.DecodeProposalData(data)
	require.NoError(t, err)

	// every field survives: same hash, same bytes on re-encode
	h1, err := p.StructHash()
	require.NoError(t, err)
	h2, err := p2.StructHash()
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	data2, err := dutchauction.EncodeProposalData(p2, v2)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, data2))

	assert.Equal(t, p.CollateralCategory, p2.CollateralCategory)
	assert.Equal(t, p.CollateralAddress, p2.CollateralAddress)
	assert.Equal(t, address.Undef, p2.AllowedAcceptor)
	assert.Equal(t, p.LoanContract, p2.LoanContract)
	assert.True(t, p.MaxCreditAmount.Equals(p2.MaxCreditAmount))
	assert.True(t, types.MaxU256.Equals(p2.AvailableCreditLimit))
	assert.Equal(t, p.CollateralStateFingerprint, p2.CollateralStateFingerprint)
	assert.Equal(t, p.AuctionStart, p2.AuctionStart)
	assert.True(t, v.IntendedCreditAmount.Equals(v2.IntendedCreditAmount))
	assert.True(t, v.Slippage.Equals(v2.Slippage))
}

func TestDecodeRejectsMalformedData(t *testing.T) {
	tf.UnitTest(t)

	p := fullProposal(t)
	v := dutchauction.ProposalValues{IntendedCreditAmount: big.NewInt(1), Slippage: big.Zero()}
	data, err := dutchauction.EncodeProposalData(p, v)
	require.NoError(t, err)

	_, _, err = dutchauction.DecodeProposalData(data[:len(data)-1])
	assert.Error(t, err)

	_, _, err = dutchauction.DecodeProposalData(append(append([]byte{}, data...), 0x00))
	assert.Error(t, err)

	_, _, err = dutchauction.DecodeProposalData([]byte{0x01, 0x02})
	assert.Error(t, err)

	_, _, err = dutchauction.DecodeProposalData(nil)
	assert.Error(t, err)
}

func TestDecodeRejectsOutOfRangeValues(t *testing.T) {
	tf.UnitTest(t)

	p := fullProposal(t)
	p.Nonce = big.NewInt(-1)
	data, err := dutchauction.EncodeProposalData(p, dutchauction.ProposalValues{IntendedCreditAmount: big.Zero(), Slippage: big.Zero()})
	require.NoError(t, err)
	_, _, err = dutchauction.DecodeProposalData(data)
	assert.Error(t, err)

	p = fullProposal(t)
	p.CollateralCategory = 7
	data, err = dutchauction.EncodeProposalData(p, dutchauction.ProposalValues{IntendedCreditAmount: big.Zero(), Slippage: big.Zero()})
	require.NoError(t, err)
	_, _, err = dutchauction.DecodeProposalData(data)
	assert.Error(t, err)

	p = fullProposal(t)
	p.MaxCreditAmount = big.Add(types.MaxU256, big.NewInt(1))
	data, err = dutchauction.EncodeProposalData(p, dutchauction.ProposalValues{IntendedCreditAmount: big.Zero(), Slippage: big.Zero()})
	require.NoError(t, err)
	_, _, err = dutchauction.DecodeProposalData(data)
	assert.Error(t, err)
}

func TestProposalEncodingAlone(t *testing.T) {
	tf.UnitTest(t)

	p := fullProposal(t)
	data, err := dutchauction.EncodeProposal(p)
	require.NoError(t, err)
	p2, err := dutchauction.DecodeProposal(data)
	require.NoError(t, err)
	data2, err := dutchauction.EncodeProposal(p2)
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestStructHashIsFieldSensitive(t *testing.T) {
	tf.UnitTest(t)

	base, err := fullProposal(t).StructHash()
	require.NoError(t, err)

	mutations := []func(p *dutchauction.Proposal){
		func(p *dutchauction.Proposal) { p.CollateralCategory = types.AssetFungible },
		func(p *dutchauction.Proposal) { p.CollateralID = big.NewInt(43) },
		func(p *dutchauction.Proposal) { p.CheckCollateralStateFingerprint = false },
		func(p *dutchauction.Proposal) { p.MinCreditAmount = big.NewInt(1001) },
		func(p *dutchauction.Proposal) { p.AuctionStart++ },
		func(p *dutchauction.Proposal) { p.AuctionDuration += 60 },
		func(p *dutchauction.Proposal) { p.AllowedAcceptor = testhelpers.RequireIDAddress(t, 1) },
		func(p *dutchauction.Proposal) { p.IsOffer = false },
		func(p *dutchauction.Proposal) { p.Nonce = big.NewInt(0) },
		func(p *dutchauction.Proposal) { p.LoanContract = testhelpers.RequireIDAddress(t, 501) },
	}
	seen := map[types.Hash]bool{base: true}
	for i, mutate := range mutations {
		p := fullProposal(t)
		mutate(p)
		h, err := p.StructHash()
		require.NoError(t, err)
		assert.False(t, seen[h], "mutation %d collided", i)
		seen[h] = true
	}

	// swapping two equal-typed fields changes the hash
	p := fullProposal(t)
	p.NonceSpace, p.Nonce = p.Nonce, p.NonceSpace
	h, err := p.StructHash()
	require.NoError(t, err)
	assert.NotEqual(t, base, h)
}
