package proposal_test

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/lendcore/lendcore/pkg/actors/hub"
	"github.com/lendcore/lendcore/pkg/actors/proposal"
	"github.com/lendcore/lendcore/pkg/actors/proposal/dutchauction"
	"github.com/lendcore/lendcore/pkg/actors/revokednonce"
	"github.com/lendcore/lendcore/pkg/testhelpers"
	tf "github.com/lendcore/lendcore/pkg/testhelpers/testflags"
	"github.com/lendcore/lendcore/pkg/types"
	"github.com/lendcore/lendcore/pkg/vm/errors"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

const (
	start  = uint64(1700000000)
	minute = uint64(60)
)

type harness struct {
	tv       *testhelpers.TestVM
	hub      *hub.Actor
	ledger   *revokednonce.Actor
	auth     *proposal.Authorizer
	signer   testhelpers.MockSigner
	owner    address.Address
	proposer address.Address
	other    address.Address
	loan     address.Address
	acceptor address.Address

	collateral address.Address
	credit     address.Address
}

func newHarness(t *testing.T) *harness {
	signer, _ := testhelpers.NewMockSignersAndKeyInfo(2)
	h := &harness{
		tv:       testhelpers.NewTestVM(start + 50*minute),
		hub:      hub.NewActor(),
		signer:   signer,
		owner:    testhelpers.RequireIDAddress(t, 1),
		proposer: signer.Addresses[0],
		other:    signer.Addresses[1],
		loan:     testhelpers.RequireIDAddress(t, 500),
		acceptor: testhelpers.RequireIDAddress(t, 600),
	}
	assets := testhelpers.NewForTestGetter()
	h.collateral, h.credit = assets(), assets()
	h.ledger = revokednonce.NewActor(h.hub)

	authAddr := testhelpers.RequireIDAddress(t, 92)
	auth, err := proposal.NewAuthorizer(proposal.Config{
		Variant: dutchauction.Variant{},
		Address: authAddr,
		ChainID: 314,
		Tags:    h.hub,
		Nonces:  h.ledger,
	})
	require.NoError(t, err)
	h.auth = auth

	h.tv.MustApply(t, h.owner, func(rt runtime.Runtime) error {
		if err := h.hub.Constructor(rt, h.owner); err != nil {
			return err
		}
		return h.hub.SetTags(rt,
			[]address.Address{authAddr, h.loan},
			[]hub.Tag{hub.NonceManagerTag, hub.ActiveLoanTag}, true)
	})
	return h
}

func (h *harness) offer() *dutchauction.Proposal {
	return &dutchauction.Proposal{
		CollateralCategory:   types.AssetNonFungible,
		CollateralAddress:    h.collateral,
		CollateralID:         big.NewInt(7),
		CollateralAmount:     big.Zero(),
		CreditAddress:        h.credit,
		MinCreditAmount:      big.Zero(),
		MaxCreditAmount:      big.NewInt(100000),
		AvailableCreditLimit: big.Zero(),
		FixedInterestAmount:  big.NewInt(250),
		AccruingInterestAPR:  1200,
		Duration:             86400,
		AuctionStart:         start,
		AuctionDuration:      100 * minute,
		Proposer:             h.proposer,
		ProposerSpecHash:     types.Sum256([]byte("lender spec")),
		IsOffer:              true,
		RefinancingLoanID:    big.Zero(),
		NonceSpace:           big.Zero(),
		Nonce:                big.NewInt(1),
		LoanContract:         h.loan,
	}
}

func (h *harness) hash(t *testing.T, p *dutchauction.Proposal) types.Hash {
	hash, err := h.auth.GetProposalHash(dutchauction.NewCandidate(p))
	require.NoError(t, err)
	return hash
}

func (h *harness) sign(t *testing.T, p *dutchauction.Proposal) []byte {
	hash := h.hash(t, p)
	return h.signer.MustSignRaw(hash[:], h.proposer)
}

func data(t *testing.T, p *dutchauction.Proposal, intended, slippage int64) []byte {
	b, err := dutchauction.EncodeProposalData(p, dutchauction.ProposalValues{
		IntendedCreditAmount: big.NewInt(intended),
		Slippage:             big.NewInt(slippage),
	})
	require.NoError(t, err)
	return b
}

func (h *harness) accept(caller address.Address, params proposal.AcceptParams) (types.Hash, *types.Terms, error) {
	var (
		hash  types.Hash
		terms *types.Terms
	)
	err := h.tv.Call(caller, func(rt runtime.Runtime) error {
		var err error
		hash, terms, err = h.auth.AcceptProposal(rt, params)
		return err
	})
	return hash, terms, err
}

func (h *harness) creditUsed(t *testing.T, hash types.Hash) big.Int {
	var used big.Int
	require.NoError(t, h.tv.Call(h.owner, func(rt runtime.Runtime) error {
		var err error
		used, err = h.auth.GetCreditUsed(rt, hash)
		return err
	}))
	return used
}

func (h *harness) nonceUsable(t *testing.T, p *dutchauction.Proposal) bool {
	var ok bool
	require.NoError(t, h.tv.Call(h.owner, func(rt runtime.Runtime) error {
		var err error
		ok, err = h.ledger.IsNonceUsable(rt, p.Proposer, p.NonceSpace, p.Nonce)
		return err
	}))
	return ok
}

func TestAcceptSignedOffer(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()
	hash, terms, err := h.accept(h.loan, proposal.AcceptParams{
		Acceptor:          h.acceptor,
		RefinancingLoanID: big.Zero(),
		ProposalData:      data(t, p, 49900, 500),
		Signature:         h.sign(t, p),
	})
	require.NoError(t, err)
	assert.Equal(t, h.hash(t, p), hash)

	assert.Equal(t, h.proposer, terms.Lender)
	assert.Equal(t, h.acceptor, terms.Borrower)
	assert.Equal(t, p.ProposerSpecHash, terms.LenderSpecHash)
	assert.Equal(t, types.EmptyHash, terms.BorrowerSpecHash)
	assert.Equal(t, int64(49900), terms.Credit.Amount.Int64())
	assert.Equal(t, p.CreditAddress, terms.Credit.AssetAddress)
	assert.Equal(t, types.AssetFungible, terms.Credit.Category)
	assert.Equal(t, p.CollateralAddress, terms.Collateral.AssetAddress)
	assert.Equal(t, types.AssetNonFungible, terms.Collateral.Category)
	assert.True(t, p.CollateralID.Equals(terms.Collateral.ID))
	assert.Equal(t, p.Duration, terms.Duration)
	assert.True(t, p.FixedInterestAmount.Equals(terms.FixedInterestAmount))
	assert.Equal(t, p.AccruingInterestAPR, terms.AccruingInterestAPR)
}

func TestAcceptRejectsForeignSignature(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()
	hash := h.hash(t, p)

	for _, sig := range [][]byte{
		h.signer.MustSignRaw(hash[:], h.other),
		nil,
		{0x01, 0x02},
	} {
		_, _, err := h.accept(h.loan, proposal.AcceptParams{
			Acceptor:     h.acceptor,
			ProposalData: data(t, p, 50000, 0),
			Signature:    sig,
		})
		var invalid *proposal.InvalidSignature
		require.True(t, xerrors.As(err, &invalid), "%v", err)
		assert.Equal(t, h.proposer, invalid.Signer)
		assert.Equal(t, hash, invalid.Hash)
	}

	// a signature over a different proposal does not carry over
	p2 := h.offer()
	p2.Nonce = big.NewInt(2)
	_, _, err := h.accept(h.loan, proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, p2, 50000, 0),
		Signature:    h.sign(t, p),
	})
	assert.Equal(t, proposal.ErrInvalidSignature, errors.CodeOf(err))
}

func TestMakeProposal(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()

	err := h.tv.Call(h.other, func(rt runtime.Runtime) error {
		_, err := h.auth.MakeProposal(rt, dutchauction.NewCandidate(p))
		return err
	})
	var notProposer *proposal.CallerIsNotStatedProposer
	require.True(t, xerrors.As(err, &notProposer))
	assert.Equal(t, h.other, notProposer.Caller)

	var hash types.Hash
	rcpt := h.tv.MustApply(t, h.proposer, func(rt runtime.Runtime) error {
		var err error
		hash, err = h.auth.MakeProposal(rt, dutchauction.NewCandidate(p))
		return err
	})
	assert.Equal(t, h.hash(t, p), hash)
	require.Len(t, rcpt.Events, 1)
	made := rcpt.Events[0].(*proposal.ProposalMade)
	assert.Equal(t, hash, made.Hash)
	assert.Equal(t, h.proposer, made.Proposer)
	decoded, err := dutchauction.DecodeProposal(made.Proposal)
	require.NoError(t, err)
	h2, err := h.auth.GetProposalHash(dutchauction.NewCandidate(decoded))
	require.NoError(t, err)
	assert.Equal(t, hash, h2)

	// no signature needed once made
	_, terms, err := h.accept(h.loan, proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, p, 50000, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, h.proposer, terms.Lender)
}

func TestAcceptWithInclusionProof(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	proposals := []*dutchauction.Proposal{h.offer(), h.offer(), h.offer()}
	var mp proposal.Multiproposal
	for i, p := range proposals {
		p.Nonce = big.NewInt(int64(10 + i))
		mp.Hashes = append(mp.Hashes, h.hash(t, p))
	}
	mpHash, err := mp.Hash()
	require.NoError(t, err)
	sig := h.signer.MustSignRaw(mpHash[:], h.proposer)

	for i, p := range proposals {
		proof, err := mp.InclusionProof(i)
		require.NoError(t, err)
		hash, _, err := h.accept(h.loan, proposal.AcceptParams{
			Acceptor:       h.acceptor,
			ProposalData:   data(t, p, 50000, 0),
			InclusionProof: proof,
			Signature:      sig,
		})
		require.NoError(t, err)
		assert.Equal(t, mp.Hashes[i], hash)
	}

	// a proposal outside the set
	outsider := h.offer()
	outsider.Nonce = big.NewInt(99)
	proof, err := mp.InclusionProof(0)
	require.NoError(t, err)
	_, _, err = h.accept(h.loan, proposal.AcceptParams{
		Acceptor:       h.acceptor,
		ProposalData:   data(t, outsider, 50000, 0),
		InclusionProof: proof,
		Signature:      sig,
	})
	var bad *proposal.InvalidInclusionProof
	require.True(t, xerrors.As(err, &bad))
	assert.Equal(t, h.proposer, bad.Signer)

	// the right proof signed by someone else
	otherSig := h.signer.MustSignRaw(mpHash[:], h.other)
	fresh := h.offer()
	fresh.Nonce = big.NewInt(10)
	_, _, err = h.accept(h.loan, proposal.AcceptParams{
		Acceptor:       h.acceptor,
		ProposalData:   data(t, fresh, 50000, 0),
		InclusionProof: proof,
		Signature:      otherSig,
	})
	assert.Equal(t, proposal.ErrInvalidInclusionProof, errors.CodeOf(err))
}

func TestAcceptRequiresActiveLoanContract(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()
	params := proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, p, 50000, 0),
		Signature:    h.sign(t, p),
	}

	_, _, err := h.accept(h.acceptor, params)
	var notLoan *proposal.CallerNotLoanContract
	require.True(t, xerrors.As(err, &notLoan))
	assert.Equal(t, h.acceptor, notLoan.Caller)
	assert.Equal(t, h.loan, notLoan.LoanContract)

	h.tv.MustApply(t, h.owner, func(rt runtime.Runtime) error {
		return h.hub.SetTag(rt, h.loan, hub.ActiveLoanTag, false)
	})
	_, _, err = h.accept(h.loan, params)
	var missing *errors.AddressMissingHubTag
	require.True(t, xerrors.As(err, &missing))
	assert.Equal(t, h.loan, missing.Addr)
	assert.Equal(t, hub.ActiveLoanTag, missing.Tag)
}

func TestAcceptRejectsUnusableNonce(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()
	params := proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, p, 50000, 0),
		Signature:    h.sign(t, p),
	}

	h.tv.MustApply(t, h.proposer, func(rt runtime.Runtime) error {
		return h.auth.RevokeNonce(rt, p.NonceSpace, p.Nonce)
	})
	_, _, err := h.accept(h.loan, params)
	var notUsable *revokednonce.NonceNotUsable
	require.True(t, xerrors.As(err, &notUsable))
	assert.Equal(t, h.proposer, notUsable.Owner)

	p2 := h.offer()
	p2.Nonce = big.NewInt(2)
	h.tv.MustApply(t, h.proposer, func(rt runtime.Runtime) error {
		_, err := h.ledger.RevokeNonceSpace(rt)
		return err
	})
	_, _, err = h.accept(h.loan, proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, p2, 50000, 0),
		Signature:    h.sign(t, p2),
	})
	assert.Equal(t, revokednonce.ErrNonceNotUsable, errors.CodeOf(err))
}

func TestRevokeNonceRequiresManagerTag(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	h.tv.MustApply(t, h.owner, func(rt runtime.Runtime) error {
		return h.hub.SetTag(rt, h.auth.Address(), hub.NonceManagerTag, false)
	})
	err := h.tv.Call(h.proposer, func(rt runtime.Runtime) error {
		return h.auth.RevokeNonce(rt, big.Zero(), big.NewInt(1))
	})
	var missing *errors.AddressMissingHubTag
	require.True(t, xerrors.As(err, &missing))
	assert.Equal(t, h.auth.Address(), missing.Addr)
}

func TestAllowedAcceptor(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()
	p.AllowedAcceptor = h.acceptor

	intruder := testhelpers.RequireIDAddress(t, 601)
	_, _, err := h.accept(h.loan, proposal.AcceptParams{
		Acceptor:     intruder,
		ProposalData: data(t, p, 50000, 0),
		Signature:    h.sign(t, p),
	})
	var notAllowed *proposal.CallerNotAllowedAcceptor
	require.True(t, xerrors.As(err, &notAllowed))
	assert.Equal(t, intruder, notAllowed.Current)
	assert.Equal(t, h.acceptor, notAllowed.Allowed)

	_, _, err = h.accept(h.loan, proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, p, 50000, 0),
		Signature:    h.sign(t, p),
	})
	assert.NoError(t, err)
}

func TestCreditLimitAccumulates(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()
	p.AvailableCreditLimit = big.NewInt(100000)
	sig := h.sign(t, p)
	hash := h.hash(t, p)

	accept := func(amount int64) error {
		_, _, err := h.accept(h.loan, proposal.AcceptParams{
			Acceptor:     h.acceptor,
			ProposalData: data(t, p, amount, 50000),
			Signature:    sig,
		})
		return err
	}

	require.NoError(t, accept(50000))
	require.NoError(t, accept(30000))
	assert.Equal(t, int64(80000), h.creditUsed(t, hash).Int64())

	err := accept(20001)
	var exceeded *proposal.AvailableCreditLimitExceeded
	require.True(t, xerrors.As(err, &exceeded))
	assert.Equal(t, int64(100001), exceeded.Used.Int64())
	assert.Equal(t, int64(100000), exceeded.Limit.Int64())
	assert.Equal(t, int64(80000), h.creditUsed(t, hash).Int64())

	require.NoError(t, accept(20000))
	assert.Equal(t, int64(100000), h.creditUsed(t, hash).Int64())
	assert.True(t, h.nonceUsable(t, p))
}

func TestZeroLimitIsSingleUse(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()
	params := proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, p, 50000, 0),
		Signature:    h.sign(t, p),
	}

	rcpt, err := h.tv.Apply(context.Background(), h.loan, func(rt runtime.Runtime) error {
		_, _, err := h.auth.AcceptProposal(rt, params)
		return err
	})
	require.NoError(t, err)
	var revoked *revokednonce.NonceRevoked
	for _, e := range rcpt.Events {
		if r, ok := e.(*revokednonce.NonceRevoked); ok {
			revoked = r
		}
	}
	require.NotNil(t, revoked)
	assert.Equal(t, h.proposer, revoked.Owner)
	assert.False(t, h.nonceUsable(t, p))

	_, _, err = h.accept(h.loan, params)
	assert.Equal(t, revokednonce.ErrNonceNotUsable, errors.CodeOf(err))
}

func TestFailedAcceptCommitsNothing(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)

	single := h.offer()
	_, _, err := h.accept(h.loan, proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, single, 10, 0),
		Signature:    h.sign(t, single),
	})
	assert.Equal(t, dutchauction.ErrInvalidCreditAmount, errors.CodeOf(err))
	assert.True(t, h.nonceUsable(t, single))

	limited := h.offer()
	limited.Nonce = big.NewInt(2)
	limited.AvailableCreditLimit = big.NewInt(1000000)
	_, _, err = h.accept(h.loan, proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, limited, 10, 0),
		Signature:    h.sign(t, limited),
	})
	assert.Equal(t, dutchauction.ErrInvalidCreditAmount, errors.CodeOf(err))
	assert.True(t, big.Zero().Equals(h.creditUsed(t, h.hash(t, limited))))
}

func TestAcceptTimeWindow(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()
	params := proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: data(t, p, 100000, 0),
		Signature:    h.sign(t, p),
	}

	h.tv.Clock.SetUnix(start - 1)
	_, _, err := h.accept(h.loan, params)
	assert.Equal(t, dutchauction.ErrAuctionNotInProgress, errors.CodeOf(err))

	h.tv.Clock.SetUnix(start + 101*minute + 1)
	_, _, err = h.accept(h.loan, params)
	assert.Equal(t, proposal.ErrExpired, errors.CodeOf(err))

	h.tv.Clock.SetUnix(start + 101*minute)
	_, terms, err := h.accept(h.loan, params)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), terms.Credit.Amount.Int64())
}

func TestRefinancingLink(t *testing.T) {
	tf.UnitTest(t)

	for _, tc := range []struct {
		name         string
		isOffer      bool
		proposalLoan int64
		acceptLoan   int64
		ok           bool
	}{
		{"plain", true, 0, 0, true},
		{"bound proposal, plain accept", true, 5, 0, false},
		{"bound offer, matching loan", true, 5, 5, true},
		{"bound offer, other loan", true, 5, 6, false},
		{"unbound offer refinances any loan", true, 0, 6, true},
		{"unbound request cannot refinance", false, 0, 6, false},
		{"bound request, matching loan", false, 5, 5, true},
	} {
		h := newHarness(t)
		p := h.offer()
		p.IsOffer = tc.isOffer
		p.RefinancingLoanID = big.NewInt(tc.proposalLoan)
		_, _, err := h.accept(h.loan, proposal.AcceptParams{
			Acceptor:          h.acceptor,
			RefinancingLoanID: big.NewInt(tc.acceptLoan),
			ProposalData:      data(t, p, 50000, 0),
			Signature:         h.sign(t, p),
		})
		if tc.ok {
			assert.NoError(t, err, tc.name)
		} else {
			assert.Equal(t, proposal.ErrInvalidRefinancingLoanID, errors.CodeOf(err), tc.name)
		}
	}
}

func TestAcceptRejectsGarbage(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	_, _, err := h.accept(h.loan, proposal.AcceptParams{
		Acceptor:     h.acceptor,
		ProposalData: []byte("not a proposal"),
	})
	assert.Equal(t, errors.ErrInvalidInputData, errors.CodeOf(err))
}

func TestProposalHashIsDomainSeparated(t *testing.T) {
	tf.UnitTest(t)

	h := newHarness(t)
	p := h.offer()

	other, err := proposal.NewAuthorizer(proposal.Config{
		Variant: dutchauction.Variant{},
		Address: h.auth.Address(),
		ChainID: 315,
		Tags:    h.hub,
		Nonces:  h.ledger,
	})
	require.NoError(t, err)
	otherHash, err := other.GetProposalHash(dutchauction.NewCandidate(p))
	require.NoError(t, err)
	assert.NotEqual(t, h.hash(t, p), otherHash)

	structHash, err := p.StructHash()
	require.NoError(t, err)
	assert.Equal(t, h.auth.Domain().TypedDataHash(structHash), h.hash(t, p))
}
