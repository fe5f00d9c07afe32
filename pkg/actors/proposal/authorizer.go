// Package proposal authorizes the redemption of lending proposals.
//
// The Authorizer owns the variant independent envelope logic: proposal
// identity, on-ledger registration, signature and inclusion proof checks,
// nonce and credit accounting. Pricing is delegated to a Variant.
package proposal

import (
	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
	lru "github.com/hashicorp/golang-lru"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/lendcore/lendcore/pkg/actors/hub"
	"github.com/lendcore/lendcore/pkg/actors/revokednonce"
	"github.com/lendcore/lendcore/pkg/constants"
	"github.com/lendcore/lendcore/pkg/crypto"
	"github.com/lendcore/lendcore/pkg/merkle"
	"github.com/lendcore/lendcore/pkg/types"
	"github.com/lendcore/lendcore/pkg/vm/errors"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

var log = logging.Logger("proposal")

// NonceLedger is the part of the nonce ledger the authorizer consumes.
type NonceLedger interface {
	IsNonceUsable(rt runtime.Runtime, owner address.Address, space, nonce big.Int) (bool, error)
	RevokeNonceInSpaceFor(rt runtime.Runtime, owner address.Address, space, nonce big.Int) error
}

var _ NonceLedger = (*revokednonce.Actor)(nil)

// Config wires an Authorizer.
type Config struct {
	// Variant prices and decodes proposals.
	Variant Variant
	// Address is the authorizer's own address. It is the verifying
	// contract of the signing domain and the caller of delegated nonce
	// revocations, so it must hold hub.NonceManagerTag.
	Address address.Address
	ChainID uint64
	Tags    hub.TagSource
	Nonces  NonceLedger
	// SignatureCacheSize bounds the verified signature cache; zero uses
	// constants.SignatureCacheSize.
	SignatureCacheSize int
}

// Authorizer is the shared proposal envelope.
type Authorizer struct {
	variant Variant
	self    address.Address
	domain  types.Domain
	tags    hub.TagSource
	nonces  NonceLedger

	madePrefix   datastore.Key
	creditPrefix datastore.Key

	// verified holds digests of (hash, signer, signature) triples that
	// already passed verification.
	verified *lru.Cache
}

// NewAuthorizer returns an Authorizer for cfg.Variant.
func NewAuthorizer(cfg Config) (*Authorizer, error) {
	if cfg.Variant == nil || cfg.Tags == nil || cfg.Nonces == nil {
		return nil, xerrors.New("authorizer requires a variant, a tag source and a nonce ledger")
	}
	if cfg.Address == address.Undef {
		return nil, xerrors.New("authorizer requires an address")
	}
	size := cfg.SignatureCacheSize
	if size <= 0 {
		size = constants.SignatureCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, xerrors.Errorf("failed to create signature cache: %w", err)
	}
	prefix := datastore.NewKey("/proposal").ChildString(cfg.Variant.Name())
	return &Authorizer{
		variant: cfg.Variant,
		self:    cfg.Address,
		domain: types.Domain{
			Name:              cfg.Variant.Name(),
			Version:           cfg.Variant.Version(),
			ChainID:           cfg.ChainID,
			VerifyingContract: cfg.Address,
		},
		tags:         cfg.Tags,
		nonces:       cfg.Nonces,
		madePrefix:   prefix.ChildString("made"),
		creditPrefix: prefix.ChildString("credit"),
		verified:     cache,
	}, nil
}

// Address returns the authorizer's own address.
func (a *Authorizer) Address() address.Address {
	return a.self
}

// Domain returns the signing domain of the authorizer's variant.
func (a *Authorizer) Domain() types.Domain {
	return a.domain
}

// Variant returns the plugged variant.
func (a *Authorizer) Variant() Variant {
	return a.variant
}

// GetProposalHash returns the domain separated identity of c.
func (a *Authorizer) GetProposalHash(c Candidate) (types.Hash, error) {
	structHash, err := c.StructHash()
	if err != nil {
		return types.EmptyHash, errors.NewInvalidInputData("%s", err)
	}
	return a.domain.TypedDataHash(structHash), nil
}

// MakeProposal registers c so it can be accepted without a signature.
func (a *Authorizer) MakeProposal(rt runtime.Runtime, c Candidate) (types.Hash, error) {
	env := c.Envelope()
	if rt.Caller() != env.Proposer {
		return types.EmptyHash, &CallerIsNotStatedProposer{Caller: rt.Caller(), Proposer: env.Proposer}
	}
	hash, err := a.GetProposalHash(c)
	if err != nil {
		return types.EmptyHash, err
	}
	encoded, err := c.EncodeProposal()
	if err != nil {
		return types.EmptyHash, errors.NewInvalidInputData("%s", err)
	}
	if err := rt.State().PutBool(a.madeKey(hash), true); err != nil {
		return types.EmptyHash, errors.FaultErrorWrap(err, "failed to store proposal made flag")
	}
	log.Infow("proposal made", "call", rt.CallID(), "hash", hash, "proposer", env.Proposer)
	rt.Emit(&ProposalMade{Variant: a.variant.Name(), Hash: hash, Proposer: env.Proposer, Proposal: encoded})
	return hash, nil
}

// IsProposalMade reports whether hash was registered with MakeProposal.
func (a *Authorizer) IsProposalMade(rt runtime.Runtime, hash types.Hash) (bool, error) {
	made, err := rt.State().GetBool(rt.Context(), a.madeKey(hash))
	if err != nil {
		return false, errors.FaultErrorWrap(err, "failed to load proposal made flag")
	}
	return made, nil
}

// GetCreditUsed returns the credit already drawn from hash.
func (a *Authorizer) GetCreditUsed(rt runtime.Runtime, hash types.Hash) (big.Int, error) {
	used, err := rt.State().GetUint(rt.Context(), a.creditKey(hash))
	if err != nil {
		return big.Zero(), errors.FaultErrorWrap(err, "failed to load credit used")
	}
	return used, nil
}

// RevokeNonce revokes a nonce of the calling proposer through the ledger,
// acting as the authorizer.
func (a *Authorizer) RevokeNonce(rt runtime.Runtime, space, nonce big.Int) error {
	return a.nonces.RevokeNonceInSpaceFor(rt.WithCaller(a.self), rt.Caller(), space, nonce)
}

// AcceptParams are the arguments of AcceptProposal.
type AcceptParams struct {
	Acceptor          address.Address
	RefinancingLoanID big.Int
	ProposalData      []byte
	InclusionProof    []types.Hash
	Signature         []byte
}

// AcceptProposal validates a proposal for redemption by the calling loan
// contract on behalf of Acceptor and returns its hash and the derived terms.
// Any failure aborts the call.
func (a *Authorizer) AcceptProposal(rt runtime.Runtime, params AcceptParams) (types.Hash, *types.Terms, error) {
	c, err := a.variant.Decode(params.ProposalData)
	if err != nil {
		return types.EmptyHash, nil, errors.NewInvalidInputData("%s", err)
	}
	env := c.Envelope()
	refinancingLoanID := params.RefinancingLoanID
	if refinancingLoanID.Int == nil {
		refinancingLoanID = big.Zero()
	}
	if !types.IsU256(refinancingLoanID) {
		return types.EmptyHash, nil, errors.NewInvalidInputData("refinancing loan id out of range")
	}

	if rt.Caller() != env.LoanContract {
		return types.EmptyHash, nil, &CallerNotLoanContract{Caller: rt.Caller(), LoanContract: env.LoanContract}
	}
	active, err := a.tags.HasTag(rt, env.LoanContract, hub.ActiveLoanTag)
	if err != nil {
		return types.EmptyHash, nil, err
	}
	if !active {
		return types.EmptyHash, nil, &errors.AddressMissingHubTag{Addr: env.LoanContract, Tag: hub.ActiveLoanTag}
	}

	hash, err := a.GetProposalHash(c)
	if err != nil {
		return types.EmptyHash, nil, err
	}
	if err := a.authenticate(rt, env.Proposer, hash, params.InclusionProof, params.Signature); err != nil {
		return types.EmptyHash, nil, err
	}

	if err := checkRefinancing(env, refinancingLoanID); err != nil {
		return types.EmptyHash, nil, err
	}

	usable, err := a.nonces.IsNonceUsable(rt, env.Proposer, env.NonceSpace, env.Nonce)
	if err != nil {
		return types.EmptyHash, nil, err
	}
	if !usable {
		return types.EmptyHash, nil, &revokednonce.NonceNotUsable{Owner: env.Proposer, Space: env.NonceSpace, Nonce: env.Nonce}
	}

	if env.AllowedAcceptor != address.Undef && params.Acceptor != env.AllowedAcceptor {
		return types.EmptyHash, nil, &CallerNotAllowedAcceptor{Current: params.Acceptor, Allowed: env.AllowedAcceptor}
	}

	now := rt.Now()
	if err := c.CheckTime(now); err != nil {
		return types.EmptyHash, nil, err
	}

	if err := a.drawCredit(rt, hash, env, c.RequestedCreditAmount()); err != nil {
		return types.EmptyHash, nil, err
	}

	amount, err := c.Price(now)
	if err != nil {
		return types.EmptyHash, nil, err
	}

	terms := DeriveTerms(env, params.Acceptor, amount)
	log.Infow("proposal accepted", "call", rt.CallID(), "hash", hash, "acceptor", params.Acceptor, "amount", amount)
	rt.Emit(&ProposalAccepted{Variant: a.variant.Name(), Hash: hash, Acceptor: params.Acceptor, CreditAmount: amount.String()})
	return hash, terms, nil
}

// authenticate establishes that proposer committed to hash, in order of
// preference: registration, inclusion in a signed multiproposal, or a
// direct signature.
func (a *Authorizer) authenticate(rt runtime.Runtime, proposer address.Address, hash types.Hash, proof []types.Hash, signature []byte) error {
	made, err := a.IsProposalMade(rt, hash)
	if err != nil {
		return err
	}
	if made {
		return nil
	}

	if len(proof) > 0 {
		root := merkle.ProcessProof(proof, hash)
		if err := a.verifySignature(proposer, MultiproposalHash(root), signature); err != nil {
			return &InvalidInclusionProof{Signer: proposer, Hash: hash, Root: root}
		}
		return nil
	}

	if err := a.verifySignature(proposer, hash, signature); err != nil {
		return &InvalidSignature{Signer: proposer, Hash: hash, Reason: err.Error()}
	}
	return nil
}

func (a *Authorizer) verifySignature(signer address.Address, hash types.Hash, signature []byte) error {
	key := types.Sum256(hash[:], signer.Bytes(), signature)
	if _, ok := a.verified.Get(key); ok {
		return nil
	}
	if len(signature) == 0 {
		return xerrors.New("missing signature")
	}
	sig, err := crypto.DecodeSignature(signature)
	if err != nil {
		return err
	}
	if err := crypto.Verify(sig, signer, hash[:]); err != nil {
		return err
	}
	a.verified.Add(key, struct{}{})
	return nil
}

// checkRefinancing enforces the refinancing link. A proposal bound to a loan
// can only refinance that loan; an unbound offer can refinance any loan.
func checkRefinancing(env Envelope, refinancingLoanID big.Int) error {
	if refinancingLoanID.IsZero() {
		if !env.RefinancingLoanID.IsZero() {
			return &InvalidRefinancingLoanID{RefinancingLoanID: env.RefinancingLoanID}
		}
		return nil
	}
	if !refinancingLoanID.Equals(env.RefinancingLoanID) {
		if !env.RefinancingLoanID.IsZero() || !env.IsOffer {
			return &InvalidRefinancingLoanID{RefinancingLoanID: env.RefinancingLoanID}
		}
	}
	return nil
}

// drawCredit accumulates requested against a positive credit limit. A zero
// limit makes the proposal single use: its nonce is revoked on acceptance.
func (a *Authorizer) drawCredit(rt runtime.Runtime, hash types.Hash, env Envelope, requested big.Int) error {
	if env.AvailableCreditLimit.IsZero() {
		return a.nonces.RevokeNonceInSpaceFor(rt.WithCaller(a.self), env.Proposer, env.NonceSpace, env.Nonce)
	}
	used, err := a.GetCreditUsed(rt, hash)
	if err != nil {
		return err
	}
	total := big.Add(used, requested)
	if total.GreaterThan(env.AvailableCreditLimit) {
		return &AvailableCreditLimitExceeded{Used: total, Limit: env.AvailableCreditLimit}
	}
	if err := rt.State().PutUint(a.creditKey(hash), total); err != nil {
		return errors.FaultErrorWrap(err, "failed to store credit used")
	}
	return nil
}

func (a *Authorizer) madeKey(hash types.Hash) datastore.Key {
	return a.madePrefix.ChildString(hash.Hex())
}

func (a *Authorizer) creditKey(hash types.Hash) datastore.Key {
	return a.creditPrefix.ChildString(hash.Hex())
}
