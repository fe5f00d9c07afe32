package constants

// MinuteUnit is the granularity, in seconds, of auction time.
const MinuteUnit = uint64(60)

// AuctionGracePeriod is how long after the nominal end an auction can still be
// accepted at its terminal price.
const AuctionGracePeriod = MinuteUnit

// Domain separation for proposal identities.
const (
	ProtocolName    = "lendcore"
	ProtocolVersion = "1.0"

	DutchAuctionProposalName    = "DutchAuctionProposal"
	DutchAuctionProposalVersion = "1.0"

	MultiproposalName    = "Multiproposal"
	MultiproposalVersion = "1"
)

// DefaultChainID is the chain id used by a freshly initialised repo.
const DefaultChainID = uint64(314)

// Built-in component actor ids. Addresses are NewIDAddress(<id>).
const (
	HubActorID                  = uint64(90)
	RevokedNonceActorID         = uint64(91)
	DutchAuctionProposalActorID = uint64(92)
)

// SignatureCacheSize bounds the verified-signature cache of an authorizer.
const SignatureCacheSize = 4096
