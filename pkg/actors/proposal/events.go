package proposal

import (
	"encoding/hex"

	"github.com/filecoin-project/go-address"

	"github.com/lendcore/lendcore/pkg/types"
)

// Topic is the journal topic of authorizer events.
const Topic = "proposal"

// ProposalMade is emitted when a proposer registers a proposal.
type ProposalMade struct {
	Variant  string
	Hash     types.Hash
	Proposer address.Address
	// Proposal is the variant's encoding of the registered proposal.
	Proposal []byte
}

func (e *ProposalMade) Topic() string { return Topic }

func (e *ProposalMade) Name() string { return "ProposalMade" }

func (e *ProposalMade) KVs() []interface{} {
	return []interface{}{
		"variant", e.Variant,
		"hash", e.Hash.Hex(),
		"cid", e.Hash.Cid().String(),
		"proposer", e.Proposer.String(),
		"proposal", hex.EncodeToString(e.Proposal),
	}
}

// ProposalAccepted is emitted on every successful acceptance.
type ProposalAccepted struct {
	Variant      string
	Hash         types.Hash
	Acceptor     address.Address
	CreditAmount string
}

func (e *ProposalAccepted) Topic() string { return Topic }

func (e *ProposalAccepted) Name() string { return "ProposalAccepted" }

func (e *ProposalAccepted) KVs() []interface{} {
	return []interface{}{
		"variant", e.Variant,
		"hash", e.Hash.Hex(),
		"acceptor", e.Acceptor.String(),
		"creditAmount", e.CreditAmount,
	}
}
