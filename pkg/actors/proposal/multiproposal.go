package proposal

import (
	"github.com/lendcore/lendcore/pkg/constants"
	"github.com/lendcore/lendcore/pkg/merkle"
	"github.com/lendcore/lendcore/pkg/types"
)

// A multiproposal commits to many proposal hashes at once: the proposer
// signs one hash over the merkle root of the set, and each proposal is
// later accepted with its inclusion proof.

const (
	multiproposalDomainTypeString = "Domain(string name,string version)"
	multiproposalTypeString       = "Multiproposal(bytes32 multiproposalMerkleRoot)"
)

var multiproposalDomainSeparator, _ = types.NewStructHasher(types.TypeHash(multiproposalDomainTypeString)).
	String(constants.MultiproposalName).
	String(constants.MultiproposalVersion).
	Sum()

// MultiproposalHash returns the hash a proposer signs to commit to every
// proposal under root.
func MultiproposalHash(root types.Hash) types.Hash {
	structHash, _ := types.NewStructHasher(types.TypeHash(multiproposalTypeString)).Hash(root).Sum()
	return types.Sum256([]byte{0x19, 0x01}, multiproposalDomainSeparator[:], structHash[:])
}

// Multiproposal is a set of proposal hashes committed to under one root.
type Multiproposal struct {
	Hashes []types.Hash
}

// Root returns the merkle root over the proposal hashes.
func (m Multiproposal) Root() (types.Hash, error) {
	return merkle.Root(m.Hashes)
}

// Hash returns the hash to sign.
func (m Multiproposal) Hash() (types.Hash, error) {
	root, err := m.Root()
	if err != nil {
		return types.EmptyHash, err
	}
	return MultiproposalHash(root), nil
}

// InclusionProof returns the proof for the proposal at index.
func (m Multiproposal) InclusionProof(index int) ([]types.Hash, error) {
	return merkle.Proof(m.Hashes, index)
}
