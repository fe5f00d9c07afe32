// Package merkle builds and checks commutative blake2b merkle trees over
// 32 byte leaves. Sibling pairs are hashed in ascending byte order, so a
// proof is a plain list of sibling hashes with no position bits.
package merkle

import (
	"bytes"

	"golang.org/x/xerrors"

	"github.com/lendcore/lendcore/pkg/types"
)

// ErrEmptyTree is returned when a root or proof is requested over no leaves.
var ErrEmptyTree = xerrors.New("merkle tree has no leaves")

// HashPair hashes two nodes in sorted order.
func HashPair(a, b types.Hash) types.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return types.Sum256(a[:], b[:])
}

// ProcessProof folds proof into leaf and returns the implied root.
func ProcessProof(proof []types.Hash, leaf types.Hash) types.Hash {
	computed := leaf
	for _, sibling := range proof {
		computed = HashPair(computed, sibling)
	}
	return computed
}

// Verify reports whether proof links leaf to root.
func Verify(proof []types.Hash, root, leaf types.Hash) bool {
	return ProcessProof(proof, leaf) == root
}

// levels returns every level of the tree, leaves first. An odd node at the
// end of a level is promoted unchanged.
func levels(leaves []types.Hash) [][]types.Hash {
	cur := make([]types.Hash, len(leaves))
	copy(cur, leaves)
	out := [][]types.Hash{cur}
	for len(cur) > 1 {
		next := make([]types.Hash, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 == len(cur) {
				next = append(next, cur[i])
				continue
			}
			next = append(next, HashPair(cur[i], cur[i+1]))
		}
		out = append(out, next)
		cur = next
	}
	return out
}

// Root computes the root over leaves.
func Root(leaves []types.Hash) (types.Hash, error) {
	if len(leaves) == 0 {
		return types.EmptyHash, ErrEmptyTree
	}
	lv := levels(leaves)
	return lv[len(lv)-1][0], nil
}

// Proof returns the sibling path for the leaf at index.
func Proof(leaves []types.Hash, index int) ([]types.Hash, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	if index < 0 || index >= len(leaves) {
		return nil, xerrors.Errorf("leaf index %d out of range [0, %d)", index, len(leaves))
	}
	var proof []types.Hash
	for _, level := range levels(leaves) {
		if len(level) == 1 {
			break
		}
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof, nil
}
