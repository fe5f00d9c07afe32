package types

import (
	"encoding/binary"
	"fmt"
	gobig "math/big"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/big"
)

// Structural hashing.
//
// A struct hash is blake2b-256 over the type hash followed by one 32 byte word
// per field, in declaration order:
//
//	uint*    big-endian, left padded; must lie in [0, 2^256)
//	bool     0 or 1
//	address  blake2b-256 of address.Bytes(); address.Undef is the zero word
//	string   blake2b-256 of the utf-8 bytes
//	Hash     verbatim
//
// The type hash is blake2b-256 of the canonical type string, so any change to
// the field list changes every identity derived from it.

// TypeHash returns the hash of a canonical type string.
func TypeHash(typeString string) Hash {
	return Sum256([]byte(typeString))
}

// MaxU256 is 2^256 - 1.
var MaxU256 = big.NewFromGo(new(gobig.Int).Sub(new(gobig.Int).Lsh(gobig.NewInt(1), 256), gobig.NewInt(1)))

// IsU256 reports whether v is representable as an unsigned 256 bit integer.
func IsU256(v big.Int) bool {
	if v.Int == nil {
		return true
	}
	return v.Sign() >= 0 && v.BitLen() <= 256
}

// U256Word encodes v as a 32 byte big-endian word.
func U256Word(v big.Int) (Hash, error) {
	var w Hash
	if v.Int == nil {
		return w, nil
	}
	if !IsU256(v) {
		return w, fmt.Errorf("value %s out of uint256 range", v)
	}
	v.FillBytes(w[:])
	return w, nil
}

// Uint64Word encodes v as a 32 byte big-endian word.
func Uint64Word(v uint64) Hash {
	var w Hash
	binary.BigEndian.PutUint64(w[HashLength-8:], v)
	return w
}

// BoolWord encodes b as a 32 byte word.
func BoolWord(b bool) Hash {
	var w Hash
	if b {
		w[HashLength-1] = 1
	}
	return w
}

// AddressWord encodes a as a 32 byte word.
func AddressWord(a address.Address) Hash {
	if a == address.Undef {
		return EmptyHash
	}
	return Sum256(a.Bytes())
}

// StructHasher accumulates words for a struct hash. The first failing field
// is remembered and returned from Sum.
type StructHasher struct {
	words []byte
	err   error
}

// NewStructHasher starts a struct hash with the given type hash.
func NewStructHasher(typeHash Hash) *StructHasher {
	sh := &StructHasher{words: make([]byte, 0, 32*24)}
	sh.words = append(sh.words, typeHash[:]...)
	return sh
}

func (sh *StructHasher) word(w Hash) *StructHasher {
	sh.words = append(sh.words, w[:]...)
	return sh
}

// Uint appends an unsigned 256 bit integer.
func (sh *StructHasher) Uint(name string, v big.Int) *StructHasher {
	w, err := U256Word(v)
	if err != nil && sh.err == nil {
		sh.err = fmt.Errorf("field %s: %w", name, err)
	}
	return sh.word(w)
}

// Uint64 appends a small unsigned integer.
func (sh *StructHasher) Uint64(v uint64) *StructHasher {
	return sh.word(Uint64Word(v))
}

// Bool appends a boolean.
func (sh *StructHasher) Bool(b bool) *StructHasher {
	return sh.word(BoolWord(b))
}

// Address appends an address.
func (sh *StructHasher) Address(a address.Address) *StructHasher {
	return sh.word(AddressWord(a))
}

// String appends a string.
func (sh *StructHasher) String(s string) *StructHasher {
	return sh.word(Sum256([]byte(s)))
}

// Hash appends a hash verbatim.
func (sh *StructHasher) Hash(h Hash) *StructHasher {
	return sh.word(h)
}

// Sum returns the struct hash.
func (sh *StructHasher) Sum() (Hash, error) {
	if sh.err != nil {
		return Hash{}, sh.err
	}
	return Sum256(sh.words), nil
}

// DomainTypeString is the canonical type string of a signing domain.
const DomainTypeString = "Domain(string name,string version,uint256 chainId,address verifyingContract)"

// Domain separates the identities of one proposal variant deployment from
// every other variant, version, chain and deployment.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract address.Address
}

// Separator returns the domain separator hash.
func (d Domain) Separator() Hash {
	h, _ := NewStructHasher(TypeHash(DomainTypeString)).
		String(d.Name).
		String(d.Version).
		Uint64(d.ChainID).
		Address(d.VerifyingContract).
		Sum()
	return h
}

// TypedDataHash binds a struct hash to a domain: blake2b-256(0x19 0x01 ‖ separator ‖ structHash).
func (d Domain) TypedDataHash(structHash Hash) Hash {
	sep := d.Separator()
	return Sum256([]byte{0x19, 0x01}, sep[:], structHash[:])
}
