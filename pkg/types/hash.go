package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/minio/blake2b-simd"
	mh "github.com/multiformats/go-multihash"
)

// HashLength is the size in bytes of a Hash.
const HashLength = 32

// Hash is a 32 byte blake2b-256 digest. It identifies proposals, capability
// tags, spec hashes and asset state fingerprints.
type Hash [HashLength]byte

// EmptyHash is the zero hash.
var EmptyHash = Hash{}

// Sum256 returns the blake2b-256 digest of data.
func Sum256(data ...[]byte) Hash {
	h := blake2b.New256()
	for _, d := range data {
		_, _ = h.Write(d)
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// HashFromBytes converts a 32 byte slice into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashLength {
		return h, fmt.Errorf("invalid hash length %d", len(b))
	}
	copy(h[:], b)
	return h, nil
}

// HashFromHex parses a hex string with or without a 0x prefix.
func HashFromHex(s string) (Hash, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Hash{}, err
	}
	return HashFromBytes(b)
}

// IsEmpty reports whether h is the zero hash.
func (h Hash) IsEmpty() bool {
	return h == EmptyHash
}

// Bytes returns a copy of the hash bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashLength)
	copy(out, h[:])
	return out
}

// Hex returns the 0x prefixed hex form.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// Cid wraps the digest as a raw CIDv1 with a blake2b-256 multihash.
func (h Hash) Cid() cid.Cid {
	mhash, err := mh.Encode(h[:], mh.BLAKE2B_MIN+31)
	if err != nil {
		// only fails for unknown codes or mismatched lengths
		panic(err)
	}
	return cid.NewCidV1(cid.Raw, mhash)
}

// HashFromCid reverses Cid.
func HashFromCid(c cid.Cid) (Hash, error) {
	dec, err := mh.Decode(c.Hash())
	if err != nil {
		return Hash{}, err
	}
	if dec.Code != mh.BLAKE2B_MIN+31 {
		return Hash{}, fmt.Errorf("unexpected multihash code %x", dec.Code)
	}
	return HashFromBytes(dec.Digest)
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *Hash) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*h = EmptyHash
		return nil
	}
	parsed, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
