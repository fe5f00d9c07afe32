package testhelpers

import (
	"bytes"
	"context"
	"errors"

	"github.com/filecoin-project/go-address"

	"github.com/lendcore/lendcore/pkg/crypto"
)

// MockSigner signs with a fixed set of in-memory secp256k1 keys.
type MockSigner struct {
	AddrKeyInfo map[address.Address]crypto.KeyInfo
	Addresses   []address.Address
	PubKeys     [][]byte
}

// NewMockSigner returns a new mock signer, capable of signing data with
// keys (addresses derived from) in keyinfo
func NewMockSigner(kis []crypto.KeyInfo) MockSigner {
	var ms MockSigner
	ms.AddrKeyInfo = make(map[address.Address]crypto.KeyInfo)
	for _, k := range kis {
		pub, err := k.PublicKey()
		if err != nil {
			panic(err)
		}
		newAddr, err := address.NewSecp256k1Address(pub)
		if err != nil {
			panic(err)
		}
		ms.Addresses = append(ms.Addresses, newAddr)
		ms.AddrKeyInfo[newAddr] = k
		ms.PubKeys = append(ms.PubKeys, pub)
	}
	return ms
}

// NewMockSignersAndKeyInfo is a convenience function to generate a mock
// signers with some keys.
func NewMockSignersAndKeyInfo(numSigners int) (MockSigner, []crypto.KeyInfo) {
	ki := MustGenerateKeyInfo(numSigners, 42)
	signer := NewMockSigner(ki)
	return signer, ki
}

// MustGenerateKeyInfo generates `n` distinct keyinfos using seed `seed`.
// Key i reads a stream made only of the byte seed+i, so the key does not
// depend on how many bytes the generator discards first. The result is
// deterministic (for stable tests), don't use this for real keys!
func MustGenerateKeyInfo(n int, seed byte) []crypto.KeyInfo {
	if n > 256 {
		panic("at most 256 distinct keys per seed")
	}
	var keyinfos []crypto.KeyInfo
	for i := 0; i < n; i++ {
		token := bytes.Repeat([]byte{seed + byte(i)}, 512)
		ki, err := crypto.NewSecpKeyFromSeed(bytes.NewReader(token))
		if err != nil {
			panic(err)
		}
		keyinfos = append(keyinfos, ki)
	}
	return keyinfos
}

// SignBytes cryptographically signs `data` using the  `addr`.
func (ms MockSigner) SignBytes(_ context.Context, data []byte, addr address.Address) (*crypto.Signature, error) {
	ki, ok := ms.AddrKeyInfo[addr]
	if !ok {
		return nil, errors.New("unknown address")
	}
	var sig *crypto.Signature
	err := ki.UsePrivateKey(func(privateKey []byte) error {
		var err error
		sig, err = crypto.Sign(data, privateKey, ki.SigType)
		return err
	})
	return sig, err
}

// MustSignRaw signs data and returns the wire form accepted by the
// proposal authorizer.
func (ms MockSigner) MustSignRaw(data []byte, addr address.Address) []byte {
	sig, err := ms.SignBytes(context.Background(), data, addr)
	if err != nil {
		panic(err)
	}
	raw, err := crypto.EncodeSignature(sig)
	if err != nil {
		panic(err)
	}
	return raw
}

// HasAddress returns whether the signer can sign with this address
func (ms MockSigner) HasAddress(_ context.Context, addr address.Address) (bool, error) {
	_, ok := ms.AddrKeyInfo[addr]
	return ok, nil
}
