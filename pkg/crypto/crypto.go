package crypto

import (
	"io"

	secp "github.com/filecoin-project/go-crypto"
	"github.com/minio/blake2b-simd"
)

//
// SECP256K1 primitives. Proposers sign with secp256k1 keys; the signing
// digest is always blake2b-256 of the signed bytes.
//

// NewSecpKeyFromSeed generates a new key from the given reader.
func NewSecpKeyFromSeed(seed io.Reader) (KeyInfo, error) {
	k, err := secp.GenerateKeyFromSeed(seed)
	if err != nil {
		return KeyInfo{}, err
	}
	return *NewSecpKeyInfo(k), nil
}

// ToPublic returns the uncompressed public key of a secp256k1 private key.
func ToPublic(sigType SigType, privateKey []byte) ([]byte, error) {
	if sigType != SigTypeSecp256k1 {
		return nil, ErrUnsupportedSigType
	}
	return secp.PublicKey(privateKey), nil
}

// SignSecp signs the blake2b-256 digest of data.
func SignSecp(privateKey []byte, data []byte) ([]byte, error) {
	hash := blake2b.Sum256(data)
	return secp.Sign(privateKey, hash[:])
}

// EcRecover recovers the public key that produced signature over the
// blake2b-256 digest of data.
func EcRecover(data []byte, signature []byte) ([]byte, error) {
	hash := blake2b.Sum256(data)
	return secp.EcRecover(hash[:], signature)
}
