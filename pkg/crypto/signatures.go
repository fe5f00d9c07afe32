package crypto

import (
	"fmt"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/crypto"
)

//
// Address-based signature validation
//

type Signature = crypto.Signature
type SigType = crypto.SigType

const (
	SigTypeSecp256k1 = crypto.SigTypeSecp256k1
)

// ErrUnsupportedSigType is returned for anything but secp256k1.
var ErrUnsupportedSigType = fmt.Errorf("unsupported signature type")

// Sign signs data with secretKey.
func Sign(data []byte, secretKey []byte, sigtype SigType) (*Signature, error) {
	if sigtype != SigTypeSecp256k1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSigType, sigtype)
	}
	signature, err := SignSecp(secretKey, data)
	if err != nil {
		return nil, err
	}
	return &Signature{
		Type: sigtype,
		Data: signature,
	}, nil
}

// Verify cryptographically verifies that 'sig' is the signed hash of 'data' with
// the public key belonging to `addr`.
func Verify(sig *Signature, addr address.Address, data []byte) error {
	if sig == nil {
		return fmt.Errorf("signature is nil")
	}
	switch addr.Protocol() {
	case address.SECP256K1:
		if sig.Type != SigTypeSecp256k1 {
			return fmt.Errorf("incorrect signature type (%v) for address expected SECP256K1 signature", sig.Type)
		}
		return ValidateSecpSignature(data, addr, sig.Data)
	default:
		return fmt.Errorf("incorrect address protocol (%v) for signature validation", addr.Protocol())
	}
}

// ValidateSecpSignature checks that signature over data recovers to addr.
func ValidateSecpSignature(data []byte, addr address.Address, signature []byte) error {
	if addr.Protocol() != address.SECP256K1 {
		return fmt.Errorf("address protocol (%v) invalid for SECP256K1 signature verification", addr.Protocol())
	}
	maybePk, err := EcRecover(data, signature)
	if err != nil {
		return err
	}
	maybeAddr, err := address.NewSecp256k1Address(maybePk)
	if err != nil {
		return err
	}
	if maybeAddr != addr {
		return fmt.Errorf("invalid SECP signature")
	}
	return nil
}

// DecodeSignature parses the wire form of a signature: one type byte
// followed by the signature bytes.
func DecodeSignature(b []byte) (*Signature, error) {
	var sig Signature
	if err := sig.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return &sig, nil
}

// EncodeSignature returns the wire form of sig.
func EncodeSignature(sig *Signature) ([]byte, error) {
	return sig.MarshalBinary()
}
