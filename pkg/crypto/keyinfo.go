package crypto

import (
	"bytes"
	"encoding/json"

	"github.com/awnumar/memguard"
	"github.com/filecoin-project/go-address"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
)

// secpTypeName is the json name of SigTypeSecp256k1 in exported keys.
const secpTypeName = "secp256k1"

var log = logging.Logger("crypto")

// KeyInfo holds a proposer's private key sealed in a memguard enclave.
type KeyInfo struct {
	PrivateKey *memguard.Enclave
	SigType    SigType
}

// NewSecpKeyInfo seals privateKey. The slice is wiped.
func NewSecpKeyInfo(privateKey []byte) *KeyInfo {
	ki := &KeyInfo{SigType: SigTypeSecp256k1}
	ki.SetPrivateKey(privateKey)
	return ki
}

type keyInfoJSON struct {
	PrivateKey []byte          `json:"privateKey"`
	Type       json.RawMessage `json:"type"`
}

// UnmarshalJSON accepts the key type by name or by its numeric value.
// Only secp256k1 keys can sign proposals.
func (ki *KeyInfo) UnmarshalJSON(data []byte) error {
	var raw keyInfoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var name string
	var num SigType
	switch {
	case json.Unmarshal(raw.Type, &name) == nil:
		if name != secpTypeName {
			return errors.Errorf("unsupported key type %q", name)
		}
	case json.Unmarshal(raw.Type, &num) == nil:
		if num != SigTypeSecp256k1 {
			return errors.Errorf("unsupported key type %d", num)
		}
	default:
		return errors.Errorf("malformed key type %s", raw.Type)
	}
	if len(raw.PrivateKey) == 0 {
		return errors.New("missing private key")
	}
	ki.SigType = SigTypeSecp256k1
	ki.SetPrivateKey(raw.PrivateKey)
	return nil
}

func (ki KeyInfo) MarshalJSON() ([]byte, error) {
	if ki.SigType != SigTypeSecp256k1 {
		return nil, errors.Errorf("unsupported key type %d", ki.SigType)
	}
	var out []byte
	err := ki.UsePrivateKey(func(sk []byte) error {
		name, _ := json.Marshal(secpTypeName)
		var err error
		out, err = json.Marshal(keyInfoJSON{PrivateKey: sk, Type: name})
		return err
	})
	return out, err
}

// Key copies the private key out of the enclave. Callers own the copy.
func (ki *KeyInfo) Key() []byte {
	var sk []byte
	if err := ki.UsePrivateKey(func(b []byte) error {
		sk = append([]byte(nil), b...)
		return nil
	}); err != nil {
		log.Errorf("open private key: %v", err)
		return nil
	}
	return sk
}

// Equals reports whether both keys hold the same secret of the same type.
func (ki *KeyInfo) Equals(other *KeyInfo) bool {
	if ki == nil || other == nil {
		return ki == other
	}
	if ki.SigType != other.SigType {
		return false
	}
	equal := false
	_ = ki.UsePrivateKey(func(a []byte) error {
		return other.UsePrivateKey(func(b []byte) error {
			equal = bytes.Equal(a, b)
			return nil
		})
	})
	return equal
}

// Address derives the signer address a proposal must name as proposer.
func (ki *KeyInfo) Address() (address.Address, error) {
	pub, err := ki.PublicKey()
	if err != nil {
		return address.Undef, err
	}
	return address.NewSecp256k1Address(pub)
}

// PublicKey returns the uncompressed public key.
func (ki *KeyInfo) PublicKey() ([]byte, error) {
	var pub []byte
	err := ki.UsePrivateKey(func(sk []byte) error {
		var err error
		pub, err = ToPublic(ki.SigType, sk)
		return err
	})
	return pub, err
}

// UsePrivateKey opens the enclave for the duration of f.
func (ki *KeyInfo) UsePrivateKey(f func([]byte) error) error {
	if ki.PrivateKey == nil {
		return errors.New("key info has no private key")
	}
	buf, err := ki.PrivateKey.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return f(buf.Bytes())
}

// SetPrivateKey seals privateKey and wipes the slice.
func (ki *KeyInfo) SetPrivateKey(privateKey []byte) {
	ki.PrivateKey = memguard.NewEnclave(privateKey)
}
