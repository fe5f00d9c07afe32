package wallet

import (
	"encoding/json"

	"github.com/filecoin-project/go-address"
	"github.com/google/uuid"

	"github.com/lendcore/lendcore/pkg/crypto"
)

const version = 1

// Key is a signing key as stored in the wallet.
type Key struct {
	ID uuid.UUID
	// to simplify lookups we also store the address
	Address address.Address
	KeyInfo *crypto.KeyInfo
}

type plainKey struct {
	ID      string          `json:"id"`
	Address string          `json:"address"`
	KeyInfo *crypto.KeyInfo `json:"keyInfo"`
}

type encryptedKey struct {
	ID      string     `json:"id"`
	Address string     `json:"address"`
	Crypto  cryptoJSON `json:"crypto"`
	Version int        `json:"version"`
}

type cryptoJSON struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams cipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    kdfParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

type cipherParams struct {
	IV string `json:"iv"`
}

type kdfParams struct {
	N     int    `json:"n"`
	R     int    `json:"r"`
	P     int    `json:"p"`
	DKLen int    `json:"dklen"`
	Salt  string `json:"salt"`
}

func newKey(ki *crypto.KeyInfo) (*Key, error) {
	addr, err := ki.Address()
	if err != nil {
		return nil, err
	}
	return &Key{ID: uuid.New(), Address: addr, KeyInfo: ki}, nil
}

func (k *Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(plainKey{
		ID:      k.ID.String(),
		Address: k.Address.String(),
		KeyInfo: k.KeyInfo,
	})
}

func (k *Key) UnmarshalJSON(b []byte) error {
	var pk plainKey
	if err := json.Unmarshal(b, &pk); err != nil {
		return err
	}
	id, err := uuid.Parse(pk.ID)
	if err != nil {
		return err
	}
	addr, err := address.NewFromString(pk.Address)
	if err != nil {
		return err
	}
	k.ID, k.Address, k.KeyInfo = id, addr, pk.KeyInfo
	return nil
}
