package wallet

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/minio/blake2b-simd"
	"golang.org/x/crypto/scrypt"
)

const (
	keyHeaderKDF = "scrypt"
	keyCipher    = "aes-128-ctr"

	scryptR     = 8
	scryptDKLen = 32
)

// ErrDecrypt is returned when a stored key does not open with the password.
var ErrDecrypt = errors.New("could not decrypt key with given password")

// encryptKey seals key under password into a json blob.
func encryptKey(key *Key, password []byte, scryptN, scryptP int) ([]byte, error) {
	keyBytes, err := json.Marshal(key)
	if err != nil {
		return nil, err
	}
	c, err := encryptData(keyBytes, password, scryptN, scryptP)
	if err != nil {
		return nil, err
	}
	return json.Marshal(encryptedKey{
		ID:      key.ID.String(),
		Address: key.Address.String(),
		Crypto:  c,
		Version: version,
	})
}

func encryptData(data, password []byte, scryptN, scryptP int) (cryptoJSON, error) {
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return cryptoJSON{}, fmt.Errorf("reading from crypto/rand failed: %w", err)
	}
	derivedKey, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptDKLen)
	if err != nil {
		return cryptoJSON{}, err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return cryptoJSON{}, fmt.Errorf("reading from crypto/rand failed: %w", err)
	}
	cipherText, err := aesCTRXOR(derivedKey[:16], data, iv)
	if err != nil {
		return cryptoJSON{}, err
	}

	return cryptoJSON{
		Cipher:       keyCipher,
		CipherText:   hex.EncodeToString(cipherText),
		CipherParams: cipherParams{IV: hex.EncodeToString(iv)},
		KDF:          keyHeaderKDF,
		KDFParams: kdfParams{
			N:     scryptN,
			R:     scryptR,
			P:     scryptP,
			DKLen: scryptDKLen,
			Salt:  hex.EncodeToString(salt),
		},
		MAC: hex.EncodeToString(mac(derivedKey[16:32], cipherText)),
	}, nil
}

func aesCTRXOR(key, inText, iv []byte) ([]byte, error) {
	// AES-128 is selected due to size of encryptKey.
	aesBlock, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	stream := cipher.NewCTR(aesBlock, iv)
	outText := make([]byte, len(inText))
	stream.XORKeyStream(outText, inText)
	return outText, nil
}

// decryptKey opens a json blob produced by encryptKey.
func decryptKey(keyjson, password []byte) (*Key, error) {
	var k encryptedKey
	if err := json.Unmarshal(keyjson, &k); err != nil {
		return nil, err
	}
	if k.Version != version {
		return nil, fmt.Errorf("version not supported: %v", k.Version)
	}

	keyBytes, err := decryptData(k.Crypto, password)
	if err != nil {
		return nil, err
	}

	key := &Key{}
	if err := json.Unmarshal(keyBytes, key); err != nil {
		return nil, err
	}
	return key, nil
}

func decryptData(c cryptoJSON, password []byte) ([]byte, error) {
	if c.Cipher != keyCipher {
		return nil, fmt.Errorf("cipher not supported: %v", c.Cipher)
	}
	if c.KDF != keyHeaderKDF {
		return nil, fmt.Errorf("unsupported KDF: %s", c.KDF)
	}

	macBytes, err := hex.DecodeString(c.MAC)
	if err != nil {
		return nil, err
	}
	iv, err := hex.DecodeString(c.CipherParams.IV)
	if err != nil {
		return nil, err
	}
	cipherText, err := hex.DecodeString(c.CipherText)
	if err != nil {
		return nil, err
	}
	salt, err := hex.DecodeString(c.KDFParams.Salt)
	if err != nil {
		return nil, err
	}

	p := c.KDFParams
	derivedKey, err := scrypt.Key(password, salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(mac(derivedKey[16:32], cipherText), macBytes) {
		return nil, ErrDecrypt
	}
	return aesCTRXOR(derivedKey[:16], cipherText, iv)
}

func mac(key, cipherText []byte) []byte {
	sum := blake2b.Sum256(append(append([]byte{}, key...), cipherText...))
	return sum[:]
}
