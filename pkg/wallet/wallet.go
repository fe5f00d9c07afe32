// Package wallet keeps proposer signing keys in the repo datastore,
// encrypted under a passphrase.
package wallet

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"sort"
	"sync"

	"github.com/filecoin-project/go-address"
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/lendcore/lendcore/pkg/config"
	"github.com/lendcore/lendcore/pkg/crypto"
)

var walletLog = logging.Logger("wallet")

// ErrKeyInfoNotFound is returned for addresses the wallet does not hold.
var ErrKeyInfoNotFound = fmt.Errorf("key info not found")

// Wallet manages the locally stored addresses.
type Wallet struct {
	lk sync.Mutex

	ds       datastore.Datastore
	password []byte
	scryptN  int
	scryptP  int

	// cache holds keys already decrypted in this process
	cache map[address.Address]*Key
}

// New opens the wallet stored in ds. Keys are sealed and opened with
// password using the scrypt parameters of cfg.
func New(ds datastore.Datastore, cfg *config.WalletConfig, password []byte) (*Wallet, error) {
	if len(password) == 0 {
		return nil, errors.New("wallet password must not be empty")
	}
	return &Wallet{
		ds:       ds,
		password: append([]byte{}, password...),
		scryptN:  cfg.ScryptN,
		scryptP:  cfg.ScryptP,
		cache:    make(map[address.Address]*Key),
	}, nil
}

func keyFor(addr address.Address) datastore.Key {
	return datastore.NewKey(addr.String())
}

// HasAddress checks if the given address is stored.
func (w *Wallet) HasAddress(ctx context.Context, addr address.Address) bool {
	has, err := w.ds.Has(ctx, keyFor(addr))
	if err != nil {
		walletLog.Errorf("failed to look up %s: %s", addr, err)
		return false
	}
	return has
}

// Addresses retrieves all stored addresses, always sorted in the same order.
func (w *Wallet) Addresses(ctx context.Context) ([]address.Address, error) {
	res, err := w.ds.Query(ctx, query.Query{KeysOnly: true})
	if err != nil {
		return nil, err
	}
	entries, err := res.Rest()
	if err != nil {
		return nil, err
	}

	out := make([]address.Address, 0, len(entries))
	for _, e := range entries {
		addr, err := address.NewFromString(datastore.RawKey(e.Key).Name())
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt wallet entry %s", e.Key)
		}
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Bytes(), out[j].Bytes()) < 0
	})
	return out, nil
}

// NewAddress generates a secp256k1 key, stores it and returns its address.
func (w *Wallet) NewAddress(ctx context.Context) (address.Address, error) {
	ki, err := crypto.NewSecpKeyFromSeed(rand.Reader)
	if err != nil {
		return address.Undef, err
	}
	return w.Import(ctx, &ki)
}

// Import adds the given keyinfo to the wallet.
func (w *Wallet) Import(ctx context.Context, ki *crypto.KeyInfo) (address.Address, error) {
	key, err := newKey(ki)
	if err != nil {
		return address.Undef, err
	}

	w.lk.Lock()
	defer w.lk.Unlock()

	if has, err := w.ds.Has(ctx, keyFor(key.Address)); err != nil {
		return address.Undef, err
	} else if has {
		return address.Undef, errors.Errorf("wallet already holds %s", key.Address)
	}

	sealed, err := encryptKey(key, w.password, w.scryptN, w.scryptP)
	if err != nil {
		return address.Undef, errors.Wrap(err, "failed to encrypt key")
	}
	if err := w.ds.Put(ctx, keyFor(key.Address), sealed); err != nil {
		return address.Undef, errors.Wrap(err, "failed to store key")
	}
	w.cache[key.Address] = key
	walletLog.Infof("imported key %s", key.Address)
	return key.Address, nil
}

// Export returns the keyinfo stored for addr.
func (w *Wallet) Export(ctx context.Context, addr address.Address) (*crypto.KeyInfo, error) {
	key, err := w.find(ctx, addr)
	if err != nil {
		return nil, err
	}
	return key.KeyInfo, nil
}

// Delete removes addr from the wallet.
func (w *Wallet) Delete(ctx context.Context, addr address.Address) error {
	w.lk.Lock()
	defer w.lk.Unlock()

	if has, err := w.ds.Has(ctx, keyFor(addr)); err != nil {
		return err
	} else if !has {
		return errors.Wrapf(ErrKeyInfoNotFound, "address %s", addr)
	}
	delete(w.cache, addr)
	return w.ds.Delete(ctx, keyFor(addr))
}

// SignBytes cryptographically signs data using the private key of addr.
func (w *Wallet) SignBytes(ctx context.Context, data []byte, addr address.Address) (*crypto.Signature, error) {
	key, err := w.find(ctx, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "signing using key '%s'", addr)
	}

	var sig *crypto.Signature
	err = key.KeyInfo.UsePrivateKey(func(sk []byte) error {
		var err error
		sig, err = crypto.Sign(data, sk, key.KeyInfo.SigType)
		return err
	})
	return sig, err
}

func (w *Wallet) find(ctx context.Context, addr address.Address) (*Key, error) {
	w.lk.Lock()
	defer w.lk.Unlock()

	if key, ok := w.cache[addr]; ok {
		return key, nil
	}

	sealed, err := w.ds.Get(ctx, keyFor(addr))
	if err == datastore.ErrNotFound {
		return nil, errors.Wrapf(ErrKeyInfoNotFound, "address %s", addr)
	} else if err != nil {
		return nil, err
	}
	key, err := decryptKey(sealed, w.password)
	if err != nil {
		return nil, err
	}
	if key.Address != addr {
		return nil, errors.Errorf("wallet entry for %s holds key of %s", addr, key.Address)
	}
	w.cache[addr] = key
	return key, nil
}
