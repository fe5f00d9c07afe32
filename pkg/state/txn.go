package state

import (
	"context"
	gobig "math/big"
	"sort"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("state")

// Txn is a write-staging overlay on top of a datastore. Reads see staged
// writes first; nothing reaches the datastore until Commit.
type Txn struct {
	base   datastore.Batching
	staged map[datastore.Key][]byte
	done   bool
}

// NewTxn returns an empty Txn over base.
//
// The Txn is not safe for concurrent use; the vm serializes calls.
func NewTxn(base datastore.Batching) *Txn {
	return &Txn{
		base:   base,
		staged: make(map[datastore.Key][]byte),
	}
}

// Get returns the value at key. found is false when the key has never been
// written.
func (t *Txn) Get(ctx context.Context, key datastore.Key) (value []byte, found bool, err error) {
	if v, ok := t.staged[key]; ok {
		return v, true, nil
	}
	v, err := t.base.Get(ctx, key)
	if err == datastore.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, xerrors.Errorf("failed to read %s: %w", key, err)
	}
	return v, true, nil
}

// Put stages value at key.
func (t *Txn) Put(key datastore.Key, value []byte) error {
	if t.done {
		return xerrors.New("put on finished transaction")
	}
	buf := make([]byte, len(value))
	copy(buf, value)
	t.staged[key] = buf
	return nil
}

// Len returns the number of staged writes.
func (t *Txn) Len() int {
	return len(t.staged)
}

// Commit writes every staged value to the datastore in one batch.
func (t *Txn) Commit(ctx context.Context) error {
	if t.done {
		return xerrors.New("transaction already finished")
	}
	t.done = true
	if len(t.staged) == 0 {
		return nil
	}

	keys := make([]datastore.Key, 0, len(t.staged))
	for k := range t.staged {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	batch, err := t.base.Batch(ctx)
	if err != nil {
		return xerrors.Errorf("failed to open batch: %w", err)
	}
	for _, k := range keys {
		if err := batch.Put(ctx, k, t.staged[k]); err != nil {
			return xerrors.Errorf("failed to stage %s: %w", k, err)
		}
	}
	if err := batch.Commit(ctx); err != nil {
		return xerrors.Errorf("failed to commit batch: %w", err)
	}
	log.Debugf("committed %d writes", len(keys))
	return nil
}

// Discard drops every staged write.
func (t *Txn) Discard() {
	t.done = true
	t.staged = make(map[datastore.Key][]byte)
}

// GetBool reads a flag; an absent key reads as false.
func (t *Txn) GetBool(ctx context.Context, key datastore.Key) (bool, error) {
	v, found, err := t.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if len(v) != 1 || v[0] > 1 {
		return false, xerrors.Errorf("malformed flag at %s", key)
	}
	return v[0] == 1, nil
}

// PutBool stages a flag.
func (t *Txn) PutBool(key datastore.Key, value bool) error {
	b := byte(0)
	if value {
		b = 1
	}
	return t.Put(key, []byte{b})
}

// GetUint reads a non-negative integer stored as big-endian bytes; an
// absent key reads as zero.
func (t *Txn) GetUint(ctx context.Context, key datastore.Key) (big.Int, error) {
	v, found, err := t.Get(ctx, key)
	if err != nil {
		return big.Zero(), err
	}
	if !found {
		return big.Zero(), nil
	}
	return big.NewFromGo(new(gobig.Int).SetBytes(v)), nil
}

// PutUint stages a non-negative integer as big-endian bytes.
func (t *Txn) PutUint(key datastore.Key, value big.Int) error {
	if value.Int == nil {
		value = big.Zero()
	}
	if value.Sign() < 0 {
		return xerrors.Errorf("negative value for %s", key)
	}
	return t.Put(key, value.Int.Bytes())
}
