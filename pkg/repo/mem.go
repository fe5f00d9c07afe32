package repo

import (
	"sync"

	"github.com/ipfs/go-datastore"
	dss "github.com/ipfs/go-datastore/sync"

	"github.com/lendcore/lendcore/pkg/config"
)

// MemRepo is an in-memory implementation of the repo interface.
type MemRepo struct {
	// lk guards the config
	lk      sync.RWMutex
	C       *config.Config
	D       Datastore
	version uint
}

var _ Repo = (*MemRepo)(nil)

// NewInMemoryRepo makes a new instance of MemRepo
func NewInMemoryRepo() *MemRepo {
	defConfig := config.NewDefaultConfig()
	defConfig.Datastore.Type = "memds"
	defConfig.Journal.Enabled = false
	return &MemRepo{
		C:       defConfig,
		D:       dss.MutexWrap(datastore.NewMapDatastore()),
		version: LatestVersion,
	}
}

// Config returns the configuration object.
func (mr *MemRepo) Config() *config.Config {
	mr.lk.RLock()
	defer mr.lk.RUnlock()

	return mr.C
}

// ReplaceConfig replaces the current config with the newly passed in one.
func (mr *MemRepo) ReplaceConfig(cfg *config.Config) error {
	mr.lk.Lock()
	defer mr.lk.Unlock()

	mr.C = cfg

	return nil
}

// Datastore returns the datastore.
func (mr *MemRepo) Datastore() Datastore {
	return mr.D
}

// WalletDatastore returns the wallet view of the datastore.
func (mr *MemRepo) WalletDatastore() Datastore {
	return walletDatastore(mr.D)
}

// Version returns the version of the repo.
func (mr *MemRepo) Version() uint {
	return mr.version
}

// Close is a noop.
func (mr *MemRepo) Close() error {
	return nil
}

// Path returns the default path.
func (mr *MemRepo) Path() (string, error) {
	return "", nil
}

// JournalPath returns a string to satisfy the repo interface.
func (mr *MemRepo) JournalPath() string {
	return "in_memory_lendcore_journal_path"
}
