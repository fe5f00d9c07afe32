package repo

import (
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"

	"github.com/lendcore/lendcore/pkg/config"
)

// LatestVersion is the repo version this binary reads and writes.
const LatestVersion uint = 1

var walletPrefix = datastore.NewKey("/wallet")

// Datastore is the datastore interface provided by the repo
type Datastore interface {
	datastore.Batching
}

// Repo is a representation of all persistent data of a lendcore node.
type Repo interface {
	Config() *config.Config
	// ReplaceConfig replaces the current config, with the newly passed in one.
	ReplaceConfig(cfg *config.Config) error

	// Datastore holds the ledger state of every component.
	Datastore() Datastore

	// WalletDatastore holds encrypted signing keys, apart from ledger state.
	WalletDatastore() Datastore

	// Version returns the current repo version.
	Version() uint

	// Path returns the repo path.
	Path() (string, error)

	// JournalPath returns the journal path.
	JournalPath() string

	// Close shuts down the repo.
	Close() error
}

func walletDatastore(ds Datastore) Datastore {
	return namespace.Wrap(ds, walletPrefix)
}
