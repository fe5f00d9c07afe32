package testhelpers

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-address"
	"github.com/ipfs/go-datastore"
	dss "github.com/ipfs/go-datastore/sync"

	"github.com/lendcore/lendcore/pkg/clock"
	"github.com/lendcore/lendcore/pkg/journal"
	"github.com/lendcore/lendcore/pkg/vm"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

// TestVM bundles a VM over an in-memory datastore with its mock clock and
// journal.
type TestVM struct {
	*vm.VM
	DS      datastore.Batching
	Clock   *clock.Mock
	Journal *journal.MemJournal
}

// NewTestVM returns a TestVM whose clock starts at now.
func NewTestVM(now uint64) *TestVM {
	ds := dss.MutexWrap(datastore.NewMapDatastore())
	clk := clock.NewMock(now)
	j := journal.NewMemJournal()
	return &TestVM{
		VM:      vm.NewVM(ds, clk, j),
		DS:      ds,
		Clock:   clk,
		Journal: j,
	}
}

// MustApply applies fn as caller and fails the test on error.
func (tv *TestVM) MustApply(t *testing.T, caller address.Address, fn func(rt runtime.Runtime) error) *vm.Receipt {
	t.Helper()
	rcpt, err := tv.Apply(context.Background(), caller, fn)
	if err != nil {
		t.Fatalf("apply failed: %s", err)
	}
	return rcpt
}

// Call applies fn as caller and returns its error.
func (tv *TestVM) Call(caller address.Address, fn func(rt runtime.Runtime) error) error {
	_, err := tv.Apply(context.Background(), caller, fn)
	return err
}
