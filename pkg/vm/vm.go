// Package vm serializes protocol calls and makes each one atomic: a call's
// writes and events are committed in one datastore batch when it succeeds
// and dropped when it fails.
package vm

import (
	"context"
	"sync"

	"github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/google/uuid"
	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"

	"github.com/lendcore/lendcore/pkg/clock"
	"github.com/lendcore/lendcore/pkg/journal"
	"github.com/lendcore/lendcore/pkg/metrics"
	"github.com/lendcore/lendcore/pkg/state"
	"github.com/lendcore/lendcore/pkg/vm/errors"
	"github.com/lendcore/lendcore/pkg/vm/runtime"
)

var log = logging.Logger("vm")

var (
	callsCt    = metrics.NewInt64Counter("vm/calls", "Number of calls applied")
	revertsCt  = metrics.NewInt64Counter("vm/reverts", "Number of calls reverted")
	faultsCt   = metrics.NewInt64Counter("vm/faults", "Number of calls aborted by a fault")
	applyTimer = metrics.NewTimerMs("vm/apply_ms", "Duration of a call in milliseconds")
)

// Receipt describes a committed or reverted call.
type Receipt struct {
	CallID   uuid.UUID
	Caller   address.Address
	Time     uint64
	ExitCode exitcode.ExitCode
	Events   []journal.Event
}

// VM applies calls one at a time.
type VM struct {
	lk      sync.RWMutex
	ds      datastore.Batching
	clock   clock.Clock
	journal journal.Journal
}

// NewVM returns a VM over ds.
func NewVM(ds datastore.Batching, clk clock.Clock, j journal.Journal) *VM {
	if j == nil {
		j = journal.NewNoopJournal()
	}
	return &VM{ds: ds, clock: clk, journal: j}
}

// Apply runs fn as caller in a fresh transaction. If fn returns nil its
// writes are committed and its events recorded; otherwise nothing is kept.
// A returned error always satisfies either errors.ShouldRevert or
// errors.IsFault unless fn returned something else.
func (v *VM) Apply(ctx context.Context, caller address.Address, fn func(rt runtime.Runtime) error) (*Receipt, error) {
	v.lk.Lock()
	defer v.lk.Unlock()

	sw := applyTimer.Start(ctx)
	defer sw.Stop(ctx)
	callsCt.Inc(ctx, 1)

	ic := newInvocation(ctx, v.ds, caller, v.clock.Unix())
	rcpt := &Receipt{CallID: ic.callID, Caller: caller, Time: ic.now}

	if err := fn(ic); err != nil {
		ic.txn.Discard()
		rcpt.ExitCode = errors.CodeOf(err)
		if errors.IsFault(err) {
			faultsCt.Inc(ctx, 1)
			log.Errorw("call aborted", "call", ic.callID, "caller", caller, "error", err)
		} else {
			revertsCt.Inc(ctx, 1)
			log.Debugw("call reverted", "call", ic.callID, "caller", caller, "code", rcpt.ExitCode, "error", err)
		}
		return rcpt, err
	}

	if err := ic.txn.Commit(ctx); err != nil {
		faultsCt.Inc(ctx, 1)
		rcpt.ExitCode = exitcode.ErrIllegalState
		return rcpt, errors.FaultErrorWrap(err, "failed to commit call")
	}
	for _, e := range ic.shared.events {
		journal.Record(v.journal, e)
	}
	rcpt.Events = ic.shared.events
	log.Debugw("call committed", "call", ic.callID, "caller", caller, "events", len(rcpt.Events))
	return rcpt, nil
}

// View runs fn against current state without committing anything. Views
// may run concurrently with each other but never with Apply.
func (v *VM) View(ctx context.Context, caller address.Address, fn func(rt runtime.Runtime) error) error {
	v.lk.RLock()
	defer v.lk.RUnlock()

	ic := newInvocation(ctx, v.ds, caller, v.clock.Unix())
	defer ic.txn.Discard()
	return fn(ic)
}

type sharedInvocation struct {
	events []journal.Event
}

type invocation struct {
	ctx    context.Context
	callID uuid.UUID
	caller address.Address
	now    uint64
	txn    *state.Txn
	shared *sharedInvocation
}

var _ runtime.Runtime = (*invocation)(nil)

func newInvocation(ctx context.Context, ds datastore.Batching, caller address.Address, now uint64) *invocation {
	return &invocation{
		ctx:    ctx,
		callID: uuid.New(),
		caller: caller,
		now:    now,
		txn:    state.NewTxn(ds),
		shared: &sharedInvocation{},
	}
}

func (ic *invocation) Context() context.Context { return ic.ctx }

func (ic *invocation) CallID() uuid.UUID { return ic.callID }

func (ic *invocation) Caller() address.Address { return ic.caller }

func (ic *invocation) Now() uint64 { return ic.now }

func (ic *invocation) State() *state.Txn { return ic.txn }

func (ic *invocation) Emit(e journal.Event) {
	ic.shared.events = append(ic.shared.events, e)
}

func (ic *invocation) WithCaller(caller address.Address) runtime.Runtime {
	cp := *ic
	cp.caller = caller
	return &cp
}
