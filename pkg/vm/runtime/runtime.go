// Package runtime defines the interface actors execute against.
package runtime

import (
	"context"

	"github.com/filecoin-project/go-address"
	"github.com/google/uuid"

	"github.com/lendcore/lendcore/pkg/journal"
	"github.com/lendcore/lendcore/pkg/state"
)

// Runtime is the only thing exposed to an actor while executing. One
// Runtime lives for exactly one call; its writes and events are committed
// together or not at all.
type Runtime interface {
	// Context is the context of the enclosing call.
	Context() context.Context
	// CallID identifies the enclosing call in logs and the journal.
	CallID() uuid.UUID
	// Caller is the address the current method is executing on behalf of.
	Caller() address.Address
	// Now is the call's timestamp in unix seconds. It does not change
	// during the call.
	Now() uint64
	// State is the staged storage of the call.
	State() *state.Txn
	// Emit stages an event for the journal.
	Emit(e journal.Event)
	// WithCaller returns a Runtime sharing this call's state and events but
	// reporting caller as Caller. Used for actor-to-actor calls.
	WithCaller(caller address.Address) Runtime
}
