// Package journal records committed protocol events. A journal entry is
// written only after the call that produced it has committed.
package journal

import (
	"sync"
)

// Journal hands out topic scoped writers.
type Journal interface {
	Topic(topic string) Writer
}

// Writer records an event and its metadata as variadic key-value pairs.
type Writer interface {
	Write(event string, kvs ...interface{})
}

// Event is implemented by every event an actor can emit.
type Event interface {
	// Topic is the emitting component, e.g. "hub".
	Topic() string
	// Name is the event name, e.g. "TagSet".
	Name() string
	// KVs returns the event fields as alternating keys and values.
	KVs() []interface{}
}

// Record writes e to j.
func Record(j Journal, e Event) {
	j.Topic(e.Topic()).Write(e.Name(), e.KVs()...)
}

// Entry is a single recorded event.
type Entry struct {
	Topic string
	Event string
	KVs   []interface{}
}

// MemJournal keeps entries in memory.
type MemJournal struct {
	lk      sync.Mutex
	entries []Entry
}

// NewMemJournal returns an empty MemJournal.
func NewMemJournal() *MemJournal {
	return &MemJournal{}
}

// Topic implements Journal.
func (mj *MemJournal) Topic(topic string) Writer {
	return &memWriter{j: mj, topic: topic}
}

// Entries returns a copy of everything recorded so far.
func (mj *MemJournal) Entries() []Entry {
	mj.lk.Lock()
	defer mj.lk.Unlock()
	out := make([]Entry, len(mj.entries))
	copy(out, mj.entries)
	return out
}

type memWriter struct {
	j     *MemJournal
	topic string
}

func (mw *memWriter) Write(event string, kvs ...interface{}) {
	mw.j.lk.Lock()
	defer mw.j.lk.Unlock()
	mw.j.entries = append(mw.j.entries, Entry{Topic: mw.topic, Event: event, KVs: kvs})
}

type noopJournal struct{}

// NewNoopJournal returns a Journal that drops everything.
func NewNoopJournal() Journal {
	return noopJournal{}
}

func (noopJournal) Topic(string) Writer { return noopJournal{} }

func (noopJournal) Write(string, ...interface{}) {}
