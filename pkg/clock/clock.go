// Package clock supplies the trusted time source read once per call.
package clock

import (
	"time"

	"github.com/raulk/clock"
)

// Clock returns the current time as unix seconds.
type Clock interface {
	Now() time.Time
	Unix() uint64
}

type systemClock struct {
	clock.Clock
}

// NewSystemClock returns a Clock backed by the wall clock.
func NewSystemClock() Clock {
	return &systemClock{Clock: clock.New()}
}

func (sc *systemClock) Unix() uint64 {
	return toUnix(sc.Now())
}

// Mock is a manually driven Clock for tests and offline tools.
type Mock struct {
	*clock.Mock
}

// NewMock returns a Mock set to the given unix second.
func NewMock(unix uint64) *Mock {
	m := &Mock{Mock: clock.NewMock()}
	m.SetUnix(unix)
	return m
}

// Unix implements Clock.
func (m *Mock) Unix() uint64 {
	return toUnix(m.Now())
}

// SetUnix moves the mock to the given unix second.
func (m *Mock) SetUnix(unix uint64) {
	m.Set(time.Unix(int64(unix), 0))
}

// AdvanceSeconds moves the mock forward by secs.
func (m *Mock) AdvanceSeconds(secs uint64) {
	m.Add(time.Duration(secs) * time.Second)
}

func toUnix(t time.Time) uint64 {
	s := t.Unix()
	if s < 0 {
		return 0
	}
	return uint64(s)
}
