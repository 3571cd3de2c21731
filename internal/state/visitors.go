package state

import (
	"sync"
	"time"
)

// VisitorTracker deduplicates viewers by network origin, instantaneously and
// per UTC calendar day. There is no background timer; rollover happens lazily
// on the first observation or snapshot after midnight.
type VisitorTracker struct {
	mu        sync.Mutex
	byOrigin  map[string]map[string]struct{} // origin -> attributed connection IDs
	originOf  map[string]string              // connection ID -> origin
	daily     map[string]struct{}
	current   map[string]struct{}
	lastReset time.Time
}

func NewVisitorTracker(now time.Time) *VisitorTracker {
	return &VisitorTracker{
		byOrigin:  make(map[string]map[string]struct{}),
		originOf:  make(map[string]string),
		daily:     make(map[string]struct{}),
		current:   make(map[string]struct{}),
		lastReset: dateOf(now),
	}
}

// Observe attributes a connection to its origin and marks the origin seen for
// the current day.
func (v *VisitorTracker) Observe(origin, connectionID string, now time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.resetIfNewDay(now)

	conns, ok := v.byOrigin[origin]
	if !ok {
		conns = make(map[string]struct{})
		v.byOrigin[origin] = conns
	}
	conns[connectionID] = struct{}{}
	v.originOf[connectionID] = origin

	v.daily[origin] = struct{}{}
	v.current[origin] = struct{}{}
}

// Release drops a connection's attribution. The origin leaves the current
// set when its last connection goes; the daily set is monotonic within a day
// and is never touched here. Idempotent.
func (v *VisitorTracker) Release(connectionID string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	origin, ok := v.originOf[connectionID]
	if !ok {
		return
	}
	delete(v.originOf, connectionID)

	conns := v.byOrigin[origin]
	delete(conns, connectionID)
	if len(conns) == 0 {
		delete(v.byOrigin, origin)
		delete(v.current, origin)
	}
}

// Snapshot returns the daily and instantaneous unique-origin counts.
func (v *VisitorTracker) Snapshot(now time.Time) (daily, current int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.resetIfNewDay(now)
	return len(v.daily), len(v.current)
}

// resetIfNewDay clears the daily set on the first call after a UTC date
// rollover. Callers hold v.mu.
func (v *VisitorTracker) resetIfNewDay(now time.Time) {
	today := dateOf(now)
	if !today.After(v.lastReset) {
		return
	}
	v.daily = make(map[string]struct{})
	v.lastReset = today
}

func dateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
