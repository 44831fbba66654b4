// Package session holds process-local per-user state that is lost on restart.
package session

import (
	"sync"
	"time"
)

type entry[T any] struct {
	value     T
	touchedAt time.Time
}

// Table maps user ids to ephemeral state. The mutex guards the map only;
// each user's entry is written by that user's own turns, which arrive one
// at a time.
//
// Entries idle for longer than the TTL are dropped lazily: Get ignores an
// expired entry and Put sweeps the whole table at most once per TTL.
type Table[T any] struct {
	mu        sync.Mutex
	entries   map[string]entry[T]
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewTable builds a table. A ttl of zero or less disables expiry; a nil now
// uses time.Now.
func NewTable[T any](ttl time.Duration, now func() time.Time) *Table[T] {
	if now == nil {
		now = time.Now
	}
	return &Table[T]{
		entries:   map[string]entry[T]{},
		ttl:       ttl,
		now:       now,
		lastSweep: now(),
	}
}

// Get returns the live entry for userID.
func (t *Table[T]) Get(userID string) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[userID]
	if !ok {
		var zero T
		return zero, false
	}
	if t.expired(e, t.now()) {
		delete(t.entries, userID)
		var zero T
		return zero, false
	}
	return e.value, true
}

// Put stores value for userID and refreshes its idle timer.
func (t *Table[T]) Put(userID string, value T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.entries[userID] = entry[T]{value: value, touchedAt: now}
	t.sweepLocked(now)
}

// Delete removes the entry for userID. Missing entries are ignored.
func (t *Table[T]) Delete(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, userID)
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	count := 0
	for _, e := range t.entries {
		if !t.expired(e, now) {
			count++
		}
	}
	return count
}

func (t *Table[T]) expired(e entry[T], now time.Time) bool {
	return t.ttl > 0 && now.Sub(e.touchedAt) > t.ttl
}

func (t *Table[T]) sweepLocked(now time.Time) {
	if t.ttl <= 0 || now.Sub(t.lastSweep) < t.ttl {
		return
	}
	for userID, e := range t.entries {
		if t.expired(e, now) {
			delete(t.entries, userID)
		}
	}
	t.lastSweep = now
}
