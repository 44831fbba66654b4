package session

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestTablePutGetDelete(t *testing.T) {
	table := NewTable[int](0, nil)
	if _, ok := table.Get("a"); ok {
		t.Fatal("expected empty table")
	}
	table.Put("a", 1)
	table.Put("a", 2)
	if got, ok := table.Get("a"); !ok || got != 2 {
		t.Fatalf("Get(a) = (%d, %v), want (2, true)", got, ok)
	}
	table.Delete("a")
	table.Delete("a")
	if _, ok := table.Get("a"); ok {
		t.Fatal("expected deleted entry to be gone")
	}
}

func TestTableExpiresIdleEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	table := NewTable[string](time.Hour, clock.Now)

	table.Put("idle", "x")
	clock.Advance(30 * time.Minute)
	table.Put("busy", "y")
	clock.Advance(45 * time.Minute)

	if _, ok := table.Get("idle"); ok {
		t.Fatal("expected idle entry to expire")
	}
	if got, ok := table.Get("busy"); !ok || got != "y" {
		t.Fatalf("Get(busy) = (%q, %v), want (y, true)", got, ok)
	}
	if got := table.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

func TestTablePutSweepsExpiredEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	table := NewTable[int](time.Minute, clock.Now)
	for i := 0; i < 10; i++ {
		table.Put(fmt.Sprintf("user-%d", i), i)
	}
	clock.Advance(2 * time.Minute)
	table.Put("fresh", 1)

	table.mu.Lock()
	size := len(table.entries)
	table.mu.Unlock()
	if size != 1 {
		t.Fatalf("entries after sweep = %d, want 1", size)
	}
}

func TestTableConcurrentUsers(t *testing.T) {
	table := NewTable[int](time.Hour, nil)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i)
			for step := 0; step < 100; step++ {
				table.Put(userID, step)
				if got, ok := table.Get(userID); !ok || got != step {
					t.Errorf("Get(%s) = (%d, %v), want (%d, true)", userID, got, ok, step)
					return
				}
			}
		}(i)
	}
	wg.Wait()
	if got := table.Len(); got != 32 {
		t.Fatalf("Len() = %d, want 32", got)
	}
}
