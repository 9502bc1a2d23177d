package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/hollis/nudge/internal/store"
)

func testLimiter(t *testing.T, total int, window time.Duration) (*Limiter, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLimiter(db, total, window), db
}

func TestLimiterRemaining(t *testing.T) {
	lim, _ := testLimiter(t, 3, time.Hour)
	now := time.Now()

	remaining, err := lim.Remaining(now)
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 3 {
		t.Errorf("Remaining = %d, want 3", remaining)
	}

	if _, err := lim.TryConsume(now); err != nil {
		t.Fatalf("TryConsume: %v", err)
	}
	remaining, _ = lim.Remaining(now)
	if remaining != 2 {
		t.Errorf("Remaining after consume = %d, want 2", remaining)
	}
}

func TestLimiterTryConsumeExhaustion(t *testing.T) {
	lim, _ := testLimiter(t, 2, time.Hour)
	now := time.Now()

	// Exactly total consumes succeed, everything after fails until refresh
	for i := 0; i < 2; i++ {
		ok, err := lim.TryConsume(now)
		if err != nil {
			t.Fatalf("TryConsume %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("TryConsume %d = false, want true", i)
		}
	}
	for i := 0; i < 3; i++ {
		ok, err := lim.TryConsume(now)
		if err != nil {
			t.Fatalf("TryConsume exhausted: %v", err)
		}
		if ok {
			t.Fatal("TryConsume succeeded past total")
		}
	}

	remaining, _ := lim.Remaining(now)
	if remaining != 0 {
		t.Errorf("Remaining = %d, want 0", remaining)
	}
}

func TestLimiterConcurrentConsumeLastUnit(t *testing.T) {
	lim, _ := testLimiter(t, 1, time.Hour)
	now := time.Now()

	// Two simultaneous decisions must not both claim the last unit
	var wg sync.WaitGroup
	results := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := lim.TryConsume(now)
			if err != nil {
				t.Errorf("TryConsume: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
}

func TestLimiterRefreshIfDue(t *testing.T) {
	lim, _ := testLimiter(t, 2, time.Hour)
	start := time.Now()

	lim.TryConsume(start)
	lim.TryConsume(start)

	// Before the window elapses: no reset, any number of calls
	for i := 0; i < 3; i++ {
		reset, err := lim.RefreshIfDue(start.Add(30 * time.Minute))
		if err != nil {
			t.Fatalf("RefreshIfDue early: %v", err)
		}
		if reset {
			t.Fatal("refresh fired before the window elapsed")
		}
	}

	// At the crossing: exactly one reset regardless of caller count
	later := start.Add(2 * time.Hour)
	resets := 0
	for i := 0; i < 5; i++ {
		reset, err := lim.RefreshIfDue(later)
		if err != nil {
			t.Fatalf("RefreshIfDue: %v", err)
		}
		if reset {
			resets++
		}
	}
	if resets != 1 {
		t.Errorf("resets = %d, want 1", resets)
	}

	remaining, _ := lim.Remaining(later)
	if remaining != 2 {
		t.Errorf("Remaining after refresh = %d, want 2", remaining)
	}

	next, err := lim.NextRefreshAt(later)
	if err != nil {
		t.Fatalf("NextRefreshAt: %v", err)
	}
	want := later.Add(time.Hour)
	if next.UnixMilli() != want.UnixMilli() {
		t.Errorf("NextRefreshAt = %v, want %v", next, want)
	}
}
