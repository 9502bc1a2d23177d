package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hollis/nudge/internal/store"
)

// limitsStore is the slice of the persistent store backing the quota row.
type limitsStore interface {
	GetLimits() (*store.Limits, error)
	InitLimits(total int, nextRefreshAt int64) (*store.Limits, error)
	ConsumeUnit() (bool, error)
	ResetWindow(now, nextRefreshAt int64) (bool, error)
}

// Limiter owns the rolling AI decision allowance: how many decisions may
// count against the quota in the current window, and when the window rolls
// over. The mutex serializes in-process callers; the store's conditional
// updates keep the counter exact even if two processes share the database.
type Limiter struct {
	mu     sync.Mutex
	store  limitsStore
	total  int
	window time.Duration
}

// NewLimiter creates a Limiter. The quota row is created lazily on first
// use with the given allowance and a window ending at now + window.
func NewLimiter(s limitsStore, total int, window time.Duration) *Limiter {
	return &Limiter{store: s, total: total, window: window}
}

// ensure loads the quota row, creating it on first use. Callers hold l.mu.
func (l *Limiter) ensure(now time.Time) (*store.Limits, error) {
	lim, err := l.store.GetLimits()
	if err != nil {
		return nil, err
	}
	if lim != nil {
		return lim, nil
	}
	lim, err = l.store.InitLimits(l.total, now.Add(l.window).UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("init limits: %w", err)
	}
	return lim, nil
}

// Remaining returns how many quota units are left in the current window,
// never negative.
func (l *Limiter) Remaining(now time.Time) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, err := l.ensure(now)
	if err != nil {
		return 0, err
	}
	remaining := lim.Total - lim.Used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// TryConsume spends one quota unit. Returns false without side effect when
// the allowance is exhausted. That is a normal branch, not a failure: the
// decision that triggered the consume still stands, it just isn't counted.
func (l *Limiter) TryConsume(now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.ensure(now); err != nil {
		return false, err
	}
	return l.store.ConsumeUnit()
}

// RefreshIfDue resets used to zero and opens a new window if the stored
// window has elapsed. Idempotent under redundant callers: the conditional
// update fires at most once per crossing because the first reset advances
// the refresh timestamp past now.
func (l *Limiter) RefreshIfDue(now time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, err := l.ensure(now)
	if err != nil {
		return false, err
	}
	if now.UnixMilli() < lim.NextRefreshAt {
		return false, nil
	}
	reset, err := l.store.ResetWindow(now.UnixMilli(), now.Add(l.window).UnixMilli())
	if err != nil {
		return false, err
	}
	if reset {
		log.Printf("quota window reset, next refresh %s", now.Add(l.window).Format(time.RFC3339))
	}
	return reset, nil
}

// Snapshot returns the current quota row for display surfaces.
func (l *Limiter) Snapshot(now time.Time) (*store.Limits, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ensure(now)
}

// NextRefreshAt returns when the current window rolls over.
func (l *Limiter) NextRefreshAt(now time.Time) (time.Time, error) {
	lim, err := l.Snapshot(now)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(lim.NextRefreshAt), nil
}
