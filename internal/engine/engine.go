// Package engine implements the recommendation decision engine: it
// manufactures suggestions through per-module producers, expires them
// lazily, resolves accept/decline decisions against a refreshing quota,
// and keeps the decision ledger and activity history consistent with the
// lifecycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/hollis/nudge/internal/store"
	"github.com/hollis/nudge/internal/suggest"
)

// Caller-visible failures. AlreadyResolved deliberately rejects duplicate
// resolutions instead of treating them as a no-op so stale UIs can detect
// they need a refresh.
var (
	ErrNotFound        = errors.New("recommendation not found")
	ErrAlreadyResolved = errors.New("recommendation already resolved")
)

// Decision is a user verdict on a recommendation.
type Decision string

const (
	DecisionAccepted Decision = store.DecisionAccepted
	DecisionDeclined Decision = store.DecisionDeclined
)

// recommendationStore is the slice of the persistent store the engine
// needs for recommendation lifecycle work.
type recommendationStore interface {
	CreateRecommendation(r *store.Recommendation) error
	GetRecommendation(id string) (*store.Recommendation, error)
	ListRecommendationsByStatus(status string) ([]store.Recommendation, error)
	ResolveRecommendation(id, status string, now int64) (bool, error)
	MarkRecommendationOpened(id string, now int64) (bool, error)
}

// decisionLedger appends accept/decline outcomes.
type decisionLedger interface {
	AppendDecision(d *store.Decision) error
}

// historyRecorder appends human-readable activity log entries.
type historyRecorder interface {
	AppendHistory(message, entryType string, metadata map[string]string) error
}

// Engine orchestrates the recommendation lifecycle. All timestamps flow in
// as time.Time and are stored as unix milliseconds.
type Engine struct {
	recs      recommendationStore
	ledger    decisionLedger
	history   historyRecorder
	limiter   *Limiter
	producers []suggest.Producer

	ttl time.Duration // validity window for newly generated recommendations

	gen singleflight.Group
}

// New creates an Engine. A *store.DB satisfies all three store arguments.
func New(recs recommendationStore, ledger decisionLedger, history historyRecorder, limiter *Limiter, ttl time.Duration) *Engine {
	return &Engine{
		recs:    recs,
		ledger:  ledger,
		history: history,
		limiter: limiter,
		ttl:     ttl,
	}
}

// SetProducers configures the per-module suggestion producers iterated by
// Generate.
func (e *Engine) SetProducers(producers []suggest.Producer) {
	e.producers = producers
}

// Limiter exposes the engine's quota for display surfaces.
func (e *Engine) Limiter() *Limiter {
	return e.limiter
}

// GetActive returns all active recommendations still inside their validity
// window. Any active row found past its expiry is transitioned to expired
// as a write-through side effect before being excluded, so callers never
// observe a stale recommendation as active.
func (e *Engine) GetActive(now time.Time) ([]store.Recommendation, error) {
	recs, err := e.recs.ListRecommendationsByStatus(store.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active: %w", err)
	}

	nowMs := now.UnixMilli()
	live := recs[:0:0]
	for _, r := range recs {
		if r.ExpiresAt > nowMs {
			live = append(live, r)
			continue
		}
		e.expire(r, nowMs)
	}
	return live, nil
}

// expire transitions one logically-expired recommendation. Failures are
// logged, not propagated: the caller already excludes the row from its
// view and the sweep will retry on the next read.
func (e *Engine) expire(r store.Recommendation, nowMs int64) {
	ok, err := e.recs.ResolveRecommendation(r.ID, store.StatusExpired, nowMs)
	if err != nil {
		log.Printf("expire %s: %v", r.ID, err)
		return
	}
	if !ok {
		return // lost a race with another sweep or a resolve
	}
	e.recordHistory(fmt.Sprintf("Suggestion expired: %q", r.Title), store.HistorySystem, map[string]string{
		"recommendation_id": r.ID,
		"module":            r.Module,
	})
}

// Resolve applies a user decision to an active recommendation: terminal
// status transition, quota debit, ledger append, history append. Exactly
// one of N concurrent calls for the same id succeeds; the rest get
// ErrAlreadyResolved.
//
// A quota miss is informational only: a decision the user already made is
// never blocked, it just stops counting once the window's allowance is
// spent.
func (e *Engine) Resolve(id string, decision Decision, now time.Time) (*store.Recommendation, error) {
	if decision != DecisionAccepted && decision != DecisionDeclined {
		return nil, fmt.Errorf("invalid decision %q", decision)
	}

	rec, err := e.recs.GetRecommendation(id)
	if err != nil {
		return nil, fmt.Errorf("load recommendation: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	if rec.Status != store.StatusActive {
		return nil, ErrAlreadyResolved
	}

	nowMs := now.UnixMilli()
	if rec.ExpiresAt <= nowMs {
		// Logically expired: the lazy sweep just hasn't reached it yet.
		e.expire(*rec, nowMs)
		return nil, ErrAlreadyResolved
	}

	ok, err := e.recs.ResolveRecommendation(id, string(decision), nowMs)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyResolved
	}
	rec.Status = string(decision)
	rec.ResolvedAt = &nowMs

	if rec.CountsAgainstLimit {
		if _, err := e.limiter.RefreshIfDue(now); err != nil {
			log.Printf("resolve %s: refresh check: %v", id, err)
		}
		consumed, err := e.limiter.TryConsume(now)
		if err != nil {
			log.Printf("resolve %s: consume quota: %v", id, err)
		} else if !consumed {
			log.Printf("resolve %s: quota exhausted, decision not counted", id)
		}
	}

	// Ledger append is a primary-path write: the status transition above
	// stands either way, but the caller must hear about a short ledger.
	entry := &store.Decision{
		ID:               uuid.NewString(),
		RecommendationID: id,
		Decision:         string(decision),
		DecidedAt:        nowMs,
	}
	if err := e.ledger.AppendDecision(entry); err != nil {
		return nil, fmt.Errorf("append decision: %w", err)
	}

	verb := "Accepted"
	if decision == DecisionDeclined {
		verb = "Declined"
	}
	e.recordHistory(fmt.Sprintf("%s suggestion: %q", verb, rec.Title), store.HistoryRecommendation, map[string]string{
		"recommendation_id": id,
		"module":            rec.Module,
		"decision":          string(decision),
	})

	return rec, nil
}

// Generate runs one suggestion pass across all registered producers and
// persists the validated candidates. Concurrent callers share a single
// in-flight pass: whoever arrives while one is running waits for and
// reuses its result instead of triggering a second.
func (e *Engine) Generate(ctx context.Context, now time.Time) (int, error) {
	v, err, _ := e.gen.Do("generate", func() (any, error) {
		return e.generatePass(ctx, now)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// generatePass iterates the producer registry. A failing producer is
// logged and skipped so one module cannot starve the others; a failing
// recommendation save aborts the pass.
func (e *Engine) generatePass(ctx context.Context, now time.Time) (int, error) {
	nowMs := now.UnixMilli()
	created := 0

	for _, p := range e.producers {
		candidates, err := p.Produce(ctx, now)
		if err != nil {
			log.Printf("generate: producer %s: %v", p.Module(), err)
			continue
		}

		for _, c := range candidates {
			vc, err := suggest.Validate(c)
			if err != nil {
				log.Printf("generate: rejecting %s candidate: %v", p.Module(), err)
				continue
			}

			rec := &store.Recommendation{
				ID:                 uuid.NewString(),
				Module:             vc.Module,
				Title:              vc.Title,
				Summary:            vc.Summary,
				Why:                vc.Why,
				Confidence:         vc.Confidence,
				Evidence:           vc.Evidence,
				Status:             store.StatusActive,
				CountsAgainstLimit: vc.CountsAgainstLimit,
				CreatedAt:          nowMs,
				ExpiresAt:          nowMs + e.ttl.Milliseconds(),
			}
			if err := e.recs.CreateRecommendation(rec); err != nil {
				return created, fmt.Errorf("persist %s candidate: %w", p.Module(), err)
			}
			created++
		}
	}

	if created > 0 {
		e.recordHistory(fmt.Sprintf("Generated %d new suggestions", created), store.HistorySystem, nil)
	}
	return created, nil
}

// MaybeAutoReplenish triggers a generation pass when the active pool
// (post lazy expiry) has dropped below minThreshold. Returns the number of
// recommendations created, zero when the pool is healthy.
func (e *Engine) MaybeAutoReplenish(ctx context.Context, now time.Time, minThreshold int) (int, error) {
	active, err := e.GetActive(now)
	if err != nil {
		return 0, err
	}
	if len(active) >= minThreshold {
		return 0, nil
	}
	return e.Generate(ctx, now)
}

// MarkOpened records that the user viewed a recommendation's detail. The
// field is set once and never cleared; re-opens are no-ops. Callers treat
// this as fire-and-forget; navigation never waits on the outcome.
func (e *Engine) MarkOpened(id string, now time.Time) error {
	ok, err := e.recs.MarkRecommendationOpened(id, now.UnixMilli())
	if err != nil {
		return fmt.Errorf("mark opened: %w", err)
	}
	if ok {
		return nil
	}

	// Either already opened or missing; only the latter is an error.
	rec, err := e.recs.GetRecommendation(id)
	if err != nil {
		return fmt.Errorf("mark opened: %w", err)
	}
	if rec == nil {
		return ErrNotFound
	}
	return nil
}

// recordHistory appends an activity log entry, best-effort. History is a
// secondary effect of an already-committed transition; a write failure is
// logged and swallowed.
func (e *Engine) recordHistory(message, entryType string, metadata map[string]string) {
	if e.history == nil {
		return
	}
	if err := e.history.AppendHistory(message, entryType, metadata); err != nil {
		log.Printf("history: %v", err)
	}
}
