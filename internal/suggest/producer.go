// Package suggest defines the per-module suggestion producers the engine
// iterates during generation, plus the validation applied to their output
// before anything is persisted.
package suggest

import (
	"context"
	"time"
)

// Candidate is a proposed recommendation before the engine assigns it an
// id, status, and validity window. Evidence timestamps are unix millis.
type Candidate struct {
	Module             string  `json:"module"`
	Title              string  `json:"title"`
	Summary            string  `json:"summary"`
	Why                string  `json:"why"`
	Confidence         string  `json:"confidence"`
	Evidence           []int64 `json:"evidence"`
	CountsAgainstLimit bool    `json:"-"`
}

// Producer generates recommendation candidates for one organizer module.
// Implementations must be safe to call repeatedly; the engine serializes
// generation passes but a producer may be retried after failures.
type Producer interface {
	Module() string
	Produce(ctx context.Context, now time.Time) ([]Candidate, error)
}
