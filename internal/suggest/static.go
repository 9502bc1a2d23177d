package suggest

import (
	"context"
	"time"
)

// StaticProducer returns a fixed candidate list. A test double, also
// usable for seeding a fresh install with starter suggestions.
type StaticProducer struct {
	Name       string
	Candidates []Candidate
	Err        error
	Produced   int // number of Produce calls
}

func (s *StaticProducer) Module() string { return s.Name }

func (s *StaticProducer) Produce(ctx context.Context, now time.Time) ([]Candidate, error) {
	s.Produced++
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]Candidate, len(s.Candidates))
	copy(out, s.Candidates)
	for i := range out {
		if out[i].Module == "" {
			out[i].Module = s.Name
		}
	}
	return out, s.Err
}
