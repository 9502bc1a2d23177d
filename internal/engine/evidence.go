package engine

import (
	"fmt"
	"time"
)

// evidencePending is shown while a recommendation has no backing signals.
const evidencePending = "No signals yet"

// SummarizeEvidence renders the evidence line for a recommendation card:
// signal count plus the most recent signal date. Pure formatting; the
// timestamps are an unordered set and only count and max() matter.
func SummarizeEvidence(stamps []int64) string {
	if len(stamps) == 0 {
		return evidencePending
	}

	latest := stamps[0]
	for _, ts := range stamps[1:] {
		if ts > latest {
			latest = ts
		}
	}

	noun := "signals"
	if len(stamps) == 1 {
		noun = "signal"
	}
	return fmt.Sprintf("%d %s • Latest %s", len(stamps), noun,
		time.UnixMilli(latest).Format("Jan 2, 2006"))
}
