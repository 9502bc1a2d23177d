package suggest

import (
	"fmt"
	"strings"
	"unicode"
)

// Content size limits for producer output.
const (
	maxTitleChars   = 120
	maxSummaryChars = 400
	maxWhyChars     = 1200
)

// validConfidences defines the allowed confidence levels.
var validConfidences = map[string]bool{
	"low": true, "medium": true, "high": true,
}

// Validate checks a candidate for obvious garbage. Returns a sanitized
// copy and an error if the candidate should be rejected.
func Validate(c Candidate) (Candidate, error) {
	if c.Module == "" {
		return c, fmt.Errorf("missing module")
	}

	c.Confidence = strings.ToLower(strings.TrimSpace(c.Confidence))
	if !validConfidences[c.Confidence] {
		return c, fmt.Errorf("invalid confidence %q", c.Confidence)
	}

	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return c, fmt.Errorf("empty title")
	}

	c.Summary = strings.TrimSpace(c.Summary)
	c.Why = strings.TrimSpace(c.Why)

	// Size ceilings: truncate rather than reject
	if len(c.Title) > maxTitleChars {
		c.Title = truncateClean(c.Title, maxTitleChars)
	}
	if len(c.Summary) > maxSummaryChars {
		c.Summary = truncateClean(c.Summary, maxSummaryChars)
	}
	if len(c.Why) > maxWhyChars {
		c.Why = truncateClean(c.Why, maxWhyChars)
	}

	// Drop nonsense evidence stamps rather than failing the candidate
	evidence := c.Evidence[:0:0]
	for _, ts := range c.Evidence {
		if ts > 0 {
			evidence = append(evidence, ts)
		}
	}
	c.Evidence = evidence

	return c, nil
}

// truncateClean truncates a string to maxLen, cutting at the last word
// boundary to avoid mid-word breaks.
func truncateClean(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(rune(cut[i])) {
			return strings.TrimRightFunc(cut[:i], unicode.IsSpace)
		}
	}
	return cut
}
