package llm

import "fmt"

// SuggestionPrompt generates the prompt for producing recommendation
// candidates for one organizer module. snapshot is a plain-text digest of
// the module's current data (stale contacts, upcoming deadlines, budget
// anomalies, and so on) assembled by the module's context source.
func SuggestionPrompt(module, snapshot string, max int) string {
	return fmt.Sprintf(`You are the suggestion engine of a personal organizer app. Review the
current state of the "%s" module and propose actions the user might want
to take.

MODULE STATE:
%s

Rules:
- Propose at most %d suggestions, only ones genuinely worth surfacing
- title is a short imperative phrase (e.g. "Reconnect with Dana")
- summary is one sentence of what the suggestion does
- why explains the reasoning from the module state, in one or two sentences
- confidence reflects how strongly the state supports the suggestion
- evidence lists the unix-millisecond timestamps of the state entries the
  suggestion is based on, oldest to newest
- Return ONLY a JSON array, no other text

Return a JSON array:
[{
  "title": "short imperative phrase",
  "summary": "one sentence",
  "why": "reasoning from the module state",
  "confidence": "low|medium|high",
  "evidence": [1712000000000]
}]

If nothing is worth suggesting, return: []`, module, snapshot, max)
}
