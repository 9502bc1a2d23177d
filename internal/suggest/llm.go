package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hollis/nudge/internal/llm"
)

// maxPerModule caps how many candidates one generation pass may request
// from the model for a single module.
const maxPerModule = 5

// ContextSource supplies the plain-text state digest for one organizer
// module (stale contacts, upcoming deadlines, ...). Implemented by the
// organizer app; the engine never reads module data directly.
type ContextSource interface {
	Snapshot(ctx context.Context, now time.Time) (string, error)
}

// ContextFunc adapts a function to the ContextSource interface.
type ContextFunc func(ctx context.Context, now time.Time) (string, error)

func (f ContextFunc) Snapshot(ctx context.Context, now time.Time) (string, error) {
	return f(ctx, now)
}

// LLMProducer asks a language model for suggestions based on a module
// state snapshot.
type LLMProducer struct {
	module string
	client llm.Client
	source ContextSource
}

// NewLLMProducer creates a producer for the given module.
func NewLLMProducer(module string, client llm.Client, source ContextSource) *LLMProducer {
	return &LLMProducer{module: module, client: client, source: source}
}

func (p *LLMProducer) Module() string { return p.module }

// Produce snapshots the module state, prompts the model, and parses the
// returned candidates. An empty snapshot short-circuits to no candidates.
func (p *LLMProducer) Produce(ctx context.Context, now time.Time) ([]Candidate, error) {
	snapshot, err := p.source.Snapshot(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", p.module, err)
	}
	if strings.TrimSpace(snapshot) == "" {
		return nil, nil
	}

	resp, err := p.client.Complete(ctx, llm.SuggestionPrompt(p.module, snapshot, maxPerModule))
	if err != nil {
		return nil, fmt.Errorf("suggestion llm for %s: %w", p.module, err)
	}

	candidates, err := parseCandidates(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", p.module, err)
	}

	if len(candidates) > maxPerModule {
		candidates = candidates[:maxPerModule]
	}
	for i := range candidates {
		candidates[i].Module = p.module
		candidates[i].CountsAgainstLimit = true
	}
	return candidates, nil
}

// parseCandidates extracts the JSON candidate array from a model response.
func parseCandidates(content string) ([]Candidate, error) {
	content = strings.TrimSpace(content)

	// Strip markdown code fences if present
	if strings.HasPrefix(content, "```") {
		lines := strings.Split(content, "\n")
		// Remove first and last lines (```json and ```)
		if len(lines) > 2 {
			content = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	content = strings.TrimSpace(content)

	// Find the JSON array
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	jsonStr := content[start : end+1]

	var candidates []Candidate
	if err := json.Unmarshal([]byte(jsonStr), &candidates); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}

	return candidates, nil
}
