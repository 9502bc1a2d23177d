package suggest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hollis/nudge/internal/llm"
)

func staticSource(text string) ContextSource {
	return ContextFunc(func(ctx context.Context, now time.Time) (string, error) {
		return text, nil
	})
}

func TestLLMProducerParsesCandidates(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: `[
		{"title": "Reconnect with Dana", "summary": "Three months silent", "why": "Last call in May", "confidence": "medium", "evidence": [1712000000000]},
		{"title": "Archive stale contacts", "summary": "Twelve untouched entries", "why": "No activity this year", "confidence": "low", "evidence": []}
	]`}}

	p := NewLLMProducer("contacts", mock, staticSource("12 contacts untouched since January"))
	candidates, err := p.Produce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates len = %d, want 2", len(candidates))
	}
	for _, c := range candidates {
		if c.Module != "contacts" {
			t.Errorf("Module = %q, want contacts", c.Module)
		}
		if !c.CountsAgainstLimit {
			t.Error("CountsAgainstLimit = false, want true for LLM output")
		}
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("llm calls = %d, want 1", len(mock.Calls))
	}
	if !strings.Contains(mock.Calls[0], "12 contacts untouched") {
		t.Error("prompt missing module snapshot")
	}
}

func TestLLMProducerStripsCodeFences(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "```json\n[{\"title\": \"Block focus time\", \"confidence\": \"high\"}]\n```"}}

	p := NewLLMProducer("planner", mock, staticSource("busy week"))
	candidates, err := p.Produce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Block focus time" {
		t.Errorf("candidates = %+v", candidates)
	}
}

func TestLLMProducerEmptySnapshotShortCircuits(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "[]"}}

	p := NewLLMProducer("budget", mock, staticSource("   "))
	candidates, err := p.Produce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if candidates != nil {
		t.Errorf("candidates = %v, want nil", candidates)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("llm called %d times on empty snapshot, want 0", len(mock.Calls))
	}
}

func TestLLMProducerCapsCandidates(t *testing.T) {
	var items []string
	for i := 0; i < maxPerModule+3; i++ {
		items = append(items, fmt.Sprintf(`{"title": "Suggestion %d", "confidence": "low"}`, i))
	}
	mock := &llm.MockClient{Response: &llm.Response{Content: "[" + strings.Join(items, ",") + "]"}}

	p := NewLLMProducer("planner", mock, staticSource("busy week"))
	candidates, err := p.Produce(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Produce: %v", err)
	}
	if len(candidates) != maxPerModule {
		t.Errorf("candidates len = %d, want cap %d", len(candidates), maxPerModule)
	}
}

func TestLLMProducerGarbageResponse(t *testing.T) {
	mock := &llm.MockClient{Response: &llm.Response{Content: "I couldn't think of anything today."}}

	p := NewLLMProducer("planner", mock, staticSource("busy week"))
	if _, err := p.Produce(context.Background(), time.Now()); err == nil {
		t.Error("Produce accepted non-JSON response")
	}
}

func TestParseCandidatesExtractsEmbeddedArray(t *testing.T) {
	candidates, err := parseCandidates(`Here you go: [{"title": "A", "confidence": "low"}] hope that helps`)
	if err != nil {
		t.Fatalf("parseCandidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "A" {
		t.Errorf("candidates = %+v", candidates)
	}
}
