package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hollis/nudge/internal/engine"
	"github.com/hollis/nudge/internal/store"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	limiter := engine.NewLimiter(db, 10, 24*time.Hour)
	eng := engine.New(db, db, db, limiter, 72*time.Hour)
	return New(db, eng, "test-version", 0), db
}

func seedActive(t *testing.T, db *store.DB, id string, ttl time.Duration) {
	t.Helper()
	now := time.Now()
	err := db.CreateRecommendation(&store.Recommendation{
		ID:                 id,
		Module:             "planner",
		Title:              "Review tomorrow's schedule",
		Summary:            "Three overlapping events",
		Why:                "Your calendar has a conflict window",
		Confidence:         "high",
		Evidence:           []int64{now.Add(-time.Hour).UnixMilli()},
		Status:             store.StatusActive,
		CountsAgainstLimit: true,
		CreatedAt:          now.UnixMilli(),
		ExpiresAt:          now.Add(ttl).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
}
