package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/hollis/nudge/internal/engine"
	"github.com/hollis/nudge/internal/store"
)

// recView is the wire shape of a recommendation.
type recView struct {
	ID                 string `json:"id"`
	Module             string `json:"module"`
	Title              string `json:"title"`
	Summary            string `json:"summary"`
	Why                string `json:"why"`
	Confidence         string `json:"confidence"`
	EvidenceSummary    string `json:"evidence_summary"`
	Status             string `json:"status"`
	CountsAgainstLimit bool   `json:"counts_against_limit"`
	OpenedAt           *int64 `json:"opened_at,omitempty"`
	CreatedAt          int64  `json:"created_at"`
	ExpiresAt          int64  `json:"expires_at"`
}

func viewOf(r *store.Recommendation) recView {
	return recView{
		ID:                 r.ID,
		Module:             r.Module,
		Title:              r.Title,
		Summary:            r.Summary,
		Why:                r.Why,
		Confidence:         r.Confidence,
		EvidenceSummary:    engine.SummarizeEvidence(r.Evidence),
		Status:             r.Status,
		CountsAgainstLimit: r.CountsAgainstLimit,
		OpenedAt:           r.OpenedAt,
		CreatedAt:          r.CreatedAt,
		ExpiresAt:          r.ExpiresAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleActive returns the active list and, per the replenishment policy,
// kicks off background generation when the pool has dropped below the
// floor. The replenish pass is not request-scoped: it completes and
// persists even if the client goes away.
func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	active, err := s.engine.GetActive(now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]recView, len(active))
	for i := range active {
		views[i] = viewOf(&active[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": views,
		"count":           len(views),
	})

	go func() {
		if n, err := s.engine.MaybeAutoReplenish(context.Background(), now, s.replenishFloor); err != nil {
			log.Printf("auto-replenish: %v", err)
		} else if n > 0 {
			log.Printf("auto-replenish: created %d suggestions", n)
		}
	}()
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	s.resolve(w, id, engine.Decision(req.Decision))
}

// handleGesture runs the server-side decision controller: the shell
// forwards the end-of-gesture displacement and surface extent, and the
// threshold mapping decides whether anything resolves.
func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Displacement float64 `json:"displacement"`
		Extent       float64 `json:"extent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Extent <= 0 {
		writeError(w, http.StatusBadRequest, "extent must be positive")
		return
	}

	decision, ok := engine.GestureDecision(req.Displacement, req.Extent)
	if !ok {
		// Below threshold: card returns to rest, nothing resolves.
		writeJSON(w, http.StatusOK, map[string]string{"outcome": "rest"})
		return
	}
	s.resolve(w, id, decision)
}

func (s *Server) resolve(w http.ResponseWriter, id string, decision engine.Decision) {
	rec, err := s.engine.Resolve(id, decision, time.Now())
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, "recommendation not found")
	case errors.Is(err, engine.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "recommendation already resolved")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"outcome":        "resolved",
			"recommendation": viewOf(rec),
		})
	}
}

// handleOpen marks the detail view as opened. Fire-and-forget from the
// shell's perspective: navigation has already happened by the time this
// request lands, so everything but a bad id collapses to 204.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.engine.MarkOpened(id, time.Now()); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recommendation not found")
			return
		}
		log.Printf("mark opened %s: %v", id, err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGenerate is the manual refresh entry point.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	created, err := s.engine.Generate(r.Context(), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	lim, err := s.engine.Limiter().Snapshot(now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	remaining := lim.Total - lim.Used
	if remaining < 0 {
		remaining = 0
	}
	next := time.UnixMilli(lim.NextRefreshAt)
	writeJSON(w, http.StatusOK, map[string]any{
		"total":           lim.Total,
		"used":            lim.Used,
		"remaining":       remaining,
		"next_refresh_at": lim.NextRefreshAt,
		"refreshes":       humanize.Time(next),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := s.db.RecentHistory(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type entryView struct {
		Message   string            `json:"message"`
		Type      string            `json:"type"`
		Metadata  map[string]string `json:"metadata,omitempty"`
		CreatedAt int64             `json:"created_at"`
	}
	views := make([]entryView, len(entries))
	for i, e := range entries {
		views[i] = entryView{Message: e.Message, Type: e.Type, Metadata: e.Metadata, CreatedAt: e.CreatedAt}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": views})
}

func (s *Server) handleDecisionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.DecisionStatsByModule()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	statuses, err := s.db.RecommendationStatusCounts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type statView struct {
		Module   string `json:"module"`
		Accepted int    `json:"accepted"`
		Declined int    `json:"declined"`
	}
	views := make([]statView, len(stats))
	for i, st := range stats {
		views[i] = statView{Module: st.Module, Accepted: st.Accepted, Declined: st.Declined}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"modules":  views,
		"statuses": statuses,
	})
}
