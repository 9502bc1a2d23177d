package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hollis/nudge/internal/engine"
	"github.com/hollis/nudge/internal/store"
)

// Server is the nudge HTTP API server consumed by the organizer shell.
type Server struct {
	db             *store.DB
	engine         *engine.Engine
	router         chi.Router
	version        string
	started        time.Time
	replenishFloor int
}

// New creates a new Server. replenishFloor is the active-pool size below
// which a read of the active list triggers background generation.
func New(db *store.DB, eng *engine.Engine, version string, replenishFloor int) *Server {
	s := &Server{
		db:             db,
		engine:         eng,
		version:        version,
		started:        time.Now(),
		replenishFloor: replenishFloor,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/recommendations", s.handleActive)
		r.Post("/recommendations/{id}/resolve", s.handleResolve)
		r.Post("/recommendations/{id}/gesture", s.handleGesture)
		r.Post("/recommendations/{id}/open", s.handleOpen)
		r.Post("/generate", s.handleGenerate)

		r.Get("/limits", s.handleLimits)
		r.Get("/history", s.handleHistory)
		r.Get("/decisions/stats", s.handleDecisionStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}
