package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// Recommendation lifecycle states. A recommendation leaves "active" exactly
// once and never returns to it.
const (
	StatusActive   = "active"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// Recommendation is a single AI-generated suggestion awaiting a user decision.
// Timestamps are unix milliseconds. Evidence holds the timestamps of the
// signals backing the suggestion; only count and max() are ever consumed.
type Recommendation struct {
	ID                 string
	Module             string
	Title              string
	Summary            string
	Why                string
	Confidence         string // "low", "medium", "high"
	Evidence           []int64
	Status             string
	CountsAgainstLimit bool
	OpenedAt           *int64
	CreatedAt          int64
	ExpiresAt          int64
	ResolvedAt         *int64
}

const recommendationCols = `id, module, title, summary, why, confidence, evidence,
	status, counts_against_limit, opened_at, created_at, expires_at, resolved_at`

func scanRecommendation(row interface{ Scan(...any) error }) (*Recommendation, error) {
	var r Recommendation
	var evidence string
	var counts int
	err := row.Scan(&r.ID, &r.Module, &r.Title, &r.Summary, &r.Why, &r.Confidence,
		&evidence, &r.Status, &counts, &r.OpenedAt, &r.CreatedAt, &r.ExpiresAt, &r.ResolvedAt)
	if err != nil {
		return nil, err
	}
	r.CountsAgainstLimit = counts != 0
	if evidence != "" {
		if err := json.Unmarshal([]byte(evidence), &r.Evidence); err != nil {
			return nil, fmt.Errorf("decode evidence for %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

// CreateRecommendation inserts a new recommendation row.
func (db *DB) CreateRecommendation(r *Recommendation) error {
	evidence, err := json.Marshal(r.Evidence)
	if err != nil {
		return fmt.Errorf("encode evidence: %w", err)
	}
	counts := 0
	if r.CountsAgainstLimit {
		counts = 1
	}

	_, err = db.Exec(`
		INSERT INTO recommendations (id, module, title, summary, why, confidence, evidence,
			status, counts_against_limit, opened_at, created_at, expires_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Module, r.Title, r.Summary, r.Why, r.Confidence, string(evidence),
		r.Status, counts, r.OpenedAt, r.CreatedAt, r.ExpiresAt, r.ResolvedAt)
	if err != nil {
		return fmt.Errorf("create recommendation: %w", err)
	}
	return nil
}

// GetRecommendation returns a recommendation by id, or nil if not found.
func (db *DB) GetRecommendation(id string) (*Recommendation, error) {
	row := db.QueryRow(`SELECT `+recommendationCols+` FROM recommendations WHERE id = ?`, id)
	r, err := scanRecommendation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	return r, nil
}

// ListRecommendationsByStatus returns all recommendations with the given
// status, oldest first.
func (db *DB) ListRecommendationsByStatus(status string) ([]Recommendation, error) {
	rows, err := db.Query(`
		SELECT `+recommendationCols+` FROM recommendations
		WHERE status = ? ORDER BY created_at
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, *r)
	}
	return recs, rows.Err()
}

// ListAllRecommendations returns every recommendation regardless of status,
// newest first. Used for statistics.
func (db *DB) ListAllRecommendations() ([]Recommendation, error) {
	rows, err := db.Query(`
		SELECT ` + recommendationCols + ` FROM recommendations ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		r, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, *r)
	}
	return recs, rows.Err()
}

// ResolveRecommendation moves an active recommendation to a terminal status.
// Returns false if the row was not active at the time of the update, which
// makes concurrent resolutions of the same id race-safe: exactly one caller
// observes true.
func (db *DB) ResolveRecommendation(id, status string, now int64) (bool, error) {
	if status != StatusAccepted && status != StatusDeclined && status != StatusExpired {
		return false, fmt.Errorf("invalid terminal status %q", status)
	}

	result, err := db.Exec(`
		UPDATE recommendations SET status = ?, resolved_at = ?
		WHERE id = ? AND status = 'active'
	`, status, now, id)
	if err != nil {
		return false, fmt.Errorf("resolve recommendation: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

// MarkRecommendationOpened sets opened_at if it is not already set.
// Returns false when the row is missing or was already opened.
func (db *DB) MarkRecommendationOpened(id string, now int64) (bool, error) {
	result, err := db.Exec(`
		UPDATE recommendations SET opened_at = ?
		WHERE id = ? AND opened_at IS NULL
	`, now, id)
	if err != nil {
		return false, fmt.Errorf("mark opened: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

// CountRecommendationsByStatus returns how many recommendations hold the
// given status.
func (db *DB) CountRecommendationsByStatus(status string) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM recommendations WHERE status = ?
	`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count recommendations: %w", err)
	}
	return count, nil
}

// RecommendationStatusCounts returns a status → count map across all rows.
func (db *DB) RecommendationStatusCounts() (map[string]int, error) {
	rows, err := db.Query(`SELECT status, COUNT(*) FROM recommendations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
