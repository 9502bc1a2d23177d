package store

import (
	"fmt"
)

// Decision outcomes recorded in the ledger.
const (
	DecisionAccepted = "accepted"
	DecisionDeclined = "declined"
)

// Decision is one append-only ledger entry: the outcome of resolving a
// recommendation. Entries are never mutated or deleted.
type Decision struct {
	ID               string
	RecommendationID string
	Decision         string
	DecidedAt        int64
}

// AppendDecision writes a ledger entry. The unique index on
// recommendation_id enforces at most one entry per recommendation.
func (db *DB) AppendDecision(d *Decision) error {
	_, err := db.Exec(`
		INSERT INTO decisions (id, recommendation_id, decision, decided_at)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.RecommendationID, d.Decision, d.DecidedAt)
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

// ListDecisions returns the full ledger, newest first.
func (db *DB) ListDecisions() ([]Decision, error) {
	rows, err := db.Query(`
		SELECT id, recommendation_id, decision, decided_at
		FROM decisions ORDER BY decided_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.RecommendationID, &d.Decision, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// ModuleDecisionStat aggregates ledger outcomes for one organizer module.
type ModuleDecisionStat struct {
	Module   string
	Accepted int
	Declined int
}

// DecisionStatsByModule joins the ledger against recommendations and
// returns accept/decline counts per module. This is the raw material for
// future learning over user preferences.
func (db *DB) DecisionStatsByModule() ([]ModuleDecisionStat, error) {
	rows, err := db.Query(`
		SELECT r.module,
		       SUM(CASE WHEN d.decision = 'accepted' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN d.decision = 'declined' THEN 1 ELSE 0 END)
		FROM decisions d
		JOIN recommendations r ON r.id = d.recommendation_id
		GROUP BY r.module
		ORDER BY r.module
	`)
	if err != nil {
		return nil, fmt.Errorf("decision stats: %w", err)
	}
	defer rows.Close()

	var stats []ModuleDecisionStat
	for rows.Next() {
		var s ModuleDecisionStat
		if err := rows.Scan(&s.Module, &s.Accepted, &s.Declined); err != nil {
			return nil, fmt.Errorf("scan decision stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
