package store

import (
	"database/sql"
	"fmt"
)

// Limits is the singleton AI decision quota row. Used counts decisions made
// in the current window; it resets to 0 when the window rolls over.
type Limits struct {
	Total         int
	Used          int
	NextRefreshAt int64
}

// GetLimits returns the quota row, or nil if it has never been initialized.
func (db *DB) GetLimits() (*Limits, error) {
	var l Limits
	err := db.QueryRow(`
		SELECT total, used, next_refresh_at FROM ai_limits WHERE id = 1
	`).Scan(&l.Total, &l.Used, &l.NextRefreshAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get limits: %w", err)
	}
	return &l, nil
}

// InitLimits creates the quota row on first use. If the row already exists
// it is returned unchanged.
func (db *DB) InitLimits(total int, nextRefreshAt int64) (*Limits, error) {
	_, err := db.Exec(`
		INSERT INTO ai_limits (id, total, used, next_refresh_at)
		VALUES (1, ?, 0, ?)
		ON CONFLICT(id) DO NOTHING
	`, total, nextRefreshAt)
	if err != nil {
		return nil, fmt.Errorf("init limits: %w", err)
	}
	return db.GetLimits()
}

// ConsumeUnit increments used by one unless the quota is exhausted.
// The conditional update is a single statement, so two concurrent callers
// racing for the last unit cannot both succeed.
func (db *DB) ConsumeUnit() (bool, error) {
	result, err := db.Exec(`
		UPDATE ai_limits SET used = used + 1
		WHERE id = 1 AND used < total
	`)
	if err != nil {
		return false, fmt.Errorf("consume unit: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

// ResetWindow zeroes used and advances the refresh timestamp, but only if
// the stored window has actually elapsed. Redundant callers observing the
// same crossing are no-ops because the first reset moves next_refresh_at
// into the future.
func (db *DB) ResetWindow(now, nextRefreshAt int64) (bool, error) {
	result, err := db.Exec(`
		UPDATE ai_limits SET used = 0, next_refresh_at = ?
		WHERE id = 1 AND next_refresh_at <= ?
	`, nextRefreshAt, now)
	if err != nil {
		return false, fmt.Errorf("reset window: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

// SetLimitTotal updates the per-window allowance (config change), clamping
// used so the row invariant holds.
func (db *DB) SetLimitTotal(total int) error {
	_, err := db.Exec(`
		UPDATE ai_limits SET total = ?, used = MIN(used, ?) WHERE id = 1
	`, total, total)
	if err != nil {
		return fmt.Errorf("set limit total: %w", err)
	}
	return nil
}
