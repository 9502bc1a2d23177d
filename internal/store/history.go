package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// History entry types. "recommendation" covers decision outcomes; "system"
// covers generation, expiry, and quota events. The remaining types belong
// to other organizer surfaces that share the activity log.
const (
	HistoryRecommendation = "recommendation"
	HistorySystem         = "system"
	HistoryArchived       = "archived"
	HistoryBanked         = "banked"
	HistoryDeprecated     = "deprecated"
)

// HistoryEntry is a single human-readable activity log line.
type HistoryEntry struct {
	ID        int64
	Message   string
	Type      string
	Metadata  map[string]string
	CreatedAt int64
}

// AppendHistory writes an activity log entry. Metadata may be nil.
func (db *DB) AppendHistory(message, entryType string, metadata map[string]string) error {
	var meta any
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encode history metadata: %w", err)
		}
		meta = string(encoded)
	}

	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO history_log (message, type, metadata, created_at)
		VALUES (?, ?, ?, ?)
	`, message, entryType, meta, now)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// RecentHistory returns the most recent activity log entries.
func (db *DB) RecentHistory(limit int) ([]HistoryEntry, error) {
	rows, err := db.Query(`
		SELECT id, message, type, metadata, created_at
		FROM history_log ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var meta *string
		if err := rows.Scan(&e.ID, &e.Message, &e.Type, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if meta != nil && *meta != "" {
			if err := json.Unmarshal([]byte(*meta), &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode history metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
