// internal/database/selection.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SelectionRecord is one finalized group decision: which lobby settled on
// which restaurant, and the search context it came from.
type SelectionRecord struct {
	ID        int64                  `json:"id"`
	LobbyID   string                 `json:"lobby_id"`
	Location  string                 `json:"location"`
	Mood      string                 `json:"mood"`
	Selection map[string]interface{} `json:"selection"`
	DecidedAt time.Time              `json:"decided_at"`
}

// RecordSelection inserts a finalized decision. The selection payload is
// stored as jsonb, untouched.
func RecordSelection(ctx context.Context, pool *pgxpool.Pool, rec SelectionRecord) error {
	payload, err := json.Marshal(rec.Selection)
	if err != nil {
		return fmt.Errorf("failed to marshal selection payload: %w", err)
	}

	q := `
		INSERT INTO selections (lobby_id, location, mood, selection, decided_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := pool.Exec(ctx, q, rec.LobbyID, rec.Location, rec.Mood, payload, rec.DecidedAt); err != nil {
		return fmt.Errorf("failed to insert selection for lobby %s: %w", rec.LobbyID, err)
	}
	return nil
}

// RecentSelections returns the latest finalized decisions, newest first.
func RecentSelections(ctx context.Context, pool *pgxpool.Pool, limit int) ([]SelectionRecord, error) {
	q := `
		SELECT id, lobby_id, location, mood, selection, decided_at
		FROM selections
		ORDER BY decided_at DESC
		LIMIT $1
	`
	rows, err := pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent selections: %w", err)
	}
	defer rows.Close()

	var records []SelectionRecord
	for rows.Next() {
		var rec SelectionRecord
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.LobbyID, &rec.Location, &rec.Mood, &payload, &rec.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan selection row: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Selection); err != nil {
			return nil, fmt.Errorf("failed to unmarshal selection payload: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
