package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// InsertDiagnostics stores a diagnostics record under collection. It lets
// Postgres serve as the dev-mode diagnostics store when Mongo is not configured.
func (db *DB) InsertDiagnostics(ctx context.Context, collection string, record types.DiagnosticsRecord) error {
	diagJSON, err := json.Marshal(record.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to marshal diagnostics: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO diagnostics_records (id, collection, uid, filename, error, diagnostics, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, collection, record.UserID, record.Filename, record.Error, diagJSON, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert diagnostics into %s: %w", collection, err)
	}
	return nil
}

// CountDiagnostics returns the number of records stored under collection
func (db *DB) CountDiagnostics(ctx context.Context, collection string) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM diagnostics_records WHERE collection = $1`, collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count diagnostics: %w", err)
	}
	return n, nil
}
