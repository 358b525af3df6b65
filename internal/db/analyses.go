package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-analyzer/internal/types"
)

// SaveAnalysis stores an analysis result and returns its ID
func (db *DB) SaveAnalysis(ctx context.Context, in AnalysisInput) (uuid.UUID, error) {
	if in.Result == nil {
		return uuid.Nil, fmt.Errorf("failed to save analysis: result is nil")
	}

	resultJSON, err := json.Marshal(in.Result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal analysis result: %w", err)
	}
	var diagJSON []byte
	if in.Diagnostics != nil {
		if diagJSON, err = json.Marshal(in.Diagnostics); err != nil {
			return uuid.Nil, fmt.Errorf("failed to marshal diagnostics: %w", err)
		}
	}

	id := uuid.New()
	_, err = db.pool.Exec(ctx,
		`INSERT INTO analyses (id, filename, family, content_hash, rules_version, score, result, diagnostics)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, in.Filename, in.Family, in.ContentHash, in.RulesVersion, in.Result.Score, resultJSON, diagJSON,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	return id, nil
}

// GetAnalysis retrieves an analysis by ID. It returns nil, nil when not found.
func (db *DB) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	var a Analysis
	var resultJSON, diagJSON []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, filename, family, content_hash, rules_version, score, result, diagnostics, created_at
		 FROM analyses WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Filename, &a.Family, &a.ContentHash, &a.RulesVersion, &a.Score, &resultJSON, &diagJSON, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if err := json.Unmarshal(resultJSON, &a.Result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis result: %w", err)
	}
	if len(diagJSON) > 0 {
		var d types.Diagnostics
		if err := json.Unmarshal(diagJSON, &d); err != nil {
			return nil, fmt.Errorf("failed to decode diagnostics: %w", err)
		}
		a.Diagnostics = &d
	}
	return &a, nil
}

// FindAnalysisByHash returns the newest analysis of the same content under the
// same rules version, or nil when there is none.
func (db *DB) FindAnalysisByHash(ctx context.Context, contentHash, rulesVersion string) (*Analysis, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`SELECT id FROM analyses WHERE content_hash = $1 AND rules_version = $2
		 ORDER BY created_at DESC LIMIT 1`,
		contentHash, rulesVersion,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return db.GetAnalysis(ctx, id)
}

// ListAnalyses retrieves recent analyses, newest first
func (db *DB) ListAnalyses(ctx context.Context, limit int) ([]AnalysisSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, filename, rules_version, score, created_at
		 FROM analyses ORDER BY created_at DESC LIMIT $1`,
		normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisSummary
	for rows.Next() {
		var s AnalysisSummary
		if err := rows.Scan(&s.ID, &s.Filename, &s.RulesVersion, &s.Score, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return out, nil
}

// DeleteAnalysis removes an analysis and reports whether it existed
func (db *DB) DeleteAnalysis(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete analysis: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
