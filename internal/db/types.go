package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-analyzer/internal/types"
)

// DefaultListLimit bounds ListAnalyses when no positive limit is given
const DefaultListLimit = 50

// MaxListLimit is the largest page ListAnalyses returns
const MaxListLimit = 500

// AnalysisInput is what SaveAnalysis stores
type AnalysisInput struct {
	Filename     string
	Family       string
	ContentHash  string
	RulesVersion string
	Result       *types.AnalysisResult
	Diagnostics  *types.Diagnostics
}

// Analysis is a stored analysis record
type Analysis struct {
	ID           uuid.UUID            `json:"id"`
	Filename     string               `json:"filename"`
	Family       string               `json:"family"`
	ContentHash  string               `json:"content_hash"`
	RulesVersion string               `json:"rules_version"`
	Score        int                  `json:"score"`
	Result       types.AnalysisResult `json:"result"`
	Diagnostics  *types.Diagnostics   `json:"diagnostics,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// AnalysisSummary is a row of ListAnalyses
type AnalysisSummary struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	RulesVersion string    `json:"rules_version"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
}

// normalizeLimit maps a requested page size into [1, MaxListLimit]
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
