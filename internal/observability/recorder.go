package observability

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// DefaultPreviewLimit is the number of runes of extracted text kept in diagnostics
const DefaultPreviewLimit = 2000

// Stage identifies which pipeline stage produced a diagnostics value
type Stage string

// Pipeline stages
const (
	StageExtract Stage = "extract"
	StageAnalyze Stage = "analyze"
	StageReport  Stage = "report"
)

// Preview truncates text to limit runes, appending a marker with the number of
// runes dropped. A limit <= 0 uses DefaultPreviewLimit.
func Preview(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	n := utf8.RuneCountInString(text)
	if n <= limit {
		return text
	}
	runes := []rune(text)
	return fmt.Sprintf("%s\n... [truncated %d chars]", string(runes[:limit]), n-limit)
}

// Recorder keeps the latest diagnostics across pipeline runs. Each stage
// overwrites only the fields it owns; the last writer wins.
type Recorder struct {
	mu     sync.Mutex
	latest types.Diagnostics
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Apply merges the fields owned by stage from d into the latest snapshot
func (r *Recorder) Apply(stage Stage, d types.Diagnostics) {
	d = d.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	switch stage {
	case StageExtract:
		r.latest.RawTextPreview = d.RawTextPreview
		r.latest.Durations.ExtractMS = d.Durations.ExtractMS
		r.latest.Timestamps.Start = d.Timestamps.Start
		r.latest.Timestamps.ExtractedAt = d.Timestamps.ExtractedAt
	case StageAnalyze:
		r.latest.MatchedRules = d.MatchedRules
		r.latest.Durations.AnalyzeMS = d.Durations.AnalyzeMS
		r.latest.Timestamps.AnalyzedAt = d.Timestamps.AnalyzedAt
		if r.latest.Timestamps.Start.IsZero() {
			r.latest.Timestamps.Start = d.Timestamps.Start
		}
	case StageReport:
		r.latest.Durations.ReportMS = d.Durations.ReportMS
		r.latest.Timestamps.ReportedAt = d.Timestamps.ReportedAt
	default:
		return
	}
	r.latest.Error = d.Error
}

// Snapshot returns a deep copy of the latest diagnostics
func (r *Recorder) Snapshot() types.Diagnostics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest.Clone()
}

// Reset clears the recorded diagnostics
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = types.Diagnostics{}
}
