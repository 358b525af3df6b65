package types

import "time"

// Durations holds per-stage wall-clock timings in milliseconds
type Durations struct {
	ExtractMS float64 `json:"extract_ms"`
	AnalyzeMS float64 `json:"analyze_ms"`
	ReportMS  float64 `json:"report_ms,omitempty"`
}

// Timestamps records when each stage started or finished
type Timestamps struct {
	Start       time.Time  `json:"start"`
	ExtractedAt *time.Time `json:"extracted_at,omitempty"`
	AnalyzedAt  *time.Time `json:"analyzed_at,omitempty"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
}

// Diagnostics captures timing, match detail and the last error of pipeline stages.
// Each stage writes only its own fields; a nil Error means the last stage succeeded.
type Diagnostics struct {
	RawTextPreview string               `json:"raw_text_preview"`
	Durations      Durations            `json:"durations"`
	MatchedRules   map[string]RuleMatch `json:"matched_rules"`
	Error          *string              `json:"error"`
	Timestamps     Timestamps           `json:"timestamps"`
}

// SetError records err as the last error, or clears it when err is nil.
func (d *Diagnostics) SetError(err error) {
	if err == nil {
		d.Error = nil
		return
	}
	msg := err.Error()
	d.Error = &msg
}

// Clone returns a deep copy so callers can never mutate shared state.
func (d Diagnostics) Clone() Diagnostics {
	out := d
	out.MatchedRules = CloneMatchedRules(d.MatchedRules)
	if d.Error != nil {
		msg := *d.Error
		out.Error = &msg
	}
	out.Timestamps.ExtractedAt = cloneTime(d.Timestamps.ExtractedAt)
	out.Timestamps.AnalyzedAt = cloneTime(d.Timestamps.AnalyzedAt)
	out.Timestamps.ReportedAt = cloneTime(d.Timestamps.ReportedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
