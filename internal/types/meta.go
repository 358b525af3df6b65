package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ReportMeta carries optional display data for a generated report.
type ReportMeta struct {
	Name     string `json:"name,omitempty" validate:"max=200"`
	Filename string `json:"filename,omitempty" validate:"max=255"`
}

// Validate validates the ReportMeta using the validator.
func (m *ReportMeta) Validate() error {
	validate := validator.New()
	return validate.Struct(m)
}

// DiagnosticsMeta identifies who and what a published diagnostics record belongs to.
type DiagnosticsMeta struct {
	UserID   string `json:"uid,omitempty" validate:"max=128"`
	Filename string `json:"filename,omitempty" validate:"max=255"`
}

// Validate validates the DiagnosticsMeta using the validator.
func (m *DiagnosticsMeta) Validate() error {
	validate := validator.New()
	return validate.Struct(m)
}

// DiagnosticsRecord is the document forwarded to an external diagnostics store.
type DiagnosticsRecord struct {
	ID          uuid.UUID   `json:"id"`
	UserID      *string     `json:"uid"`
	Filename    *string     `json:"filename"`
	Error       *string     `json:"error"`
	Diagnostics Diagnostics `json:"diagnostics"`
	CreatedAt   time.Time   `json:"created_at"`
}

// NewDiagnosticsRecord builds a record from meta and a diagnostics snapshot.
// Empty meta fields are stored as null.
func NewDiagnosticsRecord(meta DiagnosticsMeta, d Diagnostics, now time.Time) DiagnosticsRecord {
	snapshot := d.Clone()
	return DiagnosticsRecord{
		ID:          uuid.New(),
		UserID:      optionalString(meta.UserID),
		Filename:    optionalString(meta.Filename),
		Error:       snapshot.Error,
		Diagnostics: snapshot,
		CreatedAt:   now.UTC(),
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
