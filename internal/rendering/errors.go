// Package rendering renders analysis results into printable PDF reports.
package rendering

import "fmt"

// FontError represents a report font that could not be loaded
type FontError struct {
	Path  string
	Cause error
}

func (e *FontError) Error() string {
	return fmt.Sprintf("font not available: %s: %v", e.Path, e.Cause)
}

func (e *FontError) Unwrap() error {
	return e.Cause
}

// ReportError represents a report generation failure
type ReportError struct {
	Message string
	Cause   error
}

func (e *ReportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("report error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("report error: %s", e.Message)
}

func (e *ReportError) Unwrap() error {
	return e.Cause
}
