package ingestion

import "fmt"

// CapabilityUnavailableError is returned when no backend is configured for a
// format family. It means "not installed", as opposed to malformed input.
type CapabilityUnavailableError struct {
	Family Family
}

func (e *CapabilityUnavailableError) Error() string {
	return fmt.Sprintf("capability unavailable: no %s extraction provider configured", e.Family)
}

// ExtractionError is returned when no strategy produced usable text
type ExtractionError struct {
	Family  Family
	Path    string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	prefix := fmt.Sprintf("extraction error (%s)", e.Family)
	if e.Path != "" {
		prefix = fmt.Sprintf("%s for %s", prefix, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
