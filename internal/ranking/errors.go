package ranking

import "fmt"

// RuleSetError represents a rule set that could not be loaded
type RuleSetError struct {
	Message string
	Cause   error
}

func (e *RuleSetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("rule set error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("rule set error: %s", e.Message)
}

func (e *RuleSetError) Unwrap() error {
	return e.Cause
}
