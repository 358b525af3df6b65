package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/rendering"
	"github.com/jonathan/resume-analyzer/internal/schemas"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "analysis not found: 42", (&ErrNotFound{Resource: "analysis", ID: "42"}).Error())
	assert.Equal(t, "validation error: file - is required", (&ErrValidation{Field: "file", Message: "is required"}).Error())
	assert.Equal(t, "analysis storage is not configured", (&ErrUnavailable{Feature: "analysis storage"}).Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"ErrNotFound", &ErrNotFound{Resource: "analysis", ID: "x"}, http.StatusNotFound},
		{"ErrValidation", &ErrValidation{Field: "id", Message: "bad"}, http.StatusBadRequest},
		{"schema validation", &schemas.ValidationError{}, http.StatusBadRequest},
		{"ErrUnavailable", &ErrUnavailable{Feature: "db"}, http.StatusServiceUnavailable},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{
			"file too large",
			&ingestion.ExtractionError{Family: ingestion.FamilyPDF, Message: "too big", Cause: ingestion.ErrFileTooLarge},
			http.StatusRequestEntityTooLarge,
		},
		{"capability missing", &ingestion.CapabilityUnavailableError{Family: ingestion.FamilyPDF}, http.StatusUnsupportedMediaType},
		{"extraction failure", &ingestion.ExtractionError{Family: ingestion.FamilyGeneric, Message: "no text"}, http.StatusUnprocessableEntity},
		{"deadline", fmt.Errorf("extract: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"report failure", &rendering.ReportError{Message: "boom"}, http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("lookup: %w", &ErrNotFound{Resource: "a", ID: "b"}), http.StatusNotFound},
		{"unknown", errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
