package ingestion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinTextRuns(t *testing.T) {
	tests := []struct {
		name     string
		runs     []pdf.Text
		expected string
	}{
		{
			name:     "no runs",
			runs:     nil,
			expected: "",
		},
		{
			name: "adjacent glyphs concatenate",
			runs: []pdf.Text{
				{X: 0, Y: 700, W: 5, FontSize: 10, S: "H"},
				{X: 5, Y: 700, W: 5, FontSize: 10, S: "i"},
			},
			expected: "Hi",
		},
		{
			name: "horizontal gap inserts a space",
			runs: []pdf.Text{
				{X: 0, Y: 700, W: 5, FontSize: 10, S: "Go"},
				{X: 20, Y: 700, W: 5, FontSize: 10, S: "Rust"},
			},
			expected: "Go Rust",
		},
		{
			name: "baseline change starts a new line",
			runs: []pdf.Text{
				{X: 0, Y: 700, W: 5, FontSize: 10, S: "Skills"},
				{X: 0, Y: 680, W: 5, FontSize: 10, S: "Go"},
			},
			expected: "Skills\nGo",
		},
		{
			name: "empty runs are skipped",
			runs: []pdf.Text{
				{X: 0, Y: 700, W: 5, FontSize: 10, S: "A"},
				{X: 5, Y: 600, W: 0, FontSize: 10, S: ""},
				{X: 5, Y: 700, W: 5, FontSize: 10, S: "B"},
			},
			expected: "AB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, joinTextRuns(tt.runs))
		})
	}
}

func TestLedongthucPDF_RejectsGarbage(t *testing.T) {
	_, err := LedongthucPDF{}.Open([]byte("definitely not a pdf"))
	assert.Error(t, err)
}

func TestLedongthucPDF_ReadsGeneratedDocument(t *testing.T) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(false)
	doc.AddPage()
	doc.SetFont("Helvetica", "", 12)
	doc.Cell(40, 10, "Hello World")

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))

	src, err := LedongthucPDF{}.Open(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, 1, src.NumPages())

	text, err := src.PageText(1)
	require.NoError(t, err)
	assert.Contains(t, strings.ReplaceAll(text, " ", ""), "HelloWorld")

	ops, err := src.PageOperators(1)
	require.NoError(t, err)
	assert.Contains(t, ops, "Tj")
}
