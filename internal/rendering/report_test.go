package rendering

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonathan/resume-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampleResult() *types.AnalysisResult {
	return &types.AnalysisResult{
		Score:           72,
		Strengths:       []string{"Strong skills section with relevant technologies."},
		Weaknesses:      []string{},
		Recommendations: []string{"Add measurable outcomes (e.g., increased X by Y%)."},
		MatchedRules: map[string]types.RuleMatch{
			types.BucketSkills: {Matched: 3, TotalKeywords: 22, MatchedKeywords: []string{"go×3"}},
		},
	}
}

func uncompressed() *Generator {
	return NewGenerator(Options{Compress: false})
}

func TestGenerate_Layout(t *testing.T) {
	out, err := uncompressed().Generate(sampleResult(), types.ReportMeta{Name: "Jane Doe", Filename: "jane.pdf"})
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	body := string(out)
	assert.Contains(t, body, "(Resume Analysis Report)Tj")
	assert.Contains(t, body, "(Candidate: Jane Doe)Tj")
	assert.Contains(t, body, "(Source: jane.pdf)Tj")
	assert.Contains(t, body, "(Score: 72)Tj")
	assert.Contains(t, body, "(Strengths)Tj")
	assert.Contains(t, body, "(Weaknesses)Tj")
	assert.Contains(t, body, "(Recommendations)Tj")
	assert.Contains(t, body, "(- None)Tj", "empty weaknesses get a placeholder")
	assert.Equal(t, 1, strings.Count(body, "(Generated by Resume Analyzer)Tj"))
}

func TestGenerate_UnknownCandidate(t *testing.T) {
	out, err := uncompressed().Generate(sampleResult(), types.ReportMeta{})
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "(Candidate: Unknown)Tj")
	assert.NotContains(t, body, "(Source:")
}

func TestGenerate_DoesNotMutateResult(t *testing.T) {
	result := sampleResult()
	before := result.Clone()

	_, err := uncompressed().Generate(result, types.ReportMeta{Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, before, result)
}

func TestGenerate_PaginatesLongContent(t *testing.T) {
	result := sampleResult()
	for i := 0; i < 150; i++ {
		result.Recommendations = append(result.Recommendations,
			"Include concrete examples where listed skills were applied in experience.")
	}

	doc, err := uncompressed().build(result, types.ReportMeta{})
	require.NoError(t, err)
	assert.Greater(t, doc.PageNo(), 1)

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	assert.Equal(t, doc.PageNo(), strings.Count(buf.String(), "(Generated by Resume Analyzer)Tj"),
		"footer is drawn on every page")
}

func TestGenerate_NonLatinText(t *testing.T) {
	result := sampleResult()
	result.Strengths = append(result.Strengths, "Développeur — 简历")

	out, err := uncompressed().Generate(result, types.ReportMeta{Name: "José Müller"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerate_Errors(t *testing.T) {
	dir := t.TempDir()
	badFont := filepath.Join(dir, "bad.ttf")
	require.NoError(t, os.WriteFile(badFont, []byte("not a font"), 0644))

	tests := []struct {
		name     string
		opts     Options
		result   *types.AnalysisResult
		meta     types.ReportMeta
		wantFont bool
	}{
		{
			name:   "nil result",
			result: nil,
		},
		{
			name:   "name too long",
			result: sampleResult(),
			meta:   types.ReportMeta{Name: strings.Repeat("x", 201)},
		},
		{
			name:     "missing font",
			opts:     Options{FontPath: filepath.Join(dir, "missing.ttf")},
			result:   sampleResult(),
			wantFont: true,
		},
		{
			name:   "unparseable font",
			opts:   Options{FontPath: badFont},
			result: sampleResult(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewGenerator(tt.opts).Generate(tt.result, tt.meta)
			require.Error(t, err)
			assert.Nil(t, out)

			var reportErr *ReportError
			assert.ErrorAs(t, err, &reportErr)
			if tt.wantFont {
				var fontErr *FontError
				assert.ErrorAs(t, err, &fontErr)
			}
		})
	}
}

func TestGenerate_LogsWithReportStage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g := NewGenerator(Options{Logger: zap.New(core)})

	_, err := g.Generate(sampleResult(), types.ReportMeta{})
	require.NoError(t, err)

	entries := logs.FilterMessage("report generated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "REPORT", entries[0].ContextMap()["stage"])
}

func TestScoreColor(t *testing.T) {
	tests := []struct {
		score    int
		expected rgb
	}{
		{100, colorStrong},
		{70, colorStrong},
		{69, colorMedium},
		{40, colorMedium},
		{39, colorWeak},
		{0, colorWeak},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, scoreColor(tt.score), "score %d", tt.score)
	}
}

func TestBarFill(t *testing.T) {
	tests := []struct {
		score    int
		expected float64
	}{
		{0, 0},
		{50, 250},
		{100, 500},
		{-5, 0},
		{150, 500},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, barFill(tt.score), 0.001, "score %d", tt.score)
	}
}
