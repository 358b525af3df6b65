// Package observability records pipeline diagnostics and formats them for verbose CLI output.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-analyzer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, shorten(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// shorten cuts s to at most n runes, ending in "..." when cut
func shorten(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func writeList(sb *strings.Builder, heading string, items []string) {
	sb.WriteString(heading + ":\n")
	if len(items) == 0 {
		sb.WriteString("  (none)\n")
		return
	}
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
}

// PrintAnalysis outputs the score and feedback of an analysis.
func (p *Printer) PrintAnalysis(result *types.AnalysisResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Score:  %d / 100\n\n", result.Score))
	writeList(&sb, "Strengths", result.Strengths)
	sb.WriteString("\n")
	writeList(&sb, "Weaknesses", result.Weaknesses)
	sb.WriteString("\n")
	writeList(&sb, "Recommendations", result.Recommendations)

	p.printBox("RESUME ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMatchedRules outputs per-bucket keyword matches in bucket-name order.
func (p *Printer) PrintMatchedRules(rules map[string]types.RuleMatch) {
	if len(rules) == 0 {
		return
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for i, name := range names {
		m := rules[name]
		sb.WriteString(fmt.Sprintf("%-16s %d matched (%d keywords)\n", name, m.Matched, m.TotalKeywords))
		if len(m.MatchedKeywords) > 0 {
			sb.WriteString(fmt.Sprintf("  %s\n", strings.Join(m.MatchedKeywords, ", ")))
		}
		if i < len(names)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("MATCHED RULES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExtractionWarnings outputs non-fatal extraction problems.
func (p *Printer) PrintExtractionWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Extraction finished with %d warnings:\n\n", len(warnings)))
	for _, w := range warnings {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", w))
	}

	p.printBox("EXTRACTION WARNINGS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDiagnostics outputs stage timings, the last error and the start of the preview.
func (p *Printer) PrintDiagnostics(d *types.Diagnostics) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Extract:  %.1f ms\n", d.Durations.ExtractMS))
	sb.WriteString(fmt.Sprintf("Analyze:  %.1f ms\n", d.Durations.AnalyzeMS))
	if d.Timestamps.ReportedAt != nil {
		sb.WriteString(fmt.Sprintf("Report:   %.1f ms\n", d.Durations.ReportMS))
	}
	if d.Error != nil {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", *d.Error))
	}

	if d.RawTextPreview != "" {
		sb.WriteString("\nPreview:\n")
		lines := strings.Split(d.RawTextPreview, "\n")
		count := min(len(lines), maxItemsToShow)
		for _, line := range lines[:count] {
			sb.WriteString(fmt.Sprintf("  %s\n", line))
		}
		if len(lines) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more lines\n", len(lines)-maxItemsToShow))
		}
	}

	p.printBox("DIAGNOSTICS", strings.TrimSuffix(sb.String(), "\n"))
}
