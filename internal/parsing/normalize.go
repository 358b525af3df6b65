// Package parsing canonicalizes extracted resume text and splits it into named sections.
package parsing

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// dashReplacer maps hyphen and dash variants to a plain ASCII hyphen
var dashReplacer = strings.NewReplacer(
	"‐", "-", // hyphen
	"‑", "-", // non-breaking hyphen
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
	"﹘", "-", // small em dash
	"﹣", "-", // small hyphen-minus
	"－", "-", // fullwidth hyphen-minus
)

var (
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{85}\x{FEFF}]+`)
	horizontalRun = regexp.MustCompile(`[\t\f\v \p{Zs}\x{FEFF}]+`)
	lineBreakRun  = regexp.MustCompile(`\r\n?|[\n\x{85}\x{2028}\x{2029}]`)
)

// Normalize composes the text to NFC, replaces dash variants with "-",
// collapses every whitespace run (newlines included) to one space and trims.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	s := compose(raw)
	s = dashReplacer.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeLines applies the same canonicalization as Normalize but keeps
// line structure: horizontal whitespace collapses within each line and
// blank lines are dropped. The segmenter works on this form.
func NormalizeLines(raw string) string {
	if raw == "" {
		return ""
	}
	s := compose(raw)
	s = dashReplacer.Replace(s)

	lines := lineBreakRun.Split(s, -1)
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(horizontalRun.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// Canonical returns the case-folded form of s used for keyword matching.
// A Caser is not safe for concurrent use, so one is built per call.
func Canonical(s string) string {
	return cases.Fold().String(s)
}

// compose returns the NFC form of s. norm passes invalid UTF-8 through
// untouched, so this never fails.
func compose(s string) string {
	return norm.NFC.String(s)
}
