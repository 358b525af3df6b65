package parsing

import (
	"regexp"
	"strings"
)

// GeneralSection collects every line that appears before the first recognized header
const GeneralSection = "general"

// lineSplit breaks text on line breaks or on a period that ends a sentence
var lineSplit = regexp.MustCompile(`[\r\n]+|\.(?:\s+|$)`)

// Sections maps a section name to its accumulated, space-joined text
type Sections map[string]string

// Get returns the text of the named section, or "" when the section was never seen
func (s Sections) Get(name string) string {
	if s == nil {
		return ""
	}
	return s[name]
}

// Join returns the non-empty text of the named sections joined with single spaces
func (s Sections) Join(names ...string) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		if text := s.Get(name); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Segment splits text into named sections using header-line detection.
//
// A candidate line is a header when its case-folded form equals one of
// headers, optionally followed by a single colon. The header line itself
// is not added to any section. Lines before the first header land in
// GeneralSection. Section keys are the case-folded header names.
func Segment(text string, headers []string) Sections {
	known := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		known[Canonical(strings.TrimSpace(h))] = struct{}{}
	}

	sections := Sections{}
	current := GeneralSection

	for _, line := range SplitLines(text) {
		folded := Canonical(line)
		candidate := strings.TrimSuffix(folded, ":")
		if _, ok := known[candidate]; ok {
			current = candidate
			if _, exists := sections[current]; !exists {
				sections[current] = ""
			}
			continue
		}

		if existing := sections[current]; existing != "" {
			sections[current] = existing + " " + line
		} else {
			sections[current] = line
		}
	}

	return sections
}

// SplitLines returns the trimmed, non-empty line candidates of text
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	raw := lineSplit.Split(text, -1)
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
