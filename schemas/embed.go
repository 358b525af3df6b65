// Package schemas embeds the JSON Schemas for rule sets and analysis results.
package schemas

import (
	"embed"
	"fmt"
)

// Schema file names
const (
	RuleSet        = "rule_set.schema.json"
	AnalysisResult = "analysis_result.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Load returns the content of the named embedded schema
func Load(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("schema %s not embedded: %w", name, err)
	}
	return string(data), nil
}

// Names lists every embedded schema
func Names() []string {
	return []string{RuleSet, AnalysisResult}
}
