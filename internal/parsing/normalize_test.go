package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty string", "", ""},
		{"Whitespace only", " \n\t ", ""},
		{"Collapses newlines and tabs", "  a\n\n b\t c  ", "a b c"},
		{"En dash to hyphen", "2019\u20132021", "2019-2021"},
		{"Em dash to hyphen", "Go\u2014Python", "Go-Python"},
		{"Minus sign to hyphen", "\u22125", "-5"},
		{"Composes combining accent", "Rene\u0301", "Ren\u00e9"},
		{"Non-breaking space collapses", "a\u00a0 b", "a b"},
		{"Keeps case", "Increased Revenue", "Increased Revenue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"", "a  b", "Skills\n\nGo \u2013 Python", "Rene\u0301\tDoe"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizeLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty string", "", ""},
		{"Drops blank lines", "Skills  \n\n  Go,   Python \r\nExperience", "Skills\nGo, Python\nExperience"},
		{"Replaces dashes per line", "2019 \u2014 2021\nRemote", "2019 - 2021\nRemote"},
		{"Carriage returns only", "a\rb", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLines(tt.input))
		})
	}
}

func TestNormalizeLines_AgreesWithNormalize(t *testing.T) {
	in := "  Jane Doe \n\nSkills:\tGo – Rust\n"
	assert.Equal(t, Normalize(in), Normalize(NormalizeLines(in)))
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lower-cases ASCII", "Kubernetes AND AWS", "kubernetes and aws"},
		{"Folds accented capitals", "\u00c9COLE", "\u00e9cole"},
		{"Leaves punctuation", "CI/CD, 40%", "ci/cd, 40%"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Canonical(tt.input))
		})
	}
}
