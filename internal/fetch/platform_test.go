package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://docs.google.com/document/d/abc_123-XYZ/edit", PlatformGoogleDocs},
		{"https://docs.google.com/spreadsheets/d/abc/edit", PlatformUnknown},
		{"https://drive.google.com/file/d/FILE42/view?usp=sharing", PlatformGoogleDrive},
		{"https://www.dropbox.com/s/xyz/cv.pdf?dl=0", PlatformDropbox},
		{"https://github.com/jane/resume/blob/main/resume.md", PlatformGitHub},
		{"https://github.com/jane/resume", PlatformUnknown},
		{"https://jane.dev/cv.pdf", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestDownloadURL(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{
			"https://docs.google.com/document/d/abc_123/edit",
			"https://docs.google.com/document/d/abc_123/export?format=txt",
		},
		{
			"https://drive.google.com/file/d/FILE42/view?usp=sharing",
			"https://drive.google.com/uc?export=download&id=FILE42",
		},
		{
			"https://www.dropbox.com/s/xyz/cv.pdf?dl=0",
			"https://www.dropbox.com/s/xyz/cv.pdf?dl=1",
		},
		{
			"https://github.com/jane/resume/blob/main/docs/resume.md",
			"https://raw.githubusercontent.com/jane/resume/main/docs/resume.md",
		},
		{
			"https://jane.dev/cv.pdf",
			"https://jane.dev/cv.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DownloadURL(tt.url))
		})
	}
}

func TestPlatformSelectors(t *testing.T) {
	assert.Contains(t, PlatformContentSelectors(PlatformUnknown), "#resume")
	assert.Contains(t, PlatformContentSelectors(PlatformGitHub), "article.markdown-body")
	assert.Contains(t, PlatformNoiseSelectors(PlatformUnknown), "form")
	assert.Contains(t, PlatformNoiseSelectors(PlatformGitHub), ".file-navigation")
}
