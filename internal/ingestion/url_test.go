package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumePage = `<!DOCTYPE html>
<html>
<body>
<nav>Nav</nav>
<main>
<h1>Jane Doe</h1>
<h2>Experience</h2>
<p>Led a team of 5 engineers</p>
<h2>Skills</h2>
<p>Go, SQL</p>
</main>
<footer>Footer</footer>
</body>
</html>`

func newResumeServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cv.pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF-1.4 fake"))
		case "/page.html", "/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(resumePage))
		case "/empty":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body><nav>only nav</nav></body></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchFile_InvalidURL(t *testing.T) {
	tests := []struct {
		name   string
		urlStr string
	}{
		{"empty URL", ""},
		{"malformed URL", "not-a-url"},
		{"no scheme", "example.com"},
		{"no host", "http://"},
		{"unsupported scheme", "ftp://example.com/cv.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FetchFile(context.Background(), tt.urlStr, FetchOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestFetchFile_HTMLPage(t *testing.T) {
	server := newResumeServer(t)

	tests := []struct {
		path     string
		wantName string
	}{
		{"/page.html", "page.txt"},
		{"/", "resume.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			file, metadata, err := FetchFile(context.Background(), server.URL+tt.path, FetchOptions{})
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, file.Name)
			text := string(file.Data)
			assert.Equal(t, "Jane Doe\nExperience\nLed a team of 5 engineers\nSkills\nGo, SQL", text)
			assert.NotContains(t, text, "Nav")
			assert.NotContains(t, text, "Footer")

			require.NotNil(t, metadata)
			assert.Equal(t, server.URL+tt.path, metadata.URL)
			assert.Equal(t, FamilyText, metadata.Family)
			assert.Equal(t, ComputeHash(file.Data), metadata.Hash)
		})
	}
}

func TestFetchFile_BinaryDocument(t *testing.T) {
	server := newResumeServer(t)

	file, metadata, err := FetchFile(context.Background(), server.URL+"/cv.pdf", FetchOptions{})
	require.NoError(t, err)

	assert.Equal(t, "cv.pdf", file.Name)
	assert.Equal(t, []byte("%PDF-1.4 fake"), file.Data)
	assert.Equal(t, FamilyPDF, metadata.Family)
	assert.Equal(t, int64(13), metadata.Size)
}

func TestFetchFile_Errors(t *testing.T) {
	server := newResumeServer(t)

	tests := []struct {
		name    string
		path    string
		opts    FetchOptions
		wantErr error
	}{
		{"not found", "/missing", FetchOptions{}, ErrHTTPRequestFailed},
		{"too large", "/cv.pdf", FetchOptions{MaxBytes: 4}, ErrHTTPRequestFailed},
		{"page without text", "/empty", FetchOptions{}, ErrContentExtractionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FetchFile(context.Background(), server.URL+tt.path, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetchFile_NetworkError(t *testing.T) {
	_, _, err := FetchFile(context.Background(), "http://127.0.0.1:1/cv.pdf", FetchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHTTPRequestFailed)
}

func TestFetchFile_FeedsChain(t *testing.T) {
	server := newResumeServer(t)

	file, _, err := FetchFile(context.Background(), server.URL+"/page.html", FetchOptions{})
	require.NoError(t, err)

	ext, err := NewChain(Options{Capabilities: DefaultCapabilities()}).Extract(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, FamilyText, ext.Family)
	assert.Contains(t, ext.Raw, "Experience\n")
	assert.Contains(t, ext.Text, "Led a team of 5 engineers")
}

func TestHTMLFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "resume.txt"},
		{"index.html", "index.txt"},
		{"jane", "jane.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, htmlFilename(tt.in))
	}
}
