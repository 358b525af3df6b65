package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-analyzer/internal/cache"
	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/server/middleware"
	"github.com/jonathan/resume-analyzer/internal/server/ratelimit"
	"github.com/jonathan/resume-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
Summary
Backend engineer building distributed systems.
Skills
Python, Docker, Kubernetes, AWS, Postgres, Redis
Experience
Increased API throughput by 40% using Python and Redis on AWS.
Reduced deployment time by 35% with Docker and Kubernetes.
Education
BSc Computer Science`

// mockStore implements AnalysisStore in memory
type mockStore struct {
	mu       sync.Mutex
	analyses map[uuid.UUID]*db.Analysis
	err      error
}

func newMockStore() *mockStore {
	return &mockStore{analyses: make(map[uuid.UUID]*db.Analysis)}
}

func (m *mockStore) SaveAnalysis(_ context.Context, in db.AnalysisInput) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return uuid.Nil, m.err
	}
	id := uuid.New()
	m.analyses[id] = &db.Analysis{
		ID:           id,
		Filename:     in.Filename,
		Family:       in.Family,
		ContentHash:  in.ContentHash,
		RulesVersion: in.RulesVersion,
		Score:        in.Result.Score,
		Result:       *in.Result,
		Diagnostics:  in.Diagnostics,
		CreatedAt:    time.Now(),
	}
	return id, nil
}

func (m *mockStore) GetAnalysis(_ context.Context, id uuid.UUID) (*db.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.analyses[id], nil
}

func (m *mockStore) ListAnalyses(_ context.Context, _ int) ([]db.AnalysisSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.AnalysisSummary
	for _, a := range m.analyses {
		out = append(out, db.AnalysisSummary{ID: a.ID, Filename: a.Filename, Score: a.Score})
	}
	return out, m.err
}

// mockCache implements ResultCache in memory
type mockCache struct {
	mu      sync.Mutex
	results map[string]*types.AnalysisResult
	gets    int
}

func newMockCache() *mockCache {
	return &mockCache{results: make(map[string]*types.AnalysisResult)}
}

func (c *mockCache) Get(_ context.Context, e cache.Entry) (*types.AnalysisResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.results[e.Key()].Clone(), nil
}

func (c *mockCache) Set(_ context.Context, e cache.Entry, result *types.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[e.Key()] = result.Clone()
	return nil
}

// buildDocx packs lines as paragraphs of a minimal .docx archive
func buildDocx(t *testing.T, text string) []byte {
	t.Helper()
	var doc strings.Builder
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, line := range strings.Split(text, "\n") {
		doc.WriteString("<w:p><w:r><w:t>" + line + "</w:t></w:r></w:p>")
	}
	doc.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestServer(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	if cfg.RateLimit == nil {
		cfg.RateLimit = &ratelimit.Config{Enabled: false}
	}
	s := New(cfg)
	t.Cleanup(s.rateLimiter.Stop)
	return s.Handler()
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["rules_version"])
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalyze_JSON(t *testing.T) {
	store := newMockStore()
	h := newTestServer(t, Config{Store: store})

	rr := serve(h, uploadRequest(t, "jane.txt", []byte(sampleResume), nil))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "jane.txt", resp.Filename)
	assert.Equal(t, ingestion.FamilyText, resp.Family)
	assert.Equal(t, ingestion.ComputeHash([]byte(sampleResume)), resp.ContentHash)
	assert.False(t, resp.Cached)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 87, resp.Result.Score)
	require.NotNil(t, resp.Diagnostics)
	assert.Nil(t, resp.Diagnostics.Error)

	require.NotNil(t, resp.ID)
	saved, err := store.GetAnalysis(context.Background(), *resp.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, 87, saved.Score)
	assert.Equal(t, "txt", saved.Family)
}

func TestAnalyze_Report(t *testing.T) {
	h := newTestServer(t, Config{})

	rr := serve(h, uploadRequest(t, "jane.txt", []byte(sampleResume), map[string]string{
		"report": "true",
		"name":   "Jane Doe",
	}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="jane-report.pdf"`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "87", rr.Header().Get("X-Analysis-Score"))
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))
}

func TestAnalyze_CacheHit(t *testing.T) {
	results := newMockCache()
	store := newMockStore()
	h := newTestServer(t, Config{Cache: results, Store: store})

	first := serve(h, uploadRequest(t, "jane.txt", []byte(sampleResume), nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := serve(h, uploadRequest(t, "copy.txt", []byte(sampleResume), nil))
	require.Equal(t, http.StatusOK, second.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
	assert.Equal(t, 87, resp.Result.Score)
	assert.Equal(t, "copy.txt", resp.Filename)
	assert.Nil(t, resp.ID)
	assert.Equal(t, 2, results.gets)
	require.NotNil(t, resp.Diagnostics)
	assert.Contains(t, resp.Diagnostics.MatchedRules, types.BucketSkills)
	assert.Len(t, store.analyses, 1, "cache hits are not stored again")

	pdf := serve(h, uploadRequest(t, "copy.txt", []byte(sampleResume), map[string]string{"report": "1"}))
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.Equal(t, "application/pdf", pdf.Header().Get("Content-Type"))
}

func TestAnalyze_CacheKeyedByFamily(t *testing.T) {
	data := buildDocx(t, sampleResume)

	analyze := func(h http.Handler, name string) AnalyzeResponse {
		t.Helper()
		rr := serve(h, uploadRequest(t, name, data, nil))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp AnalyzeResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	uncached := analyze(newTestServer(t, Config{}), "resume.docx")

	results := newMockCache()
	h := newTestServer(t, Config{Cache: results})

	asBinary := analyze(h, "resume.bin")
	assert.False(t, asBinary.Cached)
	assert.Equal(t, ingestion.FamilyGeneric, asBinary.Family)

	asDocx := analyze(h, "resume.docx")
	assert.False(t, asDocx.Cached, "the same bytes under another extension are a separate entry")
	assert.Equal(t, ingestion.FamilyDocx, asDocx.Family)
	assert.Equal(t, uncached.Result.Score, asDocx.Result.Score)
	assert.Greater(t, asDocx.Result.Score, asBinary.Result.Score)
	assert.Len(t, results.results, 2)

	again := analyze(h, "copy.docx")
	assert.True(t, again.Cached)
	assert.Equal(t, asDocx.Result.Score, again.Result.Score)
}

func TestAnalyze_CacheHitUpdatesDiagnostics(t *testing.T) {
	h := newTestServer(t, Config{Cache: newMockCache()})

	first := serve(h, uploadRequest(t, "jane.txt", []byte(sampleResume), nil))
	require.Equal(t, http.StatusOK, first.Code)
	other := serve(h, uploadRequest(t, "blank.txt", []byte("Jane Doe"), nil))
	require.Equal(t, http.StatusOK, other.Code)

	var before types.Diagnostics
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/v1/diagnostics", nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &before))
	assert.Equal(t, 0, before.MatchedRules[types.BucketSkills].Matched)

	hit := serve(h, uploadRequest(t, "jane.txt", []byte(sampleResume), nil))
	require.Equal(t, http.StatusOK, hit.Code)

	var after types.Diagnostics
	rr = serve(h, httptest.NewRequest(http.MethodGet, "/v1/diagnostics", nil))
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &after))
	assert.Greater(t, after.MatchedRules[types.BucketSkills].Matched, 0, "snapshot reflects the cached result")
	assert.Nil(t, after.Error)
}

func TestAnalyze_StoreFailureStillResponds(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("connection refused")
	h := newTestServer(t, Config{Store: store})

	rr := serve(h, uploadRequest(t, "jane.txt", []byte(sampleResume), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Nil(t, resp.ID)
	assert.Equal(t, 87, resp.Result.Score)
}

func TestAnalyze_Errors(t *testing.T) {
	noPDF := pipeline.New(pipeline.Options{Chain: ingestion.NewChain(ingestion.Options{})})

	tests := []struct {
		name     string
		cfg      Config
		req      func(t *testing.T) *http.Request
		expected int
		contains string
	}{
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "", nil, map[string]string{"report": "true"})
			},
			expected: http.StatusBadRequest,
			contains: "file - is required",
		},
		{
			name: "not multipart",
			req: func(*testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/v1/analyze", strings.NewReader("{}"))
			},
			expected: http.StatusBadRequest,
			contains: "multipart",
		},
		{
			name: "file too large",
			cfg:  Config{MaxUploadBytes: 16},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "big.txt", bytes.Repeat([]byte("a"), 64), nil)
			},
			expected: http.StatusRequestEntityTooLarge,
			contains: "file too large",
		},
		{
			name: "capability missing",
			cfg:  Config{Analyzer: noPDF},
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "cv.pdf", []byte("%PDF-1.4"), nil)
			},
			expected: http.StatusUnsupportedMediaType,
			contains: "capability unavailable",
		},
		{
			name: "name too long",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "jane.txt", []byte(sampleResume), map[string]string{"name": strings.Repeat("n", 201)})
			},
			expected: http.StatusBadRequest,
			contains: "validation error: name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.cfg)
			rr := serve(h, tt.req(t))

			assert.Equal(t, tt.expected, rr.Code, rr.Body.String())
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Contains(t, resp["error"], tt.contains)
		})
	}
}

func TestReportEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})

	tests := []struct {
		name     string
		body     string
		expected int
	}{
		{
			name:     "valid result",
			body:     `{"result":{"score":72,"strengths":["Clear structure"],"weaknesses":[],"recommendations":null},"name":"Jane","filename":"cv.pdf"}`,
			expected: http.StatusOK,
		},
		{name: "invalid JSON", body: `{`, expected: http.StatusBadRequest},
		{name: "missing result", body: `{"name":"Jane"}`, expected: http.StatusBadRequest},
		{name: "score out of range", body: `{"result":{"score":120,"strengths":[],"weaknesses":[],"recommendations":[]}}`, expected: http.StatusBadRequest},
		{name: "missing fields", body: `{"result":{"score":10}}`, expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/report", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rr := serve(h, req)

			assert.Equal(t, tt.expected, rr.Code, rr.Body.String())
			if tt.expected == http.StatusOK {
				assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
				assert.Equal(t, "72", rr.Header().Get("X-Analysis-Score"))
				assert.Equal(t, `attachment; filename="cv-report.pdf"`, rr.Header().Get("Content-Disposition"))
			}
		})
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	h := newTestServer(t, Config{})

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/v1/diagnostics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var empty types.Diagnostics
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &empty))
	assert.Empty(t, empty.RawTextPreview)

	serve(h, uploadRequest(t, "jane.txt", []byte(sampleResume), nil))

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/v1/diagnostics", nil))
	var d types.Diagnostics
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.Contains(t, d.RawTextPreview, "Jane Doe")
	assert.NotEmpty(t, d.MatchedRules)
	assert.Nil(t, d.Error)
}

func TestAnalysesEndpoints(t *testing.T) {
	store := newMockStore()
	id, err := store.SaveAnalysis(context.Background(), db.AnalysisInput{
		Filename: "cv.pdf",
		Result:   &types.AnalysisResult{Score: 55},
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		cfg      Config
		path     string
		expected int
	}{
		{"found", Config{Store: store}, "/v1/analyses/" + id.String(), http.StatusOK},
		{"not found", Config{Store: store}, "/v1/analyses/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", Config{Store: store}, "/v1/analyses/not-a-uuid", http.StatusBadRequest},
		{"no store", Config{}, "/v1/analyses/" + id.String(), http.StatusServiceUnavailable},
		{"list", Config{Store: store}, "/v1/analyses?limit=5", http.StatusOK},
		{"list bad limit", Config{Store: store}, "/v1/analyses?limit=abc", http.StatusBadRequest},
		{"list no store", Config{}, "/v1/analyses", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.cfg)
			rr := serve(h, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.expected, rr.Code, rr.Body.String())
		})
	}

	h := newTestServer(t, Config{Store: store})
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/v1/analyses/"+id.String(), nil))
	var got db.Analysis
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, 55, got.Result.Score)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/v1/analyses", nil))
	var list map[string][]db.AnalysisSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list["analyses"], 1)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, Config{RateLimit: &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Hour,
	}})

	for i := 0; i < 2; i++ {
		rr := serve(h, httptest.NewRequest(http.MethodGet, "/v1/diagnostics", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
	}

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/v1/diagnostics", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limit_exceeded", resp["error"])
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, Config{})

	rr := serve(h, httptest.NewRequest(http.MethodOptions, "/v1/analyze", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestStart_StopsOnCancel(t *testing.T) {
	s := New(Config{Port: 0, RateLimit: &ratelimit.Config{Enabled: false}})
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
