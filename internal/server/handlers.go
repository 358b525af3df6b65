package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/resume-analyzer/internal/cache"
	"github.com/jonathan/resume-analyzer/internal/db"
	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/pipeline"
	"github.com/jonathan/resume-analyzer/internal/schemas"
	"github.com/jonathan/resume-analyzer/internal/types"
	schemafiles "github.com/jonathan/resume-analyzer/schemas"
	"go.uber.org/zap"
)

// multipartMemory is how much of an upload is kept in memory before spilling to disk
const multipartMemory = 8 << 20

// AnalyzeResponse is the JSON body of a successful /v1/analyze
type AnalyzeResponse struct {
	ID           *uuid.UUID            `json:"id,omitempty"`
	Filename     string                `json:"filename"`
	Family       ingestion.Family      `json:"family,omitempty"`
	ContentHash  string                `json:"content_hash"`
	RulesVersion string                `json:"rules_version"`
	Cached       bool                  `json:"cached"`
	Result       *types.AnalysisResult `json:"result"`
	Warnings     []string              `json:"warnings,omitempty"`
	Diagnostics  *types.Diagnostics    `json:"diagnostics,omitempty"`
}

// ReportRequest is the JSON body of /v1/report
type ReportRequest struct {
	Result   json.RawMessage `json:"result"`
	Name     string          `json:"name,omitempty"`
	Filename string          `json:"filename,omitempty"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"rules_version": s.analyzer.RulesVersion(),
	})
}

// handleAnalyze scores an uploaded resume. The upload is the multipart field
// "file"; report=true returns the PDF report instead of JSON.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, err)
			return
		}
		s.fail(w, &ErrValidation{Field: "body", Message: "expected multipart/form-data: " + err.Error()})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, err := s.readUpload(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	wantReport, _ := strconv.ParseBool(r.FormValue("report"))
	reportMeta := types.ReportMeta{Name: r.FormValue("name"), Filename: file.Name}
	diagMeta := types.DiagnosticsMeta{UserID: r.FormValue("uid"), Filename: file.Name}
	if err := reportMeta.Validate(); err != nil {
		s.fail(w, &ErrValidation{Field: "name", Message: err.Error()})
		return
	}
	if err := diagMeta.Validate(); err != nil {
		s.fail(w, &ErrValidation{Field: "uid", Message: err.Error()})
		return
	}

	ctx := r.Context()
	hash := ingestion.ComputeHash(file.Data)
	version := s.analyzer.RulesVersion()
	entry := cache.Entry{
		ContentHash:  hash,
		RulesVersion: version,
		Family:       string(ingestion.DetectFamily(file.Name)),
	}

	if cached := s.cachedResult(r, entry); cached != nil {
		diag := s.analyzer.RecordCachedResult(cached, diagMeta)
		if wantReport {
			pdf, _, err := s.analyzer.GenerateReport(cached, reportMeta)
			if err != nil {
				s.fail(w, err)
				return
			}
			s.pdfResponse(w, file.Name, cached.Score, pdf)
			return
		}
		s.jsonResponse(w, http.StatusOK, AnalyzeResponse{
			Filename:     file.Name,
			Family:       ingestion.DetectFamily(file.Name),
			ContentHash:  hash,
			RulesVersion: version,
			Cached:       true,
			Result:       cached,
			Diagnostics:  diag,
		})
		return
	}

	out, diag, err := s.analyzer.Run(ctx, file, pipeline.RunOptions{
		Report:          wantReport,
		ReportMeta:      reportMeta,
		DiagnosticsMeta: diagMeta,
	})
	if err != nil {
		s.fail(w, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, entry, out.Result); err != nil {
			s.logger.Warn("cache write failed", zap.String("hash", hash), zap.Error(err))
		}
	}

	var id *uuid.UUID
	if s.store != nil {
		saved, err := s.store.SaveAnalysis(ctx, db.AnalysisInput{
			Filename:     file.Name,
			Family:       string(out.Extraction.Family),
			ContentHash:  hash,
			RulesVersion: version,
			Result:       out.Result,
			Diagnostics:  diag,
		})
		if err != nil {
			s.logger.Warn("failed to save analysis", zap.String("hash", hash), zap.Error(err))
		} else {
			id = &saved
		}
	}

	if wantReport {
		if id != nil {
			w.Header().Set("X-Analysis-ID", id.String())
		}
		s.pdfResponse(w, file.Name, out.Result.Score, out.Report)
		return
	}

	s.jsonResponse(w, http.StatusOK, AnalyzeResponse{
		ID:           id,
		Filename:     file.Name,
		Family:       out.Extraction.Family,
		ContentHash:  hash,
		RulesVersion: version,
		Result:       out.Result,
		Warnings:     out.Extraction.Warnings,
		Diagnostics:  diag,
	})
}

// readUpload buffers the "file" part of a parsed multipart form
func (s *Server) readUpload(r *http.Request) (ingestion.File, error) {
	part, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return ingestion.File{}, &ErrValidation{Field: "file", Message: "is required"}
		}
		return ingestion.File{}, &ErrValidation{Field: "file", Message: err.Error()}
	}
	defer func() { _ = part.Close() }()

	name := path.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "upload"
	}
	return ingestion.ReadFile(name, part, s.maxUpload)
}

// cachedResult returns a cached result, or nil on a miss or cache error
func (s *Server) cachedResult(r *http.Request, entry cache.Entry) *types.AnalysisResult {
	if s.cache == nil {
		return nil
	}
	result, err := s.cache.Get(r.Context(), entry)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", entry.Key()), zap.Error(err))
		return nil
	}
	return result
}

// handleReport renders a PDF from a previously computed result
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.fail(w, &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()})
		return
	}
	if len(req.Result) == 0 || string(req.Result) == "null" {
		s.fail(w, &ErrValidation{Field: "result", Message: "is required"})
		return
	}
	if err := schemas.Validate(schemafiles.AnalysisResult, req.Result); err != nil {
		s.fail(w, err)
		return
	}

	var result types.AnalysisResult
	if err := json.Unmarshal(req.Result, &result); err != nil {
		s.fail(w, &ErrValidation{Field: "result", Message: err.Error()})
		return
	}

	meta := types.ReportMeta{Name: req.Name, Filename: req.Filename}
	if err := meta.Validate(); err != nil {
		s.fail(w, &ErrValidation{Field: "meta", Message: err.Error()})
		return
	}

	pdf, _, err := s.analyzer.GenerateReport(&result, meta)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.pdfResponse(w, req.Filename, result.Score, pdf)
}

// handleDiagnostics returns the latest diagnostics snapshot
func (s *Server) handleDiagnostics(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.analyzer.Snapshot())
}

// handleGetAnalysis returns a stored analysis by ID
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.fail(w, &ErrUnavailable{Feature: "analysis storage"})
		return
	}
	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		s.fail(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}

	analysis, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		s.fail(w, fmt.Errorf("failed to load analysis: %w", err))
		return
	}
	if analysis == nil {
		s.fail(w, &ErrNotFound{Resource: "analysis", ID: idStr})
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

// handleListAnalyses returns the most recent analyses
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.fail(w, &ErrUnavailable{Feature: "analysis storage"})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, &ErrValidation{Field: "limit", Message: "must be a non-negative integer"})
			return
		}
		limit = n
	}

	analyses, err := s.store.ListAnalyses(r.Context(), limit)
	if err != nil {
		s.fail(w, fmt.Errorf("failed to list analyses: %w", err))
		return
	}
	if analyses == nil {
		analyses = []db.AnalysisSummary{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"analyses": analyses})
}

// pdfResponse writes a PDF attachment
func (s *Server) pdfResponse(w http.ResponseWriter, sourceName string, score int, pdf []byte) {
	base := strings.TrimSuffix(sourceName, path.Ext(sourceName))
	if base == "" {
		base = "resume"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", base+"-report.pdf"))
	w.Header().Set("X-Analysis-Score", strconv.Itoa(score))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		s.logger.Warn("failed to write PDF response", zap.Error(err))
	}
}
