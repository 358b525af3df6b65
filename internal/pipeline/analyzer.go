// Package pipeline orchestrates extraction, scoring and report generation and
// returns diagnostics alongside every stage result.
package pipeline

import (
	"context"
	"time"

	"github.com/jonathan/resume-analyzer/internal/ingestion"
	"github.com/jonathan/resume-analyzer/internal/logger"
	"github.com/jonathan/resume-analyzer/internal/observability"
	"github.com/jonathan/resume-analyzer/internal/ranking"
	"github.com/jonathan/resume-analyzer/internal/rendering"
	"github.com/jonathan/resume-analyzer/internal/types"
	"go.uber.org/zap"
)

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Stage   observability.Stage `json:"stage"`
	Message string              `json:"message"`
	Content any                 `json:"content,omitempty"`
}

// ProgressCallback is called when a stage finishes
type ProgressCallback func(event ProgressEvent)

// Options configures an Analyzer. Nil components are replaced with defaults.
type Options struct {
	Chain        *ingestion.Chain
	Scorer       *ranking.Scorer
	Generator    *rendering.Generator
	Recorder     *observability.Recorder
	Publisher    *observability.Publisher
	PreviewLimit int
	Logger       *zap.Logger
}

// RunOptions controls a single Run
type RunOptions struct {
	Report          bool
	ReportMeta      types.ReportMeta
	DiagnosticsMeta types.DiagnosticsMeta
	OnProgress      ProgressCallback
}

// Outcome holds every artifact produced by Run
type Outcome struct {
	Extraction *ingestion.Extraction
	Result     *types.AnalysisResult
	Report     []byte
}

// Analyzer runs the analysis stages. It is safe for concurrent use; each call
// gets its own diagnostics value and the shared Recorder only keeps the latest.
type Analyzer struct {
	chain        *ingestion.Chain
	scorer       *ranking.Scorer
	generator    *rendering.Generator
	recorder     *observability.Recorder
	publisher    *observability.Publisher
	previewLimit int
	logger       *zap.Logger
	now          func() time.Time
}

// New creates an Analyzer
func New(opts Options) *Analyzer {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Chain == nil {
		opts.Chain = ingestion.NewChain(ingestion.Options{
			Capabilities: ingestion.DefaultCapabilities(),
			Logger:       opts.Logger,
		})
	}
	if opts.Scorer == nil {
		opts.Scorer = ranking.NewScorer(ranking.DefaultRules())
	}
	if opts.Generator == nil {
		opts.Generator = rendering.NewGenerator(rendering.Options{Compress: true, Logger: opts.Logger})
	}
	if opts.Recorder == nil {
		opts.Recorder = observability.NewRecorder()
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = observability.DefaultPreviewLimit
	}
	return &Analyzer{
		chain:        opts.Chain,
		scorer:       opts.Scorer,
		generator:    opts.Generator,
		recorder:     opts.Recorder,
		publisher:    opts.Publisher,
		previewLimit: opts.PreviewLimit,
		logger:       logger.WithStage(opts.Logger, logger.StageAnalyze),
		now:          time.Now,
	}
}

// RulesVersion returns the version of the rule set used for scoring
func (a *Analyzer) RulesVersion() string {
	return a.scorer.Rules().Version
}

// ExtractText runs the extraction chain on file
func (a *Analyzer) ExtractText(ctx context.Context, file ingestion.File) (*ingestion.Extraction, *types.Diagnostics, error) {
	start := a.now()
	d := &types.Diagnostics{Timestamps: types.Timestamps{Start: start}}

	ext, err := a.chain.Extract(ctx, file)
	end := a.now()
	d.Durations.ExtractMS = millis(end.Sub(start))
	d.Timestamps.ExtractedAt = &end
	if err != nil {
		d.SetError(err)
		a.recorder.Apply(observability.StageExtract, *d)
		return nil, d, err
	}

	d.RawTextPreview = observability.Preview(ext.Raw, a.previewLimit)
	a.recorder.Apply(observability.StageExtract, *d)
	return ext, d, nil
}

// Analyze scores text. Line breaks are kept so section headers can be found.
// Scoring never fails.
func (a *Analyzer) Analyze(text string) (*types.AnalysisResult, *types.Diagnostics) {
	start := a.now()
	result := a.scorer.Analyze(text)
	end := a.now()

	d := &types.Diagnostics{
		MatchedRules: types.CloneMatchedRules(result.MatchedRules),
		Durations:    types.Durations{AnalyzeMS: millis(end.Sub(start))},
		Timestamps:   types.Timestamps{Start: start, AnalyzedAt: &end},
	}
	a.recorder.Apply(observability.StageAnalyze, *d)

	a.logger.Debug("analysis complete",
		zap.Int("score", result.Score),
		zap.Int("chars", len(text)),
		zap.Float64("ms", d.Durations.AnalyzeMS))
	return result, d
}

// GenerateReport renders result as a PDF
func (a *Analyzer) GenerateReport(result *types.AnalysisResult, meta types.ReportMeta) ([]byte, *types.Diagnostics, error) {
	start := a.now()
	pdf, err := a.generator.Generate(result, meta)
	end := a.now()

	d := &types.Diagnostics{
		Durations:  types.Durations{ReportMS: millis(end.Sub(start))},
		Timestamps: types.Timestamps{Start: start, ReportedAt: &end},
	}
	d.SetError(err)
	a.recorder.Apply(observability.StageReport, *d)
	if err != nil {
		return nil, d, err
	}
	return pdf, d, nil
}

// Run extracts, analyzes and optionally reports on file. The returned
// diagnostics merge every stage that ran; Error holds the failing stage's
// error, if any. In dev mode the merged record is published.
func (a *Analyzer) Run(ctx context.Context, file ingestion.File, opts RunOptions) (*Outcome, *types.Diagnostics, error) {
	out := &Outcome{}
	merged := &types.Diagnostics{}

	ext, extractDiag, err := a.ExtractText(ctx, file)
	*merged = *extractDiag
	if err != nil {
		a.finish(opts, merged)
		return nil, merged, err
	}
	out.Extraction = ext
	emit(opts, observability.StageExtract, "text extracted", ext.Metadata)

	if err := ctx.Err(); err != nil {
		merged.SetError(err)
		a.finish(opts, merged)
		return nil, merged, err
	}

	result, analyzeDiag := a.Analyze(ext.Raw)
	out.Result = result
	merged.MatchedRules = analyzeDiag.MatchedRules
	merged.Durations.AnalyzeMS = analyzeDiag.Durations.AnalyzeMS
	merged.Timestamps.AnalyzedAt = analyzeDiag.Timestamps.AnalyzedAt
	emit(opts, observability.StageAnalyze, "analysis complete", result)

	if opts.Report {
		meta := opts.ReportMeta
		if meta.Filename == "" {
			meta.Filename = file.Name
		}
		pdf, reportDiag, err := a.GenerateReport(result, meta)
		merged.Durations.ReportMS = reportDiag.Durations.ReportMS
		merged.Timestamps.ReportedAt = reportDiag.Timestamps.ReportedAt
		if err != nil {
			merged.SetError(err)
			a.finish(opts, merged)
			return out, merged, err
		}
		out.Report = pdf
		emit(opts, observability.StageReport, "report generated", len(pdf))
	}

	a.finish(opts, merged)
	return out, merged, nil
}

// RecordCachedResult records an analyze-stage entry for a result served from
// a cache, so the snapshot and dev-mode uploads reflect the request. No text
// was extracted, so the previous extraction fields are left as they are.
func (a *Analyzer) RecordCachedResult(result *types.AnalysisResult, meta types.DiagnosticsMeta) *types.Diagnostics {
	now := a.now()
	d := &types.Diagnostics{
		Timestamps: types.Timestamps{Start: now, AnalyzedAt: &now},
	}
	if result != nil {
		d.MatchedRules = types.CloneMatchedRules(result.MatchedRules)
	}
	a.recorder.Apply(observability.StageAnalyze, *d)
	a.logger.Debug("served cached result", zap.String("filename", meta.Filename))
	a.publisher.Publish(meta, *d)
	return d
}

// Snapshot returns the latest recorded diagnostics across all calls
func (a *Analyzer) Snapshot() types.Diagnostics {
	return a.recorder.Snapshot()
}

// Wait blocks until background diagnostics uploads finish
func (a *Analyzer) Wait() {
	a.publisher.Wait()
}

func (a *Analyzer) finish(opts RunOptions, d *types.Diagnostics) {
	if d.Error != nil {
		a.logger.Warn("run failed", zap.String("error", *d.Error))
	}
	meta := opts.DiagnosticsMeta
	a.publisher.Publish(meta, *d)
}

func emit(opts RunOptions, stage observability.Stage, message string, content any) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Stage: stage, Message: message, Content: content})
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
