package rendering

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/jonathan/resume-analyzer/internal/logger"
	"github.com/jonathan/resume-analyzer/internal/types"
	"go.uber.org/zap"
)

// Page geometry, in points
const (
	marginLeft   = 40.0
	itemIndent   = 60.0
	itemWidth    = 520.0
	barWidth     = 500.0
	barHeight    = 16.0
	footerOffset = 30.0
	bottomMargin = 50.0
)

const (
	reportTitle  = "Resume Analysis Report"
	footerText   = "Generated by Resume Analyzer"
	unknownName  = "Unknown"
	emptySection = "- None"
	customFamily = "report"
	coreFamily   = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	colorStrong = rgb{46, 204, 113}
	colorMedium = rgb{241, 196, 15}
	colorWeak   = rgb{231, 76, 60}
	colorTrack  = rgb{236, 240, 241}
	colorFooter = rgb{120, 120, 120}
)

// Options configures a Generator
type Options struct {
	FontPath string // optional TTF; the core Helvetica font is used when empty
	Compress bool
	Logger   *zap.Logger
}

// Generator renders AnalysisResults as PDF reports
type Generator struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator creates a Generator
func NewGenerator(opts Options) *Generator {
	return &Generator{
		opts:   opts,
		logger: logger.WithStage(opts.Logger, logger.StageReport),
		now:    time.Now,
	}
}

// Generate renders result as an A4 PDF. The result is only read.
func (g *Generator) Generate(result *types.AnalysisResult, meta types.ReportMeta) ([]byte, error) {
	doc, err := g.build(result, meta)
	if err != nil {
		g.logger.Error("report generation failed", zap.Error(err))
		return nil, err
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		err = &ReportError{Message: "failed to write PDF", Cause: err}
		g.logger.Error("report generation failed", zap.Error(err))
		return nil, err
	}

	g.logger.Debug("report generated",
		zap.Int("score", result.Score),
		zap.Int("pages", doc.PageNo()),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// build lays out the document without serializing it
func (g *Generator) build(result *types.AnalysisResult, meta types.ReportMeta) (doc *fpdf.Fpdf, err error) {
	if result == nil {
		return nil, &ReportError{Message: "no analysis result"}
	}
	if err := meta.Validate(); err != nil {
		return nil, &ReportError{Message: "invalid report metadata", Cause: err}
	}

	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = &ReportError{Message: "panic while rendering", Cause: fmt.Errorf("%v", r)}
		}
	}()

	if g.opts.FontPath != "" {
		if _, statErr := os.Stat(g.opts.FontPath); statErr != nil {
			return nil, &ReportError{
				Message: "font capability missing",
				Cause:   &FontError{Path: g.opts.FontPath, Cause: statErr},
			}
		}
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(g.opts.Compress)
	pdf.SetCreationDate(g.now())
	pdf.SetMargins(marginLeft, marginLeft, marginLeft)
	pdf.SetAutoPageBreak(true, bottomMargin)

	w := &writer{pdf: pdf, family: coreFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if g.opts.FontPath != "" {
		pdf.AddUTF8Font(customFamily, "", g.opts.FontPath)
		w.family = customFamily
		w.tr = func(s string) string { return s }
	}
	if pdf.Err() {
		return nil, &ReportError{Message: "font capability missing", Cause: &FontError{Path: g.opts.FontPath, Cause: pdf.Error()}}
	}

	pdf.SetTitle(reportTitle, true)
	pdf.SetCreator(footerText, true)
	_, pageH := pdf.GetPageSize()
	pdf.SetFooterFunc(func() {
		w.font(10)
		w.color(colorFooter)
		pdf.SetXY(marginLeft, pageH-footerOffset)
		pdf.CellFormat(0, 12, w.tr(footerText), "", 0, "L", false, 0, "")
		w.color(rgb{0, 0, 0})
	})
	pdf.AddPage()

	w.header(result.Score, meta)
	w.section("Strengths", result.Strengths)
	w.section("Weaknesses", result.Weaknesses)
	w.section("Recommendations", result.Recommendations)

	if pdf.Err() {
		return nil, &ReportError{Message: "failed to lay out report", Cause: pdf.Error()}
	}
	return pdf, nil
}

type writer struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
}

func (w *writer) font(size float64) {
	w.pdf.SetFont(w.family, "", size)
}

func (w *writer) color(c rgb) {
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *writer) header(score int, meta types.ReportMeta) {
	pdf := w.pdf
	name := meta.Name
	if name == "" {
		name = unknownName
	}

	w.font(18)
	pdf.SetXY(marginLeft, marginLeft)
	pdf.CellFormat(0, 20, w.tr(reportTitle), "", 1, "L", false, 0, "")

	w.font(12)
	pdf.SetXY(marginLeft, marginLeft+24)
	pdf.CellFormat(0, 14, w.tr("Candidate: "+name), "", 1, "L", false, 0, "")

	barY := 90.0
	if meta.Filename != "" {
		w.font(10)
		pdf.SetXY(marginLeft, barY-8)
		pdf.CellFormat(0, 12, w.tr("Source: "+meta.Filename), "", 1, "L", false, 0, "")
		barY += 12
	}

	fill := scoreColor(score)
	pdf.SetFillColor(colorTrack.r, colorTrack.g, colorTrack.b)
	pdf.Rect(marginLeft, barY, barWidth, barHeight, "F")
	if width := barFill(score); width > 0 {
		pdf.SetFillColor(fill.r, fill.g, fill.b)
		pdf.Rect(marginLeft, barY, width, barHeight, "F")
	}

	w.font(12)
	pdf.SetXY(marginLeft+barWidth+8, barY)
	pdf.CellFormat(60, barHeight, fmt.Sprintf("Score: %d", score), "", 1, "L", false, 0, "")
	pdf.SetXY(marginLeft, barY+barHeight+24)
}

func (w *writer) section(title string, items []string) {
	pdf := w.pdf
	w.font(14)
	pdf.SetX(marginLeft)
	pdf.CellFormat(0, 18, w.tr(title), "", 1, "L", false, 0, "")

	w.font(11)
	if len(items) == 0 {
		pdf.SetX(itemIndent)
		pdf.MultiCell(itemWidth, 14, emptySection, "", "L", false)
	}
	for _, item := range items {
		pdf.SetX(itemIndent)
		pdf.MultiCell(itemWidth, 14, w.tr("- "+item), "", "L", false)
	}
	pdf.Ln(10)
}

// scoreColor picks the bar color for a 0-100 score
func scoreColor(score int) rgb {
	switch {
	case score >= 70:
		return colorStrong
	case score >= 40:
		return colorMedium
	default:
		return colorWeak
	}
}

// barFill is the filled width of the score bar, clamped to the bar
func barFill(score int) float64 {
	score = max(0, min(100, score))
	return barWidth * float64(score) / 100
}
