// Package ingestion turns uploaded documents into plain text through a chain
// of format-specific strategies with graceful fallback.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-analyzer/internal/logger"
	"github.com/jonathan/resume-analyzer/internal/parsing"
	"go.uber.org/zap"
)

// Family is the format family selected from a file's extension
type Family string

const (
	FamilyPDF     Family = "pdf"
	FamilyDocx    Family = "docx"
	FamilyLegacy  Family = "doc"
	FamilyText    Family = "txt"
	FamilyGeneric Family = "generic"
)

const (
	// DefaultMaxFileSize bounds the bytes accepted by a Chain
	DefaultMaxFileSize int64 = 10 << 20

	// operatorPreviewLimit bounds the content-stream fallback for empty pages
	operatorPreviewLimit = 200
)

// DetectFamily maps a file name to its family by lower-cased extension
func DetectFamily(name string) Family {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "pdf":
		return FamilyPDF
	case "docx":
		return FamilyDocx
	case "doc":
		return FamilyLegacy
	case "txt":
		return FamilyText
	default:
		return FamilyGeneric
	}
}

// Options configures a Chain
type Options struct {
	Capabilities Capabilities
	Logger       *zap.Logger
	MaxFileSize  int64 // <= 0 means DefaultMaxFileSize
}

// Extraction is the full outcome of extracting one file
type Extraction struct {
	// Text is the normalized single-line form
	Text string
	// Raw keeps line structure for section detection
	Raw string
	// Family is the strategy family that produced the text; a docx that fell
	// back to the generic path reports FamilyGeneric
	Family   Family
	Pages    int
	Warnings []string
	Metadata *Metadata
}

// Chain dispatches a file to its extraction strategy
type Chain struct {
	caps        Capabilities
	logger      *zap.Logger
	maxFileSize int64
}

// NewChain creates a Chain from opts
func NewChain(opts Options) *Chain {
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Chain{
		caps:        opts.Capabilities,
		logger:      logger.WithStage(opts.Logger, logger.StageParse),
		maxFileSize: maxSize,
	}
}

// ExtractText returns the normalized text of file
func (c *Chain) ExtractText(ctx context.Context, file File) (string, error) {
	ext, err := c.Extract(ctx, file)
	if err != nil {
		return "", err
	}
	return ext.Text, nil
}

// Extract runs the strategy for file's family and returns raw and normalized text
func (c *Chain) Extract(ctx context.Context, file File) (*Extraction, error) {
	family := DetectFamily(file.Name)
	if file.Size() > c.maxFileSize {
		return nil, &ExtractionError{
			Family:  family,
			Path:    file.Name,
			Message: fmt.Sprintf("file is %d bytes, limit is %d", file.Size(), c.maxFileSize),
			Cause:   ErrFileTooLarge,
		}
	}

	c.logger.Debug("extracting",
		zap.String("file", file.Name),
		zap.String("family", string(family)),
		zap.Int64("bytes", file.Size()))

	ext := &Extraction{Family: family}
	var raw string
	var err error

	switch family {
	case FamilyPDF:
		raw, err = c.extractPDF(ctx, file, ext)
	case FamilyDocx:
		raw, err = c.extractDocx(file, ext)
	case FamilyLegacy:
		raw, err = c.extractLegacy(file)
	case FamilyText:
		raw = decodePlainText(file.Data)
	default:
		raw, err = c.extractGeneric(file)
	}
	if err != nil {
		return nil, err
	}

	ext.Raw = parsing.NormalizeLines(raw)
	ext.Text = parsing.Normalize(raw)
	ext.Metadata = NewMetadata(file, ext.Family)
	ext.Metadata.Pages = ext.Pages

	c.logger.Info("extracted text",
		zap.String("file", file.Name),
		zap.String("family", string(ext.Family)),
		zap.Int("chars", len([]rune(ext.Text))),
		zap.Int("warnings", len(ext.Warnings)))

	return ext, nil
}

// extractPDF walks pages in document order. A failing page is logged and
// skipped; an empty page falls back to a bounded operator-stream preview.
func (c *Chain) extractPDF(ctx context.Context, file File, ext *Extraction) (string, error) {
	if c.caps.PDF == nil {
		return "", &CapabilityUnavailableError{Family: FamilyPDF}
	}

	src, err := openPages(c.caps.PDF, file.Data)
	if err != nil {
		return "", &ExtractionError{Family: FamilyPDF, Path: file.Name, Message: "failed to open document", Cause: err}
	}

	pages := safeNumPages(src)
	ext.Pages = pages

	var texts []string
	var lastErr error
	for pageNr := 1; pageNr <= pages; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", &ExtractionError{Family: FamilyPDF, Path: file.Name, Message: "extraction cancelled", Cause: err}
		}

		text, err := safePageText(src, pageNr)
		if err != nil {
			lastErr = err
			ext.Warnings = append(ext.Warnings, fmt.Sprintf("page %d: %v", pageNr, err))
			c.logger.Warn("page extraction failed, continuing",
				zap.String("file", file.Name), zap.Int("page", pageNr), zap.Error(err))
			continue
		}

		if strings.TrimSpace(text) == "" {
			text = c.operatorFallback(src, file.Name, pageNr, ext)
		}
		if text != "" {
			texts = append(texts, text)
		}
	}

	if len(texts) == 0 {
		cause := lastErr
		if cause == nil {
			cause = errors.New("no text content found")
		}
		return "", &ExtractionError{Family: FamilyPDF, Path: file.Name, Message: "no page produced text", Cause: cause}
	}
	return strings.Join(texts, "\n"), nil
}

func (c *Chain) operatorFallback(src PageSource, name string, pageNr int, ext *Extraction) string {
	ops, err := safePageOperators(src, pageNr)
	if err != nil {
		ext.Warnings = append(ext.Warnings, fmt.Sprintf("page %d: operator fallback: %v", pageNr, err))
		c.logger.Warn("operator fallback failed",
			zap.String("file", name), zap.Int("page", pageNr), zap.Error(err))
		return ""
	}
	ops = strings.TrimSpace(ops)
	if ops == "" {
		return ""
	}
	ext.Warnings = append(ext.Warnings, fmt.Sprintf("page %d: no text runs, used operator stream", pageNr))
	c.logger.Debug("page has no text runs, using operator stream",
		zap.String("file", name), zap.Int("page", pageNr))
	return truncateRunes(ops, operatorPreviewLimit)
}

// extractDocx uses the docx provider and falls back to the generic path on
// error or empty text.
func (c *Chain) extractDocx(file File, ext *Extraction) (string, error) {
	if c.caps.Docx == nil {
		return "", &CapabilityUnavailableError{Family: FamilyDocx}
	}

	text, err := safeDocxText(c.caps.Docx, file.Data)
	switch {
	case err != nil:
		ext.Warnings = append(ext.Warnings, fmt.Sprintf("docx provider failed: %v", err))
		c.logger.Warn("docx extraction failed, using generic path",
			zap.String("file", file.Name), zap.Error(err))
	case strings.TrimSpace(text) == "":
		ext.Warnings = append(ext.Warnings, "docx provider returned no text")
		c.logger.Warn("docx extraction returned no text, using generic path",
			zap.String("file", file.Name))
	default:
		return text, nil
	}

	ext.Family = FamilyGeneric
	return c.extractGeneric(file)
}

func (c *Chain) extractLegacy(file File) (string, error) {
	text, err := decodeLegacyText(file.Data)
	if err != nil {
		return "", &ExtractionError{Family: FamilyLegacy, Path: file.Name, Message: "legacy decode failed", Cause: err}
	}
	return text, nil
}

// extractGeneric tries a strict text decode, then the legacy best-effort path
func (c *Chain) extractGeneric(file File) (string, error) {
	text, err := decodeStrictText(file.Data)
	if err == nil {
		return text, nil
	}
	c.logger.Debug("plain text decode failed, using legacy decode",
		zap.String("file", file.Name), zap.Error(err))

	text, legacyErr := decodeLegacyText(file.Data)
	if legacyErr != nil {
		return "", &ExtractionError{
			Family:  FamilyGeneric,
			Path:    file.Name,
			Message: "no strategy produced text",
			Cause:   errors.Join(err, legacyErr),
		}
	}
	return text, nil
}

// The helpers below isolate provider calls so a panicking backend only
// affects the unit of work it was called for.

func openPages(p PDFProvider, data []byte) (src PageSource, err error) {
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("pdf provider panicked: %v", r)
		}
	}()
	src, err = p.Open(data)
	if err == nil && src == nil {
		err = errors.New("pdf provider returned no document")
	}
	return src, err
}

func safeNumPages(src PageSource) (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	return src.NumPages()
}

func safePageText(src PageSource, pageNr int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("panicked: %v", r)
		}
	}()
	return src.PageText(pageNr)
}

func safePageOperators(src PageSource, pageNr int) (ops string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ops, err = "", fmt.Errorf("panicked: %v", r)
		}
	}()
	return src.PageOperators(pageNr)
}

func safeDocxText(p DocxProvider, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("docx provider panicked: %v", r)
		}
	}()
	return p.ExtractText(data)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
