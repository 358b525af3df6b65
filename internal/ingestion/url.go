package ingestion

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jonathan/resume-analyzer/internal/fetch"
	"github.com/jonathan/resume-analyzer/internal/logger"
	"go.uber.org/zap"
)

var (
	// ErrInvalidURL is returned when URL is malformed
	ErrInvalidURL = errors.New("invalid URL")
	// ErrHTTPRequestFailed is returned when HTTP request fails
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when an HTML page yields no text
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// FetchOptions configures FetchFile
type FetchOptions struct {
	// UseBrowser renders pages with too little static text in headless Chrome
	UseBrowser bool
	Timeout    time.Duration
	MaxBytes   int64
	Logger     *zap.Logger
}

// FetchFile downloads a hosted resume and returns it as a File ready for a
// Chain. Share links from known hosts are rewritten to direct downloads first.
// Binary documents keep their bytes and server-provided name; HTML pages are
// reduced to their main text and named <base>.txt so they take the text path.
func FetchFile(ctx context.Context, urlStr string, opts FetchOptions) (File, *Metadata, error) {
	log := logger.WithStage(opts.Logger, logger.StageParse)

	if strings.TrimSpace(urlStr) == "" {
		return File{}, nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	platform := fetch.DetectPlatform(urlStr)
	downloadURL := fetch.DownloadURL(urlStr)
	log.Debug("fetching resume",
		zap.String("url", urlStr),
		zap.String("download_url", downloadURL),
		zap.String("platform", string(platform)))

	fetchOpts := fetch.DefaultOptions()
	if opts.Timeout > 0 {
		fetchOpts.Timeout = opts.Timeout
	}
	if opts.MaxBytes > 0 {
		fetchOpts.MaxBytes = opts.MaxBytes
	}

	result, err := fetch.URL(ctx, downloadURL, fetchOpts)
	if err != nil {
		var fetchErr *fetch.Error
		if errors.As(err, &fetchErr) && fetchErr.Message == "invalid URL" {
			return File{}, nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
		}
		return File{}, nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	var file File
	if result.IsHTML() {
		text, err := pageText(ctx, urlStr, result, platform, opts, log)
		if err != nil {
			return File{}, nil, err
		}
		file = File{Name: htmlFilename(result.Filename), Data: []byte(text)}
	} else {
		name := result.Filename
		if name == "" {
			name = "resume"
		}
		file = File{Name: name, Data: result.Body}
	}

	metadata := NewMetadata(file, DetectFamily(file.Name))
	metadata.URL = urlStr
	log.Info("fetched resume",
		zap.String("url", urlStr),
		zap.String("filename", file.Name),
		zap.Int64("bytes", file.Size()))
	return file, metadata, nil
}

// pageText extracts the main text of an HTML result, re-rendering in a browser
// when the static page looks like a client-side app.
func pageText(ctx context.Context, urlStr string, result *fetch.Result, platform fetch.Platform, opts FetchOptions, log *zap.Logger) (string, error) {
	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	text, err := fetch.ExtractMainText(result.HTML(), contentSelectors, noiseSelectors...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	if opts.UseBrowser && fetch.ShouldUseBrowser(text) {
		log.Info("page text too short, rendering in browser",
			zap.Int("chars", len(text)),
			zap.Int("min_chars", fetch.MinContentLength))

		rendered, browserErr := fetch.WithBrowser(ctx, urlStr, opts.Timeout, log)
		if browserErr != nil {
			// keep the static text
			log.Warn("browser rendering failed", zap.Error(browserErr))
		} else if browserText, err := fetch.ExtractMainText(rendered, contentSelectors, noiseSelectors...); err == nil {
			text = browserText
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: page has no text", ErrContentExtractionFailed)
	}
	return text, nil
}

func htmlFilename(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" {
		base = "resume"
	}
	return base + ".txt"
}
