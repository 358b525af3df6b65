package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// LedongthucPDF reads page text runs with ledongthuc/pdf and falls back to
// pdfcpu for the raw content stream of pages without text.
type LedongthucPDF struct{}

// Open parses data as a PDF document
func (LedongthucPDF) Open(data []byte) (src PageSource, err error) {
	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			src = nil
			err = fmt.Errorf("pdf reader panicked: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &pdfDocument{reader: reader, data: data}, nil
}

type pdfDocument struct {
	reader *pdf.Reader
	data   []byte

	streamOnce sync.Once
	streamCtx  *model.Context
	streamErr  error
}

func (d *pdfDocument) NumPages() (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	return d.reader.NumPage()
}

func (d *pdfDocument) PageText(pageNr int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page %d: text extraction panicked: %v", pageNr, r)
		}
	}()

	page := d.reader.Page(pageNr)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", pageNr)
	}
	return joinTextRuns(page.Content().Text), nil
}

// PageOperators returns the page's decoded content stream as read by pdfcpu.
// The pdfcpu context is built once, on first use.
func (d *pdfDocument) PageOperators(pageNr int) (ops string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ops = ""
			err = fmt.Errorf("page %d: content stream read panicked: %v", pageNr, r)
		}
	}()

	d.streamOnce.Do(func() {
		d.streamCtx, d.streamErr = api.ReadValidateAndOptimize(bytes.NewReader(d.data), model.NewDefaultConfiguration())
	})
	if d.streamErr != nil {
		return "", fmt.Errorf("pdfcpu read: %w", d.streamErr)
	}

	r, err := pdfcpu.ExtractPageContent(d.streamCtx, pageNr)
	if err != nil {
		return "", fmt.Errorf("page %d: extract content: %w", pageNr, err)
	}
	if r == nil {
		return "", nil
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("page %d: read content: %w", pageNr, err)
	}
	return string(content), nil
}

// joinTextRuns concatenates positioned text runs. A change in baseline starts
// a new line and a horizontal gap wider than a fraction of the font size
// inserts a space.
func joinTextRuns(runs []pdf.Text) string {
	var b strings.Builder
	var prev *pdf.Text

	for i := range runs {
		run := &runs[i]
		if run.S == "" {
			continue
		}
		if prev != nil {
			switch {
			case math.Abs(run.Y-prev.Y) > 1:
				b.WriteByte('\n')
			case run.X-(prev.X+prev.W) > prev.FontSize*0.2 && !endsWithSpace(prev.S) && !strings.HasPrefix(run.S, " "):
				b.WriteByte(' ')
			}
		}
		b.WriteString(run.S)
		prev = run
	}

	return strings.TrimSpace(b.String())
}

func endsWithSpace(s string) bool {
	return strings.HasSuffix(s, " ")
}
