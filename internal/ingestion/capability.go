package ingestion

// PDFProvider opens paginated documents
type PDFProvider interface {
	Open(data []byte) (PageSource, error)
}

// PageSource gives page-by-page access to an opened paginated document.
// Pages are numbered from 1.
type PageSource interface {
	NumPages() int
	// PageText returns the page's positioned text runs, lines separated by "\n"
	PageText(page int) (string, error)
	// PageOperators returns a textual dump of the page's drawing operators.
	// Used as a low-fidelity fallback when a page has no text runs.
	PageOperators(page int) (string, error)
}

// DocxProvider extracts paragraph text from rich office documents
type DocxProvider interface {
	ExtractText(data []byte) (string, error)
}

// Capabilities holds the parsing backends available to a Chain.
// A nil provider makes its family fail with CapabilityUnavailableError.
type Capabilities struct {
	PDF  PDFProvider
	Docx DocxProvider
}

// DefaultCapabilities returns the built-in providers
func DefaultCapabilities() Capabilities {
	return Capabilities{
		PDF:  LedongthucPDF{},
		Docx: ZipDocx{},
	}
}
