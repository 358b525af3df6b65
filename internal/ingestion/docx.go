package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

// ZipDocx reads paragraph text from word/document.xml inside a .docx archive
type ZipDocx struct{}

// ExtractText returns one line per non-empty paragraph
func (ZipDocx) ExtractText(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == docxBodyPart {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("%s not found in archive", docxBodyPart)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
	}
	defer func() { _ = rc.Close() }()

	return readDocxParagraphs(rc)
}

// WordprocessingML namespaces, transitional and strict
var wordNamespaces = map[string]bool{
	"http://schemas.openxmlformats.org/wordprocessingml/2006/main": true,
	"http://purl.oclc.org/ooxml/wordprocessingml/main":             true,
}

// openParagraph is a w:p being read; slot is its position in the output so
// paragraphs keep document order even when nested in text boxes.
type openParagraph struct {
	slot int
	text strings.Builder
}

func readDocxParagraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var paragraphs []string
	var stack []*openParagraph
	inText := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !wordNamespaces[t.Name.Space] {
				continue
			}
			switch t.Name.Local {
			case "p":
				stack = append(stack, &openParagraph{slot: len(paragraphs)})
				paragraphs = append(paragraphs, "")
			case "t":
				inText = len(stack) > 0
			case "tab":
				if len(stack) > 0 {
					stack[len(stack)-1].text.WriteByte(' ')
				}
			case "br", "cr":
				if len(stack) > 0 {
					stack[len(stack)-1].text.WriteByte('\n')
				}
			}

		case xml.CharData:
			if inText {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			if !wordNamespaces[t.Name.Space] {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if len(stack) == 0 {
					continue
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				paragraphs[top.slot] = strings.TrimSpace(top.text.String())
				inText = false
			}
		}
	}

	out := paragraphs[:0]
	for _, p := range paragraphs {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n"), nil
}
