package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	wordNamespace   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	documentPart    = "word/document.xml"
	maxDocumentPart = 64 << 20
)

// extractDOCX returns the text of every paragraph directly under the document
// body, one per line. Empty paragraphs are kept so blank lines survive.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", errors.New("docx archive has no " + documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", documentPart, err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(io.LimitReader(rc, maxDocumentPart))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", documentPart, err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		stack      []string
		paragraphs []string
		current    strings.Builder
		inPara     bool
		paraDepth  int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch el := tok.(type) {
		case xml.StartElement:
			local := wordLocal(el.Name)
			if local == "p" && !inPara && len(stack) > 0 && stack[len(stack)-1] == "body" {
				inPara = true
				paraDepth = len(stack)
				current.Reset()
			} else if inPara && isRunChild(stack, paraDepth) {
				switch {
				case local == "t":
					inText = true
				case local == "tab":
					current.WriteByte('\t')
				case local == "cr", local == "br" && isLineBreak(el):
					current.WriteByte('\n')
				}
			}
			stack = append(stack, local)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, errors.New("unbalanced document xml")
			}
			stack = stack[:len(stack)-1]
			local := wordLocal(el.Name)
			if local == "t" {
				inText = false
			}
			if inPara && local == "p" && len(stack) == paraDepth {
				paragraphs = append(paragraphs, current.String())
				inPara = false
			}
		case xml.CharData:
			if inPara && inText {
				current.Write(el)
			}
		}
	}

	if len(stack) != 0 {
		return nil, errors.New("truncated document xml")
	}
	return paragraphs, nil
}

// isRunChild reports whether the next element is a direct child of a run that
// belongs to the current paragraph, either directly or through a hyperlink.
func isRunChild(stack []string, paraDepth int) bool {
	n := len(stack)
	if n == 0 || stack[n-1] != "r" {
		return false
	}
	switch n {
	case paraDepth + 2:
		return true
	case paraDepth + 3:
		return stack[paraDepth+1] == "hyperlink"
	default:
		return false
	}
}

// wordLocal returns the local name of WordprocessingML elements and a marker
// for anything from another namespace so it never matches.
func wordLocal(name xml.Name) string {
	if name.Space != wordNamespace {
		return "\x00" + name.Local
	}
	return name.Local
}

// isLineBreak reports whether a w:br is a text-wrapping break; page and
// column breaks carry no text.
func isLineBreak(el xml.StartElement) bool {
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" {
			return attr.Value == "" || attr.Value == "textWrapping"
		}
	}
	return true
}
