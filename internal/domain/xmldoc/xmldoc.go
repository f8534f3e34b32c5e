// Package xmldoc holds the XML plumbing shared by the format parsers and the
// surgical editor: strict decoding, well-formedness checks and a raw token
// walk that keeps byte offsets into the original document.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"golang.org/x/text/encoding/htmlindex"
)

// NewDecoder returns a strict decoder. Documents declaring a legacy charset
// are transcoded to UTF-8.
func NewDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charsetReader
	return dec
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// CheckWellFormed consumes the whole document and returns a
// *workflow.MalformedXMLError describing the first violation.
func CheckWellFormed(data []byte) error {
	dec := NewDecoder(bytes.NewReader(data))
	depth := 0
	roots := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Malformed(err)
		}
		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					line, _ := dec.InputPos()
					return &workflow.MalformedXMLError{Line: line, Offset: dec.InputOffset(), Err: errors.New("multiple root elements")}
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if roots == 0 {
		return &workflow.MalformedXMLError{Err: errors.New("no root element")}
	}
	return nil
}

// Malformed converts a decoder error into a *workflow.MalformedXMLError.
func Malformed(err error) error {
	if err == nil {
		return nil
	}
	var already *workflow.MalformedXMLError
	if errors.As(err, &already) {
		return err
	}
	out := &workflow.MalformedXMLError{Err: err}
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		out.Line = syntax.Line
		out.Err = errors.New(syntax.Msg)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		out.Err = errors.New("unexpected end of document")
	}
	return out
}

// RootName returns the local name of the document element.
func RootName(data []byte) (string, error) {
	dec := NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return "", &workflow.MalformedXMLError{Err: errors.New("no root element")}
			}
			return "", Malformed(err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// Attr returns the value of the first attribute with the given local name.
func Attr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Escape returns s with XML special characters escaped.
func Escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
