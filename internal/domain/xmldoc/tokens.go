package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Kind int

const (
	KindStart Kind = iota
	KindEnd
	KindText
	KindComment
	KindOther
)

// Token is a decoded token together with the raw byte range it occupies in
// the source document.
type Token struct {
	Kind  Kind
	Name  string
	Attr  []xml.Attr
	Start int
	End   int
	Depth int
	// Match is the index of the paired end token for a start token.
	Match int
}

// Span is a half-open byte range.
type Span struct {
	Start int
	End   int
}

// Tokenize walks the document and records byte offsets for every token.
// Only UTF-8 documents are accepted since offsets must address the input
// bytes directly.
func Tokenize(data []byte) ([]Token, error) {
	if err := CheckWellFormed(data); err != nil {
		return nil, err
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = utf8Only

	var (
		toks  []Token
		stack []int
	)
	for {
		start := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Malformed(err)
		}
		end := int(dec.InputOffset())
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, len(toks))
			toks = append(toks, Token{Kind: KindStart, Name: t.Name.Local, Attr: t.Copy().Attr, Start: start, End: end, Depth: len(stack) - 1, Match: -1})
		case xml.EndElement:
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			toks[open].Match = len(toks)
			toks = append(toks, Token{Kind: KindEnd, Name: t.Name.Local, Start: start, End: end, Depth: len(stack), Match: open})
		case xml.CharData:
			toks = append(toks, Token{Kind: KindText, Start: start, End: end, Depth: len(stack), Match: -1})
		case xml.Comment:
			toks = append(toks, Token{Kind: KindComment, Start: start, End: end, Depth: len(stack), Match: -1})
		default:
			toks = append(toks, Token{Kind: KindOther, Start: start, End: end, Depth: len(stack), Match: -1})
		}
	}
	return toks, nil
}

func utf8Only(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	}
	return nil, fmt.Errorf("encoding %q is not supported for in-place editing", label)
}

// AttrValueSpans returns the byte ranges of the quoted attribute values
// inside a raw start tag.
func AttrValueSpans(raw []byte, base int) []Span {
	var spans []Span
	for i := 0; i < len(raw); i++ {
		q := raw[i]
		if q != '"' && q != '\'' {
			continue
		}
		j := bytes.IndexByte(raw[i+1:], q)
		if j < 0 {
			break
		}
		spans = append(spans, Span{Start: base + i + 1, End: base + i + 1 + j})
		i += j + 1
	}
	return spans
}

// ErrNoSpan is returned when an edit does not fit inside the document.
var ErrNoSpan = errors.New("edit outside document")

// Edit replaces the bytes of Span with Text.
type Edit struct {
	Span
	Text string
}

// ApplyEdits rewrites data with non-overlapping edits sorted by offset.
// Bytes outside the edits are copied unchanged.
func ApplyEdits(data []byte, edits []Edit) ([]byte, error) {
	var out bytes.Buffer
	out.Grow(len(data))
	pos := 0
	for _, e := range edits {
		if e.Start < pos || e.End > len(data) || e.Start > e.End {
			return nil, ErrNoSpan
		}
		out.Write(data[pos:e.Start])
		out.WriteString(e.Text)
		pos = e.End
	}
	out.Write(data[pos:])
	return out.Bytes(), nil
}
