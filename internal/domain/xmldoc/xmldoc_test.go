//go:build !integration

package xmldoc_test

import (
	"errors"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmldoc"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CheckWellFormed", func() {
	DescribeTable("rejects malformed documents",
		func(doc string) {
			err := xmldoc.CheckWellFormed([]byte(doc))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, workflow.ErrMalformedXML)).To(BeTrue())
			Expect(workflow.IsMalformedXML(err)).To(BeTrue())
		},
		Entry("unclosed element", "<a><b></a>"),
		Entry("truncated document", "<a><b>"),
		Entry("two roots", "<a/><b/>"),
		Entry("empty input", ""),
		Entry("bad attribute", `<a x=1/>`),
	)

	It("accepts a declaration, comments and a single root", func() {
		doc := `<?xml version="1.0" encoding="UTF-8"?>
<!-- header -->
<root a="1"><child>text</child></root>
`
		Expect(xmldoc.CheckWellFormed([]byte(doc))).To(Succeed())
	})

	It("reports the line of a syntax error", func() {
		err := xmldoc.CheckWellFormed([]byte("<a>\n<b>\n</c>\n</a>"))
		var malformed *workflow.MalformedXMLError
		Expect(errors.As(err, &malformed)).To(BeTrue())
		Expect(malformed.Line).To(Equal(3))
	})

	It("decodes a legacy charset", func() {
		doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><a>caf\xe9</a>")
		Expect(xmldoc.CheckWellFormed(doc)).To(Succeed())
	})
})

var _ = Describe("RootName", func() {
	It("returns the document element", func() {
		name, err := xmldoc.RootName([]byte(`<?xml version="1.0"?><AlteryxDocument/>`))
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("AlteryxDocument"))
	})
})

var _ = Describe("Tokenize", func() {
	doc := []byte(`<r><n id="1">a<!-- c --><![CDATA[x<y]]></n><n id="2"/></r>`)

	It("records byte ranges that address the source", func() {
		toks, err := xmldoc.Tokenize(doc)
		Expect(err).NotTo(HaveOccurred())
		for _, t := range toks {
			Expect(t.Start).To(BeNumerically("<=", t.End))
			Expect(t.End).To(BeNumerically("<=", len(doc)))
		}
		Expect(string(doc[toks[1].Start:toks[1].End])).To(Equal(`<n id="1">`))
		Expect(toks[2].Kind).To(Equal(xmldoc.KindText))
		Expect(string(doc[toks[2].Start:toks[2].End])).To(Equal("a"))
		Expect(toks[3].Kind).To(Equal(xmldoc.KindComment))
		Expect(string(doc[toks[4].Start:toks[4].End])).To(Equal("<![CDATA[x<y]]>"))
	})

	It("pairs start and end tokens", func() {
		toks, err := xmldoc.Tokenize(doc)
		Expect(err).NotTo(HaveOccurred())
		for i, t := range toks {
			if t.Kind == xmldoc.KindStart {
				Expect(toks[t.Match].Kind).To(Equal(xmldoc.KindEnd))
				Expect(toks[t.Match].Match).To(Equal(i))
				Expect(toks[t.Match].Depth).To(Equal(t.Depth))
			}
		}
	})

	It("refuses documents in other encodings", func() {
		_, err := xmldoc.Tokenize([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><a/>`))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("AttrValueSpans", func() {
	It("locates quoted values", func() {
		raw := []byte(`<n a="1" b='two'>`)
		spans := xmldoc.AttrValueSpans(raw, 10)
		Expect(spans).To(Equal([]xmldoc.Span{{Start: 16, End: 17}, {Start: 22, End: 25}}))
	})
})

var _ = Describe("ApplyEdits", func() {
	It("copies untouched bytes", func() {
		out, err := xmldoc.ApplyEdits([]byte("abcdef"), []xmldoc.Edit{
			{Span: xmldoc.Span{Start: 1, End: 2}, Text: "XX"},
			{Span: xmldoc.Span{Start: 4, End: 4}, Text: "-"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("aXXcd-ef"))
	})

	It("rejects overlapping edits", func() {
		_, err := xmldoc.ApplyEdits([]byte("abcdef"), []xmldoc.Edit{
			{Span: xmldoc.Span{Start: 1, End: 3}},
			{Span: xmldoc.Span{Start: 2, End: 4}},
		})
		Expect(err).To(MatchError(xmldoc.ErrNoSpan))
	})
})
