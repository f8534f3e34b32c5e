//go:build !integration

package xmledit_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmledit"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const template = `<?xml version="1.0"?>
<AlteryxDocument yxmdVer="2023.1">
  <Nodes>
    <Node ToolID="1">
      <GuiSettings Plugin="AlteryxBasePluginsGui.DbFileInput.DbFileInput"><Position x="54" y="54" /></GuiSettings>
      <Properties>
        <Configuration>
          <File FileFormat="23">old-srv.corp:1433|||SELECT * FROM t WHERE d &gt;= '2024-01-15'</File>
        </Configuration>
      </Properties>
    </Node>
    <Node ToolID="2">
      <Properties>
        <Configuration>
          <Expression>[d] &lt; '2024-01-15'</Expression>
          <!-- 2023-12-31 stays -->
          <Period Value="03/2024" />
        </Configuration>
      </Properties>
    </Node>
    <Node ToolID="3">
      <Properties>
        <Configuration><Expression>'2024-01-15'</Expression></Configuration>
      </Properties>
    </Node>
  </Nodes>
</AlteryxDocument>
`

var target = &dates.Target{Year: 2025, Month: 7}

var _ = Describe("Editor", func() {
	var editor *xmledit.Editor

	BeforeEach(func() {
		editor = xmledit.NewEditor(slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	DescribeTable("rewrites each date form in place",
		func(literal, replacement string) {
			doc := `<Doc><Node ToolID="7"><Value>from ` + literal + ` on</Value></Node><Node ToolID="8"><Value>` + literal + `</Value></Node></Doc>`

			res, err := editor.Apply([]byte(doc), xmledit.Rules{DateNodes: []string{"7"}, Date: target})

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Text).To(Equal(strings.Replace(doc, literal, replacement, 1)))
			Expect(res.Stats.Dates).To(Equal(1))
			Expect(res.Stats.NodesModified).To(Equal(1))
		},
		Entry("YYYY-MM-DD", "2024-01-15", "2025-07-01"),
		Entry("DD/MM/YYYY", "15/01/2024", "01/07/2025"),
		Entry("YYYY-MM", "2024-01", "2025-07"),
		Entry("MM/YYYY", "01/2024", "07/2025"),
		Entry("MM-YYYY", "01-2024", "07-2025"),
	)

	It("edits text and attribute values but not comments", func() {
		res, err := editor.Apply([]byte(template), xmledit.Rules{DateNodes: []string{"2"}, Date: target})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(ContainSubstring(`[d] &lt; '2025-07-01'`))
		Expect(res.Text).To(ContainSubstring(`<Period Value="07/2025" />`))
		Expect(res.Text).To(ContainSubstring(`<!-- 2023-12-31 stays -->`))
		Expect(res.Stats.Dates).To(Equal(2))
	})

	It("leaves nodes outside the rules untouched", func() {
		res, err := editor.Apply([]byte(template), xmledit.Rules{DateNodes: []string{"2"}, Date: target})

		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(res.Text, "2024-01-15")).To(Equal(2))
		idx := strings.Index(template, `<Node ToolID="3">`)
		Expect(res.Text[len(res.Text)-(len(template)-idx):]).To(Equal(template[idx:]))
		Expect(res.Text[:strings.Index(template, `<Node ToolID="2">`)]).To(Equal(template[:strings.Index(template, `<Node ToolID="2">`)]))
	})

	It("replaces the server part of a connection string", func() {
		res, err := editor.Apply([]byte(template), xmledit.Rules{ServerNodes: []string{"1"}, Server: "new&srv:1433"})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(ContainSubstring(`>new&amp;srv:1433|||SELECT * FROM t WHERE d &gt;= '2024-01-15'</File>`))
		Expect(res.Stats.Servers).To(Equal(1))
		Expect(res.Changes).To(HaveLen(1))
		Expect(res.Changes[0].Old).To(Equal("old-srv.corp:1433"))
	})

	It("fills in an empty server part", func() {
		doc := `<Doc><Node ToolID="1"><File>|||SELECT 1</File></Node></Doc>`

		res, err := editor.Apply([]byte(doc), xmledit.Rules{ServerNodes: []string{"1", "1"}, Server: "dw01"})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(Equal(`<Doc><Node ToolID="1"><File>dw01|||SELECT 1</File></Node></Doc>`))
		Expect(res.Stats.Servers).To(Equal(1))
		Expect(res.Changes[0].Old).To(BeEmpty())
	})

	It("finds File elements nested below the configuration", func() {
		doc := `<Doc><Node ToolID="1"><Properties><Configuration><Connection><File> srv|||t</File></Connection></Configuration></Properties></Node></Doc>`

		res, err := editor.Apply([]byte(doc), xmledit.Rules{ServerNodes: []string{"1"}, Server: "dw01"})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(ContainSubstring(`<File> dw01|||t</File>`))
		Expect(res.Stats.Servers).To(Equal(1))
	})

	It("applies date and server rules to the same node", func() {
		res, err := editor.Apply([]byte(template), xmledit.Rules{
			DateNodes:   []string{"1"},
			ServerNodes: []string{"1"},
			Date:        target,
			Server:      "dw01",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(ContainSubstring(`>dw01|||SELECT * FROM t WHERE d &gt;= '2025-07-01'</File>`))
		Expect(res.Stats).To(Equal(xmledit.Stats{Dates: 1, Servers: 1, NodesModified: 1}))
	})

	It("restricts rewriting to the requested forms", func() {
		res, err := editor.Apply([]byte(template), xmledit.Rules{
			DateNodes: []string{"2"},
			Date:      target,
			Forms:     []dates.Form{dates.FormMonthYearSlash},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(ContainSubstring(`[d] &lt; '2024-01-15'`))
		Expect(res.Text).To(ContainSubstring(`Value="07/2025"`))
	})

	It("warns about missing targets and returns the document unchanged", func() {
		res, err := editor.Apply([]byte(template), xmledit.Rules{DateNodes: []string{"99"}, Date: target})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(Equal(template))
		Expect(res.Warnings).To(HaveLen(1))
		Expect(errors.Is(res.Warnings[0], workflow.ErrRuleTargetNotFound)).To(BeTrue())
		Expect(xmledit.IsRuleTargetNotFound(res.Warnings[0])).To(BeTrue())
		Expect(res.WarningMessages()[0]).To(ContainSubstring(`"99"`))
	})

	It("keeps processing the other rules after a missing target", func() {
		res, err := editor.Apply([]byte(template), xmledit.Rules{DateNodes: []string{"99", "3"}, Date: target})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Warnings).To(HaveLen(1))
		Expect(res.Stats.Dates).To(Equal(1))
	})

	It("edits every node sharing a duplicated id once", func() {
		doc := `<Doc><Node ToolID="4">2024-02</Node><Node ToolID="4">2024-03</Node></Doc>`

		res, err := editor.Apply([]byte(doc), xmledit.Rules{DateNodes: []string{"4", "4"}, Date: target})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(Equal(`<Doc><Node ToolID="4">2025-07</Node><Node ToolID="4">2025-07</Node></Doc>`))
		Expect(res.Stats.Dates).To(Equal(2))
	})

	It("addresses ODI steps by name", func() {
		doc := `<OdiPackage><Steps><Step Name="LOAD"><Command>WHERE m = '02-2024'</Command></Step></Steps></OdiPackage>`

		res, err := editor.Apply([]byte(doc), xmledit.Rules{DateNodes: []string{"LOAD"}, Date: target})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(ContainSubstring("'07-2025'"))
	})

	It("does not reach into nested nodes", func() {
		doc := `<Doc><Node ToolID="1"><C>2024-01</C><ChildNodes><Node ToolID="2"><C>2024-01</C></Node></ChildNodes></Node></Doc>`

		res, err := editor.Apply([]byte(doc), xmledit.Rules{DateNodes: []string{"1"}, Date: target})

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Text).To(Equal(`<Doc><Node ToolID="1"><C>2025-07</C><ChildNodes><Node ToolID="2"><C>2024-01</C></Node></ChildNodes></Node></Doc>`))
	})

	It("rejects malformed documents", func() {
		_, err := editor.Apply([]byte(`<Doc><Node ToolID="1">`), xmledit.Rules{DateNodes: []string{"1"}, Date: target})

		Expect(workflow.IsMalformedXML(err)).To(BeTrue())
	})

	DescribeTable("rejects incomplete rules",
		func(rules xmledit.Rules) {
			_, err := editor.Apply([]byte(template), rules)
			Expect(err).To(HaveOccurred())
		},
		Entry("date nodes without a date", xmledit.Rules{DateNodes: []string{"1"}}),
		Entry("invalid month", xmledit.Rules{DateNodes: []string{"1"}, Date: &dates.Target{Year: 2024, Month: 0}}),
		Entry("server nodes without a server", xmledit.Rules{ServerNodes: []string{"1"}}),
	)
})
