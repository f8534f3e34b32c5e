//go:build !integration

package alteryx_test

import (
	"errors"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/alteryx"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const sampleWorkflow = `<?xml version="1.0"?>
<AlteryxDocument yxmdVer="2023.1">
  <Nodes>
    <Node ToolID="1">
      <GuiSettings Plugin="AlteryxBasePluginsGui.DbFileInput.DbFileInput">
        <Position x="54" y="66.5" />
      </GuiSettings>
      <Properties>
        <Configuration>
          <File OutputFileName="" FileFormat="23">srv.corp.local|||SELECT * FROM sales WHERE d = '2024-01-31'</File>
        </Configuration>
        <Annotation DisplayMode="0">
          <Name />
          <DefaultAnnotationText>Read sales</DefaultAnnotationText>
        </Annotation>
      </Properties>
    </Node>
    <Node ToolID="2">
      <GuiSettings Plugin="AlteryxBasePluginsGui.Filter.Filter">
        <Position x="150" y="66" />
      </GuiSettings>
      <Properties>
        <Configuration>
          <Mode>Custom</Mode>
          <Expression>[Amount] &gt; 0</Expression>
        </Configuration>
        <Annotation DisplayMode="0">
          <Name>Positive amounts</Name>
        </Annotation>
      </Properties>
    </Node>
    <Node ToolID="10">
      <GuiSettings Plugin="AlteryxGuiToolkit.ToolContainer.ToolContainer" />
      <Properties><Configuration><Caption>Group</Caption></Configuration></Properties>
      <ChildNodes>
        <Node ToolID="3">
          <GuiSettings Plugin="AlteryxBasePluginsGui.DbFileOutput.DbFileOutput">
            <Position x="250" y="66" />
          </GuiSettings>
          <Properties>
            <Configuration><File>out.csv</File></Configuration>
          </Properties>
        </Node>
      </ChildNodes>
    </Node>
  </Nodes>
  <Connections>
    <Connection>
      <Origin ToolID="1" Connection="Output" />
      <Destination ToolID="2" Connection="Input" />
    </Connection>
    <Connection>
      <Origin ToolID="2" Connection="True" />
      <Destination ToolID="3" Connection="Input" />
    </Connection>
  </Connections>
  <Properties>
    <MetaInfo>
      <Name>Monthly sales</Name>
      <Description>Loads sales</Description>
      <Author>ops</Author>
    </MetaInfo>
    <Constants>
      <Constant><Name>Region</Name><Value>EMEA</Value></Constant>
    </Constants>
  </Properties>
</AlteryxDocument>
`

var _ = Describe("Parse", func() {
	var wf *workflow.Workflow

	BeforeEach(func() {
		var err error
		wf, err = alteryx.Parse([]byte(sampleWorkflow))
		Expect(err).NotTo(HaveOccurred())
	})

	It("flattens nodes in document order", func() {
		ids := make([]string, len(wf.Nodes))
		for i, n := range wf.Nodes {
			ids[i] = n.ToolID
		}
		Expect(ids).To(Equal([]string{"1", "2", "10", "3"}))
	})

	It("reads plugin, position and annotation", func() {
		n, ok := wf.Node("1")
		Expect(ok).To(BeTrue())
		Expect(workflow.ShortPlugin(n.Plugin)).To(Equal("DbFileInput"))
		Expect(n.Position).To(Equal(workflow.Position{X: 54, Y: 66}))
		Expect(n.Annotation).To(Equal("Read sales"))

		n, _ = wf.Node("2")
		Expect(n.Annotation).To(Equal("Positive amounts"))
	})

	It("keeps configuration fields and the raw payload", func() {
		n, _ := wf.Node("2")
		expr, ok := n.Configuration.Get("Expression")
		Expect(ok).To(BeTrue())
		Expect(expr).To(Equal("[Amount] > 0"))
		Expect(n.Configuration.Raw).To(ContainSubstring("<Mode>Custom</Mode>"))

		n, _ = wf.Node("1")
		file, _ := n.Configuration.Get("File")
		Expect(file).To(HavePrefix("srv.corp.local|||"))
	})

	It("reads connections with their ports", func() {
		Expect(wf.Connections).To(Equal([]workflow.Edge{
			{From: "1", FromPort: "Output", To: "2", ToPort: "Input"},
			{From: "2", FromPort: "True", To: "3", ToPort: "Input"},
		}))
	})

	It("reads metadata and constants", func() {
		Expect(wf.Property("name")).To(Equal("Monthly sales"))
		Expect(wf.Property("author")).To(Equal("ops"))
		Expect(wf.Property("version")).To(Equal("2023.1"))
		Expect(wf.Constants).To(Equal([]workflow.Constant{{Name: "Region", Value: "EMEA"}}))
	})
})

var _ = Describe("Parse errors", func() {
	It("reports malformed XML", func() {
		_, err := alteryx.Parse([]byte(`<AlteryxDocument><Nodes></AlteryxDocument>`))
		Expect(workflow.IsMalformedXML(err)).To(BeTrue())
	})

	It("reports a foreign root element", func() {
		_, err := alteryx.Parse([]byte(`<OdiPackage><Steps/></OdiPackage>`))
		Expect(errors.Is(err, workflow.ErrUnsupportedWorkflow)).To(BeTrue())
		var unsupported *workflow.UnsupportedWorkflowError
		Expect(errors.As(err, &unsupported)).To(BeTrue())
		Expect(unsupported.Root).To(Equal("OdiPackage"))
	})

	It("reports a document without nodes", func() {
		_, err := alteryx.Parse([]byte(`<AlteryxDocument><Connections/></AlteryxDocument>`))
		Expect(workflow.IsUnsupported(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("Nodes"))
	})

	It("accepts an empty node list", func() {
		wf, err := alteryx.Parse([]byte(`<AlteryxDocument><Nodes/></AlteryxDocument>`))
		Expect(err).NotTo(HaveOccurred())
		Expect(wf.Nodes).To(BeEmpty())
		Expect(wf.Connections).To(BeEmpty())
	})
})

var _ = Describe("Marshal", func() {
	It("round-trips the structural model", func() {
		wf, err := alteryx.Parse([]byte(sampleWorkflow))
		Expect(err).NotTo(HaveOccurred())

		out, err := alteryx.Marshal(wf)
		Expect(err).NotTo(HaveOccurred())
		again, err := alteryx.Parse(out)
		Expect(err).NotTo(HaveOccurred())

		Expect(again.Nodes).To(HaveLen(len(wf.Nodes)))
		for i := range wf.Nodes {
			Expect(again.Nodes[i].ToolID).To(Equal(wf.Nodes[i].ToolID))
			Expect(again.Nodes[i].Plugin).To(Equal(wf.Nodes[i].Plugin))
			Expect(again.Nodes[i].Position).To(Equal(wf.Nodes[i].Position))
			Expect(again.Nodes[i].Configuration.Fields).To(Equal(wf.Nodes[i].Configuration.Fields))
		}
		Expect(again.Connections).To(Equal(wf.Connections))
		Expect(again.Property("name")).To(Equal("Monthly sales"))
		Expect(again.Constants).To(Equal(wf.Constants))
	})

	It("writes configuration fields when there is no raw payload", func() {
		wf := &workflow.Workflow{Nodes: []workflow.Node{{
			ToolID: "7",
			Plugin: "AlteryxBasePluginsGui.Formula.Formula",
			Configuration: workflow.Configuration{Fields: []workflow.Field{
				{Name: "Expression", Value: "a < b"},
				{Name: "bad name", Value: "dropped"},
			}},
		}}}
		out, err := alteryx.Marshal(wf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(ContainSubstring("<Expression>a &lt; b</Expression>"))
		Expect(string(out)).NotTo(ContainSubstring("dropped"))
	})
})

var _ = DescribeTable("SupportedExtension",
	func(path string, expected bool) {
		Expect(alteryx.SupportedExtension(path)).To(Equal(expected))
	},
	Entry("workflow", "a/b.yxmd", true),
	Entry("macro", "b.YXMC", true),
	Entry("app", "c.yxwz", true),
	Entry("other", "d.xml", false),
)
