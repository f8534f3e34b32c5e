package alteryx

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmldoc"
)

// DocumentVersion is written as yxmdVer on serialized workflows.
const DocumentVersion = "2024.1"

type outDocument struct {
	XMLName     xml.Name        `xml:"AlteryxDocument"`
	Version     string          `xml:"yxmdVer,attr"`
	Nodes       outNodes        `xml:"Nodes"`
	Connections outConnections  `xml:"Connections"`
	Properties  outDocumentMeta `xml:"Properties"`
}

type outNodes struct {
	Nodes []outNode `xml:"Node"`
}

type outNode struct {
	ToolID      string         `xml:"ToolID,attr"`
	GuiSettings outGuiSettings `xml:"GuiSettings"`
	Properties  outNodeProps   `xml:"Properties"`
}

type outGuiSettings struct {
	Plugin   string      `xml:"Plugin,attr,omitempty"`
	Position xmlPosition `xml:"Position"`
}

type outNodeProps struct {
	Configuration outRaw        `xml:"Configuration"`
	Annotation    outAnnotation `xml:"Annotation"`
}

type outRaw struct {
	Inner string `xml:",innerxml"`
}

type outAnnotation struct {
	DisplayMode           string `xml:"DisplayMode,attr"`
	Name                  string `xml:"Name"`
	DefaultAnnotationText string `xml:"DefaultAnnotationText"`
}

type outConnections struct {
	Connections []xmlConnection `xml:"Connection"`
}

type outDocumentMeta struct {
	MetaInfo  outRaw        `xml:"MetaInfo"`
	Constants *outConstants `xml:"Constants,omitempty"`
}

type outConstants struct {
	Constants []outConstant `xml:"Constant"`
}

type outConstant struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

// Marshal serializes a workflow as an Alteryx document. Configuration is
// written from the raw payload when present, else from its fields.
func Marshal(wf *workflow.Workflow) ([]byte, error) {
	doc := outDocument{Version: DocumentVersion}
	if v := wf.Property("version"); v != "" {
		doc.Version = v
	}

	for _, n := range wf.Nodes {
		doc.Nodes.Nodes = append(doc.Nodes.Nodes, outNode{
			ToolID: n.ToolID,
			GuiSettings: outGuiSettings{
				Plugin: n.Plugin,
				Position: xmlPosition{
					X: strconv.Itoa(n.Position.X),
					Y: strconv.Itoa(n.Position.Y),
				},
			},
			Properties: outNodeProps{
				Configuration: outRaw{Inner: configurationXML(n.Configuration)},
				Annotation:    outAnnotation{DisplayMode: "0", Name: n.Annotation, DefaultAnnotationText: n.Annotation},
			},
		})
	}

	for i, c := range wf.Connections {
		doc.Connections.Connections = append(doc.Connections.Connections, xmlConnection{
			Name:        fmt.Sprintf("#%d", i+1),
			Origin:      xmlEndpoint{ToolID: c.From, Connection: portOr(c.FromPort, "Output")},
			Destination: xmlEndpoint{ToolID: c.To, Connection: portOr(c.ToPort, "Input")},
		})
	}

	doc.Properties.MetaInfo = outRaw{Inner: metaInfoXML(wf.Properties)}
	if len(wf.Constants) > 0 {
		doc.Properties.Constants = &outConstants{}
		for _, c := range wf.Constants {
			doc.Properties.Constants.Constants = append(doc.Properties.Constants.Constants, outConstant(c))
		}
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workflow: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func configurationXML(c workflow.Configuration) string {
	if c.Raw != "" {
		return c.Raw
	}
	var b strings.Builder
	for _, f := range c.Fields {
		if !validName(f.Name) {
			continue
		}
		fmt.Fprintf(&b, "<%s>%s</%s>", f.Name, xmldoc.Escape(f.Value), f.Name)
	}
	return b.String()
}

var metaInfoOrder = []string{"name", "description", "author", "company", "copyright"}

func metaInfoXML(props map[string]string) string {
	var b strings.Builder
	written := map[string]bool{"version": true}
	for _, key := range metaInfoOrder {
		written[key] = true
		fmt.Fprintf(&b, "<%s>%s</%s>", metaTag(key), xmldoc.Escape(props[key]), metaTag(key))
	}
	var rest []string
	for key := range props {
		if !written[key] && validName(key) {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(&b, "<%s>%s</%s>", metaTag(key), xmldoc.Escape(props[key]), metaTag(key))
	}
	return b.String()
}

func metaTag(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
		if !letter && (i == 0 || !((r >= '0' && r <= '9') || r == '-' || r == '.')) {
			return false
		}
	}
	return true
}

func portOr(port, fallback string) string {
	if port == "" || port == workflow.PortSuccess {
		return fallback
	}
	return port
}
