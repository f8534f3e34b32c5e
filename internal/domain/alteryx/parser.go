// Package alteryx reads and writes Alteryx workflow documents.
package alteryx

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmldoc"
)

const RootElement = "AlteryxDocument"

var extensions = []string{".yxmd", ".yxmc", ".yxwz"}

// SupportedExtension reports whether path names a workflow, macro or app file.
func SupportedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Parse extracts the structural model of an Alteryx document. Nodes nested in
// containers are flattened in document order. Connections are kept as written,
// including ones that reference unknown tools.
func Parse(data []byte) (*workflow.Workflow, error) {
	if err := xmldoc.CheckWellFormed(data); err != nil {
		return nil, err
	}

	var doc xmlDocument
	if err := xmldoc.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, xmldoc.Malformed(err)
	}
	if doc.XMLName.Local != RootElement {
		return nil, &workflow.UnsupportedWorkflowError{Root: doc.XMLName.Local, Missing: RootElement}
	}
	if doc.Nodes == nil {
		return nil, &workflow.UnsupportedWorkflowError{Root: doc.XMLName.Local, Missing: "Nodes"}
	}

	wf := &workflow.Workflow{
		Nodes:       []workflow.Node{},
		Connections: []workflow.Edge{},
		Properties:  map[string]string{},
	}
	flattenNodes(doc.Nodes.Nodes, &wf.Nodes)

	if doc.Connections != nil {
		for _, c := range doc.Connections.Connections {
			wf.Connections = append(wf.Connections, workflow.Edge{
				From:     c.Origin.ToolID,
				FromPort: c.Origin.Connection,
				To:       c.Destination.ToolID,
				ToPort:   c.Destination.Connection,
			})
		}
	}

	if doc.Properties != nil {
		if doc.Properties.MetaInfo != nil {
			for _, e := range doc.Properties.MetaInfo.Entries {
				if v := e.value(); v != "" {
					wf.Properties[strings.ToLower(e.XMLName.Local)] = v
				}
			}
		}
		if doc.Properties.Constants != nil {
			for _, c := range doc.Properties.Constants.Constants {
				name := firstNonEmpty(c.NameAttr, strings.TrimSpace(c.Name))
				if name == "" {
					continue
				}
				wf.Constants = append(wf.Constants, workflow.Constant{
					Name:  name,
					Value: firstNonEmpty(c.ValueAttr, strings.TrimSpace(c.Value)),
				})
			}
		}
	}
	if _, ok := wf.Properties["version"]; !ok && doc.Version != "" {
		wf.Properties["version"] = doc.Version
	}

	return wf, nil
}

func flattenNodes(in []xmlNode, out *[]workflow.Node) {
	for _, n := range in {
		*out = append(*out, convertNode(n))
		if n.ChildNodes != nil {
			flattenNodes(n.ChildNodes.Nodes, out)
		}
	}
}

func convertNode(n xmlNode) workflow.Node {
	node := workflow.Node{ToolID: strings.TrimSpace(n.ToolID)}

	if n.GuiSettings != nil {
		node.Plugin = n.GuiSettings.Plugin
		if p := n.GuiSettings.Position; p != nil {
			node.Position = workflow.Position{X: coordinate(p.X), Y: coordinate(p.Y)}
		}
	}

	cfg := n.Configuration
	if n.Properties != nil {
		if n.Properties.Configuration != nil {
			cfg = n.Properties.Configuration
		}
		node.Annotation = n.Properties.Annotation.text()
	}
	if cfg != nil {
		node.Configuration.Raw = strings.TrimSpace(cfg.Inner)
		for _, f := range cfg.Fields {
			node.Configuration.Fields = append(node.Configuration.Fields, workflow.Field{
				Name:  f.XMLName.Local,
				Value: f.value(),
			})
		}
	}
	return node
}

// coordinate tolerates fractional and missing values.
func coordinate(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
