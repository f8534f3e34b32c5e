package workflow

// Edge is a directed link between two entities. Alteryx connections and ODI
// execution-flow links are both expressed as edges.
type Edge struct {
	From     string `json:"from"`
	FromPort string `json:"from_port,omitempty"`
	To       string `json:"to"`
	ToPort   string `json:"to_port,omitempty"`
}

// Position is the canvas coordinate of an Alteryx tool.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Field is one entry of an opaque configuration payload.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Configuration holds the per-tool payload without modelling it: the ordered
// top-level fields and the raw inner XML they came from.
type Configuration struct {
	Fields []Field `json:"fields,omitempty"`
	Raw    string  `json:"raw,omitempty"`
}

// Get returns the value of the first field with the given name.
func (c Configuration) Get(name string) (string, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// IsEmpty reports whether the payload carries no content at all.
func (c Configuration) IsEmpty() bool {
	if len(c.Fields) > 0 {
		return false
	}
	for _, r := range c.Raw {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// Text returns every value of the payload, used by content heuristics.
func (c Configuration) Text() string {
	if c.Raw != "" {
		return c.Raw
	}
	var out []byte
	for _, f := range c.Fields {
		out = append(out, f.Value...)
		out = append(out, '\n')
	}
	return string(out)
}

type Node struct {
	ToolID        string        `json:"tool_id"`
	Plugin        string        `json:"plugin"`
	Position      Position      `json:"position"`
	Annotation    string        `json:"annotation,omitempty"`
	Configuration Configuration `json:"configuration"`
}

type Constant struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Workflow is the structural model of an Alteryx document.
type Workflow struct {
	Nodes       []Node            `json:"nodes"`
	Connections []Edge            `json:"connections"`
	Properties  map[string]string `json:"properties,omitempty"`
	Constants   []Constant        `json:"constants,omitempty"`
}

// Node returns the first node with the given tool id.
func (w *Workflow) Node(toolID string) (Node, bool) {
	for _, n := range w.Nodes {
		if n.ToolID == toolID {
			return n, true
		}
	}
	return Node{}, false
}

// Outbound returns the connections leaving toolID in document order.
func (w *Workflow) Outbound(toolID string) []Edge {
	var out []Edge
	for _, c := range w.Connections {
		if c.From == toolID {
			out = append(out, c)
		}
	}
	return out
}

// Inbound returns the connections entering toolID in document order.
func (w *Workflow) Inbound(toolID string) []Edge {
	var in []Edge
	for _, c := range w.Connections {
		if c.To == toolID {
			in = append(in, c)
		}
	}
	return in
}

// Property returns a workflow-level metadata value.
func (w *Workflow) Property(key string) string {
	if w.Properties == nil {
		return ""
	}
	return w.Properties[key]
}

// ShortPlugin strips the GUI namespace from a plugin identifier, so
// "AlteryxBasePluginsGui.Filter.Filter" becomes "Filter".
func ShortPlugin(plugin string) string {
	for i := len(plugin) - 1; i >= 0; i-- {
		if plugin[i] == '.' {
			return plugin[i+1:]
		}
	}
	return plugin
}
