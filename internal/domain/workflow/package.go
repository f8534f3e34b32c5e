package workflow

const (
	PortSuccess = "success"
	PortFailure = "failure"
)

// Step is one ODI package step. NextStep and OnFailure reference other
// step ids and may form branches.
type Step struct {
	ID          string `json:"step_id"`
	Type        string `json:"type"`
	Command     string `json:"command,omitempty"`
	NextStep    string `json:"next_step,omitempty"`
	OnFailure   string `json:"on_failure,omitempty"`
	ScenarioRef string `json:"scenario_ref,omitempty"`
	Annotation  string `json:"annotation,omitempty"`
}

type Scenario struct {
	Name        string   `json:"name"`
	Version     string   `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Folder      string   `json:"folder,omitempty"`
	Variables   []string `json:"variables,omitempty"`
}

type DataStore struct {
	Schema string `json:"schema,omitempty"`
	Table  string `json:"table,omitempty"`
}

// Qualified returns "schema.table", or just the table when no schema is set.
func (d DataStore) Qualified() string {
	switch {
	case d.Table == "":
		return ""
	case d.Schema == "":
		return d.Table
	default:
		return d.Schema + "." + d.Table
	}
}

type FieldMapping struct {
	Source     string `json:"source_field"`
	Target     string `json:"target_field"`
	Expression string `json:"expression,omitempty"`
}

type Interface struct {
	Name            string         `json:"name"`
	Source          DataStore      `json:"source"`
	Target          DataStore      `json:"target"`
	IntegrationType string         `json:"integration_type,omitempty"`
	Mappings        []FieldMapping `json:"mappings,omitempty"`
}

type Variable struct {
	Name    string `json:"name"`
	Default string `json:"default,omitempty"`
	Type    string `json:"type,omitempty"`
}

// Package is the structural model of an ODI package.
type Package struct {
	Name        string      `json:"name,omitempty"`
	Version     string      `json:"version,omitempty"`
	Description string      `json:"description,omitempty"`
	Project     string      `json:"project,omitempty"`
	Folder      string      `json:"folder,omitempty"`
	Steps       []Step      `json:"steps"`
	Scenarios   []Scenario  `json:"scenarios,omitempty"`
	Interfaces  []Interface `json:"interfaces,omitempty"`
	Variables   []Variable  `json:"variables,omitempty"`
	Flows       []Edge      `json:"flows,omitempty"`
}

// Step returns the first step with the given id.
func (p *Package) Step(id string) (Step, bool) {
	for _, s := range p.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// Edges returns the execution graph: next-step links, failure links and
// explicit flows, in step order.
func (p *Package) Edges() []Edge {
	var edges []Edge
	for _, s := range p.Steps {
		if s.NextStep != "" {
			edges = append(edges, Edge{From: s.ID, FromPort: PortSuccess, To: s.NextStep})
		}
		if s.OnFailure != "" {
			edges = append(edges, Edge{From: s.ID, FromPort: PortFailure, To: s.OnFailure})
		}
	}
	return append(edges, p.Flows...)
}

// ScenarioIDs returns declared scenario names followed by scenario names
// referenced only from steps, without duplicates.
func (p *Package) ScenarioIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			ids = append(ids, name)
		}
	}
	for _, sc := range p.Scenarios {
		add(sc.Name)
	}
	for _, s := range p.Steps {
		add(s.ScenarioRef)
	}
	return ids
}

func (p *Package) DataSources() []string {
	return p.dataStores(func(i Interface) DataStore { return i.Source })
}

func (p *Package) DataTargets() []string {
	return p.dataStores(func(i Interface) DataStore { return i.Target })
}

func (p *Package) dataStores(pick func(Interface) DataStore) []string {
	seen := make(map[string]bool)
	var out []string
	for _, i := range p.Interfaces {
		q := pick(i).Qualified()
		if q != "" && !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}
	return out
}
