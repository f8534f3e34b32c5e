// Package odi reads and writes ODI package documents.
package odi

import (
	"bytes"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmldoc"
)

// RootElements lists the accepted document elements.
var RootElements = []string{"OdiPackage", "Package"}

// Parse extracts the structural model of an ODI package. Next-step and
// failure links are kept as references so branches survive.
func Parse(data []byte) (*workflow.Package, error) {
	if err := xmldoc.CheckWellFormed(data); err != nil {
		return nil, err
	}

	var doc xmlPackage
	if err := xmldoc.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, xmldoc.Malformed(err)
	}
	if !isRoot(doc.XMLName.Local) {
		return nil, &workflow.UnsupportedPackageError{Root: doc.XMLName.Local, Missing: RootElements[0]}
	}
	if doc.Steps == nil {
		return nil, &workflow.UnsupportedPackageError{Root: doc.XMLName.Local, Missing: "Steps"}
	}

	pkg := &workflow.Package{
		Name:        firstNonEmpty(doc.NameAttr, trim(doc.Name)),
		Version:     doc.Version,
		Description: trim(doc.Description),
		Project:     trim(doc.Project),
		Folder:      trim(doc.Folder),
		Steps:       make([]workflow.Step, 0, len(doc.Steps.Steps)),
	}

	for _, s := range doc.Steps.Steps {
		pkg.Steps = append(pkg.Steps, workflow.Step{
			ID:          trim(s.Name),
			Type:        trim(s.Type),
			Command:     firstNonEmpty(trim(s.Command), trim(s.Configuration.Text), trim(s.Configuration.Inner)),
			NextStep:    firstNonEmpty(trim(s.OnSuccess.NextStep), trim(s.NextStep)),
			OnFailure:   trim(s.OnFailure.NextStep),
			ScenarioRef: trim(s.ScenarioRef.Name),
			Annotation:  trim(s.Annotation),
		})
	}

	for _, sc := range doc.Scenarios {
		scenario := workflow.Scenario{
			Name:        trim(sc.Name),
			Version:     sc.Version,
			Description: trim(sc.Description),
			Folder:      trim(sc.Folder),
		}
		for _, v := range sc.Variables {
			if n := trim(v.Name); n != "" {
				scenario.Variables = append(scenario.Variables, n)
			}
		}
		pkg.Scenarios = append(pkg.Scenarios, scenario)
	}

	for _, in := range doc.Interfaces {
		iface := workflow.Interface{
			Name:            trim(in.Name),
			Source:          workflow.DataStore{Schema: trim(in.Source.Schema), Table: trim(in.Source.Table)},
			Target:          workflow.DataStore{Schema: trim(in.Target.Schema), Table: trim(in.Target.Table)},
			IntegrationType: trim(in.IntegrationType),
		}
		for _, m := range in.Mappings {
			iface.Mappings = append(iface.Mappings, workflow.FieldMapping{
				Source:     trim(m.SourceColumn),
				Target:     trim(m.TargetColumn),
				Expression: m.Expression,
			})
		}
		pkg.Interfaces = append(pkg.Interfaces, iface)
	}

	for _, v := range doc.Variables {
		name := trim(v.Name)
		if name == "" {
			continue
		}
		pkg.Variables = append(pkg.Variables, workflow.Variable{
			Name:    name,
			Default: firstNonEmpty(v.DefaultAttr, trim(v.Default)),
			Type:    trim(v.Type),
		})
	}

	for _, f := range doc.Flows {
		pkg.Flows = append(pkg.Flows, workflow.Edge{From: trim(f.From), FromPort: workflow.PortSuccess, To: trim(f.To)})
	}

	return pkg, nil
}

func isRoot(name string) bool {
	for _, r := range RootElements {
		if name == r {
			return true
		}
	}
	return false
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
