package odi

import (
	"encoding/xml"
	"fmt"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
)

const DefaultVersion = "1.0"

type outPackage struct {
	XMLName     xml.Name       `xml:"OdiPackage"`
	Name        string         `xml:"Name,attr"`
	Version     string         `xml:"Version,attr"`
	Description string         `xml:"Description"`
	Project     string         `xml:"Project,omitempty"`
	Folder      string         `xml:"Folder,omitempty"`
	Steps       outSteps       `xml:"Steps"`
	Interfaces  []outInterface `xml:"Interfaces>Interface,omitempty"`
	Scenarios   []xmlScenario  `xml:"Scenarios>Scenario,omitempty"`
	Variables   []outVariable  `xml:"Variables>Variable,omitempty"`
	Flows       []xmlFlow      `xml:"Connections>Flow,omitempty"`
}

type outSteps struct {
	Steps []outStep `xml:"Step"`
}

type outStep struct {
	Name        string      `xml:"Name,attr"`
	Type        string      `xml:"Type,attr"`
	Command     string      `xml:"Command,omitempty"`
	Annotation  string      `xml:"Annotation,omitempty"`
	ScenarioRef *xmlNameRef `xml:"ScenarioRef,omitempty"`
	OnSuccess   *xmlNextRef `xml:"OnSuccess,omitempty"`
	OnFailure   *xmlNextRef `xml:"OnFailure,omitempty"`
}

type outInterface struct {
	Name            string       `xml:"Name,attr"`
	Source          outDataStore `xml:"Source"`
	Target          outDataStore `xml:"Target"`
	IntegrationType string       `xml:"IntegrationType,omitempty"`
	Mappings        []xmlMapping `xml:"Mappings>Mapping,omitempty"`
}

type outDataStore struct {
	Schema string `xml:"Schema,attr,omitempty"`
	Table  string `xml:"Table,attr,omitempty"`
}

type outVariable struct {
	Name    string `xml:"Name,attr"`
	Default string `xml:"Default,attr,omitempty"`
	Type    string `xml:"Type,attr,omitempty"`
}

// Marshal serializes a package as an ODI document that Parse reads back to
// the same model.
func Marshal(pkg *workflow.Package) ([]byte, error) {
	doc := outPackage{
		Name:        pkg.Name,
		Version:     pkg.Version,
		Description: pkg.Description,
		Project:     pkg.Project,
		Folder:      pkg.Folder,
	}
	if doc.Version == "" {
		doc.Version = DefaultVersion
	}

	for _, s := range pkg.Steps {
		step := outStep{Name: s.ID, Type: s.Type, Command: s.Command, Annotation: s.Annotation}
		if s.ScenarioRef != "" {
			step.ScenarioRef = &xmlNameRef{Name: s.ScenarioRef}
		}
		if s.NextStep != "" {
			step.OnSuccess = &xmlNextRef{NextStep: s.NextStep}
		}
		if s.OnFailure != "" {
			step.OnFailure = &xmlNextRef{NextStep: s.OnFailure}
		}
		doc.Steps.Steps = append(doc.Steps.Steps, step)
	}

	for _, sc := range pkg.Scenarios {
		out := xmlScenario{Name: sc.Name, Version: sc.Version, Description: sc.Description, Folder: sc.Folder}
		for _, v := range sc.Variables {
			out.Variables = append(out.Variables, xmlNameRef{Name: v})
		}
		doc.Scenarios = append(doc.Scenarios, out)
	}
	for _, in := range pkg.Interfaces {
		out := outInterface{
			Name:            in.Name,
			Source:          outDataStore(in.Source),
			Target:          outDataStore(in.Target),
			IntegrationType: in.IntegrationType,
		}
		for _, m := range in.Mappings {
			out.Mappings = append(out.Mappings, xmlMapping{SourceColumn: m.Source, TargetColumn: m.Target, Expression: m.Expression})
		}
		doc.Interfaces = append(doc.Interfaces, out)
	}
	for _, v := range pkg.Variables {
		doc.Variables = append(doc.Variables, outVariable(v))
	}
	for _, f := range pkg.Flows {
		doc.Flows = append(doc.Flows, xmlFlow{From: f.From, To: f.To})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize package: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}
