package conversion

import (
	"fmt"
	"strconv"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
)

// Layout of tools placed on the Alteryx canvas.
const (
	LayoutOriginX = 150
	LayoutOriginY = 200
	LayoutStepX   = 200
	LayoutStepY   = 120
)

const defaultPackageName = "ConvertedWorkflow"

// ToOdi converts a workflow into a package. Step ids keep the tool ids. The
// first outbound connection of a tool becomes the step's next step and any
// further connections become explicit flows. Tools without a step type are
// reported and bridged over.
func ToOdi(wf *workflow.Workflow) workflow.ConversionResult[*workflow.Package] {
	res := workflow.ConversionResult[*workflow.Package]{
		Model: &workflow.Package{
			Name:        wf.Property("name"),
			Version:     "1.0",
			Description: wf.Property("description"),
			Steps:       []workflow.Step{},
		},
		Unmapped: []workflow.Unmapped{},
	}
	pkg := res.Model
	if pkg.Name == "" {
		pkg.Name = defaultPackageName
	}

	known := make(map[string]bool, len(wf.Nodes))
	mapped := make(map[string]bool, len(wf.Nodes))

	for _, n := range wf.Nodes {
		known[n.ToolID] = true
		plugin := workflow.ShortPlugin(n.Plugin)
		rule, ok := stepRules[plugin]
		if !ok {
			res.Unmapped = append(res.Unmapped, workflow.Unmapped{
				OriginalType: typeOrPlaceholder(n.Plugin),
				OriginalID:   n.ToolID,
				Reason:       "no ODI step type for this tool",
			})
			continue
		}
		step := rule(n)
		step.ID = n.ToolID
		step.Annotation = n.Annotation
		pkg.Steps = append(pkg.Steps, step)
		mapped[n.ToolID] = true
	}
	for _, c := range wf.Connections {
		if !known[c.From] || !known[c.To] {
			res.Unmapped = append(res.Unmapped, workflow.Unmapped{
				OriginalType: "Connection",
				OriginalID:   c.From + "->" + c.To,
				Reason:       "connection references an unknown tool",
			})
		}
	}

	links := bridge(wf.Connections, func(id string) bool { return mapped[id] })
	linked := make(map[string]bool)
	for i := range pkg.Steps {
		step := &pkg.Steps[i]
		// A repeated id keeps the links of its first occurrence only.
		if linked[step.ID] {
			continue
		}
		linked[step.ID] = true
		for _, e := range links {
			if e.From != step.ID {
				continue
			}
			if step.NextStep == "" {
				step.NextStep = e.To
				continue
			}
			pkg.Flows = append(pkg.Flows, workflow.Edge{From: e.From, FromPort: workflow.PortSuccess, To: e.To})
		}
	}

	for _, c := range wf.Constants {
		pkg.Variables = append(pkg.Variables, workflow.Variable{Name: c.Name, Default: c.Value})
	}

	return res
}

// ToAlteryx converts a package into a workflow. Tools get sequential ids in
// step order and a left-to-right layered layout. Failure branches,
// interfaces and scenarios have no Alteryx counterpart and are reported.
func ToAlteryx(pkg *workflow.Package) workflow.ConversionResult[*workflow.Workflow] {
	res := workflow.ConversionResult[*workflow.Workflow]{
		Model: &workflow.Workflow{
			Nodes:       []workflow.Node{},
			Connections: []workflow.Edge{},
			Properties:  map[string]string{},
		},
		Unmapped: []workflow.Unmapped{},
	}
	wf := res.Model
	setProperty(wf, "name", pkg.Name)
	setProperty(wf, "description", pkg.Description)
	setProperty(wf, "project", pkg.Project)
	setProperty(wf, "folder", pkg.Folder)

	mapped := make(map[string]bool, len(pkg.Steps))
	for _, s := range pkg.Steps {
		if _, ok := toolRules[s.Type]; ok {
			mapped[s.ID] = true
		}
	}

	// Success links in step order: each step's next step, then its flows.
	// Flows leaving an unknown step follow in declaration order.
	var success []workflow.Edge
	for _, s := range pkg.Steps {
		if s.NextStep != "" {
			success = append(success, workflow.Edge{From: s.ID, To: s.NextStep})
		}
		for _, f := range pkg.Flows {
			if f.From == s.ID {
				success = append(success, workflow.Edge{From: f.From, To: f.To})
			}
		}
	}
	for _, f := range pkg.Flows {
		if _, ok := pkg.Step(f.From); !ok {
			success = append(success, workflow.Edge{From: f.From, To: f.To})
		}
	}
	for _, e := range success {
		_, fromOK := pkg.Step(e.From)
		_, toOK := pkg.Step(e.To)
		if !fromOK || !toOK {
			res.Unmapped = append(res.Unmapped, workflow.Unmapped{
				OriginalType: "Link",
				OriginalID:   e.From + "->" + e.To,
				Reason:       "link references an unknown step",
			})
		}
	}
	links := bridge(success, func(id string) bool { return mapped[id] })

	hasIn := make(map[string]bool)
	hasOut := make(map[string]bool)
	for _, e := range links {
		hasOut[e.From] = true
		hasIn[e.To] = true
	}

	toolIDs := make(map[string]string, len(pkg.Steps))
	var order []string
	for _, s := range pkg.Steps {
		rule, ok := toolRules[s.Type]
		if !ok {
			res.Unmapped = append(res.Unmapped, workflow.Unmapped{
				OriginalType: typeOrPlaceholder(s.Type),
				OriginalID:   s.ID,
				Reason:       "no Alteryx tool for this step type",
			})
			continue
		}
		if _, dup := toolIDs[s.ID]; dup {
			res.Unmapped = append(res.Unmapped, workflow.Unmapped{
				OriginalType: s.Type,
				OriginalID:   s.ID,
				Reason:       "duplicate step id",
			})
			continue
		}
		node := rule(s, hasIn[s.ID] && !hasOut[s.ID])
		node.ToolID = strconv.Itoa(len(wf.Nodes) + 1)
		node.Annotation = s.ID
		toolIDs[s.ID] = node.ToolID
		order = append(order, node.ToolID)
		wf.Nodes = append(wf.Nodes, node)

		if s.OnFailure != "" {
			res.Unmapped = append(res.Unmapped, workflow.Unmapped{
				OriginalType: "OnFailure",
				OriginalID:   s.ID,
				Reason:       fmt.Sprintf("failure branch to %q has no Alteryx equivalent", s.OnFailure),
			})
		}
	}

	for _, e := range links {
		wf.Connections = append(wf.Connections, workflow.Edge{
			From:     toolIDs[e.From],
			FromPort: "Output",
			To:       toolIDs[e.To],
			ToPort:   "Input",
		})
	}
	placeNodes(wf, order)

	for _, v := range pkg.Variables {
		wf.Constants = append(wf.Constants, workflow.Constant{Name: v.Name, Value: v.Default})
	}
	for _, i := range pkg.Interfaces {
		res.Unmapped = append(res.Unmapped, workflow.Unmapped{
			OriginalType: "Interface",
			OriginalID:   i.Name,
			Reason:       "interfaces are not represented in Alteryx workflows",
		})
	}
	for _, sc := range pkg.Scenarios {
		res.Unmapped = append(res.Unmapped, workflow.Unmapped{
			OriginalType: "Scenario",
			OriginalID:   sc.Name,
			Reason:       "scenarios are not represented in Alteryx workflows",
		})
	}

	return res
}

func placeNodes(wf *workflow.Workflow, order []string) {
	depth := layers(order, wf.Connections)
	rows := make(map[int]int)
	for i := range wf.Nodes {
		col := depth[wf.Nodes[i].ToolID]
		wf.Nodes[i].Position = workflow.Position{
			X: LayoutOriginX + col*LayoutStepX,
			Y: LayoutOriginY + rows[col]*LayoutStepY,
		}
		rows[col]++
	}
}

func setProperty(wf *workflow.Workflow, key, value string) {
	if value != "" {
		wf.Properties[key] = value
	}
}

func typeOrPlaceholder(t string) string {
	if t == "" {
		return "(none)"
	}
	return t
}
