//go:build !integration

package conversion_test

import (
	"github.com/flowbridge/flowbridge-mcp/internal/domain/conversion"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func node(id, tool string, fields ...workflow.Field) workflow.Node {
	return workflow.Node{
		ToolID:        id,
		Plugin:        conversion.PluginName(tool),
		Configuration: workflow.Configuration{Fields: fields},
	}
}

func edge(from, to string) workflow.Edge {
	return workflow.Edge{From: from, FromPort: "Output", To: to, ToPort: "Input"}
}

func stepTypes(pkg *workflow.Package) []string {
	types := make([]string, len(pkg.Steps))
	for i, s := range pkg.Steps {
		types[i] = s.Type
	}
	return types
}

var _ = Describe("ToOdi", func() {
	It("chains a linear workflow into next steps", func() {
		wf := &workflow.Workflow{
			Nodes: []workflow.Node{
				node("1", "DbFileInput", workflow.Field{Name: "File", Value: "in.csv"}),
				node("2", "Filter", workflow.Field{Name: "Expression", Value: "[x] > 1"}),
				node("3", "DbFileOutput", workflow.Field{Name: "File", Value: "out.csv"}),
			},
			Connections: []workflow.Edge{edge("1", "2"), edge("2", "3")},
		}

		res := conversion.ToOdi(wf)

		Expect(res.Unmapped).To(BeEmpty())
		Expect(res.Lossless()).To(BeTrue())
		Expect(stepTypes(res.Model)).To(Equal([]string{
			conversion.StepDataStore, conversion.StepProcedure, conversion.StepDataStore,
		}))
		Expect(res.Model.Steps[0].ID).To(Equal("1"))
		Expect(res.Model.Steps[0].NextStep).To(Equal("2"))
		Expect(res.Model.Steps[1].NextStep).To(Equal("3"))
		Expect(res.Model.Steps[2].NextStep).To(BeEmpty())
		Expect(res.Model.Steps[1].Command).To(Equal("[x] > 1"))
		Expect(res.Model.Flows).To(BeEmpty())
	})

	It("reports an unknown tool and bridges around it", func() {
		wf := &workflow.Workflow{
			Nodes: []workflow.Node{
				node("1", "DbFileInput"),
				{ToolID: "2", Plugin: "CustomPythonTool"},
				node("3", "DbFileOutput"),
			},
			Connections: []workflow.Edge{edge("1", "2"), edge("2", "3")},
		}

		res := conversion.ToOdi(wf)

		Expect(res.Unmapped).To(Equal([]workflow.Unmapped{{
			OriginalType: "CustomPythonTool",
			OriginalID:   "2",
			Reason:       "no ODI step type for this tool",
		}}))
		Expect(res.Model.Steps).To(HaveLen(2))
		Expect(res.Model.Steps[0].NextStep).To(Equal("3"))
	})

	It("turns extra outbound connections into flows", func() {
		wf := &workflow.Workflow{
			Nodes: []workflow.Node{
				node("1", "DbFileInput"), node("2", "Formula"), node("3", "Sort"),
			},
			Connections: []workflow.Edge{edge("1", "2"), edge("1", "3")},
		}

		res := conversion.ToOdi(wf)

		Expect(res.Model.Steps[0].NextStep).To(Equal("2"))
		Expect(res.Model.Flows).To(Equal([]workflow.Edge{{From: "1", FromPort: workflow.PortSuccess, To: "3"}}))
	})

	It("reports connections to unknown tools", func() {
		wf := &workflow.Workflow{
			Nodes:       []workflow.Node{node("1", "DbFileInput")},
			Connections: []workflow.Edge{edge("1", "99")},
		}

		res := conversion.ToOdi(wf)

		Expect(res.Unmapped).To(HaveLen(1))
		Expect(res.Unmapped[0].OriginalType).To(Equal("Connection"))
		Expect(res.Model.Steps[0].NextStep).To(BeEmpty())
	})

	It("carries metadata and constants", func() {
		wf := &workflow.Workflow{
			Properties: map[string]string{"name": "Sales", "description": "monthly"},
			Constants:  []workflow.Constant{{Name: "Region", Value: "EMEA"}},
		}

		res := conversion.ToOdi(wf)

		Expect(res.Model.Name).To(Equal("Sales"))
		Expect(res.Model.Description).To(Equal("monthly"))
		Expect(res.Model.Variables).To(Equal([]workflow.Variable{{Name: "Region", Default: "EMEA"}}))
	})

	It("names untitled packages", func() {
		Expect(conversion.ToOdi(&workflow.Workflow{}).Model.Name).To(Equal("ConvertedWorkflow"))
	})
})

var _ = Describe("ToAlteryx", func() {
	var pkg *workflow.Package

	BeforeEach(func() {
		pkg = &workflow.Package{
			Name: "PKG",
			Steps: []workflow.Step{
				{ID: "LOAD", Type: conversion.StepDataStore, Command: "src.csv", NextStep: "CALC"},
				{ID: "CALC", Type: conversion.StepProcedure, Command: "[a]+1", NextStep: "SAVE", OnFailure: "MAIL"},
				{ID: "SAVE", Type: conversion.StepDataStore, Command: "dst.csv"},
				{ID: "MAIL", Type: "OdiSendMail"},
			},
			Scenarios:  []workflow.Scenario{{Name: "SCN"}},
			Interfaces: []workflow.Interface{{Name: "INT"}},
			Variables:  []workflow.Variable{{Name: "V", Default: "1"}},
		}
	})

	It("assigns sequential tool ids and keeps step ids as annotations", func() {
		res := conversion.ToAlteryx(pkg)
		wf := res.Model

		Expect(wf.Nodes).To(HaveLen(3))
		for i, n := range wf.Nodes {
			Expect(n.ToolID).To(Equal([]string{"1", "2", "3"}[i]))
		}
		Expect(wf.Nodes[0].Annotation).To(Equal("LOAD"))
		Expect(wf.Property("name")).To(Equal("PKG"))
		Expect(wf.Constants).To(Equal([]workflow.Constant{{Name: "V", Value: "1"}}))
	})

	It("picks input or output tools from the graph position", func() {
		wf := conversion.ToAlteryx(pkg).Model

		Expect(workflow.ShortPlugin(wf.Nodes[0].Plugin)).To(Equal(conversion.ToolInput))
		Expect(workflow.ShortPlugin(wf.Nodes[1].Plugin)).To(Equal(conversion.ToolFormula))
		Expect(workflow.ShortPlugin(wf.Nodes[2].Plugin)).To(Equal(conversion.ToolOutput))
		file, _ := wf.Nodes[2].Configuration.Get("File")
		Expect(file).To(Equal("dst.csv"))
	})

	It("re-expresses next steps as connections", func() {
		wf := conversion.ToAlteryx(pkg).Model

		Expect(wf.Connections).To(Equal([]workflow.Edge{
			{From: "1", FromPort: "Output", To: "2", ToPort: "Input"},
			{From: "2", FromPort: "Output", To: "3", ToPort: "Input"},
		}))
	})

	It("lays tools out left to right by depth", func() {
		wf := conversion.ToAlteryx(pkg).Model

		for i, n := range wf.Nodes {
			Expect(n.Position.X).To(Equal(conversion.LayoutOriginX + i*conversion.LayoutStepX))
			Expect(n.Position.Y).To(Equal(conversion.LayoutOriginY))
		}
	})

	It("stacks parallel branches in one column", func() {
		p := &workflow.Package{Steps: []workflow.Step{
			{ID: "A", Type: conversion.StepDataStore, NextStep: "B"},
			{ID: "B", Type: conversion.StepProcedure},
			{ID: "C", Type: conversion.StepProcedure},
		}, Flows: []workflow.Edge{{From: "A", To: "C"}}}

		wf := conversion.ToAlteryx(p).Model

		Expect(wf.Nodes[1].Position.X).To(Equal(wf.Nodes[2].Position.X))
		Expect(wf.Nodes[2].Position.Y).To(Equal(conversion.LayoutOriginY + conversion.LayoutStepY))
	})

	It("reports everything Alteryx cannot express", func() {
		res := conversion.ToAlteryx(pkg)

		types := make([]string, len(res.Unmapped))
		for i, u := range res.Unmapped {
			types[i] = u.OriginalType
		}
		Expect(types).To(ConsistOf("OnFailure", "OdiSendMail", "Interface", "Scenario"))
	})

	It("reports links to unknown steps", func() {
		p := &workflow.Package{Steps: []workflow.Step{
			{ID: "A", Type: conversion.StepDataStore, NextStep: "GHOST"},
		}}

		res := conversion.ToAlteryx(p)

		Expect(res.Unmapped).To(HaveLen(1))
		Expect(res.Unmapped[0].OriginalType).To(Equal("Link"))
		Expect(res.Model.Connections).To(BeEmpty())
	})

	It("reports flows leaving an unknown step", func() {
		p := &workflow.Package{
			Steps: []workflow.Step{
				{ID: "A", Type: conversion.StepDataStore},
				{ID: "B", Type: conversion.StepDataStore},
			},
			Flows: []workflow.Edge{{From: "GHOST", FromPort: workflow.PortSuccess, To: "B"}},
		}

		res := conversion.ToAlteryx(p)

		Expect(res.Unmapped).To(Equal([]workflow.Unmapped{{
			OriginalType: "Link",
			OriginalID:   "GHOST->B",
			Reason:       "link references an unknown step",
		}}))
		Expect(res.Model.Nodes).To(HaveLen(2))
		Expect(res.Model.Connections).To(BeEmpty())
	})
})

var _ = Describe("Table", func() {
	It("lists each correspondence once with its direction", func() {
		rows := conversion.Table()

		Expect(rows).To(ContainElements(
			conversion.Mapping{AlteryxTool: "DbFileInput", OdiStep: conversion.StepDataStore, Direction: conversion.DirectionBoth},
			conversion.Mapping{AlteryxTool: "Filter", OdiStep: conversion.StepProcedure, Direction: conversion.DirectionToOdi},
			conversion.Mapping{AlteryxTool: "Formula", OdiStep: conversion.StepProcedure, Direction: conversion.DirectionBoth},
			conversion.Mapping{AlteryxTool: "Formula", OdiStep: conversion.StepVariable, Direction: conversion.DirectionToAlteryx},
			conversion.Mapping{AlteryxTool: "RunCommand", OdiStep: conversion.StepOdi, Direction: conversion.DirectionBoth},
		))
		Expect(rows).To(HaveLen(10))
	})

	It("resolves step types from full plugin names", func() {
		t, ok := conversion.StepType("AlteryxBasePluginsGui.Join.Join")
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(conversion.StepProcedure))

		_, ok = conversion.StepType("CustomPythonTool")
		Expect(ok).To(BeFalse())
	})
})
