// Package conversion maps Alteryx workflows onto ODI packages and back using
// a fixed tool/step correspondence table.
package conversion

import (
	"sort"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
)

const (
	StepDataStore = "DataStoreCommand"
	StepProcedure = "ProcedureCommand"
	StepOdi       = "OdiCommand"
	StepVariable  = "VariableStep"

	ToolInput      = "DbFileInput"
	ToolOutput     = "DbFileOutput"
	ToolFormula    = "Formula"
	ToolRunCommand = "RunCommand"
)

const pluginNamespace = "AlteryxBasePluginsGui"

// stepRule turns a node into a step of the target type. The caller sets the
// identifier and links.
type stepRule func(n workflow.Node) workflow.Step

// toolRule turns a step into a tool. sink is true when the step only
// receives data in the converted graph.
type toolRule func(s workflow.Step, sink bool) workflow.Node

var stepRules = map[string]stepRule{
	"DbFileInput":  commandStep(StepDataStore, "File"),
	"DbFileOutput": commandStep(StepDataStore, "File"),
	"Filter":       commandStep(StepProcedure, "Expression"),
	"Formula":      commandStep(StepProcedure, "Expression"),
	"Join":         commandStep(StepProcedure, "Expression"),
	"Sort":         commandStep(StepProcedure, "Expression"),
	"Summarize":    commandStep(StepProcedure, "Expression"),
	"Union":        commandStep(StepProcedure, "Expression"),
	"RunCommand":   commandStep(StepOdi, "Command"),
}

var toolRules = map[string]toolRule{
	StepDataStore: func(s workflow.Step, sink bool) workflow.Node {
		if sink {
			return commandTool(ToolOutput, "File", s.Command)
		}
		return commandTool(ToolInput, "File", s.Command)
	},
	StepProcedure: func(s workflow.Step, _ bool) workflow.Node {
		return commandTool(ToolFormula, "Expression", s.Command)
	},
	StepOdi: func(s workflow.Step, _ bool) workflow.Node {
		return commandTool(ToolRunCommand, "Command", s.Command)
	},
	StepVariable: func(s workflow.Step, _ bool) workflow.Node {
		return commandTool(ToolFormula, "Expression", s.Command)
	},
}

// commandStep builds a rule whose command is the preferred configuration
// field, falling back to the raw payload.
func commandStep(stepType, field string) stepRule {
	return func(n workflow.Node) workflow.Step {
		cmd, ok := n.Configuration.Get(field)
		if !ok {
			cmd = n.Configuration.Raw
		}
		return workflow.Step{Type: stepType, Command: strings.TrimSpace(cmd)}
	}
}

func commandTool(tool, field, command string) workflow.Node {
	n := workflow.Node{Plugin: PluginName(tool)}
	if command != "" {
		n.Configuration.Fields = []workflow.Field{{Name: field, Value: command}}
	}
	return n
}

// PluginName expands a short tool name to its full GUI plugin identifier.
func PluginName(tool string) string {
	return pluginNamespace + "." + tool + "." + tool
}

// StepType returns the ODI step type for a plugin, accepting both the full
// and the short plugin name.
func StepType(plugin string) (string, bool) {
	rule, ok := stepRules[workflow.ShortPlugin(plugin)]
	if !ok {
		return "", false
	}
	return rule(workflow.Node{}).Type, true
}

// Mapping is one row of the correspondence table.
type Mapping struct {
	AlteryxTool string `json:"alteryx_tool"`
	OdiStep     string `json:"odi_step"`
	Direction   string `json:"direction"`
}

const (
	DirectionBoth      = "both"
	DirectionToOdi     = "alteryx_to_odi"
	DirectionToAlteryx = "odi_to_alteryx"
)

// Table lists every correspondence, sorted by tool then step.
func Table() []Mapping {
	reverse := map[string]map[string]bool{}
	for step, rule := range toolRules {
		for _, sink := range []bool{false, true} {
			tool := workflow.ShortPlugin(rule(workflow.Step{}, sink).Plugin)
			if reverse[tool] == nil {
				reverse[tool] = map[string]bool{}
			}
			reverse[tool][step] = true
		}
	}

	var rows []Mapping
	for tool, rule := range stepRules {
		step := rule(workflow.Node{}).Type
		dir := DirectionToOdi
		if reverse[tool][step] {
			dir = DirectionBoth
			delete(reverse[tool], step)
		}
		rows = append(rows, Mapping{AlteryxTool: tool, OdiStep: step, Direction: dir})
	}
	for tool, steps := range reverse {
		for step := range steps {
			rows = append(rows, Mapping{AlteryxTool: tool, OdiStep: step, Direction: DirectionToAlteryx})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AlteryxTool != rows[j].AlteryxTool {
			return rows[i].AlteryxTool < rows[j].AlteryxTool
		}
		return rows[i].OdiStep < rows[j].OdiStep
	})
	return rows
}
