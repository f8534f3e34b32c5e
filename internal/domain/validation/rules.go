package validation

import (
	"fmt"
	"regexp"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
)

// MissingAnnotationRatio is the share of unannotated tools above which the
// workflow gets a MISSING_ANNOTATIONS finding.
const MissingAnnotationRatio = 0.5

var (
	serverPattern = regexp.MustCompile(`\b\w+\.\w+\.\w+:\d+/\w+\b`)
	// Alteryx stores "server|||query" in input and output File elements.
	serverPrefixPattern = regexp.MustCompile(`[^<>"'\s|]+\|\|\|`)
)

var sinkTools = map[string]bool{
	"DbFileOutput": true,
	"Output":       true,
	"Browse":       true,
	"BrowseV2":     true,
}

type workflowRule func(wf *workflow.Workflow) []Finding

type packageRule func(pkg *workflow.Package) []Finding

// Rule order is part of the output contract.
var workflowRules = []workflowRule{
	orphanNodes,
	disconnectedOutputs,
	hardcodedDates,
	hardcodedServers,
	missingAnnotations,
	duplicateToolIDs,
	emptyConfigurations,
	danglingConnections,
}

var packageRules = []packageRule{
	orphanSteps,
	brokenFlows,
	brokenFailureFlows,
	hardcodedStepDates,
	hardcodedStepServers,
	duplicateStepIDs,
	emptySteps,
	missingScenarios,
}

// ValidateWorkflow runs every workflow rule and returns the findings in rule
// order, then node order.
func ValidateWorkflow(wf *workflow.Workflow) []Finding {
	findings := []Finding{}
	for _, rule := range workflowRules {
		findings = append(findings, rule(wf)...)
	}
	return findings
}

// ValidatePackage runs every package rule and returns the findings in rule
// order, then step order.
func ValidatePackage(pkg *workflow.Package) []Finding {
	findings := []Finding{}
	for _, rule := range packageRules {
		findings = append(findings, rule(pkg)...)
	}
	return findings
}

func orphanNodes(wf *workflow.Workflow) []Finding {
	touched := make(map[string]bool)
	for _, c := range wf.Connections {
		touched[c.From] = true
		touched[c.To] = true
	}
	var out []Finding
	for _, n := range wf.Nodes {
		if !touched[n.ToolID] {
			out = append(out, Finding{
				Code:       CodeOrphanNode,
				Severity:   SeverityWarning,
				Message:    "tool has no connections",
				AffectedID: n.ToolID,
			})
		}
	}
	return out
}

// disconnectedOutputs flags sinks that receive nothing and processing tools
// whose output goes nowhere. Orphans are already reported on their own.
func disconnectedOutputs(wf *workflow.Workflow) []Finding {
	var out []Finding
	for _, n := range wf.Nodes {
		in := len(wf.Inbound(n.ToolID))
		outbound := len(wf.Outbound(n.ToolID))
		if in == 0 && outbound == 0 {
			continue
		}
		switch {
		case sinkTools[workflow.ShortPlugin(n.Plugin)] && in == 0:
			out = append(out, Finding{
				Code:       CodeDisconnectedOutput,
				Severity:   SeverityError,
				Message:    "output tool has no incoming connection",
				AffectedID: n.ToolID,
			})
		case !sinkTools[workflow.ShortPlugin(n.Plugin)] && outbound == 0:
			out = append(out, Finding{
				Code:       CodeDisconnectedOutput,
				Severity:   SeverityError,
				Message:    "tool output is not connected to anything",
				AffectedID: n.ToolID,
			})
		}
	}
	return out
}

func hardcodedDates(wf *workflow.Workflow) []Finding {
	var out []Finding
	for _, n := range wf.Nodes {
		if f, ok := dateFinding(n.Configuration.Text(), n.ToolID); ok {
			out = append(out, f)
		}
	}
	return out
}

func hardcodedServers(wf *workflow.Workflow) []Finding {
	var out []Finding
	for _, n := range wf.Nodes {
		if f, ok := serverFinding(n.Configuration.Text(), n.ToolID); ok {
			out = append(out, f)
		}
	}
	return out
}

func missingAnnotations(wf *workflow.Workflow) []Finding {
	if len(wf.Nodes) == 0 {
		return nil
	}
	missing := 0
	for _, n := range wf.Nodes {
		if n.Annotation == "" {
			missing++
		}
	}
	ratio := float64(missing) / float64(len(wf.Nodes))
	if ratio <= MissingAnnotationRatio {
		return nil
	}
	return []Finding{{
		Code:     CodeMissingAnnotations,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%d/%d tools have no annotation (%.0f%%)", missing, len(wf.Nodes), ratio*100),
	}}
}

func duplicateToolIDs(wf *workflow.Workflow) []Finding {
	ids := make([]string, len(wf.Nodes))
	for i, n := range wf.Nodes {
		ids[i] = n.ToolID
	}
	return duplicates(ids, "tool")
}

func emptyConfigurations(wf *workflow.Workflow) []Finding {
	var out []Finding
	for _, n := range wf.Nodes {
		if n.Plugin != "" && n.Configuration.IsEmpty() {
			out = append(out, Finding{
				Code:       CodeEmptyConfig,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("empty configuration for %s", n.Plugin),
				AffectedID: n.ToolID,
			})
		}
	}
	return out
}

func danglingConnections(wf *workflow.Workflow) []Finding {
	known := make(map[string]bool, len(wf.Nodes))
	for _, n := range wf.Nodes {
		known[n.ToolID] = true
	}
	var out []Finding
	for _, c := range wf.Connections {
		for _, end := range []struct{ id, role string }{{c.From, "origin"}, {c.To, "destination"}} {
			if !known[end.id] {
				out = append(out, Finding{
					Code:       CodeDanglingConnection,
					Severity:   SeverityError,
					Message:    fmt.Sprintf("connection %s->%s: %s references a missing tool", c.From, c.To, end.role),
					AffectedID: end.id,
				})
			}
		}
	}
	return out
}

func orphanSteps(pkg *workflow.Package) []Finding {
	if len(pkg.Steps) < 2 {
		return nil
	}
	touched := make(map[string]bool)
	for _, e := range pkg.Edges() {
		touched[e.From] = true
		touched[e.To] = true
	}
	var out []Finding
	for _, s := range pkg.Steps {
		if !touched[s.ID] {
			out = append(out, Finding{
				Code:       CodeOrphanStep,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("step '%s' is not part of the execution flow", s.ID),
				AffectedID: s.ID,
			})
		}
	}
	return out
}

func brokenFlows(pkg *workflow.Package) []Finding {
	var out []Finding
	for _, s := range pkg.Steps {
		if s.NextStep != "" && !hasStep(pkg, s.NextStep) {
			out = append(out, Finding{
				Code:       CodeBrokenFlow,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("step '%s' continues to missing step '%s'", s.ID, s.NextStep),
				AffectedID: s.ID,
			})
		}
	}
	for _, f := range pkg.Flows {
		if !hasStep(pkg, f.From) || !hasStep(pkg, f.To) {
			out = append(out, Finding{
				Code:       CodeBrokenFlow,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("flow %s->%s references a missing step", f.From, f.To),
				AffectedID: f.From,
			})
		}
	}
	return out
}

func brokenFailureFlows(pkg *workflow.Package) []Finding {
	var out []Finding
	for _, s := range pkg.Steps {
		if s.OnFailure != "" && !hasStep(pkg, s.OnFailure) {
			out = append(out, Finding{
				Code:       CodeBrokenFailureFlow,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("step '%s' falls back to missing step '%s'", s.ID, s.OnFailure),
				AffectedID: s.ID,
			})
		}
	}
	return out
}

func hardcodedStepDates(pkg *workflow.Package) []Finding {
	var out []Finding
	for _, s := range pkg.Steps {
		if f, ok := dateFinding(s.Command, s.ID); ok {
			out = append(out, f)
		}
	}
	return out
}

func hardcodedStepServers(pkg *workflow.Package) []Finding {
	var out []Finding
	for _, s := range pkg.Steps {
		if f, ok := serverFinding(s.Command, s.ID); ok {
			out = append(out, f)
		}
	}
	return out
}

func duplicateStepIDs(pkg *workflow.Package) []Finding {
	ids := make([]string, len(pkg.Steps))
	for i, s := range pkg.Steps {
		ids[i] = s.ID
	}
	return duplicates(ids, "step")
}

func emptySteps(pkg *workflow.Package) []Finding {
	var out []Finding
	for _, s := range pkg.Steps {
		if s.Command == "" && s.ScenarioRef == "" {
			out = append(out, Finding{
				Code:       CodeEmptyStep,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("step '%s' has no command or scenario", s.ID),
				AffectedID: s.ID,
			})
		}
	}
	return out
}

func missingScenarios(pkg *workflow.Package) []Finding {
	declared := make(map[string]bool, len(pkg.Scenarios))
	for _, sc := range pkg.Scenarios {
		declared[sc.Name] = true
	}
	var out []Finding
	for _, s := range pkg.Steps {
		if s.ScenarioRef != "" && !declared[s.ScenarioRef] {
			out = append(out, Finding{
				Code:       CodeMissingScenario,
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("step '%s' references undeclared scenario '%s'", s.ID, s.ScenarioRef),
				AffectedID: s.ID,
			})
		}
	}
	return out
}

// duplicates reports every occurrence of an id after its first, so a pair of
// equal ids yields exactly one finding.
func duplicates(ids []string, kind string) []Finding {
	count := make(map[string]int, len(ids))
	var out []Finding
	for _, id := range ids {
		count[id]++
		if count[id] > 1 {
			out = append(out, Finding{
				Code:       CodeDuplicateToolID,
				Severity:   SeverityError,
				Message:    fmt.Sprintf("%s id '%s' is used more than once (occurrence %d)", kind, id, count[id]),
				AffectedID: id,
			})
		}
	}
	return out
}

func dateFinding(text, id string) (Finding, bool) {
	matches := dates.Scan(text)
	if len(matches) == 0 {
		return Finding{}, false
	}
	m := matches[0]
	return Finding{
		Code:       CodeHardcodedDate,
		Severity:   SeverityInfo,
		Message:    fmt.Sprintf("hardcoded date %q (%s)", text[m.Start:m.End], m.Form),
		AffectedID: id,
	}, true
}

func serverFinding(text, id string) (Finding, bool) {
	literal := serverPattern.FindString(text)
	if literal == "" {
		if m := serverPrefixPattern.FindString(text); m != "" {
			literal = m[:len(m)-3]
		}
	}
	if literal == "" {
		return Finding{}, false
	}
	return Finding{
		Code:       CodeHardcodedServer,
		Severity:   SeverityInfo,
		Message:    fmt.Sprintf("hardcoded server %q", literal),
		AffectedID: id,
	}, true
}

func hasStep(pkg *workflow.Package, id string) bool {
	_, ok := pkg.Step(id)
	return ok
}
