package domain

import (
	"fmt"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/validation"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
)

// Format names a workflow file format.
type Format string

const (
	FormatAuto    Format = "auto"
	FormatAlteryx Format = "alteryx"
	FormatODI     Format = "odi"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatAlteryx, FormatODI:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (expected alteryx, odi or auto)", s)
	}
}

// Direction names a conversion.
type Direction string

const (
	DirectionAlteryxToODI Direction = "a2o"
	DirectionODIToAlteryx Direction = "o2a"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionAlteryxToODI, DirectionODIToAlteryx:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("unknown direction %q (expected a2o or o2a)", s)
	}
}

// Source returns the format a conversion reads.
func (d Direction) Source() Format {
	if d == DirectionODIToAlteryx {
		return FormatODI
	}
	return FormatAlteryx
}

// Document is a parsed workflow of either format. Exactly one model is set.
type Document struct {
	Format   Format             `json:"format"`
	Workflow *workflow.Workflow `json:"workflow,omitempty"`
	Package  *workflow.Package  `json:"package,omitempty"`
}

// WorkflowSummary is the short description returned alongside a parse.
type WorkflowSummary struct {
	Format      Format   `json:"format"`
	Name        string   `json:"name,omitempty"`
	Nodes       int      `json:"nodes"`
	Connections int      `json:"connections"`
	Constants   int      `json:"constants,omitempty"`
	Scenarios   []string `json:"scenarios,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Targets     []string `json:"targets,omitempty"`
}

// ConversionOutput is a converted document serialized to XML.
type ConversionOutput struct {
	Direction Direction           `json:"direction"`
	XML       string              `json:"xml"`
	Unmapped  []workflow.Unmapped `json:"unmapped"`
	Lossless  bool                `json:"lossless"`
}

// ValidationReport is the filtered finding list for one document.
type ValidationReport struct {
	Format      Format               `json:"format"`
	MinSeverity validation.Severity  `json:"min_severity"`
	Findings    []validation.Finding `json:"findings"`
	Summary     validation.Summary   `json:"summary"`
}
