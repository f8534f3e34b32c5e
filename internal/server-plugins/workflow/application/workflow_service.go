package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/alteryx"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/conversion"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/odi"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/validation"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmldoc"
	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/cache"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/metrics"
)

// WorkflowService runs the parse, convert and validate operations on raw
// document bytes. Reading the bytes is the caller's job.
type WorkflowService struct {
	collector metrics.Collector
	cache     *cache.DocumentCache[*domain.Document]
	logger    *slog.Logger
}

func NewWorkflowService(collector metrics.Collector, logger *slog.Logger) *WorkflowService {
	return &WorkflowService{collector: collector, logger: logger}
}

// NewCachedWorkflowService reuses parsed documents for repeated calls on the
// same bytes. Cached documents are shared and must not be modified.
func NewCachedWorkflowService(collector metrics.Collector, documents *cache.DocumentCache[*domain.Document], logger *slog.Logger) *WorkflowService {
	return &WorkflowService{collector: collector, cache: documents, logger: logger}
}

// DetectFormat picks the format from the root element.
func DetectFormat(data []byte) (domain.Format, error) {
	root, err := xmldoc.RootName(data)
	if err != nil {
		return "", err
	}
	if root == alteryx.RootElement {
		return domain.FormatAlteryx, nil
	}
	if slices.Contains(odi.RootElements, root) {
		return domain.FormatODI, nil
	}
	return "", &workflow.UnsupportedWorkflowError{Root: root, Missing: alteryx.RootElement}
}

// Parse reads data as format, detecting it first for FormatAuto.
func (s *WorkflowService) Parse(ctx context.Context, data []byte, format domain.Format) (*domain.Document, error) {
	if doc, ok := s.cache.Get(string(format), data); ok {
		return doc, nil
	}
	requested := format

	if format == domain.FormatAuto || format == "" {
		detected, err := DetectFormat(data)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	doc := &domain.Document{Format: format}
	switch format {
	case domain.FormatAlteryx:
		wf, err := alteryx.Parse(data)
		if err != nil {
			return nil, err
		}
		doc.Workflow = wf
	case domain.FormatODI:
		pkg, err := odi.Parse(data)
		if err != nil {
			return nil, err
		}
		doc.Package = pkg
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}

	s.cache.Set(string(requested), data, doc)
	s.logger.Debug("Parsed workflow document", "format", format)
	return doc, nil
}

// Summarize describes a parsed document in a few numbers.
func Summarize(doc *domain.Document) domain.WorkflowSummary {
	summary := domain.WorkflowSummary{Format: doc.Format}
	if wf := doc.Workflow; wf != nil {
		summary.Name = wf.Property("name")
		summary.Nodes = len(wf.Nodes)
		summary.Connections = len(wf.Connections)
		summary.Constants = len(wf.Constants)
	}
	if pkg := doc.Package; pkg != nil {
		summary.Name = pkg.Name
		summary.Nodes = len(pkg.Steps)
		summary.Connections = len(pkg.Edges())
		summary.Scenarios = pkg.ScenarioIDs()
		summary.Sources = pkg.DataSources()
		summary.Targets = pkg.DataTargets()
	}
	return summary
}

// Convert parses data in the direction's source format and serializes the
// converted model. Unmapped entities are reported, never fatal.
func (s *WorkflowService) Convert(ctx context.Context, data []byte, direction domain.Direction) (*domain.ConversionOutput, error) {
	doc, err := s.Parse(ctx, data, direction.Source())
	if err != nil {
		return nil, err
	}

	out := &domain.ConversionOutput{Direction: direction}
	var xmlBytes []byte
	switch direction {
	case domain.DirectionAlteryxToODI:
		res := conversion.ToOdi(doc.Workflow)
		out.Unmapped = res.Unmapped
		out.Lossless = res.Lossless()
		xmlBytes, err = odi.Marshal(res.Model)
	case domain.DirectionODIToAlteryx:
		res := conversion.ToAlteryx(doc.Package)
		out.Unmapped = res.Unmapped
		out.Lossless = res.Lossless()
		xmlBytes, err = alteryx.Marshal(res.Model)
	default:
		return nil, fmt.Errorf("unknown direction %q", direction)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to serialize converted document: %w", err)
	}
	if out.Unmapped == nil {
		out.Unmapped = []workflow.Unmapped{}
	}
	out.XML = string(xmlBytes)

	s.collector.RecordConversion(ctx, string(direction), len(out.Unmapped))
	s.logger.Info("Converted workflow",
		"direction", direction,
		"unmapped", len(out.Unmapped))
	return out, nil
}

// Validate runs the rules for the document's format and keeps findings at or
// above minSeverity. The summary counts every finding.
func (s *WorkflowService) Validate(ctx context.Context, data []byte, format domain.Format, minSeverity validation.Severity) (*domain.ValidationReport, error) {
	doc, err := s.Parse(ctx, data, format)
	if err != nil {
		return nil, err
	}

	var findings []validation.Finding
	if doc.Workflow != nil {
		findings = validation.ValidateWorkflow(doc.Workflow)
	} else {
		findings = validation.ValidatePackage(doc.Package)
	}

	summary := validation.Summarize(findings)
	s.collector.RecordFindings(ctx, validation.SeverityError.String(), summary.Errors)
	s.collector.RecordFindings(ctx, validation.SeverityWarning.String(), summary.Warnings)
	s.collector.RecordFindings(ctx, validation.SeverityInfo.String(), summary.Infos)

	filtered := validation.Filter(findings, minSeverity)
	return &domain.ValidationReport{
		Format:      doc.Format,
		MinSeverity: minSeverity,
		Findings:    filtered,
		Summary:     summary,
	}, nil
}
