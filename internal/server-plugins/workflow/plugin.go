package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/conversion"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/validation"
	"github.com/flowbridge/flowbridge-mcp/internal/server"
	serverDomain "github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/application"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// DocumentSource loads a document from a path or inline text.
type DocumentSource interface {
	Load(ctx context.Context, path, inline string) ([]byte, error)
}

// WorkflowServerPlugin exposes parsing, conversion and validation of Alteryx
// workflows and ODI packages.
type WorkflowServerPlugin struct {
	service *application.WorkflowService
	source  DocumentSource
	logger  *slog.Logger
}

func NewWorkflowServerPlugin(service *application.WorkflowService, source DocumentSource, logger *slog.Logger) serverDomain.ServerPlugin {
	return &WorkflowServerPlugin{
		service: service,
		source:  source,
		logger:  logger,
	}
}

func (p *WorkflowServerPlugin) ID() string   { return "workflow" }
func (p *WorkflowServerPlugin) Name() string { return "Workflow Conversion" }
func (p *WorkflowServerPlugin) Description() string {
	return "Parses, converts and validates Alteryx workflows and ODI packages"
}
func (p *WorkflowServerPlugin) Version() string { return "0.1.0" }
func (p *WorkflowServerPlugin) Essential() bool { return false }

// ResourceProvider implementation
func (p *WorkflowServerPlugin) GetResources(ctx context.Context) ([]serverDomain.Resource, error) {
	return []serverDomain.Resource{
		{
			URI:         "flowbridge://workflow/conversion-table",
			Name:        "Conversion Table",
			Description: "Correspondence between Alteryx tools and ODI step types, with the direction each row applies to",
			MIMEType:    "application/json",
			Handler:     p.handleConversionTableResource,
		},
	}, nil
}

// ToolProvider implementation
func (p *WorkflowServerPlugin) GetTools(ctx context.Context) ([]serverDomain.Tool, error) {
	return []serverDomain.Tool{
		{
			Name:        "parse_workflow",
			Description: "Parse an Alteryx workflow or ODI package into the unified model",
			Builder:     p.buildParseWorkflowTool,
			Handler:     p.handleParseWorkflow,
		},
		{
			Name:        "convert_workflow",
			Description: "Convert between Alteryx and ODI",
			Builder:     p.buildConvertWorkflowTool,
			Handler:     p.handleConvertWorkflow,
		},
		{
			Name:        "validate_workflow",
			Description: "Report structural problems and hardcoded values",
			Builder:     p.buildValidateWorkflowTool,
			Handler:     p.handleValidateWorkflow,
		},
	}, nil
}

// PromptProvider implementation
func (p *WorkflowServerPlugin) GetPrompts(ctx context.Context) ([]serverDomain.Prompt, error) {
	return []serverDomain.Prompt{
		{
			Name:        "review_workflow",
			Description: "Review a workflow before migrating it",
			Builder:     p.buildReviewWorkflowPrompt,
			Handler:     p.handleReviewWorkflowPrompt,
		},
	}, nil
}

func (p *WorkflowServerPlugin) handleConversionTableResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(conversion.Table(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize conversion table: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func inputOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("path",
			mcp.Description("Path of the document to read"),
		),
		mcp.WithString("xml",
			mcp.Description("Inline document, used when path is empty"),
		),
	}
}

func (p *WorkflowServerPlugin) buildParseWorkflowTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Parse an Alteryx workflow (.yxmd/.yxmc/.yxwz) or an ODI package into the unified model"),
		mcp.WithString("format",
			mcp.Description("Document format"),
			mcp.Enum(string(domain.FormatAuto), string(domain.FormatAlteryx), string(domain.FormatODI)),
			mcp.DefaultString(string(domain.FormatAuto)),
		),
	}, inputOptions()...)
	return mcp.NewTool("parse_workflow", opts...)
}

func (p *WorkflowServerPlugin) handleParseWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := domain.ParseFormat(req.GetString("format", string(domain.FormatAuto)))
	if err != nil {
		return server.InvalidArgument(err.Error()), nil
	}

	data, err := p.source.Load(ctx, req.GetString("path", ""), req.GetString("xml", ""))
	if err != nil {
		return server.ToolError(err), nil
	}

	doc, err := p.service.Parse(ctx, data, format)
	if err != nil {
		return server.ToolError(err), nil
	}

	summary := application.Summarize(doc)
	return server.NewResult(server.ToolResponse{
		Status:  server.ToolStatusOK,
		Code:    "WORKFLOW_PARSED",
		Message: fmt.Sprintf("Parsed %s document with %d nodes", summary.Format, summary.Nodes),
		Data:    map[string]any{"summary": summary, "document": doc},
		Links: []server.ToolLink{
			{Rel: "validate", Tool: "validate_workflow", Params: map[string]any{"format": string(doc.Format)}},
		},
	}), nil
}

func (p *WorkflowServerPlugin) buildConvertWorkflowTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Convert an Alteryx workflow to an ODI package (a2o) or back (o2a). Entities without a counterpart are listed as unmapped"),
		mcp.WithString("direction",
			mcp.Required(),
			mcp.Description("Conversion direction"),
			mcp.Enum(string(domain.DirectionAlteryxToODI), string(domain.DirectionODIToAlteryx)),
		),
	}, inputOptions()...)
	return mcp.NewTool("convert_workflow", opts...)
}

func (p *WorkflowServerPlugin) handleConvertWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("direction")
	if err != nil {
		return server.InvalidArgument("direction is required"), nil
	}
	direction, err := domain.ParseDirection(raw)
	if err != nil {
		return server.InvalidArgument(err.Error()), nil
	}

	data, err := p.source.Load(ctx, req.GetString("path", ""), req.GetString("xml", ""))
	if err != nil {
		return server.ToolError(err), nil
	}

	out, err := p.service.Convert(ctx, data, direction)
	if err != nil {
		return server.ToolError(err), nil
	}

	message := "Converted without losses"
	status := server.ToolStatusOK
	if !out.Lossless {
		message = fmt.Sprintf("Converted with %d unmapped entities", len(out.Unmapped))
		status = server.ToolStatusPartial
	}
	return server.NewResult(server.ToolResponse{
		Status:  status,
		Code:    "WORKFLOW_CONVERTED",
		Message: message,
		Data:    out,
	}), nil
}

func (p *WorkflowServerPlugin) buildValidateWorkflowTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Validate a workflow or package and list findings in rule order"),
		mcp.WithString("format",
			mcp.Description("Document format"),
			mcp.Enum(string(domain.FormatAuto), string(domain.FormatAlteryx), string(domain.FormatODI)),
			mcp.DefaultString(string(domain.FormatAuto)),
		),
		mcp.WithString("min_severity",
			mcp.Description("Lowest severity to report"),
			mcp.Enum("info", "warning", "error"),
			mcp.DefaultString("info"),
		),
	}, inputOptions()...)
	return mcp.NewTool("validate_workflow", opts...)
}

func (p *WorkflowServerPlugin) handleValidateWorkflow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format, err := domain.ParseFormat(req.GetString("format", string(domain.FormatAuto)))
	if err != nil {
		return server.InvalidArgument(err.Error()), nil
	}
	minSeverity, err := validation.ParseSeverity(req.GetString("min_severity", "info"))
	if err != nil {
		return server.InvalidArgument(err.Error()), nil
	}

	data, err := p.source.Load(ctx, req.GetString("path", ""), req.GetString("xml", ""))
	if err != nil {
		return server.ToolError(err), nil
	}

	report, err := p.service.Validate(ctx, data, format, minSeverity)
	if err != nil {
		return server.ToolError(err), nil
	}

	return server.OK(
		fmt.Sprintf("%d errors, %d warnings, %d infos", report.Summary.Errors, report.Summary.Warnings, report.Summary.Infos),
		report,
	), nil
}

func (p *WorkflowServerPlugin) buildReviewWorkflowPrompt() mcp.Prompt {
	return mcp.NewPrompt(
		"review_workflow",
		mcp.WithPromptDescription("Review a workflow before migrating it between Alteryx and ODI"),
		mcp.WithArgument("path",
			mcp.RequiredArgument(),
			mcp.ArgumentDescription("Path of the workflow or package to review"),
		),
	)
}

func (p *WorkflowServerPlugin) handleReviewWorkflowPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	path, ok := req.Params.Arguments["path"]
	if !ok || path == "" {
		return &mcp.GetPromptResult{
			Description: "path parameter is required",
		}, fmt.Errorf("path parameter is required")
	}

	tmpl := ReviewPrompt()
	return &mcp.GetPromptResult{
		Description: tmpl.Description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: fmt.Sprintf(tmpl.Template, path)},
			},
		},
	}, nil
}
