package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/textsearch"
	"github.com/flowbridge/flowbridge-mcp/internal/server"
	serverDomain "github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/application"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// DocumentSource loads a document from a path or inline text.
type DocumentSource interface {
	Load(ctx context.Context, path, inline string) ([]byte, error)
}

// EditorServerPlugin exposes template rewriting, diff, search and replace
// over raw document text.
type EditorServerPlugin struct {
	service *application.EditorService
	source  DocumentSource
	logger  *slog.Logger
}

func NewEditorServerPlugin(service *application.EditorService, source DocumentSource, logger *slog.Logger) serverDomain.ServerPlugin {
	return &EditorServerPlugin{
		service: service,
		source:  source,
		logger:  logger,
	}
}

func (p *EditorServerPlugin) ID() string   { return "editor" }
func (p *EditorServerPlugin) Name() string { return "XML Editor" }
func (p *EditorServerPlugin) Description() string {
	return "Rewrites dates and servers in template workflows, and diffs and searches XML text"
}
func (p *EditorServerPlugin) Version() string { return "0.1.0" }
func (p *EditorServerPlugin) Essential() bool { return false }

// ResourceProvider implementation
func (p *EditorServerPlugin) GetResources(ctx context.Context) ([]serverDomain.Resource, error) {
	return []serverDomain.Resource{
		{
			URI:         "flowbridge://editor/templates",
			Name:        "Template Rules",
			Description: "Template files with the nodes apply_template rewrites",
			MIMEType:    "application/json",
			Handler:     p.handleTemplatesResource,
		},
	}, nil
}

// ToolProvider implementation
func (p *EditorServerPlugin) GetTools(ctx context.Context) ([]serverDomain.Tool, error) {
	return []serverDomain.Tool{
		{
			Name:        "apply_template",
			Description: "Move a template workflow to a new period and server",
			Builder:     p.buildApplyTemplateTool,
			Handler:     p.handleApplyTemplate,
		},
		{
			Name:        "diff_xml",
			Description: "Line diff of two documents",
			Builder:     p.buildDiffTool,
			Handler:     p.handleDiff,
		},
		{
			Name:        "search_xml",
			Description: "Find text or a regular expression in a document",
			Builder:     p.buildSearchTool,
			Handler:     p.handleSearch,
		},
		{
			Name:        "replace_xml",
			Description: "Replace text or a regular expression in a document",
			Builder:     p.buildReplaceTool,
			Handler:     p.handleReplace,
		},
	}, nil
}

func (p *EditorServerPlugin) handleTemplatesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	templates, err := p.service.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to load template rules: %w", err)
	}

	jsonData, err := json.MarshalIndent(templates, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize template rules: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func inputOptions(prefix, what string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(prefix+"path",
			mcp.Description("Path of the "+what),
		),
		mcp.WithString(prefix+"xml",
			mcp.Description("Inline "+what+", used when the path is empty"),
		),
	}
}

func searchOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Literal text, or a Go regular expression when is_regex is set"),
		),
		mcp.WithBoolean("case_sensitive",
			mcp.Description("Match case exactly"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("whole_word",
			mcp.Description("Only match literal patterns bounded by non-word characters"),
			mcp.DefaultBool(false),
		),
		mcp.WithBoolean("is_regex",
			mcp.Description("Treat pattern as a regular expression"),
			mcp.DefaultBool(false),
		),
		mcp.WithNumber("max_matches",
			mcp.Description("Maximum number of matches. 0 uses the server limit"),
			mcp.Min(0),
		),
	}
}

func searchArgs(req mcp.CallToolRequest) textsearch.Options {
	return textsearch.Options{
		CaseSensitive: req.GetBool("case_sensitive", false),
		WholeWord:     req.GetBool("whole_word", false),
		IsRegex:       req.GetBool("is_regex", false),
		MaxMatches:    req.GetInt("max_matches", 0),
	}
}

func (p *EditorServerPlugin) buildApplyTemplateTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Rewrite the date and server literals of selected nodes, leaving every other byte untouched. " +
			"Nodes come from a template rule, from explicit lists, or both"),
		mcp.WithString("template",
			mcp.Description("Template file name in the rule table. Defaults to the file name of path"),
		),
		mcp.WithNumber("year",
			mcp.Description("Target year"),
			mcp.Min(1000),
			mcp.Max(9999),
		),
		mcp.WithNumber("month",
			mcp.Description("Target month"),
			mcp.Min(1),
			mcp.Max(12),
		),
		mcp.WithString("server",
			mcp.Description("New server for server nodes. Empty leaves servers unchanged"),
		),
		mcp.WithArray("date_nodes",
			mcp.Description("Extra node ids whose dates are rewritten"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("server_nodes",
			mcp.Description("Extra node ids whose server is rewritten"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("forms",
			mcp.Description("Date forms to rewrite. Empty rewrites every form"),
			mcp.WithStringItems(mcp.Enum("YYYY-MM-DD", "DD/MM/YYYY", "YYYY-MM", "MM/YYYY", "MM-YYYY")),
		),
	}, inputOptions("", "document")...)
	return mcp.NewTool("apply_template", opts...)
}

func (p *EditorServerPlugin) handleApplyTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	request := domain.TemplateRequest{
		Template:    req.GetString("template", ""),
		DateNodes:   req.GetStringSlice("date_nodes", nil),
		ServerNodes: req.GetStringSlice("server_nodes", nil),
		Year:        req.GetInt("year", 0),
		Month:       req.GetInt("month", 0),
		Server:      req.GetString("server", ""),
	}
	for _, raw := range req.GetStringSlice("forms", nil) {
		form, err := dates.ParseForm(raw)
		if err != nil {
			return server.InvalidArgument(err.Error()), nil
		}
		request.Forms = append(request.Forms, form)
	}
	if request.Template == "" && path != "" && len(request.DateNodes) == 0 && len(request.ServerNodes) == 0 {
		request.Template = filepath.Base(path)
	}

	data, err := p.source.Load(ctx, path, req.GetString("xml", ""))
	if err != nil {
		return server.ToolError(err), nil
	}

	out, err := p.service.ApplyTemplate(ctx, data, path, request)
	if err != nil {
		if application.IsRequestError(err) {
			return server.InvalidArgument(err.Error()), nil
		}
		return server.ToolError(err), nil
	}

	status := server.ToolStatusOK
	message := fmt.Sprintf("Rewrote %d dates and %d servers in %d nodes",
		out.Stats.Dates, out.Stats.Servers, out.Stats.NodesModified)
	if len(out.Warnings) > 0 {
		status = server.ToolStatusPartial
		message = fmt.Sprintf("%s, %d rule targets not found", message, len(out.Warnings))
	}
	return server.NewResult(server.ToolResponse{
		Status:  status,
		Code:    "TEMPLATE_APPLIED",
		Message: message,
		Data:    out,
		Links: []server.ToolLink{
			{Rel: "compare", Tool: "diff_xml", Params: map[string]any{"left_path": path}},
		},
	}), nil
}

func (p *EditorServerPlugin) buildDiffTool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription("Line diff of two documents. Similar removed and added lines are paired as modified"),
	}
	opts = append(opts, inputOptions("left_", "left document")...)
	opts = append(opts, inputOptions("right_", "right document")...)
	return mcp.NewTool("diff_xml", opts...)
}

func (p *EditorServerPlugin) handleDiff(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	left, err := p.source.Load(ctx, req.GetString("left_path", ""), req.GetString("left_xml", ""))
	if err != nil {
		return server.ToolError(fmt.Errorf("left: %w", err)), nil
	}
	right, err := p.source.Load(ctx, req.GetString("right_path", ""), req.GetString("right_xml", ""))
	if err != nil {
		return server.ToolError(fmt.Errorf("right: %w", err)), nil
	}

	out, err := p.service.Diff(ctx, left, right)
	if err != nil {
		return server.ToolError(err), nil
	}
	message := "Documents are identical"
	if !out.Summary.Identical {
		message = fmt.Sprintf("%d added, %d removed, %d modified lines",
			out.Summary.Added, out.Summary.Removed, out.Summary.Modified)
	}
	return server.OK(message, out), nil
}

func (p *EditorServerPlugin) buildSearchTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Find text or a regular expression in a document and report line and column of each match"),
	}, searchOptions()...)
	opts = append(opts, inputOptions("", "document")...)
	return mcp.NewTool("search_xml", opts...)
}

func (p *EditorServerPlugin) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern, err := req.RequireString("pattern")
	if err != nil {
		return server.InvalidArgument("pattern is required"), nil
	}

	data, err := p.source.Load(ctx, req.GetString("path", ""), req.GetString("xml", ""))
	if err != nil {
		return server.ToolError(err), nil
	}

	out, err := p.service.Search(ctx, data, pattern, searchArgs(req))
	if err != nil {
		return server.ToolError(err), nil
	}
	return server.OK(fmt.Sprintf("%d matches", out.Count), out), nil
}

func (p *EditorServerPlugin) buildReplaceTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Replace text or a regular expression in a document and return the new text. " +
			"Regex replacements expand ${1} style groups"),
		mcp.WithString("replacement",
			mcp.Required(),
			mcp.Description("Replacement text"),
		),
	}, searchOptions()...)
	opts = append(opts, inputOptions("", "document")...)
	return mcp.NewTool("replace_xml", opts...)
}

func (p *EditorServerPlugin) handleReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pattern, err := req.RequireString("pattern")
	if err != nil {
		return server.InvalidArgument("pattern is required"), nil
	}
	replacement, err := req.RequireString("replacement")
	if err != nil {
		return server.InvalidArgument("replacement is required"), nil
	}

	data, err := p.source.Load(ctx, req.GetString("path", ""), req.GetString("xml", ""))
	if err != nil {
		return server.ToolError(err), nil
	}

	out, err := p.service.Replace(ctx, data, pattern, replacement, searchArgs(req))
	if err != nil {
		return server.ToolError(err), nil
	}
	return server.OK(fmt.Sprintf("%d replacements", out.Replacements), out), nil
}
