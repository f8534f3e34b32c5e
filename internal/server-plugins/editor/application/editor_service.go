package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/textdiff"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/textsearch"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmledit"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/metrics"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"go.uber.org/fx"
)

// EditorService applies template rules and runs the text tools. It never
// writes files.
type EditorService struct {
	templates domain.TemplateProvider
	editor    *xmledit.Editor
	diff      config.DiffConfig
	search    config.SearchConfig
	collector metrics.Collector
	logger    *slog.Logger
}

type EditorServiceParams struct {
	fx.In

	Templates domain.TemplateProvider
	Diff      config.DiffConfig
	Search    config.SearchConfig
	Collector metrics.Collector
	Logger    *slog.Logger
}

func NewEditorService(params EditorServiceParams) *EditorService {
	return &EditorService{
		templates: params.Templates,
		editor:    xmledit.NewEditor(params.Logger),
		diff:      params.Diff,
		search:    params.Search,
		collector: params.Collector,
		logger:    params.Logger,
	}
}

// Templates returns the rule table.
func (s *EditorService) Templates() (map[string]domain.TemplateRule, error) {
	return s.templates.GetTemplates()
}

// Rules resolves a request into editor rules. Explicit node lists are
// appended to the template's. Server nodes are dropped when no server is
// given.
func (s *EditorService) Rules(req domain.TemplateRequest) (xmledit.Rules, *domain.TemplateRule, error) {
	var rule *domain.TemplateRule
	if req.Template != "" {
		var err error
		rule, err = s.templates.GetTemplate(req.Template)
		if err != nil {
			return xmledit.Rules{}, nil, err
		}
	} else if len(req.DateNodes) == 0 && len(req.ServerNodes) == 0 {
		return xmledit.Rules{}, nil, fmt.Errorf("%w: a template or explicit node lists are required", domain.ErrInvalidRequest)
	}

	rules := xmledit.Rules{Forms: req.Forms}
	if rule != nil {
		rules.DateNodes = append(rules.DateNodes, rule.DateNodes.ToolIDs...)
		rules.ServerNodes = append(rules.ServerNodes, rule.ServerNodes...)
	}
	rules.DateNodes = appendDistinct(rules.DateNodes, req.DateNodes)
	rules.ServerNodes = appendDistinct(rules.ServerNodes, req.ServerNodes)

	if req.Year != 0 || req.Month != 0 {
		rules.Date = &dates.Target{Year: req.Year, Month: req.Month}
	}
	if rules.Date == nil && len(rules.DateNodes) > 0 {
		return xmledit.Rules{}, nil, fmt.Errorf("%w: year and month are required to rewrite dates", domain.ErrInvalidRequest)
	}

	if req.Server == "" {
		if len(rules.ServerNodes) > 0 {
			s.logger.Debug("No server given, skipping server nodes", "count", len(rules.ServerNodes))
		}
		rules.ServerNodes = nil
	} else {
		rules.Server = req.Server
	}

	if err := rules.Validate(); err != nil {
		return xmledit.Rules{}, nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return rules, rule, nil
}

// ApplyTemplate rewrites the selected nodes of doc. name is the document's
// file name, used for the output name when no template rule is found.
func (s *EditorService) ApplyTemplate(ctx context.Context, doc []byte, name string, req domain.TemplateRequest) (*domain.TemplateOutput, error) {
	rules, rule, err := s.Rules(req)
	if err != nil {
		return nil, err
	}

	result, err := s.editor.Apply(doc, rules)
	if err != nil {
		return nil, err
	}

	s.collector.RecordEdits(ctx, xmledit.PurposeDate, result.Stats.Dates)
	s.collector.RecordEdits(ctx, xmledit.PurposeServer, result.Stats.Servers)

	if req.Template != "" {
		name = req.Template
	}
	out := &domain.TemplateOutput{
		Template:   req.Template,
		OutputName: domain.OutputName(name, rule),
		XML:        result.Text,
		Stats:      result.Stats,
		Changes:    result.Changes,
		Warnings:   result.WarningMessages(),
	}
	if out.Changes == nil {
		out.Changes = []xmledit.Change{}
	}

	s.logger.Info("Applied template",
		"template", req.Template,
		"dates", result.Stats.Dates,
		"servers", result.Stats.Servers,
		"nodes_modified", result.Stats.NodesModified,
		"warnings", len(out.Warnings))
	return out, nil
}

// Diff compares two texts line by line with the configured similarity
// threshold.
func (s *EditorService) Diff(ctx context.Context, left, right []byte) (*domain.DiffOutput, error) {
	entries, err := textdiff.Compare(string(left), string(right),
		textdiff.WithSimilarityThreshold(s.diff.SimilarityThreshold),
		textdiff.WithMaxCells(s.diff.MaxCells))
	if err != nil {
		s.logger.Warn("Diff refused", "error", err)
		return nil, err
	}
	if entries == nil {
		entries = []textdiff.Entry{}
	}
	return &domain.DiffOutput{
		Summary: textdiff.Stats(entries),
		Entries: entries,
		Unified: textdiff.Unified(entries),
	}, nil
}

// Search finds pattern in text. A zero MaxMatches takes the configured cap.
func (s *EditorService) Search(ctx context.Context, text []byte, pattern string, opts textsearch.Options) (*domain.SearchOutput, error) {
	opts = s.withLimit(opts)
	matches, err := textsearch.Find(string(text), pattern, opts)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []textsearch.Match{}
	}
	return &domain.SearchOutput{
		Pattern:   pattern,
		Count:     len(matches),
		Truncated: opts.MaxMatches > 0 && len(matches) == opts.MaxMatches,
		Matches:   matches,
	}, nil
}

// Replace substitutes every match of pattern and returns the new text.
func (s *EditorService) Replace(ctx context.Context, text []byte, pattern, replacement string, opts textsearch.Options) (*domain.ReplaceOutput, error) {
	out, n, err := textsearch.Replace(string(text), pattern, replacement, s.withLimit(opts))
	if err != nil {
		return nil, err
	}
	s.collector.RecordEdits(ctx, "replace", n)
	return &domain.ReplaceOutput{
		Pattern:      pattern,
		Replacements: n,
		XML:          out,
	}, nil
}

func (s *EditorService) withLimit(opts textsearch.Options) textsearch.Options {
	if opts.MaxMatches == 0 {
		opts.MaxMatches = s.search.MaxMatches
	}
	return opts
}

// IsRequestError reports errors caused by the caller's arguments.
func IsRequestError(err error) bool {
	return errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrTemplateNotFound)
}

func appendDistinct(dst, src []string) []string {
	for _, id := range src {
		if !slices.Contains(dst, id) {
			dst = append(dst, id)
		}
	}
	return dst
}
