package domain

import (
	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/textdiff"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/textsearch"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmledit"
)

// TemplateRequest selects the nodes to rewrite, from a named template, from
// explicit lists, or both. Year and Month are zero when no date is given.
type TemplateRequest struct {
	Template    string
	DateNodes   []string
	ServerNodes []string
	Year        int
	Month       int
	Forms       []dates.Form
	Server      string
}

type TemplateOutput struct {
	Template   string           `json:"template,omitempty"`
	OutputName string           `json:"output_name"`
	XML        string           `json:"xml"`
	Stats      xmledit.Stats    `json:"stats"`
	Changes    []xmledit.Change `json:"changes"`
	Warnings   []string         `json:"warnings"`
}

type DiffOutput struct {
	Summary textdiff.Summary `json:"summary"`
	Entries []textdiff.Entry `json:"entries"`
	Unified string           `json:"unified"`
}

type SearchOutput struct {
	Pattern   string             `json:"pattern"`
	Count     int                `json:"count"`
	Truncated bool               `json:"truncated"`
	Matches   []textsearch.Match `json:"matches"`
}

type ReplaceOutput struct {
	Pattern      string `json:"pattern"`
	Replacements int    `json:"replacements"`
	XML          string `json:"xml"`
}
