package domain

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidRequest   = errors.New("invalid edit request")
)

// TemplateRule names the nodes of one template file that hold the period
// and the server.
type TemplateRule struct {
	Name        string    `yaml:"name" json:"name" validate:"required"`
	OutputName  string    `yaml:"output_name" json:"output_name,omitempty"`
	DateNodes   DateNodes `yaml:"date_nodes" json:"date_nodes"`
	ServerNodes []string  `yaml:"server_nodes" json:"server_nodes" validate:"dive,required"`
}

type DateNodes struct {
	ToolIDs []string `yaml:"tool_ids" json:"tool_ids" validate:"dive,required"`
}

// RuleTable is the template rule file, keyed by template file name.
type RuleTable struct {
	Templates map[string]TemplateRule `yaml:"templates" json:"templates" validate:"dive,keys,required,endkeys"`
}

// TemplateProvider supplies the template rule table.
type TemplateProvider interface {
	GetTemplates() (map[string]TemplateRule, error)
	GetTemplate(file string) (*TemplateRule, error)
}

// OutputName is the file name a processed template is saved under: the
// rule's output name, or the input name without its extension.
func OutputName(file string, rule *TemplateRule) string {
	if rule != nil && rule.OutputName != "" {
		return rule.OutputName
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
