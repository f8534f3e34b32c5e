package infrastructure

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/domain"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultRules []byte

var validate = validator.New()

// YAMLTemplateProvider implements TemplateProvider by reading the rule table
// from a YAML file, or from the built-in table when no file is configured.
// The file is read on every call so edits apply without a restart.
type YAMLTemplateProvider struct {
	rulesFile string
	logger    *slog.Logger
}

func NewYAMLTemplateProvider(cfg config.TemplatesConfig, logger *slog.Logger) domain.TemplateProvider {
	return &YAMLTemplateProvider{
		rulesFile: cfg.RulesFile,
		logger:    logger,
	}
}

// GetTemplates returns every rule keyed by template file name.
func (p *YAMLTemplateProvider) GetTemplates() (map[string]domain.TemplateRule, error) {
	data := defaultRules
	if p.rulesFile != "" {
		var err error
		data, err = os.ReadFile(p.rulesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read template rules: %w", err)
		}
	}

	table, err := ParseRuleTable(data)
	if err != nil {
		if p.rulesFile != "" {
			return nil, fmt.Errorf("%s: %w", p.rulesFile, err)
		}
		return nil, err
	}
	return table.Templates, nil
}

// GetTemplate looks a rule up by file name. Directories in file are ignored
// and the comparison is case-insensitive.
func (p *YAMLTemplateProvider) GetTemplate(file string) (*domain.TemplateRule, error) {
	templates, err := p.GetTemplates()
	if err != nil {
		return nil, err
	}

	name := filepath.Base(file)
	if rule, ok := templates[name]; ok {
		return &rule, nil
	}
	for key, rule := range templates {
		if strings.EqualFold(key, name) {
			return &rule, nil
		}
	}

	p.logger.Debug("No template rule for file", "file", name)
	return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, name)
}

// ParseRuleTable decodes and validates a rule table.
func ParseRuleTable(data []byte) (*domain.RuleTable, error) {
	var table domain.RuleTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(table.Templates) == 0 {
		return nil, errors.New("rule table must define at least one template")
	}

	if err := validate.Struct(table); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			e := validationErrs[0]
			return nil, fmt.Errorf("template rule %s: failed %s", e.Namespace(), e.Tag())
		}
		return nil, err
	}

	return &table, nil
}
