package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/files"
	editorApp "github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/application"
	editorInfra "github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/infrastructure"
	workflowApp "github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/application"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/metrics"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"github.com/flowbridge/flowbridge-mcp/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type CommandConfig struct {
	Version   string
	BuildTime string
}

// environment holds the services a command runs against. It is built once
// the flags are parsed.
type environment struct {
	cfg      *config.ServerConfig
	logger   *slog.Logger
	source   *files.Source
	workflow *workflowApp.WorkflowService
	editor   *editorApp.EditorService
	format   string
}

func CreateRootCommand(cmdConfig *CommandConfig) *cobra.Command {
	env := &environment{}

	rootCmd := &cobra.Command{
		Use:   "flowbridge",
		Short: "FlowBridge - Alteryx and ODI workflow tooling",
		Long: `FlowBridge parses, converts, validates and edits Alteryx workflows and
Oracle Data Integrator packages. Results are printed as JSON on stdout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.init(cmd)
		},
	}

	addPersistentFlags(rootCmd)

	if err := bindFlags(rootCmd); err != nil {
		panic(fmt.Sprintf("failed to bind flags to configuration: %v", err))
	}

	rootCmd.AddCommand(
		createVersionCommand(cmdConfig),
		createParseCommand(env),
		createConvertCommand(env),
		createValidateCommand(env),
		createTemplateCommand(env),
		createDiffCommand(env),
		createSearchCommand(env),
		createReplaceCommand(env),
	)

	return rootCmd
}

func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func createVersionCommand(cmdConfig *CommandConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "FlowBridge\n")
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", cmdConfig.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Build time: %s\n", cmdConfig.BuildTime)
		},
	}
}

func (e *environment) init(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load the configuration: %w", err)
	}

	format, err := cmd.Flags().GetString("output-format")
	if err != nil {
		return err
	}
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown output format %q (expected json or yaml)", format)
	}

	e.cfg = cfg
	e.format = format
	e.logger = logger.New(cmd.ErrOrStderr(), cfg.LogLevel, "text", nil)

	collector := metrics.NewNoOpCollector()
	e.source = files.NewSource(cfg.Limits, e.logger)
	e.workflow = workflowApp.NewWorkflowService(collector, e.logger)
	e.editor = editorApp.NewEditorService(editorApp.EditorServiceParams{
		Templates: editorInfra.NewYAMLTemplateProvider(cfg.Templates, e.logger),
		Diff:      cfg.Diff,
		Search:    cfg.Search,
		Collector: collector,
		Logger:    e.logger,
	})
	return nil
}

// print writes v to the command's stdout in the selected format.
func (e *environment) print(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	if e.format == "yaml" {
		data, err = jsonToYAML(data)
		if err != nil {
			return err
		}
	} else {
		data = append(data, '\n')
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// jsonToYAML re-encodes a JSON document as block-style YAML, keeping the
// JSON field names and order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert result to YAML: %w", err)
	}
	resetStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("failed to convert result to YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resetStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		resetStyle(child)
	}
}

func writeText(w io.Writer, text string) error {
	_, err := io.WriteString(w, text)
	return err
}

func addPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("output-format", "json", "result format (json, yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("rules-file", "", "YAML template rule table, overrides the built-in rules")
	rootCmd.PersistentFlags().Int64("max-file-size", 50<<20, "largest document read, in bytes")
	rootCmd.PersistentFlags().Int("max-matches", 1000, "search and replace match limit, 0 for none")
	rootCmd.PersistentFlags().Float64("similarity-threshold", 0.6, "diff similarity for pairing lines as modified")
}

// bindFlags binds the command line flags to the configuration viper
// Returns an error if the binding fails for any of the flags
func bindFlags(rootCmd *cobra.Command) error {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"log_level", "log-level"},
		{"templates.rules_file", "rules-file"},
		{"limits.max_file_size", "max-file-size"},
		{"search.max_matches", "max-matches"},
		{"diff.similarity_threshold", "similarity-threshold"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, rootCmd.PersistentFlags().Lookup(binding.flag)); err != nil {
			return fmt.Errorf("failed to bind flag '%s': %w", binding.flag, err)
		}
	}

	return nil
}
