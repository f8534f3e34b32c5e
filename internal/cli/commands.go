package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/textsearch"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/validation"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/xmledit"
	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/files"
	editorDomain "github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/domain"
	workflowApp "github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/application"
	workflowDomain "github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/domain"
	"github.com/spf13/cobra"
)

// ExitError carries a process exit status for failures that are results,
// such as a validation with errors.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

func createParseCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a workflow and print its model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			data, err := env.source.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			doc, err := env.workflow.Parse(cmd.Context(), data, format)
			if err != nil {
				return err
			}

			full, _ := cmd.Flags().GetBool("full")
			if !full {
				return env.print(cmd, workflowApp.Summarize(doc))
			}
			return env.print(cmd, map[string]any{
				"summary":  workflowApp.Summarize(doc),
				"document": doc,
			})
		},
	}
	cmd.Flags().String("format", "auto", "input format (alteryx, odi, auto)")
	cmd.Flags().Bool("full", false, "print the full model, not only the summary")
	return cmd
}

type convertResult struct {
	Direction workflowDomain.Direction `json:"direction"`
	Output    string                   `json:"output"`
	Lossless  bool                     `json:"lossless"`
	Unmapped  []workflow.Unmapped      `json:"unmapped"`
}

func createConvertCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert between Alteryx and ODI",
		Long: `Convert an Alteryx workflow to an ODI package (a2o) or back (o2a).
Without --output the result is written next to the input as <name>_odi.xml or
<name>_alteryx.yxmd. Use --output - to print the XML on stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetString("direction")
			direction, err := workflowDomain.ParseDirection(raw)
			if err != nil {
				return err
			}
			data, err := env.source.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := env.workflow.Convert(cmd.Context(), data, direction)
			if err != nil {
				return err
			}
			for _, u := range out.Unmapped {
				env.logger.Warn("Entity not converted", "id", u.OriginalID, "type", u.OriginalType, "reason", u.Reason)
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "-" {
				return writeText(cmd.OutOrStdout(), out.XML)
			}
			if output == "" {
				output = convertedPath(args[0], direction)
			}
			if err := files.WriteFile(output, []byte(out.XML), direction == workflowDomain.DirectionODIToAlteryx); err != nil {
				return err
			}
			return env.print(cmd, convertResult{
				Direction: direction,
				Output:    output,
				Lossless:  out.Lossless,
				Unmapped:  out.Unmapped,
			})
		},
	}
	cmd.Flags().String("direction", "a2o", "conversion direction (a2o, o2a)")
	cmd.Flags().StringP("output", "o", "", "output file, - for stdout")
	return cmd
}

func convertedPath(input string, direction workflowDomain.Direction) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name := stem + "_odi.xml"
	if direction == workflowDomain.DirectionODIToAlteryx {
		name = stem + "_alteryx.yxmd"
	}
	return filepath.Join(filepath.Dir(input), name)
}

func createValidateCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Report structural problems and hardcoded values",
		Long: `Validate a workflow and print the findings at or above --min-severity.
The exit status is 1 when any error is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			raw, _ := cmd.Flags().GetString("min-severity")
			minSeverity, err := validation.ParseSeverity(raw)
			if err != nil {
				return err
			}
			data, err := env.source.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report, err := env.workflow.Validate(cmd.Context(), data, format, minSeverity)
			if err != nil {
				return err
			}
			if err := env.print(cmd, report); err != nil {
				return err
			}
			if report.Summary.Errors > 0 {
				return &ExitError{Code: 1, Msg: fmt.Sprintf("%s: %d errors, %d warnings",
					filepath.Base(args[0]), report.Summary.Errors, report.Summary.Warnings)}
			}
			return nil
		},
	}
	cmd.Flags().String("format", "auto", "input format (alteryx, odi, auto)")
	cmd.Flags().String("min-severity", "warning", "lowest severity reported (info, warning, error)")
	return cmd
}

type templateResult struct {
	Output   string           `json:"output"`
	Template string           `json:"template,omitempty"`
	Stats    xmledit.Stats    `json:"stats"`
	Changes  []xmledit.Change `json:"changes"`
	Warnings []string         `json:"warnings"`
}

func createTemplateCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template <file>",
		Short: "Rewrite dates and servers of selected nodes",
		Long: `Apply a template rule to an Alteryx workflow. The rule is looked up by the
file name unless --template or explicit node lists are given. The result is
written to <dir>/output/<output name>.yxmd unless --output is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			flags := cmd.Flags()
			req := editorDomain.TemplateRequest{}
			req.Template, _ = flags.GetString("template")
			req.DateNodes, _ = flags.GetStringSlice("date-node")
			req.ServerNodes, _ = flags.GetStringSlice("server-node")
			req.Year, _ = flags.GetInt("year")
			req.Month, _ = flags.GetInt("month")
			req.Server, _ = flags.GetString("server")

			forms, _ := flags.GetStringSlice("form")
			for _, raw := range forms {
				form, err := dates.ParseForm(raw)
				if err != nil {
					return err
				}
				req.Forms = append(req.Forms, form)
			}
			if req.Template == "" && len(req.DateNodes) == 0 && len(req.ServerNodes) == 0 {
				req.Template = filepath.Base(path)
			}

			data, err := env.source.ReadFile(cmd.Context(), path)
			if err != nil {
				return err
			}
			out, err := env.editor.ApplyTemplate(cmd.Context(), data, path, req)
			if err != nil {
				return err
			}
			for _, w := range out.Warnings {
				env.logger.Warn("Template rule not applied", "warning", w)
			}

			output, _ := flags.GetString("output")
			if output == "-" {
				return writeText(cmd.OutOrStdout(), out.XML)
			}
			if output == "" {
				output = filepath.Join(filepath.Dir(path), "output", out.OutputName+".yxmd")
			}
			if err := files.WriteFile(output, []byte(out.XML), true); err != nil {
				return err
			}

			return env.print(cmd, templateResult{
				Output:   output,
				Template: out.Template,
				Stats:    out.Stats,
				Changes:  out.Changes,
				Warnings: out.Warnings,
			})
		},
	}
	cmd.Flags().String("template", "", "template name in the rule table")
	cmd.Flags().Int("year", 0, "target year")
	cmd.Flags().Int("month", 0, "target month")
	cmd.Flags().String("server", "", "new server, empty leaves servers unchanged")
	cmd.Flags().StringSlice("date-node", nil, "extra node id whose dates are rewritten")
	cmd.Flags().StringSlice("server-node", nil, "extra node id whose server is rewritten")
	cmd.Flags().StringSlice("form", nil, "date form to rewrite, e.g. YYYY-MM-DD (default all)")
	cmd.Flags().StringP("output", "o", "", "output file, - for stdout")
	return cmd
}

func createDiffCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Line diff of two documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := env.source.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("left: %w", err)
			}
			right, err := env.source.ReadFile(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("right: %w", err)
			}
			out, err := env.editor.Diff(cmd.Context(), left, right)
			if err != nil {
				return err
			}

			if unified, _ := cmd.Flags().GetBool("unified"); unified {
				return writeText(cmd.OutOrStdout(), out.Unified)
			}
			return env.print(cmd, out)
		},
	}
	cmd.Flags().Bool("unified", false, "print prefixed lines instead of the JSON report")
	return cmd
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("case-sensitive", false, "match case exactly")
	cmd.Flags().Bool("whole-word", false, "only match literal patterns bounded by non-word characters")
	cmd.Flags().Bool("regex", false, "treat the pattern as a Go regular expression")
	cmd.Flags().Int("limit", 0, "maximum number of matches, 0 uses --max-matches")
}

func searchOptions(cmd *cobra.Command) textsearch.Options {
	flags := cmd.Flags()
	opts := textsearch.Options{}
	opts.CaseSensitive, _ = flags.GetBool("case-sensitive")
	opts.WholeWord, _ = flags.GetBool("whole-word")
	opts.IsRegex, _ = flags.GetBool("regex")
	opts.MaxMatches, _ = flags.GetInt("limit")
	return opts
}

func createSearchCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <file> <pattern>",
		Short: "Find literal or regex matches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := env.source.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := env.editor.Search(cmd.Context(), data, args[1], searchOptions(cmd))
			if err != nil {
				return err
			}
			return env.print(cmd, out)
		},
	}
	addSearchFlags(cmd)
	return cmd
}

type replaceResult struct {
	Output       string `json:"output"`
	Pattern      string `json:"pattern"`
	Replacements int    `json:"replacements"`
}

func createReplaceCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replace <file> <pattern> <replacement>",
		Short: "Replace literal or regex matches",
		Long: `Replace matches and write the result to --output, or over the input with
--in-place. Regex replacements expand ${1} style group references.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			inPlace, _ := cmd.Flags().GetBool("in-place")
			if inPlace {
				if output != "" {
					return errors.New("--output and --in-place are mutually exclusive")
				}
				output = args[0]
			}
			if output == "" {
				output = "-"
			}

			data, err := env.source.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := env.editor.Replace(cmd.Context(), data, args[1], args[2], searchOptions(cmd))
			if err != nil {
				return err
			}

			if output == "-" {
				return writeText(cmd.OutOrStdout(), out.XML)
			}
			if err := files.WriteFile(output, []byte(out.XML), false); err != nil {
				return err
			}
			return env.print(cmd, replaceResult{Output: output, Pattern: out.Pattern, Replacements: out.Replacements})
		},
	}
	addSearchFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "output file, - for stdout (default)")
	cmd.Flags().Bool("in-place", false, "overwrite the input file")
	return cmd
}

func formatFlag(cmd *cobra.Command) (workflowDomain.Format, error) {
	raw, _ := cmd.Flags().GetString("format")
	return workflowDomain.ParseFormat(raw)
}
