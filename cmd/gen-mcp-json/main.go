// Command gen-mcp-json writes a .mcp.json client entry that launches the
// server with the effective configuration pinned as environment variables.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type options struct {
	command    string
	serverName string
	transport  string
	output     string
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "gen-mcp-json",
		Short:        "Generate a .mcp.json entry for the FlowBridge MCP server",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.command, "command", defaultCommand(), "server binary the client launches")
	f.StringVar(&opts.serverName, "server-name", "flowbridge", "key under mcpServers")
	f.StringVar(&opts.transport, "transport", "", "override transport.type in the generated env (stdio|sse)")
	f.StringVarP(&opts.output, "output", "o", "", "output path, - for stdout (default <module root>/.mcp.json)")
	return cmd
}

// defaultCommand honors FLOWBRIDGE_MCP_GEN_COMMAND, then the build's
// BUILD_DIR and BINARY_NAME.
func defaultCommand() string {
	if c := os.Getenv(config.EnvPrefix + "_MCP_GEN_COMMAND"); c != "" {
		return c
	}
	dir, name := os.Getenv("BUILD_DIR"), os.Getenv("BINARY_NAME")
	if dir == "" || name == "" {
		dir, name = "./build", "flowbridge-mcp"
	}
	return filepath.ToSlash(filepath.Join(dir, name))
}

func run(stdout io.Writer, opts *options) error {
	if _, err := config.LoadConfig(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.transport != "" {
		viper.Set("transport.type", opts.transport)
	}

	data, err := render(opts.serverName, opts.command, settingsEnv(viper.AllSettings()))
	if err != nil {
		return err
	}

	if opts.output == "-" {
		_, err = stdout.Write(data)
		return err
	}
	out := opts.output
	if out == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		root, err := moduleRoot(wd)
		if err != nil {
			return err
		}
		out = filepath.Join(root, ".mcp.json")
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	return nil
}

type envVar struct{ key, value string }

// settingsEnv turns nested viper settings into sorted environment variables.
func settingsEnv(settings map[string]any) []envVar {
	flat := map[string]any{}
	flatten("", settings, flat)

	vars := make([]envVar, 0, len(flat))
	for k, v := range flat {
		vars = append(vars, envVar{key: envKey(k), value: formatValue(v)})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].key < vars[j].key })
	return vars
}

// render writes the document by hand so env keeps its sorted order.
func render(serverName, command string, env []envVar) ([]byte, error) {
	var buf bytes.Buffer
	write := func(v any) error {
		b, err := json.Marshal(v)
		buf.Write(b)
		return err
	}

	buf.WriteString("{\n  \"mcpServers\": {\n    ")
	if err := write(serverName); err != nil {
		return nil, err
	}
	buf.WriteString(": {\n      \"command\": ")
	if err := write(command); err != nil {
		return nil, err
	}
	buf.WriteString(",\n      \"args\": [],\n      \"env\": {")
	for i, v := range env {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n        ")
		if err := write(v.key); err != nil {
			return nil, err
		}
		buf.WriteString(": ")
		if err := write(v.value); err != nil {
			return nil, err
		}
	}
	if len(env) > 0 {
		buf.WriteString("\n      ")
	}
	buf.WriteString("}\n    }\n  }\n}\n")
	return buf.Bytes(), nil
}

func moduleRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no go.mod above the working directory")
		}
		dir = parent
	}
}

func envKey(dotted string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(dotted, ".", "_"))
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		if prefix != "" {
			k = prefix + "." + k
		}
		switch nested := v.(type) {
		case map[string]any:
			flatten(k, nested, out)
		case map[any]any:
			m := make(map[string]any, len(nested))
			for nk, nv := range nested {
				m[fmt.Sprint(nk)] = nv
			}
			flatten(k, m, out)
		default:
			out[k] = v
		}
	}
}

// formatValue renders lists comma-separated, the form viper splits back.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, ",")
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ",")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
