//go:build !integration

package workflow_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/files"
	serverDomain "github.com/flowbridge/flowbridge-mcp/internal/server-plugin/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/workflow/application"
	"github.com/flowbridge/flowbridge-mcp/internal/shared/metrics"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	"github.com/mark3labs/mcp-go/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type envelope struct {
	Status  string          `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Hint    string          `json:"hint"`
}

func decode(result *mcp.CallToolResult) envelope {
	Expect(result.Content).To(HaveLen(1))
	text, ok := result.Content[0].(mcp.TextContent)
	Expect(ok).To(BeTrue())
	var env envelope
	Expect(json.Unmarshal([]byte(text.Text), &env)).To(Succeed())
	return env
}

func call(tools []serverDomain.Tool, name string, args map[string]any) *mcp.CallToolResult {
	for _, t := range tools {
		if t.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		result, err := t.Handler(context.Background(), req)
		Expect(err).NotTo(HaveOccurred())
		return result
	}
	Fail("tool not found: " + name)
	return nil
}

var _ = Describe("WorkflowServerPlugin", func() {
	var (
		plugin serverDomain.ServerPlugin
		tools  []serverDomain.Tool
	)

	BeforeEach(func() {
		logger := quietLogger()
		service := application.NewWorkflowService(metrics.NewNoOpCollector(), logger)
		source := files.NewSource(config.LimitsConfig{MaxFileSize: 1 << 20}, logger)
		plugin = workflow.NewWorkflowServerPlugin(service, source, logger)

		var err error
		tools, err = plugin.(serverDomain.ToolProvider).GetTools(context.Background())
		Expect(err).NotTo(HaveOccurred())
	})

	It("describes itself", func() {
		Expect(plugin.ID()).To(Equal("workflow"))
		Expect(plugin.Essential()).To(BeFalse())
	})

	It("builds every tool under its own name", func() {
		for _, t := range tools {
			Expect(t.Builder().Name).To(Equal(t.Name))
		}
	})

	It("parses inline documents", func() {
		result := call(tools, "parse_workflow", map[string]any{"xml": alteryxDoc})

		Expect(result.IsError).To(BeFalse())
		env := decode(result)
		Expect(env.Status).To(Equal("ok"))
		Expect(env.Code).To(Equal("WORKFLOW_PARSED"))
		Expect(string(env.Data)).To(ContainSubstring(`"nodes": 4`))
	})

	It("parses documents from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "sales.xml")
		Expect(os.WriteFile(path, []byte(odiDoc), 0o600)).To(Succeed())

		env := decode(call(tools, "parse_workflow", map[string]any{"path": path, "format": "odi"}))

		Expect(env.Status).To(Equal("ok"))
		Expect(string(env.Data)).To(ContainSubstring("PKG_SALES"))
	})

	It("reports lossy conversions as partial", func() {
		result := call(tools, "convert_workflow", map[string]any{"direction": "a2o", "xml": alteryxDoc})

		Expect(result.IsError).To(BeFalse())
		env := decode(result)
		Expect(env.Status).To(Equal("partial"))
		Expect(env.Message).To(ContainSubstring("1 unmapped"))
	})

	DescribeTable("rejects bad input with an error envelope",
		func(tool string, args map[string]any, code string) {
			result := call(tools, tool, args)

			Expect(result.IsError).To(BeTrue())
			env := decode(result)
			Expect(env.Status).To(Equal("error"))
			Expect(env.Code).To(Equal(code))
		},
		Entry("unknown direction", "convert_workflow", map[string]any{"direction": "x2y", "xml": alteryxDoc}, "INVALID_ARGUMENT"),
		Entry("missing direction", "convert_workflow", map[string]any{"xml": alteryxDoc}, "INVALID_ARGUMENT"),
		Entry("no input", "parse_workflow", map[string]any{}, "INVALID_ARGUMENT"),
		Entry("path and xml", "parse_workflow", map[string]any{"path": "a.yxmd", "xml": alteryxDoc}, "INVALID_ARGUMENT"),
		Entry("malformed XML", "parse_workflow", map[string]any{"xml": "<AlteryxDocument><Nodes>"}, "MALFORMED_XML"),
		Entry("unsupported root", "validate_workflow", map[string]any{"xml": "<Other/>"}, "UNSUPPORTED_DOCUMENT"),
		Entry("missing file", "parse_workflow", map[string]any{"path": "/nonexistent/flow.yxmd"}, "INPUT_NOT_FOUND"),
		Entry("bad severity", "validate_workflow", map[string]any{"xml": odiDoc, "min_severity": "fatal"}, "INVALID_ARGUMENT"),
	)

	It("validates with a severity floor", func() {
		env := decode(call(tools, "validate_workflow", map[string]any{"xml": odiDoc, "min_severity": "error"}))

		Expect(env.Status).To(Equal("ok"))
		Expect(string(env.Data)).To(ContainSubstring("BROKEN_FLOW"))
		Expect(string(env.Data)).NotTo(ContainSubstring(`"severity": "info"`))
	})

	It("serves the conversion table", func() {
		resources, err := plugin.(serverDomain.ResourceProvider).GetResources(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(resources).To(HaveLen(1))

		req := mcp.ReadResourceRequest{}
		req.Params.URI = resources[0].URI
		contents, err := resources[0].Handler(context.Background(), req)

		Expect(err).NotTo(HaveOccurred())
		text := contents[0].(mcp.TextResourceContents).Text
		Expect(text).To(ContainSubstring("DataStoreCommand"))
	})

	It("renders the review prompt with the path", func() {
		prompts, err := plugin.(serverDomain.PromptProvider).GetPrompts(context.Background())
		Expect(err).NotTo(HaveOccurred())

		req := mcp.GetPromptRequest{}
		req.Params.Arguments = map[string]string{"path": "flows/sales.yxmd"}
		result, err := prompts[0].Handler(context.Background(), req)

		Expect(err).NotTo(HaveOccurred())
		Expect(result.Messages).To(HaveLen(1))
		Expect(result.Messages[0].Content.(mcp.TextContent).Text).To(ContainSubstring("flows/sales.yxmd"))

		req.Params.Arguments = map[string]string{}
		_, err = prompts[0].Handler(context.Background(), req)
		Expect(err).To(HaveOccurred())
	})
})
