//go:build !integration

package infrastructure_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/infrastructure"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("YAMLTemplateProvider", func() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	Describe("built-in rules", func() {
		var provider domain.TemplateProvider

		BeforeEach(func() {
			provider = infrastructure.NewYAMLTemplateProvider(config.TemplatesConfig{}, logger)
		})

		It("lists the sample templates", func() {
			templates, err := provider.GetTemplates()

			Expect(err).NotTo(HaveOccurred())
			Expect(templates).To(HaveKey("gerar-fechamento-diario.yxmd"))
			Expect(templates).To(HaveKey("tratar-mailing.yxmd"))
			Expect(templates).To(HaveKey("base-funil.yxmd"))
		})

		It("finds a template by file name regardless of directory and case", func() {
			rule, err := provider.GetTemplate("/data/in/Base-Funil.yxmd")

			Expect(err).NotTo(HaveOccurred())
			Expect(rule.Name).To(Equal("base-funil"))
			Expect(rule.DateNodes.ToolIDs).To(Equal([]string{"2877", "2878", "1695", "1698", "1843"}))
			Expect(rule.ServerNodes).To(Equal([]string{"2916", "2914", "2978"}))
			Expect(rule.OutputName).To(Equal("Base Funil_v9.2"))
		})

		It("reports unknown templates", func() {
			_, err := provider.GetTemplate("other.yxmd")

			Expect(err).To(MatchError(domain.ErrTemplateNotFound))
		})
	})

	Describe("rules file", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		write := func(content string) string {
			path := filepath.Join(dir, "rules.yaml")
			Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
			return path
		}

		It("replaces the built-in table", func() {
			path := write(`
templates:
  monthly.yxmd:
    name: monthly
    date_nodes:
      tool_ids: ["4"]
`)
			provider := infrastructure.NewYAMLTemplateProvider(config.TemplatesConfig{RulesFile: path}, logger)

			templates, err := provider.GetTemplates()
			Expect(err).NotTo(HaveOccurred())
			Expect(templates).To(HaveLen(1))
			Expect(templates["monthly.yxmd"].DateNodes.ToolIDs).To(Equal([]string{"4"}))
		})

		It("fails when the file is missing", func() {
			provider := infrastructure.NewYAMLTemplateProvider(config.TemplatesConfig{RulesFile: filepath.Join(dir, "none.yaml")}, logger)

			_, err := provider.GetTemplates()
			Expect(err).To(MatchError(ContainSubstring("failed to read template rules")))
		})
	})

	DescribeTable("ParseRuleTable rejects invalid tables",
		func(content, message string) {
			_, err := infrastructure.ParseRuleTable([]byte(content))
			Expect(err).To(MatchError(ContainSubstring(message)))
		},
		Entry("bad YAML", "templates: [", "failed to parse YAML"),
		Entry("no templates", "templates: {}", "at least one template"),
		Entry("missing name", "templates:\n  a.yxmd:\n    date_nodes:\n      tool_ids: [\"1\"]\n", "required"),
		Entry("empty node id", "templates:\n  a.yxmd:\n    name: a\n    server_nodes: [\"\"]\n", "required"),
	)
})
