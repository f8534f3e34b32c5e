//go:build !integration

package editor_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/textdiff"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/textsearch"
	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/application"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/domain"
	"github.com/flowbridge/flowbridge-mcp/internal/server-plugins/editor/infrastructure"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type recordingCollector struct {
	edits map[string]int
}

func (c *recordingCollector) RecordToolExecution(ctx context.Context, toolName string, duration time.Duration, success bool) {
}
func (c *recordingCollector) RecordConversion(ctx context.Context, direction string, unmapped int) {}
func (c *recordingCollector) RecordFindings(ctx context.Context, severity string, count int)     {}
func (c *recordingCollector) RecordEdits(ctx context.Context, kind string, count int) {
	c.edits[kind] += count
}
func (c *recordingCollector) Close() error { return nil }

func newService(collector *recordingCollector) *application.EditorService {
	logger := quietLogger()
	return application.NewEditorService(application.EditorServiceParams{
		Templates: infrastructure.NewYAMLTemplateProvider(config.TemplatesConfig{}, logger),
		Diff:      config.DiffConfig{SimilarityThreshold: 0.6, MaxCells: 16},
		Search:    config.SearchConfig{MaxMatches: 2},
		Collector: collector,
		Logger:    logger,
	})
}

var _ = Describe("EditorService", func() {
	var (
		collector *recordingCollector
		service   *application.EditorService
		ctx       context.Context
	)

	BeforeEach(func() {
		collector = &recordingCollector{edits: map[string]int{}}
		service = newService(collector)
		ctx = context.Background()
	})

	Describe("ApplyTemplate", func() {
		It("applies a built-in template and reports missing targets", func() {
			out, err := service.ApplyTemplate(ctx, []byte(funilDoc), "in/base-funil.yxmd", domain.TemplateRequest{
				Template: "base-funil.yxmd",
				Year:     2025,
				Month:    7,
				Server:   "new-srv",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(out.OutputName).To(Equal("Base Funil_v9.2"))
			Expect(out.Stats.Dates).To(Equal(1))
			Expect(out.Stats.Servers).To(Equal(1))
			Expect(out.Stats.NodesModified).To(Equal(2))
			Expect(out.Warnings).To(HaveLen(6))
			Expect(out.XML).To(ContainSubstring("[d] &gt;= '2025-07-01'"))
			Expect(out.XML).To(ContainSubstring("new-srv|||SELECT 1 WHERE p = '01/2024'"))
			Expect(strings.Count(out.XML, "'2024-01-15'")).To(Equal(1))
			Expect(collector.edits).To(Equal(map[string]int{"date": 1, "server": 1}))
		})

		It("skips server nodes without a server", func() {
			out, err := service.ApplyTemplate(ctx, []byte(funilDoc), "", domain.TemplateRequest{
				Template: "base-funil.yxmd",
				Year:     2025,
				Month:    7,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Stats.Servers).To(BeZero())
			Expect(out.XML).To(ContainSubstring("old-srv|||"))
			Expect(out.Warnings).To(HaveLen(4))
		})

		It("combines explicit node lists and restricts forms", func() {
			out, err := service.ApplyTemplate(ctx, []byte(funilDoc), "flows/custom.yxmd", domain.TemplateRequest{
				DateNodes: []string{"2916", "5"},
				Year:      2026,
				Month:     2,
				Forms:     []dates.Form{dates.FormMonthYearSlash},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(out.OutputName).To(Equal("custom"))
			Expect(out.Stats.Dates).To(Equal(1))
			Expect(out.XML).To(ContainSubstring("p = '02/2026'"))
			Expect(out.XML).To(ContainSubstring("<Expression>'2024-01-15'</Expression>"))
			Expect(out.Warnings).To(BeEmpty())
		})

		It("returns the input unchanged when no target exists", func() {
			out, err := service.ApplyTemplate(ctx, []byte(funilDoc), "", domain.TemplateRequest{
				DateNodes: []string{"999"},
				Year:      2025,
				Month:     1,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(out.XML).To(Equal(funilDoc))
			Expect(out.Changes).To(BeEmpty())
			Expect(out.Warnings).To(HaveLen(1))
		})

		DescribeTable("rejects incomplete requests",
			func(req domain.TemplateRequest) {
				_, err := service.ApplyTemplate(ctx, []byte(funilDoc), "", req)
				Expect(err).To(HaveOccurred())
				Expect(application.IsRequestError(err)).To(BeTrue())
			},
			Entry("nothing selected", domain.TemplateRequest{Year: 2025, Month: 1}),
			Entry("dates without a period", domain.TemplateRequest{DateNodes: []string{"5"}}),
			Entry("invalid month", domain.TemplateRequest{DateNodes: []string{"5"}, Year: 2025, Month: 13}),
			Entry("unknown template", domain.TemplateRequest{Template: "nope.yxmd", Year: 2025, Month: 1}),
		)

		It("propagates malformed documents", func() {
			_, err := service.ApplyTemplate(ctx, []byte("<AlteryxDocument><Nodes>"), "", domain.TemplateRequest{
				DateNodes: []string{"1"}, Year: 2025, Month: 1,
			})

			Expect(workflow.IsMalformedXML(err)).To(BeTrue())
		})
	})

	It("diffs with the configured threshold", func() {
		out, err := service.Diff(ctx, []byte("a\n<File>2024-01-01</File>\nb"), []byte("a\n<File>2025-07-01</File>\nb"))

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Summary.Modified).To(Equal(1))
		Expect(out.Summary.Identical).To(BeFalse())
		Expect(out.Unified).To(ContainSubstring("-<File>2024-01-01</File>"))
	})

	It("reports identical documents", func() {
		out, err := service.Diff(ctx, []byte(funilDoc), []byte(funilDoc))

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Summary.Identical).To(BeTrue())
	})

	It("refuses a changed region over the configured budget", func() {
		_, err := service.Diff(ctx, []byte("a\nb\nc\nd\ne"), []byte("v\nw\nx\ny\nz"))

		Expect(textdiff.IsTooLarge(err)).To(BeTrue())
		Expect(errors.Is(err, workflow.ErrDiffTooLarge)).To(BeTrue())
	})

	It("does not charge shared leading and trailing lines to the budget", func() {
		common := strings.Repeat("<Node/>\n", 50)
		out, err := service.Diff(ctx, []byte(common+"a\n"+common), []byte(common+"b\n"+common))

		Expect(err).NotTo(HaveOccurred())
		Expect(out.Summary.Unchanged).To(Equal(100))
	})

	Describe("Search", func() {
		It("applies the configured cap", func() {
			out, err := service.Search(ctx, []byte("a a a"), "a", textsearch.Options{})

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Count).To(Equal(2))
			Expect(out.Truncated).To(BeTrue())
		})

		It("honors an explicit cap", func() {
			out, err := service.Search(ctx, []byte("a a a"), "a", textsearch.Options{MaxMatches: 5})

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Count).To(Equal(3))
			Expect(out.Truncated).To(BeFalse())
		})

		It("returns an empty list without matches", func() {
			out, err := service.Search(ctx, []byte("abc"), "z", textsearch.Options{})

			Expect(err).NotTo(HaveOccurred())
			Expect(out.Matches).NotTo(BeNil())
			Expect(out.Matches).To(BeEmpty())
		})
	})

	It("replaces and records the edits", func() {
		out, err := service.Replace(ctx, []byte("old-srv|||a"), "old-srv", "new-srv", textsearch.Options{CaseSensitive: true})

		Expect(err).NotTo(HaveOccurred())
		Expect(out.XML).To(Equal("new-srv|||a"))
		Expect(out.Replacements).To(Equal(1))
		Expect(collector.edits["replace"]).To(Equal(1))
	})
})
