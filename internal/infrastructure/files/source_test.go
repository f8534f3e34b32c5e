//go:build !integration

package files_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/flowbridge/flowbridge-mcp/internal/infrastructure/files"
	"github.com/flowbridge/flowbridge-mcp/pkg/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Source", func() {
	var (
		source *files.Source
		dir    string
		ctx    context.Context
	)

	BeforeEach(func() {
		source = files.NewSource(config.LimitsConfig{MaxFileSize: 64}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		dir = GinkgoT().TempDir()
		ctx = context.Background()
	})

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, data, 0o600)).To(Succeed())
		return path
	}

	It("reads files and strips a UTF-8 BOM", func() {
		path := write("a.yxmd", append([]byte{0xEF, 0xBB, 0xBF}, "<AlteryxDocument/>"...))

		data, err := source.Load(ctx, path, "")

		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("<AlteryxDocument/>"))
	})

	It("transcodes UTF-16 with a BOM", func() {
		path := write("b.xml", []byte{0xFF, 0xFE, '<', 0, 'a', 0, '/', 0, '>', 0})

		data, err := source.ReadFile(ctx, path)

		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("<a/>"))
	})

	It("accepts inline documents", func() {
		data, err := source.Load(ctx, "", "<Package/>")

		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("<Package/>"))
	})

	It("rejects files over the limit", func() {
		path := write("big.xml", make([]byte, 65))

		_, err := source.ReadFile(ctx, path)

		Expect(errors.Is(err, files.ErrFileTooLarge)).To(BeTrue())
		var tooLarge *files.TooLargeError
		Expect(errors.As(err, &tooLarge)).To(BeTrue())
		Expect(tooLarge.Path).To(Equal(path))
	})

	DescribeTable("rejects ambiguous or missing input",
		func(path, inline string, expected error) {
			_, err := source.Load(ctx, path, inline)
			Expect(err).To(MatchError(expected))
		},
		Entry("neither", "", "", files.ErrNoInput),
		Entry("both", "a.yxmd", "<a/>", files.ErrAmbiguous),
	)

	It("wraps missing files", func() {
		_, err := source.ReadFile(ctx, filepath.Join(dir, "missing.yxmd"))

		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})

	It("leaves input without a BOM untouched", func() {
		in := []byte("<a>été</a>")
		out, err := files.StripBOM(in)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(in))
	})
})
