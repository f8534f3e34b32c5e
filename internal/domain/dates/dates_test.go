//go:build !integration

package dates_test

import (
	"github.com/flowbridge/flowbridge-mcp/internal/domain/dates"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scan", func() {
	DescribeTable("recognizes each form",
		func(text string, form dates.Form, literal string) {
			matches := dates.Scan(text)
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].Form).To(Equal(form))
			Expect(text[matches[0].Start:matches[0].End]).To(Equal(literal))
		},
		Entry("YYYY-MM-DD", "WHERE d >= '2024-01-15'", dates.FormYearMonthDay, "2024-01-15"),
		Entry("DD/MM/YYYY", "from 15/01/2024 on", dates.FormDayMonthYear, "15/01/2024"),
		Entry("YYYY-MM", "period=2024-03", dates.FormYearMonth, "2024-03"),
		Entry("MM/YYYY", "month 03/2024", dates.FormMonthYearSlash, "03/2024"),
		Entry("MM-YYYY", "file_03-2024.csv", dates.FormMonthYearDash, "03-2024"),
	)

	DescribeTable("rejects literals touching other digits or out of range",
		func(text string) {
			Expect(dates.Scan(text)).To(BeEmpty())
		},
		Entry("digit before", "12024-01-15"),
		Entry("digit after", "2024-01-155"),
		Entry("month out of range for MM/YYYY", "13/2024"),
		Entry("year out of range for MM-YYYY", "03-1999"),
		Entry("plain number", "20240115"),
	)

	It("prefers the longest form at a position", func() {
		matches := dates.Scan("2024-01-15")
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Form).To(Equal(dates.FormYearMonthDay))
		Expect(matches[0].Day).To(Equal(15))
	})

	It("finds several literals left to right", func() {
		matches := dates.Scan("a 2024-01-01 b 02/2023 c")
		Expect(matches).To(HaveLen(2))
		Expect(matches[0].Start).To(BeNumerically("<", matches[1].Start))
		Expect(matches[1].Form).To(Equal(dates.FormMonthYearSlash))
	})
})

var _ = Describe("Format", func() {
	target := dates.Target{Year: 2025, Month: 6}

	DescribeTable("renders the target in the same form",
		func(form dates.Form, expected string) {
			Expect(dates.Format(form, target)).To(Equal(expected))
		},
		Entry("YYYY-MM-DD", dates.FormYearMonthDay, "2025-06-01"),
		Entry("DD/MM/YYYY", dates.FormDayMonthYear, "01/06/2025"),
		Entry("YYYY-MM", dates.FormYearMonth, "2025-06"),
		Entry("MM/YYYY", dates.FormMonthYearSlash, "06/2025"),
		Entry("MM-YYYY", dates.FormMonthYearDash, "06-2025"),
	)

	It("produces text that scans back to the same form", func() {
		for _, f := range dates.Forms {
			s := dates.Format(f, target)
			matches := dates.Scan(s)
			Expect(matches).To(HaveLen(1), s)
			Expect(matches[0].Form).To(Equal(f))
		}
	})
})

var _ = Describe("Target", func() {
	It("rejects an invalid month", func() {
		Expect(dates.Target{Year: 2024, Month: 13}.Validate()).To(HaveOccurred())
	})

	It("accepts a valid period", func() {
		Expect(dates.Target{Year: 2024, Month: 12}.Validate()).To(Succeed())
	})
})

var _ = Describe("ParseForm", func() {
	It("parses layouts back to forms", func() {
		for _, f := range dates.Forms {
			parsed, err := dates.ParseForm(f.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(f))
		}
	})

	It("fails on unknown layouts", func() {
		_, err := dates.ParseForm("YY/MM")
		Expect(err).To(HaveOccurred())
	})
})
