package pipeline

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-extract/internal/recognition"
)

var _ = Describe("DedupeLines", func() {
	It("should drop repeated lines ignoring case and spacing", func() {
		in := "  TOTAL   DUE 107.00\n\nSender\ntotal due 107.00\nSENDER  \nRecipient"
		Expect(DedupeLines(in)).To(Equal("TOTAL   DUE 107.00\nSender\nRecipient"))
	})

	It("should handle carriage returns", func() {
		Expect(DedupeLines("a\r\nA\r\nb")).To(Equal("a\nb"))
	})

	It("should be idempotent", func() {
		once := DedupeLines("x\ny\n X \nz\ny")
		Expect(DedupeLines(once)).To(Equal(once))
	})

	It("should return an empty string for blank input", func() {
		Expect(DedupeLines(" \n\t\n")).To(BeEmpty())
	})
})

var _ = Describe("Assemble", func() {
	It("should join bands in order and average their confidence", func() {
		text, mean := Assemble([]BandResult{
			{Name: "A", Text: " Header \n", MeanConfidence: 0.9},
			{Name: "B", Text: "   ", MeanConfidence: 0.3},
			{Name: "C", Text: "Footer\nheader", MeanConfidence: 0.6},
		})
		Expect(text).To(Equal("Header\nFooter"))
		Expect(mean).To(BeNumerically("~", 0.6, 1e-9))
	})

	It("should leave failed bands out", func() {
		text, mean := Assemble([]BandResult{
			{Name: "A", Text: "top", MeanConfidence: 0.8},
			{Name: "B", Err: "engine unreachable"},
		})
		Expect(text).To(Equal("top"))
		Expect(mean).To(BeNumerically("~", 0.8, 1e-9))
	})

	It("should report zero confidence without bands", func() {
		text, mean := Assemble(nil)
		Expect(text).To(BeEmpty())
		Expect(mean).To(BeZero())
	})
})

var _ = Describe("Better", func() {
	It("should prefer the longer trimmed text", func() {
		a := recognition.Result{Text: "  short  ", MeanConfidence: 0.99}
		b := recognition.Result{Text: "much longer", MeanConfidence: 0.1}
		Expect(Better(a, b)).To(Equal(b))
		Expect(Better(b, a)).To(Equal(b))
	})

	It("should prefer higher confidence for equal lengths", func() {
		a := recognition.Result{Text: "abcd", MeanConfidence: 0.5}
		b := recognition.Result{Text: "wxyz", MeanConfidence: 0.7}
		Expect(Better(a, b)).To(Equal(b))
	})

	It("should keep the first result on a full tie", func() {
		a := recognition.Result{Text: "same", MeanConfidence: 0.5}
		b := recognition.Result{Text: "SAME", MeanConfidence: 0.5}
		Expect(Better(a, b)).To(Equal(a))
	})
})
