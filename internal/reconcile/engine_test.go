package reconcile

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reconcile", func() {
	var (
		input  *Record
		output *Record
	)

	JustBeforeEach(func() {
		output = Reconcile(input, DefaultPolicy())
	})

	When("totalDue is missing", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{
				FieldAmount:   100,
				FieldFees:     5,
				FieldTaxes:    2,
				FieldDiscount: 0,
				FieldOther:    0,
			}, 0.9)
		})

		It("should infer it from the sum", func() {
			total, ok := output.Number(FieldTotalDue)
			Expect(ok).To(BeTrue())
			Expect(total).To(Equal(107.00))
			Expect(output.Field(FieldTotalDue).Source).To(Equal(SourceInferred))
		})

		It("should log the inference", func() {
			Expect(output.Issues).To(Equal([]string{
				"Inferido totalDue=107.00 a partir de amount/fees/other/taxes/discount.",
			}))
		})

		It("should boost every involved field", func() {
			Expect(output.Field(FieldAmount).Confidence).To(BeNumerically("~", 0.95, 1e-9))
			Expect(output.Field(FieldDiscount).Confidence).To(BeNumerically("~", 0.95, 1e-9))
			Expect(output.Field(FieldTotalDue).Confidence).To(BeNumerically("~", 0.85, 1e-9))
		})

		It("should leave the input untouched", func() {
			Expect(input.Field(FieldTotalDue)).To(BeNil())
			Expect(input.Issues).To(BeEmpty())
			Expect(input.Field(FieldAmount).Confidence).To(Equal(0.9))
		})
	})

	When("amount and recipient differ by rounding noise", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{FieldAmount: 100.00, FieldRecipient: 99.80}, 0.9)
		})

		It("should align amount with recipient", func() {
			amount, _ := output.Number(FieldAmount)
			Expect(amount).To(Equal(99.80))
			Expect(output.Field(FieldAmount).Source).To(Equal(SourceAdjusted))
			Expect(output.Issues).To(ContainElement("Ajuste: amount 100.00 → 99.80 (igualado a recipient)."))
		})
	})

	When("amount and recipient differ by more than rounding noise", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{FieldAmount: 100.00, FieldRecipient: 99.00}, 0.9)
		})

		It("should keep amount", func() {
			amount, _ := output.Number(FieldAmount)
			Expect(amount).To(Equal(100.00))
			Expect(output.Field(FieldAmount).Source).To(Equal(SourceLabel))
			for _, issue := range output.Issues {
				Expect(issue).NotTo(ContainSubstring("igualado a recipient"))
			}
		})
	})

	When("amount is missing but recipient is present", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{FieldRecipient: 50, FieldFees: 4.99}, 0.92)
		})

		It("should infer amount from recipient", func() {
			amount, ok := output.Number(FieldAmount)
			Expect(ok).To(BeTrue())
			Expect(amount).To(Equal(50.0))
			Expect(output.Field(FieldAmount).Source).To(Equal(SourceInferred))
			Expect(output.Issues[0]).To(Equal("Inferido amount desde recipient."))
			Expect(output.Issues[1]).To(Equal("Inferido totalDue=54.99 a partir de amount/fees/other/taxes/discount."))
		})
	})

	When("totalDue disagrees with the sum", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{FieldAmount: 100, FieldFees: 5, FieldTotalDue: 120}, 0.9)
		})

		It("should warn without failing", func() {
			Expect(output.Issues).To(Equal([]string{"Aviso: totalDue (120.00) no cuadra con suma (105.00)."}))
			total, _ := output.Number(FieldTotalDue)
			Expect(total).To(Equal(120.0))
		})

		It("should lower the totalDue confidence", func() {
			Expect(output.Field(FieldTotalDue).Confidence).To(BeNumerically("~", 0.8, 1e-9))
			Expect(output.Field(FieldAmount).Confidence).To(Equal(0.9))
		})
	})

	When("recipient explains the mismatch", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{
				FieldAmount:    110,
				FieldRecipient: 100,
				FieldFees:      5,
				FieldTotalDue:  105,
			}, 0.9)
		})

		It("should substitute recipient for amount", func() {
			amount, _ := output.Number(FieldAmount)
			Expect(amount).To(Equal(100.0))
			Expect(output.Issues).To(Equal([]string{"Ajuste: amount 110.00 → 100.00 para cuadrar con totalDue."}))
		})

		It("should boost once the identity holds", func() {
			Expect(output.Field(FieldTotalDue).Confidence).To(BeNumerically("~", 0.95, 1e-9))
			Expect(output.Field(FieldRecipient).Confidence).To(Equal(0.9))
		})
	})

	When("recipient makes the fit worse", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{
				FieldAmount:    100,
				FieldRecipient: 80,
				FieldFees:      5,
				FieldTotalDue:  110,
			}, 0.9)
		})

		It("should keep amount and warn", func() {
			amount, _ := output.Number(FieldAmount)
			Expect(amount).To(Equal(100.0))
			Expect(output.Issues).To(Equal([]string{"Aviso: totalDue (110.00) no cuadra con suma (105.00)."}))
		})
	})

	When("confidences are already high", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{FieldAmount: 10, FieldTotalDue: 10}, 0.96)
		})

		It("should cap the boost", func() {
			Expect(output.Field(FieldAmount).Confidence).To(Equal(0.98))
			Expect(output.Field(FieldAmount).Reconciled).To(BeTrue())
		})
	})

	When("identity fields are present", func() {
		BeforeEach(func() {
			input = moneyRecord(map[string]float64{FieldAmount: 10, FieldTotalDue: 10}, 0.9)
			input.Fields[FieldSenderName] = &Field{Value: "JUAN PEREZ", Source: SourceSection, Confidence: 0.7}
			input.Fields[FieldReference] = nil
		})

		It("should average every populated field into overall", func() {
			Expect(output.Overall).To(BeNumerically("~", (0.95+0.95+0.7)/3, 1e-9))
		})
	})

	DescribeTable("reaching a fixed point",
		func(values map[string]float64) {
			once := Reconcile(moneyRecord(values, 0.9), DefaultPolicy())
			twice := Reconcile(once, DefaultPolicy())
			Expect(twice).To(Equal(once))
		},
		Entry("inferred total", map[string]float64{FieldAmount: 100, FieldFees: 5, FieldTaxes: 2}),
		Entry("rounding correction", map[string]float64{FieldAmount: 100, FieldRecipient: 99.8, FieldTotalDue: 99.8}),
		Entry("recipient substitution", map[string]float64{FieldAmount: 110, FieldRecipient: 100, FieldFees: 5, FieldTotalDue: 105}),
		Entry("partial substitution", map[string]float64{FieldAmount: 110, FieldRecipient: 100, FieldFees: 5, FieldTotalDue: 103}),
		Entry("inconsistent total", map[string]float64{FieldAmount: 100, FieldFees: 5, FieldTotalDue: 120}),
		Entry("nothing to check", map[string]float64{FieldExchangeRate: 17.25}),
	)
})
