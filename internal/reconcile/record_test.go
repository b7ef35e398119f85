package reconcile

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Record", func() {
	Describe("UpdateOverall", func() {
		var rec *Record

		BeforeEach(func() {
			rec = NewRecord("money_transfer")
			for name, c := range map[string]float64{
				FieldAmount:    0.95,
				FieldFees:      0.7,
				FieldOther:     0.85,
				FieldTaxes:     0.9,
				FieldDiscount:  0.85,
				FieldTotalDue:  0.1 + 0.2,
				FieldRecipient: 0.92,
			} {
				rec.Fields[name] = &Field{Value: 1.0, Source: SourceLabel, Confidence: c}
			}
		})

		It("should give the same overall on every call", func() {
			seen := map[float64]bool{}
			for i := 0; i < 200; i++ {
				rec.UpdateOverall()
				seen[rec.Overall] = true
			}
			Expect(seen).To(HaveLen(1))
		})

		It("should ignore fields without a value", func() {
			rec = NewRecord("money_transfer")
			rec.Fields[FieldAmount] = &Field{Value: 100.0, Source: SourceLabel, Confidence: 0.8}
			rec.Fields[FieldFees] = &Field{Confidence: 0.2}
			rec.UpdateOverall()
			Expect(rec.Overall).To(Equal(0.8))
		})

		It("should be zero for an empty record", func() {
			rec = NewRecord("money_transfer")
			rec.UpdateOverall()
			Expect(rec.Overall).To(BeZero())
		})
	})
})
