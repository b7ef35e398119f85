package reconcile

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Gate", func() {
	var rec *Record

	BeforeEach(func() {
		rec = moneyRecord(map[string]float64{FieldAmount: 100, FieldTotalDue: 105}, 0.9)
		rec.Fields[FieldFees] = &Field{Value: 5.0, Source: SourceInferred, Confidence: 0.7}
	})

	It("should pass when every gated field is confident", func() {
		gate := Gate{MinConfidence: 0.8, Fields: []string{FieldAmount, FieldTotalDue}}
		Expect(gate.Check(rec)).To(Succeed())
	})

	It("should name missing and low-confidence fields", func() {
		gate := Gate{MinConfidence: 0.8, Fields: []string{FieldAmount, FieldFees, FieldDate}}
		err := gate.Check(rec)

		var gateErr *GateError
		Expect(errors.As(err, &gateErr)).To(BeTrue())
		Expect(gateErr.Fields()).To(Equal([]string{FieldFees, FieldDate}))
		Expect(gateErr.Failures[0].Reason).To(Equal(ReasonLowConfidence))
		Expect(gateErr.Failures[1].Reason).To(Equal(ReasonMissing))
		Expect(err.Error()).To(Equal("extraction failed validation: fees (confidence 0.70 < 0.80), date (missing)"))
	})

	It("should treat a nil field as missing", func() {
		rec.Fields[FieldDate] = nil
		err := Gate{MinConfidence: 0.5, Fields: []string{FieldDate}}.Check(rec)
		Expect(err).To(HaveOccurred())
	})

	It("should be disabled without fields", func() {
		Expect(Gate{MinConfidence: 0.9}.Enabled()).To(BeFalse())
		Expect(Gate{MinConfidence: 0.9}.Check(rec)).To(Succeed())
	})
})
