package fields

import (
	"errors"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-extract/internal/reconcile"
)

var _ = Describe("Registry", func() {
	var registry *Registry

	BeforeEach(func() {
		registry = DefaultRegistry()
	})

	It("should list the built-in templates", func() {
		Expect(registry.Keys()).To(Equal([]string{TemplateMoneyTransfer, TemplateStoreReceipt}))
		Expect(registry.Templates()).To(HaveLen(2))
	})

	It("should return the default for an empty key", func() {
		t, err := registry.Get("")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Key).To(Equal(TemplateMoneyTransfer))
	})

	It("should fail for unknown keys", func() {
		_, err := registry.Get("gas_station")
		Expect(errors.Is(err, ErrUnknownTemplate)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("gas_station"))
	})

	It("should replace a template registered under the same key", func() {
		registry.Register(&Template{Key: TemplateStoreReceipt, Description: "custom"})
		t, err := registry.Get(TemplateStoreReceipt)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Description).To(Equal("custom"))
		Expect(registry.Keys()).To(HaveLen(2))
	})

	Describe("Detect", func() {
		It("should pick the transfer template for a transfer receipt", func() {
			Expect(registry.Detect(transferReceipt)).To(Equal(TemplateMoneyTransfer))
		})

		It("should pick the store template for a store ticket", func() {
			Expect(registry.Detect(storeReceipt)).To(Equal(TemplateStoreReceipt))
		})

		It("should fall back to the default", func() {
			Expect(registry.Detect("hello world")).To(Equal(TemplateMoneyTransfer))
		})
	})
})

var _ = Describe("Extract", func() {
	var (
		text     string
		template *Template
		rec      *reconcile.Record
	)

	JustBeforeEach(func() {
		rec = Extract(text, template)
	})

	value := func(name string) any {
		Expect(rec.Fields).To(HaveKey(name))
		return rec.Fields[name].Value
	}

	When("reading a money transfer receipt", func() {
		BeforeEach(func() {
			text = transferReceipt
			template = MoneyTransfer()
		})

		It("should read every amount by label", func() {
			Expect(value(reconcile.FieldAmount)).To(Equal(100.0))
			Expect(value(reconcile.FieldFees)).To(Equal(5.0))
			Expect(value(reconcile.FieldOther)).To(Equal(0.0))
			Expect(value(reconcile.FieldTaxes)).To(Equal(2.0))
			Expect(value(reconcile.FieldDiscount)).To(Equal(0.0))
			Expect(value(reconcile.FieldTotalDue)).To(Equal(107.0))
			Expect(value(reconcile.FieldRecipient)).To(Equal(100.0))
			Expect(value(reconcile.FieldExchangeRate)).To(Equal(1.0))

			Expect(rec.Fields[reconcile.FieldAmount].Source).To(Equal(reconcile.SourceLabel))
			Expect(rec.Fields[reconcile.FieldAmount].Raw).To(Equal("$ 100.00"))
			Expect(rec.Fields[reconcile.FieldTotalDue].Confidence).To(Equal(0.92))
		})

		It("should read the date and reference by pattern", func() {
			Expect(value(reconcile.FieldDate)).To(Equal("2024-04-10"))
			Expect(rec.Fields[reconcile.FieldDate].Source).To(Equal(reconcile.SourcePattern))
			Expect(rec.Fields[reconcile.FieldDate].Confidence).To(Equal(0.9))

			Expect(value(reconcile.FieldReference)).To(Equal("NY-1255 - 16997"))
			Expect(rec.Fields[reconcile.FieldReference].Confidence).To(Equal(0.8))
		})

		It("should read the sender section", func() {
			Expect(value(reconcile.FieldSenderName)).To(Equal("JUAN PEREZ"))
			Expect(value(reconcile.FieldSenderPhone)).To(Equal("718-555-0199"))
			Expect(value(reconcile.FieldSenderAddress)).To(Equal("123 Main St"))
			Expect(value(reconcile.FieldSenderCity)).To(Equal("Brooklyn"))
			Expect(value(reconcile.FieldSenderState)).To(Equal("NY"))
			Expect(value(reconcile.FieldSenderZip)).To(Equal("11201"))
			Expect(rec.Fields[reconcile.FieldSenderName].Source).To(Equal(reconcile.SourceSection))
		})

		It("should average the populated confidences", func() {
			sum := 0.0
			for _, f := range rec.Fields {
				sum += f.Confidence
			}
			Expect(rec.Overall).To(BeNumerically("~", sum/float64(len(rec.Fields)), 1e-9))
		})

		It("should balance once reconciled", func() {
			out := reconcile.Reconcile(rec, reconcile.DefaultPolicy())
			Expect(out.Issues).To(BeEmpty())
			Expect(out.Fields[reconcile.FieldAmount].Confidence).To(BeNumerically("~", 0.95, 1e-9))
			Expect(out.Fields[reconcile.FieldRecipient].Confidence).To(Equal(0.92))
		})
	})

	When("the amounts are missing", func() {
		BeforeEach(func() {
			text = "Monto a Entregar / Total to Recipient\n$ 99.80\nCargos/Transf. en Cash 5.00"
			template = MoneyTransfer()
		})

		It("should leave them out of the record", func() {
			Expect(rec.Fields).NotTo(HaveKey(reconcile.FieldAmount))
			Expect(rec.Fields).NotTo(HaveKey(reconcile.FieldTotalDue))
			Expect(rec.Fields).NotTo(HaveKey(reconcile.FieldDate))
			Expect(value(reconcile.FieldRecipient)).To(Equal(99.8))
			Expect(value(reconcile.FieldFees)).To(Equal(5.0))
		})

		It("should let reconciliation infer them", func() {
			out := reconcile.Reconcile(rec, reconcile.DefaultPolicy())
			Expect(out.Fields[reconcile.FieldAmount].Source).To(Equal(reconcile.SourceInferred))
			n, _ := out.Number(reconcile.FieldTotalDue)
			Expect(n).To(BeNumerically("~", 104.8, 1e-9))
		})
	})

	When("reading a store ticket", func() {
		BeforeEach(func() {
			text = storeReceipt
			template = StoreReceipt()
		})

		It("should read the labelled fields", func() {
			Expect(value(reconcile.FieldDate)).To(Equal("2024-03-15"))
			Expect(rec.Fields[reconcile.FieldDate].Source).To(Equal(reconcile.SourceLabel))
			Expect(value(reconcile.FieldTotalDue)).To(Equal(1234.56))
			Expect(value(reconcile.FieldStore)).To(Equal("Centro Historico"))
			Expect(value(reconcile.FieldReference)).To(Equal("A1B2C3"))
			Expect(rec.Template).To(Equal(TemplateStoreReceipt))
		})

		It("should not look for a sender", func() {
			Expect(rec.Fields).NotTo(HaveKey(reconcile.FieldSenderName))
		})
	})

	When("using a template registered at runtime", func() {
		BeforeEach(func() {
			text = "GASOLINERA\nLitros 40.00\nImporte total\n$ 950,00"
			template = &Template{
				Key: "fuel",
				Rules: []FieldRule{{
					Field:      reconcile.FieldTotalDue,
					Labels:     []*regexp.Regexp{regexp.MustCompile(`(?i)importe total`)},
					Lookahead:  1,
					Kind:       KindAmount,
					Confidence: 0.7,
				}},
			}
		})

		It("should extract with its rules", func() {
			Expect(value(reconcile.FieldTotalDue)).To(Equal(950.0))
			Expect(rec.Fields).To(HaveLen(1))
			Expect(rec.Overall).To(Equal(0.7))
		})
	})
})
