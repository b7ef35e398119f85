package fields

import (
	"regexp"

	"github.com/zombor/receipt-extract/internal/reconcile"
)

// Template keys
const (
	TemplateMoneyTransfer = "money_transfer"
	TemplateStoreReceipt  = "store_receipt"
)

func labels(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// MoneyTransfer is the bilingual remittance receipt template
func MoneyTransfer() *Template {
	return &Template{
		Key:         TemplateMoneyTransfer,
		Description: "Bilingual (Spanish/English) money-transfer receipt",
		Hints: labels(
			`transfer amount`, `total to recipient`, `tipo de cambio|exchange rate`,
			`\bremitente\b|\bsender\b`, `beneficiario|beneficiary`,
		),
		Rules: []FieldRule{
			{Field: reconcile.FieldAmount, Kind: KindAmount, Lookahead: 2, Confidence: 0.9,
				Labels: labels(`monto/?transfer amount`, `\bamount\b`)},
			{Field: reconcile.FieldFees, Kind: KindAmount, Lookahead: 2, Confidence: 0.9,
				Labels: labels(`cargos/?transf\.? en cash`, `fees paid in cash`, `\bfees\b`)},
			{Field: reconcile.FieldOther, Kind: KindAmount, Lookahead: 2, Confidence: 0.85,
				Labels: labels(`otros\s*/\s*other chg`, `\bother`)},
			{Field: reconcile.FieldTaxes, Kind: KindAmount, Lookahead: 2, Confidence: 0.85,
				Labels: labels(`estado cargos\s*/\s*transfer\s*taxes`, `\btaxes?\b`)},
			{Field: reconcile.FieldDiscount, Kind: KindAmount, Lookahead: 2, Confidence: 0.85,
				Labels: labels(`descuento\s*/\s*discount`, `\bdiscount\b`)},
			{Field: reconcile.FieldTotalDue, Kind: KindAmount, Lookahead: 2, Confidence: 0.92,
				Labels: labels(`total a pagar\s*/\s*total due`, `\btotal due\b`)},
			{Field: reconcile.FieldRecipient, Kind: KindAmount, Lookahead: 2, Confidence: 0.92,
				Labels: labels(`monto a entregar\s*/\s*total to recipient`, `total to recipient`)},
			{Field: reconcile.FieldExchangeRate, Kind: KindRate, Lookahead: 2, Confidence: 0.85,
				Labels: labels(`tipo de cambio|exchange rate`)},
		},
		Dates:               transferDates,
		Amount:              defaultAmount,
		Reference:           regexp.MustCompile(`\b[A-Z]{2,3}-\d{3,5}\s*-\s*\d{3,}\b`),
		ReferenceConfidence: 0.8,
		Sender: &SenderRule{
			Start:    labels(`\bremitente\b`, `\bsender\b`, `\bordenante\b`),
			End:      labels(`\bbeneficiario\b`, `\bbeneficiary\b`, `\bdestinatario\b`, `\brecipient\b`, `\breceiver\b`),
			MaxLines: 8,
		},
		SenderConfidence: SenderConfidence{Name: 0.7, Phone: 0.8, Address: 0.6, City: 0.7},
		Reconcile:        true,
	}
}

// StoreReceipt is the generic point-of-sale ticket template
func StoreReceipt() *Template {
	return &Template{
		Key:         TemplateStoreReceipt,
		Description: "Spanish point-of-sale ticket",
		Hints:       labels(`comprobante`, `\bticket\b`, `env[ií]o`, `sucursal|tienda`, `\bfolio\b`, `\biva\b`),
		Rules: []FieldRule{
			{Field: reconcile.FieldDate, Kind: KindDate, Lookahead: 1, Confidence: 0.9,
				Labels: labels(`fecha`, `\bfch\b`)},
			{Field: reconcile.FieldTotalDue, Kind: KindAmount, Lookahead: 1, Confidence: 0.85,
				Labels: labels(`\btotal\b`, `importe`, `a\s*pagar`, `\bmonto\b`)},
			{Field: reconcile.FieldStore, Kind: KindText, Lookahead: 1, AfterLabel: true, Confidence: 0.7,
				Labels: labels(`sucursal`, `tienda`, `lugar`, `domicilio`, `direcci[oó]n`)},
			{Field: reconcile.FieldReference, Kind: KindCode, Lookahead: 1, AfterLabel: true, Confidence: 0.8,
				Labels: labels(`referencia`, `\bfolio\b`, `autorizaci[oó]n`, `operaci[oó]n`, `\bclave\b`)},
		},
		Dates:  storeDates,
		Amount: regexp.MustCompile(`(?:\$?\s*)((?:\d{1,3}(?:[.,]\d{3})*|\d+)(?:[.,]\d{2})?)`),
	}
}
