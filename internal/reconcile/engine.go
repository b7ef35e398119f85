package reconcile

import (
	"fmt"
	"math"
)

// Policy holds the reconciliation tolerances
type Policy struct {
	// RoundingTolerance is the largest amount/recipient gap treated as rounding noise
	RoundingTolerance float64
	// Tolerance is how far totalDue may sit from the computed sum
	Tolerance float64
	// Boost is added to every involved field when the identity holds, up to BoostCap
	Boost    float64
	BoostCap float64
	// Penalty is taken off totalDue's confidence when the identity does not hold
	Penalty float64
	// InferredAmount and InferredTotal are the confidences of inferred values
	InferredAmount float64
	InferredTotal  float64
}

// DefaultPolicy returns the standard tolerances
func DefaultPolicy() Policy {
	return Policy{
		RoundingTolerance: 0.5,
		Tolerance:         0.06,
		Boost:             0.05,
		BoostCap:          0.98,
		Penalty:           0.1,
		InferredAmount:    0.75,
		InferredTotal:     0.8,
	}
}

// involved lists the fields of amount + fees + other + taxes - discount = totalDue
var involved = []string{FieldAmount, FieldFees, FieldOther, FieldTaxes, FieldDiscount, FieldTotalDue}

// Reconcile checks the money fields against
// amount + fees + other + taxes - discount = totalDue and returns a new record
// with inferred and corrected values, an issue for every change, and adjusted
// confidences. The input is not modified. Running Reconcile on its own output
// changes nothing.
func Reconcile(rec *Record, p Policy) *Record {
	out := rec.Clone()

	amount, hasAmount := out.Number(FieldAmount)
	recipient, hasRecipient := out.Number(FieldRecipient)

	// amount within rounding noise of recipient
	if hasAmount && hasRecipient && amount != recipient && math.Abs(amount-recipient) <= p.RoundingTolerance {
		out.addIssue(fmt.Sprintf("Ajuste: amount %s → %s (igualado a recipient).", money(amount), money(recipient)))
		out.adjust(FieldAmount, recipient)
		amount = recipient
	}

	if !hasAmount && hasRecipient {
		out.infer(FieldAmount, recipient, p.InferredAmount)
		out.addIssue("Inferido amount desde recipient.")
		amount, hasAmount = recipient, true
	}

	expected := out.expected(FieldAmount)
	total, hasTotal := out.Number(FieldTotalDue)

	switch {
	case !hasTotal && expected > 0:
		out.infer(FieldTotalDue, expected, p.InferredTotal)
		out.addIssue(fmt.Sprintf("Inferido totalDue=%s a partir de amount/fees/other/taxes/discount.", money(expected)))
	case hasTotal && expected > 0 && math.Abs(total-expected) > p.Tolerance:
		if hasRecipient && amount != recipient {
			withRecipient := out.expected(FieldRecipient)
			if math.Abs(withRecipient-total) <= math.Abs(expected-total) {
				out.addIssue(fmt.Sprintf("Ajuste: amount %s → %s para cuadrar con totalDue.", money(amount), money(recipient)))
				out.adjust(FieldAmount, recipient)
				expected = withRecipient
			}
		}
		if math.Abs(total-expected) > p.Tolerance {
			if out.addIssue(fmt.Sprintf("Aviso: totalDue (%s) no cuadra con suma (%s).", money(total), money(expected))) {
				f := out.Fields[FieldTotalDue]
				f.Confidence = math.Max(0, f.Confidence-p.Penalty)
			}
		}
	}

	total, _ = out.Number(FieldTotalDue)
	if math.Abs(total-out.expected(FieldAmount)) <= p.Tolerance {
		for _, name := range involved {
			f := out.Fields[name]
			if !f.Present() || f.Reconciled {
				continue
			}
			f.Confidence = math.Min(p.BoostCap, f.Confidence+p.Boost)
			f.Reconciled = true
		}
	}

	out.UpdateOverall()
	return out
}

// expected sums the identity using base as the leading amount
func (r *Record) expected(base string) float64 {
	v := func(name string) float64 {
		n, _ := r.Number(name)
		return n
	}
	return round2(v(base) + v(FieldFees) + v(FieldOther) + v(FieldTaxes) - v(FieldDiscount))
}

func (r *Record) adjust(name string, value float64) {
	f := r.Fields[name]
	f.Value = value
	f.Source = SourceAdjusted
}

func (r *Record) infer(name string, value float64, confidence float64) {
	r.Fields[name] = &Field{Value: value, Source: SourceInferred, Confidence: confidence}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func money(x float64) string {
	return fmt.Sprintf("%.2f", x)
}
