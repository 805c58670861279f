package expense

import (
	"github.com/iwvelando/household-tax/pkg/mathutil"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CategoryTotal aggregates the expenses sharing one label.
type CategoryTotal struct {
	Label  string          `json:"label"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
	// Recognized is true when the lines are tagged deductible and the policy
	// lists the label as deductible for the business category.
	Recognized bool            `json:"recognized"`
	Cap        decimal.Decimal `json:"cap"`
	Allowed    decimal.Decimal `json:"allowed"`
	Capped     bool            `json:"capped"`
}

// Summary is the deduction view of a set of expense lines. It is
// informational and never changes the presumptive tax.
type Summary struct {
	Lines              []CategoryTotal `json:"lines"`
	Total              decimal.Decimal `json:"total"`
	DeductibleTotal    decimal.Decimal `json:"deductible_total"`
	NonDeductibleTotal decimal.Decimal `json:"non_deductible_total"`
}

// AnyCapped reports whether any label hit its deduction cap.
func (s Summary) AnyCapped() bool {
	for _, l := range s.Lines {
		if l.Capped {
			return true
		}
	}
	return false
}

type bucket struct {
	amount     decimal.Decimal
	count      int
	deductible bool
}

// Summarize groups classified records by label and applies the entry's
// deductible list and caps. A capped label is allowed at most
// round(cap × revenue).
func Summarize(records []Record, entry policy.Entry, revenue decimal.Decimal) (Summary, error) {
	buckets := make(map[string]*bucket)
	labels := make([]string, 0)
	total := decimal.Zero

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return Summary{}, err
		}
		b, ok := buckets[r.Category]
		if !ok {
			b = &bucket{amount: decimal.Zero, deductible: true}
			buckets[r.Category] = b
			labels = append(labels, r.Category)
		}
		b.amount = b.amount.Add(r.Amount)
		b.count++
		// One non-deductible line makes the whole label non-deductible.
		b.deductible = b.deductible && r.Deductible
		total = total.Add(r.Amount)
	}

	collate.New(language.Vietnamese).SortStrings(labels)

	summary := Summary{
		Lines:           make([]CategoryTotal, 0, len(labels)),
		Total:           total,
		DeductibleTotal: decimal.Zero,
	}
	for _, label := range labels {
		b := buckets[label]
		line := CategoryTotal{
			Label:   label,
			Count:   b.count,
			Amount:  b.amount,
			Allowed: decimal.Zero,
		}
		if dc, ok := entry.DeductibleCategory(label); ok && b.deductible {
			line.Recognized = true
			line.Allowed = b.amount
			if dc.Capped() {
				line.Cap = mathutil.ApplyRate(revenue, dc.Cap)
				if b.amount.GreaterThan(line.Cap) {
					line.Allowed = line.Cap
					line.Capped = true
				}
			}
		}
		summary.DeductibleTotal = summary.DeductibleTotal.Add(line.Allowed)
		summary.Lines = append(summary.Lines, line)
	}
	summary.NonDeductibleTotal = total.Sub(summary.DeductibleTotal)

	return summary, nil
}
