// Package expense holds expense lines and aggregates them into per-category
// deduction totals for reporting.
package expense

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for a negative expense amount.
var ErrInvalidAmount = errors.New("invalid expense amount")

// Record is one recorded expense. Category and Deductible are set once, when
// the record is classified, and are not recomputed afterwards.
type Record struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Category    string          `json:"category"`
	Deductible  bool            `json:"is_deductible"`
	Classified  bool            `json:"-"`
}

// Tag returns a copy of r carrying the given classification. A record that is
// already classified is returned unchanged.
func (r Record) Tag(category string, deductible bool) Record {
	if r.Classified {
		return r
	}
	r.Category = category
	r.Deductible = deductible
	r.Classified = true
	return r
}

// Validate checks the record's amount.
func (r Record) Validate() error {
	if r.Amount.IsNegative() {
		return fmt.Errorf("%w: %q has amount %s", ErrInvalidAmount, r.Description, r.Amount)
	}
	return nil
}
