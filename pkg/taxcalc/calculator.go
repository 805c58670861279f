// Package taxcalc computes the presumptive tax of a household business for
// one reporting period.
//
// Presumptive tax is levied on gross revenue. Expenses are validated and
// carried along but are never subtracted before VAT and PIT are computed.
package taxcalc

import (
	"errors"
	"fmt"

	"github.com/iwvelando/household-tax/pkg/mathutil"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for negative revenue or expenses.
var ErrInvalidAmount = errors.New("invalid amount")

// Request is the input for one period.
type Request struct {
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	Category policy.Category
}

// Validate checks the amounts. Expenses above revenue are a loss, not an
// error.
func (r Request) Validate() error {
	if r.Revenue.IsNegative() {
		return fmt.Errorf("%w: revenue %s is negative", ErrInvalidAmount, r.Revenue)
	}
	if r.Expenses.IsNegative() {
		return fmt.Errorf("%w: expenses %s is negative", ErrInvalidAmount, r.Expenses)
	}
	return nil
}

// Breakdown is the computed tax. All amounts are whole currency units and
// Total is exactly VAT + PIT + LicenseFee.
type Breakdown struct {
	VAT           decimal.Decimal
	PIT           decimal.Decimal
	LicenseFee    decimal.Decimal
	Total         decimal.Decimal
	Exempt        bool
	PolicyVersion string
}

// Compute applies the table to the request.
func Compute(table *policy.Table, req Request) (Breakdown, error) {
	if err := req.Validate(); err != nil {
		return Breakdown{}, err
	}

	entry, err := table.Lookup(req.Category)
	if err != nil {
		return Breakdown{}, err
	}

	return ComputeEntry(entry, req.Revenue, table.Version()), nil
}

// ComputeEntry applies one policy entry to a validated, non-negative revenue.
func ComputeEntry(entry policy.Entry, revenue decimal.Decimal, version string) Breakdown {
	b := Breakdown{
		VAT:           decimal.Zero,
		PIT:           decimal.Zero,
		LicenseFee:    entry.LicenseFee(revenue),
		PolicyVersion: version,
	}

	if entry.Exempt(revenue) {
		b.Exempt = true
	} else {
		b.VAT = mathutil.ApplyRate(revenue, entry.VATRate)
		b.PIT = mathutil.ApplyRate(revenue, entry.PITRate)
	}

	b.Total = b.VAT.Add(b.PIT).Add(b.LicenseFee)
	return b
}
