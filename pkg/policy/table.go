// Package policy defines the versioned, data-only tax policy: rates,
// exemption floors, license fee schedules and deductible expense categories
// per business category.
//
// A Table is immutable once built. Replacing policy means building a new
// Table and swapping it into a Store; fields of a Table in use are never
// edited.
package policy

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownCategory is returned when a category is not registered in the
	// table.
	ErrUnknownCategory = errors.New("unknown business category")

	// ErrInvalidPolicy is returned when a table fails validation at load.
	ErrInvalidPolicy = errors.New("invalid policy table")
)

// Tier is one step of a license fee schedule. It applies from LowerBound
// (inclusive) up to the next tier's LowerBound; the last tier is unbounded.
type Tier struct {
	LowerBound decimal.Decimal
	Fee        decimal.Decimal
}

// DeductibleCategory names an expense label the policy recognizes as
// deductible. A zero Cap means uncapped; otherwise Cap is a fraction of
// revenue.
type DeductibleCategory struct {
	Label string
	Cap   decimal.Decimal
}

// Capped reports whether the category has a deduction cap.
func (dc DeductibleCategory) Capped() bool {
	return dc.Cap.IsPositive()
}

// Entry holds the policy for one business category.
type Entry struct {
	Category           Category
	VATRate            decimal.Decimal
	PITRate            decimal.Decimal
	ExemptionThreshold decimal.Decimal
	LicenseFees        []Tier
	Deductible         []DeductibleCategory
}

// LicenseFee returns the fee of the tier with the greatest lower bound that
// does not exceed revenue.
func (e Entry) LicenseFee(revenue decimal.Decimal) decimal.Decimal {
	for i := len(e.LicenseFees) - 1; i >= 0; i-- {
		if e.LicenseFees[i].LowerBound.LessThanOrEqual(revenue) {
			return e.LicenseFees[i].Fee
		}
	}
	// Unreachable for validated tables, whose first tier starts at zero.
	return decimal.Zero
}

// Exempt reports whether revenue falls below the exemption threshold.
func (e Entry) Exempt(revenue decimal.Decimal) bool {
	return revenue.LessThan(e.ExemptionThreshold)
}

// DeductibleCategory looks up a deductible label.
func (e Entry) DeductibleCategory(label string) (DeductibleCategory, bool) {
	for _, dc := range e.Deductible {
		if dc.Label == label {
			return dc, true
		}
	}
	return DeductibleCategory{}, false
}

func (e Entry) clone() Entry {
	out := e
	out.LicenseFees = append([]Tier(nil), e.LicenseFees...)
	out.Deductible = append([]DeductibleCategory(nil), e.Deductible...)
	return out
}

// Table is an immutable, validated, versioned policy.
type Table struct {
	version       string
	effectiveFrom time.Time
	entries       map[Category]Entry
}

// NewTable validates entries and builds a table. Entries are copied, so later
// changes to the arguments do not reach the table. Any violation yields an
// error wrapping ErrInvalidPolicy that lists every problem found.
func NewTable(version string, effectiveFrom time.Time, entries ...Entry) (*Table, error) {
	if err := validate(version, entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPolicy, version, err)
	}

	t := &Table{
		version:       version,
		effectiveFrom: effectiveFrom,
		entries:       make(map[Category]Entry, len(entries)),
	}
	for _, e := range entries {
		t.entries[e.Category] = e.clone()
	}
	return t, nil
}

// Version returns the table's version identifier.
func (t *Table) Version() string {
	return t.version
}

// EffectiveFrom returns the date the table applies from.
func (t *Table) EffectiveFrom() time.Time {
	return t.effectiveFrom
}

// Lookup returns a copy of the entry for the given category.
func (t *Table) Lookup(c Category) (Entry, error) {
	e, ok := t.entries[c]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q (policy %s)", ErrUnknownCategory, string(c), t.version)
	}
	return e.clone(), nil
}

// Categories lists the registered categories ordered by wire value.
func (t *Table) Categories() []Category {
	out := make([]Category, 0, len(t.entries))
	for c := range t.entries {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
