// Package advisory produces the ordered notes attached to a tax result.
//
// Every rule is a pure predicate over the request facts and the computed
// breakdown. All rules are evaluated and every match fires; notes come out in
// rule priority order regardless of evaluation.
package advisory

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/datetime"
	"github.com/iwvelando/household-tax/pkg/expense"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/iwvelando/household-tax/pkg/taxcalc"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// ErrInvalidThresholds is returned when thresholds or rules fail validation.
var ErrInvalidThresholds = errors.New("invalid advisory thresholds")

// Code identifies the rule that produced a note.
type Code string

// Note codes of the canonical rule set.
const (
	EnterpriseConversion  Code = "ENTERPRISE_CONVERSION"
	EInvoiceRequired      Code = "E_INVOICE_REQUIRED"
	FilingDeadline        Code = "FILING_DEADLINE"
	ExemptionFloor        Code = "EXEMPTION_FLOOR"
	TaxableRevenue        Code = "TAXABLE_REVENUE"
	ExpensesExceedRevenue Code = "EXPENSES_EXCEED_REVENUE"
	HighExpenseRatio      Code = "HIGH_EXPENSE_RATIO"
	DeductionCapped       Code = "DEDUCTION_CAPPED"
)

// Note is one rendered advisory.
type Note struct {
	Code Code   `json:"code"`
	Text string `json:"text"`
}

// Facts is everything a rule may look at.
type Facts struct {
	Revenue            decimal.Decimal
	Expenses           decimal.Decimal
	Category           policy.Category
	Breakdown          taxcalc.Breakdown
	ExemptionThreshold decimal.Decimal
	// PaymentDate is the estimated payment date. The zero time disables the
	// filing deadline rule.
	PaymentDate time.Time
	// Summary is nil when no expense lines were attached.
	Summary *expense.Summary
}

// Thresholds are the literal values the canonical rules compare against.
type Thresholds struct {
	EnterpriseConversion decimal.Decimal
	EInvoice             decimal.Decimal
	DeadlineWindowDays   int
	Deadlines            []datetime.MonthDay
	// HighExpenseRatio is the expenses/revenue ratio above which switching to
	// declaration-based filing is suggested.
	HighExpenseRatio decimal.Decimal
}

// DefaultThresholds returns the built-in values: quarterly deadlines and a
// ten day warning window.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EnterpriseConversion: decimal.NewFromInt(constants.DefaultEnterpriseConversionThreshold),
		EInvoice:             decimal.NewFromInt(constants.DefaultEInvoiceThreshold),
		DeadlineWindowDays:   constants.DefaultDeadlineWindowDays,
		Deadlines: []datetime.MonthDay{
			{Month: time.January, Day: 31},
			{Month: time.April, Day: 30},
			{Month: time.July, Day: 31},
			{Month: time.October, Day: 31},
		},
		HighExpenseRatio: decimal.RequireFromString("0.7"),
	}
}

// Validate checks the thresholds.
func (th Thresholds) Validate() error {
	var err error
	if th.EnterpriseConversion.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("enterprise conversion threshold %s is negative", th.EnterpriseConversion))
	}
	if th.EInvoice.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("e-invoice threshold %s is negative", th.EInvoice))
	}
	if th.DeadlineWindowDays < 0 {
		err = multierr.Append(err, fmt.Errorf("deadline window %d days is negative", th.DeadlineWindowDays))
	}
	if th.HighExpenseRatio.IsNegative() {
		err = multierr.Append(err, fmt.Errorf("high expense ratio %s is negative", th.HighExpenseRatio))
	}
	for _, md := range th.Deadlines {
		// Feb 29 is rejected too: it does not recur every year.
		if md.Day < 1 || md.Day > 31 || md.Month < time.January || md.Month > time.December ||
			md.In(2023, time.UTC).Day() != md.Day {
			err = multierr.Append(err, fmt.Errorf("deadline %s is not a valid calendar day", md))
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}
	return nil
}

// Rule pairs a predicate with the note it renders. Lower Priority comes
// first in the output.
type Rule struct {
	Code     Code
	Priority int
	Applies  func(Facts) bool
	Render   func(Facts) string
}

// Generator evaluates a fixed, priority-ordered rule set. It is immutable
// and safe for concurrent use.
type Generator struct {
	thresholds Thresholds
	rules      []Rule
}

// NewGenerator builds the canonical rule set from th plus any extra rules.
// Codes must be unique across the combined set.
func NewGenerator(th Thresholds, extra ...Rule) (*Generator, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	th.Deadlines = append([]datetime.MonthDay(nil), th.Deadlines...)

	rules := append(canonicalRules(th), extra...)
	seen := make(map[Code]bool, len(rules))
	var err error
	for _, r := range rules {
		if r.Code == "" || r.Applies == nil || r.Render == nil {
			err = multierr.Append(err, fmt.Errorf("rule %q is incomplete", r.Code))
		}
		if seen[r.Code] {
			err = multierr.Append(err, fmt.Errorf("rule %q is defined more than once", r.Code))
		}
		seen[r.Code] = true
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThresholds, err)
	}

	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority })
	return &Generator{thresholds: th, rules: rules}, nil
}

// Default returns a generator over DefaultThresholds.
func Default() *Generator {
	g, err := NewGenerator(DefaultThresholds())
	if err != nil {
		panic(err)
	}
	return g
}

// Thresholds returns the values the generator was built with.
func (g *Generator) Thresholds() Thresholds {
	th := g.thresholds
	th.Deadlines = append([]datetime.MonthDay(nil), th.Deadlines...)
	return th
}

// Codes returns the rule codes in priority order.
func (g *Generator) Codes() []Code {
	codes := make([]Code, 0, len(g.rules))
	for _, r := range g.rules {
		codes = append(codes, r.Code)
	}
	return codes
}

// Advise evaluates every rule. The result is never nil.
func (g *Generator) Advise(f Facts) []Note {
	notes := make([]Note, 0)
	for _, r := range g.rules {
		if r.Applies(f) {
			notes = append(notes, Note{Code: r.Code, Text: r.Render(f)})
		}
	}
	return notes
}

// DaysToDeadline returns the next statutory deadline on or after the payment
// date and how many days away it is. ok is false when the payment date is
// unset or there are no deadlines.
func (th Thresholds) DaysToDeadline(paymentDate time.Time) (deadline time.Time, days int, ok bool) {
	if paymentDate.IsZero() {
		return time.Time{}, 0, false
	}
	deadline, ok = datetime.NextDeadline(paymentDate, th.Deadlines)
	if !ok {
		return time.Time{}, 0, false
	}
	return deadline, datetime.DaysBetween(paymentDate, deadline), true
}
