// Package engine is the facade hosts call into. It validates a request,
// takes one snapshot of the active policy table, and runs the calculator,
// the classifier, the deduction summary and the advisory generator against
// that snapshot.
//
// The engine does no I/O. Per-request failures come back as *Error values.
package engine

import (
	"time"

	"github.com/iwvelando/household-tax/pkg/advisory"
	"github.com/iwvelando/household-tax/pkg/classifier"
	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/expense"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/iwvelando/household-tax/pkg/taxcalc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine is safe for concurrent use.
type Engine struct {
	logger     *zap.Logger
	store      *policy.Store
	classifier *classifier.Classifier
	advisor    *advisory.Generator
	now        func() time.Time
}

// Request is one period's input. Category is the wire value or Go name of
// a registered business category. A zero PaymentDate means today.
type Request struct {
	Revenue     decimal.Decimal
	Expenses    decimal.Decimal
	Category    string
	PaymentDate time.Time
	Lines       []expense.Record
}

// Tax is the amount breakdown of a Result.
type Tax struct {
	VAT        decimal.Decimal `json:"vat"`
	PIT        decimal.Decimal `json:"pit"`
	LicenseFee decimal.Decimal `json:"license_fee"`
	Total      decimal.Decimal `json:"total"`
}

// Result is the composite answer for one request.
type Result struct {
	EstimatedRevenue  decimal.Decimal  `json:"estimated_revenue"`
	EstimatedExpenses decimal.Decimal  `json:"estimated_expenses"`
	Category          policy.Category  `json:"business_type"`
	Tax               Tax              `json:"estimated_tax"`
	Exempt            bool             `json:"exempt"`
	Notes             []advisory.Note  `json:"notes"`
	Disclaimer        string           `json:"disclaimer"`
	PolicyVersion     string           `json:"policy_version"`
	Lines             []expense.Record `json:"lines,omitempty"`
	Deductions        *expense.Summary `json:"deductions,omitempty"`
}

// New builds an engine. A nil logger, classifier or advisor gets the
// default; a nil store is an error.
func New(logger *zap.Logger, store *policy.Store, cls *classifier.Classifier, adv *advisory.Generator) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil || store.Current() == nil {
		return nil, ErrNoPolicy
	}
	if cls == nil {
		cls = classifier.Default()
	}
	if adv == nil {
		adv = advisory.Default()
	}

	return &Engine{
		logger:     logger,
		store:      store,
		classifier: cls,
		advisor:    adv,
		now:        time.Now,
	}, nil
}

// SetClock replaces the source of "today" used for requests without a
// payment date. Call it before the engine is shared.
func (e *Engine) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	e.now = now
}

// CalculateTax computes the tax for a period without expense lines.
func (e *Engine) CalculateTax(revenue, expenses decimal.Decimal, category string) (Result, error) {
	return e.Calculate(Request{Revenue: revenue, Expenses: expenses, Category: category})
}

// Calculate computes the full result for req.
func (e *Engine) Calculate(req Request) (Result, error) {
	category, err := policy.ParseCategory(req.Category)
	if err != nil {
		return Result{}, translate(err)
	}

	// One snapshot for the whole request.
	table := e.store.Current()

	breakdown, err := taxcalc.Compute(table, taxcalc.Request{
		Revenue:  req.Revenue,
		Expenses: req.Expenses,
		Category: category,
	})
	if err != nil {
		return Result{}, translate(err)
	}

	entry, err := table.Lookup(category)
	if err != nil {
		return Result{}, translate(err)
	}

	lines := make([]expense.Record, 0, len(req.Lines))
	for _, r := range req.Lines {
		lines = append(lines, e.classifier.ClassifyRecord(r))
	}

	// Without a declared figure, expenses are the sum of the attached lines.
	expenses := req.Expenses
	var summary *expense.Summary
	if len(lines) > 0 {
		s, err := expense.Summarize(lines, entry, req.Revenue)
		if err != nil {
			return Result{}, translate(err)
		}
		summary = &s
		if expenses.IsZero() {
			expenses = s.Total
		}
	}

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = e.now()
	}

	notes := e.advisor.Advise(advisory.Facts{
		Revenue:            req.Revenue,
		Expenses:           expenses,
		Category:           category,
		Breakdown:          breakdown,
		ExemptionThreshold: entry.ExemptionThreshold,
		PaymentDate:        paymentDate,
		Summary:            summary,
	})

	result := Result{
		EstimatedRevenue:  req.Revenue,
		EstimatedExpenses: expenses,
		Category:          category,
		Tax: Tax{
			VAT:        breakdown.VAT,
			PIT:        breakdown.PIT,
			LicenseFee: breakdown.LicenseFee,
			Total:      breakdown.Total,
		},
		Exempt:        breakdown.Exempt,
		Notes:         notes,
		Disclaimer:    constants.Disclaimer,
		PolicyVersion: breakdown.PolicyVersion,
		Deductions:    summary,
	}
	if len(lines) > 0 {
		result.Lines = lines
	}

	e.logger.Debug("computed tax",
		zap.String("op", "engine.Calculate"),
		zap.String("category", string(category)),
		zap.String("policy_version", result.PolicyVersion),
		zap.String("total", result.Tax.Total.String()),
		zap.Int("notes", len(notes)),
		zap.Int("lines", len(lines)),
	)

	return result, nil
}

// ClassifyExpense tags a single expense description.
func (e *Engine) ClassifyExpense(description string) classifier.Classification {
	return e.classifier.Classify(description)
}

// PolicyVersion returns the version of the active table.
func (e *Engine) PolicyVersion() string {
	return e.store.Version()
}

// Policy returns the active table.
func (e *Engine) Policy() *policy.Table {
	return e.store.Current()
}

// Categories lists the business categories of the active table.
func (e *Engine) Categories() []policy.Category {
	return e.store.Current().Categories()
}

// InstallPolicy atomically replaces the active table. Requests already in
// flight finish on the table they started with.
func (e *Engine) InstallPolicy(t *policy.Table) error {
	old, err := e.store.Swap(t)
	if err != nil {
		return err
	}
	e.logger.Info("installed policy table",
		zap.String("op", "engine.InstallPolicy"),
		zap.String("previous_version", old.Version()),
		zap.String("version", t.Version()),
	)
	return nil
}
