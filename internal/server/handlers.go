package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iwvelando/household-tax/internal/engine"
	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/datetime"
	"github.com/iwvelando/household-tax/pkg/expense"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/iwvelando/household-tax/pkg/response"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type calculateRequest struct {
	Revenue      *decimal.Decimal `json:"revenue" binding:"required"`
	Expenses     decimal.Decimal  `json:"expenses"`
	BusinessType string           `json:"business_type"`
	PaymentDate  string           `json:"payment_date"`
	Lines        []lineRequest    `json:"lines"`
}

// lineRequest is an expense line. Category and IsDeductible are set when the
// caller already stored a classification for the line.
type lineRequest struct {
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	Category     string          `json:"category"`
	IsDeductible *bool           `json:"is_deductible"`
}

type classifyRequest struct {
	Description string `json:"description"`
}

type policyVersionResponse struct {
	Version       string            `json:"version"`
	EffectiveFrom string            `json:"effective_from,omitempty"`
	Categories    []policy.Category `json:"categories"`
}

type policyResponse struct {
	Version       string         `json:"version"`
	EffectiveFrom string         `json:"effective_from,omitempty"`
	Categories    []categoryView `json:"categories"`
}

type categoryView struct {
	BusinessType       policy.Category  `json:"business_type"`
	VATRate            decimal.Decimal  `json:"vat_rate"`
	PITRate            decimal.Decimal  `json:"pit_rate"`
	ExemptionThreshold decimal.Decimal  `json:"exemption_threshold"`
	LicenseFees        []tierView       `json:"license_fees"`
	Deductible         []deductibleView `json:"deductible"`
}

type tierView struct {
	LowerBound decimal.Decimal `json:"lower_bound"`
	Fee        decimal.Decimal `json:"fee"`
}

type deductibleView struct {
	Label string           `json:"label"`
	Cap   *decimal.Decimal `json:"cap,omitempty"`
}

func (h *handler) handleCalculate(c *gin.Context) {
	const op = "server.handleCalculate"

	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err, op)
		return
	}

	paymentDate, err := datetime.ParseDate(req.PaymentDate)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid payment_date: %v", err), op)
		return
	}

	lines := make([]expense.Record, 0, len(req.Lines))
	for i, l := range req.Lines {
		date, err := datetime.ParseDate(l.Date)
		if err != nil {
			h.respondError(c, http.StatusBadRequest, fmt.Sprintf("invalid date on line %d: %v", i, err), op)
			return
		}
		record := expense.Record{Description: l.Description, Amount: l.Amount, Date: date}
		if l.Category != "" && l.IsDeductible != nil {
			record = record.Tag(l.Category, *l.IsDeductible)
		}
		lines = append(lines, record)
	}

	result, err := h.engine.Calculate(engine.Request{
		Revenue:     *req.Revenue,
		Expenses:    req.Expenses,
		Category:    req.BusinessType,
		PaymentDate: paymentDate,
		Lines:       lines,
	})
	if err != nil {
		h.respondEngineError(c, err, op)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

func (h *handler) handleClassify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err, "server.handleClassify")
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.engine.ClassifyExpense(req.Description)))
}

func (h *handler) handlePolicyVersion(c *gin.Context) {
	table := h.engine.Policy()
	c.JSON(http.StatusOK, response.Success(http.StatusOK, policyVersionResponse{
		Version:       table.Version(),
		EffectiveFrom: formatDate(table),
		Categories:    table.Categories(),
	}))
}

func (h *handler) handlePolicy(c *gin.Context) {
	table := h.engine.Policy()

	resp := policyResponse{
		Version:       table.Version(),
		EffectiveFrom: formatDate(table),
		Categories:    make([]categoryView, 0),
	}
	for _, category := range table.Categories() {
		entry, err := table.Lookup(category)
		if err != nil {
			continue
		}
		view := categoryView{
			BusinessType:       entry.Category,
			VATRate:            entry.VATRate,
			PITRate:            entry.PITRate,
			ExemptionThreshold: entry.ExemptionThreshold,
			LicenseFees:        make([]tierView, 0, len(entry.LicenseFees)),
			Deductible:         make([]deductibleView, 0, len(entry.Deductible)),
		}
		for _, tier := range entry.LicenseFees {
			view.LicenseFees = append(view.LicenseFees, tierView{LowerBound: tier.LowerBound, Fee: tier.Fee})
		}
		for _, dc := range entry.Deductible {
			dv := deductibleView{Label: dc.Label}
			if dc.Capped() {
				capRate := dc.Cap
				dv.Cap = &capRate
			}
			view.Deductible = append(view.Deductible, dv)
		}
		resp.Categories = append(resp.Categories, view)
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, resp))
}

func (h *handler) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"version": h.version,
	}))
}

func formatDate(table *policy.Table) string {
	if table.EffectiveFrom().IsZero() {
		return ""
	}
	return table.EffectiveFrom().Format(constants.DateLayout)
}

func (h *handler) respondBindError(c *gin.Context, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", maxBytesErr.Limit), op)
		return
	}
	h.respondError(c, http.StatusBadRequest, "invalid request payload: "+err.Error(), op)
}

func (h *handler) respondEngineError(c *gin.Context, err error, op string) {
	var engErr *engine.Error
	if !errors.As(err, &engErr) {
		h.respondError(c, http.StatusInternalServerError, err.Error(), op)
		return
	}

	status := http.StatusBadRequest
	if engErr.Kind == engine.UnknownCategory {
		status = http.StatusUnprocessableEntity
	}
	h.logger.Warn("tax request rejected",
		zap.String("op", op),
		zap.String("request_id", getRequestID(c)),
		zap.String("kind", string(engErr.Kind)),
		zap.String("error", engErr.Message),
	)
	c.JSON(status, response.ErrorWithCode(status, string(engErr.Kind), engErr.Message))
}

func (h *handler) respondError(c *gin.Context, status int, msg string, op string) {
	h.logger.Error("tax request failed",
		zap.String("op", op),
		zap.String("request_id", getRequestID(c)),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	c.JSON(status, response.Error(status, msg))
}
