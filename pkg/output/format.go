// Package output provides utilities for formatting and displaying tax results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/household-tax/internal/engine"
	"github.com/iwvelando/household-tax/pkg/classifier"
	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/format"
)

// PrettyFormat writes a human-readable summary of result.
func PrettyFormat(w io.Writer, result engine.Result) {
	fmt.Fprintf(w, "--- Thuế khoán %s (chính sách %s) ---\n", result.Category.Name(), result.PolicyVersion)
	fmt.Fprintf(w, "Doanh thu       | %s\n", format.Currency(result.EstimatedRevenue))
	fmt.Fprintf(w, "Chi phí         | %s\n", format.Currency(result.EstimatedExpenses))
	fmt.Fprintf(w, "Thuế GTGT       | %s\n", format.Currency(result.Tax.VAT))
	fmt.Fprintf(w, "Thuế TNCN       | %s\n", format.Currency(result.Tax.PIT))
	fmt.Fprintf(w, "Lệ phí môn bài  | %s\n", format.Currency(result.Tax.LicenseFee))
	fmt.Fprintf(w, "Tổng cộng       | %s\n", format.Currency(result.Tax.Total))
	if result.Exempt {
		fmt.Fprintf(w, "Miễn thuế GTGT và TNCN\n")
	}

	if result.Deductions != nil {
		fmt.Fprintf(w, "\nChi phí theo nhóm:\n")
		for _, line := range result.Deductions.Lines {
			flag := ""
			if line.Capped {
				flag = " (giới hạn)"
			} else if !line.Recognized {
				flag = " (không được trừ)"
			}
			fmt.Fprintf(w, "  %s | %d | %s | %s%s\n", line.Label, line.Count,
				format.Currency(line.Amount), format.Currency(line.Allowed), flag)
		}
		fmt.Fprintf(w, "  Được trừ: %s, không được trừ: %s\n",
			format.Currency(result.Deductions.DeductibleTotal),
			format.Currency(result.Deductions.NonDeductibleTotal))
	}

	if len(result.Notes) > 0 {
		fmt.Fprintf(w, "\nLưu ý:\n")
		for _, note := range result.Notes {
			fmt.Fprintf(w, "  - %s\n", note.Text)
		}
	}

	fmt.Fprintf(w, "\n%s\n", result.Disclaimer)
}

// CsvFormat writes result as "field","value" rows followed by one row per
// note.
func CsvFormat(w io.Writer, result engine.Result) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"field", "value"},
		{"business_type", string(result.Category)},
		{"policy_version", result.PolicyVersion},
		{"estimated_revenue", result.EstimatedRevenue.String()},
		{"estimated_expenses", result.EstimatedExpenses.String()},
		{"vat", result.Tax.VAT.String()},
		{"pit", result.Tax.PIT.String()},
		{"license_fee", result.Tax.LicenseFee.String()},
		{"total", result.Tax.Total.String()},
		{"exempt", strconv.FormatBool(result.Exempt)},
	}
	if result.Deductions != nil {
		rows = append(rows,
			[]string{"deductible_total", result.Deductions.DeductibleTotal.String()},
			[]string{"non_deductible_total", result.Deductions.NonDeductibleTotal.String()},
		)
	}
	for _, note := range result.Notes {
		rows = append(rows, []string{"note:" + string(note.Code), note.Text})
	}
	rows = append(rows, []string{"disclaimer", result.Disclaimer})

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ClassificationFormat writes one classified description in either format.
func ClassificationFormat(w io.Writer, outputFormat, description string, c classifier.Classification) error {
	if outputFormat == constants.OutputFormatCSV {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll([][]string{
			{"description", "category", "is_deductible"},
			{description, c.Category, strconv.FormatBool(c.Deductible)},
		}); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		return nil
	}

	deductible := "không được trừ"
	if c.Deductible {
		deductible = "được trừ"
	}
	_, err := fmt.Fprintf(w, "%s | %s | %s\n", description, c.Category, deductible)
	return err
}
