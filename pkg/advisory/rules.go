package advisory

import (
	"fmt"
	"strings"

	"github.com/iwvelando/household-tax/pkg/format"
)

const vietnameseDate = "02/01/2006"

func canonicalRules(th Thresholds) []Rule {
	return []Rule{
		{
			Code:     EnterpriseConversion,
			Priority: 10,
			Applies: func(f Facts) bool {
				return f.Revenue.GreaterThanOrEqual(th.EnterpriseConversion)
			},
			Render: func(f Facts) string {
				return fmt.Sprintf("Doanh thu %s vượt ngưỡng %s, cần chuyển thành doanh nghiệp",
					format.Currency(f.Revenue), format.Currency(th.EnterpriseConversion))
			},
		},
		{
			Code:     EInvoiceRequired,
			Priority: 20,
			Applies: func(f Facts) bool {
				return f.Revenue.GreaterThanOrEqual(th.EInvoice)
			},
			Render: func(f Facts) string {
				return fmt.Sprintf("Cần đăng ký hóa đơn điện tử (doanh thu từ %s)", format.Currency(th.EInvoice))
			},
		},
		{
			Code:     FilingDeadline,
			Priority: 30,
			Applies: func(f Facts) bool {
				if !f.Breakdown.Total.IsPositive() {
					return false
				}
				_, days, ok := th.DaysToDeadline(f.PaymentDate)
				return ok && days >= 0 && days <= th.DeadlineWindowDays
			},
			Render: func(f Facts) string {
				deadline, days, _ := th.DaysToDeadline(f.PaymentDate)
				return fmt.Sprintf("Còn %d ngày đến hạn nộp thuế (%s), số tiền %s; nộp chậm sẽ bị tính tiền chậm nộp",
					days, deadline.Format(vietnameseDate), format.Currency(f.Breakdown.Total))
			},
		},
		{
			Code:     ExemptionFloor,
			Priority: 40,
			Applies: func(f Facts) bool {
				return f.Revenue.LessThan(f.ExemptionThreshold)
			},
			Render: func(f Facts) string {
				return fmt.Sprintf("Doanh thu dưới ngưỡng %s, chưa phải nộp thuế GTGT và TNCN; vẫn nộp lệ phí môn bài %s",
					format.Currency(f.ExemptionThreshold), format.Currency(f.Breakdown.LicenseFee))
			},
		},
		{
			Code:     TaxableRevenue,
			Priority: 50,
			Applies: func(f Facts) bool {
				return f.Revenue.GreaterThanOrEqual(f.ExemptionThreshold)
			},
			Render: func(f Facts) string {
				return fmt.Sprintf("Doanh thu vượt ngưỡng %s", format.Currency(f.ExemptionThreshold))
			},
		},
		{
			Code:     ExpensesExceedRevenue,
			Priority: 60,
			Applies: func(f Facts) bool {
				return f.Expenses.GreaterThan(f.Revenue)
			},
			Render: func(f Facts) string {
				return fmt.Sprintf("Chi phí %s vượt doanh thu %s; thuế khoán vẫn tính trên doanh thu",
					format.Currency(f.Expenses), format.Currency(f.Revenue))
			},
		},
		{
			Code:     HighExpenseRatio,
			Priority: 70,
			Applies: func(f Facts) bool {
				if !f.Revenue.IsPositive() || f.Expenses.GreaterThan(f.Revenue) {
					return false
				}
				return f.Expenses.GreaterThan(f.Revenue.Mul(th.HighExpenseRatio))
			},
			Render: func(f Facts) string {
				return fmt.Sprintf("Chi phí chiếm %s doanh thu, nên cân nhắc chuyển sang phương pháp kê khai",
					format.Percent(f.Expenses.DivRound(f.Revenue, 4)))
			},
		},
		{
			Code:     DeductionCapped,
			Priority: 80,
			Applies: func(f Facts) bool {
				return f.Summary != nil && f.Summary.AnyCapped()
			},
			Render: func(f Facts) string {
				var parts []string
				for _, l := range f.Summary.Lines {
					if l.Capped {
						parts = append(parts, fmt.Sprintf("%s (tối đa %s)", l.Label, format.Currency(l.Cap)))
					}
				}
				return "Chi phí được trừ bị giới hạn: " + strings.Join(parts, ", ")
			},
		},
	}
}
