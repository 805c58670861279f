package taxcalc

import (
	"errors"
	"testing"

	"github.com/iwvelando/household-tax/pkg/mathutil"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeExamples(t *testing.T) {
	table := policy.Default()

	tests := []struct {
		name       string
		revenue    string
		expenses   string
		category   policy.Category
		vat        string
		pit        string
		licenseFee string
		total      string
		exempt     bool
	}{
		{
			name:     "Food service above exemption",
			revenue:  "200000000", expenses: "150000000", category: policy.FoodService,
			vat: "3000000", pit: "1000000", licenseFee: "1000000", total: "5000000",
		},
		{
			name:     "Below exemption still pays license fee",
			revenue:  "80000000", expenses: "10000000", category: policy.FoodService,
			vat: "0", pit: "0", licenseFee: "300000", total: "300000", exempt: true,
		},
		{
			name:     "Exactly at exemption is taxed",
			revenue:  "100000000", expenses: "0", category: policy.Retail,
			vat: "1000000", pit: "500000", licenseFee: "1000000", total: "2500000",
		},
		{
			name:     "Zero revenue",
			revenue:  "0", expenses: "0", category: policy.Service,
			vat: "0", pit: "0", licenseFee: "300000", total: "300000", exempt: true,
		},
		{
			name:     "Expenses above revenue are a loss, not an error",
			revenue:  "150000000", expenses: "900000000", category: policy.Service,
			vat: "7500000", pit: "3000000", licenseFee: "1000000", total: "11500000",
		},
		{
			name:     "Top license tier",
			revenue:  "600000000", expenses: "0", category: policy.Retail,
			vat: "6000000", pit: "3000000", licenseFee: "2000000", total: "11000000",
		},
		{
			name:     "Rounding half up once per component",
			revenue:  "100000100", expenses: "0", category: policy.FoodService,
			// 1,500,001.5 -> 1,500,002 and 500,000.5 -> 500,001
			vat: "1500002", pit: "500001", licenseFee: "1000000", total: "3000003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Compute(table, Request{Revenue: d(tt.revenue), Expenses: d(tt.expenses), Category: tt.category})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			checks := []struct {
				field    string
				got      decimal.Decimal
				expected string
			}{
				{"VAT", b.VAT, tt.vat},
				{"PIT", b.PIT, tt.pit},
				{"LicenseFee", b.LicenseFee, tt.licenseFee},
				{"Total", b.Total, tt.total},
			}
			for _, c := range checks {
				if !c.got.Equal(d(c.expected)) {
					t.Errorf("%s = %s, expected %s", c.field, c.got, c.expected)
				}
			}
			if b.Exempt != tt.exempt {
				t.Errorf("Exempt = %v, expected %v", b.Exempt, tt.exempt)
			}
			if b.PolicyVersion != policy.DefaultVersion {
				t.Errorf("PolicyVersion = %s, expected %s", b.PolicyVersion, policy.DefaultVersion)
			}
		})
	}
}

func TestComputeInvalidAmounts(t *testing.T) {
	table := policy.Default()

	tests := []struct {
		name     string
		revenue  string
		expenses string
	}{
		{"Negative revenue", "-1", "0"},
		{"Negative expenses", "100", "-0.01"},
		{"Both negative", "-5", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(table, Request{Revenue: d(tt.revenue), Expenses: d(tt.expenses), Category: policy.FoodService})
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("Compute() error = %v, expected ErrInvalidAmount", err)
			}
		})
	}
}

func TestComputeUnknownCategory(t *testing.T) {
	_, err := Compute(policy.Default(), Request{Revenue: d("200000000"), Category: policy.Category("manufacturing")})
	if !errors.Is(err, policy.ErrUnknownCategory) {
		t.Errorf("Compute() error = %v, expected ErrUnknownCategory", err)
	}
}

func TestExpensesNeverChangeVATOrPIT(t *testing.T) {
	table := policy.Default()
	base, err := Compute(table, Request{Revenue: d("345678901"), Expenses: d("0"), Category: policy.Service})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	for _, exp := range []string{"1", "1000000", "345678901", "999999999999"} {
		b, err := Compute(table, Request{Revenue: d("345678901"), Expenses: d(exp), Category: policy.Service})
		if err != nil {
			t.Fatalf("Compute() error = %v", err)
		}
		if !b.VAT.Equal(base.VAT) || !b.PIT.Equal(base.PIT) || !b.Total.Equal(base.Total) {
			t.Errorf("expenses %s changed the result: %+v vs %+v", exp, b, base)
		}
	}
}

func TestComputeProperties(t *testing.T) {
	table := policy.Default()

	for _, category := range table.Categories() {
		entry, err := table.Lookup(category)
		if err != nil {
			t.Fatalf("Lookup(%s) error = %v", category, err)
		}

		prevFee := decimal.Zero
		for r := int64(0); r <= 800_000_000; r += 7_654_321 {
			revenue := decimal.NewFromInt(r)
			b, err := Compute(table, Request{Revenue: revenue, Expenses: decimal.NewFromInt(r / 2), Category: category})
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}

			if revenue.LessThan(entry.ExemptionThreshold) {
				if !b.VAT.IsZero() || !b.PIT.IsZero() {
					t.Errorf("%s revenue %d below exemption taxed: vat %s pit %s", category, r, b.VAT, b.PIT)
				}
			} else {
				if !b.VAT.Equal(mathutil.RoundHalfUp(revenue.Mul(entry.VATRate))) {
					t.Errorf("%s revenue %d: vat %s", category, r, b.VAT)
				}
				if !b.PIT.Equal(mathutil.RoundHalfUp(revenue.Mul(entry.PITRate))) {
					t.Errorf("%s revenue %d: pit %s", category, r, b.PIT)
				}
			}

			if !b.Total.Equal(b.VAT.Add(b.PIT).Add(b.LicenseFee)) {
				t.Errorf("%s revenue %d: total %s is not the sum of its parts", category, r, b.Total)
			}
			if b.LicenseFee.IsNegative() || b.LicenseFee.LessThan(prevFee) {
				t.Errorf("%s revenue %d: license fee %s not monotonic (previous %s)", category, r, b.LicenseFee, prevFee)
			}
			prevFee = b.LicenseFee
		}
	}
}
