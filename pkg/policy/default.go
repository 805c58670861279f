package policy

import (
	"time"

	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/shopspring/decimal"
)

// DefaultVersion identifies the built-in table.
const DefaultVersion = "VN-HKD-2024.1"

// Default returns the built-in policy table. The figures are representative
// presumptive rates for household businesses, not a statutory reference.
func Default() *Table {
	exemption := decimal.NewFromInt(100_000_000)

	entry := func(c Category, vat, pit string) Entry {
		return Entry{
			Category:           c,
			VATRate:            decimal.RequireFromString(vat),
			PITRate:            decimal.RequireFromString(pit),
			ExemptionThreshold: exemption,
			LicenseFees:        defaultLicenseFees(),
			Deductible:         defaultDeductible(),
		}
	}

	t, err := NewTable(DefaultVersion, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		entry(FoodService, "0.015", "0.005"),
		entry(Retail, "0.01", "0.005"),
		entry(Service, "0.05", "0.02"),
	)
	if err != nil {
		panic(err)
	}
	return t
}

func defaultLicenseFees() []Tier {
	return []Tier{
		{LowerBound: decimal.Zero, Fee: decimal.NewFromInt(300_000)},
		{LowerBound: decimal.NewFromInt(100_000_000), Fee: decimal.NewFromInt(1_000_000)},
		{LowerBound: decimal.NewFromInt(500_000_000), Fee: decimal.NewFromInt(2_000_000)},
	}
}

func defaultDeductible() []DeductibleCategory {
	return []DeductibleCategory{
		{Label: constants.LabelFoodMaterials},
		{Label: constants.LabelGoods},
		{Label: constants.LabelRent},
		{Label: constants.LabelUtilities},
		{Label: constants.LabelLabor},
		{Label: constants.LabelDepreciation, Cap: decimal.RequireFromString("0.2")},
	}
}
