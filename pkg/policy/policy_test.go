package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validEntry(c Category) Entry {
	return Entry{
		Category:           c,
		VATRate:            d("0.015"),
		PITRate:            d("0.005"),
		ExemptionThreshold: d("100000000"),
		LicenseFees: []Tier{
			{LowerBound: d("0"), Fee: d("300000")},
			{LowerBound: d("100000000"), Fee: d("1000000")},
		},
		Deductible: []DeductibleCategory{{Label: "Thuê mặt bằng"}},
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected Category
		wantErr  bool
	}{
		{"food_service", FoodService, false},
		{"FoodService", FoodService, false},
		{"  RETAIL ", Retail, false},
		{"service", Service, false},
		{"manufacturing", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, c)
		})
	}
}

func TestDefaultTable(t *testing.T) {
	table := Default()

	assert.Equal(t, DefaultVersion, table.Version())
	assert.Equal(t, []Category{FoodService, Retail, Service}, table.Categories())

	entry, err := table.Lookup(FoodService)
	require.NoError(t, err)
	assert.True(t, entry.VATRate.Equal(d("0.015")))
	assert.True(t, entry.PITRate.Equal(d("0.005")))
	assert.True(t, entry.ExemptionThreshold.Equal(d("100000000")))
	assert.True(t, entry.LicenseFee(d("200000000")).Equal(d("1000000")))
}

func TestLookupUnknownCategory(t *testing.T) {
	_, err := Default().Lookup(Category("manufacturing"))
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestLookupReturnsCopy(t *testing.T) {
	table := Default()
	entry, err := table.Lookup(Retail)
	require.NoError(t, err)

	entry.LicenseFees[0].Fee = d("999")
	entry.Deductible[0].Label = "changed"

	again, err := table.Lookup(Retail)
	require.NoError(t, err)
	assert.True(t, again.LicenseFees[0].Fee.Equal(d("300000")))
	assert.NotEqual(t, "changed", again.Deductible[0].Label)
}

func TestNewTableCopiesInput(t *testing.T) {
	entry := validEntry(FoodService)
	table, err := NewTable("v1", time.Time{}, entry)
	require.NoError(t, err)

	entry.LicenseFees[1].Fee = d("5")

	stored, err := table.Lookup(FoodService)
	require.NoError(t, err)
	assert.True(t, stored.LicenseFees[1].Fee.Equal(d("1000000")))
}

func TestLicenseFeeStepFunction(t *testing.T) {
	entry, err := Default().Lookup(Service)
	require.NoError(t, err)

	tests := []struct {
		revenue  string
		expected string
	}{
		{"0", "300000"},
		{"99999999", "300000"},
		{"100000000", "1000000"},
		{"499999999.99", "1000000"},
		{"500000000", "2000000"},
		{"90000000000", "2000000"},
	}

	for _, tt := range tests {
		fee := entry.LicenseFee(d(tt.revenue))
		assert.Truef(t, fee.Equal(d(tt.expected)), "LicenseFee(%s) = %s, expected %s", tt.revenue, fee, tt.expected)
	}

	// Monotonically non-decreasing and never negative across a sweep.
	prev := decimal.Zero
	for r := int64(0); r <= 1_000_000_000; r += 25_000_000 {
		fee := entry.LicenseFee(decimal.NewFromInt(r))
		assert.False(t, fee.IsNegative())
		assert.True(t, fee.GreaterThanOrEqual(prev), "fee decreased at revenue %d", r)
		prev = fee
	}
}

func TestExempt(t *testing.T) {
	entry := validEntry(FoodService)
	assert.True(t, entry.Exempt(d("99999999.99")))
	assert.False(t, entry.Exempt(d("100000000")))
}

func TestDeductibleCategoryLookup(t *testing.T) {
	entry, err := Default().Lookup(FoodService)
	require.NoError(t, err)

	dc, ok := entry.DeductibleCategory("Khấu hao")
	require.True(t, ok)
	assert.True(t, dc.Capped())
	assert.True(t, dc.Cap.Equal(d("0.2")))

	dc, ok = entry.DeductibleCategory("Thuê mặt bằng")
	require.True(t, ok)
	assert.False(t, dc.Capped())

	_, ok = entry.DeductibleCategory("Khác")
	assert.False(t, ok)
}

func TestNewTableValidation(t *testing.T) {
	tests := []struct {
		name    string
		version string
		mutate  func(e *Entry)
		extra   []Entry
		wantMsg string
	}{
		{
			name:    "Missing version",
			version: " ",
			wantMsg: "version is required",
		},
		{
			name:    "Unregistered category",
			version: "v1",
			mutate:  func(e *Entry) { e.Category = "manufacturing" },
			wantMsg: "not registered",
		},
		{
			name:    "Duplicate category",
			version: "v1",
			extra:   []Entry{validEntry(FoodService)},
			wantMsg: "more than once",
		},
		{
			name:    "VAT rate above one",
			version: "v1",
			mutate:  func(e *Entry) { e.VATRate = d("1.5") },
			wantMsg: "vatRate",
		},
		{
			name:    "Negative PIT rate",
			version: "v1",
			mutate:  func(e *Entry) { e.PITRate = d("-0.01") },
			wantMsg: "pitRate",
		},
		{
			name:    "Negative exemption",
			version: "v1",
			mutate:  func(e *Entry) { e.ExemptionThreshold = d("-1") },
			wantMsg: "exemptionThreshold",
		},
		{
			name:    "Empty schedule",
			version: "v1",
			mutate:  func(e *Entry) { e.LicenseFees = nil },
			wantMsg: "schedule is empty",
		},
		{
			name:    "Schedule does not start at zero",
			version: "v1",
			mutate:  func(e *Entry) { e.LicenseFees[0].LowerBound = d("1") },
			wantMsg: "not 0",
		},
		{
			name:    "Schedule out of order",
			version: "v1",
			mutate: func(e *Entry) {
				e.LicenseFees = append(e.LicenseFees, Tier{LowerBound: d("50000000"), Fee: d("2000000")})
			},
			wantMsg: "does not ascend",
		},
		{
			name:    "Overlapping tiers",
			version: "v1",
			mutate: func(e *Entry) {
				e.LicenseFees = append(e.LicenseFees, Tier{LowerBound: d("100000000"), Fee: d("2000000")})
			},
			wantMsg: "does not ascend",
		},
		{
			name:    "Decreasing fee",
			version: "v1",
			mutate:  func(e *Entry) { e.LicenseFees[1].Fee = d("100000") },
			wantMsg: "lower than the previous",
		},
		{
			name:    "Negative fee",
			version: "v1",
			mutate:  func(e *Entry) { e.LicenseFees[0].Fee = d("-1") },
			wantMsg: "is negative",
		},
		{
			name:    "Fractional fee",
			version: "v1",
			mutate:  func(e *Entry) { e.LicenseFees[0].Fee = d("300000.5") },
			wantMsg: "not a whole amount",
		},
		{
			name:    "Blank deductible label",
			version: "v1",
			mutate:  func(e *Entry) { e.Deductible = append(e.Deductible, DeductibleCategory{Label: ""}) },
			wantMsg: "has no label",
		},
		{
			name:    "Duplicate deductible label",
			version: "v1",
			mutate:  func(e *Entry) { e.Deductible = append(e.Deductible, e.Deductible[0]) },
			wantMsg: "listed more than once",
		},
		{
			name:    "Cap above one",
			version: "v1",
			mutate:  func(e *Entry) { e.Deductible[0].Cap = d("1.2") },
			wantMsg: "cap",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry(FoodService)
			if tt.mutate != nil {
				tt.mutate(&entry)
			}
			entries := append([]Entry{entry}, tt.extra...)

			table, err := NewTable(tt.version, time.Time{}, entries...)
			assert.Nil(t, table)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPolicy))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestNewTableReportsEveryProblem(t *testing.T) {
	entry := validEntry(Retail)
	entry.VATRate = d("2")
	entry.PITRate = d("-1")

	_, err := NewTable("", time.Time{}, entry)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{"version is required", "vatRate", "pitRate"} {
		assert.Contains(t, msg, want)
	}
}

func TestNewTableNoEntries(t *testing.T) {
	_, err := NewTable("v1", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

const policyYAML = `
version: "test-2025.1"
effectiveFrom: "2025-01-01"
categories:
  food_service:
    vatRate: 0.03
    pitRate: 0.015
    exemptionThreshold: 100000000
    licenseFees:
      - lowerBound: 0
        fee: 0
      - lowerBound: 100000000
        fee: 300000
      - lowerBound: 300000000
        fee: 500000
    deductible:
      - label: "Nguyên liệu thực phẩm"
      - label: "Khấu hao"
        cap: 0.1
  Retail:
    vatRate: 0.01
    pitRate: 0.005
    exemptionThreshold: 100000000
    licenseFees:
      - lowerBound: 0
        fee: 0
`

func TestParse(t *testing.T) {
	table, err := Parse([]byte(policyYAML))
	require.NoError(t, err)

	assert.Equal(t, "test-2025.1", table.Version())
	assert.Equal(t, "2025-01-01", table.EffectiveFrom().Format("2006-01-02"))
	assert.Equal(t, []Category{FoodService, Retail}, table.Categories())

	entry, err := table.Lookup(FoodService)
	require.NoError(t, err)
	assert.True(t, entry.VATRate.Equal(d("0.03")))
	assert.True(t, entry.LicenseFee(d("350000000")).Equal(d("500000")))

	dc, ok := entry.DeductibleCategory("Khấu hao")
	require.True(t, ok)
	assert.True(t, dc.Cap.Equal(d("0.1")))
}

func TestParseRejectsMalformedSchedule(t *testing.T) {
	doc := strings.Replace(policyYAML, "lowerBound: 300000000", "lowerBound: 50000000", 1)
	_, err := Parse([]byte(doc))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := Parse([]byte("version: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse policy document")
}

func TestParseRejectsBadDate(t *testing.T) {
	doc := strings.Replace(policyYAML, `"2025-01-01"`, `"01/01/2025"`, 1)
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "effectiveFrom")
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read policy file")

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(policyYAML), 0o644))
	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test-2025.1", table.Version())
}

func TestLoadFixture(t *testing.T) {
	table, err := LoadFile("../../test/policy.yaml")
	require.NoError(t, err)
	assert.Len(t, table.Categories(), 3)
}
