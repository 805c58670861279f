// Package constants provides shared constants for the household-tax application.
package constants

// DateLayout is the format for dates in config files, policy files and
// request payloads.
const DateLayout = "2006-01-02"

// MonthDayLayout is the format for recurring statutory deadlines.
const MonthDayLayout = "01-02"

// Result text constants
const (
	// Disclaimer is attached verbatim to every tax result.
	Disclaimer = "Kết quả mang tính tham khảo, phụ thuộc quyết định cơ quan thuế"

	// OtherCategory is the label given to expenses no classifier rule matches.
	OtherCategory = "Khác"

	// CurrencyCode is appended to rendered amounts.
	CurrencyCode = "VNĐ"
)

// Expense category labels shared by the built-in classifier rules and the
// built-in policy's deductible list.
const (
	LabelFoodMaterials = "Nguyên liệu thực phẩm"
	LabelGoods         = "Hàng hóa, vật liệu"
	LabelRent          = "Thuê mặt bằng"
	LabelUtilities     = "Điện nước internet"
	LabelLabor         = "Nhân công"
	LabelDepreciation  = "Khấu hao"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// EnvPrefix prefixes environment variable overrides, e.g. HKDTAX_LOGGING_LEVEL.
	EnvPrefix = "HKDTAX"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes caps request bodies (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// RequestIDHeader carries the per-request correlation id
	RequestIDHeader = "X-Request-ID"

	// DefaultRateLimitPerSecond is the sustained request rate per client IP
	DefaultRateLimitPerSecond = 20

	// DefaultRateLimitBurst is the request burst allowed per client IP
	DefaultRateLimitBurst = 40
)

// Advisory defaults
const (
	// DefaultDeadlineWindowDays is how close a filing deadline must be to warn.
	DefaultDeadlineWindowDays = 10

	// DefaultEnterpriseConversionThreshold is the revenue at which conversion
	// to a formal enterprise is advised.
	DefaultEnterpriseConversionThreshold = 3_000_000_000

	// DefaultEInvoiceThreshold is the revenue at which e-invoicing is mandatory.
	DefaultEInvoiceThreshold = 1_000_000_000
)
