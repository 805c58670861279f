// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/household-tax/pkg/datetime"
)

// ValidateThresholdOrder warns when e-invoicing would only become mandatory
// after conversion to an enterprise, which makes the e-invoice note dead.
func ValidateThresholdOrder(eInvoice, enterpriseConversion float64) string {
	if eInvoice > enterpriseConversion {
		return fmt.Sprintf("E-invoice threshold %.0f is above the enterprise conversion threshold %.0f",
			eInvoice, enterpriseConversion)
	}
	return ""
}

// ValidateDeadlines checks the statutory deadline list and the warning
// window around it.
func ValidateDeadlines(deadlines []string, windowDays int) []string {
	var warnings []string

	if len(deadlines) == 0 {
		warnings = append(warnings, "No filing deadlines configured - deadline notes are disabled")
	}

	seen := make(map[string]bool, len(deadlines))
	for _, d := range deadlines {
		md, err := datetime.ParseMonthDay(d)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("Filing deadline '%s' is not a valid MM-DD date", d))
			continue
		}
		if seen[md.String()] {
			warnings = append(warnings, fmt.Sprintf("Filing deadline '%s' is listed more than once", d))
		}
		seen[md.String()] = true
	}

	if windowDays < 0 {
		warnings = append(warnings, fmt.Sprintf("Deadline window of %d days is negative", windowDays))
	} else if windowDays > 92 {
		warnings = append(warnings, fmt.Sprintf("Deadline window of %d days is longer than a quarter - every payment date will warn", windowDays))
	}

	return warnings
}

// ConfigValidator collects the values ValidateAll inspects.
type ConfigValidator struct {
	PolicyFile     string
	WatchPolicy    bool
	LogLevel       string
	LogFormat      string
	OutputFormat   string
	AllowedOrigins []string
	Advisory       AdvisoryConfig
}

// AdvisoryConfig mirrors the advisory section of the configuration.
type AdvisoryConfig struct {
	EnterpriseConversionThreshold float64
	EInvoiceThreshold             float64
	DeadlineWindowDays            int
	Deadlines                     []string
	HighExpenseRatio              float64
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if cv.WatchPolicy && cv.PolicyFile == "" {
		warnings = append(warnings, "Policy watching is enabled but no policy file is set - the built-in table will be used")
	}

	if err := ValidateLogLevel(cv.LogLevel); err != nil {
		warnings = append(warnings, err.Error())
	}
	if err := ValidateLogFormat(cv.LogFormat); err != nil {
		warnings = append(warnings, err.Error())
	}
	if cv.OutputFormat != "" {
		if err := ValidateOutputFormat(cv.OutputFormat); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	for _, origin := range cv.AllowedOrigins {
		if origin == "*" {
			warnings = append(warnings, "Server allows requests from any origin")
			break
		}
	}

	adv := cv.Advisory
	if w := ValidateThresholdOrder(adv.EInvoiceThreshold, adv.EnterpriseConversionThreshold); w != "" {
		warnings = append(warnings, w)
	}
	if adv.EnterpriseConversionThreshold < 0 || adv.EInvoiceThreshold < 0 {
		warnings = append(warnings, "Advisory thresholds must not be negative")
	}
	if adv.HighExpenseRatio < 0 || adv.HighExpenseRatio > 1 {
		warnings = append(warnings, fmt.Sprintf("High expense ratio %v is outside 0..1", adv.HighExpenseRatio))
	}
	warnings = append(warnings, ValidateDeadlines(adv.Deadlines, adv.DeadlineWindowDays)...)

	return warnings
}
