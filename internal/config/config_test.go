package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/datetime"
	"github.com/shopspring/decimal"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Test configuration",
			configPath: "../../test/test_config.yaml",
			wantError:  false,
		},
		{
			name:       "No file uses defaults",
			configPath: "",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	expectedPolicy := filepath.Join("..", "..", "test", "policy.yaml")
	if config.Policy.File != expectedPolicy {
		t.Errorf("Expected policy file resolved to %s, got %s", expectedPolicy, config.Policy.File)
	}
	if config.Policy.Watch {
		t.Errorf("Expected policy watch disabled")
	}
	if config.Classifier.RulesFile != "" {
		t.Errorf("Expected empty rules file, got %s", config.Classifier.RulesFile)
	}
	if config.Advisory.EnterpriseConversionThreshold != 3_000_000_000 {
		t.Errorf("Expected enterprise conversion threshold 3000000000, got %v", config.Advisory.EnterpriseConversionThreshold)
	}
	if config.Advisory.EInvoiceThreshold != 1_000_000_000 {
		t.Errorf("Expected e-invoice threshold 1000000000, got %v", config.Advisory.EInvoiceThreshold)
	}
	if config.Advisory.DeadlineWindowDays != 10 {
		t.Errorf("Expected deadline window 10, got %d", config.Advisory.DeadlineWindowDays)
	}
	if len(config.Advisory.Deadlines) != 4 || config.Advisory.Deadlines[1] != "04-30" {
		t.Errorf("Expected quarterly deadlines, got %v", config.Advisory.Deadlines)
	}
	if config.Logging.Level != "info" || config.Logging.Format != "json" {
		t.Errorf("Expected info/json logging, got %+v", config.Logging)
	}
	if config.Output.Format != constants.OutputFormatPretty {
		t.Errorf("Expected pretty output, got %s", config.Output.Format)
	}
	if config.Server.Address != ":9090" {
		t.Errorf("Expected address :9090, got %s", config.Server.Address)
	}
	if len(config.Server.AllowedOrigins) != 1 || config.Server.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("Expected one allowed origin, got %v", config.Server.AllowedOrigins)
	}

	if config.Server.RateLimit.RequestsPerSecond != 5 || config.Server.RateLimit.Burst != 10 {
		t.Errorf("Expected rate limit 5/s burst 10, got %+v", config.Server.RateLimit)
	}

	size, err := config.MaxBodySizeBytes()
	if err != nil {
		t.Fatalf("MaxBodySizeBytes() error = %v", err)
	}
	if size != 32*1024 {
		t.Errorf("Expected max body size 32768, got %d", size)
	}

	if warnings := config.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("Expected no warnings for test configuration, got %v", warnings)
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Policy.File != "" {
		t.Errorf("Expected built-in policy, got file %s", config.Policy.File)
	}
	if config.Server.Address != constants.DefaultServerAddress {
		t.Errorf("Expected default address, got %s", config.Server.Address)
	}
	if config.Advisory.DeadlineWindowDays != constants.DefaultDeadlineWindowDays {
		t.Errorf("Expected default deadline window, got %d", config.Advisory.DeadlineWindowDays)
	}
	if strings.Join(config.Advisory.Deadlines, ",") != "01-31,04-30,07-31,10-31" {
		t.Errorf("Expected quarterly default deadlines, got %v", config.Advisory.Deadlines)
	}
	if config.Advisory.HighExpenseRatio != 0.7 {
		t.Errorf("Expected default high expense ratio 0.7, got %v", config.Advisory.HighExpenseRatio)
	}
	size, err := config.MaxBodySizeBytes()
	if err != nil || size != constants.DefaultMaxBodySizeBytes {
		t.Errorf("Expected default body size, got %d (%v)", size, err)
	}
}

func TestLoadConfigurationEnvironmentOverrides(t *testing.T) {
	t.Setenv("HKDTAX_LOGGING_LEVEL", "debug")
	t.Setenv("HKDTAX_SERVER_ADDRESS", "127.0.0.1:9000")
	t.Setenv("HKDTAX_POLICY_WATCH", "true")

	config, err := LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected logging level override debug, got %s", config.Logging.Level)
	}
	if config.Server.Address != "127.0.0.1:9000" {
		t.Errorf("Expected address override, got %s", config.Server.Address)
	}
	if !config.Policy.Watch {
		t.Errorf("Expected policy watch override")
	}
}

func TestLoadConfigurationKeepsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "elsewhere", "policy.yaml")
	path := filepath.Join(dir, "config.yaml")

	contents := []byte("policy:\n  file: " + policyPath + "\nclassifier:\n  rulesFile: rules.yaml\n")
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if config.Policy.File != policyPath {
		t.Errorf("Expected absolute policy path kept, got %s", config.Policy.File)
	}
	if config.Classifier.RulesFile != filepath.Join(dir, "rules.yaml") {
		t.Errorf("Expected rules path resolved next to config, got %s", config.Classifier.RulesFile)
	}
}

func TestLoadConfigurationInvalidYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("policy: ["), 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	if _, err := LoadConfiguration(path); err == nil {
		t.Fatal("expected error for invalid YAML but got nil")
	}
}

func TestThresholds(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	th, err := config.Thresholds()
	if err != nil {
		t.Fatalf("Thresholds() error = %v", err)
	}
	if !th.EnterpriseConversion.Equal(decimal.NewFromInt(3_000_000_000)) {
		t.Errorf("Expected enterprise threshold 3000000000, got %s", th.EnterpriseConversion)
	}
	if !th.EInvoice.Equal(decimal.NewFromInt(1_000_000_000)) {
		t.Errorf("Expected e-invoice threshold 1000000000, got %s", th.EInvoice)
	}
	if !th.HighExpenseRatio.Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("Expected high expense ratio 0.7, got %s", th.HighExpenseRatio)
	}
	expected := datetime.MonthDay{Month: time.July, Day: 31}
	if len(th.Deadlines) != 4 || th.Deadlines[2] != expected {
		t.Errorf("Expected quarterly deadlines, got %v", th.Deadlines)
	}

	config.Advisory.Deadlines = []string{"13-01", "02-30"}
	if _, err := config.Thresholds(); err == nil {
		t.Error("Expected error for invalid deadlines")
	}

	config.Advisory.Deadlines = []string{"01-31"}
	config.Advisory.DeadlineWindowDays = -3
	if _, err := config.Thresholds(); err == nil {
		t.Error("Expected error for negative deadline window")
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	config, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	config.Policy.Watch = true
	config.Server.MaxBodySize = "1TB"
	config.Server.RateLimit.Burst = 0

	warnings := config.ValidateConfiguration()

	expected := []string{"no policy file", "any origin", "maxBodySize is invalid", "burst is below 1"}
	for _, want := range expected {
		found := false
		for _, w := range warnings {
			if strings.Contains(w, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected a warning containing %q, got %v", want, warnings)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxBodySizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("ParseSize(%q) returned error: %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseSize(%q) = %d, expected %d", input, got, expected)
		}
	}

	for _, input := range []string{"1TB", "2G", "abc"} {
		if _, err := ParseSize(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
