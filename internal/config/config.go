// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/iwvelando/household-tax/pkg/advisory"
	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/datetime"
	"github.com/iwvelando/household-tax/pkg/mathutil"
	"github.com/iwvelando/household-tax/pkg/validation"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Configuration holds all configuration for household-tax.
type Configuration struct {
	Policy     PolicyConfig     `yaml:"policy" mapstructure:"policy"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Advisory   AdvisoryConfig   `yaml:"advisory" mapstructure:"advisory"`
	Logging    LoggingConfig    `yaml:"logging,omitempty" mapstructure:"logging"`
	Output     OutputConfig     `yaml:"output,omitempty" mapstructure:"output"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
}

// PolicyConfig selects the policy table. An empty File means the built-in
// table.
type PolicyConfig struct {
	File  string `yaml:"file,omitempty" mapstructure:"file"`
	Watch bool   `yaml:"watch,omitempty" mapstructure:"watch"`
}

// ClassifierConfig selects the expense rule table. An empty RulesFile means
// the built-in rules.
type ClassifierConfig struct {
	RulesFile string `yaml:"rulesFile,omitempty" mapstructure:"rulesFile"`
}

// AdvisoryConfig holds the thresholds of the advisory notes.
type AdvisoryConfig struct {
	EnterpriseConversionThreshold float64  `yaml:"enterpriseConversionThreshold" mapstructure:"enterpriseConversionThreshold"`
	EInvoiceThreshold             float64  `yaml:"eInvoiceThreshold" mapstructure:"eInvoiceThreshold"`
	DeadlineWindowDays            int      `yaml:"deadlineWindowDays" mapstructure:"deadlineWindowDays"`
	Deadlines                     []string `yaml:"deadlines" mapstructure:"deadlines"` // MM-DD
	HighExpenseRatio              float64  `yaml:"highExpenseRatio" mapstructure:"highExpenseRatio"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address        string          `yaml:"address" mapstructure:"address"`
	MaxBodySize    string          `yaml:"maxBodySize" mapstructure:"maxBodySize"`
	AllowedOrigins []string        `yaml:"allowedOrigins" mapstructure:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit" mapstructure:"rateLimit"`
}

// RateLimitConfig throttles requests per client IP. A zero rate disables
// throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond" mapstructure:"requestsPerSecond"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	defaults := advisory.DefaultThresholds()
	deadlines := make([]string, 0, len(defaults.Deadlines))
	for _, md := range defaults.Deadlines {
		deadlines = append(deadlines, md.String())
	}
	ratio, _ := defaults.HighExpenseRatio.Float64()

	v.SetDefault("policy.file", "")
	v.SetDefault("policy.watch", false)
	v.SetDefault("classifier.rulesFile", "")
	v.SetDefault("advisory.enterpriseConversionThreshold", constants.DefaultEnterpriseConversionThreshold)
	v.SetDefault("advisory.eInvoiceThreshold", constants.DefaultEInvoiceThreshold)
	v.SetDefault("advisory.deadlineWindowDays", constants.DefaultDeadlineWindowDays)
	v.SetDefault("advisory.deadlines", deadlines)
	v.SetDefault("advisory.highExpenseRatio", ratio)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.rateLimit.requestsPerSecond", constants.DefaultRateLimitPerSecond)
	v.SetDefault("server.rateLimit.burst", constants.DefaultRateLimitBurst)
}

// LoadConfiguration loads the YAML-formatted configuration at configPath,
// applies HKDTAX_* environment overrides (HKDTAX_LOGGING_LEVEL and so on)
// and fills in defaults. An empty configPath uses defaults and the
// environment only. Relative policy and rules paths are resolved against the
// directory of the configuration file.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file, %s", err)
		}
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	if configPath != "" {
		base := filepath.Dir(configPath)
		configuration.Policy.File = resolvePath(base, configuration.Policy.File)
		configuration.Classifier.RulesFile = resolvePath(base, configuration.Classifier.RulesFile)
	}

	return &configuration, nil
}

func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Thresholds converts the advisory section into generator thresholds.
func (c *Configuration) Thresholds() (advisory.Thresholds, error) {
	th := advisory.Thresholds{
		EnterpriseConversion: mathutil.FromFloat(c.Advisory.EnterpriseConversionThreshold),
		EInvoice:             mathutil.FromFloat(c.Advisory.EInvoiceThreshold),
		DeadlineWindowDays:   c.Advisory.DeadlineWindowDays,
		HighExpenseRatio:     mathutil.FromFloat(c.Advisory.HighExpenseRatio),
	}

	var err error
	for _, d := range c.Advisory.Deadlines {
		md, parseErr := datetime.ParseMonthDay(d)
		if parseErr != nil {
			err = multierr.Append(err, parseErr)
			continue
		}
		th.Deadlines = append(th.Deadlines, md)
	}
	if err != nil {
		return advisory.Thresholds{}, err
	}

	if err := th.Validate(); err != nil {
		return advisory.Thresholds{}, err
	}
	return th, nil
}

// MaxBodySizeBytes returns the configured request body limit.
func (c *Configuration) MaxBodySizeBytes() (int64, error) {
	size, err := ParseSize(c.Server.MaxBodySize)
	if err != nil {
		return 0, err
	}
	if size <= 0 {
		size = constants.DefaultMaxBodySizeBytes
	}
	return size, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	cv := validation.ConfigValidator{
		PolicyFile:     c.Policy.File,
		WatchPolicy:    c.Policy.Watch,
		LogLevel:       c.Logging.Level,
		LogFormat:      c.Logging.Format,
		OutputFormat:   c.Output.Format,
		AllowedOrigins: c.Server.AllowedOrigins,
		Advisory: validation.AdvisoryConfig{
			EnterpriseConversionThreshold: c.Advisory.EnterpriseConversionThreshold,
			EInvoiceThreshold:             c.Advisory.EInvoiceThreshold,
			DeadlineWindowDays:            c.Advisory.DeadlineWindowDays,
			Deadlines:                     c.Advisory.Deadlines,
			HighExpenseRatio:              c.Advisory.HighExpenseRatio,
		},
	}

	warnings := cv.ValidateAll()
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		warnings = append(warnings, "Server rate limit is negative - throttling is disabled")
	} else if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst < 1 {
		warnings = append(warnings, "Server rate limit burst is below 1 - every request will be rejected")
	}
	if _, err := ParseSize(c.Server.MaxBodySize); err != nil {
		warnings = append(warnings, fmt.Sprintf("Server maxBodySize is invalid: %v", err))
	}
	return warnings
}
