package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/iwvelando/household-tax/internal/app"
	"github.com/iwvelando/household-tax/internal/config"
	"github.com/iwvelando/household-tax/internal/engine"
	"github.com/iwvelando/household-tax/internal/logging"
	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/datetime"
	"github.com/iwvelando/household-tax/pkg/expense"
	"github.com/iwvelando/household-tax/pkg/output"
	"github.com/iwvelando/household-tax/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// expenseFlags collects repeated -expense "description=amount" values.
type expenseFlags []expense.Record

func (e *expenseFlags) String() string {
	parts := make([]string, 0, len(*e))
	for _, r := range *e {
		parts = append(parts, r.Description+"="+r.Amount.String())
	}
	return strings.Join(parts, ",")
}

func (e *expenseFlags) Set(value string) error {
	idx := strings.LastIndex(value, "=")
	if idx <= 0 {
		return fmt.Errorf("expense %q must be description=amount", value)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(value[idx+1:]))
	if err != nil {
		return fmt.Errorf("expense %q has an invalid amount: %v", value, err)
	}
	*e = append(*e, expense.Record{Description: strings.TrimSpace(value[:idx]), Amount: amount})
	return nil
}

func parseAmount(name, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %v", name, value, err)
	}
	return d, nil
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with HKDTAX_* overrides")
	revenueFlag := flag.String("revenue", "", "estimated revenue for the period in VND")
	expensesFlag := flag.String("expenses", "", "declared expenses for the period in VND")
	category := flag.String("category", "", "business category: food_service, retail, service")
	paymentDateFlag := flag.String("payment-date", "", "planned payment date (YYYY-MM-DD), defaults to today")
	classify := flag.String("classify", "", "classify one expense description and exit")
	policyVersion := flag.Bool("policy-version", false, "print the active policy version and exit")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	var lines expenseFlags
	flag.Var(&lines, "expense", "expense line as description=amount (repeatable)")
	flag.Parse()

	// A missing dotenv file is fine.
	_ = godotenv.Load(*envFile)

	configPath := *configLocation
	if _, err := os.Stat(configPath); err != nil && configPath == constants.DefaultConfigFile {
		configPath = ""
	}

	conf, err := config.LoadConfiguration(configPath)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", configPath, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	a, err := app.Build(logger, conf)
	if err != nil {
		logger.Fatal("failed to assemble engine",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	switch {
	case *policyVersion:
		fmt.Println(a.Engine.PolicyVersion())
		return
	case *classify != "":
		if err := output.ClassificationFormat(os.Stdout, outputFormat, *classify, a.Engine.ClassifyExpense(*classify)); err != nil {
			logger.Fatal("failed to write classification",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	revenue, err := parseAmount("revenue", *revenueFlag)
	if err == nil && *revenueFlag == "" {
		err = errors.New("-revenue is required")
	}
	if err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}
	expenses, err := parseAmount("expenses", *expensesFlag)
	if err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}
	paymentDate, err := datetime.ParseDate(*paymentDateFlag)
	if err != nil {
		logger.Fatal("invalid payment date",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	result, err := a.Engine.Calculate(engine.Request{
		Revenue:     revenue,
		Expenses:    expenses,
		Category:    *category,
		PaymentDate: paymentDate,
		Lines:       lines,
	})
	if err != nil {
		var engErr *engine.Error
		kind := "UNKNOWN"
		if errors.As(err, &engErr) {
			kind = string(engErr.Kind)
		}
		logger.Fatal("failed to compute tax",
			zap.String("op", "main"),
			zap.String("kind", kind),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(os.Stdout, result)
	case constants.OutputFormatCSV:
		if err := output.CsvFormat(os.Stdout, result); err != nil {
			logger.Fatal("failed to write csv",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
