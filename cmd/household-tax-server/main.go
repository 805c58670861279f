package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iwvelando/household-tax/internal/app"
	"github.com/iwvelando/household-tax/internal/config"
	"github.com/iwvelando/household-tax/internal/logging"
	"github.com/iwvelando/household-tax/internal/server"
	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/policy"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with HKDTAX_* overrides")
	address := flag.String("address", "", "listen address override, e.g. :8080")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

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

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	maxBodySize, err := conf.MaxBodySizeBytes()
	if err != nil {
		logger.Fatal("invalid server maxBodySize",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	a, err := app.Build(logger, conf)
	if err != nil {
		logger.Fatal("failed to assemble engine",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := a.Watcher()
	if err != nil {
		logger.Fatal("failed to watch policy file",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if watcher != nil {
		watcher.OnReload(func(t *policy.Table) {
			logger.Info("serving reloaded policy",
				zap.String("op", "main"),
				zap.String("version", t.Version()),
			)
		})
		go func() {
			_ = watcher.Run(ctx)
		}()
	}

	// Amounts go out as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
	gin.SetMode(gin.ReleaseMode)

	listen := conf.Server.Address
	if *address != "" {
		listen = *address
	}

	handler := server.NewHandler(logger, a.Engine, server.Options{
		Version:           version,
		MaxBodySize:       maxBodySize,
		AllowedOrigins:    conf.Server.AllowedOrigins,
		RequestsPerSecond: conf.Server.RateLimit.RequestsPerSecond,
		Burst:             conf.Server.RateLimit.Burst,
	})

	srv := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("op", "main"),
			zap.String("address", listen),
			zap.String("version", version),
			zap.String("policy_version", a.Engine.PolicyVersion()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server",
		zap.String("op", "main"),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
