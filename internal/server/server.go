// Package server exposes the tax engine over HTTP for the browser UI.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/iwvelando/household-tax/internal/engine"
	"github.com/iwvelando/household-tax/pkg/constants"
	"github.com/iwvelando/household-tax/pkg/response"
	"go.uber.org/zap"
)

// Options are the transport settings of the handler.
type Options struct {
	Version        string
	MaxBodySize    int64
	AllowedOrigins []string
	// RequestsPerSecond and Burst throttle each client IP. A zero rate
	// disables throttling.
	RequestsPerSecond float64
	Burst             int
}

type handler struct {
	logger  *zap.Logger
	engine  *engine.Engine
	version string
}

// NewHandler constructs the HTTP handler that serves the tax API.
func NewHandler(logger *zap.Logger, eng *engine.Engine, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, engine: eng, version: trimmedVersion}

	router := gin.New()
	router.Use(recovery(logger))
	router.Use(requestID())
	router.Use(accessLog(logger))
	if c, ok := corsConfig(opts.AllowedOrigins); ok {
		router.Use(cors.New(c))
	}
	if opts.RequestsPerSecond > 0 {
		router.Use(newRateLimiter(opts.RequestsPerSecond, opts.Burst).middleware())
	}
	router.Use(bodyLimit(opts.MaxBodySize))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": "ok"}))
	})

	api := router.Group("/api")
	{
		api.POST("/tax/calculate", h.handleCalculate)
		api.POST("/expenses/classify", h.handleClassify)
		api.GET("/policy", h.handlePolicy)
		api.GET("/policy/version", h.handlePolicyVersion)
		api.GET("/version", h.handleVersion)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "not found"))
	})

	return router
}

func corsConfig(origins []string) (cors.Config, bool) {
	if len(origins) == 0 {
		return cors.Config{}, false
	}

	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Accept", constants.RequestIDHeader},
		ExposeHeaders: []string{constants.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			c.AllowAllOrigins = true
			return c, true
		}
	}
	c.AllowOrigins = origins
	return c, true
}
