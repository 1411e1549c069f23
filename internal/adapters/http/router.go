// Package http assembles the façade's gin.Engine: middleware chain,
// health/metrics endpoints, and the flow/query routes, all wired
// against the ledger core through the handlers package.
package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wallethub/ledgercore/internal/adapters/http/common"
	"github.com/wallethub/ledgercore/internal/adapters/http/handlers"
	"github.com/wallethub/ledgercore/internal/adapters/http/middleware"
)

// LedgerFacade is the full surface the HTTP handlers need from the
// ledger core: the three flows plus the three queries. ledger.Service
// satisfies this structurally.
type LedgerFacade interface {
	handlers.FlowService
	handlers.QueryService
}

// RouterConfig configures the assembled gin.Engine.
type RouterConfig struct {
	Logger             *slog.Logger
	Pool               *pgxpool.Pool
	Version            string
	Environment        string
	AllowedOrigins     []string
	AuthTokenValidator func(token string) (*middleware.Claims, error)
	TracingServiceName string
}

// DefaultRouterConfig is the development default: mock auth, wildcard CORS.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:             slog.Default(),
		Version:            "dev",
		Environment:        "development",
		AllowedOrigins:     []string{"*"},
		AuthTokenValidator: middleware.MockTokenValidator,
		TracingServiceName: "ledgercore",
	}
}

// NewRouter builds the gin.Engine: global middleware, health/metrics
// endpoints, and the v1 API group (auth-protected) carrying the flow
// and query routes.
func NewRouter(config *RouterConfig, service LedgerFacade) *gin.Engine {
	if config == nil {
		config = DefaultRouterConfig()
	}
	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupValidator()

	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           config.Logger,
		EnableStackTrace: config.Environment != "production",
	}))
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(config.TracingServiceName))
	if config.Environment == "production" {
		router.Use(middleware.CORS(middleware.ProductionCORSConfig(config.AllowedOrigins)))
	} else {
		router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	}
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    config.Logger,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))
	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	router.Use(middleware.Metrics())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	healthHandler := handlers.NewHealthHandler(config.Pool, config.Version)
	healthHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(&middleware.AuthConfig{TokenValidator: config.AuthTokenValidator}))

	flowHandler := handlers.NewFlowHandler(service)
	postingGroup := v1.Group("")
	postingGroup.Use(middleware.RateLimit(middleware.PostingRateLimitConfig()))
	flowHandler.RegisterRoutes(postingGroup)

	queryHandler := handlers.NewQueryHandler(service)
	queryHandler.RegisterRoutes(v1)

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, 404, &common.APIError{
			Code:    "NOT_FOUND",
			Message: "endpoint not found",
		})
	})

	return router
}
