// Package container is the composition root: it wires infrastructure,
// application services, and the HTTP adapter into a runnable process.
//
// Container manages the lifecycle of every dependency:
// - Construction (eager, in dependency order, all in Initialize)
// - Access (getters, mostly for tests)
// - Teardown (graceful close, reverse order)
package container

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/wallethub/ledgercore/internal/adapters/http"
	"github.com/wallethub/ledgercore/internal/adapters/http/middleware"
	"github.com/wallethub/ledgercore/internal/application/ledger"
	"github.com/wallethub/ledgercore/internal/application/ports"
	"github.com/wallethub/ledgercore/internal/config"
	"github.com/wallethub/ledgercore/internal/infrastructure/cache"
	"github.com/wallethub/ledgercore/internal/infrastructure/events"
	"github.com/wallethub/ledgercore/internal/infrastructure/observability"
	"github.com/wallethub/ledgercore/internal/infrastructure/persistence/postgres"
	"github.com/wallethub/ledgercore/internal/pkg/logger"
)

// Container is the application's DI container.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool        *pgxpool.Pool
	redisClient *redis.Client
	natsConn    *nats.Conn
	tracerShutdown func(context.Context) error

	// Repositories and ports
	accountRepo     ports.AccountRepository
	assetTypeRepo   ports.AssetTypeRepository
	transactionRepo ports.TransactionRepository
	accountResolver ports.AccountResolver
	postingEngine   ports.PostingEngine
	idempotency     ports.IdempotencyStore
	outboxRepo      *postgres.OutboxRepository
	sessions        ports.SessionRunner
	rawQuerySurface *postgres.QuerySurface
	cachedQuery     *cache.QuerySurface
	eventPublisher  ports.EventPublisher

	// Event dispatcher (outbox -> broker)
	dispatcher *events.Dispatcher

	// Application
	ledgerService *ledger.Service

	// HTTP
	httpServer *http.Server
}

// New creates an uninitialized Container bound to cfg.
func New(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// Initialize wires every dependency in order: logging, database,
// cache, broker, tracing, application service, HTTP server.
func (c *Container) Initialize(ctx context.Context) error {
	c.logger = c.initLogger()
	c.logger.Info("initializing container")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	c.logger.Info("database connected")

	if err := c.initCache(ctx); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	c.logger.Info("cache connected")

	if err := c.initBroker(); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	c.logger.Info("broker connected")

	if err := c.initTracing(ctx); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	c.initRepositories()
	c.initDispatcher()
	c.initLedgerService()
	c.initHTTPServer()

	c.logger.Info("container initialization complete")
	return nil
}

func (c *Container) initLogger() *slog.Logger {
	log := logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    os.Stdout,
		AddSource: c.config.App.Debug,
	})
	slog.SetDefault(log)
	return log
}

func (c *Container) initDatabase(ctx context.Context) error {
	dbCfg := postgres.Config{
		Host:            c.config.Database.Host,
		Port:            c.config.Database.Port,
		Database:        c.config.Database.Database,
		User:            c.config.Database.User,
		Password:        c.config.Database.Password,
		SSLMode:         c.config.Database.SSLMode,
		MaxConns:        c.config.Database.MaxConnections,
		MinConns:        c.config.Database.MinConnections,
		MaxConnLifetime: c.config.Database.MaxConnLifetime,
		MaxConnIdleTime: c.config.Database.MaxConnIdleTime,
		ConnectTimeout:  c.config.Database.ConnectTimeout,
	}

	pool, err := postgres.NewConnectionPool(ctx, dbCfg)
	if err != nil {
		return err
	}
	c.pool = pool
	return nil
}

func (c *Container) initCache(ctx context.Context) error {
	redisCfg := cache.ClientConfig{
		Addr:         c.config.Redis.Addr,
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	}

	client, err := cache.NewClient(ctx, redisCfg)
	if err != nil {
		return err
	}
	c.redisClient = client
	return nil
}

func (c *Container) initBroker() error {
	natsCfg := events.ClientConfig{
		URL:            c.config.NATS.URL,
		Name:           c.config.NATS.Name,
		ReconnectWait:  c.config.NATS.ReconnectWait,
		MaxReconnects:  c.config.NATS.MaxReconnects,
		ConnectTimeout: c.config.NATS.ConnectTimeout,
	}

	conn, err := events.NewConnection(natsCfg)
	if err != nil {
		return err
	}
	c.natsConn = conn
	return nil
}

func (c *Container) initTracing(ctx context.Context) error {
	if !c.config.Tracing.Enabled {
		return nil
	}
	tracingCfg := observability.TracingConfig{
		ServiceName:    c.config.App.Name,
		ServiceVersion: c.config.App.Version,
		Environment:    c.config.App.Environment,
		OTLPEndpoint:   c.config.Tracing.OTLPEndpoint,
		Insecure:       c.config.Tracing.Insecure,
		SampleRatio:    c.config.Tracing.SampleRatio,
	}
	_, shutdown, err := observability.NewTracerProvider(ctx, tracingCfg)
	if err != nil {
		return err
	}
	c.tracerShutdown = shutdown
	return nil
}

func (c *Container) initRepositories() {
	c.accountRepo = postgres.NewAccountRepository(c.pool)
	c.assetTypeRepo = postgres.NewAssetTypeRepository(c.pool)
	c.transactionRepo = postgres.NewTransactionRepository(c.pool)
	c.accountResolver = postgres.NewAccountResolver(c.pool)
	c.postingEngine = postgres.NewPostingEngine(c.pool)
	c.idempotency = postgres.NewIdempotencyStore(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)
	c.sessions = postgres.NewSessionRunner(c.pool, c.config.Ledger.SessionMaxRetries, c.logger)
	c.rawQuerySurface = postgres.NewQuerySurface(c.pool)

	c.cachedQuery = cache.NewQuerySurface(c.rawQuerySurface, c.redisClient, cache.DefaultConfig(), c.logger)

	// The outbox is the durable write side of event publication, written in
	// the same transaction as the posting. Cache invalidation is a separate
	// concern wired directly into the ledger service (see initLedgerService)
	// so it only runs after that transaction has actually committed.
	c.eventPublisher = c.outboxRepo
}

func (c *Container) initDispatcher() {
	c.dispatcher = events.NewDispatcher(c.sessions, c.outboxRepo, c.natsConn, events.DefaultConfig(), c.logger)
}

func (c *Container) initLedgerService() {
	cfg := ledger.Config{
		TreasuryExternalIDTemplate:  c.config.Ledger.TreasuryExternalIDTemplate,
		BonusPoolExternalIDTemplate: c.config.Ledger.BonusPoolExternalIDTemplate,
		RevenueExternalIDTemplate:   c.config.Ledger.RevenueExternalIDTemplate,
		IdempotencyRetention:        c.config.Ledger.IdempotencyRetention,
	}

	deps := ledger.Deps{
		Sessions:     c.sessions,
		Resolver:     c.accountResolver,
		Postings:     c.postingEngine,
		Idempotency:  c.idempotency,
		Transactions: c.transactionRepo,
		Accounts:     c.accountRepo,
		AssetTypes:   c.assetTypeRepo,
		Events:       c.eventPublisher,
		Queries:      c.cachedQuery,
		Cache:        c.cachedQuery,
	}

	c.ledgerService = ledger.New(cfg, deps, c.logger)
}

func (c *Container) initHTTPServer() {
	var tokenValidator func(token string) (*middleware.Claims, error)
	if c.config.Auth.EnableMockAuth {
		tokenValidator = middleware.MockTokenValidator
	} else {
		tokenValidator = middleware.NewJWTTokenValidator(c.config.Auth.JWTSecret, c.config.Auth.JWTIssuer)
	}

	routerConfig := &http.RouterConfig{
		Logger:             c.logger,
		Pool:               c.pool,
		Version:            c.config.App.Version,
		Environment:        c.config.App.Environment,
		AllowedOrigins:     c.config.CORS.AllowedOrigins,
		AuthTokenValidator: tokenValidator,
		TracingServiceName: c.config.App.Name,
	}

	router := http.NewRouter(routerConfig, c.ledgerService)

	serverConfig := &http.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            c.config.Server.Port,
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Logger:          c.logger,
	}

	c.httpServer = http.NewServer(serverConfig, router)
}

// ============================================
// Getters
// ============================================

func (c *Container) Config() *config.Config     { return c.config }
func (c *Container) Logger() *slog.Logger       { return c.logger }
func (c *Container) Pool() *pgxpool.Pool        { return c.pool }
func (c *Container) HTTPServer() *http.Server   { return c.httpServer }
func (c *Container) LedgerService() *ledger.Service { return c.ledgerService }

// ============================================
// Run
// ============================================

// Run starts the background outbox dispatcher and blocks serving HTTP
// until a shutdown signal arrives.
func (c *Container) Run() error {
	c.logger.Info("starting ledgercore API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	dispatchCtx, cancelDispatch := context.WithCancel(context.Background())
	defer cancelDispatch()
	go c.dispatcher.Run(dispatchCtx)

	return c.httpServer.Run()
}

// ============================================
// Shutdown
// ============================================

// Shutdown tears down every component in reverse dependency order,
// best-effort: it collects errors instead of stopping at the first one.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("shutting down container")

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.natsConn != nil {
		c.natsConn.Close()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.tracerShutdown != nil {
		if err := c.tracerShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}

	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("database connection closed")
		case <-ctx.Done():
			c.logger.Warn("database close timed out")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	c.logger.Info("container shutdown complete")
	return nil
}

// ============================================
// Health Check
// ============================================

// HealthStatus summarizes the application's readiness for an external
// probe that wants more than the HTTP router's own /health endpoint.
type HealthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  time.Duration     `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}

// Health pings every external dependency and reports the aggregate.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:  "healthy",
		Version: c.config.App.Version,
		Checks:  make(map[string]string),
	}

	if err := c.pool.Ping(ctx); err != nil {
		status.Status = "unhealthy"
		status.Checks["database"] = "error: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		status.Status = "unhealthy"
		status.Checks["cache"] = "error: " + err.Error()
	} else {
		status.Checks["cache"] = "ok"
	}

	if !c.natsConn.IsConnected() {
		status.Status = "unhealthy"
		status.Checks["broker"] = "disconnected"
	} else {
		status.Checks["broker"] = "ok"
	}

	return status
}
