// Package components wires every component this service owns into a
// single Container, grounded on the teacher's Container/GetInstance
// singleton in this same package: config -> logger -> postgres pool ->
// cache -> account client -> ledger/limits -> engine -> health ->
// scheduler -> HTTP server, in dependency order, with a matching
// Start/Shutdown pair for graceful shutdown.
package components

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"transaction-service/internal/accountclient"
	"transaction-service/internal/api/handlers"
	"transaction-service/internal/api/routes"
	"transaction-service/internal/cache"
	"transaction-service/internal/config"
	"transaction-service/internal/engine"
	"transaction-service/internal/health"
	"transaction-service/internal/infrastructure/messaging/kafka"
	"transaction-service/internal/ledger"
	"transaction-service/internal/limits"
	"transaction-service/internal/observability/audit"
	"transaction-service/internal/observability/metrics"
	"transaction-service/internal/pkg/logging"
	"transaction-service/internal/scheduler"
)

// Container holds every application component and implements
// handlers.Dependencies, the same role the teacher's Container plays for
// its handlers.
type Container struct {
	config *config.Config

	pool          *pgxpool.Pool
	redisCache    *cache.RedisCache
	kafkaProducer *kafka.Producer

	accounts        accountclient.Client
	ledgerStore     ledger.Store
	limitsEvaluator *limits.Evaluator
	auditRecorder   *audit.Recorder
	successTracker  *metrics.SuccessTracker
	engine          *engine.Engine
	healthChecker   *health.Checker
	scheduler       *scheduler.Scheduler

	router *gin.Engine
	server *http.Server
}

var (
	instance     *Container
	instanceOnce sync.Once
	instanceErr  error
)

// GetInstance returns the singleton container, initializing it on first
// call.
func GetInstance() (*Container, error) {
	instanceOnce.Do(func() {
		instance, instanceErr = newContainer()
	})
	return instance, instanceErr
}

// New creates and initializes all application components. Kept for
// parity with the teacher's New, which also just delegates to
// GetInstance.
func New() (*Container, error) {
	return GetInstance()
}

func newContainer() (*Container, error) {
	c := &Container{}

	c.config = config.Load()
	logging.Init(c.config)
	logging.Info("configuration loaded", map[string]interface{}{"port": c.config.Server.Port})

	if err := c.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.redisCache = cache.NewRedisCache(c.config.Redis)

	if err := c.initAuditSink(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit sink: %w", err)
	}

	c.accounts = accountclient.NewResilient(c.config, c.redisCache)
	c.ledgerStore = ledger.NewPostgresStore(c.pool)
	limitsRepo := limits.NewPostgresRepository(c.pool)
	c.limitsEvaluator = limits.NewEvaluator(limitsRepo, c.ledgerStore)
	c.successTracker = metrics.NewSuccessTracker()

	reversalWindow := time.Duration(c.config.Reversal.WindowDays) * 24 * time.Hour
	c.engine = engine.New(c.ledgerStore, c.accounts, c.limitsEvaluator, c.auditRecorder, reversalWindow)

	c.healthChecker = health.NewChecker(c.pool, c.redisCache, c.accounts, c.successTracker)

	c.scheduler = scheduler.New(c.ledgerStore, c.engine, c.accounts, c.auditRecorder, c.successTracker, scheduler.Config{
		ErrorRateThreshold:           c.config.Alerting.ErrorRateThreshold,
		ResponseTimeThreshold:        time.Duration(c.config.Alerting.ResponseTimeThresholdMillis) * time.Millisecond,
		AccountServiceErrorThreshold: c.config.Alerting.AccountServiceErrorThreshold,
		DailyVolumeThreshold:         c.config.Alerting.DailyVolumeThreshold,
		ActiveTransactionThreshold:   100,
		SuppressionWindow:            time.Duration(c.config.Alerting.SuppressionMinutes) * time.Minute,
		StaleSweepAfter:              30 * time.Minute,
	})

	if err := c.initServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	logging.Info("all components initialized", nil)
	return c, nil
}

func (c *Container) initDatabase() error {
	poolConfig, err := pgxpool.ParseConfig(c.config.Postgres.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = int32(c.config.Postgres.MaxOpenConns)
	poolConfig.MinConns = int32(c.config.Postgres.MaxIdleConns)
	poolConfig.MaxConnLifetime = c.config.Postgres.ConnMaxLifetime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.pool = pool
	logging.Info("postgres connection pool created", map[string]interface{}{
		"host": c.config.Postgres.Host, "database": c.config.Postgres.Database,
		"maxConns": poolConfig.MaxConns,
	})
	return nil
}

// initAuditSink wires the audit trail onto Kafka when enabled, falling
// back to the structured logger so a missing broker never costs the
// deployment its audit trail.
func (c *Container) initAuditSink() error {
	if !c.config.Kafka.Enabled {
		logging.Info("kafka disabled, audit events logged only", nil)
		c.auditRecorder = audit.NewRecorder(audit.NewLogSink())
		return nil
	}

	kafkaConfig := kafka.FromServiceConfig(c.config.Kafka.Brokers, c.config.Kafka.ClientID)
	producer, err := kafka.NewProducer(kafkaConfig)
	if err != nil {
		logging.Warn("failed to initialize kafka producer, falling back to log audit sink", map[string]interface{}{
			"error": err.Error(),
		})
		c.auditRecorder = audit.NewRecorder(audit.NewLogSink())
		return nil
	}

	c.kafkaProducer = producer
	c.auditRecorder = audit.NewRecorder(audit.NewKafkaSink(producer, kafka.TopicAuditEvents))
	logging.Info("kafka audit sink initialized", map[string]interface{}{"brokers": c.config.Kafka.Brokers})
	return nil
}

func (c *Container) initServer() error {
	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	c.router = gin.New()
	c.router.Use(gin.Recovery())

	routes.RegisterRoutes(c.router, c, c.config)

	c.server = &http.Server{
		Addr:           ":" + c.config.Server.Port,
		Handler:        c.router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	logging.Info("http server configured", map[string]interface{}{"port": c.config.Server.Port})
	return nil
}

// The Engine/Ledger/LimitsEvaluator/Health/Config accessors implement
// handlers.Dependencies.
func (c *Container) Engine() *engine.Engine               { return c.engine }
func (c *Container) Ledger() ledger.Store                 { return c.ledgerStore }
func (c *Container) LimitsEvaluator() *limits.Evaluator    { return c.limitsEvaluator }
func (c *Container) Health() *health.Checker               { return c.healthChecker }
func (c *Container) Config() *config.Config                { return c.config }

var _ handlers.Dependencies = (*Container)(nil)

// Start runs the scheduler and HTTP server until an interrupt signal
// arrives, then shuts both down gracefully.
func (c *Container) Start() error {
	ctx, stop := context.WithCancel(context.Background())
	c.scheduler.Run(ctx)

	logging.Info("starting http server", map[string]interface{}{"address": c.server.Addr})
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("server failed to start", err, nil)
			os.Exit(1)
		}
	}()

	c.waitForShutdown(stop)
	return nil
}

func (c *Container) waitForShutdown(stopScheduler context.CancelFunc) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("shutting down", nil)
	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Shutdown(ctx); err != nil {
		logging.Error("server forced to shutdown", err, nil)
	}
	logging.Info("shutdown complete", nil)
}

// Shutdown stops the HTTP server and releases every held resource.
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if c.kafkaProducer != nil {
		if err := c.kafkaProducer.Close(); err != nil {
			logging.Error("failed to close kafka producer", err, nil)
		}
	}
	if c.redisCache != nil {
		if err := c.redisCache.Close(); err != nil {
			logging.Error("failed to close redis client", err, nil)
		}
	}
	if c.pool != nil {
		c.pool.Close()
	}
	logging.Sync()
	return nil
}
