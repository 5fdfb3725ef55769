package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/tradepost/cardrail/config"
	cardrepo "github.com/tradepost/cardrail/internal/repositories/card"
	listingrepo "github.com/tradepost/cardrail/internal/repositories/listing"
	trackedqueryrepo "github.com/tradepost/cardrail/internal/repositories/trackedquery"
	"github.com/tradepost/cardrail/pkg/database"
	"github.com/tradepost/cardrail/pkg/events"
	"github.com/tradepost/cardrail/pkg/health"
	"github.com/tradepost/cardrail/pkg/ingest"
	"github.com/tradepost/cardrail/pkg/kafka"
	"github.com/tradepost/cardrail/pkg/logging"
	"github.com/tradepost/cardrail/pkg/middleware"
	"github.com/tradepost/cardrail/pkg/normalizer"
	"github.com/tradepost/cardrail/pkg/redis"
	"github.com/tradepost/cardrail/pkg/resolver"
	cardroutes "github.com/tradepost/cardrail/pkg/routes/card"
	ingestroutes "github.com/tradepost/cardrail/pkg/routes/ingest"
	normalizeroutes "github.com/tradepost/cardrail/pkg/routes/normalize"
	scraperoutes "github.com/tradepost/cardrail/pkg/routes/scrape"
	trackedqueryroutes "github.com/tradepost/cardrail/pkg/routes/trackedquery"
	"github.com/tradepost/cardrail/pkg/scheduler"
	"github.com/tradepost/cardrail/pkg/scraper"
	"github.com/tradepost/cardrail/pkg/startup"
	"github.com/tradepost/cardrail/pkg/tracing"
	"github.com/tradepost/cardrail/pkg/tracing/exporters"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, flush, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = flush() }()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		_ = flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger ectologger.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, cfg.AppName, exporters.OTLPConfig{
		Endpoint: cfg.TracingEndpoint,
		Protocol: cfg.TracingProtocol,
		Insecure: cfg.TracingInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := database.Connect(ctx, cfg.ConnectionString(), database.ConnectOptions{
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	instance, ok := db.(*database.DatabaseInstance)
	if !ok {
		return fmt.Errorf("unexpected database instance type")
	}

	driver, err := migratepg.WithInstance(instance.Unwrap().DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to build migration driver: %w", err)
	}
	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})
	if err := migrations.Migrate(cfg.DatabaseName, driver); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var redisClient *redis.Client
	var locker *redis.Locker
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(redis.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		locker = redis.NewLocker(redisClient, "")
	}

	var emitter events.Emitter = events.NopEmitter{}
	if cfg.KafkaEnabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewKafkaEmitter(producer, logger)
	}

	cards := cardrepo.NewRepository(db, logger)
	listings := listingrepo.NewRepository(db, logger)
	trackedQueries := trackedqueryrepo.NewRepository(db, logger)

	norm := normalizer.New(logger)
	res := resolver.New(logger)
	coordinator := ingest.NewCoordinator(cards, listings, norm, res, emitter, logger, cfg.IngestConcurrency)

	scraperClient := scraper.NewClient(scraper.Config{
		BaseURL: cfg.ScraperBaseURL,
		APIKey:  cfg.ScraperAPIKey,
		Timeout: cfg.ScraperTimeout,
	}, logger)

	if err := registerDependencies(logger, cards, listings, trackedQueries, norm, coordinator, scraperClient); err != nil {
		return fmt.Errorf("failed to build DI container: %w", err)
	}

	checker := health.NewChecker(db, redisRaw(redisClient), version())

	e := buildServer(cfg, logger, checker)

	sched := scheduler.NewScheduler(trackedQueries, scraperClient, coordinator, locker, scheduler.Config{
		PollInterval: cfg.SchedulerPollInterval,
		LockTTL:      cfg.SchedulerLockTTL,
		MaxResults:   cfg.SchedulerMaxResults,
	}, logger)

	boot := startup.New(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&serverDependency{e: e, port: cfg.Port, logger: logger})
	if cfg.SchedulerEnabled {
		boot.AddDependency(&schedulerDependency{sched: sched})
	}

	if err := boot.Start(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	checker.SetReady(true)

	logger.WithContext(ctx).Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	checker.SetReady(false)

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return boot.Stop(stopCtx)
}

// registerDependencies seeds the DI container the route handlers resolve from
func registerDependencies(
	logger ectologger.Logger,
	cards *cardrepo.Repository,
	listings *listingrepo.Repository,
	trackedQueries *trackedqueryrepo.Repository,
	norm *normalizer.Normalizer,
	coordinator *ingest.Coordinator,
	scraperClient *scraper.Client,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*cardrepo.Repository](container, cards); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*listingrepo.Repository](container, listings); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*trackedqueryrepo.Repository](container, trackedQueries); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*normalizer.Normalizer](container, norm); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*ingest.Coordinator](container, coordinator); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*scraper.Client](container, scraperClient)
}

// buildServer wires the echo instance: middleware, routes, probes
func buildServer(cfg *config.Config, logger ectologger.Logger, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))

	ingestroutes.Register(e.Group("/ingest"))
	normalizeroutes.Register(e.Group("/normalize"))
	scraperoutes.Register(e.Group("/scrape"))
	cardroutes.Register(e.Group("/cards"))
	trackedqueryroutes.Register(e.Group("/admin/tracked-queries", middleware.AdminToken(logger, cfg.AdminToken)))

	e.GET("/health", checker.HealthHandler)
	e.GET("/health/live", checker.LivenessHandler)
	e.GET("/health/ready", checker.ReadinessHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

func redisRaw(c *redis.Client) *goredis.Client {
	if c == nil {
		return nil
	}
	return c.Raw()
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "dev"
}

// serverDependency adapts the echo server to the startup lifecycle
type serverDependency struct {
	e      *echo.Echo
	port   int
	logger ectologger.Logger
}

func (s *serverDependency) GetName() string     { return "http-server" }
func (s *serverDependency) DependsOn() []string { return nil }

func (s *serverDependency) Start(_ context.Context) error {
	go func() {
		if err := s.e.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()
	return nil
}

func (s *serverDependency) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// schedulerDependency adapts the scheduler to the startup lifecycle
type schedulerDependency struct {
	sched *scheduler.Scheduler
}

func (s *schedulerDependency) GetName() string     { return "scheduler" }
func (s *schedulerDependency) DependsOn() []string { return []string{"http-server"} }

func (s *schedulerDependency) Start(ctx context.Context) error {
	return s.sched.Start(ctx)
}

func (s *schedulerDependency) Stop(ctx context.Context) error {
	return s.sched.Stop(ctx)
}
