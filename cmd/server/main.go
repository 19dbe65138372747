package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appcart "github.com/storefront/backend/internal/application/cart"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/application/checkout"
	apprecommendation "github.com/storefront/backend/internal/application/recommendation"
	"github.com/storefront/backend/internal/application/storefront"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/conversation"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/recommendation"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/domain/trade"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/llm"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	_ "github.com/storefront/backend/docs"
)

//	@title			Storefront API
//	@version		1.0
//	@description	Conversational storefront: catalog browsing, cart, checkout and payment settlement driven by a chat gateway.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Gateway token. Format: "Bearer {token}"

const slowQueryThreshold = 200 * time.Millisecond

// catalogStore is a catalog backend that also owns stock
type catalogStore interface {
	catalog.Provider
	catalog.StockKeeper
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// OpenTelemetry: logs first so every later entry is exported too
	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize log exporter", zap.Error(err))
	}
	log = logProvider.Attach(log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("catalog_backend", cfg.Catalog.Backend),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServer,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Telemetry.ProfilingUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingPassword,
		ProfileTypes:      cfg.Telemetry.ProfileTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	metrics, err := telemetry.NewStorefrontMetrics(meterProvider.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create storefront metrics", zap.Error(err))
	}

	// Catalog and orders
	locale, err := moneyLocale(cfg.Catalog)
	if err != nil {
		log.Fatal("Invalid catalog currency", zap.Error(err))
	}
	var (
		products catalogStore
		orders   trade.OrderRepository
		db       *persistence.Database
	)
	switch cfg.Catalog.Backend {
	case config.CatalogBackendDatabase:
		db, err = openDatabase(ctx, cfg, meterProvider.Meter(telemetry.TracerName), log)
		if err != nil {
			log.Fatal("Failed to open database", zap.Error(err))
		}
		gormCatalog := persistence.NewGormCatalog(db.DB, locale)
		if cfg.Catalog.Seed {
			if err := seedCatalog(ctx, gormCatalog, cfg.Catalog.DemoStock, log); err != nil {
				log.Fatal("Failed to seed catalog", zap.Error(err))
			}
		}
		products = gormCatalog
		orders = persistence.NewGormOrderRepository(db.DB)
	default:
		memCatalog, err := persistence.NewDemoCatalog(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), cfg.Catalog.DemoStock, locale)
		if err != nil {
			log.Fatal("Failed to build demo catalog", zap.Error(err))
		}
		log.Info("Demo catalog loaded", zap.Int("products", memCatalog.Len()))
		products = memCatalog
		orders = persistence.NewMemoryOrderRepository()
	}

	// Photos kept in object storage are served through presigned URLs
	var (
		browse catalog.Provider = products
		photos *storage.PhotoBucket
	)
	if cfg.Storage.Enabled {
		photos, err = storage.NewPhotoBucket(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize photo storage", zap.Error(err))
		}
		if cfg.Storage.CreateBucket {
			if err := photos.EnsureBucket(ctx); err != nil {
				log.Fatal("Failed to prepare photo bucket", zap.Error(err))
			}
		}
		browse = storage.NewPhotoCatalog(products, photos, log)
		log.Info("Photo storage enabled", zap.String("bucket", photos.Bucket()))
	}

	// Session and idempotency stores
	stores, err := cache.NewStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize stores", zap.Error(err))
	}

	// Event bus and application services
	eventBus := event.NewSyncBus(log)
	cartService := appcart.NewService(products, eventBus, log)
	checkoutService := checkout.NewService(cartService, orders, eventBus, stores.Idempotency, checkout.Config{
		Invoice: payment.InvoiceOptions{
			Title:               cfg.Payment.InvoiceTitle,
			Description:         cfg.Payment.InvoiceDescription,
			Currency:            valueobject.Currency(cfg.Payment.Currency),
			NeedName:            cfg.Payment.NeedName,
			NeedPhoneNumber:     cfg.Payment.NeedPhoneNumber,
			NeedEmail:           cfg.Payment.NeedEmail,
			NeedShippingAddress: cfg.Payment.NeedShippingAddress,
		},
		SettlementTTL: cfg.Payment.SettlementTTL,
	}, log)

	// Placed orders -> stock decrement, at most once per event
	eventBus.Subscribe(event.NewIdempotentHandler(
		appcatalog.NewOrderPlacedHandler(products, products, log),
		stores.Idempotency,
		shared.DefaultIdempotencyConfig(),
		log,
	))
	// Cart changes -> drop the pending invoice
	eventBus.Subscribe(checkout.NewInvoiceInvalidationHandler(checkoutService))
	eventBus.Subscribe(metrics)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	recommender, err := newRecommender(cfg.Recommendation, log)
	if err != nil {
		log.Fatal("Failed to initialize recommender", zap.Error(err))
	}
	recommendationService := apprecommendation.NewService(browse, recommender, apprecommendation.Config{
		Separator:   cfg.Recommendation.Separator,
		MaxProducts: cfg.Recommendation.MaxProducts,
		Timeout:     cfg.Recommendation.Timeout,
	}, log)

	dispatcher := storefront.NewDispatcher(
		browse,
		cartService,
		checkoutService,
		recommendationService,
		stores.Sessions,
		conversation.NewMachine(cfg.Session.IdleTimeout),
		storefront.Config{
			WelcomeMessage: cfg.Bot.WelcomeMessage,
			ImageView:      storefront.ImageView(cfg.Bot.ImageView),
			PageSize:       cfg.Catalog.PageSize,
		},
		log,
	)

	// Housekeeping
	var jobs *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		jobs, err = newScheduler(cfg, checkoutService, stores.Sessions, log)
		if err != nil {
			log.Fatal("Failed to configure scheduler", zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	engineCfg := router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName:   cfg.Telemetry.ServiceName,
			Enabled:       cfg.Telemetry.Enabled,
			UntracedPaths: []string{"/health"},
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Swagger:        cfg.HTTP.SwaggerEnabled,
	}
	if cfg.HTTP.RateLimitEnabled {
		engineCfg.RateLimiter = middleware.NewRateLimiter(serverCtx, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}
	if cfg.Auth.Enabled {
		jwtService := auth.NewJWTService(cfg.Auth)
		engineCfg.Auth = middleware.GatewayAuth(jwtService, log)
	} else {
		log.Warn("Gateway authentication disabled")
	}

	var checks []handler.HealthCheck
	if db != nil {
		checks = append(checks, handler.HealthCheck{Name: "database", Check: db.Ping})
	}
	if photos != nil {
		checks = append(checks, handler.HealthCheck{Name: "storage", Check: photos.Ping})
	}
	if stores.UsesRedis() {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: stores.Ping})
	}

	engine, err := router.NewEngine(engineCfg, router.Handlers{
		Storefront: handler.NewStorefrontHandler(dispatcher, metrics),
		Catalog:    handler.NewCatalogHandler(appcatalog.NewCatalogService(browse)),
		Health:     handler.NewHealthHandler(cfg.App.Name, telemetry.ServiceVersion, checks...),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopServer()
	if jobs != nil {
		if err := jobs.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
	_ = eventBus.Stop(shutdownCtx)

	if err := stores.Close(); err != nil {
		log.Error("Error closing stores", zap.Error(err))
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	_ = logProvider.Shutdown(shutdownCtx)
}

func moneyLocale(cfg config.CatalogConfig) (valueobject.MoneyLocale, error) {
	code, err := valueobject.ParseCurrency(cfg.Currency)
	if err != nil {
		return valueobject.MoneyLocale{}, err
	}
	locale := valueobject.NewMoneyLocale(code, language.Make(cfg.Language))
	if cfg.PriceTemplate != "" {
		locale = locale.WithTemplate(cfg.PriceTemplate)
	}
	return locale, nil
}

// openDatabase connects, installs tracing and pool metrics, and migrates
// the schema
func openDatabase(ctx context.Context, cfg *config.Config, meter metric.Meter, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), slowQueryThreshold)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	dbSystem := "postgresql"
	if cfg.Database.Driver == config.DatabaseDriverSQLite {
		dbSystem = "sqlite"
	}
	err = telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   dbSystem,
	}, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := telemetry.ObserveDBPool(meter, dbSystem, db.PoolStats); err != nil {
		_ = db.Close()
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))
	return db, nil
}

// seedCatalog imports the demo catalog into an empty database
func seedCatalog(ctx context.Context, c *persistence.GormCatalog, stock int, log *zap.Logger) error {
	count, err := c.CountProducts(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info("Catalog already populated, skipping seed", zap.Int64("products", count))
		return nil
	}
	categories, products := persistence.DemoCatalogData(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), stock)
	if err := c.Import(ctx, categories, products); err != nil {
		return fmt.Errorf("import demo catalog: %w", err)
	}
	log.Info("Demo catalog imported", zap.Int("categories", len(categories)), zap.Int("products", len(products)))
	return nil
}

// newRecommender returns nil when recommendations are disabled
func newRecommender(cfg config.RecommendationConfig, log *zap.Logger) (recommendation.Recommender, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	llmCfg := llm.NewConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		llmCfg.Endpoint = cfg.Endpoint
	}
	if cfg.Model != "" {
		llmCfg.Model = cfg.Model
	}
	llmCfg.Temperature = cfg.Temperature
	if cfg.Timeout > 0 {
		llmCfg.Timeout = cfg.Timeout
	}
	client, err := llm.NewClient(llmCfg, log)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newScheduler registers the housekeeping tasks
func newScheduler(cfg *config.Config, checkoutService *checkout.Service, sessions conversation.SessionStore, log *zap.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.NewScheduler(scheduler.Config{
		Workers:       cfg.Scheduler.Workers,
		JobTimeout:    cfg.Scheduler.JobTimeout,
		RetryAttempts: cfg.Scheduler.RetryAttempts,
		RetryDelay:    cfg.Scheduler.RetryDelay,
	}, log)

	err := s.Register(scheduler.Task{
		Name:     "expire_invoices",
		Interval: cfg.Scheduler.Interval,
		Run: func(context.Context) error {
			checkoutService.ExpireInvoices(time.Now(), cfg.Payment.InvoiceTTL)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	// Redis expires its own keys
	if mem, ok := sessions.(*cache.MemorySessionStore); ok {
		err := s.Register(scheduler.Task{
			Name:     "purge_sessions",
			Interval: cfg.Scheduler.Interval,
			Run: func(context.Context) error {
				if n := mem.PurgeIdle(time.Now().Add(-cfg.Session.TTL)); n > 0 {
					log.Info("Purged idle sessions", zap.Int("count", n))
				}
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
