package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/farmacia/backoffice/internal/application/backoffice"
	"github.com/farmacia/backoffice/internal/domain/bank"
	"github.com/farmacia/backoffice/internal/domain/commission"
	"github.com/farmacia/backoffice/internal/domain/shared"
	"github.com/farmacia/backoffice/internal/domain/till"
	"github.com/farmacia/backoffice/internal/infrastructure/cache"
	"github.com/farmacia/backoffice/internal/infrastructure/config"
	"github.com/farmacia/backoffice/internal/infrastructure/event"
	"github.com/farmacia/backoffice/internal/infrastructure/logger"
	"github.com/farmacia/backoffice/internal/infrastructure/persistence"
	"github.com/farmacia/backoffice/internal/infrastructure/telemetry"
	"github.com/farmacia/backoffice/internal/interfaces/http/handler"
	"github.com/farmacia/backoffice/internal/interfaces/http/middleware"
	"github.com/farmacia/backoffice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting back office",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tp, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	metrics, err := telemetry.NewEngineMetrics(mp.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		log.Fatal("Failed to register engine metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Log.Level)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		// postgres schemas are owned by cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	idem, err := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		_ = idem.Close()
	}()

	accounts := persistence.NewGormBankAccountRepository(db.DB)
	repos := backoffice.Repositories{
		Reconciliations: persistence.NewGormReconciliationRepository(db.DB),
		Expenses:        persistence.NewGormExpenseRepository(db.DB),
		Invoices:        persistence.NewGormInvoiceRepository(db.DB),
		Payments:        persistence.NewGormPaymentRepository(db.DB),
		Profiles:        persistence.NewGormCommissionProfileRepository(db.DB),
		Accounts:        accounts,
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewAuditLogHandler(log))

	svc := backoffice.NewService(
		repos,
		bank.NewLedger(accounts, idem, cfg.Engine.IdempotencyTTL),
		bus,
		metrics,
		log,
		serviceOptions(cfg),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	checks := map[string]handler.Pinger{"database": db.PingContext}
	if p, ok := idem.(interface{ Ping(context.Context) error }); ok {
		checks["redis"] = p.Ping
	}

	router.NewRouter(engine).
		RegisterRoot(handler.NewSystemHandler(cfg.App.Name, version, checks)).
		Register(handler.NewReconciliationHandler(svc)).
		Register(handler.NewReportHandler(svc)).
		Register(handler.NewCommissionHandler(svc)).
		Register(handler.NewBankHandler(svc)).
		Register(handler.NewPayablesHandler(svc)).
		Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing traces", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing metrics", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func serviceOptions(cfg *config.Config) backoffice.Options {
	return backoffice.Options{
		Thresholds: till.Thresholds{
			WarnPct:     decimal.NewFromFloat(cfg.Engine.DiscrepancyWarnPct),
			CriticalPct: decimal.NewFromFloat(cfg.Engine.DiscrepancyCriticalPct),
		},
		CommissionBase: commission.Base(cfg.Engine.CommissionBase),
		Concurrency:    cfg.Engine.DashboardConcurrency,
		Branches:       nameTable[shared.BranchID](cfg.Branches),
		Cashiers:       nameTable[shared.CashierID](cfg.Cashiers),
	}
}

func nameTable[K ~string](names map[string]string) shared.NameTable[K] {
	m := make(map[K]string, len(names))
	for id, name := range names {
		m[K(id)] = name
	}
	return shared.NewNameTable(m)
}
