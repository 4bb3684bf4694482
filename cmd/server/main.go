package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appbilling "github.com/rdietscht/ACME-NextJS-Tutorial/internal/application/billing"
	appidentity "github.com/rdietscht/ACME-NextJS-Tutorial/internal/application/identity"
	apppartner "github.com/rdietscht/ACME-NextJS-Tutorial/internal/application/partner"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/auth"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/cache"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/config"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/logger"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/persistence"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/telemetry"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/interfaces/http/handler"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/interfaces/http/middleware"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Fields:     map[string]string{"service": cfg.Telemetry.ServiceName, "env": cfg.App.Env},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting invoice dashboard",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	metricsCfg := telemetry.MetricsConfig{Config: telemetryCfg, ExportInterval: cfg.Telemetry.MetricsInterval}
	metricsCfg.Enabled = cfg.Telemetry.MetricsEnabled
	mp, err := telemetry.NewMeterProvider(context.Background(), metricsCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	gormLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLogger := logger.NewGormLogger(log, gormLevel)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database connection", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:  tp.IsEnabled(),
		DBSystem: "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	if mp.IsEnabled() {
		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, mp.Meter("db.client"), log)
		if err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
		defer dbMetrics.Stop()
	}
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.DBName),
	)

	views, err := cache.NewViewCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize view cache", zap.Error(err))
	}

	healthChecks := map[string]handler.Pinger{"database": db}
	subscriberCtx, stopSubscriber := context.WithCancel(context.Background())
	defer stopSubscriber()
	if redisViews, ok := views.(*cache.RedisViewCache); ok {
		healthChecks["cache"] = redisViews
		subscriber := redisViews.NewSubscriber()
		go func() {
			if err := subscriber.Run(subscriberCtx, nil); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("View invalidation subscriber stopped", zap.Error(err))
			}
		}()
		defer func() {
			_ = subscriber.Close()
			_ = redisViews.Close()
		}()
	}

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	invoiceService := appbilling.NewInvoiceService(invoiceRepo, views, log)
	customerService := apppartner.NewCustomerService(customerRepo, log)
	authenticator, err := appidentity.NewAuthenticator(userRepo, cfg.Auth.BcryptCost, log)
	if err != nil {
		log.Fatal("Failed to initialize authenticator", zap.Error(err))
	}
	sessions := auth.NewSessionService(cfg.Session)

	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	customerHandler := handler.NewCustomerHandler(customerService)
	authHandler := handler.NewAuthHandler(authenticator, sessions)
	healthHandler := handler.NewHealthHandler(healthChecks)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log, logger.WithQuietPaths("/health")))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tp.IsEnabled(),
	}))
	engine.Use(middleware.SpanAttributes())
	httpMetrics, err := middleware.HTTPMetrics(mp.Meter("http.server"))
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}
	engine.Use(httpMetrics)

	engine.GET("/health", healthHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/login", authHandler.Login)

	dashboardRoutes := router.NewDomainGroup("dashboard", "/dashboard")
	dashboardRoutes.Use(middleware.SessionAuth(sessions, log))
	dashboardRoutes.Group("invoices", "/invoices").
		GET("", invoiceHandler.List).
		GET("/:id", invoiceHandler.Get).
		POST("", invoiceHandler.Create).
		PUT("/:id", invoiceHandler.Update).
		POST("/:id", invoiceHandler.Update).
		DELETE("/:id", invoiceHandler.Delete)
	dashboardRoutes.Group("customers", "/customers").
		GET("", customerHandler.List)

	for _, route := range r.Register(authRoutes, dashboardRoutes).Setup() {
		log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown tracer provider", zap.Error(err))
	}
	if err := mp.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown meter provider", zap.Error(err))
	}

	log.Info("Server exited")
}
