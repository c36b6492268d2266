package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	stockapp "github.com/bizsuite/stockledger/internal/application/stock"
	"github.com/bizsuite/stockledger/internal/infrastructure/audit"
	"github.com/bizsuite/stockledger/internal/infrastructure/config"
	"github.com/bizsuite/stockledger/internal/infrastructure/event"
	"github.com/bizsuite/stockledger/internal/infrastructure/logger"
	"github.com/bizsuite/stockledger/internal/infrastructure/persistence"
	"github.com/bizsuite/stockledger/internal/infrastructure/telemetry"
	"github.com/bizsuite/stockledger/internal/interfaces/http/handler"
	"github.com/bizsuite/stockledger/internal/interfaces/http/middleware"
	"github.com/bizsuite/stockledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting stock ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	gormLogLevel := gormlogger.Warn
	if cfg.Log.Level == "debug" {
		gormLogLevel = gormlogger.Info
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	levelRepo := persistence.NewGormStockLevelRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	recipeRepo := persistence.NewGormRecipeRepository(db.DB)
	physicalRepo := persistence.NewGormPhysicalInventoryRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)
	lowStockHandler := stockapp.NewLowStockHandler(log).
		WithNotifier(stockapp.NewLoggingLowStockNotifier(log))
	eventBus.Subscribe(lowStockHandler)

	// Activity feed for audited operations
	activityLog := audit.NewGormActivityLog(db.DB, log)

	// Initialize application services
	ledgerService := stockapp.NewLedgerService(levelRepo, movementRepo, txScope)
	ledgerService.SetEventPublisher(eventBus)

	transferService := stockapp.NewTransferService(movementRepo, txScope)
	transferService.SetEventPublisher(eventBus)

	adjustmentService := stockapp.NewAdjustmentService(txScope)
	adjustmentService.SetEventPublisher(eventBus)
	adjustmentService.SetAuditRecorder(activityLog)

	compositeService := stockapp.NewCompositeService(recipeRepo, levelRepo)
	reorderService := stockapp.NewReorderService(levelRepo)
	recipeService := stockapp.NewRecipeService(recipeRepo)

	physicalService := stockapp.NewPhysicalInventoryService(physicalRepo, levelRepo, txScope)
	physicalService.SetEventPublisher(eventBus)
	physicalService.SetAuditRecorder(activityLog)

	// Metrics are recorded against the globally registered meter provider; an
	// SDK exporter can be wired in by the deployment without code changes.
	if cfg.Telemetry.Enabled {
		meter := telemetry.Meter(cfg.Telemetry.MeterName)
		stockMetrics, err := telemetry.NewStockMetrics(meter, log)
		if err != nil {
			log.Warn("Failed to initialize stock metrics", zap.Error(err))
		} else {
			eventBus.Subscribe(telemetry.NewMetricsEventHandler(stockMetrics))

			// Refresh point-in-time gauges in the background
			metricsProvider := telemetry.NewGormStockMetricsProvider(db.DB)
			go func() {
				ticker := time.NewTicker(time.Minute)
				defer ticker.Stop()
				for range ticker.C {
					stockMetrics.CollectAll(context.Background(), metricsProvider)
				}
			}()
		}
	}

	// Setup gin engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request ID, recovery, logging, CORS, tenant
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.TenantMiddleware())
	r.Register(handler.NewStockHandler(ledgerService, transferService, adjustmentService, compositeService, reorderService)).
		Register(handler.NewPhysicalInventoryHandler(physicalService)).
		Register(handler.NewRecipeHandler(recipeService))
	r.Setup()

	// Create HTTP server with config
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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		body := gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		}
		if stats, err := db.Stats(); err == nil {
			body["pool"] = stats
		}
		c.JSON(http.StatusOK, body)
	}
}
