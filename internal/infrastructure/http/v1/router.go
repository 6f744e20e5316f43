// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/documents/checkreceipt"
	"stockbook/internal/domain/documents/importreceipt"
	"stockbook/internal/domain/documents/returnreceipt"
	"stockbook/internal/domain/inventory"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/product"
	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/http/v1/handlers"
	"stockbook/internal/infrastructure/http/v1/middleware"
	numeratorsvc "stockbook/internal/infrastructure/numerator"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/infrastructure/storage/postgres/document_repo"
	"stockbook/internal/infrastructure/storage/postgres/ledger_repo"
	"stockbook/internal/infrastructure/storage/postgres/product_repo"
	"stockbook/internal/infrastructure/storage/postgres/report_repo"
	"stockbook/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool.
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator for bearer token validation
	TokenValidator middleware.TokenValidator

	// Version reported by /health/info
	Version string

	// Engine tunes the reconciliation engine
	Engine inventory.Config
}

// NewRouter creates and configures the Gin router: repositories, services,
// the reconciliation engine, and every route group.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool.Unwrap(), cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Shared infrastructure
	txManager := postgres.NewTxManager(cfg.Pool)
	activityStore, err := postgres.NewActivityStore(txManager)
	if err != nil {
		// zstd codec construction only fails on bad options, which are
		// hardcoded; treat it as a programming error.
		panic(err)
	}

	// Number generation runs on the pool, outside business transactions:
	// a rolled-back document must not hold a numerator lock.
	num := numeratorsvc.New(cfg.Pool)

	// Repositories
	productRepo := product_repo.NewProductRepo(txManager)
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	importRepo := document_repo.NewImportReceiptRepo(txManager)
	returnRepo := document_repo.NewReturnReceiptRepo(txManager)
	checkRepo := document_repo.NewCheckReceiptRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)

	// Services. Document services record per-field activity on updates.
	recorder := postgres.DomainActivityRecorder{Store: activityStore}
	productService := product.NewService(productRepo, ledgerRepo, txManager)
	ledgerService := ledger.NewService(ledgerRepo)
	importService := importreceipt.NewService(importRepo, ledgerRepo, num, txManager, recorder)
	returnService := returnreceipt.NewService(returnRepo, ledgerRepo, num, txManager, recorder)
	checkService := checkreceipt.NewService(checkRepo, ledgerRepo, num, txManager, recorder)
	reportService := reports.NewService(reportRepo)

	engine := inventory.NewEngine(
		productRepo,
		ledgerRepo,
		importRepo,
		returnRepo,
		checkRepo,
		txManager,
		recorder,
		cfg.Engine,
	)

	baseHandler := handlers.NewBaseHandler()

	// API v1 (all routes require a valid token)
	apiV1 := router.Group("/api/v1")
	apiV1.Use(middleware.Auth(cfg.TokenValidator))
	{
		productHandler := handlers.NewProductHandler(baseHandler, productService)
		products := apiV1.Group("/products")
		{
			products.GET("", productHandler.List)
			products.POST("", productHandler.Create)
			products.GET("/by-sku/:sku", productHandler.GetBySKU)
			products.GET("/:id", productHandler.Get)
			products.PUT("/:id", productHandler.Update)
			products.DELETE("/:id", productHandler.Delete)
		}

		receipts := apiV1.Group("/receipts")
		{
			RegisterReceiptRoutes(receipts.Group("/imports"),
				handlers.NewImportReceiptHandler(baseHandler, importService, engine))
			RegisterReceiptRoutes(receipts.Group("/returns"),
				handlers.NewReturnReceiptHandler(baseHandler, returnService, engine))
			RegisterReceiptRoutes(receipts.Group("/checks"),
				handlers.NewCheckReceiptHandler(baseHandler, checkService, engine))
		}

		inventoryHandler := handlers.NewInventoryHandler(baseHandler, engine, ledgerService)
		inv := apiV1.Group("/inventory")
		{
			inv.POST("/adjust", inventoryHandler.Adjust)
			inv.GET("/ledger/:id", inventoryHandler.Ledger)
			inv.GET("/summary", inventoryHandler.Summary)
		}

		reportHandler := handlers.NewReportHandler(baseHandler, reportService)
		reportsGroup := apiV1.Group("/reports")
		{
			reportsGroup.GET("/inventory", reportHandler.Inventory)
			reportsGroup.GET("/value", reportHandler.Value)
			reportsGroup.GET("/changes", reportHandler.Changes)
			reportsGroup.GET("/turnover", reportHandler.Turnover)
			reportsGroup.GET("/dead-stock", reportHandler.DeadStock)
			reportsGroup.GET("/out-of-stock-forecast", reportHandler.Forecast)
			reportsGroup.GET("/top-stock", reportHandler.TopStock)
		}

		activityHandler := handlers.NewActivityHandler(baseHandler, activityStore)
		apiV1.GET("/activity/:type/:id", activityHandler.History)
	}

	return router
}
