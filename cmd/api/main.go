package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/norfield-as/fieldops-api/docs"
	"github.com/norfield-as/fieldops-api/internal/auth"
	"github.com/norfield-as/fieldops-api/internal/config"
	"github.com/norfield-as/fieldops-api/internal/database"
	"github.com/norfield-as/fieldops-api/internal/http/handler"
	"github.com/norfield-as/fieldops-api/internal/http/middleware"
	"github.com/norfield-as/fieldops-api/internal/http/router"
	"github.com/norfield-as/fieldops-api/internal/jobs"
	"github.com/norfield-as/fieldops-api/internal/logger"
	"github.com/norfield-as/fieldops-api/internal/repository"
	"github.com/norfield-as/fieldops-api/internal/service"
	"go.uber.org/zap"
)

// @title Norfield FieldOps API
// @version 1.0
// @description Field service API for invoices, quotes, visits and product stock management
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@norfield.no

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token
// @Security BearerAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "fieldops-staging.norfield.no"
	case "production":
		docs.SwaggerInfo.Host = "api.norfield.no"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize repositories
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	lineItemRepo := repository.NewLineItemRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, &cfg.Notifications, log)
	stockService := service.NewStockService(productRepo, notificationService, log)
	lifecycle := service.NewDocumentLifecycle(stockService, log)

	customerService := service.NewCustomerService(customerRepo, log)
	productService := service.NewProductService(productRepo, stockService, log)
	invoiceService := service.NewInvoiceService(db, invoiceRepo, lineItemRepo, customerRepo, numberSequenceService, lifecycle, log)
	quoteService := service.NewQuoteService(db, quoteRepo, lineItemRepo, customerRepo, numberSequenceService, lifecycle, log)
	visitService := service.NewVisitService(db, visitRepo, lineItemRepo, customerRepo, numberSequenceService, lifecycle, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	customerHandler := handler.NewCustomerHandler(customerService, log)
	productHandler := handler.NewProductHandler(productService, log)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, log)
	quoteHandler := handler.NewQuoteHandler(quoteService, log)
	visitHandler := handler.NewVisitHandler(visitService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		customerHandler,
		productHandler,
		invoiceHandler,
		quoteHandler,
		visitHandler,
		notificationHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.OverdueSweepEnabled {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterOverdueSweepJob(
			scheduler,
			invoiceRepo,
			log,
			cfg.Jobs.OverdueSweepCron,
			jobs.DefaultSweepTimeout,
		); err != nil {
			log.Error("Failed to register overdue sweep job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with overdue sweep job",
				zap.String("cron_expr", cfg.Jobs.OverdueSweepCron),
			)
		}
	} else {
		log.Info("Overdue sweep disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
