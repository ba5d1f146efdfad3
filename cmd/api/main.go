package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rackwise/receiving-api/docs"
	"github.com/rackwise/receiving-api/internal/ai"
	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/config"
	"github.com/rackwise/receiving-api/internal/database"
	"github.com/rackwise/receiving-api/internal/http/handler"
	"github.com/rackwise/receiving-api/internal/http/middleware"
	"github.com/rackwise/receiving-api/internal/http/router"
	"github.com/rackwise/receiving-api/internal/jobs"
	"github.com/rackwise/receiving-api/internal/logger"
	"github.com/rackwise/receiving-api/internal/matching"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/rackwise/receiving-api/internal/service"
	"github.com/rackwise/receiving-api/internal/storage"
	"github.com/rackwise/receiving-api/internal/warehouse"
	"go.uber.org/zap"
)

// @title Rackwise Receiving API
// @version 1.0
// @description Datacenter hardware receiving API: projects, orders, delivery notes, equipment matching and verification
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@rackwise.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

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
		docs.SwaggerInfo.Host = "receiving-staging.rackwise.io"
	case "production":
		docs.SwaggerInfo.Host = "receiving.rackwise.io"
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

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize the part catalog connection (optional, read-only).
	// The app continues without it if not configured.
	var catalog *warehouse.Client
	if cfg.Warehouse.Enabled {
		catalog, err = warehouse.NewClient(&cfg.Warehouse, log)
		if err != nil {
			log.Warn("Part catalog connection failed, continuing without it",
				zap.Error(err),
			)
		} else if catalog != nil {
			log.Info("Part catalog connected successfully",
				zap.Int("max_open_conns", cfg.Warehouse.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.Warehouse.QueryTimeout),
			)
		}
	} else {
		log.Info("Part catalog not configured, skipping",
			zap.Bool("enabled", cfg.Warehouse.Enabled),
		)
	}

	// AI matcher and extractor (optional). Without an API key the
	// AI-assisted endpoints report themselves unavailable and manual
	// matching keeps working.
	var semanticMatcher matching.Matcher
	var extractor service.EquipmentExtractor
	if cfg.OpenAI.Enabled && cfg.OpenAI.APIKey != "" {
		aiClient := ai.NewMatcher(cfg.OpenAI, log)
		semanticMatcher = aiClient
		extractor = aiClient
		log.Info("AI matcher initialized", zap.String("model", cfg.OpenAI.Model))
	} else {
		log.Info("AI matcher not configured, AI-assisted endpoints disabled")
	}

	// Initialize repositories
	datacenterRepo := repository.NewDatacenterRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	slotRepo := repository.NewEstimatedEquipmentRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	noteRepo := repository.NewDeliveryNoteRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	incidentRepo := repository.NewIncidentRepository(db)
	fileRepo := repository.NewFileRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditLogRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	datacenterService := service.NewDatacenterService(datacenterRepo, log)
	activityService := service.NewActivityService(activityRepo, log)
	auditLogService := service.NewAuditLogService(auditLogRepo, log)
	numberSequenceService := service.NewNumberSequenceService(numberSequenceRepo, log)
	projectService := service.NewProjectService(projectRepo, slotRepo, equipmentRepo, activityService, numberSequenceService, log, db)
	orderService := service.NewOrderService(orderRepo, projectRepo, equipmentRepo, slotRepo, projectService, activityService, log, db)
	deliveryNoteService := service.NewDeliveryNoteService(noteRepo, orderRepo, equipmentRepo, slotRepo, fileRepo, projectService, activityService, extractor, catalog, log, db)
	equipmentService := service.NewEquipmentService(equipmentRepo, slotRepo, noteRepo, projectService, activityService, matching.NewEngine(log), semanticMatcher, log, db)
	incidentService := service.NewIncidentService(incidentRepo, equipmentRepo, activityService, log)
	fileService := service.NewFileService(fileRepo, fileStorage, log)
	userService := service.NewUserService(userRepo, auth.NewGraphClient(&cfg.AzureAd), log)
	dashboardService := service.NewDashboardService(projectRepo, incidentRepo, equipmentRepo, activityRepo, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	datacenterFilterMiddleware := middleware.NewDatacenterFilterMiddleware(log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	auditMiddleware := middleware.NewAuditMiddleware(auditLogService, nil, log)

	// Initialize handlers
	datacenterHandler := handler.NewDatacenterHandler(datacenterService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	orderHandler := handler.NewOrderHandler(orderService, log)
	deliveryNoteHandler := handler.NewDeliveryNoteHandler(deliveryNoteService, log)
	equipmentHandler := handler.NewEquipmentHandler(equipmentService, log)
	incidentHandler := handler.NewIncidentHandler(incidentService, log)
	fileHandler := handler.NewFileHandler(fileService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)
	authHandler := handler.NewAuthHandler(userService, log)
	userHandler := handler.NewUserHandler(userService, log)
	auditHandler := handler.NewAuditHandler(auditLogService, log)
	activityHandler := handler.NewActivityHandler(activityService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		datacenterFilterMiddleware,
		rateLimiter,
		auditMiddleware,
		datacenterHandler,
		projectHandler,
		orderHandler,
		deliveryNoteHandler,
		equipmentHandler,
		incidentHandler,
		fileHandler,
		dashboardHandler,
		authHandler,
		userHandler,
		auditHandler,
		activityHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		if err := jobs.RegisterProgressReconcileJob(
			scheduler,
			projectRepo,
			projectService,
			auditLogService,
			cfg.Jobs.AuditRetentionDays,
			log,
			cfg.Jobs.ProgressReconcileCron,
			cfg.Jobs.TimeoutDuration(),
			cfg.Jobs.RunStartupReconcile,
		); err != nil {
			log.Error("Failed to register progress reconcile job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with progress reconcile job",
				zap.String("cron_expr", cfg.Jobs.ProgressReconcileCron),
				zap.Duration("timeout", cfg.Jobs.TimeoutDuration()),
			)
		}
	} else {
		log.Info("Background jobs disabled")
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

		// Close part catalog connection if initialized
		if catalog != nil {
			if err := catalog.Close(); err != nil {
				log.Warn("Error closing part catalog connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
