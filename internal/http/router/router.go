package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/config"
	"github.com/rackwise/receiving-api/internal/database"
	"github.com/rackwise/receiving-api/internal/http/handler"
	"github.com/rackwise/receiving-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/rackwise/receiving-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                        *config.Config
	logger                     *zap.Logger
	db                         *gorm.DB
	authMiddleware             *auth.Middleware
	datacenterFilterMiddleware *middleware.DatacenterFilterMiddleware
	rateLimiter                *middleware.RateLimiter
	auditMiddleware            *middleware.AuditMiddleware
	datacenterHandler          *handler.DatacenterHandler
	projectHandler             *handler.ProjectHandler
	orderHandler               *handler.OrderHandler
	deliveryNoteHandler        *handler.DeliveryNoteHandler
	equipmentHandler           *handler.EquipmentHandler
	incidentHandler            *handler.IncidentHandler
	fileHandler                *handler.FileHandler
	dashboardHandler           *handler.DashboardHandler
	authHandler                *handler.AuthHandler
	userHandler                *handler.UserHandler
	auditHandler               *handler.AuditHandler
	activityHandler            *handler.ActivityHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	datacenterFilterMiddleware *middleware.DatacenterFilterMiddleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	datacenterHandler *handler.DatacenterHandler,
	projectHandler *handler.ProjectHandler,
	orderHandler *handler.OrderHandler,
	deliveryNoteHandler *handler.DeliveryNoteHandler,
	equipmentHandler *handler.EquipmentHandler,
	incidentHandler *handler.IncidentHandler,
	fileHandler *handler.FileHandler,
	dashboardHandler *handler.DashboardHandler,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	auditHandler *handler.AuditHandler,
	activityHandler *handler.ActivityHandler,
) *Router {
	return &Router{
		cfg:                        cfg,
		logger:                     logger,
		db:                         db,
		authMiddleware:             authMiddleware,
		datacenterFilterMiddleware: datacenterFilterMiddleware,
		rateLimiter:                rateLimiter,
		auditMiddleware:            auditMiddleware,
		datacenterHandler:          datacenterHandler,
		projectHandler:             projectHandler,
		orderHandler:               orderHandler,
		deliveryNoteHandler:        deliveryNoteHandler,
		equipmentHandler:           equipmentHandler,
		incidentHandler:            incidentHandler,
		fileHandler:                fileHandler,
		dashboardHandler:           dashboardHandler,
		authHandler:                authHandler,
		userHandler:                userHandler,
		auditHandler:               auditHandler,
		activityHandler:            activityHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Get("/datacenters", rt.datacenterHandler.List)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.datacenterFilterMiddleware.Filter)
			r.Use(rt.auditMiddleware.Audit) // Audit all modifications

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.Get("/auth/permissions", rt.authHandler.Permissions)

			// Users
			r.Route("/users", func(r chi.Router) {
				r.Get("/", rt.userHandler.List)
				r.Get("/{id}", rt.userHandler.GetByID)
			})

			// Audit logs (requires system:audit_logs permission)
			r.Route("/audit-logs", func(r chi.Router) {
				r.Get("/", rt.auditHandler.List)
				r.Get("/{entityType}/{entityId}", rt.auditHandler.GetByEntity)
			})

			// Projects and their expected equipment slots
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Post("/", rt.projectHandler.Create)
				r.Get("/search", rt.projectHandler.Search)
				r.Get("/{id}", rt.projectHandler.GetByID)
				r.Put("/{id}", rt.projectHandler.Update)
				r.Delete("/{id}", rt.projectHandler.Delete)
				r.Get("/{id}/progress", rt.projectHandler.GetProgress)
				r.Get("/{id}/activities", rt.activityHandler.ListByProject)

				// Expected equipment slots
				r.Get("/{id}/slots", rt.projectHandler.ListSlots)
				r.Post("/{id}/slots", rt.projectHandler.AddSlot)

				// Orders under a project
				r.Get("/{id}/orders", rt.orderHandler.ListByProject)
				r.Post("/{id}/orders", rt.orderHandler.Create)

				// Bulk matching
				r.Post("/{id}/match-all", rt.equipmentHandler.MatchAll)
				r.Post("/{id}/match-auto", rt.equipmentHandler.AutomaticMatch)
			})

			// Slots addressed directly
			r.Route("/slots", func(r chi.Router) {
				r.Put("/{slotId}", rt.projectHandler.UpdateSlot)
				r.Delete("/{slotId}", rt.projectHandler.DeleteSlot)
			})

			// Orders
			r.Route("/orders", func(r chi.Router) {
				r.Get("/{id}", rt.orderHandler.GetByID)
				r.Put("/{id}", rt.orderHandler.Update)
				r.Delete("/{id}", rt.orderHandler.Delete)
				r.Get("/{id}/delivery-notes", rt.deliveryNoteHandler.ListByOrder)
				r.Post("/{id}/delivery-notes", rt.deliveryNoteHandler.Create)
			})

			// Delivery notes
			r.Route("/delivery-notes", func(r chi.Router) {
				r.Get("/{id}", rt.deliveryNoteHandler.GetByID)
				r.Put("/{id}", rt.deliveryNoteHandler.Update)
				r.Delete("/{id}", rt.deliveryNoteHandler.Delete)
				r.Post("/{id}/extract", rt.deliveryNoteHandler.ExtractEquipment)
				r.Get("/{id}/equipment", rt.equipmentHandler.ListByNote)
				r.Post("/{id}/equipment", rt.equipmentHandler.Create)
			})

			// Equipment
			r.Route("/equipment", func(r chi.Router) {
				r.Get("/{id}", rt.equipmentHandler.GetByID)
				r.Put("/{id}", rt.equipmentHandler.Update)
				r.Delete("/{id}", rt.equipmentHandler.Delete)
				r.Post("/{id}/verify", rt.equipmentHandler.Verify)
				r.Post("/{id}/match", rt.equipmentHandler.Match)
				r.Post("/{id}/unmatch", rt.equipmentHandler.Unmatch)
				r.Get("/{id}/files", rt.fileHandler.ListByEquipment)
			})

			// Incidents
			r.Route("/incidents", func(r chi.Router) {
				r.Get("/", rt.incidentHandler.List)
				r.Post("/", rt.incidentHandler.Create)
				r.Get("/{id}", rt.incidentHandler.GetByID)
				r.Delete("/{id}", rt.incidentHandler.Delete)
				r.Post("/{id}/comments", rt.incidentHandler.AddComment)
				r.Post("/{id}/resolve", rt.incidentHandler.Resolve)
			})

			// Files
			r.Route("/files", func(r chi.Router) {
				r.Post("/", rt.fileHandler.Upload)
				r.Get("/{id}", rt.fileHandler.Download)
				r.Delete("/{id}", rt.fileHandler.Delete)
			})

			// Dashboard
			r.Get("/dashboard/metrics", rt.dashboardHandler.GetMetrics)

			// Activities
			r.Route("/activities", func(r chi.Router) {
				r.Get("/", rt.activityHandler.ListRecent)
				r.Get("/{targetType}/{targetId}", rt.activityHandler.ListByTarget)
			})
		})
	})

	return r
}
