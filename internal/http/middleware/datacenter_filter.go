package middleware

import (
	"net/http"

	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/domain"
	"go.uber.org/zap"
)

// DatacenterFilterMiddleware handles per-site data isolation
// It extracts the user's datacenter context and optionally allows
// global users to filter by a specific datacenter
type DatacenterFilterMiddleware struct {
	logger *zap.Logger
}

// NewDatacenterFilterMiddleware creates a new datacenter filter middleware
func NewDatacenterFilterMiddleware(logger *zap.Logger) *DatacenterFilterMiddleware {
	return &DatacenterFilterMiddleware{
		logger: logger,
	}
}

// Filter is the middleware handler that sets the effective datacenter filter in context
// - Global users and admins can optionally filter by ?datacenter_id=<site>
// - Site users are always filtered to their own datacenter
// - If no filter is specified, global users see all data, site users see their site's data
func (m *DatacenterFilterMiddleware) Filter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := auth.FromContext(r.Context())
		if !ok {
			// No user context - let request proceed without datacenter filter
			// Authentication middleware should have already rejected unauthenticated requests
			next.ServeHTTP(w, r)
			return
		}

		var filter *auth.DatacenterFilter

		// Check for datacenter_id query parameter
		requestedDatacenterID := r.URL.Query().Get("datacenter_id")

		if requestedDatacenterID != "" {
			// User is requesting a specific datacenter
			datacenterID := domain.DatacenterID(requestedDatacenterID)

			// Validate the datacenter ID
			if datacenterID != domain.DatacenterAll && !domain.IsValidDatacenterID(requestedDatacenterID) {
				http.Error(w, "Invalid datacenter_id parameter", http.StatusBadRequest)
				return
			}

			// Check if user can access the requested datacenter
			if !userCtx.CanAccessDatacenter(datacenterID) {
				m.logger.Warn("user attempted to access unauthorized datacenter",
					zap.String("user_id", userCtx.UserID.String()),
					zap.String("user_datacenter", string(userCtx.DatacenterID)),
					zap.String("requested_datacenter", requestedDatacenterID),
				)
				http.Error(w, "Access denied: you cannot access data for this datacenter", http.StatusForbidden)
				return
			}

			if datacenterID == domain.DatacenterAll {
				filter = &auth.DatacenterFilter{
					DatacenterID:          nil,
					RequestedByGlobalUser: userCtx.IsGlobalUser(),
				}
			} else {
				filter = &auth.DatacenterFilter{
					DatacenterID:          &datacenterID,
					RequestedByGlobalUser: userCtx.IsGlobalUser(),
				}
			}
		} else {
			// No specific datacenter requested via query param
			// Use the user's DatacenterID (which may have been set via X-Datacenter-ID header)
			if userCtx.DatacenterID != "" && userCtx.DatacenterID != domain.DatacenterAll {
				datacenterID := userCtx.DatacenterID
				filter = &auth.DatacenterFilter{
					DatacenterID:          &datacenterID,
					RequestedByGlobalUser: false,
				}
			} else {
				// No specific datacenter - show all data
				filter = &auth.DatacenterFilter{
					DatacenterID:          nil,
					RequestedByGlobalUser: false,
				}
			}
		}

		// Add datacenter filter to context
		ctx := auth.WithDatacenterFilter(r.Context(), filter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
