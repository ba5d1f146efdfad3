package handler

import (
	"net/http"

	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/service"
	"go.uber.org/zap"
)

// AuthUserResponse is the shape returned by /auth/me
type AuthUserResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	DatacenterID string   `json:"datacenterId,omitempty"`
	Datacenter   string   `json:"datacenter,omitempty"`
	Initials     string   `json:"initials"`
	IsAdmin      bool     `json:"isAdmin"`
	IsSiteLead   bool     `json:"isSiteLead"`
}

// PermissionsResponse lists the caller's effective permissions
type PermissionsResponse struct {
	Permissions []domain.PermissionType `json:"permissions"`
}

type AuthHandler struct {
	userService *service.UserService
	logger      *zap.Logger
}

func NewAuthHandler(userService *service.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// getDatacenterDisplayName returns the display name for a datacenter ID
func getDatacenterDisplayName(datacenterID domain.DatacenterID) string {
	names := map[domain.DatacenterID]string{
		domain.DatacenterAll: "All datacenters",
		domain.DatacenterMAD: "Madrid 01",
		domain.DatacenterBCN: "Barcelona 01",
		domain.DatacenterPAR: "Paris 02",
		domain.DatacenterFRA: "Frankfurt 03",
		domain.DatacenterAMS: "Amsterdam 01",
	}
	if name, ok := names[datacenterID]; ok {
		return name
	}
	return string(datacenterID)
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the current authenticated user with roles and datacenter info, syncing the profile on each call
// @Tags Auth
// @Produce json
// @Success 200 {object} handler.AuthUserResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "unauthorized",
		})
		return
	}

	if _, err := h.userService.SyncFromLogin(r.Context(), userCtx); err != nil {
		h.logger.Warn("failed to sync user profile", zap.Error(err))
	}

	resp := AuthUserResponse{
		ID:         userCtx.UserID.String(),
		Name:       userCtx.DisplayName,
		Email:      userCtx.Email,
		Roles:      userCtx.RolesAsStrings(),
		Initials:   userCtx.GetDisplayNameInitials(),
		IsAdmin:    userCtx.IsAdmin(),
		IsSiteLead: userCtx.IsSiteLead(),
	}
	if userCtx.DatacenterID != "" {
		resp.DatacenterID = string(userCtx.DatacenterID)
		resp.Datacenter = getDatacenterDisplayName(userCtx.DatacenterID)
	}

	respondJSON(w, http.StatusOK, resp)
}

// Permissions godoc
// @Summary Get current user's permissions
// @Description Returns the full list of effective permissions for the current authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} handler.PermissionsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/permissions [get]
func (h *AuthHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "unauthorized",
		})
		return
	}

	effective := make([]domain.PermissionType, 0)
	for _, permission := range domain.AllPermissions() {
		if userCtx.HasPermission(permission) {
			effective = append(effective, permission)
		}
	}

	respondJSON(w, http.StatusOK, PermissionsResponse{Permissions: effective})
}
