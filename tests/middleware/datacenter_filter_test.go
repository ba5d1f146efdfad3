package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDatacenterFilterMiddleware_GlobalUser_NoFilter(t *testing.T) {
	logger := zap.NewNop()
	m := middleware.NewDatacenterFilterMiddleware(logger)

	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterAll,
		Roles:        []domain.UserRoleType{domain.RoleViewer},
	}

	var capturedFilter *auth.DatacenterFilter
	handler := m.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedFilter, _ = auth.DatacenterFilterFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/projects", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, capturedFilter)
	assert.Nil(t, capturedFilter.DatacenterID, "global user without filter should have nil DatacenterID")
}

func TestDatacenterFilterMiddleware_GlobalUser_WithFilter(t *testing.T) {
	logger := zap.NewNop()
	m := middleware.NewDatacenterFilterMiddleware(logger)

	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterAll,
		Roles:        []domain.UserRoleType{domain.RoleViewer},
	}

	var capturedFilter *auth.DatacenterFilter
	handler := m.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedFilter, _ = auth.DatacenterFilterFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/projects?datacenter_id=mad01", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, capturedFilter)
	assert.NotNil(t, capturedFilter.DatacenterID)
	assert.Equal(t, domain.DatacenterMAD, *capturedFilter.DatacenterID)
	assert.True(t, capturedFilter.RequestedByGlobalUser)
}

func TestDatacenterFilterMiddleware_SiteUser_AutoFilter(t *testing.T) {
	logger := zap.NewNop()
	m := middleware.NewDatacenterFilterMiddleware(logger)

	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterBCN,
		Roles:        []domain.UserRoleType{domain.RoleTechnician},
	}

	var capturedFilter *auth.DatacenterFilter
	handler := m.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedFilter, _ = auth.DatacenterFilterFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/projects", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, capturedFilter)
	assert.NotNil(t, capturedFilter.DatacenterID)
	assert.Equal(t, domain.DatacenterBCN, *capturedFilter.DatacenterID)
	assert.False(t, capturedFilter.RequestedByGlobalUser)
}

func TestDatacenterFilterMiddleware_SiteUser_DeniedOtherSite(t *testing.T) {
	logger := zap.NewNop()
	m := middleware.NewDatacenterFilterMiddleware(logger)

	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterBCN,
		Roles:        []domain.UserRoleType{domain.RoleTechnician},
	}

	handler := m.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/projects?datacenter_id=fra03", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestDatacenterFilterMiddleware_SiteUser_CanAccessOwnSite(t *testing.T) {
	logger := zap.NewNop()
	m := middleware.NewDatacenterFilterMiddleware(logger)

	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterBCN,
		Roles:        []domain.UserRoleType{domain.RoleTechnician},
	}

	var capturedFilter *auth.DatacenterFilter
	handler := m.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedFilter, _ = auth.DatacenterFilterFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/projects?datacenter_id=bcn01", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, capturedFilter)
	assert.NotNil(t, capturedFilter.DatacenterID)
	assert.Equal(t, domain.DatacenterBCN, *capturedFilter.DatacenterID)
}

func TestDatacenterFilterMiddleware_AdminCanRequestAllSites(t *testing.T) {
	logger := zap.NewNop()
	m := middleware.NewDatacenterFilterMiddleware(logger)

	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterMAD,
		Roles:        []domain.UserRoleType{domain.RoleAdmin},
	}

	var capturedFilter *auth.DatacenterFilter
	handler := m.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedFilter, _ = auth.DatacenterFilterFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/projects?datacenter_id=all", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotNil(t, capturedFilter)
	assert.Nil(t, capturedFilter.DatacenterID)
	assert.True(t, capturedFilter.RequestedByGlobalUser)
}

func TestDatacenterFilterMiddleware_InvalidDatacenterID(t *testing.T) {
	logger := zap.NewNop()
	m := middleware.NewDatacenterFilterMiddleware(logger)

	userCtx := &auth.UserContext{
		UserID:       uuid.New(),
		DatacenterID: domain.DatacenterAll,
		Roles:        []domain.UserRoleType{domain.RoleAdmin},
	}

	handler := m.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/projects?datacenter_id=lhr09", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDatacenterFilterMiddleware_NoUserContext(t *testing.T) {
	logger := zap.NewNop()
	m := middleware.NewDatacenterFilterMiddleware(logger)

	handler := m.Filter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/projects", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
