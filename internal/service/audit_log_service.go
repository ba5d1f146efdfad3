package service

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
)

// AuditLogService handles audit logging operations
type AuditLogService struct {
	auditRepo *repository.AuditLogRepository
	logger    *zap.Logger
}

// NewAuditLogService creates a new audit log service
func NewAuditLogService(auditRepo *repository.AuditLogRepository, logger *zap.Logger) *AuditLogService {
	return &AuditLogService{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// LogEntry represents the input for creating an audit log entry
type LogEntry struct {
	Action       domain.AuditAction
	EntityType   string
	EntityID     *uuid.UUID
	EntityName   string
	DatacenterID *domain.DatacenterID
	OldValues    interface{}
	NewValues    interface{}
	Metadata     map[string]interface{}
}

// Log creates an audit log entry from context and request
func (s *AuditLogService) Log(ctx context.Context, r *http.Request, entry LogEntry) error {
	auditLog := &domain.AuditLog{
		Action:       entry.Action,
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		EntityName:   entry.EntityName,
		DatacenterID: entry.DatacenterID,
		PerformedAt:  time.Now(),
	}

	// Extract user info from context
	if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
		auditLog.UserID = userCtx.UserID.String()
		auditLog.UserEmail = userCtx.Email
		auditLog.UserName = userCtx.DisplayName
	}

	// Extract request info
	if r != nil {
		auditLog.IPAddress = s.getClientIP(r)
		auditLog.UserAgent = r.UserAgent()
		auditLog.RequestID = r.Header.Get("X-Request-ID")
	}

	// Serialize old values (use "null" for JSONB compatibility when no value)
	if entry.OldValues != nil {
		if oldJSON, err := json.Marshal(entry.OldValues); err == nil {
			auditLog.OldValues = string(oldJSON)
		} else {
			auditLog.OldValues = "null"
		}
	} else {
		auditLog.OldValues = "null"
	}

	// Serialize new values (use "null" for JSONB compatibility when no value)
	if entry.NewValues != nil {
		if newJSON, err := json.Marshal(entry.NewValues); err == nil {
			auditLog.NewValues = string(newJSON)
		} else {
			auditLog.NewValues = "null"
		}
	} else {
		auditLog.NewValues = "null"
	}

	// Calculate changes if both old and new values exist
	if entry.OldValues != nil && entry.NewValues != nil {
		changes := s.calculateChanges(entry.OldValues, entry.NewValues)
		if changesJSON, err := json.Marshal(changes); err == nil {
			auditLog.Changes = string(changesJSON)
		} else {
			auditLog.Changes = "null"
		}
	} else {
		auditLog.Changes = "null"
	}

	// Serialize metadata (use "null" for JSONB compatibility when no value)
	if entry.Metadata != nil {
		if metaJSON, err := json.Marshal(entry.Metadata); err == nil {
			auditLog.Metadata = string(metaJSON)
		} else {
			auditLog.Metadata = "null"
		}
	} else {
		auditLog.Metadata = "null"
	}

	err := s.auditRepo.Create(ctx, auditLog)
	if err != nil {
		s.logger.Error("failed to create audit log",
			zap.String("action", string(entry.Action)),
			zap.String("entity_type", entry.EntityType),
			zap.Error(err))
		return err
	}

	return nil
}

// LogCreate logs a create operation
func (s *AuditLogService) LogCreate(ctx context.Context, r *http.Request, entityType string, entityID uuid.UUID, entityName string, newValues interface{}, datacenterID *domain.DatacenterID) error {
	return s.Log(ctx, r, LogEntry{
		Action:       domain.AuditActionCreate,
		EntityType:   entityType,
		EntityID:     &entityID,
		EntityName:   entityName,
		DatacenterID: datacenterID,
		NewValues:    newValues,
	})
}

// LogUpdate logs an update operation
func (s *AuditLogService) LogUpdate(ctx context.Context, r *http.Request, entityType string, entityID uuid.UUID, entityName string, oldValues, newValues interface{}, datacenterID *domain.DatacenterID) error {
	return s.Log(ctx, r, LogEntry{
		Action:       domain.AuditActionUpdate,
		EntityType:   entityType,
		EntityID:     &entityID,
		EntityName:   entityName,
		DatacenterID: datacenterID,
		OldValues:    oldValues,
		NewValues:    newValues,
	})
}

// LogDelete logs a delete operation
func (s *AuditLogService) LogDelete(ctx context.Context, r *http.Request, entityType string, entityID uuid.UUID, entityName string, oldValues interface{}, datacenterID *domain.DatacenterID) error {
	return s.Log(ctx, r, LogEntry{
		Action:       domain.AuditActionDelete,
		EntityType:   entityType,
		EntityID:     &entityID,
		EntityName:   entityName,
		DatacenterID: datacenterID,
		OldValues:    oldValues,
	})
}

// LogMatch logs a match or unmatch of equipment against a slot
func (s *AuditLogService) LogMatch(ctx context.Context, r *http.Request, action domain.AuditAction, equipmentID, slotID uuid.UUID, datacenterID *domain.DatacenterID) error {
	return s.Log(ctx, r, LogEntry{
		Action:       action,
		EntityType:   "Equipment",
		EntityID:     &equipmentID,
		DatacenterID: datacenterID,
		Metadata: map[string]interface{}{
			"slotId": slotID.String(),
		},
	})
}

// AuditLogQueryParams represents query parameters for listing audit logs
type AuditLogQueryParams struct {
	UserID       string
	Action       *domain.AuditAction
	EntityType   string
	EntityID     *uuid.UUID
	DatacenterID *domain.DatacenterID
	StartTime    *time.Time
	EndTime      *time.Time
	Page         int
	PageSize     int
}

// List retrieves audit logs with filters
func (s *AuditLogService) List(ctx context.Context, params AuditLogQueryParams) ([]domain.AuditLog, int64, error) {
	filter := &repository.AuditLogFilter{
		UserID:       params.UserID,
		Action:       params.Action,
		EntityType:   params.EntityType,
		EntityID:     params.EntityID,
		DatacenterID: params.DatacenterID,
		StartTime:    params.StartTime,
		EndTime:      params.EndTime,
	}

	return s.auditRepo.List(ctx, filter, params.Page, params.PageSize)
}

// GetByID retrieves a specific audit log entry
func (s *AuditLogService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditLog, error) {
	return s.auditRepo.GetByID(ctx, id)
}

// GetByEntity retrieves audit logs for a specific entity
func (s *AuditLogService) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]domain.AuditLog, error) {
	return s.auditRepo.ListByEntity(ctx, entityType, entityID, limit)
}

// CleanupOldLogs removes logs older than the specified retention period
func (s *AuditLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	before := time.Now().AddDate(0, 0, -retentionDays)
	count, err := s.auditRepo.DeleteOlderThan(ctx, before)
	if err != nil {
		s.logger.Error("failed to cleanup old audit logs",
			zap.Int("retention_days", retentionDays),
			zap.Error(err))
		return 0, err
	}

	if count > 0 {
		s.logger.Info("cleaned up old audit logs",
			zap.Int64("deleted_count", count),
			zap.Int("retention_days", retentionDays))
	}

	return count, nil
}

// calculateChanges determines what changed between old and new values
func (s *AuditLogService) calculateChanges(oldValues, newValues interface{}) map[string]interface{} {
	changes := make(map[string]interface{})

	oldMap := s.toMap(oldValues)
	newMap := s.toMap(newValues)

	// Find modified and new fields
	for key, newVal := range newMap {
		if oldVal, exists := oldMap[key]; exists {
			if !reflect.DeepEqual(oldVal, newVal) {
				changes[key] = map[string]interface{}{
					"old": oldVal,
					"new": newVal,
				}
			}
		} else {
			changes[key] = map[string]interface{}{
				"old": nil,
				"new": newVal,
			}
		}
	}

	// Find deleted fields
	for key, oldVal := range oldMap {
		if _, exists := newMap[key]; !exists {
			changes[key] = map[string]interface{}{
				"old": oldVal,
				"new": nil,
			}
		}
	}

	return changes
}

// toMap converts an interface to a map for comparison
func (s *AuditLogService) toMap(v interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	if v == nil {
		return result
	}

	// If already a map, return it
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}

	// Try to marshal and unmarshal to get a map
	data, err := json.Marshal(v)
	if err != nil {
		return result
	}

	_ = json.Unmarshal(data, &result)
	return result
}

// getClientIP extracts the client IP from the request
func (s *AuditLogService) getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (remove port)
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
