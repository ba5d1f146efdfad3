package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
)

// ActivityService records and reads the per-entity event log. Writes are
// best-effort: a failed activity insert never fails the operation that
// triggered it.
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(activityRepo *repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// Record logs an event against a target entity
func (s *ActivityService) Record(ctx context.Context, targetType domain.ActivityTargetType, targetID uuid.UUID, title, body string, datacenterID *domain.DatacenterID) {
	activity := &domain.Activity{
		TargetType:   targetType,
		TargetID:     targetID,
		Title:        title,
		Body:         body,
		OccurredAt:   time.Now(),
		DatacenterID: datacenterID,
	}

	if userCtx, ok := auth.FromContext(ctx); ok && userCtx != nil {
		activity.CreatorID = userCtx.UserID.String()
		activity.CreatorName = userCtx.DisplayName
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("target_type", string(targetType)),
			zap.String("target_id", targetID.String()),
			zap.String("title", title),
			zap.Error(err))
	}
}

// GetByTarget returns the latest activities for an entity
func (s *ActivityService) GetByTarget(ctx context.Context, targetType domain.ActivityTargetType, targetID uuid.UUID, limit int) ([]domain.ActivityResponse, error) {
	if limit <= 0 || limit > repository.MaxPageSize {
		limit = 50
	}

	activities, err := s.activityRepo.ListByTarget(ctx, targetType, targetID, limit)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ActivityResponse, len(activities))
	for i, a := range activities {
		result[i] = mapper.ToActivityResponse(&a)
	}
	return result, nil
}

// GetRecent returns the latest activities across the caller's datacenters
func (s *ActivityService) GetRecent(ctx context.Context, limit int) ([]domain.ActivityResponse, error) {
	if limit <= 0 || limit > repository.MaxPageSize {
		limit = 50
	}

	activities, err := s.activityRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ActivityResponse, len(activities))
	for i, a := range activities {
		result[i] = mapper.ToActivityResponse(&a)
	}
	return result, nil
}
