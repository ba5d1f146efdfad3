package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IncidentService handles the incident lifecycle. An incident starts Pending,
// moves to InReview when its first comment arrives, and is closed by an
// explicit resolve with a mandatory note. Resolved is terminal.
type IncidentService struct {
	incidentRepo    *repository.IncidentRepository
	equipmentRepo   *repository.EquipmentRepository
	activityService *ActivityService
	logger          *zap.Logger
}

// NewIncidentService creates a new IncidentService
func NewIncidentService(
	incidentRepo *repository.IncidentRepository,
	equipmentRepo *repository.EquipmentRepository,
	activityService *ActivityService,
	logger *zap.Logger,
) *IncidentService {
	return &IncidentService{
		incidentRepo:    incidentRepo,
		equipmentRepo:   equipmentRepo,
		activityService: activityService,
		logger:          logger,
	}
}

// Create opens an incident against an equipment unit. The equipment reference
// is weak: the unit must exist at creation time, but deleting it later leaves
// the incident in place.
func (s *IncidentService) Create(ctx context.Context, req *domain.CreateIncidentRequest) (*domain.IncidentResponse, error) {
	if _, err := s.equipmentRepo.GetByID(ctx, req.EquipmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to verify equipment: %w", err)
	}

	incident := &domain.Incident{
		EquipmentID: req.EquipmentID,
		Description: req.Description,
		Status:      domain.IncidentStatusPending,
		Technician:  req.Technician,
		PhotoPath:   req.PhotoPath,
	}

	if err := s.incidentRepo.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("failed to create incident: %w", err)
	}

	s.activityService.Record(ctx, domain.ActivityTargetIncident, incident.ID,
		"Incident opened",
		fmt.Sprintf("Incident opened against equipment %s", req.EquipmentID), nil)

	resp := mapper.ToIncidentResponse(incident)
	return &resp, nil
}

// GetByID retrieves an incident with its comments
func (s *IncidentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.IncidentResponse, error) {
	incident, err := s.incidentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	resp := mapper.ToIncidentResponse(incident)
	return &resp, nil
}

// List retrieves incidents with pagination and optional filters
func (s *IncidentService) List(ctx context.Context, page, pageSize int, status *domain.IncidentStatus, equipmentID *uuid.UUID) ([]domain.IncidentResponse, int64, error) {
	incidents, total, err := s.incidentRepo.List(ctx, page, pageSize, status, equipmentID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list incidents: %w", err)
	}

	result := make([]domain.IncidentResponse, len(incidents))
	for i, incident := range incidents {
		result[i] = mapper.ToIncidentResponse(&incident)
	}

	return result, total, nil
}

// AddComment appends a comment. The first comment on a Pending incident
// moves it to InReview; comments on an InReview incident leave the status
// alone. Resolved incidents take no further comments.
func (s *IncidentService) AddComment(ctx context.Context, incidentID uuid.UUID, req *domain.AddIncidentCommentRequest) (*domain.IncidentResponse, error) {
	incident, err := s.incidentRepo.GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	if incident.Status == domain.IncidentStatusResolved {
		return nil, ErrIncidentResolved
	}

	comment := &domain.IncidentComment{
		IncidentID: incidentID,
		Date:       time.Now(),
		Text:       req.Text,
		Author:     req.Author,
		PhotoPath:  req.PhotoPath,
	}

	if err := s.incidentRepo.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	if incident.Status == domain.IncidentStatusPending {
		incident.Status = domain.IncidentStatusInReview
		if err := s.incidentRepo.Update(ctx, incident); err != nil {
			return nil, fmt.Errorf("failed to transition incident to in_review: %w", err)
		}
	}

	incident, err = s.incidentRepo.GetByID(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload incident: %w", err)
	}

	resp := mapper.ToIncidentResponse(incident)
	return &resp, nil
}

// Resolve closes an incident. The resolution note is mandatory; Pending
// incidents may be resolved directly without ever entering review.
func (s *IncidentService) Resolve(ctx context.Context, incidentID uuid.UUID, req *domain.ResolveIncidentRequest) (*domain.IncidentResponse, error) {
	if req == nil || strings.TrimSpace(req.ResolutionNote) == "" {
		return nil, ErrResolutionNoteRequired
	}

	incident, err := s.incidentRepo.GetByID(ctx, incidentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	if incident.Status == domain.IncidentStatusResolved {
		return nil, ErrIncidentResolved
	}

	now := time.Now()
	incident.Status = domain.IncidentStatusResolved
	incident.ResolvedAt = &now
	incident.ResolutionNote = req.ResolutionNote

	if err := s.incidentRepo.Update(ctx, incident); err != nil {
		return nil, fmt.Errorf("failed to resolve incident: %w", err)
	}

	s.activityService.Record(ctx, domain.ActivityTargetIncident, incident.ID,
		"Incident resolved", req.ResolutionNote, nil)

	resp := mapper.ToIncidentResponse(incident)
	return &resp, nil
}

// Delete removes an incident and its comments
func (s *IncidentService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.incidentRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIncidentNotFound
		}
		return fmt.Errorf("failed to get incident: %w", err)
	}

	if err := s.incidentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}

	return nil
}

// CountOpen returns the number of incidents not yet resolved
func (s *IncidentService) CountOpen(ctx context.Context) (int, error) {
	return s.incidentRepo.CountOpen(ctx)
}
