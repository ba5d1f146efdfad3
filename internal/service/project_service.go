package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/progress"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectService handles business logic for receiving projects and their
// expected equipment slots
type ProjectService struct {
	projectRepo      *repository.ProjectRepository
	slotRepo         *repository.EstimatedEquipmentRepository
	equipmentRepo    *repository.EquipmentRepository
	activityService  *ActivityService
	numberSeqService *NumberSequenceService
	logger           *zap.Logger
	db               *gorm.DB
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo *repository.ProjectRepository,
	slotRepo *repository.EstimatedEquipmentRepository,
	equipmentRepo *repository.EquipmentRepository,
	activityService *ActivityService,
	numberSeqService *NumberSequenceService,
	logger *zap.Logger,
	db *gorm.DB,
) *ProjectService {
	return &ProjectService{
		projectRepo:      projectRepo,
		slotRepo:         slotRepo,
		equipmentRepo:    equipmentRepo,
		activityService:  activityService,
		numberSeqService: numberSeqService,
		logger:           logger,
		db:               db,
	}
}

// Create creates a new project with a generated project code and optional
// initial slots
func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectResponse, error) {
	if !domain.IsValidDatacenterID(req.DatacenterID) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDatacenterID, req.DatacenterID)
	}
	datacenterID := domain.DatacenterID(req.DatacenterID)

	projectCode, err := s.numberSeqService.GenerateProjectNumber(ctx, datacenterID)
	if err != nil {
		s.logger.Error("failed to generate project code",
			zap.String("datacenter_id", req.DatacenterID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to generate project code: %w", err)
	}

	project := &domain.Project{
		Name:               req.Name,
		ProjectCode:        projectCode,
		DatacenterID:       datacenterID,
		Client:             req.Client,
		RitmCode:           req.RitmCode,
		DeliveryDate:       req.DeliveryDate,
		Status:             domain.ProjectStatusPending,
		EstimatedEquipment: req.EstimatedEquipment,
		TeamMembers:        req.TeamMembers,
	}

	for _, slotReq := range req.Slots {
		project.Slots = append(project.Slots, domain.EstimatedEquipment{
			Type:     slotReq.Type,
			Model:    slotReq.Model,
			Quantity: slotReq.Quantity,
		})
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.activityService.Record(ctx, domain.ActivityTargetProject, project.ID,
		"Project created",
		fmt.Sprintf("Project '%s' (%s) was created for %s", project.Name, project.ProjectCode, project.Client),
		&project.DatacenterID)

	resp := mapper.ToProjectResponse(project)
	return &resp, nil
}

// GetByID retrieves a project with its slots
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectResponse, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	resp := mapper.ToProjectResponse(project)
	return &resp, nil
}

// GetByIDWithTree retrieves a project with its full order and delivery note tree
func (s *ProjectService) GetByIDWithTree(ctx context.Context, id uuid.UUID) (*domain.ProjectResponse, error) {
	project, err := s.projectRepo.GetByIDWithTree(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project tree: %w", err)
	}

	resp := mapper.ToProjectResponse(project)
	return &resp, nil
}

// List retrieves projects with pagination and optional filters
func (s *ProjectService) List(ctx context.Context, page, pageSize int, datacenterID *domain.DatacenterID, status *domain.ProjectStatus) ([]domain.ProjectSummaryResponse, int64, error) {
	projects, total, err := s.projectRepo.List(ctx, page, pageSize, datacenterID, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}

	summaries := make([]domain.ProjectSummaryResponse, len(projects))
	for i, project := range projects {
		summaries[i] = mapper.ToProjectSummaryResponse(&project)
	}

	return summaries, total, nil
}

// Search finds projects by name, code or client
func (s *ProjectService) Search(ctx context.Context, query string, limit int) ([]domain.ProjectSummaryResponse, error) {
	if limit <= 0 || limit > repository.MaxPageSize {
		limit = 20
	}

	projects, err := s.projectRepo.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}

	summaries := make([]domain.ProjectSummaryResponse, len(projects))
	for i, project := range projects {
		summaries[i] = mapper.ToProjectSummaryResponse(&project)
	}

	return summaries, nil
}

// Update applies partial changes to a project. Changing the equipment
// estimate recomputes the derived progress.
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProjectRequest) (*domain.ProjectResponse, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Client != nil {
		project.Client = *req.Client
	}
	if req.RitmCode != nil {
		project.RitmCode = *req.RitmCode
	}
	if req.DeliveryDate != nil {
		project.DeliveryDate = req.DeliveryDate
	}
	if req.Status != nil {
		status := domain.ProjectStatus(*req.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
		}
		project.Status = status
	}
	if req.TeamMembers != nil {
		project.TeamMembers = req.TeamMembers
	}

	estimateChanged := false
	if req.EstimatedEquipment != nil && *req.EstimatedEquipment != project.EstimatedEquipment {
		project.EstimatedEquipment = *req.EstimatedEquipment
		estimateChanged = true
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	if estimateChanged {
		if err := s.RefreshProgress(ctx, project.ID); err != nil {
			s.logger.Warn("failed to refresh progress after estimate change",
				zap.String("project_id", project.ID.String()),
				zap.Error(err))
		}
	}

	project, err = s.projectRepo.GetByID(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload project: %w", err)
	}

	resp := mapper.ToProjectResponse(project)
	return &resp, nil
}

// Delete removes a project and all its descendants
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to get project: %w", err)
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logger.Info("project deleted",
		zap.String("project_id", id.String()),
		zap.String("project_code", project.ProjectCode))

	return nil
}

// AddSlot adds an expected equipment entry to a project
func (s *ProjectService) AddSlot(ctx context.Context, projectID uuid.UUID, req *domain.CreateSlotRequest) (*domain.SlotResponse, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	slot := &domain.EstimatedEquipment{
		ProjectID: projectID,
		Type:      req.Type,
		Model:     req.Model,
		Quantity:  req.Quantity,
	}

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}

	s.activityService.Record(ctx, domain.ActivityTargetProject, projectID,
		"Expected equipment added",
		fmt.Sprintf("%d x %s %s", slot.Quantity, slot.Type, slot.Model), nil)

	resp := mapper.ToSlotResponse(slot)
	return &resp, nil
}

// ListSlots returns the expected equipment entries of a project
func (s *ProjectService) ListSlots(ctx context.Context, projectID uuid.UUID) ([]domain.SlotResponse, error) {
	slots, err := s.slotRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	result := make([]domain.SlotResponse, len(slots))
	for i, slot := range slots {
		result[i] = mapper.ToSlotResponse(&slot)
	}

	return result, nil
}

// UpdateSlot edits an expected equipment entry. The quantity can never drop
// below the number of units already assigned to the slot.
func (s *ProjectService) UpdateSlot(ctx context.Context, slotID uuid.UUID, req *domain.UpdateSlotRequest) (*domain.SlotResponse, error) {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}

	if req.Type != nil {
		slot.Type = *req.Type
	}
	if req.Model != nil {
		slot.Model = *req.Model
	}
	if req.Quantity != nil {
		if *req.Quantity < slot.AssignedCount {
			return nil, fmt.Errorf("%w: %d assigned, requested quantity %d",
				ErrQuantityBelowAssigned, slot.AssignedCount, *req.Quantity)
		}
		slot.Quantity = *req.Quantity
	}

	if err := s.slotRepo.Update(ctx, slot); err != nil {
		return nil, fmt.Errorf("failed to update slot: %w", err)
	}

	resp := mapper.ToSlotResponse(slot)
	return &resp, nil
}

// DeleteSlot removes an expected equipment entry. Slots with assigned
// equipment must be unmatched first.
func (s *ProjectService) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.AssignedCount > 0 {
		return fmt.Errorf("%w: %d units assigned", ErrSlotHasAssignments, slot.AssignedCount)
	}

	if err := s.slotRepo.Delete(ctx, slotID); err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	return nil
}

// GetProgress returns a freshly computed progress summary for a project
// without touching the stored rows
func (s *ProjectService) GetProgress(ctx context.Context, projectID uuid.UUID) (*domain.ProjectProgressResponse, error) {
	project, err := s.projectRepo.GetByIDWithTree(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to load project tree: %w", err)
	}

	progress.RecomputeProject(project)

	resp := &domain.ProjectProgressResponse{
		ProjectID:          project.ID,
		Progress:           project.Progress,
		EstimatedEquipment: project.EstimatedEquipment,
		Orders:             make([]domain.OrderProgressLine, len(project.Orders)),
	}
	for i := range project.Orders {
		order := &project.Orders[i]
		verified := 0
		for _, note := range order.DeliveryNotes {
			resp.DeliveredEquipment += note.DeliveredEquipment
			verified += note.VerifiedEquipment
		}
		resp.VerifiedEquipment += verified
		resp.Orders[i] = domain.OrderProgressLine{
			ID:                 order.ID,
			Code:               order.Code,
			EstimatedEquipment: order.EstimatedEquipment,
			VerifiedEquipment:  verified,
			Progress:           order.Progress,
		}
	}

	return resp, nil
}

// RefreshProgress recomputes the derived progress of a project and persists
// the updated values on the project, its orders and its delivery notes
func (s *ProjectService) RefreshProgress(ctx context.Context, projectID uuid.UUID) error {
	project, err := s.projectRepo.GetByIDWithTree(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to load project tree: %w", err)
	}

	progress.RecomputeProject(project)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range project.Orders {
			order := &project.Orders[i]
			for j := range order.DeliveryNotes {
				note := &order.DeliveryNotes[j]
				err := tx.Model(&domain.DeliveryNote{}).Where("id = ?", note.ID).Updates(map[string]interface{}{
					"delivered_equipment": note.DeliveredEquipment,
					"verified_equipment":  note.VerifiedEquipment,
					"progress":            note.Progress,
					"updated_at":          time.Now(),
				}).Error
				if err != nil {
					return err
				}
			}
			err := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
				"progress":   order.Progress,
				"updated_at": time.Now(),
			}).Error
			if err != nil {
				return err
			}
		}

		return tx.Model(&domain.Project{}).Where("id = ?", project.ID).Updates(map[string]interface{}{
			"progress":   project.Progress,
			"updated_at": time.Now(),
		}).Error
	})
}
