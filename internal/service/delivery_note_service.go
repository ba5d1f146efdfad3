package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/ai"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/rackwise/receiving-api/internal/warehouse"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EquipmentExtractor turns raw delivery note text into equipment line items
type EquipmentExtractor interface {
	ExtractEquipment(ctx context.Context, documentText string) ([]ai.ExtractedEquipment, error)
}

// noteStatusRank orders the verification workflow stages. A note only moves
// forward through the workflow, never back.
var noteStatusRank = map[domain.DeliveryNoteStatus]int{
	domain.DeliveryNoteStatusPending:             0,
	domain.DeliveryNoteStatusValidatingNote:      1,
	domain.DeliveryNoteStatusValidatingReception: 2,
	domain.DeliveryNoteStatusCompleted:           3,
}

// DeliveryNoteService handles business logic for delivery notes
type DeliveryNoteService struct {
	noteRepo        *repository.DeliveryNoteRepository
	orderRepo       *repository.OrderRepository
	equipmentRepo   *repository.EquipmentRepository
	slotRepo        *repository.EstimatedEquipmentRepository
	fileRepo        *repository.FileRepository
	projectService  *ProjectService
	activityService *ActivityService
	extractor       EquipmentExtractor
	catalog         *warehouse.Client
	logger          *zap.Logger
	db              *gorm.DB
}

// NewDeliveryNoteService creates a new DeliveryNoteService. The extractor is
// optional; without one the extraction endpoint reports the matcher as
// unavailable. The catalog client is optional as well and only used to
// enrich extracted units.
func NewDeliveryNoteService(
	noteRepo *repository.DeliveryNoteRepository,
	orderRepo *repository.OrderRepository,
	equipmentRepo *repository.EquipmentRepository,
	slotRepo *repository.EstimatedEquipmentRepository,
	fileRepo *repository.FileRepository,
	projectService *ProjectService,
	activityService *ActivityService,
	extractor EquipmentExtractor,
	catalog *warehouse.Client,
	logger *zap.Logger,
	db *gorm.DB,
) *DeliveryNoteService {
	return &DeliveryNoteService{
		noteRepo:        noteRepo,
		orderRepo:       orderRepo,
		equipmentRepo:   equipmentRepo,
		slotRepo:        slotRepo,
		fileRepo:        fileRepo,
		projectService:  projectService,
		activityService: activityService,
		extractor:       extractor,
		catalog:         catalog,
		logger:          logger,
		db:              db,
	}
}

// Create registers a delivery note under an order
func (s *DeliveryNoteService) Create(ctx context.Context, orderID uuid.UUID, req *domain.CreateDeliveryNoteRequest) (*domain.DeliveryNoteResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if req.AttachmentID != nil {
		if _, err := s.fileRepo.GetByID(ctx, *req.AttachmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: attachment %s", ErrNotFound, req.AttachmentID)
			}
			return nil, fmt.Errorf("failed to verify attachment: %w", err)
		}
	}

	note := &domain.DeliveryNote{
		OrderID:            orderID,
		Code:               req.Code,
		EstimatedEquipment: req.EstimatedEquipment,
		Status:             domain.DeliveryNoteStatusPending,
		AttachmentID:       req.AttachmentID,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create delivery note: %w", err)
	}

	s.activityService.Record(ctx, domain.ActivityTargetOrder, orderID,
		"Delivery note registered",
		fmt.Sprintf("Delivery note '%s' was registered on order %s", note.Code, order.Code), nil)

	s.refreshProjectProgress(ctx, note.ID)

	resp := mapper.ToDeliveryNoteResponse(note)
	return &resp, nil
}

// GetByID retrieves a delivery note with its equipment
func (s *DeliveryNoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DeliveryNoteResponse, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNoteNotFound
		}
		return nil, fmt.Errorf("failed to get delivery note: %w", err)
	}

	resp := mapper.ToDeliveryNoteResponse(note)
	return &resp, nil
}

// ListByOrder returns all delivery notes of an order
func (s *DeliveryNoteService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.DeliveryNoteResponse, error) {
	notes, err := s.noteRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery notes: %w", err)
	}

	result := make([]domain.DeliveryNoteResponse, len(notes))
	for i, note := range notes {
		result[i] = mapper.ToDeliveryNoteResponse(&note)
	}

	return result, nil
}

// Update applies partial changes to a delivery note. Status only moves
// forward through the verification workflow.
func (s *DeliveryNoteService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateDeliveryNoteRequest) (*domain.DeliveryNoteResponse, error) {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNoteNotFound
		}
		return nil, fmt.Errorf("failed to get delivery note: %w", err)
	}

	if req.Code != nil {
		note.Code = *req.Code
	}
	if req.AttachmentID != nil {
		if _, err := s.fileRepo.GetByID(ctx, *req.AttachmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: attachment %s", ErrNotFound, req.AttachmentID)
			}
			return nil, fmt.Errorf("failed to verify attachment: %w", err)
		}
		note.AttachmentID = req.AttachmentID
	}
	if req.Status != nil {
		status := domain.DeliveryNoteStatus(*req.Status)
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
		}
		if noteStatusRank[status] < noteStatusRank[note.Status] {
			return nil, fmt.Errorf("%w: cannot move from %s back to %s", ErrInvalidStatus, note.Status, status)
		}
		note.Status = status
	}

	estimateChanged := false
	if req.EstimatedEquipment != nil && *req.EstimatedEquipment != note.EstimatedEquipment {
		note.EstimatedEquipment = *req.EstimatedEquipment
		estimateChanged = true
	}

	if err := s.noteRepo.Update(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to update delivery note: %w", err)
	}

	if estimateChanged {
		s.refreshProjectProgress(ctx, note.ID)
	}

	resp := mapper.ToDeliveryNoteResponse(note)
	return &resp, nil
}

// Delete removes a delivery note with its equipment and recomputes progress.
// Matched units under the note give their slot capacity back in the same
// transaction as the cascading delete.
func (s *DeliveryNoteService) Delete(ctx context.Context, id uuid.UUID) error {
	note, err := s.noteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeliveryNoteNotFound
		}
		return fmt.Errorf("failed to get delivery note: %w", err)
	}

	projectID, err := s.noteRepo.ProjectIDForNote(ctx, note.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve project for note: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slotIDs, err := s.equipmentRepo.MatchedSlotIDsByNote(ctx, tx, note.ID)
		if err != nil {
			return err
		}
		if err := lockSlots(ctx, tx, s.slotRepo, slotIDs); err != nil {
			return err
		}
		if err := tx.Delete(&domain.DeliveryNote{}, "id = ?", id).Error; err != nil {
			return err
		}
		return settleSlotCounters(ctx, tx, s.equipmentRepo, slotIDs)
	})
	if err != nil {
		return fmt.Errorf("failed to delete delivery note: %w", err)
	}

	if err := s.projectService.RefreshProgress(ctx, projectID); err != nil {
		s.logger.Warn("failed to refresh progress after note delete",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}

	return nil
}

// ExtractEquipment runs AI extraction over the raw delivery note text and
// registers one equipment record per extracted unit on the note
func (s *DeliveryNoteService) ExtractEquipment(ctx context.Context, noteID uuid.UUID, req *domain.ExtractEquipmentRequest) ([]domain.EquipmentResponse, error) {
	if s.extractor == nil {
		return nil, ErrMatcherUnavailable
	}

	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeliveryNoteNotFound
		}
		return nil, fmt.Errorf("failed to get delivery note: %w", err)
	}

	extracted, err := s.extractor.ExtractEquipment(ctx, req.DocumentText)
	if err != nil {
		s.logger.Error("equipment extraction failed",
			zap.String("note_id", noteID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMatcherUnavailable, err)
	}

	if len(extracted) == 0 {
		return []domain.EquipmentResponse{}, nil
	}

	units := make([]*domain.Equipment, len(extracted))
	for i, item := range extracted {
		units[i] = &domain.Equipment{
			DeliveryNoteID: &note.ID,
			Name:           item.Name,
			SerialNumber:   item.SerialNumber,
			PartNumber:     item.PartNumber,
			Type:           item.Type,
			Model:          item.Model,
		}
	}

	s.enrichFromCatalog(ctx, units)

	if err := s.equipmentRepo.CreateBatch(ctx, units); err != nil {
		return nil, fmt.Errorf("failed to store extracted equipment: %w", err)
	}

	s.activityService.Record(ctx, domain.ActivityTargetDeliveryNote, note.ID,
		"Equipment extracted",
		fmt.Sprintf("%d equipment units extracted from delivery note '%s'", len(units), note.Code), nil)

	s.refreshProjectProgress(ctx, note.ID)

	result := make([]domain.EquipmentResponse, len(units))
	for i, unit := range units {
		result[i] = mapper.ToEquipmentResponse(unit)
	}

	return result, nil
}

// enrichFromCatalog fills missing type/model fields from the asset part
// catalog. Lookup failures only cost the enrichment, never the extraction.
func (s *DeliveryNoteService) enrichFromCatalog(ctx context.Context, units []*domain.Equipment) {
	if !s.catalog.IsEnabled() {
		return
	}

	var partNumbers []string
	seen := make(map[string]bool)
	for _, unit := range units {
		if unit.PartNumber == "" || (unit.Type != "" && unit.Model != "") {
			continue
		}
		if !seen[unit.PartNumber] {
			seen[unit.PartNumber] = true
			partNumbers = append(partNumbers, unit.PartNumber)
		}
	}
	if len(partNumbers) == 0 {
		return
	}

	parts, err := s.catalog.LookupParts(ctx, partNumbers)
	if err != nil {
		s.logger.Warn("part catalog enrichment failed", zap.Error(err))
		return
	}

	for _, unit := range units {
		part, ok := parts[unit.PartNumber]
		if !ok {
			continue
		}
		if unit.Type == "" {
			unit.Type = part.Type
		}
		if unit.Model == "" {
			unit.Model = part.Model
		}
	}
}

func (s *DeliveryNoteService) refreshProjectProgress(ctx context.Context, noteID uuid.UUID) {
	projectID, err := s.noteRepo.ProjectIDForNote(ctx, noteID)
	if err != nil {
		s.logger.Warn("failed to resolve project for note",
			zap.String("note_id", noteID.String()),
			zap.Error(err))
		return
	}

	if err := s.projectService.RefreshProgress(ctx, projectID); err != nil {
		s.logger.Warn("failed to refresh progress",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}
}
