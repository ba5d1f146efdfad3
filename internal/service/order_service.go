package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService handles business logic for orders
type OrderService struct {
	orderRepo       *repository.OrderRepository
	projectRepo     *repository.ProjectRepository
	equipmentRepo   *repository.EquipmentRepository
	slotRepo        *repository.EstimatedEquipmentRepository
	projectService  *ProjectService
	activityService *ActivityService
	logger          *zap.Logger
	db              *gorm.DB
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo *repository.OrderRepository,
	projectRepo *repository.ProjectRepository,
	equipmentRepo *repository.EquipmentRepository,
	slotRepo *repository.EstimatedEquipmentRepository,
	projectService *ProjectService,
	activityService *ActivityService,
	logger *zap.Logger,
	db *gorm.DB,
) *OrderService {
	return &OrderService{
		orderRepo:       orderRepo,
		projectRepo:     projectRepo,
		equipmentRepo:   equipmentRepo,
		slotRepo:        slotRepo,
		projectService:  projectService,
		activityService: activityService,
		logger:          logger,
		db:              db,
	}
}

// Create creates an order under a project
func (s *OrderService) Create(ctx context.Context, projectID uuid.UUID, req *domain.CreateOrderRequest) (*domain.OrderResponse, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	order := &domain.Order{
		ProjectID:          projectID,
		Code:               req.Code,
		EstimatedEquipment: req.EstimatedEquipment,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.activityService.Record(ctx, domain.ActivityTargetProject, projectID,
		"Order created",
		fmt.Sprintf("Order '%s' was added to project %s", order.Code, project.ProjectCode),
		&project.DatacenterID)

	if err := s.projectService.RefreshProgress(ctx, projectID); err != nil {
		s.logger.Warn("failed to refresh progress after order create",
			zap.String("project_id", projectID.String()),
			zap.Error(err))
	}

	resp := mapper.ToOrderResponse(order)
	return &resp, nil
}

// GetByID retrieves an order with its delivery notes
func (s *OrderService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	resp := mapper.ToOrderResponse(order)
	return &resp, nil
}

// ListByProject returns all orders of a project
func (s *OrderService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]domain.OrderResponse, error) {
	orders, err := s.orderRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := make([]domain.OrderResponse, len(orders))
	for i, order := range orders {
		result[i] = mapper.ToOrderResponse(&order)
	}

	return result, nil
}

// Update applies partial changes to an order. Changing the equipment estimate
// recomputes the derived progress up the tree.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateOrderRequest) (*domain.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if req.Code != nil {
		order.Code = *req.Code
	}

	estimateChanged := false
	if req.EstimatedEquipment != nil && *req.EstimatedEquipment != order.EstimatedEquipment {
		order.EstimatedEquipment = *req.EstimatedEquipment
		estimateChanged = true
	}

	if err := s.orderRepo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if estimateChanged {
		if err := s.projectService.RefreshProgress(ctx, order.ProjectID); err != nil {
			s.logger.Warn("failed to refresh progress after estimate change",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}

	resp := mapper.ToOrderResponse(order)
	return &resp, nil
}

// Delete removes an order and its delivery notes, then recomputes the
// project progress. Matched units delivered under the order give their slot
// capacity back in the same transaction as the cascading delete.
func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to get order: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slotIDs, err := s.equipmentRepo.MatchedSlotIDsByOrder(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if err := lockSlots(ctx, tx, s.slotRepo, slotIDs); err != nil {
			return err
		}
		if err := tx.Delete(&domain.Order{}, "id = ?", id).Error; err != nil {
			return err
		}
		return settleSlotCounters(ctx, tx, s.equipmentRepo, slotIDs)
	})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if err := s.projectService.RefreshProgress(ctx, order.ProjectID); err != nil {
		s.logger.Warn("failed to refresh progress after order delete",
			zap.String("project_id", order.ProjectID.String()),
			zap.Error(err))
	}

	return nil
}
