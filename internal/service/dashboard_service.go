package service

import (
	"context"
	"fmt"

	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
)

const dashboardActivityLimit = 10

type DashboardService struct {
	projectRepo   *repository.ProjectRepository
	incidentRepo  *repository.IncidentRepository
	equipmentRepo *repository.EquipmentRepository
	activityRepo  *repository.ActivityRepository
	logger        *zap.Logger
}

func NewDashboardService(
	projectRepo *repository.ProjectRepository,
	incidentRepo *repository.IncidentRepository,
	equipmentRepo *repository.EquipmentRepository,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		projectRepo:   projectRepo,
		incidentRepo:  incidentRepo,
		equipmentRepo: equipmentRepo,
		activityRepo:  activityRepo,
		logger:        logger,
	}
}

func (s *DashboardService) GetMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	activeProjects, err := s.projectRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active projects: %w", err)
	}

	openIncidents, err := s.incidentRepo.CountOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count open incidents: %w", err)
	}

	totals, err := s.equipmentRepo.CountTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count equipment: %w", err)
	}

	activities, err := s.activityRepo.ListRecent(ctx, dashboardActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent activity: %w", err)
	}

	recent := make([]domain.ActivityResponse, len(activities))
	for i := range activities {
		recent[i] = mapper.ToActivityResponse(&activities[i])
	}

	return &domain.DashboardMetrics{
		ActiveProjects:    activeProjects,
		OpenIncidents:     openIncidents,
		TotalEquipment:    totals.Total,
		MatchedEquipment:  totals.Matched,
		VerifiedEquipment: totals.Verified,
		RecentActivity:    recent,
	}, nil
}
