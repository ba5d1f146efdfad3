package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"gorm.io/gorm"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	query := r.db.WithContext(ctx).Preload("Slots").Where("id = ?", id)
	query = ApplyDatacenterFilter(ctx, query)
	err := query.First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetByIDWithTree loads a project with its full order/note/equipment tree.
// Used by the progress recomputation and the bulk matching operations.
func (r *ProjectRepository) GetByIDWithTree(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var project domain.Project
	query := r.db.WithContext(ctx).
		Preload("Slots").
		Preload("Orders").
		Preload("Orders.DeliveryNotes").
		Preload("Orders.DeliveryNotes.Equipment").
		Where("id = ?", id)
	query = ApplyDatacenterFilter(ctx, query)
	err := query.First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) GetByCode(ctx context.Context, code string) (*domain.Project, error) {
	var project domain.Project
	query := r.db.WithContext(ctx).Where("project_code = ?", code)
	query = ApplyDatacenterFilter(ctx, query)
	err := query.First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) Update(ctx context.Context, project *domain.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Project{}, "id = ?", id).Error
}

func (r *ProjectRepository) List(ctx context.Context, page, pageSize int, datacenterID *domain.DatacenterID, status *domain.ProjectStatus) ([]domain.Project, int64, error) {
	var projects []domain.Project
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Project{}).Preload("Orders")

	// Apply per-site datacenter filter
	query = ApplyDatacenterFilter(ctx, query)

	if datacenterID != nil {
		query = query.Where("datacenter_id = ?", *datacenterID)
	}

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&projects).Error

	return projects, total, err
}

func (r *ProjectRepository) CountActive(ctx context.Context) (int, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&domain.Project{}).
		Where("status = ?", domain.ProjectStatusInProgress)
	query = ApplyDatacenterFilter(ctx, query)
	err := query.Count(&count).Error
	return int(count), err
}

// ListIDsTouchedSince returns the IDs of projects updated after the given
// time, or whose orders, delivery notes or equipment were. Used by the
// progress reconciliation job.
func (r *ProjectRepository) ListIDsTouchedSince(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&domain.Project{}).
		Distinct("projects.id").
		Joins("LEFT JOIN orders ON orders.project_id = projects.id").
		Joins("LEFT JOIN delivery_notes ON delivery_notes.order_id = orders.id").
		Joins("LEFT JOIN equipment ON equipment.delivery_note_id = delivery_notes.id").
		Where(`projects.updated_at > ? OR orders.updated_at > ?
			OR delivery_notes.updated_at > ? OR equipment.updated_at > ?`,
			since, since, since, since).
		Pluck("projects.id", &ids).Error
	return ids, err
}

func (r *ProjectRepository) Search(ctx context.Context, searchQuery string, limit int) ([]domain.Project, error) {
	var projects []domain.Project
	searchPattern := "%" + strings.ToLower(searchQuery) + "%"
	query := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(project_code) LIKE ? OR LOWER(client) LIKE ?",
			searchPattern, searchPattern, searchPattern)
	query = ApplyDatacenterFilter(ctx, query)
	err := query.Limit(limit).Find(&projects).Error
	return projects, err
}
