package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/repository"
	"github.com/rackwise/receiving-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxFileSize limits uploads to 25 MB
const MaxFileSize = 25 << 20

// ErrFileTooLarge is returned when an upload exceeds the size limit
var ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

// FileService handles uploads of delivery note attachments and verification
// photos
type FileService struct {
	fileRepo *repository.FileRepository
	storage  storage.Storage
	logger   *zap.Logger
}

// NewFileService creates a new FileService
func NewFileService(fileRepo *repository.FileRepository, store storage.Storage, logger *zap.Logger) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  store,
		logger:   logger,
	}
}

// Upload stores the file content and records its metadata. EquipmentID is
// optional and links verification photos to their unit.
func (s *FileService) Upload(ctx context.Context, filename, contentType string, data io.Reader, equipmentID *uuid.UUID) (*domain.FileResponse, error) {
	limited := io.LimitReader(data, MaxFileSize+1)

	storagePath, size, err := s.storage.Upload(ctx, filename, contentType, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	if size > MaxFileSize {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to remove oversized upload",
				zap.String("storage_path", storagePath),
				zap.Error(delErr))
		}
		return nil, ErrFileTooLarge
	}

	file := &domain.File{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
		EquipmentID: equipmentID,
	}

	if err := s.fileRepo.Create(ctx, file); err != nil {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload",
				zap.String("storage_path", storagePath),
				zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to record file: %w", err)
	}

	resp := mapper.ToFileResponse(file)
	return &resp, nil
}

// Download returns the file metadata and a reader over its content. The
// caller closes the reader.
func (s *FileService) Download(ctx context.Context, id uuid.UUID) (*domain.File, io.ReadCloser, error) {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get file: %w", err)
	}

	reader, err := s.storage.Download(ctx, file.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file content: %w", err)
	}

	return file, reader, nil
}

// Delete removes a file's content and metadata
func (s *FileService) Delete(ctx context.Context, id uuid.UUID) error {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get file: %w", err)
	}

	if err := s.storage.Delete(ctx, file.StoragePath); err != nil {
		s.logger.Warn("failed to delete file content, removing metadata anyway",
			zap.String("storage_path", file.StoragePath),
			zap.Error(err))
	}

	if err := s.fileRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// ListByEquipment returns the files attached to an equipment unit
func (s *FileService) ListByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]domain.FileResponse, error) {
	files, err := s.fileRepo.ListByEquipment(ctx, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	result := make([]domain.FileResponse, len(files))
	for i, file := range files {
		result[i] = mapper.ToFileResponse(&file)
	}

	return result, nil
}
