package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
)

// NumberSequenceService handles generation of unique, formatted project
// numbers. Sequences are kept per datacenter/year.
//
// Format: {SITE}-{YEAR}-{SEQUENCE}
// Example: MAD01-2026-0042
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
	}
}

// GenerateProjectNumber generates a unique project number for a datacenter.
// This should be called when a new project is created.
// Format: {SITE}-{YEAR}-{SEQUENCE} e.g., "MAD01-2026-0042"
func (s *NumberSequenceService) GenerateProjectNumber(ctx context.Context, datacenterID domain.DatacenterID) (string, error) {
	// Validate datacenter ID
	if !domain.IsValidDatacenterID(string(datacenterID)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidDatacenterID, datacenterID)
	}

	year := time.Now().Year()
	prefix := domain.GetDatacenterPrefix(datacenterID)

	// Get the next sequence number (atomic operation)
	nextSeq, err := s.repo.GetNextNumber(ctx, datacenterID, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("datacenterID", string(datacenterID)),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate project number: %w", err)
	}

	// Format: SITE-YYYY-NNNN (zero-padded to 4 digits)
	number := fmt.Sprintf("%s-%d-%04d", prefix, year, nextSeq)

	s.logger.Info("generated project number",
		zap.String("number", number),
		zap.String("datacenterID", string(datacenterID)),
		zap.Int("year", year),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// GetCurrentSequence returns the current sequence value for a datacenter/year
// without incrementing it. Returns 0 if no sequence exists.
func (s *NumberSequenceService) GetCurrentSequence(ctx context.Context, datacenterID domain.DatacenterID, year int) (int, error) {
	return s.repo.GetCurrentSequence(ctx, datacenterID, year)
}

// InitializeSequence sets the sequence to a specific value. Useful for data
// migrations to account for existing numbered projects.
// The value should be the LAST USED sequence number.
func (s *NumberSequenceService) InitializeSequence(ctx context.Context, datacenterID domain.DatacenterID, year int, value int) error {
	return s.repo.SetSequence(ctx, datacenterID, year, value)
}
