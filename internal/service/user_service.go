package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rackwise/receiving-api/internal/auth"
	"github.com/rackwise/receiving-api/internal/domain"
	"github.com/rackwise/receiving-api/internal/mapper"
	"github.com/rackwise/receiving-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService handles user profiles synced from Azure AD logins
type UserService struct {
	userRepo *repository.UserRepository
	graph    *auth.GraphClient
	logger   *zap.Logger
}

// NewUserService creates a new UserService. The graph client is optional;
// without it profile fields come from token claims only.
func NewUserService(userRepo *repository.UserRepository, graph *auth.GraphClient, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		graph:    graph,
		logger:   logger,
	}
}

// SyncFromLogin upserts the user record from the authenticated context and
// touches the last login timestamp. Called on /auth/me. When the token
// claims lack a name or email, the Microsoft Graph profile fills the gaps.
func (s *UserService) SyncFromLogin(ctx context.Context, userCtx *auth.UserContext) (*domain.UserResponse, error) {
	if userCtx == nil {
		return nil, ErrUnauthorized
	}

	roles := make([]string, len(userCtx.Roles))
	for i, role := range userCtx.Roles {
		roles[i] = string(role)
	}

	displayName := userCtx.DisplayName
	email := userCtx.Email
	if s.graph != nil && userCtx.AccessToken != "" && (displayName == "" || email == "") {
		if profile, err := s.graph.GetUserProfile(ctx, userCtx.AccessToken); err != nil {
			s.logger.Debug("graph profile lookup failed",
				zap.String("user_id", userCtx.UserID.String()),
				zap.Error(err))
		} else {
			if displayName == "" {
				displayName = profile.DisplayName
			}
			if email == "" {
				email = profile.Mail
				if email == "" {
					email = profile.UserPrincipalName
				}
			}
		}
	}

	user := &domain.User{
		ID:          userCtx.UserID.String(),
		AzureADOID:  userCtx.UserID.String(),
		Email:       email,
		DisplayName: displayName,
		Roles:       roles,
		IsActive:    true,
	}
	if userCtx.DatacenterID != "" {
		dc := userCtx.DatacenterID
		user.DatacenterID = &dc
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to touch last login",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	stored, err := s.userRepo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	resp := mapper.ToUserResponse(stored)
	return &resp, nil
}

// GetByID retrieves a user profile
func (s *UserService) GetByID(ctx context.Context, id string) (*domain.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	resp := mapper.ToUserResponse(user)
	return &resp, nil
}

// List retrieves active users with pagination
func (s *UserService) List(ctx context.Context, page, pageSize int) ([]domain.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]domain.UserResponse, len(users))
	for i, user := range users {
		result[i] = mapper.ToUserResponse(&user)
	}

	return result, total, nil
}
