package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
)

// UserService defines the interface for user operations
type UserService interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error)
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	ListTrainers(ctx context.Context, page, pageSize int) ([]*models.User, dto.PaginationInfo, error)
	GetTrainerRatings(ctx context.Context, trainerID int64, limit int) ([]*models.Rating, error)
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo    UserStore
	sessionRepo SessionStore
	logger      zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo UserStore, sessionRepo SessionStore, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		logger:      logger,
	}
}

// GetUserByID retrieves a user by ID
func (s *userServiceImpl) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewResourceNotFoundError("User not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the caller's name and bio
func (s *userServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, strings.TrimSpace(req.Name), req.Bio); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", userID).Msg("Profile updated")
	return s.GetUserByID(ctx, userID)
}

// GetLeaderboard returns the global points leaderboard
func (s *userServiceImpl) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.userRepo.TopByPoints(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return entries, nil
}

// ListTrainers lists trainers, best rated first
func (s *userServiceImpl) ListTrainers(ctx context.Context, page, pageSize int) ([]*models.User, dto.PaginationInfo, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	trainers, total, err := s.userRepo.ListTrainers(ctx, offset, limit)
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("failed to list trainers: %w", err)
	}
	return trainers, helpers.NewPaginationInfo(total, page, pageSize), nil
}

// GetTrainerRatings returns the most recent reviews of a trainer
func (s *userServiceImpl) GetTrainerRatings(ctx context.Context, trainerID int64, limit int) ([]*models.Rating, error) {
	trainer, err := s.GetUserByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if trainer.Role != models.RoleTrainer {
		return nil, apperrors.NewResourceNotFoundError("Trainer not found")
	}

	ratings, err := s.sessionRepo.ListRatingsForTrainer(ctx, trainerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, nil
}
