package auth

import (
	"context"
	"errors"

	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/logger"
)

// Common authorization failures
var (
	ErrNotTrainer   = errors.New("only trainers can perform this action")
	ErrNotHubMember = errors.New("you are not a member of this hub")
	ErrNotModerator = errors.New("only hub admins and moderators can perform this action")
	ErrNotHubAdmin  = errors.New("only hub admins can perform this action")
)

// MembershipReader resolves a user's role in a hub
type MembershipReader interface {
	GetMemberRole(ctx context.Context, hubID, userID int64) (models.HubRole, bool, error)
}

// UserReader loads users
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthorizationService handles hub-level and platform-role authorization
type AuthorizationService struct {
	users UserReader
	hubs  MembershipReader
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(users UserReader, hubs MembershipReader) *AuthorizationService {
	return &AuthorizationService{
		users: users,
		hubs:  hubs,
	}
}

// HubRole returns the user's role in the hub and whether they are a member
func (s *AuthorizationService) HubRole(ctx context.Context, hubID, userID int64) (models.HubRole, bool, error) {
	role, ok, err := s.hubs.GetMemberRole(ctx, hubID, userID)
	if err != nil {
		logger.Error().Err(err).Int64("hubID", hubID).Int64("userID", userID).Msg("Error getting hub role")
		return "", false, err
	}
	return role, ok, nil
}

// ValidateMember returns the caller's role or a forbidden error when they are not a member
func (s *AuthorizationService) ValidateMember(ctx context.Context, hubID, userID int64) (models.HubRole, error) {
	role, ok, err := s.HubRole(ctx, hubID, userID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperrors.NewCustomError(apperrors.ErrPermissionDenied, ErrNotHubMember.Error())
	}
	return role, nil
}

// ValidateModerator requires the admin or moderator role in the hub
func (s *AuthorizationService) ValidateModerator(ctx context.Context, hubID, userID int64) error {
	role, ok, err := s.HubRole(ctx, hubID, userID)
	if err != nil {
		return err
	}
	if !ok || !role.CanModerate() {
		return apperrors.NewCustomError(apperrors.ErrPermissionDenied, ErrNotModerator.Error())
	}
	return nil
}

// ValidateAdmin requires the admin role in the hub
func (s *AuthorizationService) ValidateAdmin(ctx context.Context, hubID, userID int64) error {
	role, ok, err := s.HubRole(ctx, hubID, userID)
	if err != nil {
		return err
	}
	if !ok || role != models.HubRoleAdmin {
		return apperrors.NewCustomError(apperrors.ErrPermissionDenied, ErrNotHubAdmin.Error())
	}
	return nil
}

// IsTrainer checks if the user has the trainer platform role
func (s *AuthorizationService) IsTrainer(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return false, err
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID in IsTrainer")
		return false, err
	}
	return user.Role == models.RoleTrainer, nil
}

// ValidateTrainer returns a forbidden error unless the user is a trainer
func (s *AuthorizationService) ValidateTrainer(ctx context.Context, userID int64) error {
	isTrainer, err := s.IsTrainer(ctx, userID)
	if err != nil {
		return err
	}
	if !isTrainer {
		return apperrors.NewCustomError(apperrors.ErrPermissionDenied, ErrNotTrainer.Error())
	}
	return nil
}
