package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/peerlearn/internal/app/auth"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/repositories"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
	"github.com/yigit/peerlearn/internal/pkg/websocket"
)

// Join outcomes
const (
	JoinStatusJoined  = "joined"
	JoinStatusPending = "pending"
)

// HubService defines the interface for learner hub operations
type HubService interface {
	CreateHub(ctx context.Context, userID int64, req *dto.CreateHubRequest) (*models.LearnerHub, error)
	ListHubs(ctx context.Context, userID int64, filter *dto.HubFilterRequest, page, pageSize int) ([]*models.LearnerHub, dto.PaginationInfo, error)
	GetHub(ctx context.Context, hubID, userID int64) (*models.LearnerHub, error)
	UpdateHub(ctx context.Context, hubID, userID int64, req *dto.UpdateHubRequest) (*models.LearnerHub, error)
	DeleteHub(ctx context.Context, hubID, userID int64) error
	JoinHub(ctx context.Context, hubID, userID int64, message string) (string, error)
	ApproveRequest(ctx context.Context, hubID, actorID, userID int64) error
	RejectRequest(ctx context.Context, hubID, actorID, userID int64) error
	LeaveHub(ctx context.Context, hubID, userID int64) error
	RemoveMember(ctx context.Context, hubID, actorID, userID int64) error
	UpdateMemberRole(ctx context.Context, hubID, actorID, userID int64, role models.HubRole) error
	ListMembers(ctx context.Context, hubID int64) ([]*models.HubMember, error)
	GetLeaderboard(ctx context.Context, hubID int64, limit int) ([]models.LeaderboardEntry, error)
}

// hubServiceImpl implements HubService
type hubServiceImpl struct {
	hubRepo      HubStore
	tx           Transactor
	authzService *auth.AuthorizationService
	rooms        websocket.Broadcaster // closes chat of users who lost membership
	logger       zerolog.Logger
}

// NewHubService creates a new HubService
func NewHubService(
	hubRepo HubStore,
	tx Transactor,
	authzService *auth.AuthorizationService,
	rooms websocket.Broadcaster,
	logger zerolog.Logger,
) HubService {
	return &hubServiceImpl{
		hubRepo:      hubRepo,
		tx:           tx,
		authzService: authzService,
		rooms:        rooms,
		logger:       logger,
	}
}

// CreateHub creates a hub with the creator as its first admin
func (s *hubServiceImpl) CreateHub(ctx context.Context, userID int64, req *dto.CreateHubRequest) (*models.LearnerHub, error) {
	privacy := req.Privacy
	if privacy == "" {
		privacy = models.HubPublic
	}

	hub := &models.LearnerHub{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Privacy:     privacy,
		CreatedBy:   userID,
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.hubRepo.Create(ctx, hub); err != nil {
			return err
		}
		if err := s.hubRepo.AddMember(ctx, hub.ID, userID, models.HubRoleAdmin); err != nil {
			return err
		}
		n, err := s.hubRepo.RecountMembers(ctx, hub.ID)
		if err != nil {
			return err
		}
		hub.TotalMembers = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create hub: %w", err)
	}

	s.logger.Info().Int64("hubID", hub.ID).Int64("userID", userID).Msg("Hub created")
	return hub, nil
}

// ListHubs lists hubs with search and paging
func (s *hubServiceImpl) ListHubs(ctx context.Context, userID int64, filter *dto.HubFilterRequest, page, pageSize int) ([]*models.LearnerHub, dto.PaginationInfo, error) {
	repoFilter := repositories.HubFilter{
		Search:   filter.Search,
		Category: filter.Category,
	}
	if filter.Mine {
		repoFilter.MemberID = &userID
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	hubs, total, err := s.hubRepo.List(ctx, repoFilter, offset, limit)
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("failed to list hubs: %w", err)
	}
	return hubs, helpers.NewPaginationInfo(total, page, pageSize), nil
}

// GetHub returns a hub with its members; pending requests are only
// included for admins and moderators.
func (s *hubServiceImpl) GetHub(ctx context.Context, hubID, userID int64) (*models.LearnerHub, error) {
	hub, err := s.hubRepo.GetByID(ctx, hubID)
	if err != nil {
		return nil, err
	}

	if hub.Members, err = s.hubRepo.ListMembers(ctx, hubID); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	role, ok, err := s.authzService.HubRole(ctx, hubID, userID)
	if err != nil {
		return nil, err
	}
	if ok && role.CanModerate() {
		if hub.JoinRequests, err = s.hubRepo.ListJoinRequests(ctx, hubID); err != nil {
			return nil, fmt.Errorf("failed to list join requests: %w", err)
		}
	}
	return hub, nil
}

// UpdateHub changes hub details; admins only
func (s *hubServiceImpl) UpdateHub(ctx context.Context, hubID, userID int64, req *dto.UpdateHubRequest) (*models.LearnerHub, error) {
	hub, err := s.hubRepo.GetByID(ctx, hubID)
	if err != nil {
		return nil, err
	}
	if err := s.authzService.ValidateAdmin(ctx, hubID, userID); err != nil {
		return nil, err
	}

	hub.Name = strings.TrimSpace(req.Name)
	hub.Description = req.Description
	hub.Category = req.Category
	hub.Privacy = req.Privacy

	if err := s.hubRepo.Update(ctx, hub); err != nil {
		return nil, fmt.Errorf("failed to update hub: %w", err)
	}
	return hub, nil
}

// DeleteHub removes a hub; admins only
func (s *hubServiceImpl) DeleteHub(ctx context.Context, hubID, userID int64) error {
	if _, err := s.hubRepo.GetByID(ctx, hubID); err != nil {
		return err
	}
	if err := s.authzService.ValidateAdmin(ctx, hubID, userID); err != nil {
		return err
	}

	if err := s.hubRepo.Delete(ctx, hubID); err != nil {
		return fmt.Errorf("failed to delete hub: %w", err)
	}
	s.rooms.Broadcast(ctx, websocket.EvictMessage(hubID, 0))
	s.logger.Info().Int64("hubID", hubID).Int64("userID", userID).Msg("Hub deleted")
	return nil
}

// JoinHub joins a public hub or files a request for a private one.
// Closed hubs reject every join.
func (s *hubServiceImpl) JoinHub(ctx context.Context, hubID, userID int64, message string) (string, error) {
	hub, err := s.hubRepo.GetByID(ctx, hubID)
	if err != nil {
		return "", err
	}

	if hub.Privacy == models.HubClosed {
		return "", apperrors.NewCustomError(apperrors.ErrHubClosed, "This hub is closed to new members")
	}

	if _, ok, err := s.authzService.HubRole(ctx, hubID, userID); err != nil {
		return "", err
	} else if ok {
		return "", apperrors.NewCustomError(apperrors.ErrAlreadyMember, "Already a member")
	}

	if hub.Privacy == models.HubPrivate {
		if err := s.hubRepo.CreateJoinRequest(ctx, hubID, userID, message); err != nil {
			if errors.Is(err, apperrors.ErrRequestPending) {
				return "", apperrors.NewCustomError(apperrors.ErrRequestPending, "Join request already pending")
			}
			return "", fmt.Errorf("failed to create join request: %w", err)
		}
		s.logger.Info().Int64("hubID", hubID).Int64("userID", userID).Msg("Join request created")
		return JoinStatusPending, nil
	}

	if err := s.addMember(ctx, hubID, userID, models.HubRoleMember); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyMember) {
			return "", apperrors.NewCustomError(apperrors.ErrAlreadyMember, "Already a member")
		}
		return "", err
	}
	return JoinStatusJoined, nil
}

func (s *hubServiceImpl) addMember(ctx context.Context, hubID, userID int64, role models.HubRole) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.hubRepo.AddMember(ctx, hubID, userID, role); err != nil {
			return err
		}
		_, err := s.hubRepo.RecountMembers(ctx, hubID)
		return err
	})
}

// ApproveRequest turns a pending request into a membership
func (s *hubServiceImpl) ApproveRequest(ctx context.Context, hubID, actorID, userID int64) error {
	if err := s.authzService.ValidateModerator(ctx, hubID, actorID); err != nil {
		return err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.hubRepo.DeleteJoinRequest(ctx, hubID, userID); err != nil {
			return err
		}
		if err := s.hubRepo.AddMember(ctx, hubID, userID, models.HubRoleMember); err != nil {
			return err
		}
		_, err := s.hubRepo.RecountMembers(ctx, hubID)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrRequestNotFound) {
			return apperrors.NewCustomError(apperrors.ErrRequestNotFound, "No pending request for this user")
		}
		return err
	}

	s.logger.Info().Int64("hubID", hubID).Int64("userID", userID).Int64("approvedBy", actorID).Msg("Join request approved")
	return nil
}

// RejectRequest drops a pending request
func (s *hubServiceImpl) RejectRequest(ctx context.Context, hubID, actorID, userID int64) error {
	if err := s.authzService.ValidateModerator(ctx, hubID, actorID); err != nil {
		return err
	}

	if err := s.hubRepo.DeleteJoinRequest(ctx, hubID, userID); err != nil {
		if errors.Is(err, apperrors.ErrRequestNotFound) {
			return apperrors.NewCustomError(apperrors.ErrRequestNotFound, "No pending request for this user")
		}
		return err
	}
	return nil
}

// LeaveHub removes the caller from the hub. The last admin must hand over first.
func (s *hubServiceImpl) LeaveHub(ctx context.Context, hubID, userID int64) error {
	if _, err := s.hubRepo.GetByID(ctx, hubID); err != nil {
		return err
	}
	return s.removeMember(ctx, hubID, userID)
}

// RemoveMember lets an admin remove someone else from the hub
func (s *hubServiceImpl) RemoveMember(ctx context.Context, hubID, actorID, userID int64) error {
	if err := s.authzService.ValidateAdmin(ctx, hubID, actorID); err != nil {
		return err
	}
	return s.removeMember(ctx, hubID, userID)
}

func (s *hubServiceImpl) removeMember(ctx context.Context, hubID, userID int64) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		// Recount first so the hub row is locked before admins are counted.
		if _, err := s.hubRepo.RecountMembers(ctx, hubID); err != nil {
			return err
		}

		role, ok, err := s.hubRepo.GetMemberRole(ctx, hubID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NewCustomError(apperrors.ErrNotMember, "Not a member of this hub")
		}

		if role == models.HubRoleAdmin {
			admins, err := s.hubRepo.CountAdmins(ctx, hubID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperrors.NewCustomError(apperrors.ErrLastAdmin, "The last admin cannot leave the hub")
			}
		}

		if err := s.hubRepo.RemoveMember(ctx, hubID, userID); err != nil {
			return err
		}
		_, err = s.hubRepo.RecountMembers(ctx, hubID)
		return err
	})
	if err != nil {
		return err
	}

	s.rooms.Broadcast(ctx, websocket.EvictMessage(hubID, userID))
	return nil
}

// UpdateMemberRole changes a member's role; admins only
func (s *hubServiceImpl) UpdateMemberRole(ctx context.Context, hubID, actorID, userID int64, role models.HubRole) error {
	if err := s.authzService.ValidateAdmin(ctx, hubID, actorID); err != nil {
		return err
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.hubRepo.RecountMembers(ctx, hubID); err != nil {
			return err
		}

		current, ok, err := s.hubRepo.GetMemberRole(ctx, hubID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.NewCustomError(apperrors.ErrNotMember, "Not a member of this hub")
		}

		if current == models.HubRoleAdmin && role != models.HubRoleAdmin {
			admins, err := s.hubRepo.CountAdmins(ctx, hubID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperrors.NewCustomError(apperrors.ErrLastAdmin, "The hub needs at least one admin")
			}
		}

		return s.hubRepo.UpdateMemberRole(ctx, hubID, userID, role)
	})
}

// ListMembers lists the members of a hub
func (s *hubServiceImpl) ListMembers(ctx context.Context, hubID int64) ([]*models.HubMember, error) {
	if _, err := s.hubRepo.GetByID(ctx, hubID); err != nil {
		return nil, err
	}
	return s.hubRepo.ListMembers(ctx, hubID)
}

// GetLeaderboard returns the hub leaderboard derived from participation history
func (s *hubServiceImpl) GetLeaderboard(ctx context.Context, hubID int64, limit int) ([]models.LeaderboardEntry, error) {
	if _, err := s.hubRepo.GetByID(ctx, hubID); err != nil {
		return nil, err
	}

	entries, err := s.hubRepo.Leaderboard(ctx, hubID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load hub leaderboard: %w", err)
	}
	return entries, nil
}
