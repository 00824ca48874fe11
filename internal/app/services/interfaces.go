package services

import (
	"context"
	"time"

	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/repositories"
	"github.com/yigit/peerlearn/internal/pkg/auth"
)

// Transactor runs fn inside a database transaction carried by the context
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TokenIssuer issues access/refresh token pairs
type TokenIssuer interface {
	GenerateTokenPair(user *models.User) (*auth.TokenPair, error)
	GetRefreshTokenExpiry() time.Time
}

// UserStore is the persistence used for users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, name string, bio *string) error
	AddPoints(ctx context.Context, id int64, delta int) (int64, error)
	TopByPoints(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	ListTrainers(ctx context.Context, offset, limit uint64) ([]*models.User, int64, error)
	RefreshRating(ctx context.Context, trainerID int64) error
	LockForUpdate(ctx context.Context, id int64) error
}

// TokenStore is the persistence used for refresh tokens
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	GetTokenByValue(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// HubStore is the persistence used for hubs and memberships
type HubStore interface {
	Create(ctx context.Context, hub *models.LearnerHub) error
	GetByID(ctx context.Context, id int64) (*models.LearnerHub, error)
	List(ctx context.Context, filter repositories.HubFilter, offset, limit uint64) ([]*models.LearnerHub, int64, error)
	Update(ctx context.Context, hub *models.LearnerHub) error
	Delete(ctx context.Context, id int64) error
	GetMemberRole(ctx context.Context, hubID, userID int64) (models.HubRole, bool, error)
	AddMember(ctx context.Context, hubID, userID int64, role models.HubRole) error
	RemoveMember(ctx context.Context, hubID, userID int64) error
	UpdateMemberRole(ctx context.Context, hubID, userID int64, role models.HubRole) error
	CountAdmins(ctx context.Context, hubID int64) (int, error)
	RecountMembers(ctx context.Context, hubID int64) (int, error)
	ListMembers(ctx context.Context, hubID int64) ([]*models.HubMember, error)
	CreateJoinRequest(ctx context.Context, hubID, userID int64, message string) error
	DeleteJoinRequest(ctx context.Context, hubID, userID int64) error
	ListJoinRequests(ctx context.Context, hubID int64) ([]*models.HubJoinRequest, error)
	Leaderboard(ctx context.Context, hubID int64, limit int) ([]models.LeaderboardEntry, error)
}

// ActivityStore is the persistence used for activities and participations
type ActivityStore interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id int64) (*models.Activity, error)
	List(ctx context.Context, filter repositories.ActivityFilter) ([]*models.Activity, error)
	CreateParticipation(ctx context.Context, p *models.Participation) error
	HasParticipated(ctx context.Context, activityID, userID int64) (bool, error)
	Leaderboard(ctx context.Context, activityID int64, limit int) ([]*models.Participation, error)
}

// RoadmapStore is the persistence used for roadmaps and adoptions
type RoadmapStore interface {
	Create(ctx context.Context, rm *models.Roadmap) error
	GetByID(ctx context.Context, id int64) (*models.Roadmap, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Roadmap, error)
	List(ctx context.Context, filter repositories.RoadmapFilter, offset, limit uint64) ([]*models.Roadmap, int64, error)
	UpdateMilestones(ctx context.Context, id int64, milestones []models.Milestone) error
	Delete(ctx context.Context, id int64) error
	FindAdoption(ctx context.Context, templateID, userID int64) (int64, bool, error)
	AddAdopter(ctx context.Context, templateID, userID, instanceID int64) error
	RemoveAdopter(ctx context.Context, templateID, userID int64) (bool, error)
	AdjustUsedBy(ctx context.Context, templateID int64, delta int) (int, error)
	CountAdopters(ctx context.Context, templateID int64) (int, error)
}

// SessionStore is the persistence used for sessions, availability and ratings
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Session, error)
	List(ctx context.Context, filter repositories.SessionFilter) ([]*models.Session, error)
	ListScheduledForTrainer(ctx context.Context, trainerID int64, from, to time.Time) ([]*models.Session, error)
	UpdateStatus(ctx context.Context, id int64, status models.SessionStatus, payment models.PaymentStatus) error
	MarkPaid(ctx context.Context, id int64, reference string) error
	AddParticipant(ctx context.Context, sessionID, userID int64) error
	ReplaceAvailability(ctx context.Context, trainerID int64, slots []models.AvailabilitySlot) error
	ListAvailability(ctx context.Context, trainerID int64) ([]models.AvailabilitySlot, error)
	CreateRating(ctx context.Context, rating *models.Rating) error
	ListRatingsForTrainer(ctx context.Context, trainerID int64, limit int) ([]*models.Rating, error)
}

// ChatStore is the persistence used for hub chat messages
type ChatStore interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByHub(ctx context.Context, hubID, beforeID int64, limit int) ([]*models.ChatMessage, error)
}

// ResourceStore is the persistence used for hub files
type ResourceStore interface {
	Create(ctx context.Context, f *models.HubResource) error
	GetByID(ctx context.Context, id int64) (*models.HubResource, error)
	ListByHub(ctx context.Context, hubID int64) ([]*models.HubResource, error)
	Delete(ctx context.Context, id int64) error
}
