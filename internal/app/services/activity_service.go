package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/peerlearn/internal/app/auth"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/repositories"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
)

// ActivityLeaderboardSize is how many participants an activity leaderboard shows
const ActivityLeaderboardSize = 10

// ActivityService defines the interface for hub activity operations
type ActivityService interface {
	CreateActivity(ctx context.Context, userID int64, req *dto.CreateActivityRequest) (*models.Activity, error)
	ListActivities(ctx context.Context, userID int64, filter *dto.ActivityFilterRequest) ([]*models.Activity, error)
	GetActivity(ctx context.Context, activityID, userID int64) (*models.Activity, error)
	Participate(ctx context.Context, activityID, userID int64, answers []int) (*dto.ParticipationResponse, error)
	GetLeaderboard(ctx context.Context, activityID int64) ([]*models.Participation, error)
}

// activityServiceImpl implements ActivityService
type activityServiceImpl struct {
	activityRepo ActivityStore
	hubRepo      HubStore
	userRepo     UserStore
	tx           Transactor
	authzService *auth.AuthorizationService
	logger       zerolog.Logger
	now          func() time.Time
}

// NewActivityService creates a new ActivityService
func NewActivityService(
	activityRepo ActivityStore,
	hubRepo HubStore,
	userRepo UserStore,
	tx Transactor,
	authzService *auth.AuthorizationService,
	logger zerolog.Logger,
) ActivityService {
	return &activityServiceImpl{
		activityRepo: activityRepo,
		hubRepo:      hubRepo,
		userRepo:     userRepo,
		tx:           tx,
		authzService: authzService,
		logger:       logger,
		now:          time.Now,
	}
}

// CreateActivity schedules an activity in a hub; admins and moderators only
func (s *activityServiceImpl) CreateActivity(ctx context.Context, userID int64, req *dto.CreateActivityRequest) (*models.Activity, error) {
	if _, err := s.hubRepo.GetByID(ctx, req.HubID); err != nil {
		return nil, err
	}
	if err := s.authzService.ValidateModerator(ctx, req.HubID, userID); err != nil {
		return nil, err
	}

	if !req.Type.Valid() {
		return nil, apperrors.NewBadRequestError("Unknown activity type")
	}
	if req.EndTime != nil && !req.EndTime.After(req.StartTime) {
		return nil, apperrors.NewBadRequestError("End time must be after start time")
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, models.Question{
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
		})
	}
	if err := validateQuestions(req.Type, questions); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		HubID:       req.HubID,
		CreatedBy:   userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        req.Type,
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime,
		Questions:   questions,
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	s.logger.Info().
		Int64("activityID", activity.ID).
		Int64("hubID", activity.HubID).
		Str("type", string(activity.Type)).
		Msg("Activity created")
	return activity, nil
}

// ListActivities lists activities of the caller's hubs
func (s *activityServiceImpl) ListActivities(ctx context.Context, userID int64, filter *dto.ActivityFilterRequest) ([]*models.Activity, error) {
	activities, err := s.activityRepo.List(ctx, repositories.ActivityFilter{
		HubID:    filter.HubID,
		Type:     filter.Type,
		MemberID: &userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	for i, a := range activities {
		activities[i] = a.Redacted()
	}
	return activities, nil
}

// GetActivity returns an activity; correct answers are hidden from everyone
// but the hub's admins and moderators.
func (s *activityServiceImpl) GetActivity(ctx context.Context, activityID, userID int64) (*models.Activity, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	role, ok, err := s.authzService.HubRole(ctx, activity.HubID, userID)
	if err != nil {
		return nil, err
	}
	if ok && role.CanModerate() {
		return activity, nil
	}
	return activity.Redacted(), nil
}

// Participate scores a submission. Recording the participation and crediting
// the user's points happen in one transaction.
func (s *activityServiceImpl) Participate(ctx context.Context, activityID, userID int64, answers []int) (*dto.ParticipationResponse, error) {
	activity, err := s.activityRepo.GetByID(ctx, activityID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authzService.ValidateMember(ctx, activity.HubID, userID); err != nil {
		return nil, err
	}

	if activity.EndTime != nil && s.now().After(*activity.EndTime) {
		return nil, apperrors.NewBadRequestError("Activity has ended")
	}

	done, err := s.activityRepo.HasParticipated(ctx, activityID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if done {
		return nil, apperrors.NewCustomError(apperrors.ErrAlreadyParticipated, "Already participated")
	}

	score, err := ScoreSubmission(activity, answers)
	if err != nil {
		return nil, err
	}

	if answers == nil {
		answers = []int{}
	}
	participation := &models.Participation{
		ActivityID: activityID,
		UserID:     userID,
		Answers:    answers,
		Score:      score,
	}

	var total int64
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.activityRepo.CreateParticipation(ctx, participation); err != nil {
			return err
		}
		total, err = s.userRepo.AddPoints(ctx, userID, score)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyParticipated) {
			return nil, apperrors.NewCustomError(apperrors.ErrAlreadyParticipated, "Already participated")
		}
		return nil, fmt.Errorf("failed to record participation: %w", err)
	}

	s.logger.Info().
		Int64("activityID", activityID).
		Int64("userID", userID).
		Int("score", score).
		Msg("Participation recorded")

	return &dto.ParticipationResponse{
		Participation: participation,
		MaxScore:      activity.MaxScore(),
		TotalPoints:   total,
	}, nil
}

// GetLeaderboard returns the top participants of an activity
func (s *activityServiceImpl) GetLeaderboard(ctx context.Context, activityID int64) ([]*models.Participation, error) {
	if _, err := s.activityRepo.GetByID(ctx, activityID); err != nil {
		return nil, err
	}

	entries, err := s.activityRepo.Leaderboard(ctx, activityID, ActivityLeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity leaderboard: %w", err)
	}
	return entries, nil
}
