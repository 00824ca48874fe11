package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/peerlearn/internal/app/auth"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/repositories"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
)

const (
	defaultGroupSize       = 10
	defaultSlotMinutes     = 60
	minSessionMinutes      = 15
	maxSessionMinutes      = 480
	meetingLinkBase        = "https://meet.peerlearn.app/"
	paymentReferencePrefix = "mock_txn_"
)

// SessionService defines the interface for trainer availability, sessions and ratings
type SessionService interface {
	SetAvailability(ctx context.Context, trainerID int64, req *dto.SetAvailabilityRequest) ([]models.AvailabilitySlot, error)
	GetAvailability(ctx context.Context, trainerID int64) ([]models.AvailabilitySlot, error)
	GetFreeSlots(ctx context.Context, trainerID int64, date string, durationMinutes int) (*dto.FreeSlotsResponse, error)
	CreateSession(ctx context.Context, learnerID int64, req *dto.CreateSessionRequest) (*models.Session, error)
	ListSessions(ctx context.Context, userID int64, filter *dto.SessionFilterRequest) ([]*models.Session, error)
	GetSession(ctx context.Context, sessionID, userID int64) (*models.Session, error)
	JoinSession(ctx context.Context, sessionID, userID int64) (*models.Session, error)
	CompleteSession(ctx context.Context, sessionID, userID int64) (*models.Session, error)
	CancelSession(ctx context.Context, sessionID, userID int64) (*models.Session, error)
	PaySession(ctx context.Context, sessionID, userID int64) (*models.Session, error)
	RateSession(ctx context.Context, sessionID, userID int64, req *dto.RateSessionRequest) (*models.Rating, error)
}

// sessionServiceImpl implements SessionService
type sessionServiceImpl struct {
	sessionRepo  SessionStore
	userRepo     UserStore
	tx           Transactor
	authzService *auth.AuthorizationService
	logger       zerolog.Logger
	now          func() time.Time
	newID        func() string
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo SessionStore,
	userRepo UserStore,
	tx Transactor,
	authzService *auth.AuthorizationService,
	logger zerolog.Logger,
) SessionService {
	return &sessionServiceImpl{
		sessionRepo:  sessionRepo,
		userRepo:     userRepo,
		tx:           tx,
		authzService: authzService,
		logger:       logger,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

func (s *sessionServiceImpl) getTrainer(ctx context.Context, trainerID int64) (*models.User, error) {
	trainer, err := s.userRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Trainer not found")
		}
		return nil, err
	}
	if trainer.Role != models.RoleTrainer {
		return nil, apperrors.NewResourceNotFoundError("Trainer not found")
	}
	return trainer, nil
}

// SetAvailability replaces the caller's weekly availability
func (s *sessionServiceImpl) SetAvailability(ctx context.Context, trainerID int64, req *dto.SetAvailabilityRequest) ([]models.AvailabilitySlot, error) {
	if err := s.authzService.ValidateTrainer(ctx, trainerID); err != nil {
		return nil, err
	}

	slots := make([]models.AvailabilitySlot, 0, len(req.Slots))
	for _, r := range req.Slots {
		slots = append(slots, models.AvailabilitySlot{
			TrainerID: trainerID,
			DayOfWeek: r.DayOfWeek,
			StartTime: r.StartTime,
			EndTime:   r.EndTime,
		})
	}
	if err := validateWeeklySlots(slots); err != nil {
		return nil, err
	}

	var saved []models.AvailabilitySlot
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.ReplaceAvailability(ctx, trainerID, slots); err != nil {
			return err
		}
		var err error
		saved, err = s.sessionRepo.ListAvailability(ctx, trainerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save availability: %w", err)
	}

	s.logger.Info().Int64("trainerID", trainerID).Int("slots", len(saved)).Msg("Availability updated")
	return saved, nil
}

// GetAvailability returns a trainer's weekly availability
func (s *sessionServiceImpl) GetAvailability(ctx context.Context, trainerID int64) ([]models.AvailabilitySlot, error) {
	if _, err := s.getTrainer(ctx, trainerID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListAvailability(ctx, trainerID)
}

// GetFreeSlots lists bookable start times of a trainer on a date
func (s *sessionServiceImpl) GetFreeSlots(ctx context.Context, trainerID int64, date string, durationMinutes int) (*dto.FreeSlotsResponse, error) {
	if _, err := s.getTrainer(ctx, trainerID); err != nil {
		return nil, err
	}

	day, err := helpers.ParseDate(date)
	if err != nil {
		return nil, apperrors.NewBadRequestError("date must be formatted as YYYY-MM-DD")
	}
	if durationMinutes == 0 {
		durationMinutes = defaultSlotMinutes
	}
	if durationMinutes < minSessionMinutes || durationMinutes > maxSessionMinutes {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("duration must be between %d and %d minutes", minSessionMinutes, maxSessionMinutes))
	}

	availability, err := s.sessionRepo.ListAvailability(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	booked, err := s.sessionRepo.ListScheduledForTrainer(ctx, trainerID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &dto.FreeSlotsResponse{
		TrainerID:       trainerID,
		Date:            date,
		DurationMinutes: durationMinutes,
		Slots:           freeSlots(day, availability, sessionRanges(booked), time.Duration(durationMinutes)*time.Minute, s.now()),
	}, nil
}

// CreateSession books a trainer. The trainer row is locked while the slot is
// checked so two bookings of the same time cannot both succeed.
func (s *sessionServiceImpl) CreateSession(ctx context.Context, learnerID int64, req *dto.CreateSessionRequest) (*models.Session, error) {
	if req.TrainerID == learnerID {
		return nil, apperrors.NewBadRequestError("You cannot book a session with yourself")
	}
	if _, err := s.getTrainer(ctx, req.TrainerID); err != nil {
		return nil, err
	}

	start := req.StartTime.UTC()
	if !start.After(s.now()) {
		return nil, apperrors.NewBadRequestError("Session must start in the future")
	}

	maxParticipants := 1
	if req.Type == models.SessionGroup {
		maxParticipants = req.MaxParticipants
		if maxParticipants == 0 {
			maxParticipants = defaultGroupSize
		}
		if maxParticipants < 2 {
			return nil, apperrors.NewBadRequestError("Group sessions need room for at least two participants")
		}
	}

	session := &models.Session{
		TrainerID:       req.TrainerID,
		LearnerID:       learnerID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		Type:            req.Type,
		StartTime:       start,
		DurationMinutes: req.DurationMinutes,
		MaxParticipants: maxParticipants,
		Price:           req.Price,
		Status:          models.SessionScheduled,
		PaymentStatus:   models.PaymentPending,
		MeetingLink:     meetingLinkBase + s.newID(),
	}
	requested := models.TimeRange{Start: session.StartTime, End: session.EndTime()}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.LockForUpdate(ctx, req.TrainerID); err != nil {
			return err
		}

		availability, err := s.sessionRepo.ListAvailability(ctx, req.TrainerID)
		if err != nil {
			return err
		}
		if len(availability) > 0 && !withinAvailability(availability, requested) {
			return apperrors.NewBadRequestError("Requested time is outside the trainer's availability")
		}

		booked, err := s.sessionRepo.ListScheduledForTrainer(ctx, req.TrainerID, requested.Start, requested.End)
		if err != nil {
			return err
		}
		if overlapsAny(requested, sessionRanges(booked)) {
			return apperrors.NewCustomError(apperrors.ErrSessionOverlap, "The trainer is already booked at this time")
		}

		return s.sessionRepo.Create(ctx, session)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("sessionID", session.ID).
		Int64("trainerID", session.TrainerID).
		Int64("learnerID", learnerID).
		Time("startTime", session.StartTime).
		Msg("Session booked")
	return session, nil
}

// ListSessions lists the caller's sessions as trainer or as attendee
func (s *sessionServiceImpl) ListSessions(ctx context.Context, userID int64, filter *dto.SessionFilterRequest) ([]*models.Session, error) {
	repoFilter := repositories.SessionFilter{Status: filter.Status}
	if filter.Role == "trainer" {
		repoFilter.TrainerID = &userID
	} else {
		repoFilter.AttendeeID = &userID
	}

	sessions, err := s.sessionRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns a session. One-on-one sessions are private to their
// trainer and booker; group sessions are visible so learners can join.
func (s *sessionServiceImpl) GetSession(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Type == models.SessionOneOnOne && session.TrainerID != userID && !session.Attendee(userID) {
		return nil, apperrors.NewForbiddenError("You are not part of this session")
	}
	return session, nil
}

// JoinSession adds the caller to a group session roster
func (s *sessionServiceImpl) JoinSession(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	var session *models.Session

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.sessionRepo.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		if session.Type != models.SessionGroup {
			return apperrors.NewBadRequestError("Only group sessions can be joined")
		}
		if session.Status != models.SessionScheduled {
			return apperrors.NewCustomError(apperrors.ErrInvalidTransition, "Only scheduled sessions can be joined")
		}
		if session.TrainerID == userID || session.Attendee(userID) {
			return apperrors.NewCustomError(apperrors.ErrAlreadyJoined, "You are already part of this session")
		}
		// The booker takes one seat.
		if 1+len(session.Participants) >= session.MaxParticipants {
			return apperrors.NewCustomError(apperrors.ErrSessionFull, "Session is full")
		}

		if err := s.sessionRepo.AddParticipant(ctx, sessionID, userID); err != nil {
			return err
		}
		session.Participants = append(session.Participants, userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// CompleteSession marks a scheduled session completed; trainer only
func (s *sessionServiceImpl) CompleteSession(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	return s.transition(ctx, sessionID, func(session *models.Session) (models.SessionStatus, models.PaymentStatus, error) {
		if session.TrainerID != userID {
			return "", "", apperrors.NewForbiddenError("Only the trainer can complete a session")
		}
		return models.SessionCompleted, session.PaymentStatus, nil
	})
}

// CancelSession cancels a scheduled session and refunds a paid one; trainer or booker only
func (s *sessionServiceImpl) CancelSession(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	return s.transition(ctx, sessionID, func(session *models.Session) (models.SessionStatus, models.PaymentStatus, error) {
		if session.TrainerID != userID && session.LearnerID != userID {
			return "", "", apperrors.NewForbiddenError("Only the trainer or the booker can cancel a session")
		}
		payment := session.PaymentStatus
		if payment == models.PaymentPaid {
			payment = models.PaymentRefunded
		}
		return models.SessionCancelled, payment, nil
	})
}

func (s *sessionServiceImpl) transition(
	ctx context.Context,
	sessionID int64,
	next func(*models.Session) (models.SessionStatus, models.PaymentStatus, error),
) (*models.Session, error) {
	var session *models.Session

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.sessionRepo.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		status, payment, err := next(session)
		if err != nil {
			return err
		}
		if session.Status != models.SessionScheduled {
			return apperrors.NewCustomError(apperrors.ErrInvalidTransition,
				fmt.Sprintf("Session is %s and can no longer change", session.Status))
		}

		if err := s.sessionRepo.UpdateStatus(ctx, sessionID, status, payment); err != nil {
			return err
		}
		session.Status = status
		session.PaymentStatus = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("sessionID", sessionID).
		Str("status", string(session.Status)).
		Str("paymentStatus", string(session.PaymentStatus)).
		Msg("Session status changed")
	return session, nil
}

// PaySession records a mock payment; booker only
func (s *sessionServiceImpl) PaySession(ctx context.Context, sessionID, userID int64) (*models.Session, error) {
	var session *models.Session

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.sessionRepo.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		if session.LearnerID != userID {
			return apperrors.NewForbiddenError("Only the booker can pay for a session")
		}
		if session.Status == models.SessionCancelled {
			return apperrors.NewBadRequestError("Cancelled sessions cannot be paid")
		}
		if session.PaymentStatus != models.PaymentPending {
			return apperrors.NewBadRequestError(fmt.Sprintf("Payment is already %s", session.PaymentStatus))
		}

		reference := paymentReferencePrefix + s.newID()
		if err := s.sessionRepo.MarkPaid(ctx, sessionID, reference); err != nil {
			return err
		}
		session.PaymentStatus = models.PaymentPaid
		session.PaymentReference = &reference
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("sessionID", sessionID).Msg("Session paid")
	return session, nil
}

// RateSession reviews a completed session. The trainer's running average is
// updated in the same transaction as the rating insert.
func (s *sessionServiceImpl) RateSession(ctx context.Context, sessionID, userID int64, req *dto.RateSessionRequest) (*models.Rating, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperrors.NewBadRequestError("Rating must be between 1 and 5")
	}

	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Attendee(userID) {
		return nil, apperrors.NewForbiddenError("Only attendees can rate a session")
	}
	if session.Status != models.SessionCompleted {
		return nil, apperrors.NewBadRequestError("Only completed sessions can be rated")
	}

	rating := &models.Rating{
		SessionID: sessionID,
		LearnerID: userID,
		TrainerID: session.TrainerID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.sessionRepo.CreateRating(ctx, rating); err != nil {
			return err
		}
		return s.userRepo.RefreshRating(ctx, session.TrainerID)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyRated) {
			return nil, apperrors.NewCustomError(apperrors.ErrAlreadyRated, "You have already rated this session")
		}
		return nil, err
	}

	s.logger.Info().Int64("sessionID", sessionID).Int64("trainerID", session.TrainerID).Int("rating", req.Rating).Msg("Session rated")
	return rating, nil
}
