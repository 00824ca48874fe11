package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/db"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/dberrors"
)

var sessionColumns = []string{
	"s.id", "s.trainer_id", "s.learner_id", "s.title", "s.description", "s.type", "s.start_time",
	"s.duration_minutes", "s.max_participants", "s.price", "s.status", "s.payment_status",
	"s.payment_reference", "s.meeting_link", "s.created_at", "s.updated_at",
}

// SessionFilter narrows session listings
type SessionFilter struct {
	TrainerID  *int64
	AttendeeID *int64 // booker or roster participant
	Status     models.SessionStatus
}

// SessionRepository handles sessions, their rosters, availability and ratings
type SessionRepository struct {
	baseRepository
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(pool db.DBTX) *SessionRepository {
	return &SessionRepository{baseRepository: newBaseRepository(pool)}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.TrainerID, &s.LearnerID, &s.Title, &s.Description, &s.Type, &s.StartTime,
		&s.DurationMinutes, &s.MaxParticipants, &s.Price, &s.Status, &s.PaymentStatus,
		&s.PaymentReference, &s.MeetingLink, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a session
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	sql, args, err := r.sb.Insert("sessions").
		Columns("trainer_id", "learner_id", "title", "description", "type", "start_time",
			"duration_minutes", "max_participants", "price", "status", "payment_status", "meeting_link").
		Values(s.TrainerID, s.LearnerID, s.Title, s.Description, s.Type, s.StartTime,
			s.DurationMinutes, s.MaxParticipants, s.Price, s.Status, s.PaymentStatus, s.MeetingLink).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return fmt.Errorf("error creating session: %w", err)
	}
	return nil
}

func (r *SessionRepository) get(ctx context.Context, id int64, forUpdate bool) (*models.Session, error) {
	q := r.sb.Select(sessionColumns...).From("sessions s").Where(squirrel.Eq{"s.id": id})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	s, err := scanSession(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	if s.Participants, err = r.participants(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session with its roster
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a session and locks its row for the current transaction
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Session, error) {
	return r.get(ctx, id, true)
}

func (r *SessionRepository) participants(ctx context.Context, sessionID int64) ([]int64, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT user_id FROM session_participants WHERE session_id = $1 ORDER BY joined_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("error scanning participants: %w", err)
	}
	return ids, nil
}

// List retrieves sessions, upcoming first
func (r *SessionRepository) List(ctx context.Context, filter SessionFilter) ([]*models.Session, error) {
	q := r.sb.Select(sessionColumns...).From("sessions s")
	if filter.TrainerID != nil {
		q = q.Where(squirrel.Eq{"s.trainer_id": *filter.TrainerID})
	}
	if filter.AttendeeID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"s.learner_id": *filter.AttendeeID},
			squirrel.Expr("s.id IN (SELECT session_id FROM session_participants WHERE user_id = ?)", *filter.AttendeeID),
		})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"s.status": filter.Status})
	}

	sql, args, err := q.OrderBy("s.start_time ASC", "s.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Session, error) {
		return scanSession(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning sessions: %w", err)
	}
	return sessions, nil
}

// ListScheduledForTrainer returns scheduled sessions of a trainer that start before to
// and end after from.
func (r *SessionRepository) ListScheduledForTrainer(ctx context.Context, trainerID int64, from, to time.Time) ([]*models.Session, error) {
	sql, args, err := r.sb.Select(sessionColumns...).
		From("sessions s").
		Where(squirrel.Eq{"s.trainer_id": trainerID, "s.status": models.SessionScheduled}).
		Where(squirrel.Lt{"s.start_time": to}).
		Where(squirrel.Expr("s.start_time + make_interval(mins => s.duration_minutes) > ?", from)).
		OrderBy("s.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing trainer sessions: %w", err)
	}
	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Session, error) {
		return scanSession(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning trainer sessions: %w", err)
	}
	return sessions, nil
}

// UpdateStatus sets lifecycle and payment state together
func (r *SessionRepository) UpdateStatus(ctx context.Context, id int64, status models.SessionStatus, payment models.PaymentStatus) error {
	sql, args, err := r.sb.Update("sessions").
		Set("status", status).
		Set("payment_status", payment).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// MarkPaid records a mock payment
func (r *SessionRepository) MarkPaid(ctx context.Context, id int64, reference string) error {
	sql, args, err := r.sb.Update("sessions").
		Set("payment_status", models.PaymentPaid).
		Set("payment_reference", reference).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error marking session paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

// AddParticipant adds a learner to a group session roster
func (r *SessionRepository) AddParticipant(ctx context.Context, sessionID, userID int64) error {
	sql, args, err := r.sb.Insert("session_participants").
		Columns("session_id", "user_id").
		Values(sessionID, userID).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.SessionParticipantsPkey) {
			return apperrors.ErrAlreadyJoined
		}
		return fmt.Errorf("error adding participant: %w", err)
	}
	return nil
}

// ReplaceAvailability swaps a trainer's weekly availability for slots
func (r *SessionRepository) ReplaceAvailability(ctx context.Context, trainerID int64, slots []models.AvailabilitySlot) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM trainer_availability WHERE trainer_id = $1`, trainerID); err != nil {
		return fmt.Errorf("error clearing availability: %w", err)
	}
	if len(slots) == 0 {
		return nil
	}

	q := r.sb.Insert("trainer_availability").Columns("trainer_id", "day_of_week", "start_time", "end_time")
	for _, s := range slots {
		q = q.Values(trainerID, s.DayOfWeek, s.StartTime, s.EndTime)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error inserting availability: %w", err)
	}
	return nil
}

// ListAvailability returns a trainer's weekly availability ordered by day and start
func (r *SessionRepository) ListAvailability(ctx context.Context, trainerID int64) ([]models.AvailabilitySlot, error) {
	sql, args, err := r.sb.Select("id", "trainer_id", "day_of_week", "start_time", "end_time").
		From("trainer_availability").
		Where(squirrel.Eq{"trainer_id": trainerID}).
		OrderBy("day_of_week", "start_time").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing availability: %w", err)
	}
	slots, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AvailabilitySlot, error) {
		var s models.AvailabilitySlot
		err := row.Scan(&s.ID, &s.TrainerID, &s.DayOfWeek, &s.StartTime, &s.EndTime)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning availability: %w", err)
	}
	return slots, nil
}

// CreateRating stores a review
func (r *SessionRepository) CreateRating(ctx context.Context, rating *models.Rating) error {
	sql, args, err := r.sb.Insert("ratings").
		Columns("session_id", "learner_id", "trainer_id", "rating", "comment").
		Values(rating.SessionID, rating.LearnerID, rating.TrainerID, rating.Rating, rating.Comment).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&rating.ID, &rating.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.RatingsUniqueLearner) {
			return apperrors.ErrAlreadyRated
		}
		return fmt.Errorf("error creating rating: %w", err)
	}
	return nil
}

// ListRatingsForTrainer returns a trainer's most recent reviews
func (r *SessionRepository) ListRatingsForTrainer(ctx context.Context, trainerID int64, limit int) ([]*models.Rating, error) {
	sql, args, err := r.sb.Select("id", "session_id", "learner_id", "trainer_id", "rating", "comment", "created_at").
		From("ratings").
		Where(squirrel.Eq{"trainer_id": trainerID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing ratings: %w", err)
	}
	ratings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Rating, error) {
		var rt models.Rating
		err := row.Scan(&rt.ID, &rt.SessionID, &rt.LearnerID, &rt.TrainerID, &rt.Rating, &rt.Comment, &rt.CreatedAt)
		return &rt, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning ratings: %w", err)
	}
	return ratings, nil
}
