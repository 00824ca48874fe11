package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/db"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/dberrors"
)

var activityColumns = []string{
	"a.id", "a.hub_id", "a.created_by", "a.title", "a.description", "a.type",
	"a.start_time", "a.end_time", "a.questions", "a.created_at", "a.updated_at",
}

// ActivityFilter narrows activity listings
type ActivityFilter struct {
	HubID    int64
	Type     models.ActivityType
	MemberID *int64 // only activities of hubs this user belongs to
}

// ActivityRepository handles activities and participations
type ActivityRepository struct {
	baseRepository
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(pool db.DBTX) *ActivityRepository {
	return &ActivityRepository{baseRepository: newBaseRepository(pool)}
}

func scanActivity(row pgx.Row) (*models.Activity, error) {
	var (
		a         models.Activity
		questions []byte
	)
	err := row.Scan(&a.ID, &a.HubID, &a.CreatedBy, &a.Title, &a.Description, &a.Type,
		&a.StartTime, &a.EndTime, &questions, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &a.Questions); err != nil {
		return nil, fmt.Errorf("error decoding questions: %w", err)
	}
	return &a, nil
}

// Create inserts an activity
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	questions, err := toJSONB(activity.Questions)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("activities").
		Columns("hub_id", "created_by", "title", "description", "type", "start_time", "end_time", "questions").
		Values(activity.HubID, activity.CreatedBy, activity.Title, activity.Description, activity.Type,
			activity.StartTime, activity.EndTime, questions).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&activity.ID, &activity.CreatedAt, &activity.UpdatedAt); err != nil {
		return fmt.Errorf("error creating activity: %w", err)
	}
	return nil
}

// GetByID retrieves an activity by ID
func (r *ActivityRepository) GetByID(ctx context.Context, id int64) (*models.Activity, error) {
	sql, args, err := r.sb.Select(activityColumns...).From("activities a").Where(squirrel.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	activity, err := scanActivity(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrActivityNotFound
		}
		return nil, fmt.Errorf("error getting activity: %w", err)
	}
	return activity, nil
}

// List retrieves activities, soonest first
func (r *ActivityRepository) List(ctx context.Context, filter ActivityFilter) ([]*models.Activity, error) {
	q := r.sb.Select(activityColumns...).From("activities a")
	if filter.HubID > 0 {
		q = q.Where(squirrel.Eq{"a.hub_id": filter.HubID})
	}
	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"a.type": filter.Type})
	}
	if filter.MemberID != nil {
		q = q.Join("hub_members m ON m.hub_id = a.hub_id").Where(squirrel.Eq{"m.user_id": *filter.MemberID})
	}

	sql, args, err := q.OrderBy("a.start_time ASC", "a.id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing activities: %w", err)
	}
	activities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Activity, error) {
		return scanActivity(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning activities: %w", err)
	}
	return activities, nil
}

// CreateParticipation records a scored submission
func (r *ActivityRepository) CreateParticipation(ctx context.Context, p *models.Participation) error {
	answers, err := toJSONB(p.Answers)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("activity_participations").
		Columns("activity_id", "user_id", "answers", "score").
		Values(p.ActivityID, p.UserID, answers, p.Score).
		Suffix("RETURNING id, completed_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&p.ID, &p.CompletedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.ParticipationsUniqueUser) {
			return apperrors.ErrAlreadyParticipated
		}
		return fmt.Errorf("error creating participation: %w", err)
	}
	return nil
}

// HasParticipated reports whether the user already submitted for the activity
func (r *ActivityRepository) HasParticipated(ctx context.Context, activityID, userID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM activity_participations WHERE activity_id = $1 AND user_id = $2)`,
		activityID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking participation: %w", err)
	}
	return exists, nil
}

// activityLeaderboardQuery orders participations by score. Ties go to the
// earliest submission.
func (r *ActivityRepository) activityLeaderboardQuery(activityID int64, limit int) squirrel.SelectBuilder {
	return r.sb.Select("p.id", "p.activity_id", "p.user_id", "u.name", "p.answers", "p.score", "p.completed_at").
		From("activity_participations p").
		Join("users u ON u.id = p.user_id").
		Where(squirrel.Eq{"p.activity_id": activityID}).
		OrderBy("p.score DESC", "p.completed_at ASC", "p.id ASC").
		Limit(uint64(limit))
}

// Leaderboard returns the top participations of an activity
func (r *ActivityRepository) Leaderboard(ctx context.Context, activityID int64, limit int) ([]*models.Participation, error) {
	sql, args, err := r.activityLeaderboardQuery(activityID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying activity leaderboard: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Participation, error) {
		var (
			p       models.Participation
			answers []byte
		)
		if err := row.Scan(&p.ID, &p.ActivityID, &p.UserID, &p.UserName, &answers, &p.Score, &p.CompletedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answers, &p.Answers); err != nil {
			return nil, fmt.Errorf("error decoding answers: %w", err)
		}
		return &p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning activity leaderboard: %w", err)
	}
	return entries, nil
}
