package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/db"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/dberrors"
)

var userColumns = []string{
	"id", "name", "email", "password", "role", "bio",
	"points", "rating_average", "rating_count", "created_at", "updated_at",
}

// UserRepository handles database operations for users
type UserRepository struct {
	baseRepository
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool db.DBTX) *UserRepository {
	return &UserRepository{baseRepository: newBaseRepository(pool)}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Bio,
		&u.Points, &u.RatingAverage, &u.RatingCount, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and fills its generated fields
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("name", "email", "password", "role", "bio").
		Values(user.Name, user.Email, user.Password, user.Role, user.Bio).
		Suffix("RETURNING id, points, rating_average, rating_count, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = r.conn(ctx).QueryRow(ctx, sql, args...).
		Scan(&user.ID, &user.Points, &user.RatingAverage, &user.RatingCount, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.UsersEmailKey) {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	user, err := scanUser(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// UpdateProfile updates the editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, name string, bio *string) error {
	sql, args, err := r.sb.Update("users").
		Set("name", name).
		Set("bio", bio).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// AddPoints increments a user's global points and returns the new total
func (r *UserRepository) AddPoints(ctx context.Context, id int64, delta int) (int64, error) {
	sql, args, err := r.sb.Update("users").
		Set("points", squirrel.Expr("points + ?", delta)).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING points").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building SQL: %w", err)
	}

	var total int64
	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrUserNotFound
		}
		return 0, fmt.Errorf("error adding points: %w", err)
	}
	return total, nil
}

// TopByPoints returns the global leaderboard
func (r *UserRepository) TopByPoints(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	sql, args, err := r.sb.Select("id", "name", "points").
		From("users").
		Where(squirrel.Gt{"points": 0}).
		OrderBy("points DESC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying leaderboard: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LeaderboardEntry, error) {
		var e models.LeaderboardEntry
		err := row.Scan(&e.UserID, &e.Name, &e.Points)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning leaderboard: %w", err)
	}
	return rankEntries(entries), nil
}

// ListTrainers returns trainers ordered by rating
func (r *UserRepository) ListTrainers(ctx context.Context, offset, limit uint64) ([]*models.User, int64, error) {
	sql, args, err := r.sb.Select(append(userColumns, "COUNT(*) OVER()")...).
		From("users").
		Where(squirrel.Eq{"role": models.RoleTrainer}).
		OrderBy("rating_average DESC", "rating_count DESC", "id ASC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing trainers: %w", err)
	}
	defer rows.Close()

	var (
		users []*models.User
		total int64
	)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Bio,
			&u.Points, &u.RatingAverage, &u.RatingCount, &u.CreatedAt, &u.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("error scanning trainer: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating trainers: %w", err)
	}
	return users, total, nil
}

// refreshRatingQuery recomputes the trainer's average and count from the
// ratings table.
func (r *UserRepository) refreshRatingQuery(trainerID int64) squirrel.UpdateBuilder {
	return r.sb.Update("users").
		Set("rating_average", squirrel.Expr("COALESCE((SELECT ROUND(AVG(rating), 2) FROM ratings WHERE trainer_id = ?), 0)", trainerID)).
		Set("rating_count", squirrel.Expr("(SELECT COUNT(*) FROM ratings WHERE trainer_id = ?)", trainerID)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": trainerID})
}

// RefreshRating updates the trainer's rating aggregate. Run it in the
// transaction that inserted the rating.
func (r *UserRepository) RefreshRating(ctx context.Context, trainerID int64) error {
	sql, args, err := r.refreshRatingQuery(trainerID).ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error refreshing rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// LockForUpdate takes a row lock on the user for the rest of the transaction
func (r *UserRepository) LockForUpdate(ctx context.Context, id int64) error {
	var locked int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("error locking user: %w", err)
	}
	return nil
}

// rankEntries assigns 1-based ranks in slice order.
func rankEntries(entries []models.LeaderboardEntry) []models.LeaderboardEntry {
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
