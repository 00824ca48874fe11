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

var hubColumns = []string{
	"h.id", "h.name", "h.description", "h.category", "h.privacy",
	"h.created_by", "h.total_members", "h.created_at", "h.updated_at",
}

// HubFilter narrows hub listings
type HubFilter struct {
	Search   string
	Category string
	MemberID *int64 // only hubs this user belongs to
}

// HubRepository handles hubs, their memberships and join requests
type HubRepository struct {
	baseRepository
}

// NewHubRepository creates a new HubRepository
func NewHubRepository(pool db.DBTX) *HubRepository {
	return &HubRepository{baseRepository: newBaseRepository(pool)}
}

func scanHub(row pgx.Row, extra ...any) (*models.LearnerHub, error) {
	var h models.LearnerHub
	dest := append([]any{&h.ID, &h.Name, &h.Description, &h.Category, &h.Privacy,
		&h.CreatedBy, &h.TotalMembers, &h.CreatedAt, &h.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &h, nil
}

// Create inserts a hub
func (r *HubRepository) Create(ctx context.Context, hub *models.LearnerHub) error {
	sql, args, err := r.sb.Insert("hubs").
		Columns("name", "description", "category", "privacy", "created_by").
		Values(hub.Name, hub.Description, hub.Category, hub.Privacy, hub.CreatedBy).
		Suffix("RETURNING id, total_members, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	err = r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&hub.ID, &hub.TotalMembers, &hub.CreatedAt, &hub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating hub: %w", err)
	}
	return nil
}

// GetByID retrieves a hub by ID
func (r *HubRepository) GetByID(ctx context.Context, id int64) (*models.LearnerHub, error) {
	sql, args, err := r.sb.Select(hubColumns...).From("hubs h").Where(squirrel.Eq{"h.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	hub, err := scanHub(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrHubNotFound
		}
		return nil, fmt.Errorf("error getting hub: %w", err)
	}
	return hub, nil
}

// List retrieves hubs with filtering and pagination
func (r *HubRepository) List(ctx context.Context, filter HubFilter, offset, limit uint64) ([]*models.LearnerHub, int64, error) {
	q := r.sb.Select(append(hubColumns, "COUNT(*) OVER()")...).From("hubs h")
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{squirrel.ILike{"h.name": pattern}, squirrel.ILike{"h.description": pattern}})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"h.category": filter.Category})
	}
	if filter.MemberID != nil {
		q = q.Join("hub_members m ON m.hub_id = h.id").Where(squirrel.Eq{"m.user_id": *filter.MemberID})
	}

	sql, args, err := q.OrderBy("h.total_members DESC", "h.id ASC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing hubs: %w", err)
	}
	defer rows.Close()

	var (
		hubs  []*models.LearnerHub
		total int64
	)
	for rows.Next() {
		hub, err := scanHub(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning hub: %w", err)
		}
		hubs = append(hubs, hub)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating hubs: %w", err)
	}
	return hubs, total, nil
}

// Update saves the editable hub fields
func (r *HubRepository) Update(ctx context.Context, hub *models.LearnerHub) error {
	sql, args, err := r.sb.Update("hubs").
		Set("name", hub.Name).
		Set("description", hub.Description).
		Set("category", hub.Category).
		Set("privacy", hub.Privacy).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": hub.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&hub.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrHubNotFound
		}
		return fmt.Errorf("error updating hub: %w", err)
	}
	return nil
}

// Delete removes a hub and, by cascade, everything it owns
func (r *HubRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM hubs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting hub: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrHubNotFound
	}
	return nil
}

// GetMemberRole returns the user's role in the hub; ok is false for non-members
func (r *HubRepository) GetMemberRole(ctx context.Context, hubID, userID int64) (role models.HubRole, ok bool, err error) {
	sql, args, err := r.sb.Select("role").
		From("hub_members").
		Where(squirrel.Eq{"hub_id": hubID, "user_id": userID}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error getting member role: %w", err)
	}
	return role, true, nil
}

// AddMember inserts a membership row
func (r *HubRepository) AddMember(ctx context.Context, hubID, userID int64, role models.HubRole) error {
	sql, args, err := r.sb.Insert("hub_members").
		Columns("hub_id", "user_id", "role").
		Values(hubID, userID, role).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.HubMembersPkey) {
			return apperrors.ErrAlreadyMember
		}
		return fmt.Errorf("error adding member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row
func (r *HubRepository) RemoveMember(ctx context.Context, hubID, userID int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM hub_members WHERE hub_id = $1 AND user_id = $2`, hubID, userID)
	if err != nil {
		return fmt.Errorf("error removing member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotMember
	}
	return nil
}

// UpdateMemberRole changes a member's role
func (r *HubRepository) UpdateMemberRole(ctx context.Context, hubID, userID int64, role models.HubRole) error {
	sql, args, err := r.sb.Update("hub_members").
		Set("role", role).
		Where(squirrel.Eq{"hub_id": hubID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotMember
	}
	return nil
}

// CountAdmins counts members with the admin role
func (r *HubRepository) CountAdmins(ctx context.Context, hubID int64) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hub_members WHERE hub_id = $1 AND role = $2`, hubID, models.HubRoleAdmin).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting admins: %w", err)
	}
	return n, nil
}

// RecountMembers sets total_members from the membership table and returns it.
// It also locks the hub row for the rest of the transaction.
func (r *HubRepository) RecountMembers(ctx context.Context, hubID int64) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE hubs
		SET total_members = (SELECT COUNT(*) FROM hub_members WHERE hub_id = $1), updated_at = NOW()
		WHERE id = $1
		RETURNING total_members`, hubID).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrHubNotFound
		}
		return 0, fmt.Errorf("error recounting members: %w", err)
	}
	return n, nil
}

// ListMembers lists members with their names, admins first
func (r *HubRepository) ListMembers(ctx context.Context, hubID int64) ([]*models.HubMember, error) {
	sql, args, err := r.sb.Select("m.hub_id", "m.user_id", "u.name", "m.role", "m.joined_at").
		From("hub_members m").
		Join("users u ON u.id = m.user_id").
		Where(squirrel.Eq{"m.hub_id": hubID}).
		OrderBy("CASE m.role WHEN 'admin' THEN 0 WHEN 'moderator' THEN 1 ELSE 2 END", "m.joined_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing members: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.HubMember, error) {
		var m models.HubMember
		err := row.Scan(&m.HubID, &m.UserID, &m.UserName, &m.Role, &m.JoinedAt)
		return &m, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning members: %w", err)
	}
	return members, nil
}

// CreateJoinRequest queues a request to join a private hub
func (r *HubRepository) CreateJoinRequest(ctx context.Context, hubID, userID int64, message string) error {
	sql, args, err := r.sb.Insert("hub_join_requests").
		Columns("hub_id", "user_id", "message").
		Values(hubID, userID, message).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.HubJoinRequestsPkey) {
			return apperrors.ErrRequestPending
		}
		return fmt.Errorf("error creating join request: %w", err)
	}
	return nil
}

// DeleteJoinRequest removes a pending request
func (r *HubRepository) DeleteJoinRequest(ctx context.Context, hubID, userID int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM hub_join_requests WHERE hub_id = $1 AND user_id = $2`, hubID, userID)
	if err != nil {
		return fmt.Errorf("error deleting join request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRequestNotFound
	}
	return nil
}

// ListJoinRequests lists pending requests, oldest first
func (r *HubRepository) ListJoinRequests(ctx context.Context, hubID int64) ([]*models.HubJoinRequest, error) {
	sql, args, err := r.sb.Select("jr.hub_id", "jr.user_id", "u.name", "jr.message", "jr.requested_at").
		From("hub_join_requests jr").
		Join("users u ON u.id = jr.user_id").
		Where(squirrel.Eq{"jr.hub_id": hubID}).
		OrderBy("jr.requested_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing join requests: %w", err)
	}
	reqs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.HubJoinRequest, error) {
		var jr models.HubJoinRequest
		err := row.Scan(&jr.HubID, &jr.UserID, &jr.UserName, &jr.Message, &jr.RequestedAt)
		return &jr, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning join requests: %w", err)
	}
	return reqs, nil
}

// hubLeaderboardQuery aggregates participation history of the hub's activities.
// Ties go to whoever completed their first activity earliest.
func (r *HubRepository) hubLeaderboardQuery(hubID int64, limit int) squirrel.SelectBuilder {
	return r.sb.Select("u.id", "u.name", "SUM(p.score) AS points", "MIN(p.completed_at) AS first_completed").
		From("activity_participations p").
		Join("activities a ON a.id = p.activity_id").
		Join("users u ON u.id = p.user_id").
		Where(squirrel.Eq{"a.hub_id": hubID}).
		GroupBy("u.id", "u.name").
		OrderBy("points DESC", "first_completed ASC", "u.id ASC").
		Limit(uint64(limit))
}

// Leaderboard returns the hub leaderboard derived from participations
func (r *HubRepository) Leaderboard(ctx context.Context, hubID int64, limit int) ([]models.LeaderboardEntry, error) {
	sql, args, err := r.hubLeaderboardQuery(hubID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying hub leaderboard: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LeaderboardEntry, error) {
		var e models.LeaderboardEntry
		err := row.Scan(&e.UserID, &e.Name, &e.Points, &e.CompletedAt)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning hub leaderboard: %w", err)
	}
	return rankEntries(entries), nil
}
