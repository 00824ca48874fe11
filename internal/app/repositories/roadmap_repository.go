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

var roadmapColumns = []string{
	"id", "title", "description", "category", "difficulty", "is_template", "adopted_from",
	"created_by", "used_by", "generated_by_ai", "milestones", "created_at", "updated_at",
}

// RoadmapFilter narrows roadmap listings
type RoadmapFilter struct {
	IsTemplate *bool
	OwnerID    *int64
	Category   string
}

// RoadmapRepository handles roadmaps and their adoption lineage
type RoadmapRepository struct {
	baseRepository
}

// NewRoadmapRepository creates a new RoadmapRepository
func NewRoadmapRepository(pool db.DBTX) *RoadmapRepository {
	return &RoadmapRepository{baseRepository: newBaseRepository(pool)}
}

func scanRoadmap(row pgx.Row) (*models.Roadmap, error) {
	var (
		rm         models.Roadmap
		milestones []byte
	)
	err := row.Scan(&rm.ID, &rm.Title, &rm.Description, &rm.Category, &rm.Difficulty, &rm.IsTemplate,
		&rm.AdoptedFrom, &rm.CreatedBy, &rm.UsedBy, &rm.GeneratedByAI, &milestones, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(milestones, &rm.Milestones); err != nil {
		return nil, fmt.Errorf("error decoding milestones: %w", err)
	}
	return &rm, nil
}

// Create inserts a roadmap
func (r *RoadmapRepository) Create(ctx context.Context, rm *models.Roadmap) error {
	milestones, err := toJSONB(rm.Milestones)
	if err != nil {
		return err
	}

	sql, args, err := r.sb.Insert("roadmaps").
		Columns("title", "description", "category", "difficulty", "is_template", "adopted_from",
			"created_by", "generated_by_ai", "milestones").
		Values(rm.Title, rm.Description, rm.Category, rm.Difficulty, rm.IsTemplate, rm.AdoptedFrom,
			rm.CreatedBy, rm.GeneratedByAI, milestones).
		Suffix("RETURNING id, used_by, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&rm.ID, &rm.UsedBy, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return fmt.Errorf("error creating roadmap: %w", err)
	}
	return nil
}

func (r *RoadmapRepository) get(ctx context.Context, id int64, forUpdate bool) (*models.Roadmap, error) {
	q := r.sb.Select(roadmapColumns...).From("roadmaps").Where(squirrel.Eq{"id": id})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rm, err := scanRoadmap(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRoadmapNotFound
		}
		return nil, fmt.Errorf("error getting roadmap: %w", err)
	}
	return rm, nil
}

// GetByID retrieves a roadmap by ID
func (r *RoadmapRepository) GetByID(ctx context.Context, id int64) (*models.Roadmap, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a roadmap and locks its row for the current transaction
func (r *RoadmapRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Roadmap, error) {
	return r.get(ctx, id, true)
}

// List retrieves roadmaps, most used templates first
func (r *RoadmapRepository) List(ctx context.Context, filter RoadmapFilter, offset, limit uint64) ([]*models.Roadmap, int64, error) {
	q := r.sb.Select(append(roadmapColumns, "COUNT(*) OVER()")...).From("roadmaps")
	if filter.IsTemplate != nil {
		q = q.Where(squirrel.Eq{"is_template": *filter.IsTemplate})
	}
	if filter.OwnerID != nil {
		q = q.Where(squirrel.Eq{"created_by": *filter.OwnerID})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}

	sql, args, err := q.OrderBy("used_by DESC", "id DESC").Offset(offset).Limit(limit).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing roadmaps: %w", err)
	}
	defer rows.Close()

	var (
		roadmaps []*models.Roadmap
		total    int64
	)
	for rows.Next() {
		var (
			rm         models.Roadmap
			milestones []byte
		)
		if err := rows.Scan(&rm.ID, &rm.Title, &rm.Description, &rm.Category, &rm.Difficulty, &rm.IsTemplate,
			&rm.AdoptedFrom, &rm.CreatedBy, &rm.UsedBy, &rm.GeneratedByAI, &milestones, &rm.CreatedAt, &rm.UpdatedAt,
			&total); err != nil {
			return nil, 0, fmt.Errorf("error scanning roadmap: %w", err)
		}
		if err := json.Unmarshal(milestones, &rm.Milestones); err != nil {
			return nil, 0, fmt.Errorf("error decoding milestones: %w", err)
		}
		roadmaps = append(roadmaps, &rm)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating roadmaps: %w", err)
	}
	return roadmaps, total, nil
}

// UpdateMilestones persists the milestone/task tree of a roadmap
func (r *RoadmapRepository) UpdateMilestones(ctx context.Context, id int64, milestones []models.Milestone) error {
	data, err := toJSONB(milestones)
	if err != nil {
		return err
	}

	tag, err := r.conn(ctx).Exec(ctx, `UPDATE roadmaps SET milestones = $1, updated_at = NOW() WHERE id = $2`, data, id)
	if err != nil {
		return fmt.Errorf("error updating milestones: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRoadmapNotFound
	}
	return nil
}

// Delete removes a roadmap
func (r *RoadmapRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM roadmaps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting roadmap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRoadmapNotFound
	}
	return nil
}

// FindAdoption returns the user's instance of a template, if any
func (r *RoadmapRepository) FindAdoption(ctx context.Context, templateID, userID int64) (instanceID int64, found bool, err error) {
	err = r.conn(ctx).QueryRow(ctx,
		`SELECT instance_id FROM roadmap_adopters WHERE template_id = $1 AND user_id = $2`,
		templateID, userID).Scan(&instanceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("error finding adoption: %w", err)
	}
	return instanceID, true, nil
}

// AddAdopter links a user and their instance to a template
func (r *RoadmapRepository) AddAdopter(ctx context.Context, templateID, userID, instanceID int64) error {
	sql, args, err := r.sb.Insert("roadmap_adopters").
		Columns("template_id", "user_id", "instance_id").
		Values(templateID, userID, instanceID).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if _, err := r.conn(ctx).Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, dberrors.RoadmapAdoptersUniqueUser) {
			return apperrors.ErrAlreadyAdopted
		}
		return fmt.Errorf("error adding adopter: %w", err)
	}
	return nil
}

// RemoveAdopter unlinks a user from a template; it reports whether a row was removed
func (r *RoadmapRepository) RemoveAdopter(ctx context.Context, templateID, userID int64) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM roadmap_adopters WHERE template_id = $1 AND user_id = $2`, templateID, userID)
	if err != nil {
		return false, fmt.Errorf("error removing adopter: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// AdjustUsedBy adds delta to a template's usedBy counter, never going below zero
func (r *RoadmapRepository) AdjustUsedBy(ctx context.Context, templateID int64, delta int) (int, error) {
	var usedBy int
	err := r.conn(ctx).QueryRow(ctx,
		`UPDATE roadmaps SET used_by = GREATEST(used_by + $1, 0), updated_at = NOW() WHERE id = $2 RETURNING used_by`,
		delta, templateID).Scan(&usedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrRoadmapNotFound
		}
		return 0, fmt.Errorf("error adjusting usedBy: %w", err)
	}
	return usedBy, nil
}

// CountAdopters counts live adoptions of a template
func (r *RoadmapRepository) CountAdopters(ctx context.Context, templateID int64) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM roadmap_adopters WHERE template_id = $1`, templateID).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting adopters: %w", err)
	}
	return n, nil
}
