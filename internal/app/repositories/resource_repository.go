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
)

var resourceColumns = []string{
	"id", "hub_id", "uploaded_by", "file_name", "file_path", "file_url", "file_size", "mime_type", "created_at",
}

// ResourceRepository handles files shared in hubs
type ResourceRepository struct {
	baseRepository
}

// NewResourceRepository creates a new ResourceRepository
func NewResourceRepository(pool db.DBTX) *ResourceRepository {
	return &ResourceRepository{baseRepository: newBaseRepository(pool)}
}

func scanResource(row pgx.Row) (*models.HubResource, error) {
	var f models.HubResource
	err := row.Scan(&f.ID, &f.HubID, &f.UploadedBy, &f.FileName, &f.FilePath, &f.FileURL, &f.FileSize, &f.MimeType, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create stores file metadata
func (r *ResourceRepository) Create(ctx context.Context, f *models.HubResource) error {
	sql, args, err := r.sb.Insert("hub_resources").
		Columns("hub_id", "uploaded_by", "file_name", "file_path", "file_url", "file_size", "mime_type").
		Values(f.HubID, f.UploadedBy, f.FileName, f.FilePath, f.FileURL, f.FileSize, f.MimeType).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.conn(ctx).QueryRow(ctx, sql, args...).Scan(&f.ID, &f.CreatedAt); err != nil {
		return fmt.Errorf("error creating resource: %w", err)
	}
	return nil
}

// GetByID retrieves file metadata by ID
func (r *ResourceRepository) GetByID(ctx context.Context, id int64) (*models.HubResource, error) {
	sql, args, err := r.sb.Select(resourceColumns...).From("hub_resources").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	f, err := scanResource(r.conn(ctx).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrFileNotFound
		}
		return nil, fmt.Errorf("error getting resource: %w", err)
	}
	return f, nil
}

// ListByHub lists a hub's files, newest first
func (r *ResourceRepository) ListByHub(ctx context.Context, hubID int64) ([]*models.HubResource, error) {
	sql, args, err := r.sb.Select(resourceColumns...).
		From("hub_resources").
		Where(squirrel.Eq{"hub_id": hubID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing resources: %w", err)
	}
	files, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.HubResource, error) {
		return scanResource(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning resources: %w", err)
	}
	return files, nil
}

// Delete removes file metadata
func (r *ResourceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM hub_resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrFileNotFound
	}
	return nil
}
