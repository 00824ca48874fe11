package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/yigit/peerlearn/internal/app/auth"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/filestorage"
)

// ResourceService defines the interface for files shared in hubs
type ResourceService interface {
	UploadResource(ctx context.Context, hubID, userID int64, file *multipart.FileHeader) (*models.HubResource, error)
	ListResources(ctx context.Context, hubID, userID int64) ([]*models.HubResource, error)
	DeleteResource(ctx context.Context, hubID, fileID, userID int64) error
}

// resourceServiceImpl implements ResourceService
type resourceServiceImpl struct {
	resourceRepo ResourceStore
	storage      filestorage.FileStorage
	authzService *auth.AuthorizationService
	maxBytes     int64
	logger       zerolog.Logger
}

// NewResourceService creates a new ResourceService
func NewResourceService(
	resourceRepo ResourceStore,
	storage filestorage.FileStorage,
	authzService *auth.AuthorizationService,
	maxBytes int64,
	logger zerolog.Logger,
) ResourceService {
	return &resourceServiceImpl{
		resourceRepo: resourceRepo,
		storage:      storage,
		authzService: authzService,
		maxBytes:     maxBytes,
		logger:       logger,
	}
}

// UploadResource validates and stores a .pdf or .txt file for a hub; members only
func (s *resourceServiceImpl) UploadResource(ctx context.Context, hubID, userID int64, file *multipart.FileHeader) (*models.HubResource, error) {
	if _, err := s.authzService.ValidateMember(ctx, hubID, userID); err != nil {
		return nil, err
	}

	mimeType, err := filestorage.ValidateUpload(file, s.maxBytes)
	if err != nil {
		return nil, uploadError(err)
	}

	stored, err := s.storage.SaveFileWithPath(file, fmt.Sprintf("hubs/%d", hubID))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	resource := &models.HubResource{
		HubID:      hubID,
		UploadedBy: userID,
		FileName:   filepath.Base(file.Filename),
		FilePath:   stored.Path,
		FileURL:    stored.URL,
		FileSize:   stored.Size,
		MimeType:   mimeType,
	}
	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		if delErr := s.storage.DeleteFile(stored.Path); delErr != nil {
			s.logger.Error().Err(delErr).Str("path", stored.Path).Msg("Failed to remove orphaned upload")
		}
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}

	s.logger.Info().
		Int64("fileID", resource.ID).
		Int64("hubID", hubID).
		Int64("userID", userID).
		Int64("size", resource.FileSize).
		Msg("Resource uploaded")
	return resource, nil
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, filestorage.ErrFileTooLarge):
		return apperrors.NewCustomError(apperrors.ErrFileTooLarge, err.Error())
	case errors.Is(err, filestorage.ErrUnsupportedExtension),
		errors.Is(err, filestorage.ErrMimeMismatch),
		errors.Is(err, filestorage.ErrEmptyFile):
		return apperrors.NewCustomError(apperrors.ErrInvalidFileType, err.Error())
	default:
		return fmt.Errorf("failed to validate upload: %w", err)
	}
}

// ListResources lists a hub's files; members only
func (s *resourceServiceImpl) ListResources(ctx context.Context, hubID, userID int64) ([]*models.HubResource, error) {
	if _, err := s.authzService.ValidateMember(ctx, hubID, userID); err != nil {
		return nil, err
	}
	return s.resourceRepo.ListByHub(ctx, hubID)
}

// DeleteResource removes a file; the uploader or a hub admin only
func (s *resourceServiceImpl) DeleteResource(ctx context.Context, hubID, fileID, userID int64) error {
	resource, err := s.resourceRepo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if resource.HubID != hubID {
		return apperrors.NewCustomError(apperrors.ErrFileNotFound, "File not found in this hub")
	}

	if resource.UploadedBy != userID {
		if err := s.authzService.ValidateAdmin(ctx, hubID, userID); err != nil {
			return apperrors.NewForbiddenError("Only the uploader or a hub admin can delete this file")
		}
	}

	if err := s.resourceRepo.Delete(ctx, fileID); err != nil {
		return err
	}
	if err := s.storage.DeleteFile(resource.FilePath); err != nil {
		s.logger.Error().Err(err).Str("path", resource.FilePath).Msg("Failed to delete stored file")
	}

	s.logger.Info().Int64("fileID", fileID).Int64("hubID", hubID).Int64("userID", userID).Msg("Resource deleted")
	return nil
}
