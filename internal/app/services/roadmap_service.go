package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/repositories"
	"github.com/yigit/peerlearn/internal/pkg/aiclient"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
)

// RoadmapService defines the interface for roadmap operations
type RoadmapService interface {
	CreateRoadmap(ctx context.Context, userID int64, req *dto.CreateRoadmapRequest) (*dto.RoadmapResponse, error)
	ListRoadmaps(ctx context.Context, userID int64, filter *dto.RoadmapFilterRequest, page, pageSize int) ([]*dto.RoadmapResponse, dto.PaginationInfo, error)
	GetRoadmap(ctx context.Context, roadmapID int64) (*dto.RoadmapResponse, error)
	AdoptRoadmap(ctx context.Context, templateID, userID int64) (*dto.RoadmapResponse, error)
	UpdateProgress(ctx context.Context, roadmapID, userID int64, req *dto.UpdateProgressRequest) (*dto.RoadmapResponse, error)
	DeleteRoadmap(ctx context.Context, roadmapID, userID int64) error
	GenerateRoadmap(ctx context.Context, userID int64, req *dto.GenerateRoadmapRequest) (*dto.RoadmapResponse, error)
}

// roadmapServiceImpl implements RoadmapService
type roadmapServiceImpl struct {
	roadmapRepo RoadmapStore
	tx          Transactor
	generator   aiclient.Generator
	logger      zerolog.Logger
}

// NewRoadmapService creates a new RoadmapService
func NewRoadmapService(roadmapRepo RoadmapStore, tx Transactor, generator aiclient.Generator, logger zerolog.Logger) RoadmapService {
	return &roadmapServiceImpl{
		roadmapRepo: roadmapRepo,
		tx:          tx,
		generator:   generator,
		logger:      logger,
	}
}

func toRoadmapResponse(rm *models.Roadmap) *dto.RoadmapResponse {
	return &dto.RoadmapResponse{Roadmap: rm, Progress: progressPercent(rm.Milestones)}
}

func milestonesFromRequest(req []dto.MilestoneRequest) []models.Milestone {
	out := make([]models.Milestone, 0, len(req))
	for _, m := range req {
		tasks := make([]models.Task, 0, len(m.Tasks))
		for _, t := range m.Tasks {
			tasks = append(tasks, models.Task{Title: t.Title, Description: t.Description, Resources: t.Resources})
		}
		out = append(out, models.Milestone{Title: m.Title, Description: m.Description, Tasks: tasks})
	}
	return out
}

func milestonesFromDraft(draft []aiclient.DraftMilestone) []models.Milestone {
	out := make([]models.Milestone, 0, len(draft))
	for _, m := range draft {
		tasks := make([]models.Task, 0, len(m.Tasks))
		for _, t := range m.Tasks {
			tasks = append(tasks, models.Task{Title: t.Title, Description: t.Description, Resources: t.Resources})
		}
		out = append(out, models.Milestone{Title: m.Title, Description: m.Description, Tasks: tasks})
	}
	return out
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "intermediate":
		return "intermediate"
	case "advanced":
		return "advanced"
	default:
		return "beginner"
	}
}

// CreateRoadmap creates a template or a personal roadmap
func (s *roadmapServiceImpl) CreateRoadmap(ctx context.Context, userID int64, req *dto.CreateRoadmapRequest) (*dto.RoadmapResponse, error) {
	rm := &models.Roadmap{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Difficulty:  normalizeDifficulty(req.Difficulty),
		IsTemplate:  req.IsTemplate,
		CreatedBy:   userID,
		Milestones:  milestonesFromRequest(req.Milestones),
	}

	if err := s.roadmapRepo.Create(ctx, rm); err != nil {
		return nil, fmt.Errorf("failed to create roadmap: %w", err)
	}

	s.logger.Info().Int64("roadmapID", rm.ID).Bool("template", rm.IsTemplate).Msg("Roadmap created")
	return toRoadmapResponse(rm), nil
}

// ListRoadmaps lists templates and/or the caller's roadmaps
func (s *roadmapServiceImpl) ListRoadmaps(ctx context.Context, userID int64, filter *dto.RoadmapFilterRequest, page, pageSize int) ([]*dto.RoadmapResponse, dto.PaginationInfo, error) {
	repoFilter := repositories.RoadmapFilter{
		IsTemplate: filter.Template,
		Category:   filter.Category,
	}
	if filter.Mine {
		repoFilter.OwnerID = &userID
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)
	roadmaps, total, err := s.roadmapRepo.List(ctx, repoFilter, offset, limit)
	if err != nil {
		return nil, dto.PaginationInfo{}, fmt.Errorf("failed to list roadmaps: %w", err)
	}

	out := make([]*dto.RoadmapResponse, 0, len(roadmaps))
	for _, rm := range roadmaps {
		out = append(out, toRoadmapResponse(rm))
	}
	return out, helpers.NewPaginationInfo(total, page, pageSize), nil
}

// GetRoadmap returns a roadmap with its progress
func (s *roadmapServiceImpl) GetRoadmap(ctx context.Context, roadmapID int64) (*dto.RoadmapResponse, error) {
	rm, err := s.roadmapRepo.GetByID(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	return toRoadmapResponse(rm), nil
}

// AdoptRoadmap copies a template into a personal instance for the user.
// Adopting the same template twice fails and reports the existing instance.
func (s *roadmapServiceImpl) AdoptRoadmap(ctx context.Context, templateID, userID int64) (*dto.RoadmapResponse, error) {
	var instance *models.Roadmap

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		template, err := s.roadmapRepo.GetByIDForUpdate(ctx, templateID)
		if err != nil {
			return err
		}
		if !template.IsTemplate {
			return apperrors.NewCustomError(apperrors.ErrNotTemplate, "Only templates can be adopted")
		}

		existingID, found, err := s.roadmapRepo.FindAdoption(ctx, templateID, userID)
		if err != nil {
			return err
		}
		if found {
			return alreadyAdopted(existingID)
		}

		instance = cloneForAdoption(template, userID)
		if err := s.roadmapRepo.Create(ctx, instance); err != nil {
			return err
		}
		if err := s.roadmapRepo.AddAdopter(ctx, templateID, userID, instance.ID); err != nil {
			return err
		}
		_, err = s.roadmapRepo.AdjustUsedBy(ctx, templateID, 1)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyAdopted) && apperrors.DetailsOf(err) == nil {
			// lost a race with a concurrent adoption
			if existingID, found, ferr := s.roadmapRepo.FindAdoption(ctx, templateID, userID); ferr == nil && found {
				return nil, alreadyAdopted(existingID)
			}
		}
		return nil, err
	}

	s.logger.Info().
		Int64("templateID", templateID).
		Int64("roadmapID", instance.ID).
		Int64("userID", userID).
		Msg("Roadmap adopted")
	return toRoadmapResponse(instance), nil
}

func alreadyAdopted(existingID int64) error {
	return apperrors.NewCustomError(apperrors.ErrAlreadyAdopted, "You have already adopted this roadmap").
		WithDetails(map[string]interface{}{"roadmapId": existingID})
}

// UpdateProgress flips one task or milestone flag of the caller's roadmap
func (s *roadmapServiceImpl) UpdateProgress(ctx context.Context, roadmapID, userID int64, req *dto.UpdateProgressRequest) (*dto.RoadmapResponse, error) {
	if req.MilestoneIndex == nil {
		return nil, apperrors.NewBadRequestError("milestoneIndex is required")
	}

	var rm *models.Roadmap
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		rm, err = s.roadmapRepo.GetByIDForUpdate(ctx, roadmapID)
		if err != nil {
			return err
		}
		if rm.CreatedBy != userID {
			return apperrors.NewForbiddenError("Only the owner can update progress")
		}
		if rm.IsTemplate {
			return apperrors.NewCustomError(apperrors.ErrTemplateImmutable, "Templates do not track progress; adopt it first")
		}

		updated, err := applyProgress(rm.Milestones, *req.MilestoneIndex, req.TaskIndex, req.Completed)
		if err != nil {
			return err
		}
		if err := s.roadmapRepo.UpdateMilestones(ctx, roadmapID, updated); err != nil {
			return err
		}
		rm.Milestones = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toRoadmapResponse(rm), nil
}

// DeleteRoadmap deletes the caller's roadmap. Deleting an adopted instance
// releases its adoption; templates still in use cannot be deleted.
func (s *roadmapServiceImpl) DeleteRoadmap(ctx context.Context, roadmapID, userID int64) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rm, err := s.roadmapRepo.GetByIDForUpdate(ctx, roadmapID)
		if err != nil {
			return err
		}
		if rm.CreatedBy != userID {
			return apperrors.NewForbiddenError("Only the owner can delete this roadmap")
		}

		if rm.IsTemplate {
			n, err := s.roadmapRepo.CountAdopters(ctx, roadmapID)
			if err != nil {
				return err
			}
			if n > 0 {
				return apperrors.NewCustomError(apperrors.ErrTemplateInUse,
					fmt.Sprintf("Template is used by %d learners and cannot be deleted", n))
			}
		}

		if rm.AdoptedFrom != nil {
			removed, err := s.roadmapRepo.RemoveAdopter(ctx, *rm.AdoptedFrom, userID)
			if err != nil {
				return err
			}
			if removed {
				if _, err := s.roadmapRepo.AdjustUsedBy(ctx, *rm.AdoptedFrom, -1); err != nil && !errors.Is(err, apperrors.ErrRoadmapNotFound) {
					return err
				}
			}
		}

		return s.roadmapRepo.Delete(ctx, roadmapID)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("roadmapID", roadmapID).Int64("userID", userID).Msg("Roadmap deleted")
	return nil
}

// GenerateRoadmap asks the AI generator for a roadmap and optionally saves it
// as a personal roadmap.
func (s *roadmapServiceImpl) GenerateRoadmap(ctx context.Context, userID int64, req *dto.GenerateRoadmapRequest) (*dto.RoadmapResponse, error) {
	draft, err := aiclient.GenerateRoadmap(ctx, s.generator, req.Topic, req.Level, req.DurationWeeks)
	if err != nil {
		s.logger.Error().Err(err).Str("topic", req.Topic).Msg("Roadmap generation failed")
		return nil, generationError(err)
	}

	difficulty := draft.Difficulty
	if difficulty == "" {
		difficulty = req.Level
	}
	rm := &models.Roadmap{
		Title:         draft.Title,
		Description:   draft.Description,
		Category:      draft.Category,
		Difficulty:    normalizeDifficulty(difficulty),
		CreatedBy:     userID,
		GeneratedByAI: true,
		Milestones:    milestonesFromDraft(draft.Milestones),
	}

	if req.Save {
		if err := s.roadmapRepo.Create(ctx, rm); err != nil {
			return nil, fmt.Errorf("failed to save generated roadmap: %w", err)
		}
		s.logger.Info().Int64("roadmapID", rm.ID).Int64("userID", userID).Msg("Generated roadmap saved")
	}
	return toRoadmapResponse(rm), nil
}

// generationError wraps generator failures; the details only reach clients
// outside production.
func generationError(err error) error {
	details := map[string]interface{}{}

	var upstream *aiclient.UpstreamError
	var parseErr *aiclient.ParseError
	switch {
	case errors.As(err, &upstream):
		details["upstreamStatus"] = upstream.Status
		details["upstreamDetails"] = upstream.Details
	case errors.As(err, &parseErr):
		details["reason"] = parseErr.Reason
		details["raw"] = parseErr.Raw
	default:
		details["reason"] = err.Error()
	}

	return apperrors.NewUpstreamError("Failed to generate roadmap", err).WithDetails(details)
}
