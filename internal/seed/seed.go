package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/peerlearn/internal/app/models"
	appRepos "github.com/yigit/peerlearn/internal/app/repositories"
	"github.com/yigit/peerlearn/internal/db"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/auth"
)

// SystemEmail owns the starter templates
const SystemEmail = "system@peerlearn.local"

// CreateDefaultData creates the system user and the starter roadmap
// templates if they don't exist. Safe to run on every start.
func CreateDefaultData(ctx context.Context, pool db.DBTX, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(pool)
	roadmapRepo := appRepos.NewRoadmapRepository(pool)

	lgr.Info().Msg("Checking/Creating default data (system user, starter roadmaps)...")

	system, err := ensureSystemUser(ctx, userRepo)
	if err != nil {
		return err
	}

	isTemplate := true
	existing, _, err := roadmapRepo.List(ctx, appRepos.RoadmapFilter{IsTemplate: &isTemplate, OwnerID: &system.ID}, 0, 100)
	if err != nil {
		return fmt.Errorf("failed to list starter roadmaps: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, rm := range existing {
		have[rm.Title] = true
	}

	var finalErr error
	for _, tpl := range starterRoadmaps() {
		if have[tpl.Title] {
			continue
		}
		tpl.CreatedBy = system.ID
		if err := roadmapRepo.Create(ctx, tpl); err != nil {
			lgr.Error().Err(err).Str("title", tpl.Title).Msg("Error creating starter roadmap")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Int64("roadmapID", tpl.ID).Str("title", tpl.Title).Msg("Starter roadmap created")
	}

	return finalErr
}

func ensureSystemUser(ctx context.Context, userRepo *appRepos.UserRepository) (*appModels.User, error) {
	user, err := userRepo.GetByEmail(ctx, SystemEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up system user: %w", err)
	}

	// Nobody logs in as the system user
	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	user = &appModels.User{
		Name:     "PeerLearn",
		Email:    SystemEmail,
		Password: hash,
		Role:     appModels.RoleTrainer,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create system user: %w", err)
	}
	return user, nil
}

func starterRoadmaps() []*appModels.Roadmap {
	return []*appModels.Roadmap{
		{
			Title:       "Go Fundamentals",
			Description: "From the tour of Go to writing concurrent services",
			Category:    "programming",
			Difficulty:  "beginner",
			IsTemplate:  true,
			Milestones: []appModels.Milestone{
				{
					Title: "Language basics",
					Tasks: []appModels.Task{
						{Title: "Complete the Tour of Go", Resources: []string{"https://go.dev/tour/"}},
						{Title: "Read Effective Go", Resources: []string{"https://go.dev/doc/effective_go"}},
					},
				},
				{
					Title: "Concurrency",
					Tasks: []appModels.Task{
						{Title: "Goroutines and channels"},
						{Title: "The context package", Resources: []string{"https://pkg.go.dev/context"}},
					},
				},
				{
					Title: "Building a service",
					Tasks: []appModels.Task{
						{Title: "Write an HTTP API"},
						{Title: "Add tests with the testing package"},
					},
				},
			},
		},
	}
}
