package services

import (
	"fmt"
	"math"

	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
)

// cloneForAdoption deep-copies a template into a personal instance owned by
// userID with every completion flag cleared.
func cloneForAdoption(template *models.Roadmap, userID int64) *models.Roadmap {
	templateID := template.ID
	return &models.Roadmap{
		Title:         template.Title,
		Description:   template.Description,
		Category:      template.Category,
		Difficulty:    template.Difficulty,
		IsTemplate:    false,
		AdoptedFrom:   &templateID,
		CreatedBy:     userID,
		GeneratedByAI: template.GeneratedByAI,
		Milestones:    copyMilestones(template.Milestones, true),
	}
}

func copyMilestones(src []models.Milestone, reset bool) []models.Milestone {
	out := make([]models.Milestone, len(src))
	for i, m := range src {
		tasks := make([]models.Task, len(m.Tasks))
		for j, t := range m.Tasks {
			tasks[j] = t
			tasks[j].Resources = append([]string(nil), t.Resources...)
			if reset {
				tasks[j].Completed = false
			}
		}
		out[i] = m
		out[i].Tasks = tasks
		if reset {
			out[i].Completed = false
		}
	}
	return out
}

// applyProgress returns a copy of milestones with one flag set. A nil
// taskIndex toggles the milestone itself; a task toggle never touches its
// milestone. The input is never modified.
func applyProgress(milestones []models.Milestone, milestoneIndex int, taskIndex *int, completed bool) ([]models.Milestone, error) {
	if milestoneIndex < 0 || milestoneIndex >= len(milestones) {
		return nil, apperrors.NewCustomError(apperrors.ErrIndexOutOfRange,
			fmt.Sprintf("Milestone index %d out of range [0, %d)", milestoneIndex, len(milestones)))
	}

	if taskIndex != nil {
		tasks := milestones[milestoneIndex].Tasks
		if *taskIndex < 0 || *taskIndex >= len(tasks) {
			return nil, apperrors.NewCustomError(apperrors.ErrIndexOutOfRange,
				fmt.Sprintf("Task index %d out of range [0, %d)", *taskIndex, len(tasks)))
		}
	}

	out := copyMilestones(milestones, false)
	if taskIndex != nil {
		out[milestoneIndex].Tasks[*taskIndex].Completed = completed
	} else {
		out[milestoneIndex].Completed = completed
	}
	return out, nil
}

// progressPercent is the share of completed tasks, rounded to one decimal.
func progressPercent(milestones []models.Milestone) float64 {
	total, done := 0, 0
	for _, m := range milestones {
		for _, t := range m.Tasks {
			total++
			if t.Completed {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return math.Round(float64(done)/float64(total)*1000) / 10
}
