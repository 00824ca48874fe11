package services

import (
	"fmt"

	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
)

// ScoreSubmission grades answers against the questions of an activity.
//
// Only quiz and contest activities are graded; every other type scores 0.
// An empty submission scores 0. Otherwise there must be exactly one answer
// per question, and models.SkippedAnswer leaves a question unanswered.
func ScoreSubmission(activity *models.Activity, answers []int) (int, error) {
	if !activity.Type.Scored() || len(answers) == 0 {
		return 0, nil
	}

	if len(answers) != len(activity.Questions) {
		return 0, apperrors.NewCustomError(apperrors.ErrAnswerCount,
			fmt.Sprintf("Expected %d answers, got %d", len(activity.Questions), len(answers)))
	}

	score := 0
	for i, q := range activity.Questions {
		if answers[i] == models.SkippedAnswer {
			continue
		}
		if answers[i] == q.CorrectAnswer {
			score += q.Points
		}
	}
	return score, nil
}

// validateQuestions checks the question set of a new activity.
func validateQuestions(activityType models.ActivityType, questions []models.Question) error {
	if activityType.Scored() && len(questions) == 0 {
		return apperrors.NewBadRequestError("Quiz and contest activities need at least one question")
	}

	for i, q := range questions {
		if len(q.Options) < 2 {
			return apperrors.NewBadRequestError(fmt.Sprintf("Question %d needs at least two options", i))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return apperrors.NewBadRequestError(fmt.Sprintf("Question %d has an invalid correct answer", i))
		}
		if q.Points < 0 {
			return apperrors.NewBadRequestError(fmt.Sprintf("Question %d has negative points", i))
		}
	}
	return nil
}
