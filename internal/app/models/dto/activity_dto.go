package dto

import (
	"time"

	"github.com/yigit/peerlearn/internal/app/models"
)

// QuestionRequest is one question of a new activity
type QuestionRequest struct {
	Text          string   `json:"text" binding:"required"`
	Options       []string `json:"options" binding:"required,min=2,dive,required"`
	CorrectAnswer int      `json:"correctAnswer" binding:"gte=0"`
	Points        int      `json:"points" binding:"gte=0"`
}

// CreateActivityRequest represents activity creation data
type CreateActivityRequest struct {
	HubID       int64               `json:"hubId" binding:"required,gt=0"`
	Title       string              `json:"title" binding:"required,min=3,max=200"`
	Description string              `json:"description" binding:"max=5000"`
	Type        models.ActivityType `json:"type" binding:"required,oneof=contest quiz challenge workshop webinar meeting"`
	StartTime   time.Time           `json:"startTime" binding:"required"`
	EndTime     *time.Time          `json:"endTime"`
	Questions   []QuestionRequest   `json:"questions" binding:"dive"`
}

// ParticipateRequest carries one answer index per question; -1 skips a question
type ParticipateRequest struct {
	Answers []int `json:"answers" binding:"dive,gte=-1"`
}

// ActivityFilterRequest represents activity list filters
type ActivityFilterRequest struct {
	HubID int64               `form:"hubId"`
	Type  models.ActivityType `form:"type" binding:"omitempty,oneof=contest quiz challenge workshop webinar meeting"`
}

// ParticipationResponse is returned after a submission is scored
type ParticipationResponse struct {
	Participation *models.Participation `json:"participation"`
	MaxScore      int                   `json:"maxScore"`
	TotalPoints   int64                 `json:"totalPoints"`
}
