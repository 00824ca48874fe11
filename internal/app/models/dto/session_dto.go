package dto

import (
	"time"

	"github.com/yigit/peerlearn/internal/app/models"
)

// AvailabilitySlotRequest is one weekly availability window
type AvailabilitySlotRequest struct {
	DayOfWeek int    `json:"dayOfWeek" binding:"gte=0,lte=6"`
	StartTime string `json:"startTime" binding:"required,datetime=15:04"`
	EndTime   string `json:"endTime" binding:"required,datetime=15:04"`
}

// SetAvailabilityRequest replaces a trainer's weekly availability
type SetAvailabilityRequest struct {
	Slots []AvailabilitySlotRequest `json:"slots" binding:"dive"`
}

// CreateSessionRequest books a session with a trainer
type CreateSessionRequest struct {
	TrainerID       int64              `json:"trainerId" binding:"required,gt=0"`
	Title           string             `json:"title" binding:"required,min=3,max=200"`
	Description     string             `json:"description" binding:"max=2000"`
	Type            models.SessionType `json:"type" binding:"required,oneof=one_on_one group"`
	StartTime       time.Time          `json:"startTime" binding:"required"`
	DurationMinutes int                `json:"durationMinutes" binding:"required,min=15,max=480"`
	MaxParticipants int                `json:"maxParticipants" binding:"omitempty,min=1,max=100"`
	Price           float64            `json:"price" binding:"gte=0"`
}

// SessionFilterRequest represents session list filters
type SessionFilterRequest struct {
	Role   string               `form:"role" binding:"omitempty,oneof=trainer learner"`
	Status models.SessionStatus `form:"status" binding:"omitempty,oneof=scheduled completed cancelled"`
}

// RateSessionRequest reviews a completed session
type RateSessionRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// FreeSlotsResponse lists bookable start times for a trainer on a date
type FreeSlotsResponse struct {
	TrainerID       int64              `json:"trainerId"`
	Date            string             `json:"date"`
	DurationMinutes int                `json:"durationMinutes"`
	Slots           []models.TimeRange `json:"slots"`
}
