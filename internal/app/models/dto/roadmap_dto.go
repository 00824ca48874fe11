package dto

import "github.com/yigit/peerlearn/internal/app/models"

// TaskRequest is one task of a new roadmap
type TaskRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=2000"`
	Resources   []string `json:"resources" binding:"dive,url"`
}

// MilestoneRequest is one milestone of a new roadmap
type MilestoneRequest struct {
	Title       string        `json:"title" binding:"required,max=200"`
	Description string        `json:"description" binding:"max=2000"`
	Tasks       []TaskRequest `json:"tasks" binding:"required,min=1,dive"`
}

// CreateRoadmapRequest creates a template or a personal roadmap
type CreateRoadmapRequest struct {
	Title       string             `json:"title" binding:"required,min=3,max=200"`
	Description string             `json:"description" binding:"max=5000"`
	Category    string             `json:"category" binding:"max=100"`
	Difficulty  string             `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	IsTemplate  bool               `json:"isTemplate"`
	Milestones  []MilestoneRequest `json:"milestones" binding:"required,min=1,dive"`
}

// UpdateProgressRequest toggles a task, or the milestone itself when TaskIndex is nil
type UpdateProgressRequest struct {
	MilestoneIndex *int `json:"milestoneIndex" binding:"required"`
	TaskIndex      *int `json:"taskIndex"`
	Completed      bool `json:"completed"`
}

// GenerateRoadmapRequest asks the AI generator for a roadmap
type GenerateRoadmapRequest struct {
	Topic         string `json:"topic" binding:"required,min=2,max=200"`
	Level         string `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	DurationWeeks int    `json:"durationWeeks" binding:"omitempty,min=1,max=52"`
	Save          bool   `json:"save"`
}

// RoadmapFilterRequest represents roadmap list filters
type RoadmapFilterRequest struct {
	Template *bool  `form:"template"`
	Mine     bool   `form:"mine"`
	Category string `form:"category"`
}

// RoadmapResponse adds the derived progress percentage to a roadmap
type RoadmapResponse struct {
	*models.Roadmap
	Progress float64 `json:"progress"`
}
