package models

import "time"

// Task is the smallest unit of a roadmap
type Task struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Resources   []string `json:"resources,omitempty"`
	Completed   bool     `json:"completed"`
}

// Milestone groups tasks. Its Completed flag is toggled explicitly and is
// never derived from its tasks.
type Milestone struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tasks       []Task `json:"tasks"`
	Completed   bool   `json:"completed"`
}

// Roadmap is either a reusable template or a personal instance
type Roadmap struct {
	ID            int64       `json:"id" db:"id"`
	Title         string      `json:"title" db:"title"`
	Description   string      `json:"description" db:"description"`
	Category      string      `json:"category" db:"category"`
	Difficulty    string      `json:"difficulty" db:"difficulty"`
	IsTemplate    bool        `json:"isTemplate" db:"is_template"`
	AdoptedFrom   *int64      `json:"adoptedFrom,omitempty" db:"adopted_from"`
	CreatedBy     int64       `json:"createdBy" db:"created_by"`
	UsedBy        int         `json:"usedBy" db:"used_by"` // templates only
	GeneratedByAI bool        `json:"generatedByAi" db:"generated_by_ai"`
	Milestones    []Milestone `json:"milestones" db:"milestones"` // jsonb
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}
