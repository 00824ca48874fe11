package models

import "time"

// ActivityType is the kind of hub activity
type ActivityType string

const (
	ActivityContest   ActivityType = "contest"
	ActivityQuiz      ActivityType = "quiz"
	ActivityChallenge ActivityType = "challenge"
	ActivityWorkshop  ActivityType = "workshop"
	ActivityWebinar   ActivityType = "webinar"
	ActivityMeeting   ActivityType = "meeting"
)

// Valid reports whether t is a known activity type.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityContest, ActivityQuiz, ActivityChallenge, ActivityWorkshop, ActivityWebinar, ActivityMeeting:
		return true
	}
	return false
}

// Scored reports whether participations of this type are graded against questions.
func (t ActivityType) Scored() bool {
	return t == ActivityQuiz || t == ActivityContest
}

// SkippedAnswer marks a question the participant did not answer.
const SkippedAnswer = -1

// Question is one multiple-choice question of a scored activity
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Points        int      `json:"points"`
}

// Activity is a scheduled event owned by a hub
type Activity struct {
	ID          int64        `json:"id" db:"id"`
	HubID       int64        `json:"hubId" db:"hub_id"`
	CreatedBy   int64        `json:"createdBy" db:"created_by"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Type        ActivityType `json:"type" db:"type"`
	StartTime   time.Time    `json:"startTime" db:"start_time"`
	EndTime     *time.Time   `json:"endTime,omitempty" db:"end_time"`
	Questions   []Question   `json:"questions" db:"questions"` // jsonb
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
}

// MaxScore is the score of a fully correct submission.
func (a *Activity) MaxScore() int {
	total := 0
	for _, q := range a.Questions {
		total += q.Points
	}
	return total
}

// Participation is one user's submission for an activity
type Participation struct {
	ID          int64     `json:"id" db:"id"`
	ActivityID  int64     `json:"activityId" db:"activity_id"`
	UserID      int64     `json:"userId" db:"user_id"`
	UserName    string    `json:"userName,omitempty" db:"name"`
	Answers     []int     `json:"answers" db:"answers"`
	Score       int       `json:"score" db:"score"`
	CompletedAt time.Time `json:"completedAt" db:"completed_at"`
}

// HiddenAnswer replaces correct answers shown to participants.
const HiddenAnswer = -1

// Redacted returns a copy of the activity with correct answers hidden.
func (a *Activity) Redacted() *Activity {
	out := *a
	out.Questions = make([]Question, len(a.Questions))
	for i, q := range a.Questions {
		out.Questions[i] = q
		out.Questions[i].CorrectAnswer = HiddenAnswer
	}
	return &out
}
