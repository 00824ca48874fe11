package models

import "time"

// SessionType distinguishes private and group sessions
type SessionType string

const (
	SessionOneOnOne SessionType = "one_on_one"
	SessionGroup    SessionType = "group"
)

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// PaymentStatus is the mock payment state of a session
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Session is a booking between a trainer and one or more learners
type Session struct {
	ID               int64         `json:"id" db:"id"`
	TrainerID        int64         `json:"trainerId" db:"trainer_id"`
	LearnerID        int64         `json:"learnerId" db:"learner_id"` // the booker
	Title            string        `json:"title" db:"title"`
	Description      string        `json:"description" db:"description"`
	Type             SessionType   `json:"type" db:"type"`
	StartTime        time.Time     `json:"startTime" db:"start_time"`
	DurationMinutes  int           `json:"durationMinutes" db:"duration_minutes"`
	MaxParticipants  int           `json:"maxParticipants" db:"max_participants"`
	Price            float64       `json:"price" db:"price"`
	Status           SessionStatus `json:"status" db:"status"`
	PaymentStatus    PaymentStatus `json:"paymentStatus" db:"payment_status"`
	PaymentReference *string       `json:"paymentReference,omitempty" db:"payment_reference"`
	MeetingLink      string        `json:"meetingLink" db:"meeting_link"`
	CreatedAt        time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time     `json:"updatedAt" db:"updated_at"`

	Participants []int64 `json:"participants,omitempty"`
}

// EndTime returns when the session ends.
func (s *Session) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Attendee reports whether userID is the booker or a roster participant.
func (s *Session) Attendee(userID int64) bool {
	if s.LearnerID == userID {
		return true
	}
	for _, id := range s.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Rating is one learner's review of a completed session
type Rating struct {
	ID        int64     `json:"id" db:"id"`
	SessionID int64     `json:"sessionId" db:"session_id"`
	LearnerID int64     `json:"learnerId" db:"learner_id"`
	TrainerID int64     `json:"trainerId" db:"trainer_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AvailabilitySlot is a weekly window in which a trainer accepts bookings.
// Times are "HH:MM" in UTC; DayOfWeek follows time.Weekday.
type AvailabilitySlot struct {
	ID        int64  `json:"id" db:"id"`
	TrainerID int64  `json:"trainerId" db:"trainer_id"`
	DayOfWeek int    `json:"dayOfWeek" db:"day_of_week"`
	StartTime string `json:"startTime" db:"start_time"`
	EndTime   string `json:"endTime" db:"end_time"`
}

// TimeRange is a concrete half-open interval [Start, End)
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open ranges intersect.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}
