package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID            int64     `json:"id" db:"id" example:"1"`
	Name          string    `json:"name" db:"name" example:"Ada Lovelace"`
	Email         string    `json:"email" db:"email" example:"ada@example.com"`
	Password      string    `json:"-" db:"password"` // bcrypt hash
	Role          RoleType  `json:"role" db:"role" example:"learner"`
	Bio           *string   `json:"bio,omitempty" db:"bio"`
	Points        int64     `json:"points" db:"points"` // sum of all participation scores
	RatingAverage float64   `json:"ratingAverage" db:"rating_average"`
	RatingCount   int       `json:"ratingCount" db:"rating_count"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// RefreshToken is a persisted, revocable refresh token
type RefreshToken struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	IsRevoked bool      `db:"is_revoked"`
	CreatedAt time.Time `db:"created_at"`
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
