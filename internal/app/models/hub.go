package models

import "time"

// HubPrivacy controls how users can join a hub
type HubPrivacy string

const (
	HubPublic  HubPrivacy = "public"  // join immediately
	HubPrivate HubPrivacy = "private" // join creates a pending request
	HubClosed  HubPrivacy = "closed"  // nobody can join
)

// HubRole is a member's role inside a hub
type HubRole string

const (
	HubRoleAdmin     HubRole = "admin"
	HubRoleModerator HubRole = "moderator"
	HubRoleMember    HubRole = "member"
)

// CanModerate reports whether the role may approve requests and manage activities.
func (r HubRole) CanModerate() bool {
	return r == HubRoleAdmin || r == HubRoleModerator
}

// LearnerHub is a community users join to learn together
type LearnerHub struct {
	ID           int64      `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	Description  string     `json:"description" db:"description"`
	Category     string     `json:"category" db:"category"`
	Privacy      HubPrivacy `json:"privacy" db:"privacy"`
	CreatedBy    int64      `json:"createdBy" db:"created_by"`
	TotalMembers int        `json:"totalMembers" db:"total_members"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`

	Members      []*HubMember      `json:"members,omitempty"`
	JoinRequests []*HubJoinRequest `json:"joinRequests,omitempty"`
}

// HubMember is a row of hub_members
type HubMember struct {
	HubID    int64     `json:"hubId" db:"hub_id"`
	UserID   int64     `json:"userId" db:"user_id"`
	UserName string    `json:"userName" db:"name"`
	Role     HubRole   `json:"role" db:"role"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

// HubJoinRequest is a pending request to join a private hub
type HubJoinRequest struct {
	HubID       int64     `json:"hubId" db:"hub_id"`
	UserID      int64     `json:"userId" db:"user_id"`
	UserName    string    `json:"userName" db:"name"`
	Message     string    `json:"message,omitempty" db:"message"`
	RequestedAt time.Time `json:"requestedAt" db:"requested_at"`
}

// LeaderboardEntry is one ranked row of a points leaderboard
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      int64     `json:"userId"`
	Name        string    `json:"name"`
	Points      int64     `json:"points"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}
