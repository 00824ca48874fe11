package repositories

import (
	"github.com/yigit/peerlearn/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	User     *UserRepository
	Token    *TokenRepository
	Hub      *HubRepository
	Activity *ActivityRepository
	Roadmap  *RoadmapRepository
	Session  *SessionRepository
	Chat     *ChatRepository
	Resource *ResourceRepository
}

// NewRepositories initializes all repositories
func NewRepositories(pool db.DBTX) *Repositories {
	return &Repositories{
		User:     NewUserRepository(pool),
		Token:    NewTokenRepository(pool),
		Hub:      NewHubRepository(pool),
		Activity: NewActivityRepository(pool),
		Roadmap:  NewRoadmapRepository(pool),
		Session:  NewSessionRepository(pool),
		Chat:     NewChatRepository(pool),
		Resource: NewResourceRepository(pool),
	}
}
