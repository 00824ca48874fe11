package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/peerlearn/internal/app/auth"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/repositories"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	pkgauth "github.com/yigit/peerlearn/internal/pkg/auth"
)

// memDB is an in-memory stand-in for the Postgres schema shared by the fake stores.
type memDB struct {
	mu     sync.Mutex
	nextID int64

	users  map[int64]*models.User
	tokens map[string]*models.RefreshToken

	hubs     map[int64]*models.LearnerHub
	members  map[int64]map[int64]models.HubRole
	requests map[int64]map[int64]string

	activities     map[int64]*models.Activity
	participations []*models.Participation

	roadmaps  map[int64]*models.Roadmap
	adoptions map[[2]int64]int64 // {templateID, userID} -> instanceID

	sessions     map[int64]*models.Session
	availability map[int64][]models.AvailabilitySlot
	ratings      []*models.Rating

	chat      []*models.ChatMessage
	resources map[int64]*models.HubResource
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[int64]*models.User{},
		tokens:       map[string]*models.RefreshToken{},
		hubs:         map[int64]*models.LearnerHub{},
		members:      map[int64]map[int64]models.HubRole{},
		requests:     map[int64]map[int64]string{},
		activities:   map[int64]*models.Activity{},
		roadmaps:     map[int64]*models.Roadmap{},
		adoptions:    map[[2]int64]int64{},
		sessions:     map[int64]*models.Session{},
		availability: map[int64][]models.AvailabilitySlot{},
		resources:    map[int64]*models.HubResource{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// users

type fakeUserStore struct{ db *memDB }

func (s fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = s.db.id()
	user.CreatedAt = time.Now()
	cp := *user
	s.db.users[user.ID] = &cp
	return nil
}

func (s fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s fakeUserStore) UpdateProfile(_ context.Context, id int64, name string, bio *string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.Name, u.Bio = name, bio
	return nil
}

func (s fakeUserStore) AddPoints(_ context.Context, id int64, delta int) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return 0, apperrors.ErrUserNotFound
	}
	u.Points += int64(delta)
	return u.Points, nil
}

func (s fakeUserStore) TopByPoints(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []models.LeaderboardEntry
	for _, u := range s.db.users {
		out = append(out, models.LeaderboardEntry{UserID: u.ID, Name: u.Name, Points: u.Points})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (s fakeUserStore) ListTrainers(_ context.Context, offset, limit uint64) ([]*models.User, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var all []*models.User
	for _, u := range s.db.users {
		if u.Role == models.RoleTrainer {
			cp := *u
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return []*models.User{}, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (s fakeUserStore) RefreshRating(_ context.Context, trainerID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[trainerID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	sum, count := 0, 0
	for _, r := range s.db.ratings {
		if r.TrainerID == trainerID {
			sum += r.Rating
			count++
		}
	}
	u.RatingCount = count
	u.RatingAverage = 0
	if count > 0 {
		u.RatingAverage = math.Round(float64(sum)/float64(count)*100) / 100
	}
	return nil
}

func (s fakeUserStore) LockForUpdate(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// refresh tokens

type fakeTokenStore struct{ db *memDB }

func (s fakeTokenStore) CreateToken(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.tokens[token] = &models.RefreshToken{ID: s.db.id(), UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (s fakeTokenStore) GetTokenByValue(_ context.Context, token string) (*models.RefreshToken, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (s fakeTokenStore) RevokeToken(_ context.Context, token string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tokens[token]
	if !ok {
		return apperrors.ErrTokenNotFound
	}
	t.IsRevoked = true
	return nil
}

func (s fakeTokenStore) RevokeAllUserTokens(_ context.Context, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, t := range s.db.tokens {
		if t.UserID == userID {
			t.IsRevoked = true
		}
	}
	return nil
}

// hubs

type fakeHubStore struct{ db *memDB }

func (s fakeHubStore) Create(_ context.Context, hub *models.LearnerHub) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	hub.ID = s.db.id()
	cp := *hub
	s.db.hubs[hub.ID] = &cp
	s.db.members[hub.ID] = map[int64]models.HubRole{}
	s.db.requests[hub.ID] = map[int64]string{}
	return nil
}

func (s fakeHubStore) GetByID(_ context.Context, id int64) (*models.LearnerHub, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	h, ok := s.db.hubs[id]
	if !ok {
		return nil, apperrors.ErrHubNotFound
	}
	cp := *h
	return &cp, nil
}

func (s fakeHubStore) List(_ context.Context, filter repositories.HubFilter, offset, limit uint64) ([]*models.LearnerHub, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var all []*models.LearnerHub
	for _, h := range s.db.hubs {
		if filter.Search != "" && !strings.Contains(strings.ToLower(h.Name), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Category != "" && h.Category != filter.Category {
			continue
		}
		if filter.MemberID != nil {
			if _, ok := s.db.members[h.ID][*filter.MemberID]; !ok {
				continue
			}
		}
		cp := *h
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return []*models.LearnerHub{}, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (s fakeHubStore) Update(_ context.Context, hub *models.LearnerHub) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.hubs[hub.ID]; !ok {
		return apperrors.ErrHubNotFound
	}
	cp := *hub
	s.db.hubs[hub.ID] = &cp
	return nil
}

func (s fakeHubStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.hubs[id]; !ok {
		return apperrors.ErrHubNotFound
	}
	delete(s.db.hubs, id)
	delete(s.db.members, id)
	delete(s.db.requests, id)
	return nil
}

func (s fakeHubStore) GetMemberRole(_ context.Context, hubID, userID int64) (models.HubRole, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	role, ok := s.db.members[hubID][userID]
	return role, ok, nil
}

func (s fakeHubStore) AddMember(_ context.Context, hubID, userID int64, role models.HubRole) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.members[hubID][userID]; ok {
		return apperrors.ErrAlreadyMember
	}
	s.db.members[hubID][userID] = role
	return nil
}

func (s fakeHubStore) RemoveMember(_ context.Context, hubID, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.members[hubID][userID]; !ok {
		return apperrors.ErrNotMember
	}
	delete(s.db.members[hubID], userID)
	return nil
}

func (s fakeHubStore) UpdateMemberRole(_ context.Context, hubID, userID int64, role models.HubRole) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.members[hubID][userID]; !ok {
		return apperrors.ErrNotMember
	}
	s.db.members[hubID][userID] = role
	return nil
}

func (s fakeHubStore) CountAdmins(_ context.Context, hubID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, role := range s.db.members[hubID] {
		if role == models.HubRoleAdmin {
			n++
		}
	}
	return n, nil
}

func (s fakeHubStore) RecountMembers(_ context.Context, hubID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	h, ok := s.db.hubs[hubID]
	if !ok {
		return 0, apperrors.ErrHubNotFound
	}
	h.TotalMembers = len(s.db.members[hubID])
	return h.TotalMembers, nil
}

func (s fakeHubStore) ListMembers(_ context.Context, hubID int64) ([]*models.HubMember, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.HubMember{}
	for userID, role := range s.db.members[hubID] {
		out = append(out, &models.HubMember{HubID: hubID, UserID: userID, UserName: s.db.users[userID].Name, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s fakeHubStore) CreateJoinRequest(_ context.Context, hubID, userID int64, message string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.requests[hubID][userID]; ok {
		return apperrors.ErrRequestPending
	}
	s.db.requests[hubID][userID] = message
	return nil
}

func (s fakeHubStore) DeleteJoinRequest(_ context.Context, hubID, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.requests[hubID][userID]; !ok {
		return apperrors.ErrRequestNotFound
	}
	delete(s.db.requests[hubID], userID)
	return nil
}

func (s fakeHubStore) ListJoinRequests(_ context.Context, hubID int64) ([]*models.HubJoinRequest, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.HubJoinRequest{}
	for userID, msg := range s.db.requests[hubID] {
		out = append(out, &models.HubJoinRequest{HubID: hubID, UserID: userID, UserName: s.db.users[userID].Name, Message: msg})
	}
	return out, nil
}

// Leaderboard sums participation scores of the hub's activities per user.
func (s fakeHubStore) Leaderboard(_ context.Context, hubID int64, limit int) ([]models.LeaderboardEntry, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	totals := map[int64]int64{}
	for _, p := range s.db.participations {
		if a := s.db.activities[p.ActivityID]; a != nil && a.HubID == hubID {
			totals[p.UserID] += int64(p.Score)
		}
	}
	out := []models.LeaderboardEntry{}
	for userID, pts := range totals {
		out = append(out, models.LeaderboardEntry{UserID: userID, Name: s.db.users[userID].Name, Points: pts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// activities

type fakeActivityStore struct{ db *memDB }

func (s fakeActivityStore) Create(_ context.Context, activity *models.Activity) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	activity.ID = s.db.id()
	cp := *activity
	s.db.activities[activity.ID] = &cp
	return nil
}

func (s fakeActivityStore) GetByID(_ context.Context, id int64) (*models.Activity, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	a, ok := s.db.activities[id]
	if !ok {
		return nil, apperrors.ErrActivityNotFound
	}
	cp := *a
	cp.Questions = append([]models.Question(nil), a.Questions...)
	return &cp, nil
}

func (s fakeActivityStore) List(_ context.Context, filter repositories.ActivityFilter) ([]*models.Activity, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.Activity{}
	for _, a := range s.db.activities {
		if filter.HubID != 0 && a.HubID != filter.HubID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.MemberID != nil {
			if _, ok := s.db.members[a.HubID][*filter.MemberID]; !ok {
				continue
			}
		}
		cp := *a
		cp.Questions = append([]models.Question(nil), a.Questions...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s fakeActivityStore) CreateParticipation(_ context.Context, p *models.Participation) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.participations {
		if existing.ActivityID == p.ActivityID && existing.UserID == p.UserID {
			return apperrors.ErrAlreadyParticipated
		}
	}
	p.ID = s.db.id()
	p.CompletedAt = time.Now()
	cp := *p
	s.db.participations = append(s.db.participations, &cp)
	return nil
}

func (s fakeActivityStore) HasParticipated(_ context.Context, activityID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.participations {
		if p.ActivityID == activityID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s fakeActivityStore) Leaderboard(_ context.Context, activityID int64, limit int) ([]*models.Participation, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.Participation{}
	for _, p := range s.db.participations {
		if p.ActivityID == activityID {
			cp := *p
			cp.UserName = s.db.users[p.UserID].Name
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.Before(out[j].CompletedAt)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// roadmaps

type fakeRoadmapStore struct{ db *memDB }

func (s fakeRoadmapStore) copyOf(rm *models.Roadmap) *models.Roadmap {
	cp := *rm
	cp.Milestones = copyMilestones(rm.Milestones, false)
	return &cp
}

func (s fakeRoadmapStore) Create(_ context.Context, rm *models.Roadmap) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rm.ID = s.db.id()
	s.db.roadmaps[rm.ID] = s.copyOf(rm)
	return nil
}

func (s fakeRoadmapStore) GetByID(_ context.Context, id int64) (*models.Roadmap, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rm, ok := s.db.roadmaps[id]
	if !ok {
		return nil, apperrors.ErrRoadmapNotFound
	}
	return s.copyOf(rm), nil
}

func (s fakeRoadmapStore) GetByIDForUpdate(ctx context.Context, id int64) (*models.Roadmap, error) {
	return s.GetByID(ctx, id)
}

func (s fakeRoadmapStore) List(_ context.Context, filter repositories.RoadmapFilter, offset, limit uint64) ([]*models.Roadmap, int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var all []*models.Roadmap
	for _, rm := range s.db.roadmaps {
		if filter.IsTemplate != nil && rm.IsTemplate != *filter.IsTemplate {
			continue
		}
		if filter.OwnerID != nil && rm.CreatedBy != *filter.OwnerID {
			continue
		}
		if filter.Category != "" && rm.Category != filter.Category {
			continue
		}
		all = append(all, s.copyOf(rm))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return []*models.Roadmap{}, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (s fakeRoadmapStore) UpdateMilestones(_ context.Context, id int64, milestones []models.Milestone) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rm, ok := s.db.roadmaps[id]
	if !ok {
		return apperrors.ErrRoadmapNotFound
	}
	rm.Milestones = copyMilestones(milestones, false)
	return nil
}

func (s fakeRoadmapStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.roadmaps[id]; !ok {
		return apperrors.ErrRoadmapNotFound
	}
	delete(s.db.roadmaps, id)
	return nil
}

func (s fakeRoadmapStore) FindAdoption(_ context.Context, templateID, userID int64) (int64, bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	id, ok := s.db.adoptions[[2]int64{templateID, userID}]
	return id, ok, nil
}

func (s fakeRoadmapStore) AddAdopter(_ context.Context, templateID, userID, instanceID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := [2]int64{templateID, userID}
	if _, ok := s.db.adoptions[key]; ok {
		return apperrors.ErrAlreadyAdopted
	}
	s.db.adoptions[key] = instanceID
	return nil
}

func (s fakeRoadmapStore) RemoveAdopter(_ context.Context, templateID, userID int64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	key := [2]int64{templateID, userID}
	if _, ok := s.db.adoptions[key]; !ok {
		return false, nil
	}
	delete(s.db.adoptions, key)
	return true, nil
}

func (s fakeRoadmapStore) AdjustUsedBy(_ context.Context, templateID int64, delta int) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	rm, ok := s.db.roadmaps[templateID]
	if !ok {
		return 0, apperrors.ErrRoadmapNotFound
	}
	rm.UsedBy += delta
	if rm.UsedBy < 0 {
		rm.UsedBy = 0
	}
	return rm.UsedBy, nil
}

func (s fakeRoadmapStore) CountAdopters(_ context.Context, templateID int64) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for key := range s.db.adoptions {
		if key[0] == templateID {
			n++
		}
	}
	return n, nil
}

// sessions

type fakeSessionStore struct{ db *memDB }

func (s fakeSessionStore) copyOf(sess *models.Session) *models.Session {
	cp := *sess
	cp.Participants = append([]int64(nil), sess.Participants...)
	return &cp
}

func (s fakeSessionStore) Create(_ context.Context, sess *models.Session) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess.ID = s.db.id()
	s.db.sessions[sess.ID] = s.copyOf(sess)
	return nil
}

func (s fakeSessionStore) GetByID(_ context.Context, id int64) (*models.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess, ok := s.db.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return s.copyOf(sess), nil
}

func (s fakeSessionStore) GetByIDForUpdate(ctx context.Context, id int64) (*models.Session, error) {
	return s.GetByID(ctx, id)
}

func (s fakeSessionStore) List(_ context.Context, filter repositories.SessionFilter) ([]*models.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.Session{}
	for _, sess := range s.db.sessions {
		if filter.TrainerID != nil && sess.TrainerID != *filter.TrainerID {
			continue
		}
		if filter.AttendeeID != nil && !sess.Attendee(*filter.AttendeeID) {
			continue
		}
		if filter.Status != "" && sess.Status != filter.Status {
			continue
		}
		out = append(out, s.copyOf(sess))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s fakeSessionStore) ListScheduledForTrainer(_ context.Context, trainerID int64, from, to time.Time) ([]*models.Session, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	window := models.TimeRange{Start: from, End: to}
	out := []*models.Session{}
	for _, sess := range s.db.sessions {
		if sess.TrainerID != trainerID || sess.Status != models.SessionScheduled {
			continue
		}
		if window.Overlaps(models.TimeRange{Start: sess.StartTime, End: sess.EndTime()}) {
			out = append(out, s.copyOf(sess))
		}
	}
	return out, nil
}

func (s fakeSessionStore) UpdateStatus(_ context.Context, id int64, status models.SessionStatus, payment models.PaymentStatus) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess, ok := s.db.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	sess.Status, sess.PaymentStatus = status, payment
	return nil
}

func (s fakeSessionStore) MarkPaid(_ context.Context, id int64, reference string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess, ok := s.db.sessions[id]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	sess.PaymentStatus = models.PaymentPaid
	sess.PaymentReference = &reference
	return nil
}

func (s fakeSessionStore) AddParticipant(_ context.Context, sessionID, userID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	sess, ok := s.db.sessions[sessionID]
	if !ok {
		return apperrors.ErrSessionNotFound
	}
	if sess.Attendee(userID) {
		return apperrors.ErrAlreadyJoined
	}
	sess.Participants = append(sess.Participants, userID)
	return nil
}

func (s fakeSessionStore) ReplaceAvailability(_ context.Context, trainerID int64, slots []models.AvailabilitySlot) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	saved := make([]models.AvailabilitySlot, len(slots))
	for i, slot := range slots {
		slot.ID = s.db.id()
		slot.TrainerID = trainerID
		saved[i] = slot
	}
	s.db.availability[trainerID] = saved
	return nil
}

func (s fakeSessionStore) ListAvailability(_ context.Context, trainerID int64) ([]models.AvailabilitySlot, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]models.AvailabilitySlot{}, s.db.availability[trainerID]...), nil
}

func (s fakeSessionStore) CreateRating(_ context.Context, rating *models.Rating) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, r := range s.db.ratings {
		if r.SessionID == rating.SessionID && r.LearnerID == rating.LearnerID {
			return apperrors.ErrAlreadyRated
		}
	}
	rating.ID = s.db.id()
	rating.CreatedAt = time.Now()
	cp := *rating
	s.db.ratings = append(s.db.ratings, &cp)
	return nil
}

func (s fakeSessionStore) ListRatingsForTrainer(_ context.Context, trainerID int64, limit int) ([]*models.Rating, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.Rating{}
	for i := len(s.db.ratings) - 1; i >= 0 && len(out) < limit; i-- {
		if r := s.db.ratings[i]; r.TrainerID == trainerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// chat and files

type fakeChatStore struct{ db *memDB }

func (s fakeChatStore) Create(_ context.Context, msg *models.ChatMessage) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	msg.ID = s.db.id()
	msg.CreatedAt = time.Now()
	if u := s.db.users[msg.SenderID]; u != nil {
		msg.SenderName = u.Name
	}
	cp := *msg
	s.db.chat = append(s.db.chat, &cp)
	return nil
}

func (s fakeChatStore) ListByHub(_ context.Context, hubID, beforeID int64, limit int) ([]*models.ChatMessage, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var newestFirst []*models.ChatMessage
	for i := len(s.db.chat) - 1; i >= 0 && len(newestFirst) < limit; i-- {
		m := s.db.chat[i]
		if m.HubID != hubID || (beforeID > 0 && m.ID >= beforeID) {
			continue
		}
		cp := *m
		newestFirst = append(newestFirst, &cp)
	}
	out := make([]*models.ChatMessage, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		out = append(out, newestFirst[i])
	}
	return out, nil
}

type fakeResourceStore struct{ db *memDB }

func (s fakeResourceStore) Create(_ context.Context, f *models.HubResource) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f.ID = s.db.id()
	cp := *f
	s.db.resources[f.ID] = &cp
	return nil
}

func (s fakeResourceStore) GetByID(_ context.Context, id int64) (*models.HubResource, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	f, ok := s.db.resources[id]
	if !ok {
		return nil, apperrors.ErrFileNotFound
	}
	cp := *f
	return &cp, nil
}

func (s fakeResourceStore) ListByHub(_ context.Context, hubID int64) ([]*models.HubResource, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := []*models.HubResource{}
	for _, f := range s.db.resources {
		if f.HubID == hubID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s fakeResourceStore) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.resources[id]; !ok {
		return apperrors.ErrFileNotFound
	}
	delete(s.db.resources, id)
	return nil
}

// testEnv wires every service onto one memDB.
type testEnv struct {
	db        *memDB
	users     fakeUserStore
	hubs      fakeHubStore
	activity  fakeActivityStore
	roadmaps  fakeRoadmapStore
	sessions  fakeSessionStore
	chat      fakeChatStore
	resources fakeResourceStore
	tokens    fakeTokenStore
	rooms     *recordingBroadcaster
	authz     *auth.AuthorizationService
	logger    zerolog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newMemDB()
	env := &testEnv{
		db:        db,
		users:     fakeUserStore{db},
		hubs:      fakeHubStore{db},
		activity:  fakeActivityStore{db},
		roadmaps:  fakeRoadmapStore{db},
		sessions:  fakeSessionStore{db},
		chat:      fakeChatStore{db},
		resources: fakeResourceStore{db},
		tokens:    fakeTokenStore{db},
		rooms:     &recordingBroadcaster{},
		logger:    zerolog.Nop(),
	}
	env.authz = auth.NewAuthorizationService(env.users, env.hubs)
	return env
}

func (e *testEnv) addUser(t *testing.T, name string, role models.RoleType) *models.User {
	t.Helper()
	u := &models.User{
		Name:  name,
		Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:  role,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) jwt() *pkgauth.JWTService {
	return pkgauth.NewJWTService(pkgauth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "peerlearn-test",
	})
}
