package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
)

func quizQuestions() []dto.QuestionRequest {
	return []dto.QuestionRequest{
		{Text: "2+2?", Options: []string{"4", "5"}, CorrectAnswer: 0, Points: 10},
		{Text: "Capital of France?", Options: []string{"Rome", "Paris"}, CorrectAnswer: 1, Points: 10},
	}
}

type activityFixture struct {
	env    *testEnv
	hubs   HubService
	svc    ActivityService
	hub    *models.LearnerHub
	owner  *models.User
	member *models.User
}

func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()
	env, hubs, hub, owner := newHubFixture(t, models.HubPublic)
	member := env.addUser(t, "Member", models.RoleLearner)
	_, err := hubs.JoinHub(context.Background(), hub.ID, member.ID, "")
	require.NoError(t, err)

	return &activityFixture{
		env:    env,
		hubs:   hubs,
		svc:    NewActivityService(env.activity, env.hubs, env.users, fakeTx{}, env.authz, env.logger),
		hub:    hub,
		owner:  owner,
		member: member,
	}
}

func (f *activityFixture) createQuiz(t *testing.T, title string) *models.Activity {
	t.Helper()
	a, err := f.svc.CreateActivity(context.Background(), f.owner.ID, &dto.CreateActivityRequest{
		HubID:     f.hub.ID,
		Title:     title,
		Type:      models.ActivityQuiz,
		StartTime: time.Now(),
		Questions: quizQuestions(),
	})
	require.NoError(t, err)
	return a
}

func TestScoreSubmission(t *testing.T) {
	quiz := &models.Activity{
		Type: models.ActivityQuiz,
		Questions: []models.Question{
			{Options: []string{"a", "b"}, CorrectAnswer: 0, Points: 10},
			{Options: []string{"a", "b"}, CorrectAnswer: 1, Points: 5},
			{Options: []string{"a", "b", "c"}, CorrectAnswer: 2, Points: 3},
		},
	}

	tests := []struct {
		name     string
		activity *models.Activity
		answers  []int
		want     int
		wantErr  error
	}{
		{name: "all correct", activity: quiz, answers: []int{0, 1, 2}, want: 18},
		{name: "some wrong", activity: quiz, answers: []int{0, 0, 2}, want: 13},
		{name: "skipped", activity: quiz, answers: []int{models.SkippedAnswer, 1, models.SkippedAnswer}, want: 5},
		{name: "empty scores zero", activity: quiz, answers: nil, want: 0},
		{name: "short submission", activity: quiz, answers: []int{0}, wantErr: apperrors.ErrAnswerCount},
		{name: "long submission", activity: quiz, answers: []int{0, 1, 2, 0}, wantErr: apperrors.ErrAnswerCount},
		{name: "workshop is not graded", activity: &models.Activity{Type: models.ActivityWorkshop, Questions: quiz.Questions}, answers: []int{0, 1, 2}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ScoreSubmission(tc.activity, tc.answers)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, got, tc.activity.MaxScore())
		})
	}
}

func TestValidateQuestions(t *testing.T) {
	assert.Error(t, validateQuestions(models.ActivityQuiz, nil))
	assert.NoError(t, validateQuestions(models.ActivityWebinar, nil))
	assert.Error(t, validateQuestions(models.ActivityQuiz, []models.Question{{Options: []string{"only"}, CorrectAnswer: 0}}))
	assert.Error(t, validateQuestions(models.ActivityQuiz, []models.Question{{Options: []string{"a", "b"}, CorrectAnswer: 2}}))
	assert.Error(t, validateQuestions(models.ActivityQuiz, []models.Question{{Options: []string{"a", "b"}, Points: -1}}))
}

func TestQuizScoringUpdatesPointsAndHubLeaderboard(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, "Quiz1")

	resp, err := f.svc.Participate(ctx, quiz.ID, f.member.ID, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 20, resp.Participation.Score)
	assert.Equal(t, 20, resp.MaxScore)
	assert.Equal(t, int64(20), resp.TotalPoints)

	member, err := f.env.users.GetByID(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), member.Points)

	board, err := f.hubs.GetLeaderboard(ctx, f.hub.ID, 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, f.member.ID, board[0].UserID)
	assert.Equal(t, int64(20), board[0].Points)
	assert.Equal(t, 1, board[0].Rank)
}

func TestHubLeaderboardSumsActivities(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()
	first := f.createQuiz(t, "Quiz1")
	second := f.createQuiz(t, "Quiz2")

	_, err := f.svc.Participate(ctx, first.ID, f.member.ID, []int{0, 1})
	require.NoError(t, err)
	_, err = f.svc.Participate(ctx, second.ID, f.member.ID, []int{0, 0})
	require.NoError(t, err)
	_, err = f.svc.Participate(ctx, first.ID, f.owner.ID, []int{1, 0})
	require.NoError(t, err)

	board, err := f.hubs.GetLeaderboard(ctx, f.hub.ID, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, f.member.ID, board[0].UserID)
	assert.Equal(t, int64(30), board[0].Points)
	assert.Equal(t, int64(0), board[1].Points)

	top, err := f.svc.GetLeaderboard(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 20, top[0].Score)
}

func TestParticipateTwiceFails(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, "Quiz1")

	_, err := f.svc.Participate(ctx, quiz.ID, f.member.ID, []int{0, 1})
	require.NoError(t, err)

	_, err = f.svc.Participate(ctx, quiz.ID, f.member.ID, []int{0, 1})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyParticipated)

	member, err := f.env.users.GetByID(ctx, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), member.Points)
}

func TestParticipateRequiresMembership(t *testing.T) {
	f := newActivityFixture(t)
	quiz := f.createQuiz(t, "Quiz1")
	outsider := f.env.addUser(t, "Outsider", models.RoleLearner)

	_, err := f.svc.Participate(context.Background(), quiz.ID, outsider.ID, []int{0, 1})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestParticipateAfterEnd(t *testing.T) {
	f := newActivityFixture(t)
	end := time.Now().Add(-time.Minute)
	a, err := f.svc.CreateActivity(context.Background(), f.owner.ID, &dto.CreateActivityRequest{
		HubID:     f.hub.ID,
		Title:     "Old quiz",
		Type:      models.ActivityQuiz,
		StartTime: end.Add(-time.Hour),
		EndTime:   &end,
		Questions: quizQuestions(),
	})
	require.NoError(t, err)

	_, err = f.svc.Participate(context.Background(), a.ID, f.member.ID, []int{0, 1})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestCreateActivityRequiresModerator(t *testing.T) {
	f := newActivityFixture(t)

	_, err := f.svc.CreateActivity(context.Background(), f.member.ID, &dto.CreateActivityRequest{
		HubID:     f.hub.ID,
		Title:     "Quiz",
		Type:      models.ActivityQuiz,
		StartTime: time.Now(),
		Questions: quizQuestions(),
	})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCorrectAnswersHiddenFromMembers(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, "Quiz1")

	seen, err := f.svc.GetActivity(ctx, quiz.ID, f.member.ID)
	require.NoError(t, err)
	for _, q := range seen.Questions {
		assert.Equal(t, models.HiddenAnswer, q.CorrectAnswer)
	}

	full, err := f.svc.GetActivity(ctx, quiz.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, full.Questions[1].CorrectAnswer)

	listed, err := f.svc.ListActivities(ctx, f.member.ID, &dto.ActivityFilterRequest{HubID: f.hub.ID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.HiddenAnswer, listed[0].Questions[0].CorrectAnswer)
}

func TestActivityLeaderboardTopTenTiesBySubmissionOrder(t *testing.T) {
	f := newActivityFixture(t)
	ctx := context.Background()
	quiz := f.createQuiz(t, "Quiz1")

	// scores cycle 20, 10, 0 in submission order
	answers := [][]int{{0, 1}, {0, 0}, {1, 0}}
	var players []*models.User
	for i := 0; i < 12; i++ {
		u := f.env.addUser(t, fmt.Sprintf("Player %02d", i), models.RoleLearner)
		_, err := f.hubs.JoinHub(ctx, f.hub.ID, u.ID, "")
		require.NoError(t, err)
		_, err = f.svc.Participate(ctx, quiz.ID, u.ID, answers[i%3])
		require.NoError(t, err)
		players = append(players, u)
	}

	board, err := f.svc.GetLeaderboard(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, board, ActivityLeaderboardSize)

	want := []int{0, 3, 6, 9, 1, 4, 7, 10, 2, 5}
	wantScores := []int{20, 20, 20, 20, 10, 10, 10, 10, 0, 0}
	for i, idx := range want {
		assert.Equal(t, players[idx].ID, board[i].UserID, "position %d", i)
		assert.Equal(t, wantScores[i], board[i].Score, "position %d", i)
	}
}
