package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/pkg/aiclient"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
)

type stubGenerator struct {
	text string
	err  error
}

func (g stubGenerator) Generate(_ context.Context, _ string) (string, error) {
	return g.text, g.err
}

func templateRequest() *dto.CreateRoadmapRequest {
	return &dto.CreateRoadmapRequest{
		Title:      "Learn Go",
		Category:   "programming",
		IsTemplate: true,
		Milestones: []dto.MilestoneRequest{
			{Title: "Basics", Tasks: []dto.TaskRequest{{Title: "Tour of Go"}, {Title: "Effective Go"}}},
			{Title: "Concurrency", Tasks: []dto.TaskRequest{{Title: "Goroutines"}}},
		},
	}
}

func intPtr(v int) *int { return &v }

func newRoadmapFixture(t *testing.T, gen aiclient.Generator) (*testEnv, RoadmapService, *dto.RoadmapResponse, *models.User) {
	t.Helper()
	env := newTestEnv(t)
	svc := NewRoadmapService(env.roadmaps, fakeTx{}, gen, env.logger)
	author := env.addUser(t, "Author", models.RoleTrainer)

	tpl, err := svc.CreateRoadmap(context.Background(), author.ID, templateRequest())
	require.NoError(t, err)
	return env, svc, tpl, author
}

func TestAdoptTemplateAndToggleTask(t *testing.T) {
	env, svc, tpl, _ := newRoadmapFixture(t, nil)
	ctx := context.Background()
	learner := env.addUser(t, "Learner", models.RoleLearner)

	assert.Equal(t, 0, tpl.UsedBy)

	instance, err := svc.AdoptRoadmap(ctx, tpl.ID, learner.ID)
	require.NoError(t, err)
	assert.NotEqual(t, tpl.ID, instance.ID)
	assert.False(t, instance.IsTemplate)
	require.NotNil(t, instance.AdoptedFrom)
	assert.Equal(t, tpl.ID, *instance.AdoptedFrom)
	assert.Equal(t, learner.ID, instance.CreatedBy)

	template, err := svc.GetRoadmap(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, template.UsedBy)

	updated, err := svc.UpdateProgress(ctx, instance.ID, learner.ID, &dto.UpdateProgressRequest{
		MilestoneIndex: intPtr(0),
		TaskIndex:      intPtr(0),
		Completed:      true,
	})
	require.NoError(t, err)
	assert.True(t, updated.Milestones[0].Tasks[0].Completed)
	assert.False(t, updated.Milestones[0].Tasks[1].Completed)
	assert.False(t, updated.Milestones[0].Completed)
	assert.InDelta(t, 33.3, updated.Progress, 0.001)

	// the template is untouched
	template, err = svc.GetRoadmap(ctx, tpl.ID)
	require.NoError(t, err)
	assert.False(t, template.Milestones[0].Tasks[0].Completed)

	updated, err = svc.UpdateProgress(ctx, instance.ID, learner.ID, &dto.UpdateProgressRequest{
		MilestoneIndex: intPtr(0),
		Completed:      true,
	})
	require.NoError(t, err)
	assert.True(t, updated.Milestones[0].Completed)
	assert.False(t, updated.Milestones[0].Tasks[1].Completed)
}

func TestAdoptTwiceReportsExistingInstance(t *testing.T) {
	env, svc, tpl, _ := newRoadmapFixture(t, nil)
	ctx := context.Background()
	learner := env.addUser(t, "Learner", models.RoleLearner)

	instance, err := svc.AdoptRoadmap(ctx, tpl.ID, learner.ID)
	require.NoError(t, err)

	_, err = svc.AdoptRoadmap(ctx, tpl.ID, learner.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyAdopted)
	assert.Equal(t, instance.ID, apperrors.DetailsOf(err)["roadmapId"])

	template, err := svc.GetRoadmap(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, template.UsedBy)
}

func TestAdoptNonTemplate(t *testing.T) {
	env, svc, tpl, _ := newRoadmapFixture(t, nil)
	ctx := context.Background()
	learner := env.addUser(t, "Learner", models.RoleLearner)
	instance, err := svc.AdoptRoadmap(ctx, tpl.ID, learner.ID)
	require.NoError(t, err)

	_, err = svc.AdoptRoadmap(ctx, instance.ID, learner.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotTemplate)
}

func TestDeleteInstanceReleasesAdoption(t *testing.T) {
	env, svc, tpl, author := newRoadmapFixture(t, nil)
	ctx := context.Background()
	learner := env.addUser(t, "Learner", models.RoleLearner)

	instance, err := svc.AdoptRoadmap(ctx, tpl.ID, learner.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteRoadmap(ctx, tpl.ID, author.ID), apperrors.ErrTemplateInUse)
	assert.ErrorIs(t, svc.DeleteRoadmap(ctx, instance.ID, author.ID), apperrors.ErrPermissionDenied)

	require.NoError(t, svc.DeleteRoadmap(ctx, instance.ID, learner.ID))

	template, err := svc.GetRoadmap(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, template.UsedBy)
	_, found, err := env.roadmaps.FindAdoption(ctx, tpl.ID, learner.ID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, svc.DeleteRoadmap(ctx, tpl.ID, author.ID), "deleting a template without adopters")
}

func TestUpdateProgressRejections(t *testing.T) {
	env, svc, tpl, author := newRoadmapFixture(t, nil)
	ctx := context.Background()
	learner := env.addUser(t, "Learner", models.RoleLearner)
	instance, err := svc.AdoptRoadmap(ctx, tpl.ID, learner.ID)
	require.NoError(t, err)

	_, err = svc.UpdateProgress(ctx, tpl.ID, author.ID, &dto.UpdateProgressRequest{MilestoneIndex: intPtr(0), Completed: true})
	assert.ErrorIs(t, err, apperrors.ErrTemplateImmutable)

	_, err = svc.UpdateProgress(ctx, instance.ID, author.ID, &dto.UpdateProgressRequest{MilestoneIndex: intPtr(0), Completed: true})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	for _, req := range []*dto.UpdateProgressRequest{
		{MilestoneIndex: intPtr(2), Completed: true},
		{MilestoneIndex: intPtr(-1), Completed: true},
		{MilestoneIndex: intPtr(1), TaskIndex: intPtr(1), Completed: true},
	} {
		_, err = svc.UpdateProgress(ctx, instance.ID, learner.ID, req)
		assert.ErrorIs(t, err, apperrors.ErrIndexOutOfRange)
	}

	stored, err := svc.GetRoadmap(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(0), stored.Progress)
	for _, m := range stored.Milestones {
		assert.False(t, m.Completed)
	}
}

func TestApplyProgressDoesNotMutateInput(t *testing.T) {
	in := []models.Milestone{{Title: "m", Tasks: []models.Task{{Title: "t"}}}}

	out, err := applyProgress(in, 0, intPtr(0), true)
	require.NoError(t, err)
	assert.True(t, out[0].Tasks[0].Completed)
	assert.False(t, in[0].Tasks[0].Completed)
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, float64(0), progressPercent(nil))
	assert.Equal(t, float64(100), progressPercent([]models.Milestone{{Tasks: []models.Task{{Completed: true}}}}))
	assert.InDelta(t, 66.7, progressPercent([]models.Milestone{
		{Tasks: []models.Task{{Completed: true}, {Completed: true}}},
		{Tasks: []models.Task{{}}},
	}), 0.001)
}

const generatedRoadmap = `{
  "title": "Kubernetes in 4 weeks",
  "description": "From pods to operators",
  "category": "devops",
  "difficulty": "intermediate",
  "milestones": [
    {"title": "Pods", "tasks": [{"title": "Run nginx"}]}
  ]
}`

func TestGenerateRoadmap(t *testing.T) {
	env, svc, _, _ := newRoadmapFixture(t, stubGenerator{text: "```json\n" + generatedRoadmap + "\n```"})
	ctx := context.Background()
	learner := env.addUser(t, "Learner", models.RoleLearner)

	draft, err := svc.GenerateRoadmap(ctx, learner.ID, &dto.GenerateRoadmapRequest{Topic: "Kubernetes"})
	require.NoError(t, err)
	assert.Zero(t, draft.ID)
	assert.True(t, draft.GeneratedByAI)
	assert.Equal(t, "intermediate", draft.Difficulty)

	saved, err := svc.GenerateRoadmap(ctx, learner.ID, &dto.GenerateRoadmapRequest{Topic: "Kubernetes", Save: true})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, learner.ID, saved.CreatedBy)
	assert.False(t, saved.IsTemplate)
}

func TestGenerateRoadmapUpstreamFailure(t *testing.T) {
	upstream := &aiclient.UpstreamError{Status: 502, Details: "bad gateway"}
	_, svc, _, author := newRoadmapFixture(t, stubGenerator{err: upstream})

	_, err := svc.GenerateRoadmap(context.Background(), author.ID, &dto.GenerateRoadmapRequest{Topic: "Go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)

	var got *aiclient.UpstreamError
	assert.True(t, errors.As(err, &got))
	assert.Equal(t, 502, apperrors.DetailsOf(err)["upstreamStatus"])
}

func TestGenerateRoadmapUnparseable(t *testing.T) {
	_, svc, _, author := newRoadmapFixture(t, stubGenerator{text: "not json"})

	_, err := svc.GenerateRoadmap(context.Background(), author.ID, &dto.GenerateRoadmapRequest{Topic: "Go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, "not json", apperrors.DetailsOf(err)["raw"])
}
