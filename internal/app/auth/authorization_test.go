package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
)

type stubMembers map[int64]models.HubRole

func (s stubMembers) GetMemberRole(_ context.Context, _ int64, userID int64) (models.HubRole, bool, error) {
	role, ok := s[userID]
	return role, ok, nil
}

type stubUsers map[int64]*models.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func TestHubRoleChecks(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthorizationService(stubUsers{}, stubMembers{
		1: models.HubRoleAdmin,
		2: models.HubRoleModerator,
		3: models.HubRoleMember,
	})

	require.NoError(t, svc.ValidateAdmin(ctx, 9, 1))
	assert.ErrorIs(t, svc.ValidateAdmin(ctx, 9, 2), apperrors.ErrPermissionDenied)

	require.NoError(t, svc.ValidateModerator(ctx, 9, 2))
	assert.ErrorIs(t, svc.ValidateModerator(ctx, 9, 3), apperrors.ErrPermissionDenied)

	role, err := svc.ValidateMember(ctx, 9, 3)
	require.NoError(t, err)
	assert.Equal(t, models.HubRoleMember, role)

	_, err = svc.ValidateMember(ctx, 9, 4)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestValidateTrainer(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthorizationService(stubUsers{
		1: {ID: 1, Role: models.RoleTrainer},
		2: {ID: 2, Role: models.RoleLearner},
	}, stubMembers{})

	assert.NoError(t, svc.ValidateTrainer(ctx, 1))
	assert.ErrorIs(t, svc.ValidateTrainer(ctx, 2), apperrors.ErrPermissionDenied)
	assert.ErrorIs(t, svc.ValidateTrainer(ctx, 3), apperrors.ErrUserNotFound)
}
