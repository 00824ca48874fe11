package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/peerlearn/internal/app/models"
)

func TestHubLeaderboardQueryAggregatesHistory(t *testing.T) {
	r := NewHubRepository(nil)

	sql, args, err := r.hubLeaderboardQuery(7, 10).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "SUM(p.score) AS points")
	assert.Contains(t, sql, "WHERE a.hub_id = $1")
	assert.Contains(t, sql, "ORDER BY points DESC, first_completed ASC, u.id ASC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Equal(t, []interface{}{int64(7)}, args)
}

func TestActivityLeaderboardQuery(t *testing.T) {
	r := NewActivityRepository(nil)

	sql, args, err := r.activityLeaderboardQuery(3, 10).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE p.activity_id = $1")
	assert.Contains(t, sql, "ORDER BY p.score DESC, p.completed_at ASC, p.id ASC")
	assert.Contains(t, sql, "LIMIT 10")
	assert.Equal(t, []interface{}{int64(3)}, args)
}

func TestRefreshRatingQueryAveragesAllRatings(t *testing.T) {
	r := NewUserRepository(nil)

	sql, args, err := r.refreshRatingQuery(5).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "rating_average = COALESCE((SELECT ROUND(AVG(rating), 2) FROM ratings WHERE trainer_id = $1), 0)")
	assert.Contains(t, sql, "rating_count = (SELECT COUNT(*) FROM ratings WHERE trainer_id = $2)")
	assert.Contains(t, sql, "WHERE id = $3")
	assert.NotContains(t, sql, "rating_average *")
	assert.Equal(t, []interface{}{int64(5), int64(5), int64(5)}, args)
}

func TestRankEntries(t *testing.T) {
	entries := rankEntries([]models.LeaderboardEntry{{UserID: 3}, {UserID: 1}})

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestToJSONBKeepsEmptySlices(t *testing.T) {
	b, err := toJSONB([]models.Question{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}
