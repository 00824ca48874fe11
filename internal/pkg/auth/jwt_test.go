package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/peerlearn/internal/app/models"
)

func newTestJWT(accessExp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "peerlearn-test",
	})
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newTestJWT(15 * time.Minute)
	user := &models.User{ID: 42, Email: "ada@example.com", Role: models.RoleTrainer}

	pair, err := svc.GenerateTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 900, pair.ExpiresIn)

	claims, err := svc.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "trainer", claims.Role)
	assert.Equal(t, "peerlearn-test", claims.Issuer)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestJWT(-time.Minute)
	pair, err := svc.GenerateTokenPair(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	pair, err := newTestJWT(time.Minute).GenerateTokenPair(&models.User{ID: 1, Email: "a@b.c"})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Minute})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestExtractBearerToken(t *testing.T) {
	tok, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	_, err = ExtractBearerToken("abc.def")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
