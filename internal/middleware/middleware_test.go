package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func serveError(t *testing.T, err error) (int, errorBody) {
	t.Helper()
	router := gin.New()
	router.GET("/", func(c *gin.Context) { HandleAPIError(c, err) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleAPIErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperrors.NewBadRequestError("Invalid ID"), http.StatusBadRequest},
		{apperrors.NewCustomError(apperrors.ErrAlreadyMember, "Already a member"), http.StatusBadRequest},
		{apperrors.ErrAlreadyParticipated, http.StatusBadRequest},
		{apperrors.ErrSessionFull, http.StatusBadRequest},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperrors.ErrTokenRevoked, http.StatusUnauthorized},
		{apperrors.NewForbiddenError("Only hub admins"), http.StatusForbidden},
		{apperrors.ErrHubClosed, http.StatusForbidden},
		{apperrors.ErrRequestNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", apperrors.ErrRoadmapNotFound), http.StatusNotFound},
		{apperrors.ErrSessionOverlap, http.StatusConflict},
		{apperrors.ErrEmailAlreadyExists, http.StatusConflict},
		{apperrors.NewUpstreamError("Failed to generate roadmap", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			status, body := serveError(t, tc.err)
			assert.Equal(t, tc.status, status)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, body.Message, body.Error.Message)
		})
	}
}

func TestHandleAPIErrorMessages(t *testing.T) {
	_, body := serveError(t, apperrors.NewCustomError(apperrors.ErrAlreadyMember, "Already a member"))
	assert.Equal(t, "Already a member", body.Message)

	_, body = serveError(t, apperrors.ErrSessionFull)
	assert.Equal(t, "Session is full", body.Message)

	// raw internal errors never leak
	_, body = serveError(t, errors.New("pq: relation does not exist"))
	assert.Equal(t, "Internal server error", body.Message)
}

func TestHandleAPIErrorDetails(t *testing.T) {
	adopted := apperrors.NewCustomError(apperrors.ErrAlreadyAdopted, "Roadmap already adopted").
		WithDetails(map[string]interface{}{"roadmapId": 42})
	upstream := apperrors.NewUpstreamError("Failed to generate roadmap", errors.New("502")).
		WithDetails(map[string]interface{}{"upstreamStatus": 502})

	ExposeServerDetails(false)
	_, body := serveError(t, adopted)
	assert.Equal(t, float64(42), body.Error.Details["roadmapId"])
	_, body = serveError(t, upstream)
	assert.Nil(t, body.Error.Details)
	assert.Equal(t, "Failed to generate roadmap", body.Message)

	ExposeServerDetails(true)
	t.Cleanup(func() { ExposeServerDetails(false) })
	_, body = serveError(t, upstream)
	assert.Equal(t, float64(502), body.Error.Details["upstreamStatus"])
}

func newAuthRouter(jwtService *auth.JWTService, role models.RoleType) *gin.Engine {
	m := NewAuthMiddleware(jwtService)
	router := gin.New()
	handler := func(c *gin.Context) {
		id, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"userID": id})
	}
	router.GET("/me", m.JWTAuth(), handler)
	router.GET("/trainer", m.JWTAuth(), m.RoleRequired(role), handler)
	return router
}

func TestJWTAuth(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Minute,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "peerlearn-test",
	})
	pair, err := jwtService.GenerateTokenPair(&models.User{ID: 7, Email: "ada@example.com", Role: models.RoleLearner})
	require.NoError(t, err)

	router := newAuthRouter(jwtService, models.RoleTrainer)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"no token", "/me", "", http.StatusUnauthorized},
		{"garbage", "/me", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"missing bearer prefix", "/me", pair.AccessToken, http.StatusUnauthorized},
		{"valid", "/me", "Bearer " + pair.AccessToken, http.StatusOK},
		{"query token", "/me?token=" + pair.AccessToken, "", http.StatusOK},
		{"wrong role", "/trainer", "Bearer " + pair.AccessToken, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestJWTAuthExpiredToken(t *testing.T) {
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  -time.Minute,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "peerlearn-test",
	})
	pair, err := jwtService.GenerateTokenPair(&models.User{ID: 7, Email: "ada@example.com", Role: models.RoleLearner})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	newAuthRouter(jwtService, models.RoleTrainer).ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "AUTH_006", body.Error.Code)
	assert.Equal(t, "Token has expired", body.Error.Details["reason"])
}

type bindTarget struct {
	Name string `json:"name" binding:"required,min=3"`
}

func TestBindJSON(t *testing.T) {
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req bindTarget
		if !BindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})

	for body, status := range map[string]int{
		`{"name":"Ada Lovelace"}`: http.StatusOK,
		`{"name":"A"}`:            http.StatusBadRequest,
		`{}`:                      http.StatusBadRequest,
		`not json`:                http.StatusBadRequest,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, body)
	}
}

func TestErrorDetailsAreAlwaysObjects(t *testing.T) {
	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req bindTarget
		if !BindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})

	post := func(body string) errorBody {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
		var out errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
		return out
	}

	invalid := post(`{"name":"A"}`)
	fields, ok := invalid.Error.Details["fields"].([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "Name", fields[0].(map[string]interface{})["field"])

	malformed := post(`not json`)
	assert.NotEmpty(t, malformed.Error.Details["reason"])

	// missing header goes through JWTAuth
	w := httptest.NewRecorder()
	newAuthRouter(auth.NewJWTService(auth.JWTConfig{SecretKey: "s", AccessTokenExp: time.Hour}), models.RoleLearner).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var missing errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &missing))
	assert.Equal(t, "Authorization header missing", missing.Error.Details["reason"])
}
