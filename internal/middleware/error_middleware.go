package middleware

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/logger"
)

// errorMapping ties a sentinel error to its HTTP status and default body
type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Order matters: the first sentinel found in the error chain wins.
var errorMappings = []errorMapping{
	// 401
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid email or password"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Not authorized"},

	// 403
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrHubClosed, http.StatusForbidden, dto.ErrorCodeForbidden, "This hub is closed"},

	// 404
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrHubNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Hub not found"},
	{apperrors.ErrRequestNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Join request not found"},
	{apperrors.ErrActivityNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Activity not found"},
	{apperrors.ErrRoadmapNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Roadmap not found"},
	{apperrors.ErrSessionNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Session not found"},
	{apperrors.ErrFileNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "File not found"},

	// 409
	{apperrors.ErrSessionOverlap, http.StatusConflict, dto.ErrorCodeConflict, "Trainer already booked for this time"},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},

	// 400
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
	{apperrors.ErrAlreadyMember, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Already a member"},
	{apperrors.ErrRequestPending, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Join request already pending"},
	{apperrors.ErrNotMember, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Not a member of this hub"},
	{apperrors.ErrLastAdmin, http.StatusBadRequest, dto.ErrorCodeBadRequest, "The last admin cannot leave the hub"},
	{apperrors.ErrAlreadyParticipated, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Already participated"},
	{apperrors.ErrAnswerCount, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Answer count does not match question count"},
	{apperrors.ErrAlreadyAdopted, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Roadmap already adopted"},
	{apperrors.ErrNotTemplate, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Roadmap is not a template"},
	{apperrors.ErrTemplateImmutable, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Template progress cannot be updated"},
	{apperrors.ErrIndexOutOfRange, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Index out of range"},
	{apperrors.ErrTemplateInUse, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Template has adopters"},
	{apperrors.ErrSessionFull, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Session is full"},
	{apperrors.ErrInvalidTransition, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Invalid session status transition"},
	{apperrors.ErrAlreadyRated, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Session already rated"},
	{apperrors.ErrAlreadyJoined, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Already joined this session"},
	{apperrors.ErrInvalidFileType, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Invalid file type"},
	{apperrors.ErrFileTooLarge, http.StatusBadRequest, dto.ErrorCodeBadRequest, "File too large"},

	// 500
	{apperrors.ErrUpstream, http.StatusInternalServerError, dto.ErrorCodeExternalServiceError, "Upstream service failed"},
}

var exposeServerDetails atomic.Bool

// ExposeServerDetails controls whether details of 5xx errors (upstream
// status, raw AI output) reach the client. Off in production.
func ExposeServerDetails(expose bool) {
	exposeServerDetails.Store(expose)
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := resolveError(err)

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		if !exposeServerDetails.Load() {
			detail.Details = nil
		}
	}

	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func resolveError(err error) (int, *dto.ErrorDetail) {
	status := http.StatusInternalServerError
	detail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status = m.status
			detail = dto.NewErrorDetail(m.code, m.message)
			break
		}
	}

	var ce *apperrors.CustomError
	if errors.As(err, &ce) {
		// Unmapped custom errors still hide their text
		if status != http.StatusInternalServerError || errors.Is(err, apperrors.ErrUpstream) {
			switch {
			case ce.StatusMsg != "":
				detail.Message = ce.StatusMsg
			case ce.Message != "":
				detail.Message = ce.Message
			}
		}
		if len(ce.Details) > 0 {
			detail.Details = ce.Details
		}
	}

	return status, detail
}
