package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/services"
	"github.com/yigit/peerlearn/internal/middleware"
)

const defaultSlotMinutes = 60

// SessionController handles trainer availability, sessions and ratings
type SessionController struct {
	sessionService services.SessionService
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService services.SessionService) *SessionController {
	return &SessionController{
		sessionService: sessionService,
	}
}

// SetAvailability replaces the caller's weekly availability
// @Summary Set own availability
// @Description Trainers only. Windows must not overlap and must start before they end.
// @Tags trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SetAvailabilityRequest true "Weekly windows"
// @Success 200 {object} dto.APIResponse{data=[]models.AvailabilitySlot}
// @Failure 400 {object} dto.ErrorResponse "Invalid windows"
// @Failure 403 {object} dto.ErrorResponse "Trainers only"
// @Router /trainers/me/availability [put]
func (c *SessionController) SetAvailability(ctx *gin.Context) {
	trainerID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.SetAvailabilityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	slots, err := c.sessionService.SetAvailability(ctx.Request.Context(), trainerID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(slots, "Availability updated"))
}

// GetAvailability returns a trainer's weekly availability
// @Summary Get trainer availability
// @Tags trainers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trainer ID"
// @Success 200 {object} dto.APIResponse{data=[]models.AvailabilitySlot}
// @Failure 404 {object} dto.ErrorResponse "Trainer not found"
// @Router /trainers/{id}/availability [get]
func (c *SessionController) GetAvailability(ctx *gin.Context) {
	trainerID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	slots, err := c.sessionService.GetAvailability(ctx.Request.Context(), trainerID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(slots, ""))
}

// GetFreeSlots returns bookable start times of a trainer on a date
// @Summary Get free slots
// @Tags trainers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trainer ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param duration query int false "Session length in minutes" default(60)
// @Success 200 {object} dto.APIResponse{data=dto.FreeSlotsResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid date or duration"
// @Router /trainers/{id}/slots [get]
func (c *SessionController) GetFreeSlots(ctx *gin.Context) {
	trainerID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	duration := defaultSlotMinutes
	if raw := ctx.Query("duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid duration").WithField("duration")
			ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		duration = d
	}

	slots, err := c.sessionService.GetFreeSlots(ctx.Request.Context(), trainerID, ctx.Query("date"), duration)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(slots, ""))
}

// CreateSession books a session with a trainer
// @Summary Book session
// @Description The start must be in the future, inside the trainer's availability when published, and must not overlap another scheduled session of the trainer.
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSessionRequest true "Session data"
// @Success 201 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 409 {object} dto.ErrorResponse "Trainer already booked for this time"
// @Router /sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	learnerID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.sessionService.CreateSession(ctx.Request.Context(), learnerID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(session, "Session booked"))
}

// ListSessions lists the caller's sessions
// @Summary List sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param role query string false "trainer or learner"
// @Param status query string false "scheduled, completed or cancelled"
// @Success 200 {object} dto.APIResponse{data=[]models.Session}
// @Router /sessions [get]
func (c *SessionController) ListSessions(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var filter dto.SessionFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	sessions, err := c.sessionService.ListSessions(ctx.Request.Context(), userID, &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(sessions, ""))
}

// GetSession handles retrieving one session
// @Summary Get session by ID
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	c.sessionAction(ctx, c.sessionService.GetSession, "")
}

// JoinSession adds the caller to a group session
// @Summary Join group session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "Session is full, not a group session or already joined"
// @Router /sessions/{id}/join [post]
func (c *SessionController) JoinSession(ctx *gin.Context) {
	c.sessionAction(ctx, c.sessionService.JoinSession, "Joined session")
}

// CompleteSession marks a session completed
// @Summary Complete session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "Session is not scheduled"
// @Failure 403 {object} dto.ErrorResponse "Trainer only"
// @Router /sessions/{id}/complete [put]
func (c *SessionController) CompleteSession(ctx *gin.Context) {
	c.sessionAction(ctx, c.sessionService.CompleteSession, "Session completed")
}

// CancelSession cancels a scheduled session
// @Summary Cancel session
// @Description A paid session is refunded
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "Session is not scheduled"
// @Failure 403 {object} dto.ErrorResponse "Trainer or booker only"
// @Router /sessions/{id}/cancel [put]
func (c *SessionController) CancelSession(ctx *gin.Context) {
	c.sessionAction(ctx, c.sessionService.CancelSession, "Session cancelled")
}

// PaySession records a mock payment
// @Summary Pay session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session}
// @Failure 400 {object} dto.ErrorResponse "Already paid or cancelled"
// @Failure 403 {object} dto.ErrorResponse "Booker only"
// @Router /sessions/{id}/payment [post]
func (c *SessionController) PaySession(ctx *gin.Context) {
	c.sessionAction(ctx, c.sessionService.PaySession, "Payment successful")
}

// RateSession reviews a completed session
// @Summary Rate session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param request body dto.RateSessionRequest true "Rating"
// @Success 201 {object} dto.APIResponse{data=models.Rating}
// @Failure 400 {object} dto.ErrorResponse "Not completed or already rated"
// @Failure 403 {object} dto.ErrorResponse "Not an attendee"
// @Router /sessions/{id}/rate [post]
func (c *SessionController) RateSession(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.RateSessionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	rating, err := c.sessionService.RateSession(ctx.Request.Context(), sessionID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(rating, "Rating submitted"))
}

type sessionActionFunc func(ctx context.Context, sessionID, userID int64) (*models.Session, error)

func (c *SessionController) sessionAction(ctx *gin.Context, action sessionActionFunc, message string) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	session, err := action(ctx.Request.Context(), sessionID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(session, message))
}
