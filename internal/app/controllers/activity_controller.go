package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/services"
	"github.com/yigit/peerlearn/internal/middleware"
)

// ActivityController handles hub activities and participation
type ActivityController struct {
	activityService services.ActivityService
}

// NewActivityController creates a new ActivityController
func NewActivityController(activityService services.ActivityService) *ActivityController {
	return &ActivityController{
		activityService: activityService,
	}
}

// CreateActivity handles creating an activity in a hub
// @Summary Create activity
// @Description Hub admins and moderators only. Quizzes and contests need at least one question.
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateActivityRequest true "Activity data"
// @Success 201 {object} dto.APIResponse{data=models.Activity}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 403 {object} dto.ErrorResponse "Not a hub admin or moderator"
// @Router /activities [post]
func (c *ActivityController) CreateActivity(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateActivityRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	activity, err := c.activityService.CreateActivity(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(activity, "Activity created successfully"))
}

// ListActivities lists activities of the caller's hubs
// @Summary List activities
// @Tags activities
// @Produce json
// @Security BearerAuth
// @Param hubId query int false "Filter by hub"
// @Param type query string false "Filter by type"
// @Success 200 {object} dto.APIResponse{data=[]models.Activity}
// @Router /activities [get]
func (c *ActivityController) ListActivities(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var filter dto.ActivityFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}

	activities, err := c.activityService.ListActivities(ctx.Request.Context(), userID, &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(activities, ""))
}

// GetActivity handles retrieving one activity
// @Summary Get activity by ID
// @Description Correct answers are hidden unless the caller manages the hub
// @Tags activities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Success 200 {object} dto.APIResponse{data=models.Activity}
// @Failure 404 {object} dto.ErrorResponse "Activity not found"
// @Router /activities/{id} [get]
func (c *ActivityController) GetActivity(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	activityID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	activity, err := c.activityService.GetActivity(ctx.Request.Context(), activityID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(activity, ""))
}

// Participate submits answers to an activity
// @Summary Participate in activity
// @Description One answer index per question, -1 to skip. Quizzes and contests are scored; other types record 0.
// @Tags activities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Param request body dto.ParticipateRequest true "Answers"
// @Success 201 {object} dto.APIResponse{data=dto.ParticipationResponse}
// @Failure 400 {object} dto.ErrorResponse "Already participated or wrong answer count"
// @Failure 403 {object} dto.ErrorResponse "Not a hub member"
// @Router /activities/{id}/participate [post]
func (c *ActivityController) Participate(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	activityID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ParticipateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.activityService.Participate(ctx.Request.Context(), activityID, userID, req.Answers)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp, "Participation recorded"))
}

// GetLeaderboard returns the top participants of an activity
// @Summary Activity leaderboard
// @Tags activities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Activity ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Participation}
// @Failure 404 {object} dto.ErrorResponse "Activity not found"
// @Router /activities/{id}/leaderboard [get]
func (c *ActivityController) GetLeaderboard(ctx *gin.Context) {
	activityID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	entries, err := c.activityService.GetLeaderboard(ctx.Request.Context(), activityID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries, ""))
}
