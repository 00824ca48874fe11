package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/services"
	"github.com/yigit/peerlearn/internal/middleware"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
)

// HubController handles learner hub operations
type HubController struct {
	hubService services.HubService
}

// NewHubController creates a new HubController
func NewHubController(hubService services.HubService) *HubController {
	return &HubController{
		hubService: hubService,
	}
}

// CreateHub handles creating a new hub
// @Summary Create a learner hub
// @Description The creator becomes the hub's admin
// @Tags learner-hubs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateHubRequest true "Hub data"
// @Success 201 {object} dto.APIResponse{data=models.LearnerHub} "Hub created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /learner-hubs [post]
func (c *HubController) CreateHub(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateHubRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	hub, err := c.hubService.CreateHub(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(hub, "Hub created successfully"))
}

// ListHubs handles retrieving hubs with optional filtering
// @Summary List learner hubs
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by name or description"
// @Param category query string false "Filter by category"
// @Param mine query bool false "Only hubs the caller belongs to"
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param pageSize query int false "Page size (default: 10, max: 100)" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse} "Hubs retrieved successfully"
// @Router /learner-hubs [get]
func (c *HubController) ListHubs(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var filter dto.HubFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}
	page, pageSize := helpers.ParsePaginationParams(ctx)

	hubs, pagination, err := c.hubService.ListHubs(ctx.Request.Context(), userID, &filter, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      hubs,
		Pagination: pagination,
	}, ""))
}

// GetHub handles retrieving one hub
// @Summary Get learner hub by ID
// @Description Includes members; pending join requests are included for admins and moderators
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Success 200 {object} dto.APIResponse{data=models.LearnerHub}
// @Failure 404 {object} dto.ErrorResponse "Hub not found"
// @Router /learner-hubs/{id} [get]
func (c *HubController) GetHub(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	hub, err := c.hubService.GetHub(ctx.Request.Context(), hubID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(hub, ""))
}

// UpdateHub handles updating hub details
// @Summary Update learner hub
// @Tags learner-hubs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param request body dto.UpdateHubRequest true "Hub data"
// @Success 200 {object} dto.APIResponse{data=models.LearnerHub}
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /learner-hubs/{id} [put]
func (c *HubController) UpdateHub(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateHubRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	hub, err := c.hubService.UpdateHub(ctx.Request.Context(), hubID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(hub, "Hub updated successfully"))
}

// DeleteHub handles deleting a hub
// @Summary Delete learner hub
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /learner-hubs/{id} [delete]
func (c *HubController) DeleteHub(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.hubService.DeleteHub(ctx.Request.Context(), hubID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Hub deleted successfully"))
}

// JoinHub handles joining a hub
// @Summary Join learner hub
// @Description Public hubs add the caller immediately; private hubs create a pending request; closed hubs refuse
// @Tags learner-hubs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param request body dto.JoinHubRequest false "Optional message for the admins"
// @Success 200 {object} dto.APIResponse{data=dto.JoinHubResponse}
// @Failure 400 {object} dto.ErrorResponse "Already a member or request pending"
// @Failure 403 {object} dto.ErrorResponse "Hub is closed"
// @Router /learner-hubs/{id}/join [post]
func (c *HubController) JoinHub(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.JoinHubRequest
	if ctx.Request.ContentLength > 0 && !middleware.BindJSON(ctx, &req) {
		return
	}

	status, err := c.hubService.JoinHub(ctx.Request.Context(), hubID, userID, req.Message)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Joined hub"
	if status == services.JoinStatusPending {
		message = "Join request sent"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.JoinHubResponse{Status: status}, message))
}

// ApproveRequest approves a pending join request
// @Summary Approve join request
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param userId path int true "Requesting user ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Admins and moderators only"
// @Failure 404 {object} dto.ErrorResponse "No pending request"
// @Router /learner-hubs/{id}/approve/{userId} [post]
func (c *HubController) ApproveRequest(ctx *gin.Context) {
	c.resolveRequest(ctx, c.hubService.ApproveRequest, "Join request approved")
}

// RejectRequest rejects a pending join request
// @Summary Reject join request
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param userId path int true "Requesting user ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Admins and moderators only"
// @Failure 404 {object} dto.ErrorResponse "No pending request"
// @Router /learner-hubs/{id}/reject/{userId} [post]
func (c *HubController) RejectRequest(ctx *gin.Context) {
	c.resolveRequest(ctx, c.hubService.RejectRequest, "Join request rejected")
}

// RemoveMember removes a member from the hub
// @Summary Remove hub member
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param userId path int true "Member user ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /learner-hubs/{id}/members/{userId} [delete]
func (c *HubController) RemoveMember(ctx *gin.Context) {
	c.resolveRequest(ctx, c.hubService.RemoveMember, "Member removed")
}

// resolveRequest runs an admin action on another member of the hub
func (c *HubController) resolveRequest(ctx *gin.Context, action func(ctx context.Context, hubID, actorID, userID int64) error, message string) {
	actorID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}

	if err := action(ctx.Request.Context(), hubID, actorID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, message))
}

// LeaveHub handles leaving a hub
// @Summary Leave learner hub
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Not a member, or the last admin"
// @Router /learner-hubs/{id}/leave [delete]
func (c *HubController) LeaveHub(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.hubService.LeaveHub(ctx.Request.Context(), hubID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Left hub"))
}

// UpdateMemberRole changes a member's hub role
// @Summary Change member role
// @Tags learner-hubs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param userId path int true "Member user ID"
// @Param request body dto.UpdateMemberRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Admins only"
// @Router /learner-hubs/{id}/members/{userId}/role [put]
func (c *HubController) UpdateMemberRole(ctx *gin.Context) {
	actorID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	userID, ok := parseIDParam(ctx, "userId")
	if !ok {
		return
	}

	var req dto.UpdateMemberRoleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.hubService.UpdateMemberRole(ctx.Request.Context(), hubID, actorID, userID, req.Role); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Member role updated"))
}

// ListMembers lists a hub's members
// @Summary List hub members
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Success 200 {object} dto.APIResponse{data=[]models.HubMember}
// @Router /learner-hubs/{id}/members [get]
func (c *HubController) ListMembers(ctx *gin.Context) {
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	members, err := c.hubService.ListMembers(ctx.Request.Context(), hubID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members, ""))
}

// GetLeaderboard returns the hub's points leaderboard
// @Summary Hub leaderboard
// @Description Sum of activity scores per member, ties broken by earliest completion
// @Tags learner-hubs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param limit query int false "Number of entries (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.LeaderboardEntry}
// @Router /learner-hubs/{id}/leaderboard [get]
func (c *HubController) GetLeaderboard(ctx *gin.Context) {
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	entries, err := c.hubService.GetLeaderboard(ctx.Request.Context(), hubID, helpers.ParseLimit(ctx, defaultLeaderboardLimit, maxLeaderboardLimit))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries, ""))
}
