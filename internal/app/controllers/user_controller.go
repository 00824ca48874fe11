package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/services"
	"github.com/yigit/peerlearn/internal/middleware"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// UserController handles user-related operations
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// GetProfile returns the authenticated user
// @Summary Get own profile
// @Description Returns the caller's profile including points and rating summary
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.User} "Profile retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	user, err := c.userService.GetUserByID(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, ""))
}

// UpdateProfile updates the authenticated user's name and bio
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile data"
// @Success 200 {object} dto.APIResponse{data=models.User} "Profile updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Router /users/me [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, "Profile updated"))
}

// GetUserByID retrieves user information by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.User} "User retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid user ID format"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUserByID(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, ""))
}

// GetLeaderboard returns the global points leaderboard
// @Summary Global leaderboard
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of entries (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.LeaderboardEntry}
// @Router /users/leaderboard [get]
func (c *UserController) GetLeaderboard(ctx *gin.Context) {
	limit := helpers.ParseLimit(ctx, defaultLeaderboardLimit, maxLeaderboardLimit)

	entries, err := c.userService.GetLeaderboard(ctx.Request.Context(), limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries, ""))
}

// ListTrainers lists trainers ordered by rating
// @Summary List trainers
// @Tags trainers
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param pageSize query int false "Page size (default: 10, max: 100)" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /trainers [get]
func (c *UserController) ListTrainers(ctx *gin.Context) {
	page, pageSize := helpers.ParsePaginationParams(ctx)

	trainers, pagination, err := c.userService.ListTrainers(ctx.Request.Context(), page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      trainers,
		Pagination: pagination,
	}, ""))
}

// GetTrainerRatings lists the latest ratings of a trainer
// @Summary Trainer ratings
// @Tags trainers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trainer ID"
// @Param limit query int false "Number of ratings (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.Rating}
// @Failure 404 {object} dto.ErrorResponse "Trainer not found"
// @Router /trainers/{id}/ratings [get]
func (c *UserController) GetTrainerRatings(ctx *gin.Context) {
	trainerID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	ratings, err := c.userService.GetTrainerRatings(ctx.Request.Context(), trainerID, helpers.ParseLimit(ctx, 10, 100))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(ratings, ""))
}
