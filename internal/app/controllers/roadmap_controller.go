package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/services"
	"github.com/yigit/peerlearn/internal/middleware"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
)

// RoadmapController handles roadmap templates, adoption and progress
type RoadmapController struct {
	roadmapService services.RoadmapService
}

// NewRoadmapController creates a new RoadmapController
func NewRoadmapController(roadmapService services.RoadmapService) *RoadmapController {
	return &RoadmapController{
		roadmapService: roadmapService,
	}
}

// CreateRoadmap handles creating a template or personal roadmap
// @Summary Create roadmap
// @Tags roadmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateRoadmapRequest true "Roadmap data"
// @Success 201 {object} dto.APIResponse{data=dto.RoadmapResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Router /roadmaps [post]
func (c *RoadmapController) CreateRoadmap(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateRoadmapRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	roadmap, err := c.roadmapService.CreateRoadmap(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(roadmap, "Roadmap created successfully"))
}

// ListRoadmaps lists roadmaps
// @Summary List roadmaps
// @Tags roadmaps
// @Produce json
// @Security BearerAuth
// @Param template query bool false "Only templates (true) or only instances (false)"
// @Param mine query bool false "Only the caller's roadmaps"
// @Param category query string false "Filter by category"
// @Param page query int false "Page number (1-based)" default(1) minimum(1)
// @Param pageSize query int false "Page size (default: 10, max: 100)" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Router /roadmaps [get]
func (c *RoadmapController) ListRoadmaps(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var filter dto.RoadmapFilterRequest
	if !middleware.BindQuery(ctx, &filter) {
		return
	}
	page, pageSize := helpers.ParsePaginationParams(ctx)

	roadmaps, pagination, err := c.roadmapService.ListRoadmaps(ctx.Request.Context(), userID, &filter, page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      roadmaps,
		Pagination: pagination,
	}, ""))
}

// GetRoadmap handles retrieving one roadmap
// @Summary Get roadmap by ID
// @Tags roadmaps
// @Produce json
// @Security BearerAuth
// @Param id path int true "Roadmap ID"
// @Success 200 {object} dto.APIResponse{data=dto.RoadmapResponse}
// @Failure 404 {object} dto.ErrorResponse "Roadmap not found"
// @Router /roadmaps/{id} [get]
func (c *RoadmapController) GetRoadmap(ctx *gin.Context) {
	roadmapID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	roadmap, err := c.roadmapService.GetRoadmap(ctx.Request.Context(), roadmapID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(roadmap, ""))
}

// AdoptRoadmap copies a template into a personal roadmap
// @Summary Adopt roadmap template
// @Description Creates an instance with every milestone and task reset. Adopting twice returns 400 with the existing instance id in details.roadmapId.
// @Tags roadmaps
// @Produce json
// @Security BearerAuth
// @Param id path int true "Template ID"
// @Success 201 {object} dto.APIResponse{data=dto.RoadmapResponse}
// @Failure 400 {object} dto.ErrorResponse "Not a template or already adopted"
// @Failure 404 {object} dto.ErrorResponse "Roadmap not found"
// @Router /roadmaps/{id}/adopt [post]
func (c *RoadmapController) AdoptRoadmap(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	templateID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	instance, err := c.roadmapService.AdoptRoadmap(ctx.Request.Context(), templateID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(instance, "Roadmap adopted"))
}

// UpdateProgress toggles a task or milestone of an adopted roadmap
// @Summary Update roadmap progress
// @Description Omit taskIndex to toggle the milestone itself. Task toggles never change the milestone flag.
// @Tags roadmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Roadmap ID"
// @Param request body dto.UpdateProgressRequest true "Progress update"
// @Success 200 {object} dto.APIResponse{data=dto.RoadmapResponse}
// @Failure 400 {object} dto.ErrorResponse "Template or index out of range"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Router /roadmaps/{id}/progress [put]
func (c *RoadmapController) UpdateProgress(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	roadmapID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateProgressRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	roadmap, err := c.roadmapService.UpdateProgress(ctx.Request.Context(), roadmapID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(roadmap, "Progress updated"))
}

// DeleteRoadmap handles deleting a roadmap
// @Summary Delete roadmap
// @Description Deleting an adopted instance releases the adoption
// @Tags roadmaps
// @Produce json
// @Security BearerAuth
// @Param id path int true "Roadmap ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Template still has adopters"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Router /roadmaps/{id} [delete]
func (c *RoadmapController) DeleteRoadmap(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	roadmapID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.roadmapService.DeleteRoadmap(ctx.Request.Context(), roadmapID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Roadmap deleted successfully"))
}

// GenerateRoadmap asks the AI generator for a roadmap
// @Summary Generate roadmap with AI
// @Description Returns a draft; with save=true the draft is stored as a personal roadmap
// @Tags roadmaps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.GenerateRoadmapRequest true "Topic and options"
// @Success 200 {object} dto.APIResponse{data=dto.RoadmapResponse}
// @Failure 500 {object} dto.ErrorResponse "Generation failed"
// @Router /roadmaps/generate [post]
func (c *RoadmapController) GenerateRoadmap(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.GenerateRoadmapRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	roadmap, err := c.roadmapService.GenerateRoadmap(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status := http.StatusOK
	if req.Save {
		status = http.StatusCreated
	}
	ctx.JSON(status, dto.NewSuccessResponse(roadmap, "Roadmap generated"))
}
