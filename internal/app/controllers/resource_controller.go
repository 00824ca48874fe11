package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/services"
	"github.com/yigit/peerlearn/internal/middleware"
)

// ResourceController handles files shared inside a hub
type ResourceController struct {
	resourceService services.ResourceService
}

// NewResourceController creates a new ResourceController
func NewResourceController(resourceService services.ResourceService) *ResourceController {
	return &ResourceController{
		resourceService: resourceService,
	}
}

// UploadResource handles a file upload
// @Summary Upload hub resource
// @Description PDF and plain text files only. The sniffed content type must match the extension.
// @Tags resources
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} dto.APIResponse{data=models.HubResource}
// @Failure 400 {object} dto.ErrorResponse "Invalid file type or file too large"
// @Failure 403 {object} dto.ErrorResponse "Not a member of the hub"
// @Router /learner-hubs/{id}/resources [post]
func (c *ResourceController) UploadResource(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "File is required").WithField("file")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	resource, err := c.resourceService.UploadResource(ctx.Request.Context(), hubID, userID, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resource, "File uploaded successfully"))
}

// ListResources lists a hub's files
// @Summary List hub resources
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Success 200 {object} dto.APIResponse{data=[]models.HubResource}
// @Failure 403 {object} dto.ErrorResponse "Not a member of the hub"
// @Router /learner-hubs/{id}/resources [get]
func (c *ResourceController) ListResources(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resources, err := c.resourceService.ListResources(ctx.Request.Context(), hubID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resources, ""))
}

// DeleteResource removes a file
// @Summary Delete hub resource
// @Description The uploader or a hub admin only
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param fileId path int true "File ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.ErrorResponse "Not the uploader or an admin"
// @Failure 404 {object} dto.ErrorResponse "File not found"
// @Router /learner-hubs/{id}/resources/{fileId} [delete]
func (c *ResourceController) DeleteResource(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	fileID, ok := parseIDParam(ctx, "fileId")
	if !ok {
		return
	}

	if err := c.resourceService.DeleteResource(ctx.Request.Context(), hubID, fileID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "File deleted successfully"))
}
