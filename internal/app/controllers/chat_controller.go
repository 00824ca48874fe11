package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/peerlearn/internal/app/models/dto"
	"github.com/yigit/peerlearn/internal/app/services"
	"github.com/yigit/peerlearn/internal/middleware"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
)

// ChatController handles chat message operations
type ChatController struct {
	chatService services.ChatService
}

// NewChatController creates a new ChatController
func NewChatController(chatService services.ChatService) *ChatController {
	return &ChatController{
		chatService: chatService,
	}
}

// GetMessages godoc
// @Summary Get hub chat messages
// @Description Newest page first in chronological order; pass before to page backwards
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param before query int false "Only messages with a smaller ID"
// @Param limit query int false "Maximum number of messages (default: 50, max: 200)" default(50)
// @Success 200 {object} dto.APIResponse{data=[]models.ChatMessage}
// @Failure 403 {object} dto.ErrorResponse "Not a member of the hub"
// @Router /learner-hubs/{id}/messages [get]
func (c *ChatController) GetMessages(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var before int64
	if raw := ctx.Query("before"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v <= 0 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid before cursor").WithField("before")
			ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		before = v
	}

	messages, err := c.chatService.GetMessages(ctx.Request.Context(), hubID, userID, before, helpers.ParseLimit(ctx, 50, 200))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(messages, ""))
}

// SendMessage godoc
// @Summary Send hub chat message
// @Description Stored, then pushed to every WebSocket client of the hub
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=models.ChatMessage}
// @Failure 403 {object} dto.ErrorResponse "Not a member of the hub"
// @Router /learner-hubs/{id}/messages [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	hubID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	msg, err := c.chatService.SendMessage(ctx.Request.Context(), hubID, userID, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(msg, ""))
}
