package websocket

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handler upgrades hub chat connections
type Handler struct {
	hub     *Hub
	members MembershipChecker
	sink    MessageSink
	logger  zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, members MembershipChecker, sink MessageSink, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		members: members,
		sink:    sink,
		logger:  logger,
	}
}

// HandleConnection godoc
// @Summary Open the real-time chat of a hub
// @Description Upgrades the connection to a WebSocket. Clients send {"content": "..."}; every stored message of the hub is pushed back.
// @Tags chat, websocket
// @Security BearerAuth
// @Param id path int true "Hub ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {object} dto.ErrorResponse "Invalid hub ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a member of the hub"
// @Router /learner-hubs/{id}/chat/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	hubID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || hubID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid hub ID"})
		return
	}

	userID, ok := c.Get("userID")
	uid, isInt := userID.(int64)
	if !ok || !isInt {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	isMember, err := h.members.IsMember(c.Request.Context(), hubID, uid)
	if err != nil {
		h.logger.Error().Err(err).Int64("hubID", hubID).Int64("userID", uid).Msg("Failed to check hub membership")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "You are not a member of this hub"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Int64("hubID", hubID).Int64("userID", uid).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		replies: make(chan []byte, 8),
		userID:  uid,
		hubID:   hubID,
		sink:    h.sink,
		logger:  h.logger,
	}
	if !h.hub.registerOrDrop(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
