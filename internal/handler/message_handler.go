package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rich-wisdom/SetList/internal/service"
	"github.com/rich-wisdom/SetList/pkg/apperror"
	"github.com/rich-wisdom/SetList/pkg/response"
	"github.com/rich-wisdom/SetList/pkg/validator"
)

type MessageHandler struct {
	service     service.MessageService
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewMessageHandler(service service.MessageService, redisClient *redis.Client) *MessageHandler {
	return &MessageHandler{
		service:     service,
		redisClient: redisClient,
		upgrader:    newUpgrader(),
	}
}

func (h *MessageHandler) Send(c *gin.Context) {
	senderID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input service.SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	message, err := h.service.Send(c.Request.Context(), senderID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// parseSince reads the optional RFC3339 "since" query parameter used to
// resume a room from the last seen timestamp.
func parseSince(c *gin.Context) (*time.Time, error) {
	raw := c.Query("since")
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, apperror.ErrBadRequest
	}
	return &t, nil
}

func (h *MessageHandler) History(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	since, err := parseSince(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC3339 timestamp"})
		return
	}

	messages, err := h.service.History(c.Request.Context(), viewerID, c.Param("room_id"), since)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages})
}

func (h *MessageHandler) ListChats(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	chats, err := h.service.ListChats(c.Request.Context(), viewerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": chats})
}

// HandleWebSocket streams a room: history newer than "since" is replayed
// first, then live messages follow as they are published.
func (h *MessageHandler) HandleWebSocket(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	roomID := c.Param("room_id")
	if !h.service.CanAccessRoom(viewerID, roomID) {
		response.ResponseError(c, apperror.ErrForbidden)
		return
	}

	since, err := parseSince(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC3339 timestamp"})
		return
	}

	replay := func(conn *websocket.Conn) error {
		messages, err := h.service.History(c.Request.Context(), viewerID, roomID, since)
		if err != nil {
			return err
		}

		for i := range messages {
			payload, err := json.Marshal(&messages[i])
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return err
			}
		}
		return nil
	}

	streamChannel(c, h.upgrader, h.redisClient, service.RoomChannel(roomID), replay)
}
