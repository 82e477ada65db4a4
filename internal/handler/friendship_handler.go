package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rich-wisdom/SetList/internal/service"
	"github.com/rich-wisdom/SetList/pkg/response"
)

type FriendshipHandler struct {
	service service.FriendshipService
}

func NewFriendshipHandler(service service.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{service: service}
}

func otherUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *FriendshipHandler) SendRequest(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	receiverID, ok := otherUserID(c)
	if !ok {
		return
	}

	if err := h.service.SendRequest(c.Request.Context(), viewerID, receiverID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "friend request sent"})
}

func (h *FriendshipHandler) AcceptRequest(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	senderID, ok := otherUserID(c)
	if !ok {
		return
	}

	if err := h.service.AcceptRequest(c.Request.Context(), viewerID, senderID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend request accepted"})
}

func (h *FriendshipHandler) DeclineRequest(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	senderID, ok := otherUserID(c)
	if !ok {
		return
	}

	if err := h.service.DeclineRequest(c.Request.Context(), viewerID, senderID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend request declined"})
}

func (h *FriendshipHandler) Unfriend(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	otherID, ok := otherUserID(c)
	if !ok {
		return
	}

	if err := h.service.Unfriend(c.Request.Context(), viewerID, otherID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "unfriended"})
}

func (h *FriendshipHandler) Status(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	otherID, ok := otherUserID(c)
	if !ok {
		return
	}

	status, err := h.service.Status(c.Request.Context(), viewerID, otherID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	friends, err := h.service.ListFriends(c.Request.Context(), viewerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": friends})
}

func (h *FriendshipHandler) ListPendingRequests(c *gin.Context) {
	viewerID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	requests, err := h.service.ListPendingRequests(c.Request.Context(), viewerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": requests})
}
