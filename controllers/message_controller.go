package controllers

import (
	"net/http"
	"strconv"

	"github.com/DaniilNightingale/EMPIREsite3/config"
	"github.com/DaniilNightingale/EMPIREsite3/services"
	"github.com/gin-gonic/gin"
)

// SendMessageRequest represents the request body for a direct message
type SendMessageRequest struct {
	ToUserID uint   `json:"to_user_id" binding:"required"`
	Message  string `json:"message" binding:"required,max=2000"`
}

// BroadcastRequest represents the request body for an admin broadcast
type BroadcastRequest struct {
	Message string `json:"message" binding:"required,max=2000"`
}

func chatService() *services.ChatService {
	return services.NewChatService(config.GetDB(), appClock)
}

// SendMessage handles POST /api/v1/chat/messages
func SendMessage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	message, err := chatService().Send(c.Request.Context(), user, req.ToUserID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, message)
}

// ListMessages handles GET /api/v1/chat/messages?with_user_id=&limit= - the latest
// messages of a conversation, oldest first
func ListMessages(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	withUserID, err := strconv.ParseUint(c.Query("with_user_id"), 10, 64)
	if err != nil || withUserID == 0 {
		respondErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "with_user_id is required")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			respondErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a number")
			return
		}
	}

	messages, err := chatService().Conversation(c.Request.Context(), user, uint(withUserID), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// BroadcastMessage handles POST /api/v1/chat/broadcast (admin only)
func BroadcastMessage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	sent, err := chatService().Broadcast(c.Request.Context(), user, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"recipients": sent})
}

// GetNotifications handles GET /api/v1/notifications - the timestamps clients poll
func GetNotifications(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	summary, err := services.NewNotificationService(chatService(), orderService()).Summary(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, summary)
}
