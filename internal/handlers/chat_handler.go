package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loreline/backend/internal/middleware"
	"github.com/loreline/backend/internal/models"
	"github.com/loreline/backend/internal/pipeline"
	"github.com/loreline/backend/internal/repository"
	"github.com/loreline/backend/internal/websocket"
)

type ChatHandler struct {
	pipe     *pipeline.Pipeline
	msgRepo  *repository.MessageRepository
	userRepo *repository.UserRepository
	modRepo  *repository.ModerationRepository
	hub      *websocket.Hub
}

func NewChatHandler(pipe *pipeline.Pipeline, msgRepo *repository.MessageRepository, userRepo *repository.UserRepository, modRepo *repository.ModerationRepository, hub *websocket.Hub) *ChatHandler {
	return &ChatHandler{
		pipe:     pipe,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		modRepo:  modRepo,
		hub:      hub,
	}
}

// ListMessages returns one page of a channel's history. Pages are fetched
// newest-first, then each page is re-sorted chronologically so clients can
// render it top-down without another sort.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid channel id")
		return
	}

	page := 1
	if p := c.Query("page"); p != "" {
		if pi, err := strconv.Atoi(p); err == nil && pi > 0 {
			page = pi
		}
	}
	limit := 50
	if l := c.Query("limit"); l != "" {
		if li, err := strconv.Atoi(l); err == nil && li > 0 {
			limit = li
		}
	}

	messages, hasMore, err := h.msgRepo.ListByChannel(channelID, page, limit)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get messages")
		return
	}

	sortChronological(messages)

	c.JSON(http.StatusOK, models.MessagePage{
		Messages: messages,
		Page:     page,
		HasMore:  hasMore,
	})
}

// sortChronological reverses a newest-first page in place so it reads
// oldest to newest.
func sortChronological(messages []models.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

// PostMessage submits a message to a channel through the moderation
// pipeline. Gate rejections come back as structured bodies with the
// matching status; only storage failures are 500s.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	channelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid channel id")
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.userRepo.GetByID(identity.UserID)
	if err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "unknown user")
		return
	}
	identity.DisplayName = user.DisplayName

	message, err := h.pipe.Submit(c.Request.Context(), identity, channelID, req.Content)
	if err != nil {
		var rej *pipeline.Rejection
		if errors.As(err, &rej) {
			RejectionResponse(c, rej)
			return
		}
		log.Printf("Error: message submission failed: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to send message")
		return
	}

	c.JSON(http.StatusCreated, message)
}

// DeleteMessage soft-deletes a message. The author may delete their own;
// staff may delete any. Subscribers are notified so clients can swap in the
// placeholder.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("message_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid message id")
		return
	}

	identity, ok := middleware.GetIdentity(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "authentication required")
		return
	}

	msg, err := h.msgRepo.GetByID(messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Message not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get message")
		return
	}

	if msg.AuthorID != identity.UserID && !identity.Staff() {
		ErrorResponse(c, http.StatusForbidden, "access denied")
		return
	}

	if err := h.msgRepo.SoftDelete(messageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Message not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to delete message")
		return
	}

	if err := h.hub.Publish(msg.ChannelID, models.WSMessage{
		Event: models.EventMessageDelete,
		Payload: models.WSMessageDeletePayload{
			MessageID: messageID,
			ChannelID: msg.ChannelID,
		},
	}); err != nil {
		log.Printf("Warning: failed to broadcast message delete %s: %v", messageID, err)
	}

	// staff deletions of someone else's message are logged
	if msg.AuthorID != identity.UserID {
		reason := "staff delete"
		entry := &models.ModerationLog{
			ID:           uuid.New(),
			MessageID:    &messageID,
			Action:       "delete",
			ModeratorID:  &identity.UserID,
			TargetUserID: &msg.AuthorID,
			Reason:       &reason,
			CreatedAt:    time.Now(),
		}
		if err := h.modRepo.AddLog(entry); err != nil {
			log.Printf("Warning: failed to write moderation log: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}
