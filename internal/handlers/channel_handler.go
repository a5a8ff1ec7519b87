package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loreline/backend/internal/middleware"
	"github.com/loreline/backend/internal/models"
	"github.com/loreline/backend/internal/repository"
)

type ChannelHandler struct {
	channelRepo *repository.ChannelRepository
}

func NewChannelHandler(channelRepo *repository.ChannelRepository) *ChannelHandler {
	return &ChannelHandler{channelRepo: channelRepo}
}

// CreateChannel registers a new channel. Admin only.
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || !identity.IsAdmin {
		ErrorResponse(c, http.StatusForbidden, "only admins can create channels")
		return
	}

	var req models.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ch := &models.Channel{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := ch.Validate(); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.channelRepo.Create(ch); err != nil {
		if errors.Is(err, repository.ErrNameTaken) {
			ErrorResponse(c, http.StatusConflict, "channel name already taken")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to create channel")
		return
	}

	c.JSON(http.StatusCreated, ch)
}

// ListChannels returns all channels ordered by name
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	channels, err := h.channelRepo.List()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list channels")
		return
	}
	c.JSON(http.StatusOK, channels)
}

// GetChannel returns one channel by id
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid channel id")
		return
	}

	ch, err := h.channelRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Channel not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get channel")
		return
	}

	c.JSON(http.StatusOK, ch)
}

// RenameChannel updates a channel's name and optionally its description.
// Admin only.
func (h *ChannelHandler) RenameChannel(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || !identity.IsAdmin {
		ErrorResponse(c, http.StatusForbidden, "only admins can rename channels")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid channel id")
		return
	}

	var req models.RenameChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Name) < 3 {
		ErrorResponse(c, http.StatusBadRequest, "channel name must be at least 3 characters")
		return
	}
	if req.Description != "" && len(req.Description) < 10 {
		ErrorResponse(c, http.StatusBadRequest, "channel description must be at least 10 characters")
		return
	}

	if err := h.channelRepo.Rename(id, req.Name, req.Description); err != nil {
		switch {
		case errors.Is(err, repository.ErrNameTaken):
			ErrorResponse(c, http.StatusConflict, "channel name already taken")
		case errors.Is(err, repository.ErrNotFound):
			ErrorResponse(c, http.StatusNotFound, "Channel not found")
		default:
			ErrorResponse(c, http.StatusInternalServerError, "Failed to rename channel")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "channel renamed"})
}

// DeleteChannel removes a channel. Historical messages are kept. Admin only.
func (h *ChannelHandler) DeleteChannel(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || !identity.IsAdmin {
		ErrorResponse(c, http.StatusForbidden, "only admins can delete channels")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid channel id")
		return
	}

	if err := h.channelRepo.Delete(id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Channel not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to delete channel")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "channel deleted"})
}
