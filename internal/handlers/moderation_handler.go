package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/loreline/backend/internal/middleware"
	"github.com/loreline/backend/internal/moderation"
	"github.com/loreline/backend/internal/models"
	"github.com/loreline/backend/internal/repository"
	"github.com/loreline/backend/internal/websocket"
)

type ModerationHandler struct {
	ledger   *moderation.Ledger
	modRepo  *repository.ModerationRepository
	userRepo *repository.UserRepository
	hub      *websocket.Hub
}

func NewModerationHandler(ledger *moderation.Ledger, modRepo *repository.ModerationRepository, userRepo *repository.UserRepository, hub *websocket.Hub) *ModerationHandler {
	return &ModerationHandler{
		ledger:   ledger,
		modRepo:  modRepo,
		userRepo: userRepo,
		hub:      hub,
	}
}

// checkTarget validates a moderation target: the target must exist, must not
// be the caller, and moderators cannot act on other staff.
func (h *ModerationHandler) checkTarget(c *gin.Context, identity models.Identity, targetID uuid.UUID) bool {
	if targetID == identity.UserID {
		ErrorResponse(c, http.StatusBadRequest, "cannot moderate yourself")
		return false
	}

	role, err := h.userRepo.GetRole(targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "User not found")
			return false
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to check target")
		return false
	}

	if !identity.IsAdmin && role != models.RoleUser {
		ErrorResponse(c, http.StatusForbidden, "cannot moderate staff")
		return false
	}

	return true
}

func issuerLabel(identity models.Identity) string {
	if identity.IsAdmin {
		return models.IssuedByAdmin
	}
	return models.IssuedByModerator
}

// MuteUser mutes a user for a bounded duration. Moderator or admin.
func (h *ModerationHandler) MuteUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || !identity.Staff() {
		ErrorResponse(c, http.StatusForbidden, "access denied")
		return
	}

	var req models.MuteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !h.checkTarget(c, identity, req.UserID) {
		return
	}

	expiresAt, err := h.ledger.ApplyMute(req.UserID, req.DurationMinutes, issuerLabel(identity))
	if err != nil {
		if errors.Is(err, moderation.ErrMuteDuration) {
			ErrorResponse(c, http.StatusBadRequest, "mute duration must be between 1 minute and 7 days")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to mute user")
		return
	}

	h.logAction(identity, req.UserID, "mute", "manual mute")

	if err := h.hub.PublishGlobal(models.WSMessage{
		Event:   models.EventUserMuted,
		Payload: models.WSUserMutedPayload{UserID: req.UserID, MuteExpiresAt: expiresAt},
	}); err != nil {
		log.Printf("Warning: failed to broadcast mute notice for %s: %v", req.UserID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "user muted", "mute_expires_at": expiresAt})
}

// UnmuteUser lifts a mute. Moderator or admin.
func (h *ModerationHandler) UnmuteUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || !identity.Staff() {
		ErrorResponse(c, http.StatusForbidden, "access denied")
		return
	}

	var req models.UnmuteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !h.checkTarget(c, identity, req.UserID) {
		return
	}

	if err := h.ledger.Unmute(req.UserID); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to unmute user")
		return
	}

	h.logAction(identity, req.UserID, "unmute", "manual unmute")

	if err := h.hub.PublishGlobal(models.WSMessage{
		Event:   models.EventUserUnmuted,
		Payload: models.WSUserUnmutedPayload{UserID: req.UserID},
	}); err != nil {
		log.Printf("Warning: failed to broadcast unmute notice for %s: %v", req.UserID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "user unmuted"})
}

// BanUser bans a user indefinitely. Admin only; bans never auto-expire.
func (h *ModerationHandler) BanUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || !identity.IsAdmin {
		ErrorResponse(c, http.StatusForbidden, "only admins can ban users")
		return
	}

	var req models.BanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !h.checkTarget(c, identity, req.UserID) {
		return
	}

	if err := h.ledger.ApplyBan(req.UserID, req.Reason, models.IssuedByAdmin); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to ban user")
		return
	}

	h.logAction(identity, req.UserID, "ban", req.Reason)

	c.JSON(http.StatusOK, gin.H{"message": "user banned"})
}

// UnbanUser lifts a ban. Admin only.
func (h *ModerationHandler) UnbanUser(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || !identity.IsAdmin {
		ErrorResponse(c, http.StatusForbidden, "only admins can unban users")
		return
	}

	var req models.UnbanUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.ledger.ClearBan(req.UserID); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to unban user")
		return
	}

	h.logAction(identity, req.UserID, "unban", "manual unban")

	c.JSON(http.StatusOK, gin.H{"message": "user unbanned"})
}

// GetUserRecord returns the moderation record for a user. Staff only.
func (h *ModerationHandler) GetUserRecord(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok || !identity.Staff() {
		ErrorResponse(c, http.StatusForbidden, "access denied")
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid user id")
		return
	}

	record, err := h.ledger.Record(targetID)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get moderation record")
		return
	}

	warnings, err := h.modRepo.GetWarnings(targetID, 50)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to get warnings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": record, "warnings": warnings})
}

func (h *ModerationHandler) logAction(identity models.Identity, targetID uuid.UUID, action, reason string) {
	entry := &models.ModerationLog{
		ID:           uuid.New(),
		Action:       action,
		ModeratorID:  &identity.UserID,
		TargetUserID: &targetID,
		Reason:       &reason,
		CreatedAt:    time.Now(),
	}
	if err := h.modRepo.AddLog(entry); err != nil {
		log.Printf("Warning: failed to write moderation log: %v", err)
	}
}
