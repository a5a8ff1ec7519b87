package models

import (
	"time"

	"github.com/google/uuid"
)

// Warning issuers
const (
	IssuedBySystem    = "system"
	IssuedByModerator = "moderator"
	IssuedByAdmin     = "admin"
)

// ModerationRecord is the durable per-user mute/ban state
type ModerationRecord struct {
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	IsMuted       bool       `json:"is_muted" db:"is_muted"`
	MuteExpiresAt *time.Time `json:"mute_expires_at,omitempty" db:"mute_expires_at"`
	IsBanned      bool       `json:"is_banned" db:"is_banned"`
	BanReason     *string    `json:"ban_reason,omitempty" db:"ban_reason"`
	BannedAt      *time.Time `json:"banned_at,omitempty" db:"banned_at"`
}

// Warning is one entry of a user's warning history
type Warning struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	Category      string    `json:"category" db:"category"`
	ToxicityScore float64   `json:"toxicity_score" db:"toxicity_score"`
	IssuedBy      string    `json:"issued_by" db:"issued_by"`
	IssuedAt      time.Time `json:"issued_at" db:"issued_at"`
}

// ModerationLog records actions taken by staff or the system
type ModerationLog struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	MessageID    *uuid.UUID `json:"message_id,omitempty" db:"message_id"`
	Action       string     `json:"action" db:"action"` // warn, mute, unmute, ban, unban, delete
	ModeratorID  *uuid.UUID `json:"moderator_id,omitempty" db:"moderator_id"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty" db:"target_user_id"`
	Reason       *string    `json:"reason,omitempty" db:"reason"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type MuteUserRequest struct {
	UserID          uuid.UUID `json:"user_id" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" binding:"required"`
}

type UnmuteUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type BanUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Reason string    `json:"reason" binding:"required"`
}

type UnbanUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}
