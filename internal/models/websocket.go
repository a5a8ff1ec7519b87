package models

import (
	"time"

	"github.com/google/uuid"
)

// WebSocket event types
const (
	EventMessageReceive = "message:receive"
	EventMessageDelete  = "message:delete"
	EventUserMuted      = "user:muted"
	EventUserUnmuted    = "user:unmuted"
	EventJoinChannel    = "join:channel"
	EventLeaveChannel   = "leave:channel"
	EventError          = "error"
)

type WSMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type WSChannelPayload struct {
	ChannelID uuid.UUID `json:"channel_id"`
}

type WSMessageDeletePayload struct {
	MessageID uuid.UUID `json:"message_id"`
	ChannelID uuid.UUID `json:"channel_id"`
}

type WSUserMutedPayload struct {
	UserID        uuid.UUID `json:"user_id"`
	MuteExpiresAt time.Time `json:"mute_expires_at"`
}

type WSUserUnmutedPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
