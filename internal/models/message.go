package models

import (
	"time"

	"github.com/google/uuid"
)

// DeletedPlaceholder replaces the content of soft-deleted messages on every
// read path. The original text is never re-serialized.
const DeletedPlaceholder = "[message deleted]"

type Message struct {
	ID                uuid.UUID `json:"id" db:"id"`
	ChannelID         uuid.UUID `json:"channel_id" db:"channel_id"`
	AuthorID          uuid.UUID `json:"author_id" db:"author_id"`
	AuthorDisplayName string    `json:"author_display_name" db:"author_display_name"`
	Content           string    `json:"content" db:"content"`
	IsDeleted         bool      `json:"is_deleted" db:"is_deleted"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Redact replaces deleted content with the placeholder.
func (m *Message) Redact() {
	if m.IsDeleted {
		m.Content = DeletedPlaceholder
	}
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

type MessagePage struct {
	Messages []Message `json:"messages"`
	Page     int       `json:"page"`
	HasMore  bool      `json:"has_more"`
}
