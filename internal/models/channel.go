package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Channel struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Validate enforces the channel naming rules
func (c *Channel) Validate() error {
	if len(c.Name) < 3 {
		return fmt.Errorf("channel name must be at least 3 characters")
	}
	if len(c.Description) < 10 {
		return fmt.Errorf("channel description must be at least 10 characters")
	}
	return nil
}

type CreateChannelRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

type RenameChannelRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}
