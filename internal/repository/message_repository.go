package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/loreline/backend/internal/database"
	"github.com/loreline/backend/internal/models"
)

type MessageRepository struct {
	db *database.DB
}

func NewMessageRepository(db *database.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append persists a new message
func (r *MessageRepository) Append(message *models.Message) error {
	query := `
		INSERT INTO messages (id, channel_id, author_id, content, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		query,
		message.ID,
		message.ChannelID,
		message.AuthorID,
		message.Content,
		message.CreatedAt,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by ID. Deleted content is redacted.
func (r *MessageRepository) GetByID(id uuid.UUID) (*models.Message, error) {
	query := `
		SELECT m.id, m.channel_id, m.author_id, u.display_name, m.content, m.is_deleted, m.created_at
		FROM messages m
		INNER JOIN users u ON m.author_id = u.id
		WHERE m.id = $1
	`

	msg := &models.Message{}
	err := r.db.QueryRow(query, id).Scan(
		&msg.ID,
		&msg.ChannelID,
		&msg.AuthorID,
		&msg.AuthorDisplayName,
		&msg.Content,
		&msg.IsDeleted,
		&msg.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	msg.Redact()
	return msg, nil
}

// ListByChannel retrieves one page of a channel's messages in
// reverse-chronological order (newest first), ties broken by id. Callers
// presenting history re-sort the page chronologically. Deleted messages are
// returned with placeholder content, never the original text.
func (r *MessageRepository) ListByChannel(channelID uuid.UUID, page, limit int) ([]models.Message, bool, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset := (page - 1) * limit

	// Fetch one extra row to detect another page.
	query := `
		SELECT m.id, m.channel_id, m.author_id, u.display_name,
		       CASE WHEN m.is_deleted THEN '' ELSE m.content END,
		       m.is_deleted, m.created_at
		FROM messages m
		INNER JOIN users u ON m.author_id = u.id
		WHERE m.channel_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(query, channelID, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ChannelID,
			&msg.AuthorID,
			&msg.AuthorDisplayName,
			&msg.Content,
			&msg.IsDeleted,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Redact()
		messages = append(messages, msg)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	return messages, hasMore, nil
}

// SoftDelete marks a message deleted. The flag is monotonic; deleting an
// already-deleted message is a no-op success.
func (r *MessageRepository) SoftDelete(id uuid.UUID) error {
	result, err := r.db.Exec(`UPDATE messages SET is_deleted = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
