package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/loreline/backend/internal/database"
	"github.com/loreline/backend/internal/models"
)

// ErrNameTaken is returned when a channel name collides with an existing one
var ErrNameTaken = errors.New("channel name already taken")

type ChannelRepository struct {
	db *database.DB
}

func NewChannelRepository(db *database.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Create creates a new channel
func (r *ChannelRepository) Create(channel *models.Channel) error {
	query := `
		INSERT INTO channels (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		channel.ID,
		channel.Name,
		channel.Description,
		channel.CreatedAt,
		channel.UpdatedAt,
	).Scan(&channel.ID, &channel.CreatedAt, &channel.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	return nil
}

// GetByID retrieves a channel by ID
func (r *ChannelRepository) GetByID(id uuid.UUID) (*models.Channel, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM channels
		WHERE id = $1
	`

	ch := &models.Channel{}
	err := r.db.QueryRow(query, id).Scan(
		&ch.ID,
		&ch.Name,
		&ch.Description,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return ch, nil
}

// List returns all channels ordered by name
func (r *ChannelRepository) List() ([]models.Channel, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM channels
		ORDER BY name ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	channels := []models.Channel{}
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Description, &ch.CreatedAt, &ch.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}

	return channels, nil
}

// Rename updates a channel's name and, when provided, its description
func (r *ChannelRepository) Rename(id uuid.UUID, name, description string) error {
	query := `UPDATE channels SET name = $2, description = COALESCE(NULLIF($3, ''), description), updated_at = $4 WHERE id = $1`

	result, err := r.db.Exec(query, id, name, description, time.Now())
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to rename channel: %w", err)
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

// Delete removes a channel from the registry. Historical messages keep
// their channel_id; there is no cascading delete of messages.
func (r *ChannelRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
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

// Exists checks whether a channel id is in the registry
func (r *ChannelRepository) Exists(id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM channels WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check channel: %w", err)
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
