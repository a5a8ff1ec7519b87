package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/loreline/backend/internal/database"
	"github.com/loreline/backend/internal/models"
)

type ModerationRepository struct {
	db *database.DB
}

func NewModerationRepository(db *database.DB) *ModerationRepository {
	return &ModerationRepository{db: db}
}

// GetRecord retrieves a user's moderation record, returning a zero-value
// record when the user has no row yet.
func (r *ModerationRepository) GetRecord(userID uuid.UUID) (*models.ModerationRecord, error) {
	query := `
		SELECT user_id, is_muted, mute_expires_at, is_banned, ban_reason, banned_at
		FROM moderation_records
		WHERE user_id = $1
	`

	rec := &models.ModerationRecord{}
	err := r.db.QueryRow(query, userID).Scan(
		&rec.UserID,
		&rec.IsMuted,
		&rec.MuteExpiresAt,
		&rec.IsBanned,
		&rec.BanReason,
		&rec.BannedAt,
	)

	if err == sql.ErrNoRows {
		return &models.ModerationRecord{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get moderation record: %w", err)
	}

	return rec, nil
}

// SetMute writes the mute flag and expiry
func (r *ModerationRepository) SetMute(userID uuid.UUID, muted bool, expiresAt *time.Time) error {
	query := `
		INSERT INTO moderation_records (user_id, is_muted, mute_expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET is_muted = $2, mute_expires_at = $3, updated_at = NOW()
	`

	if _, err := r.db.Exec(query, userID, muted, expiresAt); err != nil {
		return fmt.Errorf("failed to set mute: %w", err)
	}
	return nil
}

// SetBan writes the ban flag, reason and timestamp
func (r *ModerationRepository) SetBan(userID uuid.UUID, banned bool, reason *string, bannedAt *time.Time) error {
	query := `
		INSERT INTO moderation_records (user_id, is_banned, ban_reason, banned_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET is_banned = $2, ban_reason = $3, banned_at = $4, updated_at = NOW()
	`

	if _, err := r.db.Exec(query, userID, banned, reason, bannedAt); err != nil {
		return fmt.Errorf("failed to set ban: %w", err)
	}
	return nil
}

// AddWarning appends a warning to the user's history
func (r *ModerationRepository) AddWarning(w *models.Warning) error {
	query := `
		INSERT INTO moderation_warnings (id, user_id, category, toxicity_score, issued_by, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := r.db.Exec(query, w.ID, w.UserID, w.Category, w.ToxicityScore, w.IssuedBy, w.IssuedAt); err != nil {
		return fmt.Errorf("failed to add warning: %w", err)
	}
	return nil
}

// CountWarningsSince counts a user's warnings issued after the cutoff,
// optionally excluding one category.
func (r *ModerationRepository) CountWarningsSince(userID uuid.UUID, since time.Time, excludeCategory string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM moderation_warnings
		WHERE user_id = $1 AND issued_at > $2 AND ($3 = '' OR category != $3)
	`

	var count int
	if err := r.db.QueryRow(query, userID, since, excludeCategory).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count warnings: %w", err)
	}
	return count, nil
}

// GetWarnings returns a user's most recent warnings
func (r *ModerationRepository) GetWarnings(userID uuid.UUID, limit int) ([]models.Warning, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, category, toxicity_score, issued_by, issued_at
		FROM moderation_warnings
		WHERE user_id = $1
		ORDER BY issued_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query warnings: %w", err)
	}
	defer rows.Close()

	warnings := []models.Warning{}
	for rows.Next() {
		var w models.Warning
		if err := rows.Scan(&w.ID, &w.UserID, &w.Category, &w.ToxicityScore, &w.IssuedBy, &w.IssuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}

	return warnings, nil
}

// AddLog records a moderation action
func (r *ModerationRepository) AddLog(log *models.ModerationLog) error {
	query := `
		INSERT INTO moderation_logs (id, message_id, action, moderator_id, target_user_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	if _, err := r.db.Exec(query, log.ID, log.MessageID, log.Action, log.ModeratorID, log.TargetUserID, log.Reason); err != nil {
		return fmt.Errorf("failed to insert moderation log: %w", err)
	}
	return nil
}
