package moderation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loreline/backend/internal/models"
	"github.com/loreline/backend/internal/toxicity"
)

// MaxMuteMinutes is the administrative ceiling on a single mute (7 days).
const MaxMuteMinutes = 10080

// ErrMuteDuration is returned for durations outside [1, MaxMuteMinutes].
var ErrMuteDuration = errors.New("mute duration out of range")

// Store is the durable backing for moderation state. It is satisfied by
// repository.ModerationRepository.
type Store interface {
	GetRecord(userID uuid.UUID) (*models.ModerationRecord, error)
	SetMute(userID uuid.UUID, muted bool, expiresAt *time.Time) error
	SetBan(userID uuid.UUID, banned bool, reason *string, bannedAt *time.Time) error
	AddWarning(w *models.Warning) error
	CountWarningsSince(userID uuid.UUID, since time.Time, excludeCategory string) (int, error)
}

// Ledger is the authority for per-user mute/ban/warning state. Mutations
// for the same user are serialized on a per-user lock so concurrent
// submissions cannot both observe stale state; different users never
// contend.
type Ledger struct {
	store Store

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (l *Ledger) userLock(userID uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

// IsMuted reports whether the user is currently muted. An expired mute is
// treated as no mute and lazily cleared (read-repair); the repair is
// idempotent, repeated reads return false consistently.
func (l *Ledger) IsMuted(userID uuid.UUID) (bool, error) {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := l.store.GetRecord(userID)
	if err != nil {
		return false, err
	}

	if !rec.IsMuted {
		return false, nil
	}

	if rec.MuteExpiresAt == nil || !rec.MuteExpiresAt.After(time.Now()) {
		if err := l.store.SetMute(userID, false, nil); err != nil {
			// Repair failure still reads as unmuted; the next read retries.
			return false, nil
		}
		return false, nil
	}

	return true, nil
}

// IsBanned reports the ban flag. Bans never auto-expire.
func (l *Ledger) IsBanned(userID uuid.UUID) (bool, error) {
	rec, err := l.store.GetRecord(userID)
	if err != nil {
		return false, err
	}
	return rec.IsBanned, nil
}

// Record returns the full moderation record for a user.
func (l *Ledger) Record(userID uuid.UUID) (*models.ModerationRecord, error) {
	return l.store.GetRecord(userID)
}

// RecordWarning appends a warning and returns the count of warnings for the
// user within the trailing 24 hours. For non-spam categories the count
// excludes spam warnings, matching the escalation policy: spam and toxicity
// strikes are tallied separately.
func (l *Ledger) RecordWarning(userID uuid.UUID, category string, score float64, issuedBy string) (int, error) {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	w := &models.Warning{
		ID:            uuid.New(),
		UserID:        userID,
		Category:      category,
		ToxicityScore: score,
		IssuedBy:      issuedBy,
		IssuedAt:      time.Now(),
	}
	if err := l.store.AddWarning(w); err != nil {
		return 0, fmt.Errorf("failed to record warning: %w", err)
	}

	exclude := toxicity.CategorySpam
	if category == toxicity.CategorySpam {
		exclude = ""
	}

	count, err := l.store.CountWarningsSince(userID, time.Now().Add(-24*time.Hour), exclude)
	if err != nil {
		return 0, fmt.Errorf("failed to count warnings: %w", err)
	}
	return count, nil
}

// ApplyMute mutes the user for the given duration. Durations outside
// [1 minute, 7 days] are rejected.
func (l *Ledger) ApplyMute(userID uuid.UUID, durationMinutes int, issuedBy string) (time.Time, error) {
	if durationMinutes < 1 || durationMinutes > MaxMuteMinutes {
		return time.Time{}, ErrMuteDuration
	}

	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	expiresAt := time.Now().Add(time.Duration(durationMinutes) * time.Minute)
	if err := l.store.SetMute(userID, true, &expiresAt); err != nil {
		return time.Time{}, fmt.Errorf("failed to apply mute: %w", err)
	}
	return expiresAt, nil
}

// Unmute clears the mute flag.
func (l *Ledger) Unmute(userID uuid.UUID) error {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.store.SetMute(userID, false, nil); err != nil {
		return fmt.Errorf("failed to unmute: %w", err)
	}
	return nil
}

// ApplyBan bans the user. Ban takes precedence over mute in all enforcement
// checks and only ClearBan lifts it.
func (l *Ledger) ApplyBan(userID uuid.UUID, reason, issuedBy string) error {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	if err := l.store.SetBan(userID, true, &reason, &now); err != nil {
		return fmt.Errorf("failed to apply ban: %w", err)
	}
	return nil
}

// ClearBan lifts a ban.
func (l *Ledger) ClearBan(userID uuid.UUID) error {
	lock := l.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := l.store.SetBan(userID, false, nil, nil); err != nil {
		return fmt.Errorf("failed to clear ban: %w", err)
	}
	return nil
}
