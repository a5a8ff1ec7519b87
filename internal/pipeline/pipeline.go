package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/loreline/backend/internal/models"
	"github.com/loreline/backend/internal/ratelimit"
	"github.com/loreline/backend/internal/toxicity"
)

// MaxContentLength is the maximum message content length in characters.
const MaxContentLength = 2000

// Ledger is the moderation state the pipeline reads and escalates against.
type Ledger interface {
	IsBanned(userID uuid.UUID) (bool, error)
	IsMuted(userID uuid.UUID) (bool, error)
	Record(userID uuid.UUID) (*models.ModerationRecord, error)
	RecordWarning(userID uuid.UUID, category string, score float64, issuedBy string) (int, error)
	ApplyMute(userID uuid.UUID, durationMinutes int, issuedBy string) (time.Time, error)
}

// SpamChecker gates submission frequency per user.
type SpamChecker interface {
	Check(userID uuid.UUID) ratelimit.Result
}

// Classifier gates message content.
type Classifier interface {
	Classify(ctx context.Context, text string) toxicity.Result
}

// ChannelRegistry answers whether a channel id exists.
type ChannelRegistry interface {
	Exists(id uuid.UUID) (bool, error)
}

// MessageStore persists accepted messages.
type MessageStore interface {
	Append(message *models.Message) error
}

// Broadcaster fans accepted messages and mute notices out to subscribers.
type Broadcaster interface {
	Publish(channelID uuid.UUID, event models.WSMessage) error
	PublishGlobal(event models.WSMessage) error
}

// AuditLog records system-issued moderation actions. May be nil.
type AuditLog interface {
	AddLog(entry *models.ModerationLog) error
}

// Policy holds the escalation constants.
type Policy struct {
	SpamMuteMinutes     int
	ToxicityStrikes     int
	ToxicityMuteMinutes int
}

// DefaultPolicy: one spam violation mutes immediately for 24h; toxicity
// takes three non-spam strikes within 24h before a 24h mute. The asymmetry
// is deliberate: spam is cheap to produce and disruptive at volume,
// toxicity gets limited tolerance.
func DefaultPolicy() Policy {
	return Policy{
		SpamMuteMinutes:     1440,
		ToxicityStrikes:     3,
		ToxicityMuteMinutes: 1440,
	}
}

// Pipeline runs a submission through its gates: validate, identity, ban,
// mute, rate, toxicity, then persist and broadcast. A rejection at any gate
// short-circuits with no partial persistence.
type Pipeline struct {
	channels ChannelRegistry
	ledger   Ledger
	limiter  SpamChecker
	toxic    Classifier
	store    MessageStore
	hub      Broadcaster
	audit    AuditLog
	policy   Policy
}

func New(channels ChannelRegistry, ledger Ledger, limiter SpamChecker, toxic Classifier, store MessageStore, hub Broadcaster, audit AuditLog, policy Policy) *Pipeline {
	return &Pipeline{
		channels: channels,
		ledger:   ledger,
		limiter:  limiter,
		toxic:    toxic,
		store:    store,
		hub:      hub,
		audit:    audit,
		policy:   policy,
	}
}

// Submit processes one inbound message. It returns the persisted message on
// success; a *Rejection error when a gate rejects; any other error means
// storage failed and nothing was persisted.
func (p *Pipeline) Submit(ctx context.Context, identity models.Identity, channelID uuid.UUID, content string) (*models.Message, error) {
	// received
	length := utf8.RuneCountInString(content)
	if length < 1 || length > MaxContentLength {
		return nil, &Rejection{Code: CodeInvalidInput, Message: fmt.Sprintf("content must be 1-%d characters", MaxContentLength)}
	}
	if channelID == uuid.Nil {
		return nil, &Rejection{Code: CodeInvalidInput, Message: "channel id is required"}
	}

	// identity_checked
	if identity.UserID == uuid.Nil {
		return nil, &Rejection{Code: CodeUnauthorized, Message: "a valid identity is required"}
	}

	exists, err := p.channels.Exists(channelID)
	if err != nil {
		return nil, fmt.Errorf("channel lookup failed: %w", err)
	}
	if !exists {
		return nil, &Rejection{Code: CodeInvalidInput, Message: "unknown channel"}
	}

	// ban_checked: banned submissions are not persisted and do not touch
	// the rate limiter
	banned, err := p.ledger.IsBanned(identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("ban check failed: %w", err)
	}
	if banned {
		return nil, &Rejection{Code: CodeForbiddenBanned, Message: "you are banned from posting"}
	}

	// mute_checked
	muted, err := p.ledger.IsMuted(identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("mute check failed: %w", err)
	}
	if muted {
		rej := &Rejection{Code: CodeForbiddenMuted, Message: "you are muted"}
		if rec, err := p.ledger.Record(identity.UserID); err == nil {
			rej.MuteExpiresAt = rec.MuteExpiresAt
		}
		return nil, rej
	}

	// rate_checked
	if res := p.limiter.Check(identity.UserID); res.IsSpamming {
		return nil, p.rejectSpam(identity, res)
	}

	// toxicity_checked
	if res := p.toxic.Classify(ctx, content); res.IsToxic {
		return nil, p.rejectToxic(identity, res)
	}

	// persisted
	message := &models.Message{
		ID:                uuid.New(),
		ChannelID:         channelID,
		AuthorID:          identity.UserID,
		AuthorDisplayName: identity.DisplayName,
		Content:           content,
		CreatedAt:         time.Now(),
	}
	if err := p.store.Append(message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	// broadcast: best-effort, never rolls back persistence
	if err := p.hub.Publish(channelID, models.WSMessage{
		Event:   models.EventMessageReceive,
		Payload: message,
	}); err != nil {
		log.Printf("Warning: broadcast failed for message %s: %v", message.ID, err)
	}

	// acknowledged
	return message, nil
}

// rejectSpam records a spam warning and mutes immediately: a single spam
// violation crosses the spam mute threshold.
func (p *Pipeline) rejectSpam(identity models.Identity, res ratelimit.Result) *Rejection {
	rej := &Rejection{
		Code:    CodeRejectedSpam,
		Message: "message rejected as spam",
		Reason:  res.Reason,
	}

	// A failed warning write must not suppress the rejection itself.
	if _, err := p.ledger.RecordWarning(identity.UserID, toxicity.CategorySpam, 0, models.IssuedBySystem); err != nil {
		log.Printf("Warning: failed to record spam warning for %s: %v", identity.UserID, err)
	}

	expiresAt, err := p.ledger.ApplyMute(identity.UserID, p.policy.SpamMuteMinutes, models.IssuedBySystem)
	if err != nil {
		log.Printf("Warning: failed to apply spam mute for %s: %v", identity.UserID, err)
		return rej
	}
	rej.MuteExpiresAt = &expiresAt

	p.logAction(identity.UserID, "mute", "spam: "+res.Reason)
	p.notifyMuted(identity.UserID, expiresAt)

	return rej
}

// rejectToxic records a toxicity warning and mutes once the non-spam strike
// count within 24h reaches the policy threshold.
func (p *Pipeline) rejectToxic(identity models.Identity, res toxicity.Result) *Rejection {
	rej := &Rejection{
		Code:        CodeRejectedToxic,
		Message:     "message rejected by content policy",
		Category:    res.Category,
		Explanation: res.Explanation,
	}

	count, err := p.ledger.RecordWarning(identity.UserID, res.Category, res.Score, models.IssuedBySystem)
	if err != nil {
		log.Printf("Warning: failed to record toxicity warning for %s: %v", identity.UserID, err)
		return rej
	}
	p.logAction(identity.UserID, "warn", res.Category)

	if count < p.policy.ToxicityStrikes {
		return rej
	}

	expiresAt, err := p.ledger.ApplyMute(identity.UserID, p.policy.ToxicityMuteMinutes, models.IssuedBySystem)
	if err != nil {
		log.Printf("Warning: failed to apply toxicity mute for %s: %v", identity.UserID, err)
		return rej
	}
	rej.MuteExpiresAt = &expiresAt

	p.logAction(identity.UserID, "mute", "toxicity strikes")
	p.notifyMuted(identity.UserID, expiresAt)

	return rej
}

func (p *Pipeline) notifyMuted(userID uuid.UUID, expiresAt time.Time) {
	err := p.hub.PublishGlobal(models.WSMessage{
		Event:   models.EventUserMuted,
		Payload: models.WSUserMutedPayload{UserID: userID, MuteExpiresAt: expiresAt},
	})
	if err != nil {
		log.Printf("Warning: failed to broadcast mute notice for %s: %v", userID, err)
	}
}

func (p *Pipeline) logAction(userID uuid.UUID, action, reason string) {
	if p.audit == nil {
		return
	}
	entry := &models.ModerationLog{
		ID:           uuid.New(),
		Action:       action,
		TargetUserID: &userID,
		Reason:       &reason,
		CreatedAt:    time.Now(),
	}
	if err := p.audit.AddLog(entry); err != nil {
		log.Printf("Warning: failed to write moderation log: %v", err)
	}
}
