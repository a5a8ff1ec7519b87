package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loreline/backend/internal/models"
	"github.com/loreline/backend/internal/ratelimit"
	"github.com/loreline/backend/internal/toxicity"
)

type fakeChannels struct {
	known map[uuid.UUID]bool
}

func (f *fakeChannels) Exists(id uuid.UUID) (bool, error) { return f.known[id], nil }

type fakeLedger struct {
	mu         sync.Mutex
	banned     map[uuid.UUID]bool
	muted      map[uuid.UUID]*time.Time
	warnings   map[uuid.UUID][]string
	warnErr    error
	checkCalls int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		banned:   make(map[uuid.UUID]bool),
		muted:    make(map[uuid.UUID]*time.Time),
		warnings: make(map[uuid.UUID][]string),
	}
}

func (f *fakeLedger) IsBanned(userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.banned[userID], nil
}

func (f *fakeLedger) IsMuted(userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exp := f.muted[userID]
	return exp != nil && exp.After(time.Now()), nil
}

func (f *fakeLedger) Record(userID uuid.UUID) (*models.ModerationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exp := f.muted[userID]
	return &models.ModerationRecord{UserID: userID, IsMuted: exp != nil, MuteExpiresAt: exp}, nil
}

func (f *fakeLedger) RecordWarning(userID uuid.UUID, category string, score float64, issuedBy string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.warnErr != nil {
		return 0, f.warnErr
	}
	f.warnings[userID] = append(f.warnings[userID], category)
	count := 0
	for _, c := range f.warnings[userID] {
		if category == toxicity.CategorySpam {
			count++
		} else if c != toxicity.CategorySpam {
			count++
		}
	}
	return count, nil
}

func (f *fakeLedger) ApplyMute(userID uuid.UUID, durationMinutes int, issuedBy string) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exp := time.Now().Add(time.Duration(durationMinutes) * time.Minute)
	f.muted[userID] = &exp
	return exp, nil
}

type countingLimiter struct {
	inner *ratelimit.Limiter
	calls int
}

func (c *countingLimiter) Check(userID uuid.UUID) ratelimit.Result {
	c.calls++
	return c.inner.Check(userID)
}

type fakeStore struct {
	mu       sync.Mutex
	messages []*models.Message
	err      error
}

func (f *fakeStore) Append(m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, m)
	return nil
}

type fakeHub struct {
	mu         sync.Mutex
	published  []models.WSMessage
	global     []models.WSMessage
	publishErr error
}

func (f *fakeHub) Publish(channelID uuid.UUID, event models.WSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, event)
	return nil
}

func (f *fakeHub) PublishGlobal(event models.WSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.global = append(f.global, event)
	return nil
}

type harness struct {
	pipeline  *Pipeline
	channelID uuid.UUID
	identity  models.Identity
	ledger    *fakeLedger
	limiter   *countingLimiter
	store     *fakeStore
	hub       *fakeHub
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	channelID := uuid.New()
	limiter := &countingLimiter{inner: ratelimit.NewLimiter(10*time.Second, 0, 5)}
	ledger := newFakeLedger()
	store := &fakeStore{}
	hub := &fakeHub{}

	p := New(
		&fakeChannels{known: map[uuid.UUID]bool{channelID: true}},
		ledger,
		limiter,
		toxicity.NewClassifier(100, nil),
		store,
		hub,
		nil,
		DefaultPolicy(),
	)

	return &harness{
		pipeline:  p,
		channelID: channelID,
		identity:  models.Identity{UserID: uuid.New(), DisplayName: "Ada"},
		ledger:    ledger,
		limiter:   limiter,
		store:     store,
		hub:       hub,
	}
}

func rejection(t *testing.T, err error) *Rejection {
	t.Helper()
	var rej *Rejection
	require.ErrorAs(t, err, &rej)
	return rej
}

func TestSubmit_Success(t *testing.T) {
	h := newHarness(t)

	msg, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, "hello world")
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.Equal(t, "hello world", msg.Content)
	assert.Equal(t, h.identity.UserID, msg.AuthorID)
	assert.Equal(t, "Ada", msg.AuthorDisplayName)

	require.Len(t, h.store.messages, 1)
	require.Len(t, h.hub.published, 1)
	assert.Equal(t, models.EventMessageReceive, h.hub.published[0].Event)
	broadcast := h.hub.published[0].Payload.(*models.Message)
	assert.Equal(t, msg.ID, broadcast.ID)
	assert.Equal(t, "hello world", broadcast.Content)
}

func TestSubmit_InvalidInput(t *testing.T) {
	h := newHarness(t)

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name      string
		channelID uuid.UUID
		content   string
	}{
		{"empty content", h.channelID, ""},
		{"content too long", h.channelID, string(long)},
		{"missing channel", uuid.Nil, "hello"},
		{"unknown channel", uuid.New(), "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.pipeline.Submit(context.Background(), h.identity, tt.channelID, tt.content)
			rej := rejection(t, err)
			assert.Equal(t, CodeInvalidInput, rej.Code)
		})
	}

	assert.Empty(t, h.store.messages, "rejected submissions must not be persisted")
}

func TestSubmit_Unauthorized(t *testing.T) {
	h := newHarness(t)

	_, err := h.pipeline.Submit(context.Background(), models.Identity{}, h.channelID, "hello")
	rej := rejection(t, err)
	assert.Equal(t, CodeUnauthorized, rej.Code)
}

func TestSubmit_BannedSkipsRateLimiter(t *testing.T) {
	h := newHarness(t)
	h.ledger.banned[h.identity.UserID] = true

	_, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, "hello")
	rej := rejection(t, err)
	assert.Equal(t, CodeForbiddenBanned, rej.Code)

	assert.Empty(t, h.store.messages)
	assert.Zero(t, h.limiter.calls, "a banned submission must not count against the rate limiter")
}

func TestSubmit_MutedIncludesExpiry(t *testing.T) {
	h := newHarness(t)
	exp := time.Now().Add(time.Hour)
	h.ledger.muted[h.identity.UserID] = &exp

	_, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, "hello")
	rej := rejection(t, err)
	assert.Equal(t, CodeForbiddenMuted, rej.Code)
	require.NotNil(t, rej.MuteExpiresAt)
	assert.WithinDuration(t, exp, *rej.MuteExpiresAt, time.Second)
}

func TestSubmit_SpamTriggersImmediateMute(t *testing.T) {
	h := newHarness(t)

	// Five distinct messages fill the window
	for i := 0; i < 5; i++ {
		_, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	_, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, "message 6")
	rej := rejection(t, err)
	assert.Equal(t, CodeRejectedSpam, rej.Code)
	assert.Equal(t, ratelimit.ReasonTooMany, rej.Reason)

	// One spam violation mutes immediately, expiry about 24h out
	require.NotNil(t, rej.MuteExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *rej.MuteExpiresAt, time.Minute)

	muted, err := h.ledger.IsMuted(h.identity.UserID)
	require.NoError(t, err)
	assert.True(t, muted)

	require.Len(t, h.hub.global, 1)
	assert.Equal(t, models.EventUserMuted, h.hub.global[0].Event)

	assert.Len(t, h.store.messages, 5, "the rejected message must not be persisted")
}

func TestSubmit_ToxicityThreeStrikeMute(t *testing.T) {
	h := newHarness(t)

	texts := []string{"this is shit", "fucking nonsense", "you stupid bitch"}

	for i, text := range texts {
		_, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, text)
		rej := rejection(t, err)
		assert.Equal(t, CodeRejectedToxic, rej.Code)
		assert.Equal(t, toxicity.CategoryProfanity, rej.Category)

		muted, err := h.ledger.IsMuted(h.identity.UserID)
		require.NoError(t, err)
		if i < 2 {
			assert.False(t, muted, "two strikes must not mute")
			assert.Nil(t, rej.MuteExpiresAt)
		} else {
			assert.True(t, muted, "third strike must mute")
			assert.NotNil(t, rej.MuteExpiresAt)
		}
	}

	require.Len(t, h.hub.global, 1)
	assert.Equal(t, models.EventUserMuted, h.hub.global[0].Event)
	assert.Empty(t, h.store.messages)
}

func TestSubmit_BroadcastFailureDoesNotFail(t *testing.T) {
	h := newHarness(t)
	h.hub.publishErr = errors.New("hub down")

	msg, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, "hello world")
	require.NoError(t, err, "broadcast is best-effort and never rolls back persistence")
	require.NotNil(t, msg)
	assert.Len(t, h.store.messages, 1)
}

func TestSubmit_WarningWriteFailureKeepsRejection(t *testing.T) {
	h := newHarness(t)
	h.ledger.warnErr = errors.New("ledger down")

	_, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, "this is shit")
	rej := rejection(t, err)
	assert.Equal(t, CodeRejectedToxic, rej.Code, "ledger write failure must not suppress the rejection")
}

func TestSubmit_StorageFailure(t *testing.T) {
	h := newHarness(t)
	h.store.err = errors.New("db down")

	_, err := h.pipeline.Submit(context.Background(), h.identity, h.channelID, "hello world")
	require.Error(t, err)

	var rej *Rejection
	assert.False(t, errors.As(err, &rej), "storage failure is a server error, not a policy rejection")
	assert.Empty(t, h.hub.published, "nothing may be broadcast when persistence fails")
}
