package ratelimit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Rejection reasons
const (
	ReasonTooFast = "too_fast"
	ReasonTooMany = "too_many"
)

// Result is the outcome of a spam check
type Result struct {
	IsSpamming bool
	Reason     string
}

// Limiter tracks per-user message frequency over a trailing window plus a
// minimum gap between consecutive messages. State is process-local and is
// rebuilt from nothing after a restart.
type Limiter struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry

	window      time.Duration
	minInterval time.Duration
	limit       int

	stop chan struct{}
}

type entry struct {
	mu            sync.Mutex
	windowCount   int
	windowStart   time.Time
	lastMessageAt time.Time
}

// NewLimiter creates a limiter with the given policy. Call StartSweep to
// enable background purging of idle entries.
func NewLimiter(window, minInterval time.Duration, limit int) *Limiter {
	return &Limiter{
		entries:     make(map[uuid.UUID]*entry),
		window:      window,
		minInterval: minInterval,
		limit:       limit,
		stop:        make(chan struct{}),
	}
}

// Check records an attempted message for the user and reports whether it is
// spam. Rejected attempts never consume the window: two rapid messages
// followed by a pause behave the same as one message followed by a pause.
// Concurrent checks for the same user are serialized on a per-user lock.
func (l *Limiter) Check(userID uuid.UUID) Result {
	e := l.getEntry(userID)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()

	if !e.lastMessageAt.IsZero() && now.Sub(e.lastMessageAt) < l.minInterval {
		return Result{IsSpamming: true, Reason: ReasonTooFast}
	}

	if now.Sub(e.windowStart) >= l.window {
		// window elapsed, start fresh
		e.windowStart = now
		e.windowCount = 1
		e.lastMessageAt = now
		return Result{}
	}

	if e.windowCount >= l.limit {
		return Result{IsSpamming: true, Reason: ReasonTooMany}
	}

	e.windowCount++
	e.lastMessageAt = now
	return Result{}
}

func (l *Limiter) getEntry(userID uuid.UUID) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[userID]
	if !ok {
		e = &entry{}
		l.entries[userID] = e
	}
	return e
}

// StartSweep launches a background goroutine that purges entries idle for
// longer than six windows. Purging stays off the Check path.
func (l *Limiter) StartSweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

// Stop terminates the background sweep.
func (l *Limiter) Stop() {
	close(l.stop)
}

func (l *Limiter) sweep() {
	cutoff := time.Now().Add(-6 * l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for userID, e := range l.entries {
		e.mu.Lock()
		idle := e.lastMessageAt.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(l.entries, userID)
		}
	}
}

// Size reports the number of tracked users.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
