package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLimiter_AllowsUpToLimit(t *testing.T) {
	l := NewLimiter(10*time.Second, 0, 5)
	user := uuid.New()

	for i := 0; i < 5; i++ {
		res := l.Check(user)
		if res.IsSpamming {
			t.Fatalf("message %d should be allowed, got %s", i+1, res.Reason)
		}
	}

	res := l.Check(user)
	if !res.IsSpamming || res.Reason != ReasonTooMany {
		t.Fatalf("6th message in window should be rejected too_many, got %+v", res)
	}
}

func TestLimiter_TooFast(t *testing.T) {
	l := NewLimiter(10*time.Second, 500*time.Millisecond, 5)
	user := uuid.New()

	if res := l.Check(user); res.IsSpamming {
		t.Fatalf("first message should be allowed, got %+v", res)
	}

	res := l.Check(user)
	if !res.IsSpamming || res.Reason != ReasonTooFast {
		t.Fatalf("immediate second message should be rejected too_fast, got %+v", res)
	}
}

func TestLimiter_RejectionsDoNotConsumeWindow(t *testing.T) {
	l := NewLimiter(10*time.Second, 0, 2)
	user := uuid.New()

	l.Check(user)
	l.Check(user)

	// These rejections must not advance the window count
	for i := 0; i < 3; i++ {
		res := l.Check(user)
		if !res.IsSpamming {
			t.Fatal("expected rejection within full window")
		}
	}
}

func TestLimiter_WindowResets(t *testing.T) {
	l := NewLimiter(100*time.Millisecond, 0, 2)
	user := uuid.New()

	l.Check(user)
	l.Check(user)
	if res := l.Check(user); !res.IsSpamming {
		t.Fatal("expected too_many inside window")
	}

	time.Sleep(120 * time.Millisecond)

	if res := l.Check(user); res.IsSpamming {
		t.Fatalf("expected fresh window after expiry, got %+v", res)
	}
}

func TestLimiter_IndependentUsers(t *testing.T) {
	l := NewLimiter(10*time.Second, 0, 1)
	a := uuid.New()
	b := uuid.New()

	if res := l.Check(a); res.IsSpamming {
		t.Fatal("user a first message should pass")
	}
	if res := l.Check(b); res.IsSpamming {
		t.Fatal("user b must not be throttled by user a")
	}
}

func TestLimiter_ConcurrentSameUser(t *testing.T) {
	l := NewLimiter(10*time.Second, 0, 5)
	user := uuid.New()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := l.Check(user); !res.IsSpamming {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 5 {
		t.Fatalf("expected exactly 5 allowed under concurrency, got %d", allowed)
	}
}

func TestLimiter_SweepPurgesIdleEntries(t *testing.T) {
	l := NewLimiter(10*time.Millisecond, 0, 5)
	user := uuid.New()

	l.Check(user)
	if l.Size() != 1 {
		t.Fatalf("expected 1 tracked user, got %d", l.Size())
	}

	time.Sleep(80 * time.Millisecond) // beyond 6x window
	l.sweep()

	if l.Size() != 0 {
		t.Fatalf("expected idle entry purged, got %d", l.Size())
	}
}
