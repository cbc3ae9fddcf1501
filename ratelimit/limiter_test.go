package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/dashAuth/storage"
)

// fakeClock advances manually so lockout windows elapse without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(t *testing.T) (*Limiter, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}
	limiter := New(storage.NewMemory(), Config{
		Window:      15 * time.Minute,
		MaxAttempts: 5,
		Lockout:     15 * time.Minute,
		Now:         clock.Now,
	})
	return limiter, clock
}

func TestLockoutAfterThresholdFailures(t *testing.T) {
	limiter, clock := newTestLimiter(t)
	ctx := context.Background()
	const identity = "user@org.example"

	for i := 0; i < 4; i++ {
		limiter.RecordFailure(ctx, identity)
		if d := limiter.Check(ctx, identity); !d.Allowed {
			t.Fatalf("locked after %d failures, threshold is 5", i+1)
		}
	}

	limiter.RecordFailure(ctx, identity)
	d := limiter.Check(ctx, identity)
	if d.Allowed {
		t.Fatal("expected lockout after 5 failures")
	}
	if d.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", d.RetryAfter)
	}

	// Locked for every call until the lockout elapses.
	clock.Advance(14 * time.Minute)
	if d := limiter.Check(ctx, identity); d.Allowed {
		t.Fatal("lockout lifted early")
	}

	clock.Advance(time.Minute + time.Second)
	if d := limiter.Check(ctx, identity); !d.Allowed {
		t.Fatalf("expected lockout to elapse, retry-after %v", d.RetryAfter)
	}
}

func TestRetryAfterShrinksOverTime(t *testing.T) {
	limiter, clock := newTestLimiter(t)
	ctx := context.Background()
	const identity = "user@org.example"

	for i := 0; i < 5; i++ {
		limiter.RecordFailure(ctx, identity)
	}

	first := limiter.Check(ctx, identity).RetryAfter
	clock.Advance(5 * time.Minute)
	second := limiter.Check(ctx, identity).RetryAfter
	if second >= first {
		t.Fatalf("retry-after did not shrink: %v then %v", first, second)
	}
}

func TestRecordSuccessResetsCounter(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	const identity = "user@org.example"

	for i := 0; i < 5; i++ {
		limiter.RecordFailure(ctx, identity)
	}
	limiter.RecordSuccess(ctx, identity)

	if d := limiter.Check(ctx, identity); !d.Allowed {
		t.Fatal("success must clear lockout")
	}
	if n := limiter.Attempts(ctx, identity); n != 0 {
		t.Fatalf("expected 0 attempts after success, got %d", n)
	}
}

func TestWindowExpiryResetsCount(t *testing.T) {
	limiter, clock := newTestLimiter(t)
	ctx := context.Background()
	const identity = "user@org.example"

	for i := 0; i < 4; i++ {
		limiter.RecordFailure(ctx, identity)
	}
	clock.Advance(16 * time.Minute)

	// First failure of a fresh window, not the fifth of the old one.
	if n := limiter.RecordFailure(ctx, identity); n != 1 {
		t.Fatalf("expected window reset to 1 failure, got %d", n)
	}
	if d := limiter.Check(ctx, identity); !d.Allowed {
		t.Fatal("fresh window must not be locked")
	}
}

func TestCountersAreIsolatedPerIdentity(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		limiter.RecordFailure(ctx, "a@org.example")
	}

	if d := limiter.Check(ctx, "b@org.example"); !d.Allowed {
		t.Fatal("lockout leaked across identities")
	}
}

func TestCountersSurviveRestart(t *testing.T) {
	kv := storage.NewMemory()
	clock := &fakeClock{now: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)}
	cfg := Config{Window: 15 * time.Minute, MaxAttempts: 5, Lockout: 15 * time.Minute, Now: clock.Now}
	ctx := context.Background()
	const identity = "user@org.example"

	limiter := New(kv, cfg)
	for i := 0; i < 5; i++ {
		limiter.RecordFailure(ctx, identity)
	}

	// A new limiter over the same storage sees the lockout.
	reloaded := New(kv, cfg)
	if d := reloaded.Check(ctx, identity); d.Allowed {
		t.Fatal("lockout lost across restart")
	}
}

func TestCorruptCountersStartEmpty(t *testing.T) {
	kv := storage.NewMemory()
	ctx := context.Background()
	if err := kv.Set(ctx, "dashauth:ratelimit", []byte("{broken")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var warned bool
	limiter := New(kv, Config{Warn: func(string, error) { warned = true }})
	if d := limiter.Check(ctx, "user@org.example"); !d.Allowed {
		t.Fatal("corrupt counters must not lock anyone out")
	}
	if !warned {
		t.Fatal("expected warn on corrupt counters")
	}
}
