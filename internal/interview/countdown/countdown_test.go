package countdown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futig/interview-engine/internal/entity"
)

type harness struct {
	mu       sync.Mutex
	expiries int
	c        *Countdown
}

func newHarness(unit time.Duration) *harness {
	h := &harness{}
	h.c = New(Config{
		Unit: unit,
		Dispatch: func(ctx context.Context, fn func()) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h.mu.Lock()
			defer h.mu.Unlock()
			fn()
			return nil
		},
		OnExpire: func() { h.expiries++ },
	})
	return h
}

func (h *harness) do(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn()
}

func (h *harness) waitState(t *testing.T, want entity.TimerState) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		var got entity.TimerState
		h.do(func() { got = h.c.State() })
		if got == want {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timer state = %s, want %s", got, want)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestCountdown_ExpiresOnce(t *testing.T) {
	h := newHarness(2 * time.Millisecond)
	ctx := context.Background()

	h.do(func() { h.c.Restart(ctx, 3) })
	h.waitState(t, entity.TimerExpired)

	time.Sleep(20 * time.Millisecond)

	h.do(func() {
		if h.expiries != 1 {
			t.Errorf("expired %d times, want 1", h.expiries)
		}
		if h.c.Remaining() != 0 {
			t.Errorf("remaining = %d, want 0", h.c.Remaining())
		}
	})
}

func TestCountdown_RestartSupersedesPreviousRun(t *testing.T) {
	h := newHarness(2 * time.Millisecond)
	ctx := context.Background()

	h.do(func() {
		h.c.Restart(ctx, 60)
		h.c.Restart(ctx, 3)
	})
	h.waitState(t, entity.TimerExpired)

	time.Sleep(20 * time.Millisecond)

	h.do(func() {
		if h.expiries != 1 {
			t.Errorf("expired %d times, want 1", h.expiries)
		}
		if h.c.Generation() != 2 {
			t.Errorf("generation = %d, want 2", h.c.Generation())
		}
	})
}

func TestCountdown_StopPreventsExpiry(t *testing.T) {
	h := newHarness(5 * time.Millisecond)
	ctx := context.Background()

	h.do(func() { h.c.Restart(ctx, 2) })
	h.do(func() { h.c.Stop() })

	time.Sleep(40 * time.Millisecond)

	h.do(func() {
		if h.expiries != 0 {
			t.Errorf("expired %d times after Stop", h.expiries)
		}
		if h.c.State() != entity.TimerIdle {
			t.Errorf("state = %s, want IDLE", h.c.State())
		}
		if h.c.Remaining() != ParkedSeconds {
			t.Errorf("remaining = %d, want %d", h.c.Remaining(), ParkedSeconds)
		}
	})
}

func TestCountdown_StaleTickIgnored(t *testing.T) {
	h := newHarness(time.Hour)
	ctx := context.Background()

	h.do(func() {
		h.c.Restart(ctx, 1)
		stale := h.c.Generation()
		h.c.Restart(ctx, 5)

		if !h.c.tick(stale) {
			t.Error("stale tick should report its generation as finished")
		}
		if h.c.Remaining() != 5 {
			t.Errorf("stale tick changed remaining to %d", h.c.Remaining())
		}
		if h.expiries != 0 {
			t.Error("stale tick fired expiration")
		}
		h.c.Stop()
	})
}

func TestCountdown_NonPositiveDurationExpiresImmediately(t *testing.T) {
	h := newHarness(time.Hour)

	h.do(func() {
		h.c.Restart(context.Background(), 0)
		if h.c.State() != entity.TimerExpired || h.expiries != 1 {
			t.Errorf("state = %s, expiries = %d", h.c.State(), h.expiries)
		}
	})
}

func TestCountdown_Cancel(t *testing.T) {
	h := newHarness(time.Hour)

	h.do(func() {
		h.c.Cancel()
		if h.c.State() != entity.TimerIdle {
			t.Errorf("Cancel on idle timer changed state to %s", h.c.State())
		}

		h.c.Restart(context.Background(), 10)
		h.c.Cancel()
		if h.c.State() != entity.TimerCancelled {
			t.Errorf("state = %s, want CANCELLED", h.c.State())
		}
		if h.c.Remaining() != 10 {
			t.Errorf("remaining = %d, want 10", h.c.Remaining())
		}
	})
}
