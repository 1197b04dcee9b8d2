package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errPermanent = errors.New("permanent")

func fastConfig(attempts uint) *RetryConfig {
	return &RetryConfig{Attempts: attempts, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(3), "test", nil, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDo_StopsOnUnretryableError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(5), "test",
		func(err error) bool { return !errors.Is(err, errPermanent) },
		func(ctx context.Context) error {
			calls++
			return errPermanent
		})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("error = %v, want errPermanent", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_AttemptTimeout(t *testing.T) {
	cfg := fastConfig(2)
	cfg.Timeout = 5 * time.Millisecond

	err := Do(context.Background(), cfg, "test", nil, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.Delay >= cfg.MaxDelay {
		t.Errorf("delay %v must be below max delay %v", cfg.Delay, cfg.MaxDelay)
	}
}
