package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	defaultAttempts = 3
	defaultMaxDelay = 2 * time.Second
	defaultDelay    = 100 * time.Millisecond
)

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"3"`
	Delay    time.Duration `env:"DELAY" envDefault:"100ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"2s"`
	// Timeout bounds a single attempt. Zero means no per-attempt limit.
	Timeout time.Duration `env:"TIMEOUT"`
}

func (rc *RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	}
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		Attempts: defaultAttempts,
		Delay:    defaultDelay,
		MaxDelay: defaultMaxDelay,
	}
}

// Do runs fn until it succeeds, the attempts are exhausted, ctx is done or
// retryIf rejects the error. A nil retryIf retries every error.
func Do(ctx context.Context, cfg *RetryConfig, action string, retryIf func(error) bool, fn func(ctx context.Context) error) error {
	if cfg == nil || cfg.Attempts == 0 {
		cfg = DefaultRetryConfig()
	}

	opts := append(cfg.ToRetryOptions(),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "retrying after failure",
				zap.String("retry_action", action),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if retryIf != nil {
		opts = append(opts, retry.RetryIf(retryIf))
	}

	return retry.Do(func() error {
		attemptCtx := ctx
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		return fn(attemptCtx)
	}, opts...)
}
