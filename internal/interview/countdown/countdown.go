// Package countdown implements the single-shot answer timer. Every Restart
// starts a new generation; ticks from superseded generations are ignored.
package countdown

import (
	"context"
	"time"

	"github.com/futig/interview-engine/internal/entity"
)

// ParkedSeconds is the remaining time shown while the timer is parked by Stop.
const ParkedSeconds = 999

// Dispatcher runs fn on the session control loop.
type Dispatcher func(ctx context.Context, fn func()) error

type Config struct {
	// Unit is the length of one countdown second. Defaults to time.Second.
	Unit     time.Duration
	Dispatch Dispatcher
	OnExpire func()
}

// Countdown state is owned by the control loop; only the ticking goroutine
// lives outside it and posts every tick back through Dispatch.
type Countdown struct {
	unit     time.Duration
	dispatch Dispatcher
	onExpire func()

	state      entity.TimerState
	generation uint64
	remaining  int
	cancel     context.CancelFunc
}

func New(cfg Config) *Countdown {
	if cfg.Unit <= 0 {
		cfg.Unit = time.Second
	}
	if cfg.OnExpire == nil {
		cfg.OnExpire = func() {}
	}

	return &Countdown{
		unit:      cfg.Unit,
		dispatch:  cfg.Dispatch,
		onExpire:  cfg.OnExpire,
		state:     entity.TimerIdle,
		remaining: ParkedSeconds,
	}
}

// Restart cancels any running instance and starts counting down from seconds.
// A non-positive duration expires immediately.
func (c *Countdown) Restart(ctx context.Context, seconds int) {
	c.halt()
	c.generation++

	if seconds <= 0 {
		c.remaining = 0
		c.state = entity.TimerExpired
		c.onExpire()
		return
	}

	c.state = entity.TimerRunning
	c.remaining = seconds

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.run(runCtx, c.generation)
}

// Stop parks the timer in idle without expiring it.
func (c *Countdown) Stop() {
	c.halt()
	c.generation++
	c.state = entity.TimerIdle
	c.remaining = ParkedSeconds
}

// Cancel aborts a running countdown and keeps the remaining time.
func (c *Countdown) Cancel() {
	if c.state != entity.TimerRunning {
		return
	}
	c.halt()
	c.generation++
	c.state = entity.TimerCancelled
}

func (c *Countdown) State() entity.TimerState {
	return c.state
}

func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) Generation() uint64 {
	return c.generation
}

func (c *Countdown) halt() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Countdown) run(ctx context.Context, generation uint64) {
	ticker := time.NewTicker(c.unit)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var done bool
		err := c.dispatch(ctx, func() {
			done = c.tick(generation)
		})
		if err != nil || done {
			return
		}
	}
}

// tick decrements the remaining time. It reports whether this generation
// has finished, either by expiring or because it was superseded.
func (c *Countdown) tick(generation uint64) bool {
	if generation != c.generation || c.state != entity.TimerRunning {
		return true
	}

	c.remaining--

	if c.remaining > 0 {
		return false
	}

	c.state = entity.TimerExpired
	c.halt()
	c.onExpire()
	return true
}
