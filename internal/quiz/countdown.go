package quiz

import (
	"context"
	"sync"
	"time"
)

// Countdown is a cancellable one-second countdown with a single owner.
// OnExpire runs at most once, on the countdown's own goroutine, when the
// remaining time reaches zero.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	interval  time.Duration
	onExpire  func()
	cancel    context.CancelFunc
	started   bool
	expired   bool
	done      chan struct{}
}

// NewCountdown creates a countdown of seconds ticks. interval is the tick length
// (time.Second in production).
func NewCountdown(seconds int, interval time.Duration, onExpire func()) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		remaining: max(0, seconds),
		interval:  interval,
		onExpire:  onExpire,
		done:      make(chan struct{}),
	}
}

// Start begins ticking. It stops when ctx ends, Cancel is called or the
// countdown expires. Calling Start more than once has no effect.
func (c *Countdown) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	go c.run(ctx)
}

func (c *Countdown) run(ctx context.Context) {
	defer close(c.done)

	if c.tick() {
		return
	}
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if c.decrement() {
				return
			}
		}
	}
}

// tick fires expiry immediately for a countdown seeded with zero.
func (c *Countdown) tick() bool {
	c.mu.Lock()
	zero := c.remaining == 0
	c.mu.Unlock()
	if zero {
		c.expire()
	}
	return zero
}

func (c *Countdown) decrement() bool {
	c.mu.Lock()
	if c.remaining > 0 {
		c.remaining--
	}
	zero := c.remaining == 0
	c.mu.Unlock()
	if zero {
		c.expire()
	}
	return zero
}

func (c *Countdown) expire() {
	c.mu.Lock()
	if c.expired {
		c.mu.Unlock()
		return
	}
	c.expired = true
	fn := c.onExpire
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Cancel stops the countdown without firing OnExpire. It does not wait for
// the goroutine, so it is safe to call from OnExpire.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Remaining is the number of seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Expired reports whether the countdown reached zero.
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

// Done is closed when the countdown goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
