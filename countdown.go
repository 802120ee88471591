package aisleauth

import (
	"sync"
	"time"
)

// Countdown is the cancellable one-second ticker backing the OTP resend
// timer in the UI. The owner receives the remaining whole seconds on C once
// per second; C is closed when the countdown reaches zero. The owner must
// call Stop when the view is torn down or the step changes, otherwise the
// ticker goroutine leaks.
type Countdown struct {
	C <-chan int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCountdown starts a countdown over d, rounded up to whole seconds.
func NewCountdown(d time.Duration) *Countdown {
	return newCountdown(d, time.Second)
}

func newCountdown(d time.Duration, interval time.Duration) *Countdown {
	remaining := int((d + interval - 1) / interval)
	ch := make(chan int, 1)
	c := &Countdown{
		C:    ch,
		stop: make(chan struct{}),
	}

	go func() {
		defer close(ch)
		if remaining <= 0 {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for remaining > 0 {
			select {
			case <-ticker.C:
				remaining--
				select {
				case ch <- remaining:
				case <-c.stop:
					return
				}
			case <-c.stop:
				return
			}
		}
	}()

	return c
}

// Stop releases the ticker. Idempotent.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
