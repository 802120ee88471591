package aisleauth

import (
	"testing"
	"time"
)

func TestCountdownCompletes(t *testing.T) {
	countdown := newCountdown(5*time.Millisecond, time.Millisecond)
	defer countdown.Stop()

	var last int = -1
	count := 0
	for remaining := range countdown.C {
		last = remaining
		count++
	}
	if count != 5 || last != 0 {
		t.Fatalf("got %d ticks, last %d", count, last)
	}
}

func TestCountdownStop(t *testing.T) {
	countdown := newCountdown(time.Hour, time.Millisecond)
	countdown.Stop()
	countdown.Stop()

	select {
	case _, open := <-countdown.C:
		if open {
			// One buffered tick may slip out before the stop lands; the
			// channel must still close afterwards.
			if _, open := <-countdown.C; open {
				t.Fatal("expected closed channel after Stop")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Stop")
	}
}

func TestCountdownZeroDuration(t *testing.T) {
	countdown := NewCountdown(0)
	defer countdown.Stop()

	select {
	case _, open := <-countdown.C:
		if open {
			t.Fatal("expected immediately closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed for zero duration")
	}
}
