package aisleauth

import (
	"testing"
	"time"
)

func TestChallengeTrackerOpenReplaces(t *testing.T) {
	clock := newFixedClock(time.Unix(1_700_000_000, 0))
	tracker := newChallengeTracker(time.Minute, clock.Now)

	tracker.Open("a@example.com", "a-1", "hash-a")
	tracker.Open("b@example.com", "b-1", "hash-b")

	current, ok := tracker.Current()
	if !ok {
		t.Fatal("expected open challenge")
	}
	if current.Email != "b@example.com" || current.StagedHash != "hash-b" {
		t.Fatalf("expected latest challenge, got %+v", current)
	}
}

func TestChallengeTrackerCooldown(t *testing.T) {
	clock := newFixedClock(time.Unix(1_700_000_000, 0))
	tracker := newChallengeTracker(time.Minute, clock.Now)

	if remaining := tracker.ResendRemaining(); remaining != 0 {
		t.Fatalf("remaining with no challenge = %v", remaining)
	}

	tracker.Open("a@example.com", "a-1", "")
	if remaining := tracker.ResendRemaining(); remaining != time.Minute {
		t.Fatalf("remaining = %v", remaining)
	}

	clock.Advance(time.Minute)
	if remaining := tracker.ResendRemaining(); remaining != 0 {
		t.Fatalf("remaining after cooldown = %v", remaining)
	}
}

func TestChallengeTrackerClear(t *testing.T) {
	tracker := newChallengeTracker(time.Minute, nil)
	tracker.Clear()

	tracker.Open("a@example.com", "a-1", "")
	tracker.Clear()
	if _, ok := tracker.Current(); ok {
		t.Fatal("expected no challenge after clear")
	}
	if tracker.ResendRemaining() != 0 {
		t.Fatal("expected zero remaining after clear")
	}
}
