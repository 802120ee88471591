package aisleauth

import (
	"sync"
	"time"
)

// otpChallenge is the ephemeral state of one in-flight OTP verification.
// The reset flow targets an email; the change flow targets the current
// session's account and stages the new credential hash until the challenge
// is satisfied.
type otpChallenge struct {
	Email      string
	AccountID  string
	StagedHash string
	IssuedAt   time.Time
	ResendAt   time.Time
}

// challengeTracker tracks at most one challenge per flow. Opening a new
// challenge supersedes the previous one and restarts the resend cooldown;
// attempt state tied to a superseded challenge is discarded with it.
type challengeTracker struct {
	mu       sync.Mutex
	now      func() time.Time
	cooldown time.Duration
	current  *otpChallenge
}

func newChallengeTracker(cooldown time.Duration, now func() time.Time) *challengeTracker {
	if now == nil {
		now = time.Now
	}
	return &challengeTracker{now: now, cooldown: cooldown}
}

// Open issues a challenge, replacing any previous one.
func (t *challengeTracker) Open(email, accountID, stagedHash string) {
	issued := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = &otpChallenge{
		Email:      email,
		AccountID:  accountID,
		StagedHash: stagedHash,
		IssuedAt:   issued,
		ResendAt:   issued.Add(t.cooldown),
	}
}

// Current returns a copy of the open challenge, if any.
func (t *challengeTracker) Current() (otpChallenge, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return otpChallenge{}, false
	}
	return *t.current, true
}

// Clear cancels the open challenge. Safe to call when none is open.
func (t *challengeTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
}

// ResendRemaining returns the time left until resending is permitted,
// or zero when it already is.
func (t *challengeTracker) ResendRemaining() time.Duration {
	t.mu.Lock()
	current := t.current
	t.mu.Unlock()

	if current == nil {
		return 0
	}
	remaining := current.ResendAt.Sub(t.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
