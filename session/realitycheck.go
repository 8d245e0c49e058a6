package session

import (
	"sync"
	"time"
)

// RealityCheck is a cancellable one-shot countdown that marks a session
// disclosure as due after a configured interval. It is owned by the
// controller and always released deterministically on logout; nothing here
// relies on finalizers or implicit cleanup.
type RealityCheck struct {
	mu         sync.Mutex
	duration   time.Duration
	timer      *time.Timer
	armedUntil time.Time
	due        bool
	dismissed  bool
}

// NewRealityCheck returns an unarmed reality check.
func NewRealityCheck() *RealityCheck {
	return &RealityCheck{}
}

// Arm schedules the disclosure after d. Re-arming always cancels the prior
// schedule first; there is never more than one pending timer.
func (rc *RealityCheck) Arm(d time.Duration) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.stopLocked()
	rc.duration = d
	rc.due = false
	rc.armedUntil = time.Now().Add(d)
	rc.timer = time.AfterFunc(d, rc.fire)
}

func (rc *RealityCheck) fire() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.timer = nil
	rc.due = true
}

// Dismiss acknowledges the disclosure and cancels any pending schedule.
func (rc *RealityCheck) Dismiss() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.dismissed = true
	rc.due = false
	rc.stopLocked()
}

// Due reports whether the countdown has fired without being dismissed.
func (rc *RealityCheck) Due() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.due && !rc.dismissed
}

// Dismissed reports whether the client already acknowledged the disclosure
// for this session.
func (rc *RealityCheck) Dismissed() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.dismissed
}

// Armed reports whether a schedule is pending.
func (rc *RealityCheck) Armed() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.timer != nil
}

// Deadline returns the wall-clock time the pending schedule fires at, zero
// when unarmed.
func (rc *RealityCheck) Deadline() time.Time {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.timer == nil {
		return time.Time{}
	}
	return rc.armedUntil
}

// Cancel stops the timer and resets all state. Called on logout.
func (rc *RealityCheck) Cancel() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.stopLocked()
	rc.duration = 0
	rc.armedUntil = time.Time{}
	rc.due = false
	rc.dismissed = false
}

func (rc *RealityCheck) stopLocked() {
	if rc.timer != nil {
		rc.timer.Stop()
		rc.timer = nil
	}
}
