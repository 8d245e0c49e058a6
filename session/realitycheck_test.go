package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealityCheckFiresOnce(t *testing.T) {
	t.Parallel()

	rc := NewRealityCheck()
	assert.False(t, rc.Armed())
	assert.False(t, rc.Due())

	rc.Arm(10 * time.Millisecond)
	assert.True(t, rc.Armed())
	assert.False(t, rc.Due(), "not due before the interval elapses")

	waitFor(t, "reality check firing", rc.Due)
	assert.False(t, rc.Armed(), "one-shot, no pending timer after firing")
}

func TestRealityCheckRearmCancelsPrior(t *testing.T) {
	t.Parallel()

	rc := NewRealityCheck()
	rc.Arm(5 * time.Millisecond)
	rc.Arm(time.Hour)

	time.Sleep(30 * time.Millisecond)
	assert.False(t, rc.Due(), "the superseded schedule must not fire")
	assert.True(t, rc.Armed())
	assert.False(t, rc.Deadline().IsZero())
}

func TestRealityCheckDismiss(t *testing.T) {
	t.Parallel()

	rc := NewRealityCheck()
	rc.Arm(5 * time.Millisecond)
	waitFor(t, "reality check firing", rc.Due)

	rc.Dismiss()
	assert.False(t, rc.Due())
	assert.True(t, rc.Dismissed())

	// A later arm still counts down, but dismissal keeps Due false for the
	// rest of the session.
	rc.Arm(5 * time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.False(t, rc.Due())
}

func TestRealityCheckCancelResets(t *testing.T) {
	t.Parallel()

	rc := NewRealityCheck()
	rc.Arm(time.Hour)
	rc.Dismiss()
	rc.Cancel()

	assert.False(t, rc.Armed())
	assert.False(t, rc.Dismissed(), "a fresh session starts unacknowledged")
	assert.True(t, rc.Deadline().IsZero())
}
