package slack

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplayGuardRejectsSecondDelivery(t *testing.T) {
	g := NewReplayGuard()

	assert.False(t, g.IsDuplicate("v0=abc123"))
	assert.True(t, g.IsDuplicate("v0=abc123"))
	assert.True(t, g.IsDuplicate("v0=abc123"))
}

func TestReplayGuardDistinguishesKeys(t *testing.T) {
	g := NewReplayGuard()

	assert.False(t, g.IsDuplicate("v0=first"))
	assert.False(t, g.IsDuplicate("v0=second"))
	assert.True(t, g.IsDuplicate("v0=first"))
}

func TestReplayGuardIgnoresEmptyKey(t *testing.T) {
	// An empty signature is rejected later by the verifier; the guard
	// must not treat all unsigned requests as replays of each other.
	g := NewReplayGuard()

	assert.False(t, g.IsDuplicate(""))
	assert.False(t, g.IsDuplicate(""))
}

func TestReplayGuardStaysBoundedUnderLoad(t *testing.T) {
	g := NewReplayGuard()

	for i := 0; i < replayCleanupThreshold*4; i++ {
		assert.False(t, g.IsDuplicate(fmt.Sprintf("v0=sig-%d", i)))
	}
	// Fresh entries survive cleanup passes.
	assert.True(t, g.IsDuplicate(fmt.Sprintf("v0=sig-%d", replayCleanupThreshold*4-1)))
}
