package tgevents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpamGuardRepeat(t *testing.T) {
	g := newSpamGuard()

	require.False(t, g.IsSpam(1))
	require.True(t, g.IsSpam(1))
	require.False(t, g.IsSpam(2))
	require.True(t, g.IsSpam(1))
}

func TestSpamGuardExpiry(t *testing.T) {
	g := newSpamGuard()

	require.False(t, g.IsSpam(1))
	time.Sleep(spamGuardTTL + 100*time.Millisecond)
	require.False(t, g.IsSpam(1))
}

func TestSpamGuardCapacity(t *testing.T) {
	g := newSpamGuard()

	for id := int64(0); id <= spamGuardSize; id++ {
		g.IsSpam(id)
	}

	// One past capacity: the oldest entry is gone, the newest remains.
	require.False(t, g.IsSpam(0))
	require.True(t, g.IsSpam(spamGuardSize))
}
