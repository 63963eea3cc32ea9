package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimRejectsSecondConcurrentRunForSameScript(t *testing.T) {
	e := &Engine{running: make(map[uint]struct{})}

	require.True(t, e.claim(1))
	require.False(t, e.claim(1), "a second claim for the same script must be rejected")

	e.release(1)
	require.True(t, e.claim(1), "claim must succeed again once released")
}

func TestClaimIsIndependentPerScript(t *testing.T) {
	e := &Engine{running: make(map[uint]struct{})}

	require.True(t, e.claim(1))
	require.True(t, e.claim(2))
}
