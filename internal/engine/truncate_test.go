package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCapturedStreamTruncatesAtLimit(t *testing.T) {
	c := newCapturedStream(10)
	n, err := c.Write([]byte("0123456789ABCDEF"))
	require.NoError(t, err)
	require.Equal(t, 16, n) // io.Writer contract: report the full length consumed
	require.Equal(t, "0123456789", c.String())
	require.True(t, c.Truncated())
}

func TestCapturedStreamUnderLimitNotTruncated(t *testing.T) {
	c := newCapturedStream(100)
	_, err := c.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "hello", c.String())
	require.False(t, c.Truncated())
}

func TestCapturedStreamIgnoresWritesAfterTruncation(t *testing.T) {
	c := newCapturedStream(5)
	_, _ = c.Write([]byte("12345"))
	_, _ = c.Write([]byte("more"))
	require.Equal(t, "12345", c.String())
	require.True(t, c.Truncated())
}
