package engine

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matt-ortiz/PyScheduler/internal/model"
)

func TestTeeWriterForwardsToCallbackAndCapture(t *testing.T) {
	var buf bytes.Buffer
	var chunks [][]byte
	w := teeWriter(&buf, func(c []byte) { chunks = append(chunks, c) })

	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, "hello", buf.String())
	require.Len(t, chunks, 1)
	require.Equal(t, "hello", string(chunks[0]))
}

func TestOverlayEnvOverridesBaseKeepsOthers(t *testing.T) {
	base := []string{"PATH=/usr/bin", "HOME=/root"}
	overlay := model.EnvMap{"HOME": "/custom", "API_KEY": "secret"}

	out := overlayEnv(base, overlay)

	require.Contains(t, out, "PATH=/usr/bin")
	require.Contains(t, out, "HOME=/custom")
	require.Contains(t, out, "API_KEY=secret")
	require.NotContains(t, out, "HOME=/root")
}

func TestOverlayEnvEmptyReturnsBaseUnchanged(t *testing.T) {
	base := []string{"PATH=/usr/bin"}
	out := overlayEnv(base, nil)
	require.Equal(t, base, out)
}
