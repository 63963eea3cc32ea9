package engine

import (
	"io"
	"strings"

	"github.com/matt-ortiz/PyScheduler/internal/model"
)

// liveWriter forwards every Write to a callback (used to publish a
// run.stdout/run.stderr event per chunk) in addition to the captured
// stream it wraps.
type liveWriter struct {
	captured io.Writer
	onChunk  func([]byte)
}

func teeWriter(captured io.Writer, onChunk func([]byte)) io.Writer {
	return &liveWriter{captured: captured, onChunk: onChunk}
}

func (w *liveWriter) Write(p []byte) (int, error) {
	if w.onChunk != nil {
		cp := make([]byte, len(p))
		copy(cp, p)
		w.onChunk(cp)
	}
	return w.captured.Write(p)
}

// overlayEnv layers a Script's custom environment map on top of the
// process's own environment, letting a script override any inherited
// variable without losing PATH/HOME/etc.
func overlayEnv(base []string, overlay model.EnvMap) []string {
	if len(overlay) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overlay))
	skip := make(map[string]bool, len(overlay))
	for k := range overlay {
		skip[k] = true
	}
	for _, kv := range base {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if !skip[key] {
			out = append(out, kv)
		}
	}
	for k, v := range overlay {
		out = append(out, k+"="+v)
	}
	return out
}
