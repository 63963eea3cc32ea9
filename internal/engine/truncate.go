package engine

import "sync"

// capturedStream accumulates up to limit bytes of output, marking
// itself truncated once the cap is hit instead of growing unbounded —
// scripts with runaway output must never exhaust process memory.
type capturedStream struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	truncated bool
}

func newCapturedStream(limit int) *capturedStream {
	if limit <= 0 {
		limit = 1 << 20 // 1MiB default cap
	}
	return &capturedStream{limit: limit}
}

// Write implements io.Writer so it can sit directly behind
// exec.Cmd.Stdout/Stderr.
func (c *capturedStream) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(p)
	if c.truncated {
		return n, nil
	}
	remaining := c.limit - len(c.buf)
	if remaining <= 0 {
		c.truncated = true
		return n, nil
	}
	if len(p) > remaining {
		c.buf = append(c.buf, p[:remaining]...)
		c.truncated = true
		return n, nil
	}
	c.buf = append(c.buf, p...)
	return n, nil
}

func (c *capturedStream) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.buf)
}

func (c *capturedStream) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}
