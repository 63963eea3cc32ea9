package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnqueueProcessesInFIFOOrder(t *testing.T) {
	q := New(8)
	var mu sync.Mutex
	var seen []uint

	done := make(chan struct{})
	var count int32
	q.Start(context.Background(), 1, func(ctx context.Context, req RunRequest) {
		mu.Lock()
		seen = append(seen, req.ScriptID)
		mu.Unlock()
		if atomic.AddInt32(&count, 1) == 3 {
			close(done)
		}
	})

	require.NoError(t, q.Enqueue(RunRequest{ScriptID: 1}))
	require.NoError(t, q.Enqueue(RunRequest{ScriptID: 2}))
	require.NoError(t, q.Enqueue(RunRequest{ScriptID: 3}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handlers")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []uint{1, 2, 3}, seen)
	q.Stop()
}

func TestEnqueueRejectsWhenFull(t *testing.T) {
	q := New(1)
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	q.Start(context.Background(), 1, func(ctx context.Context, req RunRequest) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
	})

	require.NoError(t, q.Enqueue(RunRequest{ScriptID: 1}))
	// Wait until the single worker holds request 1, so the buffer is empty.
	<-started
	require.NoError(t, q.Enqueue(RunRequest{ScriptID: 2}))

	err := q.Enqueue(RunRequest{ScriptID: 3})
	require.Error(t, err)

	close(block)
	q.Stop()
}
