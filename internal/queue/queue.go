// Package queue is the Run Queue and worker pool (spec §4.3 design
// notes, §9): a bounded in-process channel feeding a fixed pool of
// goroutines, generalized from the teacher's
// semaphore-plus-WaitGroup concurrency pattern
// (peace/internal/task_executor/scheduler/scheduler.go) — this queue
// is FIFO-fed rather than dependency-graph-driven, since scripts here
// have no inter-task dependency edges.
package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/matt-ortiz/PyScheduler/internal/common"
)

// RunRequest is one unit of work: "run this script, for this reason".
//
// CorrelationID ties a single run together across the queue, the
// execution record, and the live-event stream, so a client watching
// /ws can match an EventRunStarted/EventRunFinished pair to the
// execution it triggered before the Store has even assigned a row ID.
type RunRequest struct {
	ScriptID      uint
	TriggerID     *uint
	TriggeredBy   string
	CorrelationID string
}

// Handler executes a RunRequest. The Execution Engine supplies this.
type Handler func(ctx context.Context, req RunRequest)

// Queue is a bounded FIFO feeding a fixed-size worker pool. Enqueue
// never blocks: a full queue returns common.ErrQueueFull immediately,
// matching the capacity-kind error taxonomy (spec §7).
type Queue struct {
	ch      chan RunRequest
	handler Handler
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New creates a queue with the given capacity. Call Start to spin up
// the worker pool before Enqueue is used.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{ch: make(chan RunRequest, capacity)}
}

// Start launches workerCount goroutines draining the queue, each
// calling handler for every RunRequest it pops. Start is idempotent;
// calling it twice is a no-op.
func (q *Queue) Start(ctx context.Context, workerCount int, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.handler = handler

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel

	if workerCount <= 0 {
		workerCount = 4
	}
	for i := 0; i < workerCount; i++ {
		q.wg.Add(1)
		go q.worker(runCtx)
	}
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-q.ch:
			if !ok {
				return
			}
			q.handler(ctx, req)
		}
	}
}

// Enqueue attempts a non-blocking send. It returns common.ErrQueueFull
// when the channel's buffer is full — callers (the Trigger Scheduler,
// the manual-run HTTP handler) treat that as an overrun, not a crash.
func (q *Queue) Enqueue(req RunRequest) error {
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}
	select {
	case q.ch <- req:
		return nil
	default:
		return common.ErrQueueFull
	}
}

// Depth reports the current backlog, for the health/metrics surface.
func (q *Queue) Depth() int {
	return len(q.ch)
}

// Stop cancels every worker and waits for in-flight handlers to
// return. Queued-but-unstarted requests are dropped; no ExecutionRecord
// exists for them, since records are only created once a run starts.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
}
