// Package engine is the Execution Engine (spec §4.3): it carries a
// RunRequest through QUEUED → PREPARING → RUNNING → FINALIZING →
// TERMINAL, spawning the script's interpreter in its own process
// group, capturing output under a byte budget, and enforcing the
// timeout and at-most-one-active-run-per-script policies. Grounded on
// the teacher's create→start→wait→collect-logs→cleanup shape in
// peace/internal/task_executor/runner/engine.go, translated from
// Docker container lifecycle calls to os/exec against a script's own
// virtualenv interpreter.
package engine

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"gorm.io/gorm"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/config"
	"github.com/matt-ortiz/PyScheduler/internal/environment"
	"github.com/matt-ortiz/PyScheduler/internal/fanout"
	"github.com/matt-ortiz/PyScheduler/internal/model"
	"github.com/matt-ortiz/PyScheduler/internal/notify"
	"github.com/matt-ortiz/PyScheduler/internal/queue"
	"github.com/matt-ortiz/PyScheduler/internal/store"
)

// Engine runs scripts on behalf of the Run Queue's worker pool.
type Engine struct {
	store    *store.Store
	env      *environment.Manager
	bus      *fanout.Bus
	notifier notify.Notifier
	cfg      config.Config

	mu      sync.Mutex
	running map[uint]struct{}
}

func New(s *store.Store, env *environment.Manager, bus *fanout.Bus, notifier notify.Notifier, cfg config.Config) *Engine {
	return &Engine{
		store:    s,
		env:      env,
		bus:      bus,
		notifier: notifier,
		cfg:      cfg,
		running:  make(map[uint]struct{}),
	}
}

// Handle is the queue.Handler the worker pool invokes for every
// RunRequest.
func (e *Engine) Handle(ctx context.Context, req queue.RunRequest) {
	log := common.GetLogger().Sugar()

	if !e.claim(req.ScriptID) {
		log.Warnw("run rejected: already active", "script_id", req.ScriptID)
		return
	}
	defer e.release(req.ScriptID)

	script, err := e.store.GetScript(ctx, req.ScriptID)
	if err != nil {
		log.Errorw("run aborted: script lookup failed", "script_id", req.ScriptID, "err", err)
		return
	}

	rec := &model.ExecutionRecord{
		ScriptID:      req.ScriptID,
		TriggerID:     req.TriggerID,
		StartedAt:     time.Now(),
		Status:        model.StatusRunning,
		TriggeredBy:   model.TriggeredBy(req.TriggeredBy),
		CorrelationID: req.CorrelationID,
	}
	if err := e.store.CreateRunningExecution(ctx, rec); err != nil {
		log.Errorw("run aborted: failed to create execution record", "script_id", req.ScriptID, "err", err)
		return
	}

	e.bus.Publish(fanout.Event{Type: fanout.EventRunStarted, ScriptID: req.ScriptID, RunID: rec.ID, CorrelationID: req.CorrelationID})

	result := e.execute(ctx, script, rec.ID)

	e.finalize(ctx, script, rec, result)
}

func (e *Engine) claim(scriptID uint) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.running[scriptID]; ok {
		return false
	}
	e.running[scriptID] = struct{}{}
	return true
}

func (e *Engine) release(scriptID uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, scriptID)
}

// runResult is what execute hands back to finalize.
type runResult struct {
	exitCode   int
	stdout     string
	stderr     string
	stdoutCut  bool
	stderrCut  bool
	timedOut   bool
	memoryMB   *int
	cpuPercent *float64
	prepErr    error
}

func (e *Engine) execute(ctx context.Context, script *model.Script, runID uint) runResult {
	folderPath, err := environment.FolderPathFor(ctx, e.store, script.FolderID)
	if err != nil {
		return runResult{exitCode: -1, prepErr: err}
	}

	layout, _, err := e.env.Prepare(ctx, script.Slug, folderPath, script.InterpreterVersion, script.Content, script.Requirements)
	if err != nil {
		e.bus.Publish(fanout.Event{Type: fanout.EventEnvFailed, ScriptID: script.ID, RunID: runID, Data: err.Error()})
		return runResult{exitCode: -1, prepErr: err}
	}
	e.bus.Publish(fanout.Event{Type: fanout.EventEnvReady, ScriptID: script.ID, RunID: runID})

	timeout := time.Duration(e.cfg.DefaultScriptTimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newCapturedStream(e.cfg.StdoutCapBytes)
	stderr := newCapturedStream(e.cfg.StderrCapBytes)

	cmd := exec.Command(e.env.InterpreterPath(layout), layout.SourceFile)
	cmd.Dir = layout.ScriptDir
	cmd.Env = overlayEnv(os.Environ(), script.Environment)
	cmd.Stdout = teeWriter(stdout, e.streamPublisher(script.ID, runID, fanout.EventRunStdout))
	cmd.Stderr = teeWriter(stderr, e.streamPublisher(script.ID, runID, fanout.EventRunStderr))
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return runResult{exitCode: -1, prepErr: common.Wrap(common.KindExecution, "start process: %v", err)}
	}

	stopSampling := make(chan struct{})
	usage := make(chan resourceUsage, 1)
	go e.sampleResourceUsage(cmd.Process.Pid, stopSampling, usage)

	waitErr := e.waitWithGraceTermination(runCtx, cmd)
	close(stopSampling)
	sampled := <-usage

	timedOut := runCtx.Err() == context.DeadlineExceeded

	return runResult{
		exitCode:   exitCodeOf(waitErr, cmd),
		stdout:     stdout.String(),
		stderr:     stderr.String(),
		stdoutCut:  stdout.Truncated(),
		stderrCut:  stderr.Truncated(),
		timedOut:   timedOut,
		memoryMB:   sampled.memoryMB,
		cpuPercent: sampled.cpuPercent,
	}
}

// waitWithGraceTermination waits for the process to exit; on context
// deadline (timeout) it signals the whole process group to terminate
// gracefully, then escalates to an unconditional kill after a grace
// window, mirroring the teacher's ContainerWait→ContainerRemove(Force)
// fallback but for OS process groups instead of containers.
func (e *Engine) waitWithGraceTermination(ctx context.Context, cmd *exec.Cmd) error {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		pgid := cmd.Process.Pid
		_ = syscall.Kill(-pgid, syscall.SIGTERM)

		grace := time.NewTimer(5 * time.Second)
		defer grace.Stop()
		select {
		case err := <-done:
			return err
		case <-grace.C:
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
			return <-done
		}
	}
}

// resourceUsage is the best-effort sample collected over a run's
// lifetime: peak RSS and the most recent CPU-percent reading.
type resourceUsage struct {
	memoryMB   *int
	cpuPercent *float64
}

// sampleResourceUsage polls the running process on a short interval
// until stop is closed, then reports the peak memory and last CPU
// reading on result. A process that exits (or was never observable,
// e.g. a sandboxed environment without /proc) yields a zero-value
// sample rather than an error — resource figures are advisory.
func (e *Engine) sampleResourceUsage(pid int, stop <-chan struct{}, result chan<- resourceUsage) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		result <- resourceUsage{}
		return
	}

	var peakMB int
	var lastCPU float64
	var sawAny bool

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			if !sawAny {
				result <- resourceUsage{}
				return
			}
			result <- resourceUsage{memoryMB: &peakMB, cpuPercent: &lastCPU}
			return
		case <-ticker.C:
			if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
				sawAny = true
				mb := int(mem.RSS / (1024 * 1024))
				if mb > peakMB {
					peakMB = mb
				}
			}
			if pct, err := proc.CPUPercent(); err == nil {
				sawAny = true
				lastCPU = pct
			}
		}
	}
}

func (e *Engine) streamPublisher(scriptID, runID uint, t fanout.EventType) func([]byte) {
	return func(chunk []byte) {
		e.bus.Publish(fanout.Event{Type: t, ScriptID: scriptID, RunID: runID, Data: string(chunk)})
	}
}

func (e *Engine) finalize(ctx context.Context, script *model.Script, rec *model.ExecutionRecord, result runResult) {
	log := common.GetLogger().Sugar()
	now := time.Now()
	durationMs := now.Sub(rec.StartedAt).Milliseconds()

	rec.FinishedAt = &now
	rec.DurationMs = &durationMs
	rec.MemoryMB = result.memoryMB
	rec.CPUPercent = result.cpuPercent

	switch {
	case result.prepErr != nil:
		rec.Status = model.StatusFailed
		rec.Stderr = result.prepErr.Error()
		code := -1
		rec.ExitCode = &code
	case result.timedOut:
		rec.Status = model.StatusTimeout
		rec.Stdout, rec.Stderr = result.stdout, result.stderr
		rec.StdoutTruncated, rec.StderrTruncated = result.stdoutCut, result.stderrCut
		code := result.exitCode
		rec.ExitCode = &code
	case result.exitCode == 0:
		rec.Status = model.StatusSuccess
		rec.Stdout, rec.Stderr = result.stdout, result.stderr
		rec.StdoutTruncated, rec.StderrTruncated = result.stdoutCut, result.stderrCut
		code := 0
		rec.ExitCode = &code
	default:
		rec.Status = model.StatusFailed
		rec.Stdout, rec.Stderr = result.stdout, result.stderr
		rec.StdoutTruncated, rec.StderrTruncated = result.stdoutCut, result.stderrCut
		code := result.exitCode
		rec.ExitCode = &code
	}

	success := rec.Status == model.StatusSuccess
	err := e.store.Transaction(ctx, func(tx *gorm.DB) error {
		if err := e.store.FinalizeExecution(tx, rec); err != nil {
			return err
		}
		return e.store.RecordRunOutcome(tx, script.ID, success, now)
	})
	if err != nil {
		log.Errorw("failed to finalize execution record", "script_id", script.ID, "run_id", rec.ID, "err", err)
	}

	e.bus.Publish(fanout.Event{Type: fanout.EventRunFinished, ScriptID: script.ID, RunID: rec.ID, CorrelationID: rec.CorrelationID, Data: rec.Status})

	e.notifier.NotifyCompletion(ctx, *script, *rec)
}

func exitCodeOf(waitErr error, cmd *exec.Cmd) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	if waitErr != nil {
		return -1
	}
	return 0
}
