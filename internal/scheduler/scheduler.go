// Package scheduler is the Trigger Scheduler (spec §4.3's sibling
// component): it arms one timer per enabled Trigger, fires
// RunRequests into the Run Queue on schedule, and rearms itself. The
// per-trigger timer model generalizes the teacher's
// semaphore/goroutine-per-task dispatch
// (peace/internal/task_executor/scheduler/scheduler.go) into
// time.Timer-driven dispatch, since triggers fire on a clock rather
// than on a dependency graph.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/fanout"
	"github.com/matt-ortiz/PyScheduler/internal/model"
	"github.com/matt-ortiz/PyScheduler/internal/queue"
	"github.com/matt-ortiz/PyScheduler/internal/store"
)

// Scheduler owns one armed timer per enabled, schedulable Trigger.
type Scheduler struct {
	store *store.Store
	queue *queue.Queue
	bus   *fanout.Bus

	mu     sync.Mutex
	timers map[uint]*time.Timer
}

func New(s *store.Store, q *queue.Queue, bus *fanout.Bus) *Scheduler {
	return &Scheduler{
		store:  s,
		queue:  q,
		bus:    bus,
		timers: make(map[uint]*time.Timer),
	}
}

// Boot arms every enabled trigger belonging to an enabled script.
// Startup triggers fire immediately; cron/interval triggers are armed
// against a next fire time freshly computed from now (a persisted
// next_fire_at is overwritten, and missed fires are not replayed).
func (s *Scheduler) Boot(ctx context.Context) error {
	log := common.GetLogger().Sugar()
	triggers, err := s.store.ListEnabledTriggers(ctx)
	if err != nil {
		return err
	}

	for _, t := range triggers {
		t := t
		switch t.Kind {
		case model.TriggerStartup:
			s.fire(ctx, t)
		case model.TriggerManual:
			// Manual triggers have no timer; they fire only on direct request.
		default:
			if err := s.arm(ctx, t); err != nil {
				log.Errorw("failed to arm trigger at boot", "trigger_id", t.ID, "err", err)
			}
		}
	}
	return nil
}

// arm computes the trigger's next fire time from now and schedules a
// timer for it.
func (s *Scheduler) arm(ctx context.Context, t model.Trigger) error {
	next, err := s.computeNextFire(t, time.Now())
	if err != nil {
		return err
	}
	return s.armAt(ctx, t, next)
}

func (s *Scheduler) armAt(ctx context.Context, t model.Trigger, next time.Time) error {
	if t.NextFireAt == nil || !t.NextFireAt.Equal(next) {
		if err := s.store.SetNextFire(ctx, t.ID, &next); err != nil {
			return err
		}
	}

	delay := time.Until(next)
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[t.ID]; ok {
		existing.Stop()
	}
	s.timers[t.ID] = time.AfterFunc(delay, func() {
		s.onFire(context.Background(), t.ID)
	})
	return nil
}

// onFire is the timer callback: it rereads the trigger fresh (it may
// have been disabled, deleted, or edited since arming), and if it and
// its script are still enabled, fires and rearms. A deleted or disabled
// trigger, or a disabled script, is left unarmed.
func (s *Scheduler) onFire(ctx context.Context, triggerID uint) {
	log := common.GetLogger().Sugar()

	t, err := s.store.GetTrigger(ctx, triggerID)
	if err != nil {
		return // trigger was deleted; nothing to rearm
	}
	if !t.Enabled {
		return
	}
	script, err := s.store.GetScript(ctx, t.ScriptID)
	if err != nil || !script.Enabled {
		return
	}

	s.fire(ctx, *t)

	next, err := s.computeNextFire(*t, time.Now())
	if err != nil {
		log.Errorw("failed to compute next fire time", "trigger_id", t.ID, "err", err)
		return
	}
	if err := s.armAt(ctx, *t, next); err != nil {
		log.Errorw("failed to rearm trigger", "trigger_id", t.ID, "err", err)
	}
}

// fire enqueues a RunRequest for t. If the Run Queue is full, the
// trigger is still considered to have "fired" — last_fired_at
// advances and a trigger.overrun event is published, rather than the
// scheduler retrying or blocking (spec §4.3 overrun handling).
func (s *Scheduler) fire(ctx context.Context, t model.Trigger) {
	now := time.Now()
	err := s.queue.Enqueue(queue.RunRequest{
		ScriptID:    t.ScriptID,
		TriggerID:   &t.ID,
		TriggeredBy: triggeredByFor(t.Kind),
	})
	if err != nil {
		s.bus.Publish(fanout.Event{Type: fanout.EventTriggerOverrun, ScriptID: t.ScriptID, Data: t.ID})
	}
	_ = s.store.AdvanceFire(ctx, t.ID, now, t.NextFireAt)
}

func triggeredByFor(kind model.TriggerKind) string {
	if kind == model.TriggerStartup {
		return string(model.TriggeredByStartup)
	}
	return string(model.TriggeredBySchedule)
}

// computeNextFire dispatches to the cron or interval next-fire rule.
func (s *Scheduler) computeNextFire(t model.Trigger, now time.Time) (time.Time, error) {
	switch t.Kind {
	case model.TriggerCron:
		return NextCronFire(t.Config.Expression, t.Config.Timezone, now)
	case model.TriggerInterval:
		base := now
		if t.LastFiredAt != nil && t.LastFiredAt.After(base) {
			base = *t.LastFiredAt
		}
		return base.Add(time.Duration(t.Config.Seconds) * time.Second), nil
	default:
		return time.Time{}, common.Wrap(common.KindInternal, "trigger kind %q has no timer", t.Kind)
	}
}

// Rearm is called when a trigger is created or updated — it cancels any
// existing timer and, if the trigger is now live, arms a fresh one.
func (s *Scheduler) Rearm(ctx context.Context, triggerID uint) {
	s.cancelTimer(triggerID)

	t, err := s.store.GetTrigger(ctx, triggerID)
	if err != nil {
		return
	}
	if !t.Enabled || t.Kind == model.TriggerManual || t.Kind == model.TriggerStartup {
		return
	}
	script, err := s.store.GetScript(ctx, t.ScriptID)
	if err != nil || !script.Enabled {
		return
	}
	_ = s.arm(ctx, *t)
}

// Cancel stops a trigger's timer without touching its stored state —
// used when a trigger is deleted.
func (s *Scheduler) Cancel(triggerID uint) {
	s.cancelTimer(triggerID)
}

func (s *Scheduler) cancelTimer(triggerID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.timers[triggerID]; ok {
		timer.Stop()
		delete(s.timers, triggerID)
	}
}

// Shutdown stops every armed timer.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
