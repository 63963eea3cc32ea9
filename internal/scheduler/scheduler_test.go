package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matt-ortiz/PyScheduler/internal/fanout"
	"github.com/matt-ortiz/PyScheduler/internal/model"
	"github.com/matt-ortiz/PyScheduler/internal/queue"
	"github.com/matt-ortiz/PyScheduler/internal/store"
)

func newTestSetup(t *testing.T) (*Scheduler, *store.Store, *queue.Queue) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	q := queue.New(8)
	bus := fanout.New(8)
	return New(s, q, bus), s, q
}

func TestComputeNextFireIntervalUsesMaxOfNowAndLastFired(t *testing.T) {
	sc, _, _ := newTestSetup(t)

	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)

	trig := model.Trigger{
		Kind:        model.TriggerInterval,
		Config:      model.TriggerConfig{Seconds: 30},
		LastFiredAt: &future,
	}
	next, err := sc.computeNextFire(trig, now)
	require.NoError(t, err)
	require.Equal(t, future.Add(30*time.Second), next)
}

func TestComputeNextFireIntervalWithNoPriorFireUsesNow(t *testing.T) {
	sc, _, _ := newTestSetup(t)

	now := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)
	trig := model.Trigger{Kind: model.TriggerInterval, Config: model.TriggerConfig{Seconds: 60}}
	next, err := sc.computeNextFire(trig, now)
	require.NoError(t, err)
	require.Equal(t, now.Add(60*time.Second), next)
}

func TestBootFiresStartupTriggerImmediately(t *testing.T) {
	sc, s, q := newTestSetup(t)
	ctx := context.Background()

	script := &model.Script{Name: "Boot Script", Slug: "boot-script", Content: "x", Enabled: true}
	require.NoError(t, s.CreateScript(ctx, script))

	trig := &model.Trigger{ScriptID: script.ID, Kind: model.TriggerStartup, Enabled: true}
	require.NoError(t, s.CreateTrigger(ctx, trig))

	require.NoError(t, sc.Boot(ctx))
	require.Equal(t, 1, q.Depth())
}

func TestBootArmsCronTrigger(t *testing.T) {
	sc, s, _ := newTestSetup(t)
	ctx := context.Background()

	script := &model.Script{Name: "Cron Script", Slug: "cron-script", Content: "x", Enabled: true}
	require.NoError(t, s.CreateScript(ctx, script))

	trig := &model.Trigger{
		ScriptID: script.ID,
		Kind:     model.TriggerCron,
		Config:   model.TriggerConfig{Expression: "*/5 * * * *", Timezone: "UTC"},
		Enabled:  true,
	}
	require.NoError(t, s.CreateTrigger(ctx, trig))

	require.NoError(t, sc.Boot(ctx))

	got, err := s.GetTrigger(ctx, trig.ID)
	require.NoError(t, err)
	require.NotNil(t, got.NextFireAt)

	sc.Shutdown()
}
