package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/matt-ortiz/PyScheduler/internal/model"
)

// newTestStore opens a hermetic SQLite file under the test's temp dir,
// standing in for the teacher's live-MySQL test fixture.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return s
}

func TestScriptCreateAndFetch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sc := &model.Script{Name: "Nightly Backup", Slug: "nightly-backup", Content: "print('hi')"}
	require.NoError(t, s.CreateScript(ctx, sc))
	require.NotZero(t, sc.ID)

	got, err := s.GetScriptBySlug(ctx, "nightly-backup")
	require.NoError(t, err)
	require.Equal(t, "Nightly Backup", got.Name)
}

func TestScriptDuplicateSlugInSameFolderConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateScript(ctx, &model.Script{Name: "A", Slug: "dup", Content: "x"}))
	err := s.CreateScript(ctx, &model.Script{Name: "B", Slug: "dup", Content: "y"})
	require.Error(t, err)
}

func TestDeleteFolderCascadesScriptsAndTriggers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	f := &model.Folder{Name: "etl"}
	require.NoError(t, s.CreateFolder(ctx, f))

	sc := &model.Script{Name: "Loader", Slug: "loader", FolderID: &f.ID, Content: "x"}
	require.NoError(t, s.CreateScript(ctx, sc))

	tr := &model.Trigger{ScriptID: sc.ID, Kind: model.TriggerManual}
	require.NoError(t, s.CreateTrigger(ctx, tr))

	require.NoError(t, s.DeleteFolder(ctx, f.ID))

	_, err := s.GetScript(ctx, sc.ID)
	require.Error(t, err)
	_, err = s.GetTrigger(ctx, tr.ID)
	require.Error(t, err)
}

func TestRecordRunOutcomeBumpsCountersAtomically(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sc := &model.Script{Name: "Counter", Slug: "counter", Content: "x"}
	require.NoError(t, s.CreateScript(ctx, sc))

	now := time.Now()
	require.NoError(t, s.Transaction(ctx, func(tx *gorm.DB) error {
		return s.RecordRunOutcome(tx, sc.ID, true, now)
	}))

	got, err := s.GetScript(ctx, sc.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, got.RunTotal)
	require.EqualValues(t, 1, got.RunSuccess)
	require.NotNil(t, got.LastRunAt)
}

func TestHasRunningExecutionReflectsInFlightRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sc := &model.Script{Name: "Busy", Slug: "busy", Content: "x"}
	require.NoError(t, s.CreateScript(ctx, sc))

	running, err := s.HasRunningExecution(ctx, sc.ID)
	require.NoError(t, err)
	require.False(t, running)

	exec := &model.ExecutionRecord{ScriptID: sc.ID, StartedAt: time.Now(), Status: model.StatusRunning, TriggeredBy: model.TriggeredByManual}
	require.NoError(t, s.CreateRunningExecution(ctx, exec))

	running, err = s.HasRunningExecution(ctx, sc.ID)
	require.NoError(t, err)
	require.True(t, running)
}

func TestPruneExcessPerScriptKeepsNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sc := &model.Script{Name: "Chatty", Slug: "chatty", Content: "x"}
	require.NoError(t, s.CreateScript(ctx, sc))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		e := &model.ExecutionRecord{
			ScriptID:    sc.ID,
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
			Status:      model.StatusSuccess,
			TriggeredBy: model.TriggeredByManual,
		}
		require.NoError(t, s.CreateRunningExecution(ctx, e))
	}

	deleted, err := s.PruneExcessPerScript(ctx, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, deleted)

	_, total, err := s.ListExecutions(ctx, ExecutionFilter{ScriptID: &sc.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
}
