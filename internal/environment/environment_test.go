package environment

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathsForLayoutRoot(t *testing.T) {
	m := NewManager("/data")
	l := m.PathsFor("nightly-backup", "")
	require.Equal(t, filepath.Join("/data", "scripts", "nightly-backup"), l.ScriptDir)
	require.Equal(t, filepath.Join(l.ScriptDir, "nightly-backup.py"), l.SourceFile)
}

func TestPathsForLayoutNestedFolder(t *testing.T) {
	m := NewManager("/data")
	l := m.PathsFor("loader", "team/etl")
	require.Equal(t, filepath.Join("/data", "scripts", "team/etl", "loader"), l.ScriptDir)
}

func TestCleanupRefusesOutsideDataRoot(t *testing.T) {
	m := NewManager("/data/root")
	bad := Layout{ScriptDir: "/etc"}
	err := m.Cleanup(bad)
	require.Error(t, err)
}

func TestCleanupFolderRefusesOutsideDataRoot(t *testing.T) {
	m := NewManager("/data/root")
	err := m.CleanupFolder("../../etc")
	require.Error(t, err)
}

func TestCleanupFolderNoopOnEmptyPath(t *testing.T) {
	m := NewManager("/data/root")
	require.NoError(t, m.CleanupFolder(""))
}

func TestWriteStateThenReadStateRoundTripsHash(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	layout := m.PathsFor("nightly-backup", "")
	require.NoError(t, os.MkdirAll(layout.ScriptDir, 0o755))

	m.writeState(layout, "3.12", "deadbeef")
	require.Equal(t, "deadbeef", m.readState(layout))

	b, err := os.ReadFile(layout.StateFile)
	require.NoError(t, err)
	var rec stateRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	require.Equal(t, "3.12", rec.Version)
	require.Equal(t, "deadbeef", rec.RequirementsHash)
	require.False(t, rec.InstalledAt.IsZero())
}
