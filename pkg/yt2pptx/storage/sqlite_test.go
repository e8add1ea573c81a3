package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *DBClient {
	t.Helper()
	c, err := NewDBClientWithPath(filepath.Join(t.TempDir(), "manifest.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRegisterVideoUpsert(t *testing.T) {
	c := newTestClient(t)

	require.NoError(t, c.RegisterVideo("dQw4w9WgXcQ", "First Title", "/out/dQw4w9WgXcQ.mp4"))
	require.NoError(t, c.RegisterVideo("dQw4w9WgXcQ", "Second Title", "/elsewhere/dQw4w9WgXcQ.mp4"))

	v, err := c.GetVideo("dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Equal(t, "Second Title", v.Title)
	require.Equal(t, "/elsewhere/dQw4w9WgXcQ.mp4", v.SourcePath)
}

func TestRunLifecycle(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.RegisterVideo("abc123def45", "A Talk", "/out/abc123def45.mp4"))

	runID, err := c.BeginRun("abc123def45", 2)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	// Incomplete runs are not processed state.
	found, err := c.FindCompletedRun("abc123def45", 2)
	require.NoError(t, err)
	require.Nil(t, found)

	require.NoError(t, c.CompleteRun(runID, 4, true, 37, 113, "/out/A Talk.pptx"))

	found, err = c.FindCompletedRun("abc123def45", 2)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, 4, found.Threshold)
	require.True(t, found.ThresholdDerived)
	require.Equal(t, 37, found.KeptCount)
	require.Equal(t, 113, found.DroppedCount)
	require.NotNil(t, found.CompletedAt)

	// A different interval is a different processed state.
	other, err := c.FindCompletedRun("abc123def45", 5)
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestAbortRunRemovesRow(t *testing.T) {
	c := newTestClient(t)

	runID, err := c.BeginRun("abc123def45", 3)
	require.NoError(t, err)
	require.NoError(t, c.AbortRun(runID))

	runs, err := c.ListRuns()
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestListAndDeleteRuns(t *testing.T) {
	c := newTestClient(t)

	first, err := c.BeginRun("abc123def45", 2)
	require.NoError(t, err)
	second, err := c.BeginRun("abc123def45", 3)
	require.NoError(t, err)

	runs, err := c.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	require.NoError(t, c.DeleteRun(first))
	require.Error(t, c.DeleteRun(first), "double delete must fail")

	runs, err = c.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, second, runs[0].ID)
}

func TestCompleteUnknownRun(t *testing.T) {
	c := newTestClient(t)
	require.Error(t, c.CompleteRun("no-such-run", 5, false, 0, 0, ""))
}
