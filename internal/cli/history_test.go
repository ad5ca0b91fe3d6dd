package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtopt/internal/store"
)

// seedRuns optimizes two files into a fresh database and returns its path.
func seedRuns(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	db := filepath.Join(dir, "runs.db")
	writeFile(t, dir, "trees/a.yaml", dupTreeYAML)
	writeFile(t, dir, "trees/b.json", `{"query": {"from": {"table": "t"}}}`)

	_, _, err := execute(t, "optimize", filepath.Join(dir, "trees"), "--db", db)
	require.NoError(t, err)
	return db
}

func TestHistory_JSON(t *testing.T) {
	db := seedRuns(t)

	out, _, err := execute(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, "b.json", resp.Data.Runs[0].Source, "newest first")
	assert.Equal(t, int64(2), resp.Data.Runs[0].Seq)
	assert.Equal(t, "a.yaml", resp.Data.Runs[1].Source)
	assert.Equal(t, 1, resp.Data.Runs[1].RemovedOrderBy)
}

func TestHistory_Filters(t *testing.T) {
	db := seedRuns(t)

	out, _, err := execute(t, "history", "--db", db, "--source", "a.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "a.yaml")
	assert.NotContains(t, out, "b.json")

	out, _, err = execute(t, "history", "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "#2 ")
	assert.NotContains(t, out, "#1 ")
}

func TestHistory_Empty(t *testing.T) {
	out, _, err := execute(t, "history", "--db", filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}

func TestHistory_MissingDatabaseFlag(t *testing.T) {
	_, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestShow(t *testing.T) {
	db := seedRuns(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	runs, err := st.ReadRuns(context.Background(), store.RunFilter{Source: "a.yaml"})
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, runs, 1)

	out, _, err := execute(t, "show", runs[0].ID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "run "+runs[0].ID+" (#1) a.yaml")
	assert.Contains(t, out, "input:  SELECT a FROM t ORDER BY a, b, a, a WITH FILL LIMIT 1 BY a, a")
	assert.Contains(t, out, "output: SELECT a FROM t ORDER BY a, b, a WITH FILL LIMIT 1 BY a")

	out, _, err = execute(t, "show", "nope", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]: run not found: nope")
}
