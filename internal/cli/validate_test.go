package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", dupTreeYAML)
	writeFile(t, dir, "b.json", `{"query": {"from": {"table": "t"}}}`)

	out, _, err := execute(t, "validate", dir)
	require.NoError(t, err)
	assert.Equal(t, "✓ All 2 tree(s) valid\n", out)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", dupTreeYAML)
	writeFile(t, dir, "b.yaml", `
query:
  order_by:
    - {column: a}
  limit_by:
    - {sort: {expr: {column: b}}}
`)
	writeFile(t, dir, "c.yaml", "query: {bogus: 1}\n")

	out, _, err := execute(t, "validate", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Trees)
	require.Len(t, resp.Data.Errors, 3)

	assert.Equal(t, "c.yaml", resp.Data.Errors[0].Tree)
	assert.Equal(t, ErrCodeInvalidDocument, resp.Data.Errors[0].Code)
	assert.Equal(t, 1, resp.Data.Errors[0].Line)

	assert.Equal(t, ValidationError{
		Tree:    "b.yaml",
		Path:    "query.order_by[0]",
		Code:    ErrCodeInvalidTree,
		Message: "order by element must be a sort node, got column",
	}, resp.Data.Errors[1])
	assert.Equal(t, "query.limit_by[0]", resp.Data.Errors[2].Path)
}

func TestValidate_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "b.yaml", "query:\n  order_by: [{column: a}]\n")

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "b.yaml query.order_by[0]")
	assert.Contains(t, out, "E102: order by element must be a sort node, got column")
}

func TestValidate_MissingPath(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}
