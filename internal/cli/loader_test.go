package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTrees_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "q.yaml", dupTreeYAML)

	result, errs := LoadTrees(path, false, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Trees, 1)
	assert.Equal(t, "q.yaml", result.Trees[0].Name)
	assert.Equal(t, 1, result.FileCount)
}

func TestLoadTrees_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"query": {"from": {"table": "t"}}}`)
	writeFile(t, dir, "a.yaml", dupTreeYAML)
	writeFile(t, dir, "nested/c.cue", `query: from: table: "u"`)
	writeFile(t, dir, "README.md", "ignored")

	result, errs := LoadTrees(dir, false, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Trees, 3)
	assert.Equal(t, "a.yaml", result.Trees[0].Name)
	assert.Equal(t, "b.json", result.Trees[1].Name)
	assert.Equal(t, filepath.Join("nested", "c.cue"), result.Trees[2].Name)
}

func TestLoadTrees_CollectAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "query: {bogus: 1}\n")
	writeFile(t, dir, "b.yaml", dupTreeYAML)
	writeFile(t, dir, "c.json", "{")

	failFast, errs := LoadTrees(dir, false, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Empty(t, failFast.Trees)

	result, errs := LoadTrees(dir, false, LoadModeCollectAll)
	require.Len(t, errs, 2)
	require.Len(t, result.Trees, 1)
	assert.Equal(t, "b.yaml", result.Trees[0].Name)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeInvalidDocument, loadErr.Code)
	assert.Equal(t, "a.yaml", loadErr.Tree)
	assert.Equal(t, 1, loadErr.Pos.Line())

	require.ErrorAs(t, errs[1], &loadErr)
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)
}

func TestLoadTrees_Package(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "trees.cue", `
package q

trees: {
	first: query: from: table: "t"
	second: query: from: table: "u"
}
`)

	result, errs := LoadTrees(dir, true, LoadModeFailFast)
	require.Empty(t, errs)
	require.Len(t, result.Trees, 2)
	assert.Equal(t, "first", result.Trees[0].Name)
	assert.Equal(t, "second", result.Trees[1].Name)
}

func TestLoadTrees_Errors(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "q.yaml", dupTreeYAML)
	empty := filepath.Join(dir, "empty")
	writeFile(t, empty, "notes.txt", "nothing")

	tests := []struct {
		name      string
		path      string
		asPackage bool
		code      string
	}{
		{"missing path", filepath.Join(dir, "missing"), false, ErrCodeNotFound},
		{"no tree files", empty, false, ErrCodeNoFiles},
		{"package on file", file, true, ErrCodeNotFound},
		{"unsupported extension", filepath.Join(empty, "notes.txt"), false, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, errs := LoadTrees(tt.path, tt.asPackage, LoadModeFailFast)
			assert.Nil(t, result)
			require.Len(t, errs, 1)
			code, _ := firstLoadError(errs)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeBuildFailed, MapFieldToErrorCode("cue"))
	assert.Equal(t, ErrCodeLoadFailed, MapFieldToErrorCode("yaml"))
	assert.Equal(t, ErrCodeLoadFailed, MapFieldToErrorCode("json"))
	assert.Equal(t, ErrCodeBuildFailed, MapFieldToErrorCode("trees"))
	assert.Equal(t, ErrCodeInvalidDocument, MapFieldToErrorCode("query.order_by[0].direction"))
	assert.Equal(t, ErrCodeGeneric, MapFieldToErrorCode(""))
}
