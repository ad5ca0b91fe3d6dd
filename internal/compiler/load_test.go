package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qtopt/internal/querytree"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_AllFormatsAgree(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "tree.yaml", "query:\n  order_by: [{expr: {column: a}}, {expr: {column: a}, with_fill: true}]\n"),
		writeFile(t, dir, "tree.yml", "query:\n  order_by: [{expr: {column: a}}, {expr: {column: a}, with_fill: true}]\n"),
		writeFile(t, dir, "tree.json", `{"query": {"order_by": [{"expr": {"column": "a"}}, {"expr": {"column": "a"}, "with_fill": true}]}}`),
		writeFile(t, dir, "tree.cue", `query: order_by: [{expr: column: "a"}, {expr: column: "a", with_fill: true}]`),
	}

	want := &querytree.QueryNode{OrderBy: querytree.NewList(
		querytree.NewSort(querytree.NewColumn("a")),
		querytree.NewFillSort(querytree.NewColumn("a")),
	)}

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			tree, err := LoadFile(path)
			require.NoError(t, err)
			assert.True(t, querytree.IsEqual(want, tree), "got %s", querytree.Format(tree))
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := writeFile(t, dir, "tree.txt", "column: a")
	_, err = LoadFile(txt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported tree file extension")
}

func TestLoadCUEPackage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.cue", `package bench

#Key: {expr: _, with_fill?: bool}
trees: [string]: query: order_by?: [...#Key]
`)
	writeFile(t, dir, "trees.cue", `package bench

trees: dup_keys: query: order_by: [{expr: column: "a"}, {expr: column: "a"}]
trees: with_fill: query: order_by: [{expr: column: "a", with_fill: true}, {expr: column: "a"}]
`)

	trees, err := LoadCUEPackage(dir)
	require.NoError(t, err)
	require.Len(t, trees, 2)

	assert.Equal(t, "dup_keys", trees[0].Name)
	assert.Equal(t, "with_fill", trees[1].Name)
	assert.Equal(t, []string{"a WITH FILL", "a"},
		querytree.FormatList(trees[1].Tree.(*querytree.QueryNode).OrderByNodes()))
}

func TestLoadCUEPackage_MissingTrees(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.cue", "package x\n\nother: 1\n")

	_, err := LoadCUEPackage(dir)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, TreesField, compileErr.Field)
}

func TestFindTreeFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.yaml", "column: b")
	writeFile(t, dir, "a.json", `{"column": "a"}`)
	writeFile(t, dir, "nested/c.cue", `column: "c"`)
	writeFile(t, dir, "notes.md", "ignored")

	files, err := FindTreeFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "nested", "c.cue"),
	}, files)
}
