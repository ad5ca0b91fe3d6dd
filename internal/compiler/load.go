package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/qtopt/internal/querytree"
)

// TreesField is the field of a CUE package that holds named trees.
const TreesField = "trees"

// NamedTree is a tree loaded from a multi-tree source.
type NamedTree struct {
	Name string
	Tree querytree.Node
}

// IsTreeFile reports whether path has an extension LoadFile understands.
func IsTreeFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".cue":
		return true
	}
	return false
}

// LoadFile reads a single tree document, choosing the decoder by file
// extension (.yaml, .yml, .json or .cue).
func LoadFile(path string) (querytree.Node, error) {
	if !IsTreeFile(path) {
		return nil, fmt.Errorf("unsupported tree file extension %q (want .yaml, .yml, .json or .cue)", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tree file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return CompileJSON(data)
	case ".cue":
		ctx := cuecontext.New()
		return CompileCUE(ctx.CompileBytes(data, cue.Filename(path)))
	default:
		return CompileYAML(data, path)
	}
}

// LoadCUEPackage loads the CUE package in dir and compiles every field of
// its top-level "trees" struct, in declaration order:
//
//	package bench
//
//	trees: dup_keys: query: order_by: [{expr: column: "a"}, {expr: column: "a"}]
func LoadCUEPackage(dir string) ([]NamedTree, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat package directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	treesVal := value.LookupPath(cue.ParsePath(TreesField))
	if !treesVal.Exists() {
		return nil, &CompileError{Field: TreesField, Message: "package has no trees field", Pos: value.Pos()}
	}
	iter, err := treesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var trees []NamedTree
	for iter.Next() {
		name := iter.Selector().Unquoted()
		tree, err := CompileCUE(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", TreesField, name, err)
		}
		trees = append(trees, NamedTree{Name: name, Tree: tree})
	}
	return trees, nil
}

// FindTreeFiles walks dir and returns every tree document path, sorted.
func FindTreeFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsTreeFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
