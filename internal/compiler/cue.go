package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qtopt/internal/querytree"
)

// CompileCUE turns a CUE value holding a tree document into a query tree.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value must be concrete. Definitions and hidden fields are ignored,
// so documents may carry their own schema:
//
//	#Key: {expr: _, direction?: "asc" | "desc"}
//	query: order_by: [...#Key] & [{expr: column: "a"}]
func CompileCUE(v cue.Value) (querytree.Node, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	doc, err := cueToAny(v, "$")
	if err != nil {
		return nil, err
	}
	return compileDocument(doc, cueLocator(v))
}

// cueToAny converts a concrete CUE value into plain maps, slices and
// scalars. Floats are rejected: literals are integers, strings, booleans or
// null.
func cueToAny(v cue.Value, path string) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return b, nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: path, Message: fmt.Sprintf("integer out of range: %v", err), Pos: v.Pos()}
		}
		return n, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return s, nil
	case cue.FloatKind:
		return nil, &CompileError{Field: path, Message: "floats are forbidden in literals", Pos: v.Pos()}
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var items []any
		for i := 0; iter.Next(); i++ {
			item, err := cueToAny(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if items == nil {
			items = []any{}
		}
		return items, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		fields := map[string]any{}
		for iter.Next() {
			label := iter.Selector().Unquoted()
			field, err := cueToAny(iter.Value(), joinPath(path, label))
			if err != nil {
				return nil, err
			}
			fields[label] = field
		}
		return fields, nil
	default:
		return nil, &CompileError{
			Field:   path,
			Message: fmt.Sprintf("unsupported value of kind %s", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func cueLocator(root cue.Value) locator {
	return func(path string) token.Pos {
		if path == "$" {
			return root.Pos()
		}
		v := root.LookupPath(cue.ParsePath(path))
		if !v.Exists() {
			return root.Pos()
		}
		return v.Pos()
	}
}
