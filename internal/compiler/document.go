package compiler

import (
	"errors"

	"cuelang.org/go/cue/token"

	"github.com/roach88/qtopt/internal/querytree"
)

// locator maps a document path ("$", "query.order_by[0]") to a source
// position. It returns token.NoPos when the path is unknown.
type locator func(path string) token.Pos

// compileDocument decodes a generic document into a tree, attaching source
// positions to decode errors.
func compileDocument(doc any, locate locator) (querytree.Node, error) {
	tree, err := querytree.Decode(doc)
	if err == nil {
		return tree, nil
	}

	var decErr *querytree.DecodeError
	if errors.As(err, &decErr) {
		return nil, &CompileError{
			Field:   decErr.Path,
			Message: decErr.Message,
			Pos:     locate(decErr.Path),
		}
	}
	return nil, err
}

func noPositions(string) token.Pos { return token.NoPos }

// joinPath extends a document path with a field name, using the same
// notation as querytree.DecodeError.
func joinPath(path, key string) string {
	if path == "$" {
		return key
	}
	return path + "." + key
}
