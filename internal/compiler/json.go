package compiler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/roach88/qtopt/internal/querytree"
)

// CompileJSON parses a JSON tree document. Numbers are decoded exactly;
// non-integral numbers are rejected.
func CompileJSON(data []byte) (querytree.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &CompileError{Field: "json", Message: err.Error()}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &CompileError{Field: "json", Message: fmt.Sprintf("trailing data after document (offset %d)", dec.InputOffset())}
	}
	return compileDocument(doc, noPositions)
}
