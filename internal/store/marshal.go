package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/qtopt/internal/ir"
	"github.com/roach88/qtopt/internal/querytree"
)

// marshalTree converts a tree to canonical JSON TEXT and its content
// address. Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalTree(tree querytree.Node) (id, body string, err error) {
	doc := querytree.Encode(tree)
	if doc == nil {
		return "", "", fmt.Errorf("marshal tree: nil tree")
	}
	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return "", "", fmt.Errorf("marshal tree: %w", err)
	}
	id, err = ir.TreeID(doc)
	if err != nil {
		return "", "", fmt.Errorf("marshal tree: %w", err)
	}
	return id, string(data), nil
}

// unmarshalTree parses canonical JSON TEXT back into a tree.
// Numbers are decoded via json.Number to avoid float64 precision loss for
// values > 2^53.
func unmarshalTree(body string) (querytree.Node, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	tree, err := querytree.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	return tree, nil
}

// marshalPasses converts pass names to a canonical JSON array.
func marshalPasses(names []string) (string, error) {
	items := make([]any, len(names))
	for i, name := range names {
		items[i] = name
	}
	data, err := ir.MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("marshal passes: %w", err)
	}
	return string(data), nil
}

// unmarshalPasses parses a JSON array of pass names.
func unmarshalPasses(data string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal passes: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
