package compiler

import (
	"bytes"
	"fmt"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/qtopt/internal/querytree"
)

// CompileYAML parses a YAML tree document. filename is used in error
// positions only.
//
// Scalars follow YAML 1.2 core tags: !!int becomes an integer literal,
// !!float is rejected, !!null becomes NULL. Duplicate mapping keys are
// errors.
func CompileYAML(data []byte, filename string) (querytree.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	if root.Kind == 0 {
		return nil, &CompileError{Field: "yaml", Message: "empty document"}
	}
	if isYAMLDocumentStream(data) {
		return nil, &CompileError{Field: "yaml", Message: "expected a single document, found several"}
	}

	conv := &yamlConverter{
		file:      token.NewFile(filename, -1, len(data)),
		positions: map[string]token.Pos{},
	}
	conv.file.SetLinesForContent(data)

	doc, err := conv.convert(&root, "$")
	if err != nil {
		return nil, err
	}
	return compileDocument(doc, conv.locate)
}

// yamlConverter turns a yaml.Node tree into plain values while recording
// the source position of every document path.
type yamlConverter struct {
	file      *token.File
	positions map[string]token.Pos
}

func (c *yamlConverter) convert(n *yaml.Node, path string) (any, error) {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil, &CompileError{Field: "yaml", Message: "empty document"}
		}
		return c.convert(n.Content[0], path)
	}

	pos := c.pos(n)
	c.positions[path] = pos

	switch n.Kind {
	case yaml.AliasNode:
		return c.convert(n.Alias, path)
	case yaml.SequenceNode:
		items := make([]any, len(n.Content))
		for i, child := range n.Content {
			item, err := c.convert(child, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil
	case yaml.MappingNode:
		fields := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, &CompileError{Field: path, Message: "mapping keys must be strings", Pos: c.pos(keyNode)}
			}
			key := keyNode.Value
			if _, dup := fields[key]; dup {
				return nil, &CompileError{Field: path, Message: fmt.Sprintf("duplicate key %q", key), Pos: c.pos(keyNode)}
			}
			value, err := c.convert(valueNode, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			fields[key] = value
		}
		return fields, nil
	case yaml.ScalarNode:
		return c.scalar(n, path)
	default:
		return nil, &CompileError{Field: path, Message: fmt.Sprintf("unsupported YAML node kind %d", n.Kind), Pos: pos}
	}
}

func (c *yamlConverter) scalar(n *yaml.Node, path string) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, &CompileError{Field: path, Message: err.Error(), Pos: c.pos(n)}
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, &CompileError{Field: path, Message: err.Error(), Pos: c.pos(n)}
		}
		return i, nil
	case "!!float":
		return nil, &CompileError{Field: path, Message: "floats are forbidden in literals", Pos: c.pos(n)}
	case "!!str":
		return n.Value, nil
	default:
		return nil, &CompileError{Field: path, Message: fmt.Sprintf("unsupported YAML tag %s", n.ShortTag()), Pos: c.pos(n)}
	}
}

// pos converts a 1-based yaml line/column into a token position.
func (c *yamlConverter) pos(n *yaml.Node) token.Pos {
	lines := c.file.Lines()
	if n.Line < 1 || n.Line > len(lines) {
		return token.NoPos
	}
	offset := lines[n.Line-1] + n.Column - 1
	if offset < 0 || offset > c.file.Size() {
		return token.NoPos
	}
	return c.file.Pos(offset, token.NoRelPos)
}

func (c *yamlConverter) locate(path string) token.Pos {
	return c.positions[path]
}

// isYAMLDocumentStream reports whether data holds more than one YAML
// document.
func isYAMLDocumentStream(data []byte) bool {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var first, second yaml.Node
	if err := dec.Decode(&first); err != nil {
		return false
	}
	return dec.Decode(&second) == nil
}
