package querytree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/qtopt/internal/ir"
)

// Document keys. A node document is a map with exactly one variant key:
//
//	{query: {...}}                     QueryNode
//	{union: {mode, queries}}           UnionNode
//	{list: [...]}                      ListNode
//	{sort: {expr, direction, ...}}     SortNode
//	{column: name, source: s}          ColumnNode
//	{constant: value}                  ConstantNode
//	{function: name, args: [...]}      FunctionNode
//	{table: name, alias: a}            TableNode
//	{join: {type, left, right, on}}    JoinNode
//
// Inside query.order_by, elements are written as bare sort specs
// ({expr: ..., direction: desc}) without the sort wrapper. Any other
// element shape there decodes as an expression, which Validate reports.
const (
	keyQuery    = "query"
	keyUnion    = "union"
	keyList     = "list"
	keySort     = "sort"
	keyColumn   = "column"
	keyConstant = "constant"
	keyFunction = "function"
	keyTable    = "table"
	keyJoin     = "join"
)

// DecodeError reports a malformed node document.
type DecodeError struct {
	// Path locates the offending element, e.g. "query.order_by[1].expr".
	Path string

	// Message describes the problem.
	Message string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

func decodeErrorf(path, format string, args ...any) *DecodeError {
	return &DecodeError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Encode converts a subtree to its document form: nested map[string]any,
// []any and plain scalars, suitable for ir.MarshalCanonical, YAML or JSON.
// Default-valued fields are omitted. Decode(Encode(n)) is structurally equal
// to n.
func Encode(n Node) map[string]any {
	if isNil(n) {
		return nil
	}

	switch node := n.(type) {
	case *QueryNode:
		return map[string]any{keyQuery: encodeQuery(node)}
	case *UnionNode:
		body := map[string]any{
			"mode":    string(node.Mode),
			"queries": encodeNodes(node.Queries.nodes()),
		}
		if node.Alias != "" {
			body["alias"] = node.Alias
		}
		return map[string]any{keyUnion: body}
	case *ListNode:
		return map[string]any{keyList: encodeNodes(node.Nodes)}
	case *SortNode:
		return map[string]any{keySort: encodeSort(node)}
	case *ColumnNode:
		doc := map[string]any{keyColumn: node.Name}
		if node.Source != "" {
			doc["source"] = node.Source
		}
		return doc
	case *ConstantNode:
		return map[string]any{keyConstant: ir.ToAny(node.Literal())}
	case *FunctionNode:
		doc := map[string]any{keyFunction: node.Name}
		if node.Arguments.Len() > 0 {
			doc["args"] = encodeNodes(node.Arguments.Nodes)
		}
		return doc
	case *TableNode:
		doc := map[string]any{keyTable: node.Name}
		if node.Alias != "" {
			doc["alias"] = node.Alias
		}
		return doc
	case *JoinNode:
		body := map[string]any{
			"type":  string(node.Type),
			"left":  Encode(node.Left),
			"right": Encode(node.Right),
		}
		if !isNil(node.On) {
			body["on"] = Encode(node.On)
		}
		return map[string]any{keyJoin: body}
	default:
		panic(fmt.Sprintf("querytree: unknown node type %T", n))
	}
}

func encodeQuery(q *QueryNode) map[string]any {
	body := map[string]any{}
	if q.IsSubquery {
		body["subquery"] = true
	}
	if q.IsDistinct {
		body["distinct"] = true
	}
	if q.Alias != "" {
		body["alias"] = q.Alias
	}
	setList := func(key string, l *ListNode) {
		if l.Len() > 0 {
			body[key] = encodeNodes(l.Nodes)
		}
	}
	setNode := func(key string, n Node) {
		if !isNil(n) {
			body[key] = Encode(n)
		}
	}

	setList("projection", q.Projection)
	setNode("from", q.JoinTree)
	setNode("where", q.Where)
	setList("group_by", q.GroupBy)
	setNode("having", q.Having)
	if q.HasOrderBy() {
		items := make([]any, len(q.OrderBy.Nodes))
		for i, elem := range q.OrderBy.Nodes {
			if sortNode, ok := elem.(*SortNode); ok && sortNode != nil {
				items[i] = encodeSort(sortNode)
			} else {
				items[i] = Encode(elem)
			}
		}
		body["order_by"] = items
	}
	setList("limit_by", q.LimitBy)
	setNode("limit_by_limit", q.LimitByLimit)
	setNode("limit_by_offset", q.LimitByOffset)
	setNode("limit", q.Limit)
	setNode("offset", q.Offset)
	return body
}

func encodeSort(s *SortNode) map[string]any {
	spec := map[string]any{"expr": Encode(s.Expression)}
	if s.Direction == Descending {
		spec["direction"] = "desc"
	}
	if s.Nulls != NullsDefault {
		spec["nulls"] = strings.ToLower(string(s.Nulls))
	}
	if s.Collation != "" {
		spec["collate"] = s.Collation
	}
	if s.WithFill {
		spec["with_fill"] = true
	}
	if !isNil(s.FillFrom) {
		spec["fill_from"] = Encode(s.FillFrom)
	}
	if !isNil(s.FillTo) {
		spec["fill_to"] = Encode(s.FillTo)
	}
	if !isNil(s.FillStep) {
		spec["fill_step"] = Encode(s.FillStep)
	}
	return spec
}

func encodeNodes(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		if enc := Encode(n); enc != nil {
			out[i] = enc
		}
	}
	return out
}

// Decode builds a tree from its document form. It accepts the output of
// Encode as well as documents decoded by encoding/json (UseNumber) and
// gopkg.in/yaml.v3. Unknown keys are rejected.
func Decode(doc any) (Node, error) {
	return decodeNode(doc, "$")
}

func decodeNode(doc any, path string) (Node, error) {
	m, err := asMap(doc, path)
	if err != nil {
		return nil, err
	}

	variant, err := variantKey(m, path)
	if err != nil {
		return nil, err
	}
	value := m[variant]

	switch variant {
	case keyQuery:
		if err := allowKeys(m, path, keyQuery); err != nil {
			return nil, err
		}
		return decodeQuery(value, joinPath(path, keyQuery))
	case keyUnion:
		if err := allowKeys(m, path, keyUnion); err != nil {
			return nil, err
		}
		return decodeUnion(value, joinPath(path, keyUnion))
	case keyList:
		if err := allowKeys(m, path, keyList); err != nil {
			return nil, err
		}
		return decodeList(value, joinPath(path, keyList))
	case keySort:
		if err := allowKeys(m, path, keySort); err != nil {
			return nil, err
		}
		return decodeSort(value, joinPath(path, keySort))
	case keyColumn:
		if err := allowKeys(m, path, keyColumn, "source"); err != nil {
			return nil, err
		}
		name, err := asString(value, joinPath(path, keyColumn))
		if err != nil {
			return nil, err
		}
		source, err := optionalString(m, "source", path)
		if err != nil {
			return nil, err
		}
		return &ColumnNode{Name: name, Source: source}, nil
	case keyConstant:
		if err := allowKeys(m, path, keyConstant); err != nil {
			return nil, err
		}
		lit, err := ir.FromAny(value)
		if err != nil {
			return nil, decodeErrorf(joinPath(path, keyConstant), "%v", err)
		}
		return &ConstantNode{Value: lit}, nil
	case keyFunction:
		if err := allowKeys(m, path, keyFunction, "args"); err != nil {
			return nil, err
		}
		name, err := asString(value, joinPath(path, keyFunction))
		if err != nil {
			return nil, err
		}
		args := &ListNode{}
		if raw, ok := m["args"]; ok {
			if args, err = decodeList(raw, joinPath(path, "args")); err != nil {
				return nil, err
			}
		}
		return &FunctionNode{Name: name, Arguments: args}, nil
	case keyTable:
		if err := allowKeys(m, path, keyTable, "alias"); err != nil {
			return nil, err
		}
		name, err := asString(value, joinPath(path, keyTable))
		if err != nil {
			return nil, err
		}
		alias, err := optionalString(m, "alias", path)
		if err != nil {
			return nil, err
		}
		return &TableNode{Name: name, Alias: alias}, nil
	case keyJoin:
		if err := allowKeys(m, path, keyJoin); err != nil {
			return nil, err
		}
		return decodeJoin(value, joinPath(path, keyJoin))
	}
	return nil, decodeErrorf(path, "unknown node variant %q", variant)
}

func decodeQuery(doc any, path string) (*QueryNode, error) {
	m, err := asMap(doc, path)
	if err != nil {
		return nil, err
	}
	if err := allowKeys(m, path,
		"subquery", "distinct", "alias", "projection", "from", "where", "group_by", "having",
		"order_by", "limit_by", "limit_by_limit", "limit_by_offset", "limit", "offset"); err != nil {
		return nil, err
	}

	q := &QueryNode{}
	if q.IsSubquery, err = optionalBool(m, "subquery", path); err != nil {
		return nil, err
	}
	if q.IsDistinct, err = optionalBool(m, "distinct", path); err != nil {
		return nil, err
	}
	if q.Alias, err = optionalString(m, "alias", path); err != nil {
		return nil, err
	}

	lists := []struct {
		key    string
		target **ListNode
	}{
		{"projection", &q.Projection},
		{"group_by", &q.GroupBy},
		{"limit_by", &q.LimitBy},
	}
	for _, l := range lists {
		if raw, ok := m[l.key]; ok {
			if *l.target, err = decodeList(raw, joinPath(path, l.key)); err != nil {
				return nil, err
			}
		}
	}

	nodes := []struct {
		key    string
		target *Node
	}{
		{"from", &q.JoinTree},
		{"where", &q.Where},
		{"having", &q.Having},
		{"limit_by_limit", &q.LimitByLimit},
		{"limit_by_offset", &q.LimitByOffset},
		{"limit", &q.Limit},
		{"offset", &q.Offset},
	}
	for _, n := range nodes {
		if raw, ok := m[n.key]; ok {
			if *n.target, err = decodeNode(raw, joinPath(path, n.key)); err != nil {
				return nil, err
			}
		}
	}

	if raw, ok := m["order_by"]; ok {
		orderPath := joinPath(path, "order_by")
		items, err := asSlice(raw, orderPath)
		if err != nil {
			return nil, err
		}
		q.OrderBy = &ListNode{Nodes: make([]Node, len(items))}
		for i, item := range items {
			elemPath := fmt.Sprintf("%s[%d]", orderPath, i)
			if spec, ok := item.(map[string]any); ok {
				if _, isSpec := spec["expr"]; isSpec {
					if q.OrderBy.Nodes[i], err = decodeSort(spec, elemPath); err != nil {
						return nil, err
					}
					continue
				}
			}
			if q.OrderBy.Nodes[i], err = decodeNode(item, elemPath); err != nil {
				return nil, err
			}
		}
	}

	return q, nil
}

func decodeSort(doc any, path string) (*SortNode, error) {
	m, err := asMap(doc, path)
	if err != nil {
		return nil, err
	}
	if err := allowKeys(m, path, "expr", "direction", "nulls", "collate", "with_fill", "fill_from", "fill_to", "fill_step"); err != nil {
		return nil, err
	}

	rawExpr, ok := m["expr"]
	if !ok {
		return nil, decodeErrorf(path, "expr is required")
	}
	s := &SortNode{Direction: Ascending}
	if s.Expression, err = decodeNode(rawExpr, joinPath(path, "expr")); err != nil {
		return nil, err
	}

	direction, err := optionalString(m, "direction", path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(direction) {
	case "", "asc":
		s.Direction = Ascending
	case "desc":
		s.Direction = Descending
	default:
		return nil, decodeErrorf(joinPath(path, "direction"), "invalid direction %q: must be asc or desc", direction)
	}

	nulls, err := optionalString(m, "nulls", path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(nulls) {
	case "":
		s.Nulls = NullsDefault
	case "first":
		s.Nulls = NullsFirst
	case "last":
		s.Nulls = NullsLast
	default:
		return nil, decodeErrorf(joinPath(path, "nulls"), "invalid nulls order %q: must be first or last", nulls)
	}

	if s.Collation, err = optionalString(m, "collate", path); err != nil {
		return nil, err
	}
	if s.WithFill, err = optionalBool(m, "with_fill", path); err != nil {
		return nil, err
	}

	fills := []struct {
		key    string
		target *Node
	}{
		{"fill_from", &s.FillFrom},
		{"fill_to", &s.FillTo},
		{"fill_step", &s.FillStep},
	}
	for _, f := range fills {
		if raw, ok := m[f.key]; ok {
			if *f.target, err = decodeNode(raw, joinPath(path, f.key)); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func decodeUnion(doc any, path string) (*UnionNode, error) {
	m, err := asMap(doc, path)
	if err != nil {
		return nil, err
	}
	if err := allowKeys(m, path, "mode", "queries", "alias"); err != nil {
		return nil, err
	}

	mode, err := optionalString(m, "mode", path)
	if err != nil {
		return nil, err
	}
	u := &UnionNode{Mode: UnionAll}
	if mode != "" {
		u.Mode = UnionMode(strings.ToUpper(strings.ReplaceAll(mode, "_", " ")))
		if !validUnionModes[u.Mode] {
			return nil, decodeErrorf(joinPath(path, "mode"), "invalid union mode %q", mode)
		}
	}
	if u.Alias, err = optionalString(m, "alias", path); err != nil {
		return nil, err
	}
	raw, ok := m["queries"]
	if !ok {
		return nil, decodeErrorf(path, "queries is required")
	}
	if u.Queries, err = decodeList(raw, joinPath(path, "queries")); err != nil {
		return nil, err
	}
	return u, nil
}

var validUnionModes = map[UnionMode]bool{
	UnionAll:          true,
	UnionDistinct:     true,
	IntersectAll:      true,
	IntersectDistinct: true,
	ExceptAll:         true,
	ExceptDistinct:    true,
}

func decodeJoin(doc any, path string) (*JoinNode, error) {
	m, err := asMap(doc, path)
	if err != nil {
		return nil, err
	}
	if err := allowKeys(m, path, "type", "left", "right", "on"); err != nil {
		return nil, err
	}

	joinType, err := optionalString(m, "type", path)
	if err != nil {
		return nil, err
	}
	j := &JoinNode{Type: JoinInner}
	if joinType != "" {
		j.Type = JoinType(strings.ToUpper(joinType))
		switch j.Type {
		case JoinInner, JoinLeft, JoinRight, JoinFull, JoinCross:
		default:
			return nil, decodeErrorf(joinPath(path, "type"), "invalid join type %q", joinType)
		}
	}

	for _, side := range []struct {
		key    string
		target *Node
	}{{"left", &j.Left}, {"right", &j.Right}} {
		raw, ok := m[side.key]
		if !ok {
			return nil, decodeErrorf(path, "%s is required", side.key)
		}
		if *side.target, err = decodeNode(raw, joinPath(path, side.key)); err != nil {
			return nil, err
		}
	}
	if raw, ok := m["on"]; ok {
		if j.On, err = decodeNode(raw, joinPath(path, "on")); err != nil {
			return nil, err
		}
	}
	return j, nil
}

func decodeList(doc any, path string) (*ListNode, error) {
	items, err := asSlice(doc, path)
	if err != nil {
		return nil, err
	}
	l := &ListNode{Nodes: make([]Node, len(items))}
	for i, item := range items {
		if l.Nodes[i], err = decodeNode(item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// variantKey finds the single variant key of a node document.
func variantKey(m map[string]any, path string) (string, error) {
	var found []string
	for _, k := range []string{keyQuery, keyUnion, keyList, keySort, keyColumn, keyConstant, keyFunction, keyTable, keyJoin} {
		if _, ok := m[k]; ok {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 0:
		return "", decodeErrorf(path, "node has no variant key (keys: %s)", strings.Join(sortedKeys(m), ", "))
	case 1:
		return found[0], nil
	default:
		return "", decodeErrorf(path, "node has multiple variant keys: %s", strings.Join(found, ", "))
	}
}

func allowKeys(m map[string]any, path string, allowed ...string) error {
	for _, k := range sortedKeys(m) {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			return decodeErrorf(path, "unknown field %q", k)
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asMap(doc any, path string) (map[string]any, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, decodeErrorf(path, "expected a mapping, got %T", doc)
	}
	return m, nil
}

func asSlice(doc any, path string) ([]any, error) {
	s, ok := doc.([]any)
	if !ok {
		return nil, decodeErrorf(path, "expected a list, got %T", doc)
	}
	return s, nil
}

func asString(doc any, path string) (string, error) {
	s, ok := doc.(string)
	if !ok {
		return "", decodeErrorf(path, "expected a string, got %T", doc)
	}
	return s, nil
}

func optionalString(m map[string]any, key, path string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", nil
	}
	return asString(raw, joinPath(path, key))
}

func optionalBool(m map[string]any, key, path string) (bool, error) {
	raw, ok := m[key]
	if !ok {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, decodeErrorf(joinPath(path, key), "expected a boolean, got %T", raw)
	}
	return b, nil
}

func joinPath(path, key string) string {
	if path == "$" {
		return key
	}
	return path + "." + key
}
