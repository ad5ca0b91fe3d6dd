package passes

import "github.com/roach88/qtopt/internal/querytree"

// dedupScope is the set of expressions already seen in one clause.
//
// Expressions are bucketed by structural hash; a bucket is scanned with
// querytree.IsEqual, so hash collisions never merge distinct expressions.
// The scope holds references into the tree and never copies or mutates
// them. A scope serves exactly one clause of one query node.
type dedupScope struct {
	hash    func(querytree.Node) uint64
	buckets map[uint64][]querytree.Node
}

func newDedupScope() *dedupScope {
	return &dedupScope{
		hash:    querytree.TreeHash,
		buckets: make(map[uint64][]querytree.Node),
	}
}

// insert adds expr and reports whether no structurally equal expression
// was present.
func (s *dedupScope) insert(expr querytree.Node) bool {
	h := s.hash(expr)
	for _, seen := range s.buckets[h] {
		if querytree.IsEqual(seen, expr) {
			return false
		}
	}
	s.buckets[h] = append(s.buckets[h], expr)
	return true
}
