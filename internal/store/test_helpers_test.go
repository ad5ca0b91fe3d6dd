package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/qtopt/internal/ir"
	"github.com/roach88/qtopt/internal/querytree"
	"github.com/roach88/qtopt/internal/testutil"
)

// createTestStore creates a new file-backed store with deterministic IDs
// and clock.
func createTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	clock := testutil.NewStepClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), time.Minute)
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(NewFixedGenerator(ids...)), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// dupTree builds SELECT a FROM t ORDER BY a, b, a LIMIT 1 BY a, a.
func dupTree() *querytree.QueryNode {
	return &querytree.QueryNode{
		Projection: querytree.NewList(querytree.NewColumn("a")),
		JoinTree:   querytree.NewTable("t"),
		OrderBy: querytree.NewList(
			querytree.NewSort(querytree.NewColumn("a")),
			querytree.NewSort(querytree.NewColumn("b")),
			querytree.NewSort(querytree.NewColumn("a")),
		),
		LimitBy:      querytree.NewList(querytree.NewColumn("a"), querytree.NewColumn("a")),
		LimitByLimit: querytree.NewConstant(ir.IRInt(1)),
	}
}

// dedupedTree is dupTree after duplicate elimination.
func dedupedTree() *querytree.QueryNode {
	q := dupTree()
	q.SetOrderByNodes(q.OrderByNodes()[:2])
	q.SetLimitByNodes(q.LimitByNodes()[:1])
	return q
}
