package passes

import "github.com/roach88/qtopt/internal/querytree"

// OrderByLimitByDuplicateElimination removes repeated expressions from the
// ORDER BY and LIMIT BY clauses of every query node.
//
//	SELECT a FROM t ORDER BY a, b, a        ->  ORDER BY a, b
//	SELECT a FROM t LIMIT 1 BY a, b, a      ->  LIMIT 1 BY a, b
//	SELECT a FROM t ORDER BY a, a WITH FILL ->  unchanged
//
// The first occurrence of an expression wins and survivors keep their
// relative order. Expressions match by structure (querytree.IsEqual), not by
// identity or text. WITH FILL keys are always kept and never suppress a
// later key, in either direction: a fill key requests row synthesis, so it
// is not interchangeable with a plain key on the same expression.
//
// Each clause of each query node gets its own scope; nothing is shared with
// the other clause, with sibling queries or with subqueries.
type OrderByLimitByDuplicateElimination struct{}

// NewOrderByLimitByDuplicateElimination returns the pass.
func NewOrderByLimitByDuplicateElimination() *OrderByLimitByDuplicateElimination {
	return &OrderByLimitByDuplicateElimination{}
}

func (*OrderByLimitByDuplicateElimination) Name() string {
	return "OrderByLimitByDuplicateElimination"
}

func (*OrderByLimitByDuplicateElimination) Description() string {
	return "Remove duplicate expressions from ORDER BY and LIMIT BY"
}

// Run rewrites every query node of tree. env is optional; when it carries
// Stats, removal counts are added to it.
func (p *OrderByLimitByDuplicateElimination) Run(tree querytree.Node, env *Environment) {
	stats := env.stats()
	logger := env.logger()

	querytree.Walk(tree, querytree.VisitorFunc(func(n querytree.Node) {
		query, ok := n.(*querytree.QueryNode)
		if !ok {
			return
		}
		stats.QueriesVisited++

		removedOrderBy := p.eliminateOrderBy(query)
		removedLimitBy := p.eliminateLimitBy(query)
		stats.RemovedOrderBy += removedOrderBy
		stats.RemovedLimitBy += removedLimitBy

		if removedOrderBy > 0 || removedLimitBy > 0 {
			logger.Debug("duplicate sort keys removed",
				"pass", p.Name(),
				"order_by_removed", removedOrderBy,
				"limit_by_removed", removedLimitBy,
			)
		}
	}))
}

// eliminateOrderBy filters the ORDER BY list and returns how many elements
// it dropped.
func (p *OrderByLimitByDuplicateElimination) eliminateOrderBy(query *querytree.QueryNode) int {
	if !query.HasOrderBy() {
		return 0
	}

	nodes := query.OrderByNodes()
	scope := newDedupScope()
	result := make([]querytree.Node, 0, len(nodes))

	for i, elem := range nodes {
		sort, ok := elem.(*querytree.SortNode)
		if !ok {
			violatef(p.Name(), ClauseOrderBy, i, "expected sort node, got %s", describe(elem))
		}
		if sort == nil {
			violatef(p.Name(), ClauseOrderBy, i, "nil sort node")
		}
		if sort.Expr() == nil {
			violatef(p.Name(), ClauseOrderBy, i, "sort node has no expression")
		}

		// Fill keys stay and are not recorded.
		if sort.IsFill() {
			result = append(result, sort)
			continue
		}
		if scope.insert(sort.Expr()) {
			result = append(result, sort)
		}
	}

	query.SetOrderByNodes(result)
	return len(nodes) - len(result)
}

// eliminateLimitBy filters the LIMIT BY list with a fresh scope and returns
// how many expressions it dropped.
func (p *OrderByLimitByDuplicateElimination) eliminateLimitBy(query *querytree.QueryNode) int {
	if !query.HasLimitBy() {
		return 0
	}

	nodes := query.LimitByNodes()
	scope := newDedupScope()
	result := make([]querytree.Node, 0, len(nodes))

	for i, expr := range nodes {
		if expr == nil {
			violatef(p.Name(), ClauseLimitBy, i, "nil expression")
		}
		if scope.insert(expr) {
			result = append(result, expr)
		}
	}

	query.SetLimitByNodes(result)
	return len(nodes) - len(result)
}

func describe(n querytree.Node) string {
	if n == nil {
		return "nil"
	}
	return n.Kind().String()
}
