package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/qtopt/internal/ir"
	"github.com/roach88/qtopt/internal/querytree"
)

// Run is one recorded optimization run.
type Run struct {
	ID               string    `json:"id"`
	Seq              int64     `json:"seq"`
	Source           string    `json:"source"`
	InputTreeID      string    `json:"input_tree_id"`
	OutputTreeID     string    `json:"output_tree_id"`
	Passes           []string  `json:"passes"`
	QueriesVisited   int       `json:"queries_visited"`
	RemovedOrderBy   int       `json:"removed_order_by"`
	RemovedLimitBy   int       `json:"removed_limit_by"`
	OptimizerVersion string    `json:"optimizer_version"`
	CreatedAt        time.Time `json:"created_at"`
}

// RunInput describes a run to record.
type RunInput struct {
	// Source names where the input came from (file path or scenario name).
	Source string

	// Input and Output are the trees before and after optimization.
	Input  querytree.Node
	Output querytree.Node

	// Passes lists the passes that ran, in order.
	Passes []string

	QueriesVisited int
	RemovedOrderBy int
	RemovedLimitBy int
}

// WriteTree stores a tree snapshot and returns its content address.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - identical trees are
// stored once.
func (s *Store) WriteTree(ctx context.Context, tree querytree.Node) (string, error) {
	return writeTree(ctx, s.db, tree)
}

// execer is the subset of *sql.DB and *sql.Tx used by writes.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func writeTree(ctx context.Context, db execer, tree querytree.Node) (string, error) {
	id, body, err := marshalTree(tree)
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO trees (id, body, formatted)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, body, querytree.Format(tree))
	if err != nil {
		return "", fmt.Errorf("write tree: %w", err)
	}
	return id, nil
}

// RecordRun stores both trees and a run row in one transaction and returns
// the recorded run.
//
// The run's seq is one past the highest recorded seq; its ID comes from the
// store's IDGenerator.
func (s *Store) RecordRun(ctx context.Context, in RunInput) (*Run, error) {
	passesJSON, err := marshalPasses(in.Passes)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	inputID, err := writeTree(ctx, tx, in.Input)
	if err != nil {
		return nil, fmt.Errorf("record run: input: %w", err)
	}
	outputID, err := writeTree(ctx, tx, in.Output)
	if err != nil {
		return nil, fmt.Errorf("record run: output: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("record run: next seq: %w", err)
	}

	run := &Run{
		ID:               s.ids.Generate(),
		Seq:              seq,
		Source:           in.Source,
		InputTreeID:      inputID,
		OutputTreeID:     outputID,
		Passes:           append([]string{}, in.Passes...),
		QueriesVisited:   in.QueriesVisited,
		RemovedOrderBy:   in.RemovedOrderBy,
		RemovedLimitBy:   in.RemovedLimitBy,
		OptimizerVersion: ir.OptimizerVersion,
		CreatedAt:        s.now().UTC().Truncate(time.Second),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, source, input_tree_id, output_tree_id, passes,
		 queries_visited, removed_order_by, removed_limit_by, optimizer_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.Source,
		run.InputTreeID,
		run.OutputTreeID,
		passesJSON,
		run.QueriesVisited,
		run.RemovedOrderBy,
		run.RemovedLimitBy,
		run.OptimizerVersion,
		run.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}
