package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/qtopt/internal/querytree"
)

// ErrNotFound is returned when a requested run or tree does not exist.
var ErrNotFound = errors.New("not found")

// RunFilter narrows ReadRuns.
type RunFilter struct {
	// Source, when set, keeps only runs recorded for that source.
	Source string

	// Limit caps the number of runs returned; 0 means no limit.
	Limit int
}

// ReadRuns returns recorded runs, newest first.
// Results are ordered deterministically: ORDER BY seq DESC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no runs match.
func (s *Store) ReadRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `
		SELECT id, seq, source, input_tree_id, output_tree_id, passes,
		       queries_visited, removed_order_by, removed_limit_by, optimizer_version, created_at
		FROM runs`
	var args []any
	if filter.Source != "" {
		query += ` WHERE source = ?`
		args = append(args, filter.Source)
	}
	query += ` ORDER BY seq DESC, id COLLATE BINARY ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns one run by ID. Returns an error wrapping ErrNotFound if
// the run does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, source, input_tree_id, output_tree_id, passes,
		       queries_visited, removed_order_by, removed_limit_by, optimizer_version, created_at
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// ReadTree returns the tree snapshot stored under id. Returns an error
// wrapping ErrNotFound if no such tree exists.
func (s *Store) ReadTree(ctx context.Context, id string) (querytree.Node, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM trees WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tree %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	return unmarshalTree(body)
}

// ReadTreeFormatted returns the Format rendering stored with a tree.
func (s *Store) ReadTreeFormatted(ctx context.Context, id string) (string, error) {
	var formatted string
	err := s.db.QueryRowContext(ctx, `SELECT formatted FROM trees WHERE id = ?`, id).Scan(&formatted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("tree %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read tree: %w", err)
	}
	return formatted, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		passesJSON string
		createdAt  string
	)
	err := row.Scan(
		&run.ID,
		&run.Seq,
		&run.Source,
		&run.InputTreeID,
		&run.OutputTreeID,
		&passesJSON,
		&run.QueriesVisited,
		&run.RemovedOrderBy,
		&run.RemovedLimitBy,
		&run.OptimizerVersion,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.Passes, err = unmarshalPasses(passesJSON); err != nil {
		return Run{}, err
	}
	if run.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Run{}, fmt.Errorf("scan run: created_at: %w", err)
	}
	return run, nil
}
