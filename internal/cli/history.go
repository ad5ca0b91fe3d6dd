package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/qtopt/internal/querytree"
	"github.com/roach88/qtopt/internal/store"
)

// HistoryOptions holds flags for the history and show commands.
type HistoryOptions struct {
	*RootOptions
	Database string
	Source   string // optional - filter to one source
	Limit    int
}

// HistoryResult holds the runs listed by history.
type HistoryResult struct {
	Runs []store.Run `json:"runs"`
}

// String renders the runs for text output, newest first.
func (r HistoryResult) String() string {
	if len(r.Runs) == 0 {
		return "No runs recorded."
	}
	var b strings.Builder
	for i, run := range r.Runs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "#%d %s  %s  %s\n", run.Seq, run.ID, run.CreatedAt.Format(time.RFC3339), run.Source)
		fmt.Fprintf(&b, "    passes: %s\n", strings.Join(run.Passes, ", "))
		fmt.Fprintf(&b, "    removed: order_by=%d limit_by=%d (queries=%d)\n", run.RemovedOrderBy, run.RemovedLimitBy, run.QueriesVisited)
		fmt.Fprintf(&b, "    trees: %s -> %s", shortID(run.InputTreeID), shortID(run.OutputTreeID))
	}
	return b.String()
}

// ShowResult is one run with both of its trees.
type ShowResult struct {
	Run    store.Run      `json:"run"`
	Input  string         `json:"input"`
	Output string         `json:"output"`
	Tree   map[string]any `json:"tree"`
}

// String renders the run for text output.
func (r ShowResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (#%d) %s\n", r.Run.ID, r.Run.Seq, r.Run.Source)
	fmt.Fprintf(&b, "  optimizer: %s\n", r.Run.OptimizerVersion)
	fmt.Fprintf(&b, "  input:  %s\n", r.Input)
	fmt.Fprintf(&b, "  output: %s", r.Output)
	return b.String()
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded optimization runs",
		Long: `List optimization runs recorded with optimize --db, newest first.

Examples:
  qtopt history --db runs.db
  qtopt history --db runs.db --source query.yaml --limit 5
  qtopt history --db runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Source, "source", "", "only list runs for this source")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs to list (0 = all)")

	return cmd
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run and its trees",
		Long: `Show a recorded run with its input and optimized trees.

Examples:
  qtopt show --db runs.db 0190a1b2-...
  qtopt show --db runs.db 0190a1b2-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	runs, err := st.ReadRuns(ctx, store.RunFilter{Source: opts.Source, Limit: opts.Limit})
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to read runs: %v", err), nil)
	}
	formatter.VerboseLog("Read %d run(s) from %s", len(runs), opts.Database)

	return formatter.Success(HistoryResult{Runs: runs})
}

func runShow(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err), nil)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run not found: %s", runID), nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to read run: %v", err), nil)
	}

	input, err := st.ReadTreeFormatted(ctx, run.InputTreeID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to read input tree: %v", err), nil)
	}
	output, err := st.ReadTree(ctx, run.OutputTreeID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to read output tree: %v", err), nil)
	}

	return formatter.Success(ShowResult{
		Run:    run,
		Input:  input,
		Output: querytree.Format(output),
		Tree:   querytree.Encode(output),
	})
}

// shortID abbreviates a content address for text output.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
