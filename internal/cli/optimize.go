package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/qtopt/internal/compiler"
	"github.com/roach88/qtopt/internal/ir"
	"github.com/roach88/qtopt/internal/passes"
	"github.com/roach88/qtopt/internal/querytree"
	"github.com/roach88/qtopt/internal/store"
)

// OptimizeOptions holds flags for the optimize command.
type OptimizeOptions struct {
	*RootOptions
	Output   string            // output file path
	Database string            // optional run database
	Package  bool              // load a directory as one CUE package
	NoCheck  bool              // skip the node contract check before the passes
	Disable  []string          // passes to skip
	Settings map[string]string // extra pass settings
}

// OptimizedTree is the outcome for one input tree.
type OptimizedTree struct {
	Name           string         `json:"name"`
	Input          string         `json:"input"`
	Output         string         `json:"output"`
	Document       map[string]any `json:"document"`
	QueriesVisited int            `json:"queries_visited"`
	RemovedOrderBy int            `json:"removed_order_by"`
	RemovedLimitBy int            `json:"removed_limit_by"`
	RunID          string         `json:"run_id,omitempty"`
}

// OptimizeResult holds the outcome of an optimize invocation.
type OptimizeResult struct {
	Passes []string        `json:"passes"`
	Trees  []OptimizedTree `json:"trees"`
}

// String renders the result for text output.
func (r OptimizeResult) String() string {
	var b strings.Builder
	for i, t := range r.Trees {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s\n", t.Name)
		fmt.Fprintf(&b, "  input:  %s\n", t.Input)
		fmt.Fprintf(&b, "  output: %s\n", t.Output)
		fmt.Fprintf(&b, "  removed: order_by=%d limit_by=%d (queries=%d)", t.RemovedOrderBy, t.RemovedLimitBy, t.QueriesVisited)
		if t.RunID != "" {
			fmt.Fprintf(&b, "\n  run: %s", t.RunID)
		}
	}
	return b.String()
}

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OptimizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "optimize <tree-file|dir>",
		Short: "Run the optimization passes over query trees",
		Long: `Run the optimization pipeline over one or more query trees.

Trees are read from YAML, JSON or CUE documents. A directory is scanned
for tree files; with --package it is loaded as one CUE package whose
"trees" struct names each tree.

Each run can be recorded in a SQLite database with --db and inspected
later with the history and show commands.

Trees are checked against the node contract first (see validate); with
--no-check the passes see the tree as is and report contract violations
themselves.

Exit codes:
  0 - All trees optimized
  1 - A pass raised a contract violation or a tree is invalid
  2 - Command error (invalid paths, database errors, etc.)

Examples:
  qtopt optimize query.yaml
  qtopt optimize ./trees --db runs.db
  qtopt optimize ./pkg --package --format json
  qtopt optimize query.yaml -o optimized.json
  qtopt optimize query.yaml --disable OrderByLimitByDuplicateElimination`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the optimized tree document to this file (.json, .yaml or .yml)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record runs in this SQLite database")
	cmd.Flags().BoolVar(&opts.Package, "package", false, "load the directory as a CUE package")
	cmd.Flags().BoolVar(&opts.NoCheck, "no-check", false, "skip the tree contract check and let passes report violations")
	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "passes to skip")
	cmd.Flags().StringToStringVar(&opts.Settings, "set", nil, "pass settings (key=value)")

	return cmd
}

func runOptimize(opts *OptimizeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := context.Background()

	loadResult, loadErrors := LoadTrees(path, opts.Package, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := firstLoadError(loadErrors)
		exitCode := ExitCommandError
		if code == ErrCodeInvalidDocument {
			exitCode = ExitFailure
		}
		return formatter.Fail(exitCode, code, message, nil)
	}
	formatter.VerboseLog("Loaded %d tree(s) from %s", len(loadResult.Trees), path)

	// Reject trees that break the node contract before any pass runs
	if !opts.NoCheck {
		for _, named := range loadResult.Trees {
			if v := querytree.Validate(named.Tree); !v.Valid {
				return formatter.Fail(ExitFailure, ErrCodeInvalidTree,
					fmt.Sprintf("%s: %s", named.Name, v.Violations[0]), v.Violations)
			}
		}
	}

	var st *store.Store
	if opts.Database != "" {
		var err error
		st, err = store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err), nil)
		}
		defer st.Close()
	}

	manager := passes.NewManager(formatter.Logger(), passes.DefaultPasses()...)
	result := OptimizeResult{Passes: manager.PassNames(), Trees: make([]OptimizedTree, 0, len(loadResult.Trees))}

	for _, named := range loadResult.Trees {
		input := querytree.Clone(named.Tree)
		env := optimizeEnvironment(opts)

		report, err := manager.Run(named.Tree, env)
		if err != nil {
			if passes.IsContractViolation(err) {
				return formatter.Fail(ExitFailure, ErrCodeContractViolation, fmt.Sprintf("%s: %v", named.Name, err), nil)
			}
			return formatter.Fail(ExitFailure, ErrCodeGeneric, fmt.Sprintf("%s: %v", named.Name, err), nil)
		}
		totals := report.Totals()

		out := OptimizedTree{
			Name:           named.Name,
			Input:          querytree.Format(input),
			Output:         querytree.Format(named.Tree),
			Document:       querytree.Encode(named.Tree),
			QueriesVisited: totals.QueriesVisited,
			RemovedOrderBy: totals.RemovedOrderBy,
			RemovedLimitBy: totals.RemovedLimitBy,
		}

		if st != nil {
			run, err := st.RecordRun(ctx, store.RunInput{
				Source:         named.Name,
				Input:          input,
				Output:         named.Tree,
				Passes:         ranPasses(report),
				QueriesVisited: totals.QueriesVisited,
				RemovedOrderBy: totals.RemovedOrderBy,
				RemovedLimitBy: totals.RemovedLimitBy,
			})
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeDatabase, fmt.Sprintf("failed to record run: %v", err), nil)
			}
			out.RunID = run.ID
			formatter.VerboseLog("Recorded run %s for %s", run.ID, named.Name)
		}

		result.Trees = append(result.Trees, out)
	}

	if opts.Output != "" {
		if err := writeTreeDocuments(opts.Output, loadResult.Trees); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("failed to write output file: %v", err), nil)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	return formatter.Success(result)
}

// optimizeEnvironment builds the pass environment from the command flags.
func optimizeEnvironment(opts *OptimizeOptions) *passes.Environment {
	env := passes.NewEnvironment()
	for k, v := range opts.Settings {
		env.Settings[k] = v
	}
	if len(opts.Disable) > 0 {
		disabled := opts.Disable
		if existing, ok := env.Settings[passes.SettingDisabledPasses]; ok && existing != "" {
			disabled = append([]string{existing}, disabled...)
		}
		env.Settings[passes.SettingDisabledPasses] = strings.Join(disabled, ",")
	}
	return env
}

// ranPasses lists the passes of a report that were not skipped.
func ranPasses(report *passes.Report) []string {
	var names []string
	for _, p := range report.Passes {
		if !p.Skipped {
			names = append(names, p.Name)
		}
	}
	return names
}

// writeTreeDocuments writes the optimized trees to path. A single tree is
// written as its document; several trees as a mapping from name to
// document. The encoding follows the file extension: canonical JSON for
// .json, YAML otherwise.
func writeTreeDocuments(path string, trees []compiler.NamedTree) error {
	var doc any
	if len(trees) == 1 {
		doc = querytree.Encode(trees[0].Tree)
	} else {
		named := make(map[string]any, len(trees))
		for _, t := range trees {
			named[t.Name] = querytree.Encode(t.Tree)
		}
		doc = named
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = ir.MarshalCanonical(doc)
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(doc)
	default:
		return fmt.Errorf("unsupported output extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
