package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qtopt/internal/querytree"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Package bool // load a directory as one CUE package
}

// ValidationError is one problem found by validate.
type ValidationError struct {
	Tree    string `json:"tree,omitempty"`
	Path    string `json:"path,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Trees  int               `json:"trees"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <tree-file|dir>",
		Short: "Validate query trees without optimizing",
		Long: `Validate query tree documents without running any pass.

Checks that every document decodes and that every tree honours the node
contract the passes rely on: ORDER BY holds sort keys with expressions,
LIMIT BY holds expressions, and lists hold no nil elements.

All files are checked and every problem is reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Package, "package", false, "load the directory as a CUE package")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Use shared loader with collect-all mode
	loadResult, loadErrors := LoadTrees(path, opts.Package, LoadModeCollectAll)

	// Handle load errors (path not found, no files, etc.)
	if loadResult == nil {
		code, message := firstLoadError(loadErrors)
		return formatter.Fail(ExitCommandError, code, message, nil)
	}

	formatter.VerboseLog("Found %d tree file(s) in %s", loadResult.FileCount, path)

	var validationErrors []ValidationError
	for _, err := range loadErrors {
		validationErrors = append(validationErrors, loadValidationError(err))
	}

	for _, named := range loadResult.Trees {
		formatter.VerboseLog("Validating tree: %s", named.Name)
		for _, v := range querytree.Validate(named.Tree).Violations {
			validationErrors = append(validationErrors, ValidationError{
				Tree:    named.Name,
				Path:    v.Path,
				Code:    ErrCodeInvalidTree,
				Message: v.Message,
			})
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, len(loadResult.Trees)+len(loadErrors), validationErrors)
	}

	return outputValidateSuccess(formatter, len(loadResult.Trees))
}

// loadValidationError converts a load error into a validation error.
func loadValidationError(err error) ValidationError {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		line := 0
		if loadErr.Pos.IsValid() {
			line = loadErr.Pos.Line()
		}
		return ValidationError{
			Tree:    loadErr.Tree,
			Code:    loadErr.Code,
			Message: loadErr.Message,
			Line:    line,
		}
	}
	return ValidationError{Code: ErrCodeGeneric, Message: err.Error()}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, trees int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Trees: trees})
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d tree(s) valid\n", trees)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, trees int, errs []ValidationError) error {
	exitErr := &ExitError{
		Code:     ExitFailure,
		Message:  fmt.Sprintf("validation failed with %d error(s)", len(errs)),
		Reported: true,
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Trees:  trees,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		location := err.Tree
		if err.Path != "" {
			location += " " + err.Path
		}
		if err.Line > 0 {
			location += fmt.Sprintf(" (line %d)", err.Line)
		}
		if location != "" {
			fmt.Fprintln(formatter.Writer, location)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return exitErr
}
