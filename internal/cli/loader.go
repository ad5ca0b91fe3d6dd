package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/qtopt/internal/compiler"
)

// LoadMode controls how errors are handled during tree loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the trees loaded from a file, directory or CUE
// package.
type LoadResult struct {
	Trees     []compiler.NamedTree
	FileCount int // Number of tree files found
}

// LoadError represents an error that occurred during tree loading.
type LoadError struct {
	Code    string
	Tree    string // Tree name, if known
	Message string
	Pos     token.Pos // Source position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Tree != "" {
		return fmt.Sprintf("%s: %s: %s", e.Tree, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadTrees loads query trees from path.
//
// A file is compiled on its own and named after its base name. A directory
// is scanned recursively for tree files, each named by its path relative to
// the directory. With asPackage, a directory is instead loaded as one CUE
// package whose "trees" struct holds named trees.
//
// If mode is LoadModeFailFast, returns on the first error.
// If mode is LoadModeCollectAll, compiles every file and collects all errors.
func LoadTrees(path string, asPackage bool, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing path: %v", err)}}
	}

	if asPackage {
		if !info.IsDir() {
			return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", path)}}
		}
		trees, err := compiler.LoadCUEPackage(path)
		if err != nil {
			return nil, []error{convertCompileError(err, path)}
		}
		return &LoadResult{Trees: trees, FileCount: 1}, nil
	}

	if !info.IsDir() {
		tree, err := compiler.LoadFile(path)
		if err != nil {
			return nil, []error{convertCompileError(err, filepath.Base(path))}
		}
		return &LoadResult{
			Trees:     []compiler.NamedTree{{Name: filepath.Base(path), Tree: tree}},
			FileCount: 1,
		}, nil
	}

	files, err := compiler.FindTreeFiles(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no tree files found in %s", path)}}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	for _, file := range files {
		name, relErr := filepath.Rel(path, file)
		if relErr != nil {
			name = file
		}
		tree, err := compiler.LoadFile(file)
		if err != nil {
			errs = append(errs, convertCompileError(err, name))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Trees = append(result.Trees, compiler.NamedTree{Name: name, Tree: tree})
	}
	return result, errs
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, tree string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Tree:    tree,
			Message: compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	code := ErrCodeGeneric
	if strings.Contains(err.Error(), "read tree file") {
		code = ErrCodeLoadFailed
	}
	return &LoadError{
		Code:    code,
		Tree:    tree,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No tree files found
	ErrCodeLoadFailed  = "E004" // File unreadable or not parseable
	ErrCodeNotFound    = "E005" // Path, run or tree not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDatabase    = "E008" // Run database error

	// Tree errors
	ErrCodeInvalidDocument = "E101" // Tree document does not decode
	ErrCodeInvalidTree     = "E102" // Tree breaks the node contract

	// Optimizer errors
	ErrCodeContractViolation = "E201" // A pass raised a contract violation

	// Harness errors
	ErrCodeTestFailed = "E301" // One or more scenarios failed
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Fields other than the syntax layers are document paths.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "cue":
		return ErrCodeBuildFailed
	case "yaml", "json":
		return ErrCodeLoadFailed
	case compiler.TreesField:
		return ErrCodeBuildFailed
	case "":
		return ErrCodeGeneric
	default:
		return ErrCodeInvalidDocument
	}
}

// firstLoadError returns the code and message of the first load error.
func firstLoadError(errs []error) (string, string) {
	var loadErr *LoadError
	if errors.As(errs[0], &loadErr) {
		return loadErr.Code, loadErr.Error()
	}
	return ErrCodeGeneric, errs[0].Error()
}
