package passes

import (
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/qtopt/internal/querytree"
)

// Pass is one query tree rewrite.
type Pass interface {
	// Name identifies the pass in logs, reports and settings.
	Name() string

	// Description is a one-line human summary.
	Description() string

	// Run rewrites tree in place. It panics with *ContractViolation when
	// the tree breaks the node contract.
	Run(tree querytree.Node, env *Environment)
}

// SettingDisabledPasses holds a comma-separated list of pass names the
// Manager skips.
const SettingDisabledPasses = "disabled_passes"

// Environment is the execution context handed to every pass.
//
// Passes may ignore it entirely. Manager installs a fresh Stats before each
// pass so rewrites can be counted.
type Environment struct {
	// Settings are free-form key/value options.
	Settings map[string]string

	// Logger receives pass-level logs. Nil discards them.
	Logger *slog.Logger

	// Stats collects counters for the running pass. Nil discards them.
	Stats *Stats
}

// NewEnvironment returns an empty environment.
func NewEnvironment() *Environment {
	return &Environment{Settings: map[string]string{}}
}

// Setting returns the value of a setting.
func (e *Environment) Setting(key string) (string, bool) {
	if e == nil || e.Settings == nil {
		return "", false
	}
	v, ok := e.Settings[key]
	return v, ok
}

// PassDisabled reports whether name is listed in SettingDisabledPasses.
func (e *Environment) PassDisabled(name string) bool {
	list, ok := e.Setting(SettingDisabledPasses)
	if !ok {
		return false
	}
	for _, entry := range strings.Split(list, ",") {
		if strings.TrimSpace(entry) == name {
			return true
		}
	}
	return false
}

func (e *Environment) logger() *slog.Logger {
	if e == nil || e.Logger == nil {
		return discardLogger
	}
	return e.Logger
}

func (e *Environment) stats() *Stats {
	if e == nil || e.Stats == nil {
		return &Stats{}
	}
	return e.Stats
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Stats counts what one pass did to one tree.
type Stats struct {
	QueriesVisited int `json:"queries_visited"`
	RemovedOrderBy int `json:"removed_order_by"`
	RemovedLimitBy int `json:"removed_limit_by"`
}

// Removed returns the total number of clause elements removed.
func (s Stats) Removed() int {
	return s.RemovedOrderBy + s.RemovedLimitBy
}
