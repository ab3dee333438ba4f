package chronicle

import (
	"go.uber.org/zap"

	"github.com/arcmantle/chronicle/internal/changelog"
	"github.com/arcmantle/chronicle/internal/snapshot"
)

// Config bundles every per-root option recognized by configure (spec.md
// §6). The zero Config is never used directly; New always starts from
// defaultConfig and applies Options on top.
type Config struct {
	MergeUngrouped             bool
	MergeWindowMs              int
	CompactConsecutiveSamePath bool
	MaxHistory                 int

	Filter     func(changelog.Entry) bool
	Clone      snapshot.CloneHook
	Compare    snapshot.CompareFunc
	DiffFilter snapshot.FilterFunc

	logger *zap.Logger
}

func defaultConfig() Config {
	return Config{
		MergeUngrouped:             true,
		MergeWindowMs:              300,
		CompactConsecutiveSamePath: true,
		MaxHistory:                 1000,
		logger:                     zap.NewNop(),
	}
}

// Option mutates a Config; passed to New or Configure.
type Option func(*Config)

// WithMergeUngrouped toggles time-window merging of ungrouped changes into
// one group (default true).
func WithMergeUngrouped(enabled bool) Option {
	return func(c *Config) { c.MergeUngrouped = enabled }
}

// WithMergeWindowMs sets the window, in milliseconds, for merging ungrouped
// changes (default 300).
func WithMergeWindowMs(ms int) Option {
	return func(c *Config) { c.MergeWindowMs = ms }
}

// WithCompactConsecutiveSamePath toggles same-path set compaction within a
// group (default true).
func WithCompactConsecutiveSamePath(enabled bool) Option {
	return func(c *Config) { c.CompactConsecutiveSamePath = enabled }
}

// WithMaxHistory sets the change-log size cap, in entries (default 1000);
// when it is exceeded, whole groups are dropped from the front.
func WithMaxHistory(n int) Option {
	return func(c *Config) { c.MaxHistory = n }
}

// WithFilter excludes records from the log for which fn returns false; the
// mutation itself still happens.
func WithFilter(fn func(changelog.Entry) bool) Option {
	return func(c *Config) { c.Filter = fn }
}

// WithClone overrides the deep-clone used for snapshots.
func WithClone(fn snapshot.CloneHook) Option {
	return func(c *Config) { c.Clone = fn }
}

// WithCompare overrides the equality used by diff/merge.
func WithCompare(fn snapshot.CompareFunc) Option {
	return func(c *Config) { c.Compare = fn }
}

// WithDiffFilter scopes diff/merge traversal (spec.md §6's diffFilter).
func WithDiffFilter(fn snapshot.FilterFunc) Option {
	return func(c *Config) { c.DiffFilter = fn }
}

// WithLogger attaches a *zap.Logger; Root logs change/undo/redo activity at
// Debug, and notable events (rollback, merge conflicts) at Warn.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
