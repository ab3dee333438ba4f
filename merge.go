package chronicle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/arcmantle/chronicle/internal/container"
	"github.com/arcmantle/chronicle/internal/merge3"
	"github.com/arcmantle/chronicle/internal/snapshot"
)

// MergeResult is merge(obj, incoming)'s return value (spec.md §6).
type MergeResult struct {
	Success   bool
	Conflicts []merge3.Conflict
	Applied   int
}

// Merge three-way merges incoming against the pristine snapshot and the
// current graph (spec.md §4.K): changes only incoming made are applied,
// changes only the current graph made are kept, and changes both sides made
// to different values are conflicts. A conflict opts.Resolve resolves takes
// the resolver's value and is not reported; any other conflict takes the
// value opts.Strategy picks (ours by default) and is reported in Conflicts,
// which makes Success false. Every applied change
// goes through the normal container methods (so it is recorded and
// dispatched like any other mutation), grouped under one batch frame.
func (r *Root) Merge(incoming any, opts merge3.Options) (MergeResult, error) {
	r.mu.Lock()
	has := r.hasPristine
	pristine := r.pristine
	r.mu.Unlock()
	if !has {
		return MergeResult{}, fmt.Errorf("%w: merge requires a pristine snapshot (call MarkPristine first)", ErrPreconditionFailure)
	}

	current := r.Unwrap()
	if opts.Diff.Compare == nil {
		opts.Diff.Compare = r.cfg.Compare
	}
	if opts.Diff.Filter == nil {
		opts.Diff.Filter = r.cfg.DiffFilter
	}
	merged, conflicts := merge3.Merge(pristine, current, incoming, opts)

	var applied int
	r.Batch(func() {
		applied = r.applyMerged(current, merged)
	})

	if len(conflicts) > 0 {
		r.logger.Warn("merge produced conflicts", zap.Int("count", len(conflicts)))
	}
	return MergeResult{Success: len(conflicts) == 0, Conflicts: conflicts, Applied: applied}, nil
}

// applyMerged diffs current against the reconciled merged tree and replays
// each difference onto the live container tree through the normal
// set/delete path, returning how many changes were applied.
func (r *Root) applyMerged(current, merged any) int {
	diffs := snapshot.Diff(current, merged, snapshot.Options{Compare: r.cfg.Compare})
	for _, d := range diffs {
		if d.Tag == snapshot.Removed {
			container.DeleteAtPath(r.tree, d.Path)
			continue
		}
		container.SetAtPath(r.tree, d.Path, container.FromRaw(d.NewValue))
	}
	return len(diffs)
}
