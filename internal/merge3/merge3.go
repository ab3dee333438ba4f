// Package merge3 implements Chronicle's three-way merge (spec.md §4.K):
// diff the pristine snapshot against both the current tree and an incoming
// tree, and reconcile the two diffs into one merged tree plus a list of
// conflicts for whatever paths both sides touched disagreeingly.
//
// Merging operates on raw value trees (map[string]any/[]any, as produced by
// container.Node.RawValue), the same representation internal/snapshot's
// Clone/Diff operate on, so merge3 has no dependency on the container or
// changelog packages.
package merge3

import (
	"github.com/arcmantle/chronicle/internal/pathutil"
	"github.com/arcmantle/chronicle/internal/snapshot"
)

// Strategy picks the default resolution for a conflicting path when no
// Resolver is supplied, or when the Resolver declines to resolve it.
type Strategy int

const (
	PreferOurs Strategy = iota
	PreferTheirs
)

// Resolver lets a caller supply custom conflict resolution (spec.md §6's
// merge `resolve` option). Returning resolved=false falls through to
// Options.Strategy.
type Resolver func(path pathutil.Path, base, ours, theirs any) (value any, resolved bool)

// Conflict describes one path both sides changed to different values.
type Conflict struct {
	Path            pathutil.Path
	Base, Ours, Theirs any
}

// Options configures a Merge call.
type Options struct {
	Strategy Strategy
	Resolve  Resolver
	Diff     snapshot.Options
}

// Merge reconciles ours and theirs against their common ancestor base and
// returns the merged tree plus any conflicts found. base/ours/theirs are raw
// value trees; when the root is not a map[string]any (e.g. the whole
// document is a scalar or a Sequence), Merge falls back to whole-value
// conflict resolution since there is no sub-path to merge independently.
func Merge(base, ours, theirs any, opts Options) (merged any, conflicts []Conflict) {
	if root, ok := snapshot.Clone(base, nil).(map[string]any); ok {
		return mergeRecord(root, base, ours, theirs, opts)
	}
	return mergeWhole(base, ours, theirs, opts)
}

func mergeWhole(base, ours, theirs any, opts Options) (any, []Conflict) {
	cmp := opts.Diff.Compare
	if cmp == nil {
		cmp = defaultCompare
	}
	ourChanged := !cmp(base, ours, nil)
	theirChanged := !cmp(base, theirs, nil)

	switch {
	case !ourChanged && !theirChanged:
		return snapshot.Clone(base, nil), nil
	case ourChanged && !theirChanged:
		return snapshot.Clone(ours, nil), nil
	case !ourChanged && theirChanged:
		return snapshot.Clone(theirs, nil), nil
	}

	if cmp(ours, theirs, nil) {
		return snapshot.Clone(ours, nil), nil
	}

	conflict := Conflict{Path: pathutil.Path{}, Base: base, Ours: ours, Theirs: theirs}
	if opts.Resolve != nil {
		if v, resolved := opts.Resolve(pathutil.Path{}, base, ours, theirs); resolved {
			return v, nil
		}
	}
	if opts.Strategy == PreferTheirs {
		return snapshot.Clone(theirs, nil), []Conflict{conflict}
	}
	return snapshot.Clone(ours, nil), []Conflict{conflict}
}

func defaultCompare(a, b any, p pathutil.Path) bool {
	recs := snapshot.Diff(a, b, snapshot.Options{})
	return snapshot.IsEmpty(recs)
}

func mergeRecord(root map[string]any, base, ours, theirs any, opts Options) (any, []Conflict) {
	ourDiff := snapshot.Diff(base, ours, opts.Diff)
	theirDiff := snapshot.Diff(base, theirs, opts.Diff)
	ourIdx := indexByPath(ourDiff)
	theirIdx := indexByPath(theirDiff)

	var conflicts []Conflict
	applied := make(map[string]bool, len(ourIdx)+len(theirIdx))

	for key, tr := range theirIdx {
		or, oursChanged := ourIdx[key]
		applied[key] = true
		if !oursChanged {
			applyRecord(root, tr)
			continue
		}
		if recordsAgree(or, tr) {
			applyRecord(root, tr)
			continue
		}

		conflict := Conflict{
			Path:   tr.Path.Clone(),
			Base:   baseValue(or, tr),
			Ours:   or.NewValue,
			Theirs: tr.NewValue,
		}
		if opts.Resolve != nil {
			if v, resolved := opts.Resolve(conflict.Path, conflict.Base, conflict.Ours, conflict.Theirs); resolved {
				setResolved(root, tr.Path, v)
				continue
			}
		}
		if opts.Strategy == PreferTheirs {
			applyRecord(root, tr)
		} else {
			applyRecord(root, or)
		}
		conflicts = append(conflicts, conflict)
	}

	for key, or := range ourIdx {
		if applied[key] {
			continue
		}
		applyRecord(root, or)
	}

	return root, conflicts
}

func baseValue(or, tr snapshot.Record) any {
	if or.Tag == snapshot.Removed || or.Tag == snapshot.Changed {
		return or.OldValue
	}
	return tr.OldValue
}

func recordsAgree(a, b snapshot.Record) bool {
	if a.Tag != b.Tag {
		return false
	}
	if a.Tag == snapshot.Removed {
		return true
	}
	return defaultCompare(a.NewValue, b.NewValue, a.Path)
}

func indexByPath(recs []snapshot.Record) map[string]snapshot.Record {
	idx := make(map[string]snapshot.Record, len(recs))
	for _, r := range recs {
		idx[r.Path.CacheKey()] = r
	}
	return idx
}

func setResolved(root map[string]any, path pathutil.Path, value any) {
	applyRecord(root, snapshot.Record{Path: path, Tag: snapshot.Changed, NewValue: value})
}

func applyRecord(root any, r snapshot.Record) {
	parent, last, ok := rawNavigateToParent(root, r.Path)
	if !ok {
		return
	}
	if r.Tag == snapshot.Removed {
		rawChildDelete(parent, last)
		return
	}
	rawChildSet(parent, last, r.NewValue)
}

func rawNavigateToParent(root any, path pathutil.Path) (any, string, bool) {
	if len(path) == 0 {
		return nil, "", false
	}
	cur := root
	for i := 0; i < len(path)-1; i++ {
		child, ok := rawChildGet(cur, path[i])
		if !ok {
			return nil, "", false
		}
		cur = child
	}
	return cur, path[len(path)-1], true
}

func rawChildGet(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case []any:
		idx, ok := pathutil.AsArrayIndex(seg)
		if !ok || idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}

// rawChildSet assigns seg=value under cur. Sequence growth (setting past the
// current length) is not supported here: merge3 only ever reassigns paths
// the diff already found on one side's tree, which by construction existed
// at that length on at least one side; growing a shared array is left as a
// conflict for the caller's Resolver to decide, since there is no
// unambiguous way to splice two independently-grown arrays.
func rawChildSet(cur any, seg string, value any) {
	switch c := cur.(type) {
	case map[string]any:
		c[seg] = value
	case []any:
		if idx, ok := pathutil.AsArrayIndex(seg); ok && idx >= 0 && idx < len(c) {
			c[idx] = value
		}
	}
}

func rawChildDelete(cur any, seg string) {
	if c, ok := cur.(map[string]any); ok {
		delete(c, seg)
	}
}
