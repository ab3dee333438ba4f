package snapshot

import (
	"reflect"
	"sort"
	"strconv"

	"github.com/arcmantle/chronicle/internal/pathutil"
)

// Tag classifies a DiffRecord.
type Tag int

const (
	Changed Tag = iota
	Added
	Removed
)

func (t Tag) String() string {
	switch t {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "changed"
	}
}

// Record describes one structural difference found by Diff.
type Record struct {
	Path     pathutil.Path
	Tag      Tag
	OldValue any
	NewValue any
}

// FilterResult tells Diff how to treat the subtree rooted at a path (spec.md
// §6's diff `filter` option): Recurse descends normally (the default), Skip
// omits the path and everything below it, Shallow compares the two values at
// that path as opaque wholes without descending into them.
type FilterResult int

const (
	Recurse FilterResult = iota
	Skip
	Shallow
)

// CompareFunc reports whether a and b, found at path, are equal. The default
// is reflect.DeepEqual with NaN treated as equal to itself.
type CompareFunc func(a, b any, path pathutil.Path) bool

// FilterFunc decides how to treat the subtree at path.
type FilterFunc func(path pathutil.Path) FilterResult

// Options configures a Diff call.
type Options struct {
	Compare CompareFunc
	Filter  FilterFunc
}

func defaultCompare(a, b any, _ pathutil.Path) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok && af != af && bf != bf {
		return true // NaN == NaN, matching spec.md's stated equality policy
	}
	return reflect.DeepEqual(a, b)
}

func defaultFilter(pathutil.Path) FilterResult { return Recurse }

// Diff structurally compares two raw value trees (as returned by
// container.Node.RawValue) and returns every difference found, in
// depth-first, key-sorted order. It is cycle-safe via a pointer pairing set:
// a pair of maps or slices already visited anywhere in this Diff call is
// treated as equal rather than re-descended.
func Diff(a, b any, opts Options) []Record {
	if opts.Compare == nil {
		opts.Compare = defaultCompare
	}
	if opts.Filter == nil {
		opts.Filter = defaultFilter
	}
	var out []Record
	seen := make(map[[2]uintptr]bool)
	diffAt(pathutil.Path{}, a, b, opts, seen, &out)
	return out
}

func diffAt(path pathutil.Path, a, b any, opts Options, seen map[[2]uintptr]bool, out *[]Record) {
	switch opts.Filter(path) {
	case Skip:
		return
	case Shallow:
		if !opts.Compare(a, b, path) {
			*out = append(*out, Record{Path: path.Clone(), Tag: Changed, OldValue: a, NewValue: b})
		}
		return
	}

	if am, aIsMap := a.(map[string]any); aIsMap {
		if bm, bIsMap := b.(map[string]any); bIsMap {
			if cyclic(a, b, seen) {
				return
			}
			diffMaps(path, am, bm, opts, seen, out)
			return
		}
	}

	if as, aIsSeq := a.([]any); aIsSeq {
		if bs, bIsSeq := b.([]any); bIsSeq {
			if cyclic(a, b, seen) {
				return
			}
			diffSlices(path, as, bs, opts, seen, out)
			return
		}
	}

	// Mismatched kinds, MapPairs/SetValues collections, or scalars: compared
	// as opaque wholes. Keyed-map and set collections are diffed by their
	// own change-log entries at the engine layer; a raw structural diff only
	// needs to notice that the snapshot as a whole changed.
	if !opts.Compare(a, b, path) {
		*out = append(*out, Record{Path: path.Clone(), Tag: Changed, OldValue: a, NewValue: b})
	}
}

func diffMaps(path pathutil.Path, am, bm map[string]any, opts Options, seen map[[2]uintptr]bool, out *[]Record) {
	for _, k := range unionKeys(am, bm) {
		av, aok := am[k]
		bv, bok := bm[k]
		child := path.Join(k)
		switch {
		case aok && !bok:
			*out = append(*out, Record{Path: child, Tag: Removed, OldValue: av})
		case !aok && bok:
			*out = append(*out, Record{Path: child, Tag: Added, NewValue: bv})
		default:
			diffAt(child, av, bv, opts, seen, out)
		}
	}
}

func diffSlices(path pathutil.Path, as, bs []any, opts Options, seen map[[2]uintptr]bool, out *[]Record) {
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		child := path.Join(strconv.Itoa(i))
		switch {
		case i < len(as) && i >= len(bs):
			*out = append(*out, Record{Path: child, Tag: Removed, OldValue: as[i]})
		case i >= len(as) && i < len(bs):
			*out = append(*out, Record{Path: child, Tag: Added, NewValue: bs[i]})
		default:
			diffAt(child, as[i], bs[i], opts, seen, out)
		}
	}
}

func unionKeys(am, bm map[string]any) []string {
	seen := make(map[string]struct{}, len(am)+len(bm))
	keys := make([]string, 0, len(am)+len(bm))
	for k := range am {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range bm {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func cyclic(a, b any, seen map[[2]uintptr]bool) bool {
	pa, aok := identity(a)
	pb, bok := identity(b)
	if !aok || !bok {
		return false
	}
	key := [2]uintptr{pa, pb}
	if seen[key] {
		return true
	}
	seen[key] = true
	return false
}

// IsEmpty reports whether recs contains no differences, the basis for
// Chronicle's isPristine check (spec.md §6).
func IsEmpty(recs []Record) bool { return len(recs) == 0 }
