// Package snapshot implements Chronicle's deep clone and structural diff
// (spec.md §4.C): clone honors an optional user hook, diff is
// configurable (equality, subtree skip, shallow-compare) and cycle-safe.
package snapshot

import (
	"reflect"

	"github.com/arcmantle/chronicle/internal/container"
)

// CloneHook lets a caller override cloning for specific values (spec.md
// §6's `clone` option); return handled=false to fall through to the
// structural default.
type CloneHook func(v any) (clone any, handled bool)

// Clone deep-clones a raw value tree (as returned by container.Node.RawValue:
// map[string]any, []any, *container.MapPairs, *container.SetValues, or a
// scalar), honoring hook if provided, and is cycle-safe via a pointer
// pairing set.
func Clone(v any, hook CloneHook) any {
	seen := make(map[uintptr]any)
	return cloneValue(v, hook, seen)
}

func identity(v any) (uintptr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

func cloneValue(v any, hook CloneHook, seen map[uintptr]any) any {
	if hook != nil {
		if out, handled := hook(v); handled {
			return out
		}
	}

	if ptr, ok := identity(v); ok {
		if c, ok := seen[ptr]; ok {
			return c
		}
	}

	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		if ptr, ok := identity(v); ok {
			seen[ptr] = out
		}
		for k, val := range x {
			out[k] = cloneValue(val, hook, seen)
		}
		return out
	case []any:
		out := make([]any, len(x))
		if ptr, ok := identity(v); ok {
			seen[ptr] = out
		}
		for i, val := range x {
			out[i] = cloneValue(val, hook, seen)
		}
		return out
	case *container.MapPairs:
		out := &container.MapPairs{Pairs: make([]container.KV, len(x.Pairs))}
		if ptr, ok := identity(v); ok {
			seen[ptr] = out
		}
		for i, kv := range x.Pairs {
			out.Pairs[i] = container.KV{
				Key:   cloneValue(kv.Key, hook, seen),
				Value: cloneValue(kv.Value, hook, seen),
			}
		}
		return out
	case *container.SetValues:
		out := &container.SetValues{Values: make([]any, len(x.Values))}
		if ptr, ok := identity(v); ok {
			seen[ptr] = out
		}
		for i, val := range x.Values {
			out.Values[i] = cloneValue(val, hook, seen)
		}
		return out
	default:
		return v
	}
}
