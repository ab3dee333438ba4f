// Package registry is the Go analogue of the original engine's per-root
// WeakMap-keyed wrapper cache (spec.md §9's REDESIGN FLAGS call for "a
// process-wide append-only interner" in place of reflective per-call
// wrapping): given a raw map/slice/pointer value, it remembers the wrapper
// already built around it (the root package stores its *Root here), so
// re-observing the same value returns the same wrapper instead of
// constructing a duplicate. Entries are held by weak.Pointer and evicted via
// runtime.AddCleanup once the wrapper is collected, so the registry never
// keeps a wrapper (or,
// transitively, the raw value it wraps) alive on its own.
package registry

import (
	"reflect"
	"runtime"
	"sync"
	"weak"
)

// Key identifies a raw value by its runtime pointer. Two different Go values
// of reference-kind types never share a Key unless they are the same
// underlying map, slice header, pointer, channel, or function.
type Key uintptr

// IdentityKey derives the identity Key for v, if v is of a kind that has one.
// Scalars, strings, and structs passed by value report ok=false: they have
// no stable reference identity to key a cache on.
func IdentityKey(v any) (Key, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Ptr, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return 0, false
		}
		return Key(rv.Pointer()), true
	default:
		return 0, false
	}
}

// Table is a weak-reference cache from Key to *T, safe for concurrent use.
type Table[T any] struct {
	mu      sync.Mutex
	entries map[Key]weak.Pointer[T]
}

// NewTable constructs an empty Table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{entries: make(map[Key]weak.Pointer[T])}
}

// Lookup returns the cached value for key, if it is still live.
func (t *Table[T]) Lookup(key Key) (*T, bool) {
	t.mu.Lock()
	wp, ok := t.entries[key]
	t.mu.Unlock()
	if !ok {
		return nil, false
	}
	v := wp.Value()
	if v == nil {
		t.mu.Lock()
		delete(t.entries, key)
		t.mu.Unlock()
		return nil, false
	}
	return v, true
}

// Store registers value under key and arranges for the entry to be dropped
// once value is garbage collected.
func (t *Table[T]) Store(key Key, value *T) {
	t.mu.Lock()
	t.entries[key] = weak.Make(value)
	t.mu.Unlock()
	runtime.AddCleanup(value, t.evict, key)
}

func (t *Table[T]) evict(key Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if wp, ok := t.entries[key]; ok && wp.Value() == nil {
		delete(t.entries, key)
	}
}

// Len reports the number of entries currently tracked, live or not yet
// swept; intended for tests and diagnostics only.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
