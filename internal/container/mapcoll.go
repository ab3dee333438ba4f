package container

import "reflect"

// MapColl is a keyed map with arbitrary comparable keys (the Go analogue of
// a JS Map under observation): distinct from Record, whose keys are always
// string field names.
type MapColl struct {
	base
	keys []any
	m    map[any]any
}

// NewMapColl constructs a detached MapColl.
func NewMapColl() *MapColl {
	return &MapColl{m: make(map[any]any)}
}

func (c *MapColl) Kind() Kind { return KindMap }
func (c *MapColl) Len() int   { return len(c.keys) }

func (c *MapColl) Has(key any) bool {
	_, ok := c.m[key]
	return ok
}

func (c *MapColl) Get(key any) (any, bool) {
	v, ok := c.m[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (c *MapColl) Keys() []any {
	out := make([]any, len(c.keys))
	copy(out, c.keys)
	return out
}

// requireComparable panics with a clear message rather than letting a Go
// map operation panic opaquely on a non-comparable key (e.g. a slice).
func requireComparable(key any) {
	if key == nil {
		return
	}
	if !reflect.TypeOf(key).Comparable() {
		panic("container: map/set key is not comparable: " + reflect.TypeOf(key).String())
	}
}

// Set inserts or overwrites key=value, recording one `set` record tagged
// CollectionMap (spec.md §4.H).
func (c *MapColl) Set(key, value any) {
	requireComparable(key)
	old, existed := c.m[key]
	if !existed {
		c.keys = append(c.keys, key)
	}
	// MapColl values are not path-addressable individually (spec.md §3: "for
	// keyed-map/unique-set mutations, path is to the collection itself; the
	// affected key is separate"), so nested containers stored as values stay
	// attached under the collection's own path rather than a per-key path.
	attached := attach(value, c.owner, c.rec, c.path)
	c.m[key] = attached

	if c.rec == nil || c.rec.Suspended() {
		return
	}
	var oldRaw any
	if existed {
		oldRaw = rawOf(old)
	}
	c.rec.RecordCollectionSet(c.path, CollectionMap, key, oldRaw, rawOf(attached), existed)
	c.rec.InvalidateBelow(c.path, false)
}

// Delete removes key, emitting one `delete` record only if it existed.
func (c *MapColl) Delete(key any) {
	old, existed := c.m[key]
	if !existed {
		return
	}
	delete(c.m, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
	if c.rec == nil || c.rec.Suspended() {
		return
	}
	c.rec.RecordCollectionDelete(c.path, CollectionMap, key, rawOf(old))
	c.rec.InvalidateBelow(c.path, false)
}

// Clear empties the map, emitting one `delete` per entry, all sharing the
// active group id (the caller/engine is responsible for keeping the group
// stable across the loop; see internal/grouping).
func (c *MapColl) Clear() {
	keys := c.keys
	c.keys = nil
	vals := make([]any, len(keys))
	for i, k := range keys {
		vals[i] = c.m[k]
		delete(c.m, k)
	}
	if c.rec == nil || c.rec.Suspended() {
		return
	}
	for i, k := range keys {
		c.rec.RecordCollectionDelete(c.path, CollectionMap, k, rawOf(vals[i]))
	}
	c.rec.InvalidateBelow(c.path, false)
}

// RawValue unwraps to *MapPairs (ordered key/value pairs): map[string]any
// would silently lose non-string keys and insertion order.
func (c *MapColl) RawValue() any {
	pairs := &MapPairs{Pairs: make([]KV, len(c.keys))}
	for i, k := range c.keys {
		pairs.Pairs[i] = KV{Key: k, Value: rawOf(c.m[k])}
	}
	return pairs
}

// KV is one key/value pair of a snapshot MapColl.
type KV struct {
	Key   any
	Value any
}

// MapPairs is the RawValue shape of a MapColl: ordered key/value pairs.
type MapPairs struct {
	Pairs []KV
}
