package container

// SetColl is a unique-value set (the Go analogue of a JS Set under
// observation).
type SetColl struct {
	base
	values []any
	m      map[any]struct{}
}

// NewSetColl constructs a detached SetColl.
func NewSetColl() *SetColl {
	return &SetColl{m: make(map[any]struct{})}
}

func (c *SetColl) Kind() Kind { return KindSet }
func (c *SetColl) Len() int   { return len(c.values) }

func (c *SetColl) Has(value any) bool {
	_, ok := c.m[value]
	return ok
}

// Values returns the set's members in insertion order.
func (c *SetColl) Values() []any {
	out := make([]any, len(c.values))
	copy(out, c.values)
	return out
}

// Add inserts value if new, recording one `set` with existedBefore=false
// (spec.md §4.H). Adding an already-present value is a silent no-op, per
// spec: "records a set only if the value was new".
func (c *SetColl) Add(value any) {
	requireComparable(value)
	if _, existed := c.m[value]; existed {
		return
	}
	c.m[value] = struct{}{}
	c.values = append(c.values, value)

	if c.rec == nil || c.rec.Suspended() {
		return
	}
	c.rec.RecordCollectionSet(c.path, CollectionSet, value, nil, value, false)
	c.rec.InvalidateBelow(c.path, false)
}

// Delete removes value, emitting one `delete` record only if it was
// present.
func (c *SetColl) Delete(value any) {
	if _, existed := c.m[value]; !existed {
		return
	}
	delete(c.m, value)
	for i, v := range c.values {
		if v == value {
			c.values = append(c.values[:i], c.values[i+1:]...)
			break
		}
	}
	if c.rec == nil || c.rec.Suspended() {
		return
	}
	c.rec.RecordCollectionDelete(c.path, CollectionSet, value, value)
	c.rec.InvalidateBelow(c.path, false)
}

// Clear empties the set, emitting one `delete` per member, all sharing the
// active group id.
func (c *SetColl) Clear() {
	values := c.values
	c.values = nil
	for _, v := range values {
		delete(c.m, v)
	}
	if c.rec == nil || c.rec.Suspended() {
		return
	}
	for _, v := range values {
		c.rec.RecordCollectionDelete(c.path, CollectionSet, v, v)
	}
	c.rec.InvalidateBelow(c.path, false)
}

// RawValue unwraps to *SetValues: a plain []any would not by itself signal
// "this was a unique-value set" to diff/snapshot/inverse, which need to
// rebuild a SetColl (not a Sequence) when replaying history into a deleted
// branch.
func (c *SetColl) RawValue() any {
	out := make([]any, len(c.values))
	copy(out, c.values)
	return &SetValues{Values: out}
}

// SetValues is the RawValue shape of a SetColl.
type SetValues struct {
	Values []any
}
