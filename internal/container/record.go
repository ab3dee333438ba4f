package container

// Record is a named-field object (the Go analogue of a plain JS object
// under observation).
type Record struct {
	base
	fields map[string]any
	order  []string // insertion order, for stable RawValue/iteration
}

// NewRecord constructs a detached Record; it becomes live (recorded,
// dispatchable) once attached to a root via Wrap or inserted into an
// already-attached container.
func NewRecord() *Record {
	return &Record{fields: make(map[string]any)}
}

func (r *Record) Kind() Kind { return KindRecord }

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Get returns the value at key (a Node, for nested containers, or a
// scalar), and whether it existed.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Keys returns field names in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Record) Len() int { return len(r.order) }

// Set assigns key=value, recording a `set` change (spec.md §4.H) unless
// recording is suspended. value may itself be a detached container, which
// is attached under this record's path.
func (r *Record) Set(key string, value any) {
	old, existed := r.fields[key]
	childPath := r.path.Join(key)
	attached := attach(value, r.owner, r.rec, childPath)

	if !existed {
		r.order = append(r.order, key)
	}
	r.fields[key] = attached

	if r.rec == nil || r.rec.Suspended() {
		return
	}
	var oldRaw any
	if existed {
		oldRaw = rawOf(old)
	}
	r.rec.RecordSet(childPath, oldRaw, rawOf(attached), existed)
	r.rec.InvalidateBelow(childPath, false)
}

// Delete removes key using native map delete (records do not need
// splice-style hole avoidance; that is a sequence-specific concern). A
// `delete` record is emitted only if the key existed.
func (r *Record) Delete(key string) {
	old, existed := r.fields[key]
	if !existed {
		return
	}
	delete(r.fields, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	childPath := r.path.Join(key)
	if r.rec == nil || r.rec.Suspended() {
		return
	}
	r.rec.RecordDelete(childPath, rawOf(old))
	r.rec.InvalidateBelow(childPath, false)
}

// RawValue recursively unwraps into a plain map[string]any.
func (r *Record) RawValue() any {
	out := make(map[string]any, len(r.order))
	for _, k := range r.order {
		out[k] = rawOf(r.fields[k])
	}
	return out
}

func rawOf(v any) any {
	if n, ok := v.(Node); ok {
		return n.RawValue()
	}
	return v
}
