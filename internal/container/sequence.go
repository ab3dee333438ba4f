package container

import (
	"strconv"

	"github.com/arcmantle/chronicle/internal/pathutil"
)

// Sequence is an ordered list (the Go analogue of a JS array under
// observation).
type Sequence struct {
	base
	items []any
}

// NewSequence constructs a detached Sequence.
func NewSequence() *Sequence { return &Sequence{} }

func (s *Sequence) Kind() Kind { return KindSequence }
func (s *Sequence) Len() int   { return len(s.items) }

// Get returns the element at i, or ok=false if out of range.
func (s *Sequence) Get(i int) (any, bool) {
	if i < 0 || i >= len(s.items) {
		return nil, false
	}
	return s.items[i], true
}

func idxKey(i int) string { return strconv.Itoa(i) }

// Set assigns index i (which must be <= len(s.items); use Push to extend by
// one). Records a `set` the same way Record.Set does.
func (s *Sequence) Set(i int, value any) {
	existed := i < len(s.items)
	var old any
	if existed {
		old = s.items[i]
	}
	childPath := s.path.Join(idxKey(i))
	attached := attach(value, s.owner, s.rec, childPath)

	if existed {
		s.items[i] = attached
	} else if i == len(s.items) {
		s.items = append(s.items, attached)
	} else {
		panic("container: sequence Set index out of range; use Push to extend")
	}

	if s.rec == nil || s.rec.Suspended() {
		return
	}
	var oldRaw any
	if existed {
		oldRaw = rawOf(old)
	}
	s.rec.RecordSet(childPath, oldRaw, rawOf(attached), existed)
	s.rec.InvalidateBelow(childPath, false)
}

// Push appends value, equivalent to Set(Len(), value).
func (s *Sequence) Push(value any) {
	s.Set(len(s.items), value)
}

// Delete removes the element at index i via splice (shifting subsequent
// elements down) so no sparse hole is left, per spec.md §4.A/§4.H. Emits one
// `delete` record for the removed element.
func (s *Sequence) Delete(i int) {
	if i < 0 || i >= len(s.items) {
		return
	}
	old := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.reindexFrom(i)

	childPath := s.path.Join(idxKey(i))
	if s.rec == nil || s.rec.Suspended() {
		return
	}
	s.rec.RecordDelete(childPath, rawOf(old))
	s.rec.InvalidateBelow(s.path, true)
}

// Splice inserts value at index i (without removing anything), shifting
// subsequent elements up. Used by the inverse engine to re-splice a deleted
// element back into place.
func (s *Sequence) Splice(i int, value any) {
	if i < 0 || i > len(s.items) {
		panic("container: sequence Splice index out of range")
	}
	childPath := s.path.Join(idxKey(i))
	attached := attach(value, s.owner, s.rec, childPath)

	s.items = append(s.items, nil)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = attached
	s.reindexFrom(i)

	if s.rec == nil || s.rec.Suspended() {
		return
	}
	s.rec.RecordSet(childPath, nil, rawOf(attached), false)
	s.rec.InvalidateBelow(s.path, true)
}

// SetLength truncates or extends the sequence. Shrinking captures the
// removed tail BEFORE mutation and, immediately after the implicit length
// change, synthesizes one `delete` record per removed index (spec.md §4.H).
// Growing pads with nil without emitting records (no prior host ever
// observed those slots).
func (s *Sequence) SetLength(n int) {
	if n < 0 {
		panic("container: negative length")
	}
	if n >= len(s.items) {
		for len(s.items) < n {
			s.items = append(s.items, nil)
		}
		return
	}

	removed := make([]any, len(s.items)-n)
	for i := n; i < len(s.items); i++ {
		removed[i-n] = rawOf(s.items[i])
	}
	removedFrom := n
	s.items = s.items[:n]

	if s.rec == nil || s.rec.Suspended() {
		return
	}
	s.rec.RecordArrayShrink(s.path, removedFrom, removed)
	s.rec.InvalidateBelow(s.path, true)
}

func (s *Sequence) reindexFrom(i int) {
	for ; i < len(s.items); i++ {
		s.items[i] = rewritePathIndex(s.items[i], s.owner, s.rec, s.path, i)
	}
}

// rewritePathIndex re-attaches a nested node at its new index path after a
// splice shifted it; scalars pass through untouched.
func rewritePathIndex(v any, owner any, rec Recorder, base pathutil.Path, i int) any {
	if _, ok := v.(Node); !ok {
		return v
	}
	return attach(v, owner, rec, base.Join(idxKey(i)))
}

// RawValue recursively unwraps into a plain []any.
func (s *Sequence) RawValue() any {
	out := make([]any, len(s.items))
	for i, v := range s.items {
		out[i] = rawOf(v)
	}
	return out
}
