package container

// FromRaw converts a plain Go value produced by Node.RawValue (or supplied
// directly by a caller as the initial shape to Wrap) into a detached
// container tree: map[string]any becomes a Record, []any becomes a
// Sequence, *MapPairs becomes a MapColl, *SetValues becomes a SetColl, and
// anything else is treated as an already-scalar leaf. The result is
// detached (Owner() == nil) until Attach is called on it.
//
// Note: Go's map[string]any has no defined iteration order, so a Record
// built from one has field order in (Go) map-iteration order, not
// insertion order. Callers that care about stable field order should build
// the tree with NewRecord + Set directly instead of round-tripping through
// a plain map.
func FromRaw(v any) any {
	switch x := v.(type) {
	case map[string]any:
		r := NewRecord()
		for k, val := range x {
			r.order = append(r.order, k)
			r.fields[k] = FromRaw(val)
		}
		return r
	case []any:
		s := NewSequence()
		s.items = make([]any, len(x))
		for i, val := range x {
			s.items[i] = FromRaw(val)
		}
		return s
	case *MapPairs:
		m := NewMapColl()
		for _, kv := range x.Pairs {
			m.keys = append(m.keys, kv.Key)
			m.m[kv.Key] = FromRaw(kv.Value)
		}
		return m
	case *SetValues:
		s := NewSetColl()
		for _, val := range x.Values {
			s.values = append(s.values, val)
			s.m[val] = struct{}{}
		}
		return s
	default:
		return v
	}
}
