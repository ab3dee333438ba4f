package container

import "github.com/arcmantle/chronicle/internal/pathutil"

// childGet/childSet/childDelete are the path-addressable primitives of
// spec.md §4.A (parentAndKey/setAt/deleteAt), restricted to Record and
// Sequence: keyed-map and unique-set entries are not individually
// path-addressable (spec.md §3 — their mutations carry the collection's own
// path plus a separate key).

func childGet(n Node, seg string) (any, bool) {
	switch c := n.(type) {
	case *Record:
		return c.Get(seg)
	case *Sequence:
		idx, ok := pathutil.AsArrayIndex(seg)
		if !ok {
			return nil, false
		}
		return c.Get(idx)
	default:
		return nil, false
	}
}

func childSet(n Node, seg string, value any) {
	switch c := n.(type) {
	case *Record:
		c.Set(seg, value)
	case *Sequence:
		idx, ok := pathutil.AsArrayIndex(seg)
		if !ok {
			panic("container: sequence path segment is not an array index: " + seg)
		}
		for c.Len() < idx {
			c.Push(nil)
		}
		if idx == c.Len() {
			c.Push(value)
		} else {
			c.Set(idx, value)
		}
	default:
		panic("container: cannot set a child on a non-record/sequence node")
	}
}

func childDelete(n Node, seg string) {
	switch c := n.(type) {
	case *Record:
		c.Delete(seg)
	case *Sequence:
		if idx, ok := pathutil.AsArrayIndex(seg); ok {
			c.Delete(idx)
		}
	}
}

// GetAtPath walks path from root without synthesizing anything, returning
// ok=false (an InvariantViolation per spec.md §7, handled as a silent
// no-op by callers) if any intermediate segment is missing or not a
// container.
func GetAtPath(root Node, path pathutil.Path) (any, bool) {
	cur := any(root)
	for _, seg := range path {
		n, ok := cur.(Node)
		if !ok {
			return nil, false
		}
		child, ok := childGet(n, seg)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// EnsureParents materializes missing intermediate containers along path's
// parent chain (spec.md §4.A): the synthesized kind is a Sequence if the
// next segment looks like an array index, a Record otherwise. Returns the
// immediate parent container node for path's final segment, or false if
// root itself is not an addressable container (should not happen for a
// well-formed tree).
func EnsureParents(root Node, path pathutil.Path) (Node, bool) {
	cur := root
	for i := 0; i < len(path)-1; i++ {
		seg := path[i]
		var childNode Node
		if child, ok := childGet(cur, seg); ok {
			childNode, _ = child.(Node)
		}
		if childNode == nil {
			next := path[i+1]
			var fresh any
			if pathutil.IsArrayIndex(next) {
				fresh = NewSequence()
			} else {
				fresh = NewRecord()
			}
			childSet(cur, seg, fresh)
			reGet, ok := childGet(cur, seg)
			if !ok {
				return nil, false
			}
			childNode, ok = reGet.(Node)
			if !ok {
				return nil, false
			}
		}
		cur = childNode
	}
	return cur, true
}

// SetAtPath sets the value at path, materializing missing parents first.
// path must be non-empty (the root itself is assigned by Wrap, not this
// function).
func SetAtPath(root Node, path pathutil.Path, value any) bool {
	if len(path) == 0 {
		return false
	}
	parent, ok := EnsureParents(root, path)
	if !ok {
		return false
	}
	_, last, _ := path.Parent()
	childSet(parent, last, value)
	return true
}

// RestoreAtPath reinserts value at path the way spec.md §4.I's delete-undo
// requires: for a Sequence element this re-splices value back into the
// index (shifting later elements up again), since the earlier delete
// already shifted everything after it down to close the gap — a plain
// SetAtPath at that index would silently overwrite the element that
// slid into it rather than restoring the deleted one. For a Record (or
// any other addressable parent) there is no shifting to undo, so this is
// equivalent to SetAtPath.
func RestoreAtPath(root Node, path pathutil.Path, value any) bool {
	if len(path) == 0 {
		return false
	}
	parent, ok := EnsureParents(root, path)
	if !ok {
		return false
	}
	_, last, _ := path.Parent()
	if seq, ok := parent.(*Sequence); ok {
		if idx, ok := pathutil.AsArrayIndex(last); ok {
			if idx > seq.Len() {
				idx = seq.Len()
			}
			seq.Splice(idx, value)
			return true
		}
	}
	childSet(parent, last, value)
	return true
}

// DeleteAtPath deletes the value at path. Missing parents are a silent
// no-op (spec.md §7 InvariantViolation policy: partial graphs during
// recovery must not crash).
func DeleteAtPath(root Node, path pathutil.Path) {
	if len(path) == 0 {
		return
	}
	parentPath, last, _ := path.Parent()
	parentAny, ok := GetAtPath(root, parentPath)
	if !ok {
		return
	}
	parent, ok := parentAny.(Node)
	if !ok {
		return
	}
	childDelete(parent, last)
}
