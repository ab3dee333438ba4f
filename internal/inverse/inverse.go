// Package inverse implements Chronicle's undo/redo replay (spec.md §4.I):
// applying a changelog.Entry's inverse (undo) or its forward effect (redo)
// back onto the live container tree, under write-suspension so the replay
// itself does not re-enter the change log.
package inverse

import (
	"github.com/arcmantle/chronicle/internal/changelog"
	"github.com/arcmantle/chronicle/internal/container"
)

// Direction selects whether Apply inverts an entry (Undo) or replays its
// forward effect (Redo).
type Direction int

const (
	Undo Direction = iota
	Redo
)

// Apply replays entry onto root in direction dir. The caller is responsible
// for write-suspension (root.Suspended() during the call) and for assigning
// entry a fresh group id/timestamp on redo (spec.md §4.I: "redo re-records
// under a new group id and timestamp, not the original").
//
// Unreachable paths (a parent was itself deleted by an intervening
// operation) are a silent no-op, matching spec.md §7's InvariantViolation
// policy for undo/redo.
func Apply(root container.Node, entry changelog.Entry, dir Direction) {
	if entry.Collection != container.CollectionNone {
		applyCollection(root, entry, dir)
		return
	}

	switch dir {
	case Undo:
		undoScalar(root, entry)
	case Redo:
		redoScalar(root, entry)
	}
}

func undoScalar(root container.Node, entry changelog.Entry) {
	switch entry.Type {
	case changelog.Set:
		if !entry.ExistedBefore {
			container.DeleteAtPath(root, entry.Path)
			return
		}
		container.SetAtPath(root, entry.Path, container.FromRaw(entry.OldValue))
	case changelog.Delete:
		container.RestoreAtPath(root, entry.Path, container.FromRaw(entry.OldValue))
	}
}

func redoScalar(root container.Node, entry changelog.Entry) {
	switch entry.Type {
	case changelog.Set:
		container.SetAtPath(root, entry.Path, container.FromRaw(entry.NewValue))
	case changelog.Delete:
		container.DeleteAtPath(root, entry.Path)
	}
}

func applyCollection(root container.Node, entry changelog.Entry, dir Direction) {
	target, ok := container.GetAtPath(root, entry.Path)
	if !ok {
		return
	}

	switch c := target.(type) {
	case *container.MapColl:
		applyMapColl(c, entry, dir)
	case *container.SetColl:
		applySetColl(c, entry, dir)
	}
}

func applyMapColl(c *container.MapColl, entry changelog.Entry, dir Direction) {
	switch dir {
	case Undo:
		switch entry.Type {
		case changelog.Set:
			if !entry.ExistedBefore {
				c.Delete(entry.Key)
				return
			}
			c.Set(entry.Key, container.FromRaw(entry.OldValue))
		case changelog.Delete:
			c.Set(entry.Key, container.FromRaw(entry.OldValue))
		}
	case Redo:
		switch entry.Type {
		case changelog.Set:
			c.Set(entry.Key, container.FromRaw(entry.NewValue))
		case changelog.Delete:
			c.Delete(entry.Key)
		}
	}
}

func applySetColl(c *container.SetColl, entry changelog.Entry, dir Direction) {
	switch dir {
	case Undo:
		switch entry.Type {
		case changelog.Set:
			c.Delete(entry.Key)
		case changelog.Delete:
			c.Add(entry.Key)
		}
	case Redo:
		switch entry.Type {
		case changelog.Set:
			c.Add(entry.Key)
		case changelog.Delete:
			c.Delete(entry.Key)
		}
	}
}

// EntriesForGroup returns the entries in log that belong to groupID, in
// original log order — the unit undo/redo operate on (spec.md §4.I: "undo
// always rewinds one full group at a time, in reverse order within it").
func EntriesForGroup(log *changelog.Log, groupID string) []changelog.Entry {
	var out []changelog.Entry
	for i := 0; i < log.Len(); i++ {
		if e := log.At(i); e.GroupID == groupID {
			out = append(out, e)
		}
	}
	return out
}

// Reversed returns entries in reverse order, the order Undo must apply them
// in so that an earlier entry's precondition (e.g. a field that a later
// entry in the same group went on to delete) is restored before it is
// needed.
func Reversed(entries []changelog.Entry) []changelog.Entry {
	out := make([]changelog.Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
