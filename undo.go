package chronicle

import (
	"time"

	"go.uber.org/zap"

	"github.com/arcmantle/chronicle/internal/changelog"
	"github.com/arcmantle/chronicle/internal/inverse"
)

// Mark returns the current log length, usable with UndoSince as "undo back
// to here".
func (r *Root) Mark() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Len()
}

// CanUndo reports whether the change log has anything to undo.
func (r *Root) CanUndo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.Len() > 0
}

// CanRedo reports whether the redo buffer has anything to replay.
func (r *Root) CanRedo() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.redo) > 0
}

// ClearRedo empties the redo buffer without touching the change log.
func (r *Root) ClearRedo() {
	r.mu.Lock()
	r.redo = nil
	r.mu.Unlock()
}

func clampSteps(requested, available int) int {
	if requested <= 0 || requested > available {
		return available
	}
	return requested
}

// Undo pops up to steps records from the end of the change log (or every
// record if steps <= 0) and inverts each one against the live graph, most
// recent first. The popped records move to the redo buffer in chronological
// order (spec.md §4.I: "pushing them onto the redo log ... in reverse-visit
// order" — undo visits newest-first, so the redo buffer ends up
// oldest-first, the order Redo must replay them in).
//
// Undo does not append anything new to the log: the records it consumes are
// simply gone from history until a matching Redo brings them back.
func (r *Root) Undo(steps int) {
	r.mu.Lock()
	n := clampSteps(steps, r.log.Len())
	entries := make([]changelog.Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = r.log.At(r.log.Len() - 1 - i)
	}
	r.log.Truncate(r.log.Len() - n)
	r.mu.Unlock()
	if n == 0 {
		return
	}

	r.logger.Debug("undo", zap.Int("steps", n))
	r.suspend()
	for _, e := range entries {
		inverse.Apply(r.tree, e, inverse.Undo)
	}
	r.unsuspend()

	r.mu.Lock()
	chronological := inverse.Reversed(entries)
	r.redo = append(chronological, r.redo...)
	r.mu.Unlock()

	for _, e := range entries {
		r.dispatchEntry(e)
	}
}

// UndoSince undoes back to a prior Mark.
func (r *Root) UndoSince(marker int) {
	r.mu.Lock()
	n := r.log.Len() - marker
	r.mu.Unlock()
	if n > 0 {
		r.Undo(n)
	}
}

// UndoGroups undoes entire trailing groups (default 1).
func (r *Root) UndoGroups(groups int) {
	if groups <= 0 {
		groups = 1
	}
	r.mu.Lock()
	ids := r.log.TrailingGroupIDs(groups)
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	n := 0
	for i := r.log.Len() - 1; i >= 0 && set[r.log.At(i).GroupID]; i-- {
		n++
	}
	r.mu.Unlock()
	r.Undo(n)
}

// Redo replays up to steps records from the front of the redo buffer (or
// every buffered record if steps <= 0) in their original chronological
// order, under one freshly allocated group id and a fresh timestamp (spec.md
// §4.I: "redo creates a new undo point"). The replay itself runs suspended,
// same as Undo (the container methods it drives must not record their own
// entries); Redo then appends its own freshly stamped copies of the replayed
// records to the log, which is how a redo becomes undoable again.
func (r *Root) Redo(steps int) {
	r.mu.Lock()
	n := clampSteps(steps, len(r.redo))
	entries := append([]changelog.Entry(nil), r.redo[:n]...)
	r.redo = r.redo[n:]
	r.mu.Unlock()
	if n == 0 {
		return
	}

	r.mu.Lock()
	gid := r.grouping.NextID()
	r.mu.Unlock()
	now := time.Now()

	r.logger.Debug("redo", zap.Int("steps", n), zap.String("group", gid))
	r.suspend()
	for _, e := range entries {
		inverse.Apply(r.tree, e, inverse.Redo)
	}
	r.unsuspend()

	for i := range entries {
		entries[i].GroupID = gid
		entries[i].Timestamp = now
	}
	r.mu.Lock()
	for _, e := range entries {
		r.log.AppendRaw(e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		r.dispatchEntry(e)
	}
}

// RedoGroups redoes entries from up to the first `groups` distinct groups at
// the front of the redo buffer (default 1).
func (r *Root) RedoGroups(groups int) {
	if groups <= 0 {
		groups = 1
	}
	r.mu.Lock()
	seen := make(map[string]bool, groups)
	n := 0
	for n < len(r.redo) {
		gid := r.redo[n].GroupID
		if !seen[gid] {
			if len(seen) == groups {
				break
			}
			seen[gid] = true
		}
		n++
	}
	r.mu.Unlock()
	r.Redo(n)
}
