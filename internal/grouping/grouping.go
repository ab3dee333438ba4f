// Package grouping assigns each change a group id (spec.md §4.E): reuse
// the active batch frame's id, merge into the last ungrouped change's group
// within a time window, or allocate a fresh id.
package grouping

import (
	"strconv"
	"time"
)

// Config mirrors the relevant subset of spec.md §6 options.
type Config struct {
	MergeUngrouped bool
	MergeWindowMs  int
}

// State is per-root grouping state: the monotonic counter and the "last
// ungrouped change" marker.
type State struct {
	counter          uint64
	lastUngroupedID  string
	lastUngroupedAt  time.Time
	hasLastUngrouped bool
}

// NextID allocates a fresh, monotonically increasing group id.
func (s *State) NextID() string {
	s.counter++
	return "g" + strconv.FormatUint(s.counter, 10)
}

// ActiveGroupID resolves the group id a new ungrouped change should join,
// per spec.md §4.E: reuse the open batch frame's id if frameOpen; else
// merge into the last ungrouped group if enabled and within the window;
// else allocate fresh and remember it as the new "last ungrouped".
func (s *State) ActiveGroupID(frameID string, frameOpen bool, cfg Config, now time.Time) string {
	if frameOpen {
		return frameID
	}
	if cfg.MergeUngrouped && s.hasLastUngrouped &&
		now.Sub(s.lastUngroupedAt) <= time.Duration(cfg.MergeWindowMs)*time.Millisecond {
		s.lastUngroupedAt = now
		return s.lastUngroupedID
	}
	id := s.NextID()
	s.lastUngroupedID = id
	s.lastUngroupedAt = now
	s.hasLastUngrouped = true
	return id
}

// ForgetLastUngrouped clears the merge-window marker; called when a batch
// frame opens (spec.md §4.J: "beginBatch ... clears the 'last ungrouped'
// marker") so a subsequent top-level change never merges across the
// boundary of a batch that has already closed.
func (s *State) ForgetLastUngrouped() {
	s.hasLastUngrouped = false
}

// Reset clears all grouping state (used by clearHistory).
func (s *State) Reset() {
	*s = State{}
}
