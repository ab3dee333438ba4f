// Package changelog implements Chronicle's append-only change log and
// recorder (spec.md §4.D): append, filter-based exclusion,
// same-path-within-group compaction, and group-coherent trimming.
package changelog

import (
	"time"

	"github.com/arcmantle/chronicle/internal/container"
	"github.com/arcmantle/chronicle/internal/pathutil"
)

// EntryType discriminates a change record's kind.
type EntryType int

const (
	Set EntryType = iota
	Delete
)

func (t EntryType) String() string {
	if t == Delete {
		return "delete"
	}
	return "set"
}

// Entry is one change-log record (spec.md §3).
type Entry struct {
	Path          pathutil.Path
	Type          EntryType
	OldValue      any
	NewValue      any
	ExistedBefore bool
	Timestamp     time.Time
	GroupID       string
	Collection    container.Collection
	Key           any
}

// Config bundles the options that affect recording (spec.md §4.D/§6).
type Config struct {
	Filter                     func(Entry) bool
	CompactConsecutiveSamePath bool
	MaxHistory                 int
}

// Log is the linear, append-only change log.
type Log struct {
	entries []Entry
}

func (l *Log) Len() int             { return len(l.entries) }
func (l *Log) Entries() []Entry     { return l.entries }
func (l *Log) At(i int) Entry       { return l.entries[i] }
func (l *Log) Clear()               { l.entries = nil }
func (l *Log) Truncate(n int)       { l.entries = l.entries[:n] }
func (l *Log) AppendRaw(e Entry)    { l.entries = append(l.entries, e) }

// isCompactExempt reports whether path's final segment is an array index or
// the literal "length" — spec.md §4.D excludes both from compaction.
func isCompactExempt(p pathutil.Path) bool {
	if len(p) == 0 {
		return false
	}
	last := p[len(p)-1]
	return pathutil.IsArrayIndex(last) || last == "length"
}

// Append implements spec.md §4.D steps 2-6: append, filter, compact, trim.
// Returns false if the entry was dropped by the filter (the root uses this
// to skip listener dispatch for a filtered entry).
// Compaction returning true still means "no new entry remains distinct in
// the log", which callers must also account for when tracking markers.
func (l *Log) Append(e Entry, cfg Config) (appended bool, compacted bool) {
	l.entries = append(l.entries, e)

	if cfg.Filter != nil && !cfg.Filter(e) {
		l.entries = l.entries[:len(l.entries)-1]
		return false, false
	}

	if cfg.CompactConsecutiveSamePath && len(l.entries) >= 2 {
		i := len(l.entries) - 1
		prev := &l.entries[i-1]
		last := l.entries[i]
		if prev.GroupID == last.GroupID &&
			prev.Path.Equal(last.Path) &&
			prev.Type == Set && last.Type == Set &&
			!isCompactExempt(last.Path) {
			prev.NewValue = last.NewValue
			prev.Timestamp = last.Timestamp
			l.entries = l.entries[:i]
			l.trim(cfg.MaxHistory)
			return true, true
		}
	}

	l.trim(cfg.MaxHistory)
	return true, false
}

// trim drops whole groups from the front of the log until its length is at
// most max, never splitting a group (spec.md §3/§4.D).
func (l *Log) trim(max int) {
	if max <= 0 || len(l.entries) <= max {
		return
	}
	i := 0
	for len(l.entries)-i > max {
		gid := l.entries[i].GroupID
		for i < len(l.entries) && l.entries[i].GroupID == gid {
			i++
		}
	}
	l.entries = append([]Entry(nil), l.entries[i:]...)
}

// TrailingGroupIDs returns up to n distinct group ids, in the order groups
// appear scanning from the end of the log backward — used by undoGroups.
func (l *Log) TrailingGroupIDs(n int) []string {
	seen := make(map[string]bool)
	var ids []string
	for i := len(l.entries) - 1; i >= 0 && len(ids) < n; i-- {
		gid := l.entries[i].GroupID
		if !seen[gid] {
			seen[gid] = true
			ids = append(ids, gid)
		}
	}
	return ids
}
