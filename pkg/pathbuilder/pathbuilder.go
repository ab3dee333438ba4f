// Package pathbuilder is Chronicle's public path-construction API: a
// builder replacing the original selector-DSL (spec.md §9's REDESIGN
// FLAGS call for "builder-style path construction ... in place of a string
// selector micro-language", since a string DSL has no static typing story
// in Go and would need its own parser/validator to catch mistakes a builder
// catches at compile time).
package pathbuilder

import (
	"github.com/arcmantle/chronicle/internal/pathutil"
)

// Builder accumulates path segments. The zero value is the empty (root)
// path.
type Builder struct {
	segments pathutil.Path
}

// New starts a new, empty Builder.
func New() *Builder {
	return &Builder{}
}

// Field appends a named-field segment, for descending into a Record.
func (b *Builder) Field(name string) *Builder {
	return &Builder{segments: b.segments.Join(name)}
}

// Index appends an array-index segment, for descending into a Sequence.
func (b *Builder) Index(i int) *Builder {
	return &Builder{segments: b.segments.Join(pathutil.NormalizeKey(i))}
}

// Key appends the segment pathutil.NormalizeKey produces for an arbitrary
// key (string, number, or *pathutil.Symbol). MapColl/SetColl entries are not
// individually path-addressable: their changes carry the collection's own
// path, with the key reported separately (spec.md §3).
func (b *Builder) Key(key any) *Builder {
	return &Builder{segments: b.segments.Join(pathutil.NormalizeKey(key))}
}

// Build finalizes the path. The returned Path is an independent copy; the
// Builder can keep being extended afterward without mutating it.
func (b *Builder) Build() pathutil.Path {
	return b.segments.Clone()
}

// Parent returns a new Builder one segment shorter, or an unchanged empty
// Builder if already at the root.
func (b *Builder) Parent() *Builder {
	parent, _, ok := b.segments.Parent()
	if !ok {
		return &Builder{}
	}
	return &Builder{segments: parent.Clone()}
}

// Len reports how many segments have been accumulated.
func (b *Builder) Len() int { return len(b.segments) }
