// Package container implements Chronicle's mutation interception layer
// (spec.md §4.H) as an explicit container abstraction rather than a
// reflective proxy: spec.md §9 prescribes this re-architecture for
// statically typed hosts. A Record is a named-field object, a Sequence is an
// ordered list, a MapColl is a keyed map à la JS Map (arbitrary comparable
// keys, not just strings), and a SetColl is a unique-value set. Scalars are
// plain Go values (string, int, float64, bool, nil, or any other leaf type)
// and are never wrapped.
package container

import "github.com/arcmantle/chronicle/internal/pathutil"

// Kind discriminates the four container variants.
type Kind int

const (
	KindRecord Kind = iota
	KindSequence
	KindMap
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Collection tags a change record as concerning a keyed map or unique-value
// set mutation (spec.md §3); zero value means "not a collection mutation".
type Collection int

const (
	CollectionNone Collection = iota
	CollectionMap
	CollectionSet
)

// Node is the common surface of every container variant.
type Node interface {
	Kind() Kind
	Path() pathutil.Path
	// Owner returns the opaque root that owns this node's tree (normally a
	// *chronicle.Root), or nil if the node has not yet been attached to one.
	Owner() any
	// RawValue recursively unwraps the node into plain Go values
	// (map[string]any, []any, a *MapPairs, or a *SetValues) suitable for
	// snapshot/diff/pristine storage, independent of container identity.
	RawValue() any
}

// Recorder is implemented by the owning root (chronicle.Root) and is the
// only way container mutation methods talk back to the change log,
// grouping, listener dispatch, and proxy cache. Keeping this as a narrow
// interface (rather than importing changelog/trie/dispatch directly) avoids
// a dependency cycle between the container tree and the engine that drives
// it.
type Recorder interface {
	// Suspended reports whether recording and dispatch are currently
	// disabled (write-suspension active during undo/redo/reset replay).
	Suspended() bool

	RecordSet(path pathutil.Path, old, new any, existedBefore bool)
	RecordDelete(path pathutil.Path, old any)
	RecordCollectionSet(path pathutil.Path, coll Collection, key, old, new any, existedBefore bool)
	RecordCollectionDelete(path pathutil.Path, coll Collection, key, old any)

	// RecordArrayShrink synthesizes one `delete` record per removed tail
	// index (spec.md §4.D's recordArrayShrink), all sharing one group, after
	// a sequence's length was reduced. removedFromIndex is the index of the
	// first removed element; removed holds the captured pre-mutation raw
	// values in order.
	RecordArrayShrink(basePath pathutil.Path, removedFromIndex int, removed []any)

	// InvalidateBelow drops any cached wrapper at path and below; if
	// alsoParent is set (array-shrink case), the parent's cache entry is
	// dropped too.
	InvalidateBelow(path pathutil.Path, alsoParent bool)
}

// base is embedded by every concrete node and supplies the common fields.
type base struct {
	owner any
	path  pathutil.Path
	rec   Recorder
}

func (b *base) Path() pathutil.Path { return b.path }
func (b *base) Owner() any          { return b.owner }

// attach is called when a value is inserted into a parent container: it
// gives the child (if it is itself a Node) its owner, path, and recorder.
// Scalars pass through untouched.
func attach(v any, owner any, rec Recorder, path pathutil.Path) any {
	switch n := v.(type) {
	case *Record:
		n.owner, n.rec, n.path = owner, rec, path
		for _, k := range n.order {
			n.fields[k] = attach(n.fields[k], owner, rec, path.Join(k))
		}
		return n
	case *Sequence:
		n.owner, n.rec, n.path = owner, rec, path
		for i, v := range n.items {
			n.items[i] = attach(v, owner, rec, path.Join(pathutil.NormalizeKey(i)))
		}
		return n
	case *MapColl:
		n.owner, n.rec, n.path = owner, rec, path
		return n
	case *SetColl:
		n.owner, n.rec, n.path = owner, rec, path
		return n
	default:
		return v
	}
}

// Attach is the exported entry point used when a detached tree (built via
// the New* constructors, or reconstructed by the inverse engine) is spliced
// into an owned tree.
func Attach(v any, owner any, rec Recorder, path pathutil.Path) any {
	return attach(v, owner, rec, path)
}
