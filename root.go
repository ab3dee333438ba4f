// Package chronicle is an in-process state-observation engine: it wraps a
// mutable object graph of records, sequences, keyed maps, and unique-value
// sets, intercepts every mutation to record it in a linear change log,
// notifies path-scoped subscribers, and can replay or invert changes to
// support undo/redo, rollback, pristine-diff, and three-way merge.
//
// Unlike the reflective-proxy engine this package's subsystems are
// grounded on, Go has no transparent property interception: Root wraps an
// explicit container tree (internal/container) built with container.NewRecord
// et al., and every mutation goes through a container method (Record.Set,
// Sequence.Push, MapColl.Set, ...) rather than a proxy trap. Root implements
// container.Recorder, the narrow interface those container methods call
// back into.
package chronicle

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/arcmantle/chronicle/internal/changelog"
	"github.com/arcmantle/chronicle/internal/container"
	"github.com/arcmantle/chronicle/internal/dispatch"
	"github.com/arcmantle/chronicle/internal/grouping"
	"github.com/arcmantle/chronicle/internal/pathutil"
	"github.com/arcmantle/chronicle/internal/registry"
	"github.com/arcmantle/chronicle/internal/snapshot"
	"github.com/arcmantle/chronicle/internal/trie"
	"github.com/arcmantle/chronicle/internal/txn"
)

// roots is the process-wide identity registry backing New's re-wrap
// idempotency (spec.md §6: "Re-wrapping returns the same wrapper"). It is
// keyed on raw's own pointer identity (the map/slice/pointer the caller
// passed in), never on the *Root we build around it, so New can recognize
// "this exact raw value was already wrapped" without the raw value needing
// to carry any Chronicle-specific marker of its own.
var roots = registry.NewTable[Root]()

// Root is the owner of one observed object graph: its change log, redo
// buffer, grouping state, listener trie and dispatch queue, batch/transaction
// stack, and pristine snapshot. Every per-root structure the original engine
// keeps in a WeakMap keyed by root identity (spec.md §3/§4.B) is instead an
// ordinary field here, since a Root already *is* the per-root identity —
// there is no separate host object it shadows.
type Root struct {
	mu     sync.Mutex
	logger *zap.Logger
	cfg    Config

	tree container.Node

	log      changelog.Log
	redo     []changelog.Entry
	grouping grouping.State

	trie        *trie.Trie
	listeners   map[trie.ID]*dispatch.Listener
	listenerSeq uint64
	queue       dispatch.Queue

	batch txn.Stack

	suspendDepth int

	pristine    any
	hasPristine bool
	pristineSF  singleflight.Group
}

var _ container.Recorder = (*Root)(nil)
var _ txn.Controller = (*Root)(nil)

// New wraps raw as the root of an observed graph. raw is either a detached
// container.Node (built with container.NewRecord/NewSequence/NewMapColl/
// NewSetColl) or a plain Go value of the shape container.FromRaw accepts
// (map[string]any, []any, *container.MapPairs, *container.SetValues).
//
// Re-wrapping the identical raw value (the same map, slice, or pointer,
// not merely an equal one) returns the existing *Root instead of building
// a second one around it (spec.md §6: "Re-wrapping returns the same
// wrapper"), via the roots identity registry. opts passed to a re-wrap
// call are ignored, same as calling New a second time on an already-live
// root would be pointless to re-configure through; use Configure instead.
// Values with no stable reference identity (scalars, structs passed by
// value) have nothing for the registry to key on and are simply wrapped
// fresh every time.
func New(raw any, opts ...Option) (*Root, error) {
	if key, ok := registry.IdentityKey(raw); ok {
		if existing, found := roots.Lookup(key); found {
			return existing, nil
		}
	}

	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	node, ok := raw.(container.Node)
	if !ok {
		built := container.FromRaw(raw)
		node, ok = built.(container.Node)
		if !ok {
			return nil, fmt.Errorf("chronicle: New requires a record, sequence, map, or set at the root, got %T", raw)
		}
	}

	r := &Root{
		cfg:       cfg,
		logger:    cfg.logger.Named("chronicle"),
		trie:      trie.New(),
		listeners: make(map[trie.ID]*dispatch.Listener),
	}
	container.Attach(node, r, r, pathutil.Path{})
	r.tree = node
	r.markPristine()

	if key, ok := registry.IdentityKey(raw); ok {
		roots.Store(key, r)
	}
	return r, nil
}

// Configure updates r's options in place (spec.md §6's configure(obj,
// options)).
func (r *Root) Configure(opts ...Option) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range opts {
		o(&r.cfg)
	}
}

// Tree exposes the live root container node, for callers that mutate
// through container methods directly (container.NewRecord(...).Set(...),
// etc.) rather than through a selector-style API.
func (r *Root) Tree() container.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree
}

// Unwrap returns the raw (plain Go value) shape of the observed graph.
func (r *Root) Unwrap() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.RawValue()
}

// --- container.Recorder ---

// Suspended reports whether recording and dispatch are currently disabled
// (undo/redo replay in progress).
func (r *Root) Suspended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suspendDepth > 0
}

func (r *Root) suspend() {
	r.mu.Lock()
	r.suspendDepth++
	r.mu.Unlock()
}

func (r *Root) unsuspend() {
	r.mu.Lock()
	r.suspendDepth--
	r.mu.Unlock()
}

func (r *Root) RecordSet(path pathutil.Path, old, new any, existedBefore bool) {
	r.recordEntry(changelog.Entry{
		Path: path, Type: changelog.Set,
		OldValue: r.cloneValue(old), NewValue: r.cloneValue(new),
		ExistedBefore: existedBefore,
	})
}

func (r *Root) RecordDelete(path pathutil.Path, old any) {
	r.recordEntry(changelog.Entry{
		Path: path, Type: changelog.Delete, OldValue: r.cloneValue(old),
	})
}

func (r *Root) RecordCollectionSet(path pathutil.Path, coll container.Collection, key, old, new any, existedBefore bool) {
	r.recordEntry(changelog.Entry{
		Path: path, Type: changelog.Set, Collection: coll, Key: key,
		OldValue: r.cloneValue(old), NewValue: r.cloneValue(new),
		ExistedBefore: existedBefore,
	})
}

func (r *Root) RecordCollectionDelete(path pathutil.Path, coll container.Collection, key, old any) {
	r.recordEntry(changelog.Entry{
		Path: path, Type: changelog.Delete, Collection: coll, Key: key,
		OldValue: r.cloneValue(old),
	})
}

// RecordArrayShrink synthesizes one delete record per removed tail index,
// all sharing one group (spec.md §4.D/§4.H).
func (r *Root) RecordArrayShrink(basePath pathutil.Path, removedFromIndex int, removed []any) {
	if r.Suspended() || len(removed) == 0 {
		return
	}
	gid := r.groupForNewEntry(time.Now())
	now := time.Now()
	for i, v := range removed {
		idxPath := basePath.Join(strconv.Itoa(removedFromIndex + i))
		e := changelog.Entry{
			Path: idxPath, Type: changelog.Delete, OldValue: r.cloneValue(v),
			GroupID: gid, Timestamp: now,
		}
		r.appendAndDispatch(e)
	}
}

// InvalidateBelow is a no-op in this port: spec.md §4.H's proxy cache
// invalidation exists to keep transient wrapper identity stable across
// repeated reads of the same path. Container nodes here already have that
// stable identity by construction (a Record's field holds the same *Record
// pointer across reads until it is itself replaced), so there is no wrapper
// cache to invalidate.
func (r *Root) InvalidateBelow(pathutil.Path, bool) {}

// cloneValue honors the configured clone hook for a just-recorded value, so
// that oldValue/newValue survive independent of future graph mutations
// (spec.md §3's invariant and §9's Open Question: this port's consistent
// policy is "clone at record time" using internal/snapshot).
func (r *Root) cloneValue(v any) any {
	r.mu.Lock()
	hook := r.cfg.Clone
	r.mu.Unlock()
	return snapshot.Clone(v, hook)
}

func (r *Root) groupForNewEntry(now time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame, open := r.batch.Top()
	frameID := ""
	if open {
		frameID = frame.GroupID
	}
	cfg := grouping.Config{MergeUngrouped: r.cfg.MergeUngrouped, MergeWindowMs: r.cfg.MergeWindowMs}
	return r.grouping.ActiveGroupID(frameID, open, cfg, now)
}

// recordEntry implements spec.md §4.D's append/filter/compact/trim pipeline
// for a freshly observed mutation, then dispatches to affected listeners.
func (r *Root) recordEntry(e changelog.Entry) {
	if r.Suspended() {
		return
	}
	now := time.Now()
	e.GroupID = r.groupForNewEntry(now)
	e.Timestamp = now

	r.mu.Lock()
	r.redo = nil // spec.md §4.D: "any forward mutation clears the redo log"
	cfg := changelog.Config{
		Filter:                     r.cfg.Filter,
		CompactConsecutiveSamePath: r.cfg.CompactConsecutiveSamePath,
		MaxHistory:                 r.cfg.MaxHistory,
	}
	appended, _ := r.log.Append(e, cfg)
	r.mu.Unlock()

	if r.logger.Core().Enabled(zap.DebugLevel) {
		r.logger.Debug("recorded change",
			zap.String("path", e.Path.String()), zap.String("type", e.Type.String()),
			zap.String("group", e.GroupID), zap.Bool("appended", appended))
	}
	if !appended {
		return
	}
	r.dispatchEntry(e)
}

// appendAndDispatch appends e directly (bypassing filter/compaction, as
// recordArrayShrink's synthesized deletes are exempt from both — spec.md
// §4.D) and dispatches it.
func (r *Root) appendAndDispatch(e changelog.Entry) {
	r.mu.Lock()
	r.redo = nil
	r.log.AppendRaw(e)
	r.mu.Unlock()
	r.dispatchEntry(e)
}

func (r *Root) dispatchEntry(e changelog.Entry) {
	r.mu.Lock()
	affinity := r.trie.Affinity(e.Path)
	listeners := make([]*dispatch.Listener, 0, len(affinity))
	for id := range affinity {
		if l, ok := r.listeners[id]; ok {
			listeners = append(listeners, l)
		}
	}
	r.mu.Unlock()

	meta := dispatch.Meta{
		Type: e.Type.String(), ExistedBefore: e.ExistedBefore,
		GroupID: e.GroupID, Collection: e.Collection, Key: e.Key,
	}
	for _, l := range listeners {
		l := l
		r.queue.Dispatch(func() { l.Deliver(e.Path, e.NewValue, e.OldValue, meta) })
	}
}

// --- listener registration (spec.md §6) ---

// Listen registers cb under path in mode, returning an idempotent
// unsubscribe function. An empty path registers a global listener
// regardless of mode.
func (r *Root) Listen(path pathutil.Path, mode trie.Mode, cb dispatch.Callback, opts dispatch.Options) func() {
	r.mu.Lock()
	r.listenerSeq++
	id := trie.ID(fmt.Sprintf("l%d-%s", r.listenerSeq, uuid.NewString()))

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.listeners, id)
			r.trie.Unsubscribe(path, mode, id)
			r.mu.Unlock()
		})
	}

	r.listeners[id] = dispatch.Wrap(cb, opts, unsub)
	r.trie.Subscribe(path, mode, id)
	r.mu.Unlock()
	return unsub
}

// OnAny registers a global listener, firing on every change regardless of
// path (spec.md §9's Open Question: onAny collapses to the empty-path
// global registration).
func (r *Root) OnAny(cb dispatch.Callback, opts dispatch.Options) func() {
	return r.Listen(pathutil.Path{}, trie.ModeDown, cb, opts)
}

// --- pause/resume/flush ---

func (r *Root) Pause()         { r.queue.Pause() }
func (r *Root) Resume()        { r.queue.Resume() }
func (r *Root) Flush()         { r.queue.Flush() }
func (r *Root) IsPaused() bool { return r.queue.Paused() }

// --- history ---

// GetHistory returns a copy of the change log.
func (r *Root) GetHistory() []changelog.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]changelog.Entry, r.log.Len())
	copy(out, r.log.Entries())
	return out
}

// ClearHistory empties the change log, redo buffer, and grouping state.
func (r *Root) ClearHistory() {
	r.mu.Lock()
	r.log.Clear()
	r.redo = nil
	r.grouping.Reset()
	r.mu.Unlock()
}

// --- pristine / snapshot / diff ---

// Snapshot returns a deep clone of the current graph.
func (r *Root) Snapshot() any {
	return snapshot.Clone(r.Unwrap(), r.cfg.Clone)
}

// MarkPristine captures (or refreshes) the baseline used by Diff, Reset,
// and Merge. Concurrent callers coalesce onto one clone via singleflight,
// since cloning a large graph is the expensive part and multiple callers
// racing to mark pristine at the same instant want the same result, not
// duplicated work.
func (r *Root) MarkPristine() {
	_, _, _ = r.pristineSF.Do("pristine", func() (any, error) {
		r.markPristine()
		return nil, nil
	})
}

func (r *Root) markPristine() {
	raw := r.Unwrap()
	cloned := snapshot.Clone(raw, r.cfg.Clone)
	r.mu.Lock()
	r.pristine = cloned
	r.hasPristine = true
	r.mu.Unlock()
}

// Diff returns the structural difference between the pristine snapshot and
// the current graph; empty if there is no pristine snapshot yet.
func (r *Root) Diff() []snapshot.Record {
	r.mu.Lock()
	has := r.hasPristine
	pristine := r.pristine
	r.mu.Unlock()
	if !has {
		return nil
	}
	return snapshot.Diff(pristine, r.Unwrap(), snapshot.Options{Compare: r.cfg.Compare, Filter: r.cfg.DiffFilter})
}

// IsPristine reports whether Diff is empty.
func (r *Root) IsPristine() bool {
	return snapshot.IsEmpty(r.Diff())
}

// Reset replaces the observed graph with a fresh copy of the pristine
// snapshot. If no pristine snapshot has ever been captured, Reset falls
// back to MarkPristine instead (spec.md §7), since "reset to the baseline"
// is vacuously true for a root that has never diverged from one.
func (r *Root) Reset() error {
	r.mu.Lock()
	has := r.hasPristine
	pristine := r.pristine
	r.mu.Unlock()
	if !has {
		r.MarkPristine()
		return nil
	}

	fresh := container.FromRaw(snapshot.Clone(pristine, r.cfg.Clone))
	node, ok := fresh.(container.Node)
	if !ok {
		return fmt.Errorf("%w: pristine snapshot is not a record/sequence/map/set at its root", ErrPreconditionFailure)
	}

	r.suspend()
	container.Attach(node, r, r, pathutil.Path{})
	r.mu.Lock()
	r.tree = node
	r.mu.Unlock()
	r.unsuspend()
	return nil
}
