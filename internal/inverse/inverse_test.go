package inverse

import (
	"testing"

	"github.com/arcmantle/chronicle/internal/changelog"
	"github.com/arcmantle/chronicle/internal/container"
	"github.com/arcmantle/chronicle/internal/pathutil"
)

type noopRecorder struct{ suspended bool }

func (r *noopRecorder) Suspended() bool { return r.suspended }
func (r *noopRecorder) RecordSet(pathutil.Path, any, any, bool)                               {}
func (r *noopRecorder) RecordDelete(pathutil.Path, any)                                       {}
func (r *noopRecorder) RecordCollectionSet(pathutil.Path, container.Collection, any, any, any, bool) {}
func (r *noopRecorder) RecordCollectionDelete(pathutil.Path, container.Collection, any, any)  {}
func (r *noopRecorder) RecordArrayShrink(pathutil.Path, int, []any)                           {}
func (r *noopRecorder) InvalidateBelow(pathutil.Path, bool)                                   {}

func newRoot() *container.Record {
	root := container.NewRecord()
	container.Attach(root, "owner", &noopRecorder{suspended: true}, pathutil.Path{})
	return root
}

func TestUndoSetRestoresOldValue(t *testing.T) {
	root := newRoot()
	root.Set("name", "alice")

	entry := changelog.Entry{
		Path: pathutil.Path{"name"}, Type: changelog.Set,
		OldValue: "previous", NewValue: "alice", ExistedBefore: true,
	}
	Apply(root, entry, Undo)

	got, _ := root.Get("name")
	if got != "previous" {
		t.Fatalf("got %v, want \"previous\"", got)
	}
}

func TestUndoSetWithoutPriorExistenceDeletes(t *testing.T) {
	root := newRoot()
	root.Set("name", "alice")

	entry := changelog.Entry{
		Path: pathutil.Path{"name"}, Type: changelog.Set,
		NewValue: "alice", ExistedBefore: false,
	}
	Apply(root, entry, Undo)

	if root.Has("name") {
		t.Fatal("undoing a first-time set should delete the field")
	}
}

func TestUndoDeleteRestoresValue(t *testing.T) {
	root := newRoot()

	entry := changelog.Entry{
		Path: pathutil.Path{"name"}, Type: changelog.Delete,
		OldValue: "alice",
	}
	Apply(root, entry, Undo)

	got, ok := root.Get("name")
	if !ok || got != "alice" {
		t.Fatalf("got %v, %v, want \"alice\", true", got, ok)
	}
}

func TestUndoSequenceDeleteReSplicesMidArrayElement(t *testing.T) {
	root := newRoot()
	seq := container.NewSequence()
	root.Set("items", seq)
	seq.Push("a")
	seq.Push("b")
	seq.Push("c")
	seq.Delete(1) // items is now ["a", "c"]; removed "b" at index 1

	entry := changelog.Entry{
		Path: pathutil.Path{"items", "1"}, Type: changelog.Delete,
		OldValue: "b",
	}
	Apply(root, entry, Undo)

	if seq.Len() != 3 {
		t.Fatalf("length = %d, want 3", seq.Len())
	}
	for i, want := range []string{"a", "b", "c"} {
		got, ok := seq.Get(i)
		if !ok || got != want {
			t.Fatalf("items[%d] = %v, %v, want %q", i, got, ok, want)
		}
	}
}

func TestRedoReappliesForwardEffect(t *testing.T) {
	root := newRoot()

	entry := changelog.Entry{
		Path: pathutil.Path{"name"}, Type: changelog.Set,
		OldValue: "previous", NewValue: "alice", ExistedBefore: true,
	}
	Apply(root, entry, Redo)

	got, _ := root.Get("name")
	if got != "alice" {
		t.Fatalf("got %v, want \"alice\"", got)
	}
}

func TestApplyCollectionMapUndoAndRedo(t *testing.T) {
	root := newRoot()
	mp := container.NewMapColl()
	root.Set("tags", mp)
	mp.Set("a", 1.0)

	entry := changelog.Entry{
		Path: pathutil.Path{"tags"}, Type: changelog.Set,
		Collection: container.CollectionMap, Key: "a",
		NewValue: 1.0, ExistedBefore: false,
	}
	Apply(root, entry, Undo)
	if mp.Has("a") {
		t.Fatal("undo of a first-time map set should remove the key")
	}

	Apply(root, entry, Redo)
	if v, ok := mp.Get("a"); !ok || v != 1.0 {
		t.Fatalf("redo should restore the map entry, got %v, %v", v, ok)
	}
}

func TestEntriesForGroupAndReversed(t *testing.T) {
	log := &changelog.Log{}
	log.AppendRaw(changelog.Entry{Path: pathutil.Path{"a"}, GroupID: "g1"})
	log.AppendRaw(changelog.Entry{Path: pathutil.Path{"b"}, GroupID: "g2"})
	log.AppendRaw(changelog.Entry{Path: pathutil.Path{"c"}, GroupID: "g1"})

	g1 := EntriesForGroup(log, "g1")
	if len(g1) != 2 || g1[0].Path[0] != "a" || g1[1].Path[0] != "c" {
		t.Fatalf("unexpected group entries: %+v", g1)
	}

	rev := Reversed(g1)
	if rev[0].Path[0] != "c" || rev[1].Path[0] != "a" {
		t.Fatalf("unexpected reversed order: %+v", rev)
	}
}
