package chronicle

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arcmantle/chronicle/internal/container"
	"github.com/arcmantle/chronicle/internal/dispatch"
	"github.com/arcmantle/chronicle/internal/merge3"
	"github.com/arcmantle/chronicle/internal/pathutil"
	"github.com/arcmantle/chronicle/internal/trie"
)

func newTestRoot(t *testing.T, raw map[string]any, opts ...Option) *Root {
	t.Helper()
	r, err := New(raw, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestBasicSetRecordsAndDispatches(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0, "b": map[string]any{"c": 2.0}})

	var got []any
	unsub := r.Listen(pathutil.Path{"a"}, trie.ModeExact, func(_ pathutil.Path, newValue, _ any, _ dispatch.Meta) {
		got = append(got, newValue)
	}, dispatch.Options{})
	defer unsub()

	root := r.Tree().(*container.Record)
	root.Set("a", 5.0)

	if len(got) != 1 || got[0] != 5.0 {
		t.Fatalf("got %v, want [5]", got)
	}
	if r.GetHistory()[0].Path.String() != "a" {
		t.Fatalf("unexpected history: %+v", r.GetHistory())
	}
}

func TestScenarioOneFromSpec(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0, "b": map[string]any{"c": 2.0}})
	root := r.Tree().(*container.Record)

	root.Set("a", 5.0)
	b := mustGet[*container.Record](t, root, "b")
	b.Set("c", 7.0)
	b.Delete("c")

	if r.Mark() != 3 {
		t.Fatalf("log length = %d, want 3", r.Mark())
	}

	r.Undo(3)
	if r.Mark() != 0 {
		t.Fatalf("log should be empty after undoing everything, got %d", r.Mark())
	}

	want := map[string]any{"a": 1.0, "b": map[string]any{"c": 2.0}}
	if diff := cmp.Diff(want, r.Unwrap()); diff != "" {
		t.Fatalf("unwrap mismatch (-want +got):\n%s", diff)
	}
}

func TestScenarioTwoArrayUndoLeavesNoHole(t *testing.T) {
	r := newTestRoot(t, map[string]any{"arr": []any{1.0, 2.0, 3.0}})
	root := r.Tree().(*container.Record)
	arr := mustGet[*container.Sequence](t, root, "arr")

	arr.Push(4.0)
	r.Undo(1)

	if arr.Len() != 3 {
		t.Fatalf("length = %d, want 3", arr.Len())
	}
	for i, want := range []float64{1, 2, 3} {
		v, ok := arr.Get(i)
		if !ok || v != want {
			t.Fatalf("arr[%d] = %v, %v, want %v", i, v, ok, want)
		}
	}
}

func TestMidArrayDeleteUndoRestoresElementInPlace(t *testing.T) {
	r := newTestRoot(t, map[string]any{"arr": []any{1.0, 2.0, 3.0}})
	root := r.Tree().(*container.Record)
	arr := mustGet[*container.Sequence](t, root, "arr")

	arr.Delete(1)
	if arr.Len() != 2 {
		t.Fatalf("length after delete = %d, want 2", arr.Len())
	}

	r.Undo(1)

	if arr.Len() != 3 {
		t.Fatalf("length after undo = %d, want 3", arr.Len())
	}
	for i, want := range []float64{1, 2, 3} {
		v, ok := arr.Get(i)
		if !ok || v != want {
			t.Fatalf("arr[%d] = %v, %v, want %v", i, v, ok, want)
		}
	}
}

func TestReWrapReturnsSameRoot(t *testing.T) {
	raw := map[string]any{"a": 1.0}

	first, err := New(raw)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	second, err := New(raw)
	if err != nil {
		t.Fatalf("New (re-wrap): %v", err)
	}
	if first != second {
		t.Fatalf("re-wrapping the same raw value returned a different *Root")
	}

	other, err := New(map[string]any{"a": 1.0})
	if err != nil {
		t.Fatalf("New (distinct value): %v", err)
	}
	if first == other {
		t.Fatalf("wrapping a distinct (if equal) raw value returned the same *Root")
	}
}

func TestScenarioSixPauseResumeDeliversInOrder(t *testing.T) {
	r := newTestRoot(t, map[string]any{"x": 0.0})
	root := r.Tree().(*container.Record)

	var seen []any
	unsub := r.OnAny(func(_ pathutil.Path, newValue, _ any, _ dispatch.Meta) {
		seen = append(seen, newValue)
	}, dispatch.Options{})
	defer unsub()

	r.Pause()
	root.Set("x", 1.0)
	root.Set("x", 2.0)
	root.Set("x", 3.0)
	if len(seen) != 0 {
		t.Fatal("listener should not fire while paused")
	}

	r.Resume()
	if diff := cmp.Diff([]any{1.0, 2.0, 3.0}, seen); diff != "" {
		t.Fatalf("delivery order mismatch (-want +got):\n%s", diff)
	}
}

func TestUndoThenRedoRestoresState(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	root := r.Tree().(*container.Record)
	root.Set("a", 2.0)

	r.Undo(1)
	if v, _ := root.Get("a"); v != 1.0 {
		t.Fatalf("after undo, a = %v, want 1", v)
	}
	if !r.CanRedo() {
		t.Fatal("expected CanRedo to be true after undo")
	}

	r.Redo(1)
	if v, _ := root.Get("a"); v != 2.0 {
		t.Fatalf("after redo, a = %v, want 2", v)
	}
	if r.CanRedo() {
		t.Fatal("redo buffer should be drained after redoing everything")
	}
}

func TestForwardMutationClearsRedo(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	root := r.Tree().(*container.Record)
	root.Set("a", 2.0)
	r.Undo(1)
	if !r.CanRedo() {
		t.Fatal("expected a pending redo")
	}

	root.Set("a", 9.0)
	if r.CanRedo() {
		t.Fatal("a forward mutation must clear the redo buffer")
	}
}

func TestBatchRollsBackOnPanic(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	root := r.Tree().(*container.Record)

	func() {
		defer func() { recover() }()
		r.Batch(func() {
			root.Set("a", 2.0)
			panic("boom")
		})
	}()

	if v, _ := root.Get("a"); v != 1.0 {
		t.Fatalf("a = %v, want 1 after rollback", v)
	}
	if r.Mark() != 0 {
		t.Fatalf("log should be empty after rollback, got %d", r.Mark())
	}
}

func TestTransactionUndoPrefersUndoGroups(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	root := r.Tree().(*container.Record)

	result, err := r.Transaction(func() (any, error) {
		root.Set("a", 2.0)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Result != "ok" {
		t.Fatalf("result = %v, want \"ok\"", result.Result)
	}

	result.Undo()
	if v, _ := root.Get("a"); v != 1.0 {
		t.Fatalf("a = %v, want 1 after transaction undo", v)
	}
}

func TestTransactionAsyncCommitsAndUndoes(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	root := r.Tree().(*container.Record)

	ch := r.TransactionAsync(func() (any, error) {
		root.Set("a", 2.0)
		return "ok", nil
	})
	settled := <-ch
	if settled.Err != nil {
		t.Fatalf("unexpected error: %v", settled.Err)
	}
	if settled.Result != "ok" {
		t.Fatalf("result = %v, want \"ok\"", settled.Result)
	}
	if v, _ := root.Get("a"); v != 2.0 {
		t.Fatalf("a = %v, want 2 once the async transaction settles", v)
	}

	settled.Undo()
	if v, _ := root.Get("a"); v != 1.0 {
		t.Fatalf("a = %v, want 1 after async transaction undo", v)
	}
}

func TestTransactionAsyncRollsBackOnError(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	root := r.Tree().(*container.Record)

	ch := r.TransactionAsync(func() (any, error) {
		root.Set("a", 99.0)
		return nil, errors.New("boom")
	})
	settled := <-ch
	if settled.Err == nil {
		t.Fatal("expected an error from a failing async transaction action")
	}
	if v, _ := root.Get("a"); v != 1.0 {
		t.Fatalf("a = %v, want 1 after async transaction rollback", v)
	}
}

func TestDiffAndIsPristine(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	root := r.Tree().(*container.Record)

	if !r.IsPristine() {
		t.Fatal("freshly wrapped root should be pristine")
	}

	root.Set("a", 2.0)
	if r.IsPristine() {
		t.Fatal("root should not be pristine after a mutation")
	}
	diffs := r.Diff()
	if len(diffs) != 1 || diffs[0].Path.String() != "a" {
		t.Fatalf("unexpected diff: %+v", diffs)
	}

	if err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !r.IsPristine() {
		t.Fatal("root should be pristine again after Reset")
	}
}

func TestMergeDetectsConflictAndAppliesNonConflicting(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0, "b": 2.0, "c": 3.0})
	root := r.Tree().(*container.Record)
	root.Set("a", 10.0)

	result, err := r.Merge(map[string]any{"a": 100.0, "b": 20.0, "c": 3.0}, merge3.Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if result.Success {
		t.Fatal("expected a conflict on field a")
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Path.String() != "a" {
		t.Fatalf("unexpected conflicts: %+v", result.Conflicts)
	}
	if b, _ := root.Get("b"); b != 20.0 {
		t.Fatalf("b = %v, want 20 (theirs applied, no conflict)", b)
	}
	if a, _ := root.Get("a"); a != 10.0 {
		t.Fatalf("a = %v, want 10 (ours kept on conflict by default)", a)
	}
}

func TestMergeWithoutPristineFails(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	r.hasPristine = false // simulate a root that never captured a baseline

	_, err := r.Merge(map[string]any{"a": 2.0}, merge3.Options{})
	if err == nil {
		t.Fatal("expected a precondition error")
	}
}

func TestOnceListenerUnsubscribesItself(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	root := r.Tree().(*container.Record)

	var calls int
	r.Listen(pathutil.Path{"a"}, trie.ModeExact, func(pathutil.Path, any, any, dispatch.Meta) {
		calls++
	}, dispatch.Options{Once: true})

	root.Set("a", 2.0)
	root.Set("a", 3.0)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if len(r.listeners) != 0 {
		t.Fatalf("once listener still registered after firing: %d listeners", len(r.listeners))
	}
}

func TestConcurrentMarkPristineCoalesces(t *testing.T) {
	r := newTestRoot(t, map[string]any{"a": 1.0})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.MarkPristine()
		}()
	}
	wg.Wait()
	if !r.IsPristine() {
		t.Fatal("root should be pristine after concurrent MarkPristine calls")
	}
}

func mustGet[T any](t *testing.T, r *container.Record, key string) T {
	t.Helper()
	v, ok := r.Get(key)
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	tv, ok := v.(T)
	if !ok {
		t.Fatalf("key %q is %T, not %T", key, v, *new(T))
	}
	return tv
}
