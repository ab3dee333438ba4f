package merge3

import (
	"testing"

	"github.com/arcmantle/chronicle/internal/pathutil"
)

func TestMergeNonConflictingChangesFromBothSides(t *testing.T) {
	base := map[string]any{"a": 1.0, "b": 2.0}
	ours := map[string]any{"a": 10.0, "b": 2.0}
	theirs := map[string]any{"a": 1.0, "b": 20.0}

	merged, conflicts := Merge(base, ours, theirs, Options{})
	if len(conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %+v", conflicts)
	}
	m := merged.(map[string]any)
	if m["a"] != 10.0 || m["b"] != 20.0 {
		t.Fatalf("merged = %+v, want a=10 b=20", m)
	}
}

func TestMergeSameChangeOnBothSidesIsNotAConflict(t *testing.T) {
	base := map[string]any{"a": 1.0}
	ours := map[string]any{"a": 5.0}
	theirs := map[string]any{"a": 5.0}

	_, conflicts := Merge(base, ours, theirs, Options{})
	if len(conflicts) != 0 {
		t.Fatalf("identical changes on both sides should not conflict, got %+v", conflicts)
	}
}

func TestMergeConflictDefaultsToPreferOurs(t *testing.T) {
	base := map[string]any{"a": 1.0}
	ours := map[string]any{"a": 2.0}
	theirs := map[string]any{"a": 3.0}

	merged, conflicts := Merge(base, ours, theirs, Options{})
	if len(conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", conflicts)
	}
	if merged.(map[string]any)["a"] != 2.0 {
		t.Fatalf("default strategy should prefer ours, got %v", merged.(map[string]any)["a"])
	}
}

func TestMergeConflictPreferTheirs(t *testing.T) {
	base := map[string]any{"a": 1.0}
	ours := map[string]any{"a": 2.0}
	theirs := map[string]any{"a": 3.0}

	merged, conflicts := Merge(base, ours, theirs, Options{Strategy: PreferTheirs})
	if len(conflicts) != 1 {
		t.Fatalf("expected one conflict, got %+v", conflicts)
	}
	if merged.(map[string]any)["a"] != 3.0 {
		t.Fatalf("PreferTheirs should win, got %v", merged.(map[string]any)["a"])
	}
}

func TestMergeConflictCustomResolver(t *testing.T) {
	base := map[string]any{"a": 1.0}
	ours := map[string]any{"a": 2.0}
	theirs := map[string]any{"a": 3.0}

	merged, conflicts := Merge(base, ours, theirs, Options{
		Resolve: func(path pathutil.Path, base, ours, theirs any) (any, bool) {
			return ours.(float64) + theirs.(float64), true
		},
	})
	if len(conflicts) != 0 {
		t.Fatalf("a resolved conflict should not be reported, got %+v", conflicts)
	}
	if merged.(map[string]any)["a"] != 5.0 {
		t.Fatalf("custom resolver result not applied, got %v", merged.(map[string]any)["a"])
	}
}

func TestMergeAddedOnOneSideIsKept(t *testing.T) {
	base := map[string]any{}
	ours := map[string]any{"new": "value"}
	theirs := map[string]any{}

	merged, conflicts := Merge(base, ours, theirs, Options{})
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %+v", conflicts)
	}
	if merged.(map[string]any)["new"] != "value" {
		t.Fatalf("one-sided addition should survive the merge, got %+v", merged)
	}
}

func TestMergeRemovedOnOneSideIsApplied(t *testing.T) {
	base := map[string]any{"x": 1.0}
	ours := map[string]any{}
	theirs := map[string]any{"x": 1.0}

	merged, conflicts := Merge(base, ours, theirs, Options{})
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %+v", conflicts)
	}
	if _, ok := merged.(map[string]any)["x"]; ok {
		t.Fatal("one-sided removal should survive the merge")
	}
}

func TestMergeNestedPathConflict(t *testing.T) {
	base := map[string]any{"nested": map[string]any{"v": 1.0}}
	ours := map[string]any{"nested": map[string]any{"v": 2.0}}
	theirs := map[string]any{"nested": map[string]any{"v": 3.0}}

	_, conflicts := Merge(base, ours, theirs, Options{})
	if len(conflicts) != 1 || conflicts[0].Path.String() != "nested.v" {
		t.Fatalf("expected one conflict at nested.v, got %+v", conflicts)
	}
}
