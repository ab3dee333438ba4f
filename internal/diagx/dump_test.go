package diagx

import (
	"strings"
	"testing"

	"github.com/arcmantle/chronicle/internal/changelog"
	"github.com/arcmantle/chronicle/internal/merge3"
	"github.com/arcmantle/chronicle/internal/pathutil"
	"github.com/arcmantle/chronicle/internal/snapshot"
)

func TestDumpProducesNonEmptyOutput(t *testing.T) {
	out := Dump(map[string]any{"a": 1})
	if out == "" {
		t.Fatal("dump of a non-trivial value should not be empty")
	}
}

func TestEntryIncludesPathAndGroup(t *testing.T) {
	e := changelog.Entry{
		Path: pathutil.Path{"user", "name"}, Type: changelog.Set,
		OldValue: "a", NewValue: "b", GroupID: "g1",
	}
	out := Entry(e)
	if !strings.Contains(out, "user.name") || !strings.Contains(out, "g1") {
		t.Fatalf("entry dump missing expected fields: %q", out)
	}
}

func TestDiffRecordsRendersEachRecord(t *testing.T) {
	recs := []snapshot.Record{
		{Path: pathutil.Path{"a"}, Tag: snapshot.Added, NewValue: 1.0},
		{Path: pathutil.Path{"b"}, Tag: snapshot.Removed, OldValue: 2.0},
	}
	out := DiffRecords(recs)
	if !strings.Contains(out, "added a") || !strings.Contains(out, "removed b") {
		t.Fatalf("unexpected diff dump: %q", out)
	}
}

func TestConflictsRendersEachConflict(t *testing.T) {
	conflicts := []merge3.Conflict{
		{Path: pathutil.Path{"x"}, Base: 1.0, Ours: 2.0, Theirs: 3.0},
	}
	out := Conflicts(conflicts)
	if !strings.Contains(out, "x:") {
		t.Fatalf("unexpected conflicts dump: %q", out)
	}
}
