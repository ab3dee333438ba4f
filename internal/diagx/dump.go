// Package diagx provides debug-dump helpers for change records, diffs, and
// merge conflicts. Like a typical pkg/fmtt dump helper, it wraps go-spew to
// render values for log lines and error messages instead of hand-rolling a
// %+v formatter.
package diagx

import (
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/arcmantle/chronicle/internal/changelog"
	"github.com/arcmantle/chronicle/internal/merge3"
	"github.com/arcmantle/chronicle/internal/snapshot"
)

var config = &spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump renders v using the shared spew configuration, for use in log fields
// and panic/error messages where the default %v/%+v output is too terse to
// debug from.
func Dump(v any) string {
	return config.Sdump(v)
}

// Entry renders one change-log entry on a single line, for trace-level
// logging of the mutation stream.
func Entry(e changelog.Entry) string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	b.WriteString(" ")
	b.WriteString(e.Path.String())
	b.WriteString(" group=")
	b.WriteString(e.GroupID)
	if e.Collection != 0 {
		b.WriteString(" key=")
		b.WriteString(config.Sprint(e.Key))
	}
	b.WriteString(" old=")
	b.WriteString(config.Sprint(e.OldValue))
	b.WriteString(" new=")
	b.WriteString(config.Sprint(e.NewValue))
	return b.String()
}

// DiffRecords renders a batch of structural diff records for debug logging.
func DiffRecords(recs []snapshot.Record) string {
	var b strings.Builder
	for i, r := range recs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Tag.String())
		b.WriteString(" ")
		b.WriteString(r.Path.String())
		b.WriteString(" old=")
		b.WriteString(config.Sprint(r.OldValue))
		b.WriteString(" new=")
		b.WriteString(config.Sprint(r.NewValue))
	}
	return b.String()
}

// Conflicts renders merge3 conflicts, one per line, for debug logging.
func Conflicts(conflicts []merge3.Conflict) string {
	var b strings.Builder
	for i, c := range conflicts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(c.Path.String())
		b.WriteString(": base=")
		b.WriteString(config.Sprint(c.Base))
		b.WriteString(" ours=")
		b.WriteString(config.Sprint(c.Ours))
		b.WriteString(" theirs=")
		b.WriteString(config.Sprint(c.Theirs))
	}
	return b.String()
}
