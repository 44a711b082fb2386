package deltas

import (
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff computes the operations that turn old into new, observed at ts.
// Returns nil when the contents are identical.
func Diff(old, new string, ts time.Time) *Delta {
	if old == new {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(old, new, false)
	diffs = dmp.DiffCleanupEfficiency(diffs)

	var ops []Operation
	offset := 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			offset += len(d.Text)
		case diffmatchpatch.DiffInsert:
			ops = append(ops, Operation{Insert: &InsertOperation{
				Offset: offset,
				Text:   d.Text,
			}})
			offset += len(d.Text)
		case diffmatchpatch.DiffDelete:
			ops = append(ops, Operation{Delete: &DeleteOperation{
				Offset: offset,
				Length: len(d.Text),
			}})
		}
	}

	return &Delta{
		TimestampMs: ts.UnixMilli(),
		Operations:  ops,
	}
}
