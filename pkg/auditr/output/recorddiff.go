package output

import (
	"io"

	"github.com/pmezard/go-difflib/difflib"
)

// RecordDiff writes a unified diff between two renderings of a snapshot
// record. Nothing is written when they are identical.
func RecordDiff(w io.Writer, name string, before, after []byte) error {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: name + " (before)",
		ToFile:   name + " (after)",
		Context:  1,
	}
	return difflib.WriteUnifiedDiff(w, ud)
}
