package output

import (
	"bytes"
	"fmt"
)

const (
	statLabelWidth = 20
	statValueWidth = 16
	rule           = "===================================="
	thinRule       = "------------------------------------"
)

const (
	auditLegend  = "New (+), deleted (-), moved (>), updated (*), updated but with same modified timestamp (!)"
	updateLegend = "New (+), deleted (-), updated (*)"
)

// PlainFormatter writes the classic text report: the change list with
// one-character markers followed by the counts table. Rows with a zero
// count are left out. It uses no colors.
type PlainFormatter struct{}

func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	if changes := r.Changes(); len(changes) > 0 {
		legend := updateLegend
		if r.Command == "audit" {
			legend = auditLegend
		}
		w.WriteString("Files\n")
		w.WriteString(legend + "\n\n")
		for _, c := range changes {
			if c.Kind == ChangeMoved {
				fmt.Fprintf(w, "[%s] %s (from %s)\n", c.Kind.Marker(), c.Path, c.From)
				continue
			}
			fmt.Fprintf(w, "[%s] %s\n", c.Kind.Marker(), c.Path)
		}
	}

	counts := r.Counts()
	w.WriteString("\n" + rule + "\n")
	w.WriteString("Stats\n")
	w.WriteString(thinRule + "\n")
	writeStat(w, "New", uint64(counts.Added))
	writeStat(w, "Updated", uint64(counts.Updated))
	writeStat(w, "Updated (bitrot)", uint64(counts.UpdatedBitrot))
	writeStat(w, "Removed", uint64(counts.Removed))
	writeStat(w, "Moved", uint64(counts.Moved))
	writeStat(w, "Unchanged", uint64(counts.Unchanged))
	writeStat(w, "Total", counts.Total)
	w.WriteString(rule + "\n\n")
	return nil
}

func writeStat(w *bytes.Buffer, label string, n uint64) {
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "%-*s%*d\n", statLabelWidth, label+":", statValueWidth, n)
}

func init() {
	Register("plain", func() Formatter { return &PlainFormatter{} })
}

var _ Formatter = (*PlainFormatter)(nil)
