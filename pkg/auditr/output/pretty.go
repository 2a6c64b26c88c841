package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// PrettyFormatter renders a styled report for terminals.
type PrettyFormatter struct{}

func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(f.header(r))
	w.WriteString("\n")
	w.WriteString(f.changes(r))
	w.WriteString(f.summary(r))
	w.WriteString("\n")
	return nil
}

func (f *PrettyFormatter) header(r *Report) string {
	lines := []string{
		LabelStyle.Render("Root:") + " " + ValueStyle.Render(r.Root),
	}

	info := []string{LabelStyle.Render("Command:") + " " + ValueStyle.Render(r.Command)}
	if r.Outcome != "" {
		style, ok := outcomeStyles[r.Outcome]
		if !ok {
			style = ValueStyle
		}
		info = append(info, LabelStyle.Render("Result:")+" "+style.Render(r.Outcome))
	}
	if r.Elapsed > 0 {
		info = append(info, LabelStyle.Render("Took:")+" "+MutedStyle.Render(r.Elapsed.Round(time.Millisecond).String()))
	}
	lines = append(lines, strings.Join(info, "  "))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) changes(r *Report) string {
	changes := r.Changes()
	if len(changes) == 0 {
		return MutedStyle.Render("  No changes") + "\n"
	}

	var sb strings.Builder
	for _, c := range changes {
		style := changeStyles[c.Kind]
		path := c.Path
		if c.Kind == ChangeMoved {
			path = fmt.Sprintf("%s %s", c.Path, MutedStyle.Render("(from "+c.From+")"))
		}
		fmt.Fprintf(&sb, "  %s %s %s\n",
			style.Render(c.Kind.Marker()),
			padRight(style.Render(string(c.Kind)), 9),
			path)
	}
	return sb.String()
}

func (f *PrettyFormatter) summary(r *Report) string {
	c := r.Counts()
	parts := []string{
		stat("New", c.Added, ChangeAdded),
		stat("Updated", c.Updated, ChangeUpdated),
		stat("Bitrot", c.UpdatedBitrot, ChangeBitrot),
		stat("Removed", c.Removed, ChangeRemoved),
		stat("Moved", c.Moved, ChangeMoved),
		LabelStyle.Render("Unchanged:") + " " + ValueStyle.Render(fmt.Sprint(c.Unchanged)),
		LabelStyle.Render("Total:") + " " + ValueStyle.Render(fmt.Sprint(c.Total)),
	}

	if r.Stats != nil {
		var size uint64
		for e := range r.Stats.IterNew() {
			size += e.Len
		}
		parts = append(parts, LabelStyle.Render("Size:")+" "+ValueStyle.Render(humanize.IBytes(size)))
	}
	return SummaryBox.Render(strings.Join(parts, "  "))
}

func stat(label string, n int, kind ChangeKind) string {
	value := MutedStyle.Render("0")
	if n > 0 {
		value = changeStyles[kind].Render(fmt.Sprint(n))
	}
	return LabelStyle.Render(label+":") + " " + value
}

// padRight pads a possibly styled string to width visible cells.
func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func init() {
	Register("pretty", func() Formatter { return &PrettyFormatter{} })
}

var _ Formatter = (*PrettyFormatter)(nil)
