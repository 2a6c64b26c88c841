package output

import (
	"bytes"
	"errors"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/auditr/pkg/auditr/stats"
)

// DefaultTemplate prints one "marker path" line per change.
const DefaultTemplate = `{{range .Changes}}{{.Kind.Marker}} {{.Path}}{{if .From}} (from {{.From}}){{end}}
{{end}}`

// ErrNoTemplate is returned when the template formatter has no text to run.
var ErrNoTemplate = errors.New("no template set")

// TemplateFormatter renders a report with a text/template. The template
// sees Command, Root, Outcome, Elapsed, Counts and Changes, and may use the
// "bytes" and "date" functions.
type TemplateFormatter struct {
	mu   sync.Mutex
	text string
	tmpl *template.Template
}

func NewTemplateFormatter(text string) *TemplateFormatter {
	return &TemplateFormatter{text: text}
}

// SetTemplate replaces the template text.
func (f *TemplateFormatter) SetTemplate(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.tmpl = nil
}

type templateData struct {
	Command string
	Root    string
	Outcome string
	Elapsed time.Duration
	Counts  stats.Counts
	Changes []Change
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"bytes": func(n uint64) string { return humanize.IBytes(n) },
		"date": func(ms int64, layout string) string {
			if ms == 0 {
				return ""
			}
			return time.UnixMilli(ms).Format(layout)
		},
	}
}

func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.text == "" {
		return ErrNoTemplate
	}
	if f.tmpl == nil {
		tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(f.text)
		if err != nil {
			return err
		}
		f.tmpl = tmpl
	}

	return f.tmpl.Execute(w, templateData{
		Command: r.Command,
		Root:    r.Root,
		Outcome: r.Outcome,
		Elapsed: r.Elapsed,
		Counts:  r.Counts(),
		Changes: r.Changes(),
	})
}

func init() {
	Register("template", func() Formatter { return NewTemplateFormatter(DefaultTemplate) })
}

var _ Formatter = (*TemplateFormatter)(nil)
