package output

import (
	"bytes"
	"encoding/json"

	"github.com/jamesainslie/auditr/pkg/auditr/stats"
)

// document is the structure shared by the json and yaml formatters.
type document struct {
	Command string       `json:"command" yaml:"command"`
	Root    string       `json:"root" yaml:"root"`
	Outcome string       `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Elapsed string       `json:"elapsed,omitempty" yaml:"elapsed,omitempty"`
	Counts  stats.Counts `json:"counts" yaml:"counts"`
	Changes []Change     `json:"changes" yaml:"changes"`
}

func buildDocument(r *Report) document {
	doc := document{
		Command: r.Command,
		Root:    r.Root,
		Outcome: r.Outcome,
		Counts:  r.Counts(),
		Changes: r.Changes(),
	}
	if r.Elapsed > 0 {
		doc.Elapsed = r.Elapsed.String()
	}
	if doc.Changes == nil {
		doc.Changes = []Change{}
	}
	return doc
}

// JSONFormatter writes the report as one indented JSON object.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w *bytes.Buffer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildDocument(r))
}

func init() {
	Register("json", func() Formatter { return &JSONFormatter{} })
}

var _ Formatter = (*JSONFormatter)(nil)
