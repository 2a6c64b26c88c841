package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/auditr/pkg/auditr/entry"
	"github.com/jamesainslie/auditr/pkg/auditr/stats"
)

func mk(path, hash string, size uint64) *entry.Entry {
	e := entry.New(path)
	e.Hash, e.Len = hash, size
	return e
}

func sampleReport() *Report {
	return &Report{
		Command: "audit",
		Root:    "/data",
		Outcome: "bitrot",
		Elapsed: 1500 * time.Millisecond,
		Stats: &stats.Stats{
			Added:         []*entry.Entry{mk("new.txt", "h1", 10)},
			Updated:       []*entry.Entry{mk("edited.txt", "h2", 20)},
			UpdatedBitrot: []*entry.Entry{mk("rotten.jpg", "h3", 30)},
			Removed:       []*entry.Entry{mk("gone.txt", "h4", 40)},
			Moved:         []stats.Move{{From: mk("old/name", "h5", 50), To: mk("new/name", "h5", 50)}},
			Unchanged:     []*entry.Entry{mk("same.txt", "h6", 60)},
			Total:         5,
		},
	}
}

func TestChangesOrder(t *testing.T) {
	changes := sampleReport().Changes()

	var got []string
	for _, c := range changes {
		got = append(got, c.Kind.Marker()+" "+c.Path)
	}
	assert.Equal(t, []string{"+ new.txt", "* edited.txt", "! rotten.jpg", "- gone.txt", "> new/name"}, got)
	assert.Equal(t, "old/name", changes[4].From)
}

func TestEmptyReport(t *testing.T) {
	r := &Report{Command: "update", Root: "/x"}
	assert.Empty(t, r.Changes())
	assert.Equal(t, stats.Counts{}, r.Counts())

	for _, name := range Available() {
		f, err := Get(name)
		require.NoError(t, err)
		var buf bytes.Buffer
		assert.NoError(t, f.Format(&buf, r), "formatter %s", name)
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"json", "plain", "pretty", "template", "yaml"}, Available())

	_, err := Get("xml")
	assert.ErrorContains(t, err, "unknown formatter")

	reg := NewRegistry()
	reg.Register("plain", func() Formatter { return &PlainFormatter{} })
	f, err := reg.Get("plain")
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, f)
}

func TestPlainFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleReport()))
	out := buf.String()

	for _, line := range []string{
		"[+] new.txt",
		"[*] edited.txt",
		"[!] rotten.jpg",
		"[-] gone.txt",
		"[>] new/name (from old/name)",
	} {
		assert.Contains(t, out, line+"\n")
	}

	assert.Regexp(t, `(?m)^New:\s+1$`, out)
	assert.Regexp(t, `(?m)^Updated \(bitrot\):\s+1$`, out)
	assert.Regexp(t, `(?m)^Total:\s+5$`, out)
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Moved:") {
			assert.Len(t, line, statLabelWidth+statValueWidth)
		}
	}
	assert.Less(t, strings.Index(out, "[+]"), strings.Index(out, "Stats"))
	assert.Contains(t, out, auditLegend+"\n")
}

func TestPlainFormatterLegendFollowsCommand(t *testing.T) {
	tests := []struct {
		command string
		legend  string
	}{
		{command: "audit", legend: auditLegend},
		{command: "update", legend: updateLegend},
		{command: "watch", legend: updateLegend},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			r := sampleReport()
			r.Command = tt.command
			var buf bytes.Buffer
			require.NoError(t, (&PlainFormatter{}).Format(&buf, r))

			lines := strings.Split(buf.String(), "\n")
			require.GreaterOrEqual(t, len(lines), 2)
			assert.Equal(t, "Files", lines[0])
			assert.Equal(t, tt.legend, lines[1])
		})
	}
}

func TestPlainFormatterOmitsZeroCounts(t *testing.T) {
	var buf bytes.Buffer
	r := &Report{Command: "update", Stats: &stats.Stats{Unchanged: []*entry.Entry{mk("a", "h", 1)}, Total: 1}}
	require.NoError(t, (&PlainFormatter{}).Format(&buf, r))
	out := buf.String()

	assert.NotContains(t, out, "Files")
	for _, label := range []string{"New:", "Updated:", "Updated (bitrot):", "Removed:", "Moved:"} {
		assert.NotContains(t, out, label)
	}
	assert.Regexp(t, `(?m)^Unchanged:\s+1$`, out)
	assert.Regexp(t, `(?m)^Total:\s+1$`, out)
	assert.Equal(t, 2, strings.Count(out, rule+"\n"))
}

func TestPrettyFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "/data")
	assert.Contains(t, out, "rotten.jpg")
	assert.Contains(t, out, "(from old/name)")
	assert.Contains(t, out, "bitrot")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleReport()))

	var doc struct {
		Command string         `json:"command"`
		Outcome string         `json:"outcome"`
		Counts  map[string]int `json:"counts"`
		Changes []Change       `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "audit", doc.Command)
	assert.Equal(t, "bitrot", doc.Outcome)
	assert.Equal(t, 1, doc.Counts["updated_bitrot"])
	assert.Equal(t, 5, doc.Counts["total"])
	require.Len(t, doc.Changes, 5)
	assert.Equal(t, ChangeMoved, doc.Changes[4].Kind)
}

func TestJSONFormatterEmptyChangesIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, &Report{Command: "audit"}))
	assert.Contains(t, buf.String(), `"changes": []`)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleReport()))

	var doc map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "/data", doc["root"])
	assert.Len(t, doc["changes"], 5)
}

func TestTemplateFormatter(t *testing.T) {
	t.Run("default template", func(t *testing.T) {
		f, err := Get("template")
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, f.Format(&buf, sampleReport()))
		assert.Contains(t, buf.String(), "> new/name (from old/name)\n")
		assert.Contains(t, buf.String(), "! rotten.jpg\n")
	})

	t.Run("custom template with funcs", func(t *testing.T) {
		f := NewTemplateFormatter(`{{.Counts.Total}} files{{range .Changes}} {{bytes .Len}}{{end}}`)
		var buf bytes.Buffer
		require.NoError(t, f.Format(&buf, sampleReport()))
		assert.True(t, strings.HasPrefix(buf.String(), "5 files 10 B"))
	})

	t.Run("empty template", func(t *testing.T) {
		f := NewTemplateFormatter("")
		var buf bytes.Buffer
		assert.ErrorIs(t, f.Format(&buf, sampleReport()), ErrNoTemplate)
	})

	t.Run("parse error", func(t *testing.T) {
		f := NewTemplateFormatter("{{.Broken")
		var buf bytes.Buffer
		assert.Error(t, f.Format(&buf, sampleReport()))

		f.SetTemplate("{{.Root}}")
		buf.Reset()
		require.NoError(t, f.Format(&buf, sampleReport()))
		assert.Equal(t, "/data", buf.String())
	})
}

func TestRecordDiff(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RecordDiff(&buf, ".checksums.sha256", []byte("h1  a\nh2  b\n"), []byte("h1  a\nh3  b\n")))
	out := buf.String()
	assert.Contains(t, out, "-h2  b")
	assert.Contains(t, out, "+h3  b")

	buf.Reset()
	require.NoError(t, RecordDiff(&buf, ".checksums.sha256", []byte("same\n"), []byte("same\n")))
	assert.Empty(t, buf.String())
}
