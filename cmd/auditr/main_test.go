package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/auditr/pkg/auditr/workflow"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		stderr string
	}{
		{name: "success", err: nil, code: 0},
		{name: "differences", err: &exitError{code: workflow.ExitDifferences}, code: 2},
		{name: "wrapped bitrot", err: fmt.Errorf("audit: %w", &exitError{code: workflow.ExitBitrot}), code: 3},
		{name: "plain error", err: errors.New("boom"), code: 1, stderr: "Error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			assert.Equal(t, tt.code, exitCode(tt.err, &stderr))
			assert.Equal(t, tt.stderr, stderr.String())
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a much longer string", 10, "a much ..."},
		{"abcdef", 3, "abc"},
		{"/photos/\u00e9t\u00e9", 11, "/photos/\u00e9t\u00e9"},
		{"\u65e5\u672c\u8a9e\u306e\u30d5\u30a1\u30a4\u30eb\u540d\u3067\u3059", 10, "\u65e5\u672c\u8a9e\u306e\u30d5\u30a1\u30a4..."},
		{"\u00e9t\u00e9s", 2, "\u00e9t"},
	}
	for _, tt := range tests {
		got := truncateString(tt.in, tt.maxLen)
		assert.Equal(t, tt.want, got)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestRootRunsLoggingHook(t *testing.T) {
	assert.NotNil(t, rootCmd.PersistentPreRunE)
}

// execute runs the command tree once with fresh per-command flags.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	updateOpts = workflow.UpdateOptions{}
	auditOpts = workflow.AuditOptions{}
	appConfig = nil

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := Execute()
	return stdout.String(), stderr.String(), err
}

func TestCommandsEndToEnd(t *testing.T) {
	isolateXDG(t)

	dir := t.TempDir()
	mtime := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	write := func(name, content string, at time.Time) {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, os.Chtimes(path, at, at))
	}
	write("a", "alpha", mtime)
	write("b", "beta", mtime)

	_, _, err := execute(t, "", "audit", "--no-progress", dir)
	assert.Equal(t, workflow.ExitPrecondition, exitCode(err, &bytes.Buffer{}))
	assert.ErrorIs(t, err, workflow.ErrNoSnapshot)

	_, stderr, err := execute(t, "", "init", "--no-progress", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Done.")

	_, stderr, err = execute(t, "", "audit", "--no-progress", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Audit successful")

	write("c", "gamma", mtime.Add(time.Hour))
	stdout, _, err := execute(t, "", "audit", "--no-progress", dir)
	assert.Equal(t, workflow.ExitDifferences, exitCode(err, &bytes.Buffer{}))
	assert.Contains(t, stdout, "[+] c")

	_, stderr, err = execute(t, "n\n", "update", "--no-progress", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Aborted.")

	_, _, err = execute(t, "y\n", "update", "--no-progress", dir)
	require.NoError(t, err)

	write("b", "BETA", mtime)
	stdout, stderr, err = execute(t, "", "audit", "--update", "-o", "json", "--no-progress", dir)
	assert.Equal(t, workflow.ExitBitrot, exitCode(err, &bytes.Buffer{}))
	assert.Contains(t, stderr, "bitrot detected")
	assert.Contains(t, stdout, `"kind": "bitrot"`)

	stdout, _, err = execute(t, "", "history", "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "audit")
	assert.Contains(t, stdout, "bitrot")
}
