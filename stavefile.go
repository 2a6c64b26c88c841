//go:build stave

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
)

var Default = Build

var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Check,
	"s": Checksums,
}

const (
	binaryName = "auditr"
	mainPkg    = "./cmd/auditr"
	binDir     = "bin"
)

// Check lints and tests, then verifies the last release snapshot in bin/
// still matches what is on disk.
func Check() error {
	st.Deps(Lint, Test)
	if _, err := os.Stat(filepath.Join(binDir, ".checksums.sha256")); os.IsNotExist(err) {
		return nil
	}
	return sh.RunV(binPath(), "audit", "--no-progress", "-o", "plain", binDir)
}

// Build compiles auditr into bin/ with the version stamped in.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating bin directory: %w", err)
	}
	return sh.RunV("go", "build", "-ldflags", buildLdflags(), "-o", binPath(), mainPkg)
}

// Test runs the suite with the race detector; the watcher and the
// progress reporter both run goroutines.
func Test() error {
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Checksums snapshots bin/ with the freshly built binary so release
// artifacts ship with their own .checksums records.
func Checksums() error {
	st.Deps(Build)

	if _, err := os.Stat(filepath.Join(binDir, ".checksums.sha256")); os.IsNotExist(err) {
		return sh.RunV(binPath(), "init", "--no-progress", binDir)
	}
	return sh.RunV(binPath(), "update", "--yes", "--no-progress", binDir)
}

// Clean removes bin/, snapshot files included.
func Clean() error {
	if st.Verbose() {
		fmt.Printf("Removing %s/\n", binDir)
	}
	return sh.Rm(binDir + "/")
}

func binPath() string {
	p := filepath.Join(binDir, binaryName)
	if runtime.GOOS == "windows" {
		p += ".exe"
	}
	return p
}

// buildLdflags stamps main.version, main.commit and main.date from git.
func buildLdflags() string {
	version := "dev"
	commit := "none"
	date := time.Now().UTC().Format(time.RFC3339)

	if v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && v != "" {
		version = strings.TrimSpace(v)
	}
	if c, err := sh.Output("git", "rev-parse", "--short", "HEAD"); err == nil && c != "" {
		commit = strings.TrimSpace(c)
	}
	return fmt.Sprintf("-X main.version=%s -X main.commit=%s -X main.date=%s", version, commit, date)
}
