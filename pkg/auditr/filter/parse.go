package filter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidRule is returned for rule lines that do not compile.
var ErrInvalidRule = errors.New("invalid filter rule")

// ParseRules reads one rule per line. Blank lines and lines starting with
// '#' are skipped; a leading '!' turns the rule into an include override.
func ParseRules(r io.Reader) ([]Rule, error) {
	var rules []Rule
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		action := Exclude
		if rest, ok := strings.CutPrefix(text, "!"); ok {
			action = Include
			text = strings.TrimSpace(rest)
		}
		if text == "" {
			return nil, fmt.Errorf("%w: line %d: empty pattern", ErrInvalidRule, line)
		}

		rule, err := NewRule(text, action)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q: %w", ErrInvalidRule, line, text, err)
		}
		rules = append(rules, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	return rules, nil
}

// Load returns the filter for root: the built-in rules followed by the
// rules in root's rule file, or Default() when there is no rule file.
func Load(root string) (*Glob, error) {
	f, err := os.Open(filepath.Join(root, RuleFileName))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", RuleFileName, err)
	}
	defer f.Close()

	rules, err := ParseRules(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", RuleFileName, err)
	}
	return New(WithRules(rules...)), nil
}
