// Package filter decides which root-relative paths take part in scanning and
// snapshot loading.
//
// Rules are evaluated in order and the first matching rule decides. The
// built-in rules exclude the snapshot records and the rule file at the root;
// rules from the rule file follow them.
package filter

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/auditr/pkg/auditr/index"
)

// RuleFileName is the per-root rule file read by Load.
const RuleFileName = ".auditr-ignore"

// PathFilter decides whether a root-relative, slash separated path is
// included. The root itself is represented by ".".
type PathFilter interface {
	Matches(path string) bool
}

// Action is what a matching rule does with a path.
type Action int

const (
	Exclude Action = iota
	Include
)

func (a Action) String() string {
	if a == Include {
		return "include"
	}
	return "exclude"
}

// Rule is one compiled glob.
type Rule struct {
	Pattern string
	Action  Action
	matcher glob.Glob
}

// NewRule compiles pattern with '/' as the separator, so '*' stays within a
// path segment and '**' crosses segments.
func NewRule(pattern string, action Action) (Rule, error) {
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return Rule{}, err
	}
	return Rule{Pattern: pattern, Action: action, matcher: g}, nil
}

func (r Rule) String() string {
	if r.Action == Include {
		return "!" + r.Pattern
	}
	return r.Pattern
}

// Match reports whether the rule applies to path.
func (r Rule) Match(path string) bool {
	return r.matcher.Match(path)
}

// Glob is an ordered, first-match-wins rule list.
type Glob struct {
	rules    []Rule
	fallback Action
}

// Option configures a Glob.
type Option func(*Glob)

// WithRules appends rules after the ones already present.
func WithRules(rules ...Rule) Option {
	return func(g *Glob) {
		g.rules = append(g.rules, rules...)
	}
}

// WithFallback sets the action for paths no rule matches. The default is
// Include.
func WithFallback(action Action) Option {
	return func(g *Glob) {
		g.fallback = action
	}
}

// New returns a Glob seeded with the built-in rules.
func New(opts ...Option) *Glob {
	g := &Glob{rules: builtinRules(), fallback: Include}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Default returns the filter used when a root has no rule file.
func Default() *Glob {
	return New()
}

// Rules returns a copy of the rule list in evaluation order.
func (g *Glob) Rules() []Rule {
	return append([]Rule(nil), g.rules...)
}

// Matches implements PathFilter. Paths escaping the root are never included.
func (g *Glob) Matches(path string) bool {
	if path == ".." || strings.HasPrefix(path, "../") || strings.HasPrefix(path, "/") {
		return false
	}
	for _, r := range g.rules {
		if r.Match(path) {
			return r.Action == Include
		}
	}
	return g.fallback == Include
}

func builtinRules() []Rule {
	names := []string{index.HashFileName, index.MetaFileName, RuleFileName}
	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		pattern := glob.QuoteMeta(name)
		rules = append(rules, Rule{Pattern: pattern, Action: Exclude, matcher: glob.MustCompile(pattern, '/')})
	}
	return rules
}
