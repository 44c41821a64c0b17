package exclude

import (
	"strings"

	"github.com/woozymasta/pathrules"
)

var (
	parseOptions = pathrules.ParseOptions{KeepTrailingSpaces: true}
	matchOptions = pathrules.MatcherOptions{
		DefaultAction:  pathrules.ActionInclude,
		EnableEscaping: true,
	}
)

// Matcher evaluates names against ordered exclusion rules.
// A nil Matcher excludes nothing.
type Matcher struct {
	rules   *pathrules.Matcher
	sources []int // index of the input pattern each rule came from
}

// Decision is the outcome of evaluating one name.
type Decision struct {
	// Excluded reports the final decision.
	Excluded bool
	// Matched reports whether any rule matched.
	Matched bool
	// Pattern is the input index of the winning pattern, -1 when none matched.
	Pattern int
}

// New compiles patterns into a Matcher. Each element is one gitignore line;
// an element holding several newline-separated lines is split first.
// Any invalid pattern fails the whole build.
func New(patterns []string) (*Matcher, error) {
	var (
		all     []pathrules.Rule
		sources []int
	)

	for i, p := range patterns {
		var lines []string
		for _, raw := range strings.Split(p, "\n") {
			l, ok, err := prepareLine(raw)
			if err != nil {
				return nil, &PatternError{Index: i, Pattern: p, Err: err}
			}
			if ok {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			continue
		}

		rules, err := pathrules.ParseRulesString(strings.Join(lines, "\n"), parseOptions)
		if err != nil {
			return nil, &PatternError{Index: i, Pattern: p, Err: err}
		}
		// Compile per element so a failure names its pattern.
		if _, err := pathrules.NewMatcher(rules, matchOptions); err != nil {
			return nil, &PatternError{Index: i, Pattern: p, Err: err}
		}

		all = append(all, rules...)
		for range rules {
			sources = append(sources, i)
		}
	}

	rules, err := pathrules.NewMatcher(all, matchOptions)
	if err != nil {
		return nil, err
	}

	return &Matcher{rules: rules, sources: sources}, nil
}

// Len returns the number of rules that can match.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.sources)
}

// Decide evaluates a slash-separated name relative to the matcher root. The
// last matching rule wins and an empty name never matches. Names are
// compared with surrounding whitespace trimmed.
func (m *Matcher) Decide(name string, isDir bool) Decision {
	if m == nil {
		return Decision{Pattern: -1}
	}

	res := m.rules.Decide(name, isDir)
	if !res.Matched {
		return Decision{Pattern: -1}
	}

	return Decision{
		Excluded: !res.Included,
		Matched:  true,
		Pattern:  m.sources[res.RuleIndex],
	}
}

// Match reports whether name is excluded.
func (m *Matcher) Match(name string, isDir bool) bool {
	return m.Decide(name, isDir).Excluded
}
