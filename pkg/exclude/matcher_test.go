package exclude

import (
	"errors"
	"testing"
)

func mustNew(t *testing.T, patterns ...string) *Matcher {
	t.Helper()

	m, err := New(patterns)
	if err != nil {
		t.Fatalf("New(%q): %v", patterns, err)
	}

	return m
}

type matchCase struct {
	name  string
	isDir bool
	want  bool
}

func checkCases(t *testing.T, m *Matcher, cases []matchCase) {
	t.Helper()

	for _, c := range cases {
		if got := m.Match(c.name, c.isDir); got != c.want {
			t.Errorf("Match(%q, dir=%v) = %v, want %v", c.name, c.isDir, got, c.want)
		}
	}
}

func TestMatcherNegation(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "*.tmp", "!keep.tmp")
	checkCases(t, m, []matchCase{
		{"a.tmp", false, true},
		{"docs/b.tmp", false, true},
		{"docs/keep.tmp", false, false},
		{"docs/a.txt", false, false},
		{"docs", true, false},
	})
}

func TestMatcherLastMatchWins(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "*.log", "!debug*.log", "debug-verbose.log")
	checkCases(t, m, []matchCase{
		{"app.log", false, true},
		{"debug.log", false, false},
		{"var/debug-1.log", false, false},
		{"debug-verbose.log", false, true},
		{"var/debug-verbose.log", false, true},
	})

	d := m.Decide("debug.log", false)
	if !d.Matched || d.Excluded || d.Pattern != 1 {
		t.Fatalf("Decide(debug.log) = %+v, want matched include by pattern 1", d)
	}

	d = m.Decide("readme.md", false)
	if d.Matched || d.Pattern != -1 {
		t.Fatalf("Decide(readme.md) = %+v, want no match", d)
	}
}

func TestMatcherDirectoryOnly(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "build/")
	checkCases(t, m, []matchCase{
		{"build", true, true},
		{"build", false, false},
		{"src/build", true, true},
		{"src/build", false, false},
	})
}

func TestMatcherAnchoring(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "/build", "docs/*.md")
	checkCases(t, m, []matchCase{
		{"build", true, true},
		{"build", false, true},
		{"src/build", true, false},
		{"docs/a.md", false, true},
		{"docs/sub/a.md", false, false},
		{"x/docs/a.md", false, false},
	})
}

func TestMatcherDoubleStar(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "**/cache", "logs/**", "a/**/b")
	checkCases(t, m, []matchCase{
		{"cache", true, true},
		{"x/y/cache", false, true},
		{"logs", true, false},
		{"logs/a", false, true},
		{"logs/a/b", false, true},
		{"a/b", false, true},
		{"a/x/y/b", false, true},
		{"a/xb", false, false},
	})
}

func TestMatcherWildcards(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "file?.txt", "[abc].dat", "[!xyz].bin")
	checkCases(t, m, []matchCase{
		{"file1.txt", false, true},
		{"file10.txt", false, false},
		{"dir/fileA.txt", false, true},
		{"a.dat", false, true},
		{"d.dat", false, false},
		{"d.bin", false, true},
		{"x.bin", false, false},
	})

	// Wildcards never cross a separator.
	m = mustNew(t, "/a*c")
	checkCases(t, m, []matchCase{
		{"abc", false, true},
		{"ab/c", false, false},
	})
}

func TestMatcherEscapesAndComments(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "# comment", "", "   ", `\#hash`, `\!bang`, `space\ `, "trail   ", `in\ side`, `star\*`)
	if m.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", m.Len())
	}

	checkCases(t, m, []matchCase{
		{"# comment", false, false},
		{"#hash", false, true},
		{"!bang", false, true},
		{"space", false, false},
		{"trail", false, true},
		{"in side", false, true},
		{"star*", false, true},
		{"starx", false, false},
	})
}

func TestMatcherTrailingWhitespace(t *testing.T) {
	t.Parallel()

	// Only spaces are trimmed; a trailing tab stays part of the pattern.
	m := mustNew(t, "foo\t", "bar \t ")
	checkCases(t, m, []matchCase{
		{"foo", false, false},
		{"bar", false, false},
	})
}

func TestMatcherBracketExpressions(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "file[[:digit:]].txt", "[[:upper:]_]*.md", "[^a].x", "v[]!-]")
	checkCases(t, m, []matchCase{
		{"file1.txt", false, true},
		{"filea.txt", false, false},
		{"README.md", false, true},
		{"_notes.md", false, true},
		{"readme.md", false, false},
		{"b.x", false, true},
		{"a.x", false, false},
		{"v]", false, true},
		{"v!", false, true},
		{"v-", false, true},
		{"vx", false, false},
	})

	// A bracket expression never matches a separator.
	m = mustNew(t, "a[/]b", "c[+-0]d", "/e[!x]f")
	checkCases(t, m, []matchCase{
		{"a/b", false, false},
		{"c/d", false, false},
		{"c.d", false, true},
		{"c0d", false, true},
		{"e/f", false, false},
		{"eyf", false, true},
	})
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2: a class matching nothing drops its rule", m.Len())
	}
}

func TestMatcherNonASCII(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "отчёт[0-9].txt", `\日本*`, "données/", `x[\^]`)
	checkCases(t, m, []matchCase{
		{"отчёт1.txt", false, true},
		{"отчёт.txt", false, false},
		{"日本語.md", false, true},
		{"本.md", false, false},
		{"données", true, true},
		{"données", false, false},
		{"x^", false, true},
		{"x", false, false},
	})
}

func TestMatcherMultilineElement(t *testing.T) {
	t.Parallel()

	m := mustNew(t, "*.o\n!main.o", "*.a")
	if got := m.Decide("lib.a", false).Pattern; got != 1 {
		t.Fatalf("Decide(lib.a).Pattern = %d, want 1", got)
	}
	checkCases(t, m, []matchCase{
		{"x.o", false, true},
		{"main.o", false, false},
	})
}

func TestMatcherEmptyInputs(t *testing.T) {
	t.Parallel()

	var nilMatcher *Matcher
	if nilMatcher.Match("a", false) {
		t.Fatalf("nil matcher must not exclude")
	}

	m := mustNew(t, "*")
	if m.Match("", true) || m.Match(".", true) {
		t.Fatalf("empty name must never match")
	}
	if !m.Match("./a", false) || !m.Match("/a/b/", true) {
		t.Fatalf("normalized names must match")
	}
}

func TestNewInvalidPatterns(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"!", "/", "//", "[abc", `foo\`, "[z-a]", "[[:nope:]]"} {
		_, err := New([]string{"*.tmp", p})
		if err == nil {
			t.Errorf("New(%q): expected error", p)
			continue
		}

		if !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("New(%q): error %v is not ErrInvalidPattern", p, err)
		}

		var pe *PatternError
		if !errors.As(err, &pe) {
			t.Errorf("New(%q): error %T is not *PatternError", p, err)
			continue
		}
		if pe.Index != 1 || pe.Pattern != p {
			t.Errorf("New(%q): PatternError = {%d %q}, want {1 %q}", p, pe.Index, pe.Pattern, p)
		}
	}
}
