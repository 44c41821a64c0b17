package exclude

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	errEmpty          = fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	errTrailingEscape = fmt.Errorf("%w: trailing backslash", ErrInvalidPattern)
	errOpenClass      = fmt.Errorf("%w: unterminated character class", ErrInvalidPattern)
	errClassRange     = fmt.Errorf("%w: reversed character class range", ErrInvalidPattern)
	errClassName      = errors.New("unknown character class")
)

// prepareLine rewrites one gitignore line into the rule text the rules
// engine understands. ok is false for blank lines, comments and rules that
// can never match.
//
// Semantics:
//   - trailing spaces are trimmed unless escaped with "\"; other whitespace is kept
//   - "#" starts a comment, "\#" is a literal leading hash
//   - "!" negates, "\!" is a literal leading exclamation mark
//   - a "/" anywhere but the end anchors the pattern to the root
//   - bracket expressions never match "/" and accept POSIX "[:name:]" classes
func prepareLine(raw string) (string, bool, error) {
	s := trimTrailingSpaces(strings.TrimRight(raw, "\r"))
	if s == "" || strings.HasPrefix(s, "#") {
		return "", false, nil
	}

	negate := false
	lead := ""
	switch {
	case strings.HasPrefix(s, `\#`), strings.HasPrefix(s, `\!`):
		lead, s = s[1:2], s[2:]
	case strings.HasPrefix(s, "!"):
		negate, s = true, s[1:]
		if s == "" {
			return "", false, errEmpty
		}
	}

	body, anchor, never, err := translate(s)
	if err != nil {
		return "", false, err
	}
	if never {
		return "", false, nil
	}

	pattern := lead + body
	if anchor {
		pattern = "/" + pattern
	}
	if strings.HasPrefix(pattern, "#") || strings.HasPrefix(pattern, "!") {
		pattern = `\` + pattern
	}
	if negate {
		pattern = "!" + pattern
	}

	return pattern, true, nil
}

// trimTrailingSpaces drops trailing spaces that are not backslash-escaped.
func trimTrailingSpaces(s string) string {
	for strings.HasSuffix(s, " ") {
		rest := s[:len(s)-1]
		if (len(rest)-len(strings.TrimRight(rest, `\`)))%2 == 1 {
			break
		}
		s = rest
	}

	return s
}

// translate rewrites a pattern body. Escaped and edge whitespace and
// non-ASCII runes become one-rune classes, bracket expressions are rebuilt as
// plain rune sets, and escaped slashes become separators. anchor reports a
// separator before the last segment; never reports a class that matches
// nothing.
func translate(body string) (out string, anchor, never bool, err error) {
	var b strings.Builder
	leading := true
	end := len(strings.TrimRight(body, "/"))

	for i := 0; i < len(body); {
		r, size := utf8.DecodeRuneInString(body[i:])

		switch {
		case r == '\\':
			if i+size >= len(body) {
				return "", false, false, errTrailingEscape
			}
			esc, n := utf8.DecodeRuneInString(body[i+size:])
			switch {
			case esc == '/':
				b.WriteByte('/')
				anchor = anchor || (i > 0 && i < end)
			case unicode.IsSpace(esc) || esc >= utf8.RuneSelf:
				b.WriteString(emitClass(runeSet{{esc, esc}}))
			default:
				b.WriteString(body[i : i+size+n])
			}
			i += size + n

		case r == '[':
			set, negated, n, cerr := parseClass(body[i:])
			if cerr != nil {
				return "", false, false, cerr
			}
			if negated {
				set = set.complement()
			}
			// Classes never match a separator, and a rule line cannot carry
			// a raw newline.
			set = set.remove('/').remove('\n')
			if len(set) == 0 {
				never = true
			}
			b.WriteString(emitClass(set))
			i += n

		case unicode.IsSpace(r) && (leading || strings.TrimFunc(body[i:], unicode.IsSpace) == ""):
			b.WriteString(emitClass(runeSet{{r, r}}))
			i += size

		case r >= utf8.RuneSelf && r != utf8.RuneError:
			// The engine escapes literals byte by byte outside classes,
			// which splits multi-byte runes.
			b.WriteString(emitClass(runeSet{{r, r}}))
			i += size

		default:
			if r == '/' && i > 0 && i < end {
				anchor = true
			}
			b.WriteString(body[i : i+size])
			i += size
		}

		leading = leading && unicode.IsSpace(r)
	}

	if strings.HasPrefix(body, "/") {
		anchor = false
	}
	return b.String(), anchor, never, nil
}

// parseClass parses the bracket expression at the start of s and returns its
// members and the number of bytes consumed.
func parseClass(s string) (runeSet, bool, int, error) {
	i := 1
	negated := false
	if i < len(s) && (s[i] == '!' || s[i] == '^') {
		negated = true
		i++
	}

	var set runeSet
	for first := true; ; first = false {
		if i >= len(s) {
			return nil, false, 0, errOpenClass
		}
		if s[i] == ']' && !first {
			return set.normalize(), negated, i + 1, nil
		}

		if strings.HasPrefix(s[i:], "[:") {
			if j := strings.Index(s[i+2:], ":]"); j >= 0 {
				name := s[i+2 : i+2+j]
				members, ok := posixClasses[name]
				if !ok {
					return nil, false, 0, fmt.Errorf("%w: %w %q", ErrInvalidPattern, errClassName, name)
				}
				set = append(set, members...)
				i += j + 4
				continue
			}
		}

		lo, n, err := classRune(s, i)
		if err != nil {
			return nil, false, 0, err
		}
		i += n

		if i+1 < len(s) && s[i] == '-' && s[i+1] != ']' {
			hi, n, err := classRune(s, i+1)
			if err != nil {
				return nil, false, 0, err
			}
			if hi < lo {
				return nil, false, 0, errClassRange
			}
			i += 1 + n
			set = append(set, runeRange{lo, hi})
			continue
		}

		set = append(set, runeRange{lo, lo})
	}
}

func classRune(s string, i int) (rune, int, error) {
	if s[i] != '\\' {
		r, n := utf8.DecodeRuneInString(s[i:])
		return r, n, nil
	}
	if i+1 >= len(s) {
		return 0, 0, errOpenClass
	}

	r, n := utf8.DecodeRuneInString(s[i+1:])
	return r, n + 1, nil
}

// emitClass renders set as a bracket expression the rules engine copies
// verbatim into its regexp: "]" first, "!" and "-" last, nothing escaped.
// Negation is never emitted; callers pass the complement instead.
func emitClass(set runeSet) string {
	if len(set) == 1 && set[0].lo == set[0].hi && (set[0].lo == '!' || set[0].lo == '^') {
		// "[!]" and "[^]" do not read as classes.
		return `\` + string(set[0].lo)
	}

	hasClose, hasBang, hasDash := set.contains(']'), set.contains('!'), set.contains('-')
	rest := set.remove(']').remove('!').remove('-')

	var b strings.Builder
	b.WriteByte('[')
	if hasClose {
		b.WriteByte(']')
	}
	if !hasClose && len(rest) == 0 && hasBang {
		// A leading "!" would read as negation.
		if hasDash {
			b.WriteByte('-')
		}
		b.WriteString("!]")
		return b.String()
	}
	for _, r := range rest {
		b.WriteRune(r.lo)
		if r.hi > r.lo {
			if r.hi > r.lo+1 {
				b.WriteByte('-')
			}
			b.WriteRune(r.hi)
		}
	}
	if hasBang {
		b.WriteByte('!')
	}
	if hasDash {
		b.WriteByte('-')
	}
	b.WriteByte(']')

	return b.String()
}

type runeRange struct{ lo, hi rune }

// runeSet is a sorted list of disjoint, non-adjacent ranges once normalized.
type runeSet []runeRange

func (s runeSet) normalize() runeSet {
	if len(s) == 0 {
		return nil
	}

	sorted := slices.Clone(s)
	slices.SortFunc(sorted, func(a, b runeRange) int { return int(a.lo - b.lo) })

	out := runeSet{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.lo <= last.hi+1 {
			last.hi = max(last.hi, r.hi)
			continue
		}
		out = append(out, r)
	}

	return out
}

func (s runeSet) contains(c rune) bool {
	for _, r := range s {
		if r.lo <= c && c <= r.hi {
			return true
		}
	}
	return false
}

// complement returns every rune not in the normalized set s.
func (s runeSet) complement() runeSet {
	var out runeSet
	next := rune(0)
	for _, r := range s {
		if r.lo > next {
			out = append(out, runeRange{next, r.lo - 1})
		}
		next = r.hi + 1
	}
	if next <= unicode.MaxRune {
		out = append(out, runeRange{next, unicode.MaxRune})
	}
	return out
}

func (s runeSet) remove(c rune) runeSet {
	var out runeSet
	for _, r := range s {
		if c < r.lo || c > r.hi {
			out = append(out, r)
			continue
		}
		if r.lo < c {
			out = append(out, runeRange{r.lo, c - 1})
		}
		if c < r.hi {
			out = append(out, runeRange{c + 1, r.hi})
		}
	}
	return out
}

var posixClasses = map[string]runeSet{
	"alnum":  {{'0', '9'}, {'A', 'Z'}, {'a', 'z'}},
	"alpha":  {{'A', 'Z'}, {'a', 'z'}},
	"blank":  {{'\t', '\t'}, {' ', ' '}},
	"cntrl":  {{0x00, 0x1f}, {0x7f, 0x7f}},
	"digit":  {{'0', '9'}},
	"graph":  {{0x21, 0x7e}},
	"lower":  {{'a', 'z'}},
	"print":  {{0x20, 0x7e}},
	"punct":  {{0x21, 0x2f}, {0x3a, 0x40}, {0x5b, 0x60}, {0x7b, 0x7e}},
	"space":  {{'\t', '\r'}, {' ', ' '}},
	"upper":  {{'A', 'Z'}},
	"xdigit": {{'0', '9'}, {'A', 'F'}, {'a', 'f'}},
}
