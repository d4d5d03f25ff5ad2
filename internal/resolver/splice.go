package resolver

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// rewrite replaces every non-overlapping match of re in input with the
// result of fn. Matches are located once against the original input and
// each one is spliced at its own offset, so identical text elsewhere is
// never touched. regexp2 reports offsets in runes.
func rewrite(re *regexp2.Regexp, input string, fn func(m *regexp2.Match) (string, error)) (string, error) {
	m, err := re.FindStringMatch(input)
	if err != nil || m == nil {
		return input, err
	}
	runes := []rune(input)
	var b strings.Builder
	b.Grow(len(input))
	last := 0
	for m != nil {
		repl, err := fn(m)
		if err != nil {
			return "", err
		}
		b.WriteString(string(runes[last:m.Index]))
		b.WriteString(repl)
		last = m.Index + m.Length
		if m, err = re.FindNextMatch(m); err != nil {
			return "", err
		}
	}
	b.WriteString(string(runes[last:]))
	return b.String(), nil
}

// group returns the text of capture group n.
func group(m *regexp2.Match, n int) string {
	g := m.GroupByNumber(n)
	if g == nil {
		return ""
	}
	return g.String()
}
