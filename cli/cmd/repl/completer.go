package repl

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/ribosome/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "edit", "clear", "reset", "quit"}

// boundaries delimit completion words. Hyphens are not among them since
// data keys may contain them (e.g., log-pretty).
const boundaries = ". \t()[]{}+*/%<>=!&|,?:;@\""

func isWordBoundary(r rune) bool { return strings.ContainsRune(boundaries, r) }

// wordBounds returns the word around cursor and its byte offsets in input.
// The word is empty when the cursor sits between two boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = strings.LastIndexFunc(input[:cursor], isWordBoundary) + 1

	end = len(input)
	if k := strings.IndexFunc(input[cursor:], isWordBoundary); k >= 0 {
		end = cursor + k
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain preceding the word starting
// at wordStart: "server.http" for "x + server.http.ho". It is empty for a
// word not preceded by a dot.
func parentPath(input string, wordStart int) string {
	prefix := strings.TrimRight(input[:wordStart], ".")
	if prefix == "" {
		return ""
	}

	chain := strings.LastIndexFunc(prefix, func(r rune) bool {
		return r != '.' && isWordBoundary(r)
	})

	return strings.TrimSpace(prefix[chain+1:])
}

// inExpression reports whether cursor is at a position of a template line
// where an expression is written: anywhere in a host statement, inside the
// argument of a directive, or inside an unclosed marker of a text line.
func inExpression(input string, cursor int) bool {
	cursor = min(cursor, len(input))
	head := strings.TrimLeft(input, " ")

	if !strings.HasPrefix(head, ".") {
		return true
	}

	before := input[:cursor]

	if strings.HasPrefix(head, "./!") {
		return strings.Contains(before, "(")
	}

	open := max(strings.LastIndex(before, "@{"), strings.LastIndex(before, "&{"))

	return open >= 0 && !strings.Contains(before[open:], "}")
}

// childCandidates returns the completions for names under parent. The
// empty parent lists the statement keywords, the names visible to
// expressions, and the expression language builtins. Otherwise the keys of
// the map that parent resolves to are listed.
func childCandidates(s *Session, parent string) []string {
	if parent == "" {
		names := slices.Concat(lang.Keywords(), s.Names(), ExprLangBuiltinNames())
		slices.Sort(names)

		return slices.Compact(names)
	}

	if v, ok := s.Lookup(parent); ok {
		if m, ok := v.(map[string]any); ok {
			return slices.Sorted(maps.Keys(m))
		}

		return nil
	}

	return lang.BuiltinLookup(parent)
}

// completion is the state of the word being completed.
type completion struct {
	matches    fuzzy.Matches // ranked best-first
	candidates []string
	start, end int // byte offsets of the word
}

// complete ranks the candidates for the word at the cursor. An empty word
// has no matches at the top level, so the hint line stays visible; after a
// dot every member matches, so the members can be browsed.
func (m model) complete() completion {
	input, cursor := m.input.Value(), m.input.Position()

	word, start, end := wordBounds(input, cursor)
	c := completion{start: start, end: end}

	switch {
	case m.mode == modeCtrl:
		if word == "" {
			return c
		}

		c.candidates = ctrlCommands

	case !inExpression(input, cursor):
		return c

	default:
		parent := parentPath(input, start)
		c.candidates = childCandidates(m.session, parent)

		if word == "" {
			if parent == "" {
				c.candidates = nil

				return c
			}

			for i, s := range c.candidates {
				c.matches = append(c.matches, fuzzy.Match{Str: s, Index: i})
			}

			return c
		}
	}

	if len(c.candidates) > 0 {
		c.matches = fuzzy.Find(word, c.candidates)
	}

	return c
}

var (
	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedMatchStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("4")).
				Bold(true)
)

// renderCandidateBar renders matches on one line no wider than width,
// ending in an ellipsis when some do not fit. isFunc selects the
// candidates shown with a "()" suffix.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
	isFunc func(string) bool,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	parts := make([]string, 0, len(matches))
	used := 0

	for i, match := range matches {
		r := renderCandidate(match, tabActive && i == suggIdx, isFunc(match.Str))
		w := lipgloss.Width(r)

		if i > 0 {
			w += lipgloss.Width(sep)

			need := used + w
			if i < len(matches)-1 {
				need += reserve
			}

			if need > width {
				parts = append(parts, ellipsis)

				break
			}
		}

		parts = append(parts, r)
		used += w
	}

	return strings.Join(parts, sep)
}

// renderCandidate renders one candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected, fn bool) string {
	base, hl := suggestionStyle, matchStyle
	if selected {
		base, hl = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(hl.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if fn {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}

// formatPreview renders a short description of v for the vars listing.
func formatPreview(v any) string {
	if fn, ok := reflectParams(v); ok {
		return "(" + strings.Join(fn, ", ") + ")"
	}

	switch v := v.(type) {
	case map[string]any:
		return fmt.Sprintf("{ %d keys }", len(v))
	case []any:
		return fmt.Sprintf("[ %d items ]", len(v))
	case string:
		return truncate(fmt.Sprintf("%q", v), 40)
	}

	return truncate(fmt.Sprint(v), 40)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}

	return s
}

// isFunction reports whether name is callable.
func isFunction(s *Session, name string) bool {
	if _, ok := builtin.Index[name]; ok {
		return true
	}

	if s == nil {
		return false
	}

	if _, ok := s.Signature(name); ok {
		return true
	}

	v, ok := s.Lookup(name)
	if !ok {
		return false
	}

	_, ok = reflectParams(v)

	return ok
}
