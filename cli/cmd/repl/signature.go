package repl

import (
	"maps"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// exprLangBuiltins lists the parameters of the expression language's
// builtin functions.
var exprLangBuiltins = map[string][]string{
	"len":           {"v"},
	"all":           {"array", "predicate"},
	"any":           {"array", "predicate"},
	"one":           {"array", "predicate"},
	"none":          {"array", "predicate"},
	"map":           {"array", "mapper"},
	"filter":        {"array", "predicate"},
	"find":          {"array", "predicate"},
	"findIndex":     {"array", "predicate"},
	"findLast":      {"array", "predicate"},
	"findLastIndex": {"array", "predicate"},
	"groupBy":       {"array", "mapper"},
	"sortBy":        {"array", "mapper"},
	"count":         {"array", "predicate"},
	"sum":           {"array"},
	"mean":          {"array"},
	"median":        {"array"},
	"min":           {"array"},
	"max":           {"array"},
	"join":          {"array", "separator"},
	"split":         {"string", "separator"},
	"replace":       {"string", "old", "new"},
	"trim":          {"string"},
	"trimLeft":      {"string"},
	"trimRight":     {"string"},
	"upper":         {"string"},
	"lower":         {"string"},
	"title":         {"string"},
	"int":           {"v"},
	"float":         {"v"},
	"string":        {"v"},
	"type":          {"v"},
}

// ExprLangBuiltinNames returns the names of the expression language's
// builtin functions, sorted.
func ExprLangBuiltinNames() []string {
	return slices.Sorted(maps.Keys(exprLangBuiltins))
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is the call whose argument list contains the cursor.
type functionCall struct {
	name     string // dotted function name, e.g. "path.cat"
	argIndex int    // 0-based argument under the cursor
	inCall   bool
}

// detectFunctionCall finds the innermost unclosed call before cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open := openParen(input[:cursor])
	if open < 0 {
		return functionCall{}
	}

	start := open
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isNameRune(r) {
			break
		}

		start -= size
	}

	name := input[start:open]
	if name == "" {
		return functionCall{}
	}

	argIndex, depth := 0, 0

	for _, r := range input[open+1 : cursor] {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// openParen returns the byte offset of the last '(' in s that is not
// closed, or -1.
func openParen(s string) int {
	depth := 0

	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				return i
			}

			depth--
		}
	}

	return -1
}

func isNameRune(r rune) bool {
	return r == '.' || r == '_' || r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// getSignature returns the parameters of the function called name: a user
// function or composition builtin of s, an expression language builtin, or
// a host builtin described by reflection.
func getSignature(s *Session, name string) (params []string, ok bool) {
	if s != nil {
		if params, ok = s.Signature(name); ok {
			return params, true
		}
	}

	if params, ok = exprLangBuiltins[name]; ok {
		return params, true
	}

	if s == nil {
		return nil, false
	}

	v, ok := s.Lookup(name)
	if !ok {
		return nil, false
	}

	return reflectParams(v)
}

// reflectParams names the parameters of a Go function by their types.
func reflectParams(fn any) ([]string, bool) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return nil, false
	}

	params := make([]string, t.NumIn())

	for i := range params {
		in := t.In(i)

		if t.IsVariadic() && i == t.NumIn()-1 {
			params[i] = "..." + typeName(in.Elem())

			continue
		}

		params[i] = typeName(in)
	}

	return params, true
}

func typeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Func:
		return "func"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Interface:
		return "any"
	case reflect.Pointer:
		return typeName(t.Elem())
	}

	if t.Name() != "" {
		return t.Name()
	}

	return t.Kind().String()
}

// renderSignatureHint renders name(params) with the parameter at argIndex
// highlighted. A variadic parameter stays highlighted for every later
// argument.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		current := argIndex == i || (strings.HasPrefix(p, "...") && argIndex >= i)
		if current {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
