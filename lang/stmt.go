package lang

import (
	"log/slog"
	"regexp"
	"strings"
)

//go:generate go tool stringer --linecomment --type Kind --output stmt_string.go

// Kind classifies a statement. The statement forms are:
//
//	KindNone      blank line or comment
//	KindExpr      expression evaluated for its effects
//	KindLet       let NAME = EXPR
//	KindAssign    NAME = EXPR, NAME += EXPR, ...
//	KindFor       for [KEY,] NAME in EXPR
//	KindWhile     while EXPR
//	KindIf        if EXPR
//	KindElif      elif EXPR
//	KindElse      else
//	KindEnd       end
//	KindDef       def NAME(PARAMS)
//	KindReturn    return [EXPR]
//	KindBreak     break
//	KindContinue  continue
type Kind int

const (
	KindNone     Kind = iota // none
	KindExpr                 // expr
	KindLet                  // let
	KindAssign               // assign
	KindFor                  // for
	KindWhile                // while
	KindIf                   // if
	KindElif                 // elif
	KindElse                 // else
	KindEnd                  // end
	KindDef                  // def
	KindReturn               // return
	KindBreak                // break
	KindContinue             // continue
)

// Keywords returns the words that begin a statement.
func Keywords() []string {
	var kw []string

	for k := KindFor; k <= KindContinue; k++ {
		kw = append(kw, k.String())
	}

	return append(kw, KindLet.String())
}

// Stmt is one parsed line of the statement language.
type Stmt struct {
	Kind   Kind
	Name   string   // variable, loop value or function name
	Key    string   // loop key in the two-variable for form
	Op     string   // assignment operator
	Params []string // function parameters
	Expr   string   // expression operand, if any
}

// Opens reports whether s begins a block closed by end.
func (s Stmt) Opens() bool {
	switch s.Kind {
	case KindFor, KindWhile, KindIf, KindDef:
		return true
	}

	return false
}

// IsLoop reports whether s begins a loop.
func (s Stmt) IsLoop() bool { return s.Kind == KindFor || s.Kind == KindWhile }

const ident = `[A-Za-z_][A-Za-z0-9_]*`

var (
	identRE  = regexp.MustCompile(`^` + ident + `$`)
	forRE    = regexp.MustCompile(`^(` + ident + `)(?:\s*,\s*(` + ident + `))?\s+in\s+(.+)$`)
	defRE    = regexp.MustCompile(`^(` + ident + `)\s*\(([^)]*)\)$`)
	letRE    = regexp.MustCompile(`^(` + ident + `)\s*=\s*(.+)$`)
	assignRE = regexp.MustCompile(`^(` + ident + `)\s*([-+*/%]?=)(.*)$`)
)

// Parse classifies one statement line.
func Parse(line string) (Stmt, error) {
	line = strings.TrimSpace(line)

	if line == "" || strings.HasPrefix(line, "#") {
		return Stmt{Kind: KindNone}, nil
	}

	word, rest := splitKeyword(line)

	fail := func(reason string) (Stmt, error) {
		return Stmt{}, ErrSyntax.With(
			slog.String("statement", line),
			slog.String("reason", reason),
		)
	}

	switch word {
	case "for":
		m := forRE.FindStringSubmatch(rest)
		if m == nil {
			return fail("expected: for NAME in EXPR")
		}

		if m[2] != "" {
			return Stmt{Kind: KindFor, Key: m[1], Name: m[2], Expr: m[3]}, nil
		}

		return Stmt{Kind: KindFor, Name: m[1], Expr: m[3]}, nil

	case "while", "if", "elif":
		if rest == "" {
			return fail(word + " requires a condition")
		}

		kind := map[string]Kind{"while": KindWhile, "if": KindIf, "elif": KindElif}[word]

		return Stmt{Kind: kind, Expr: rest}, nil

	case "else":
		if w, cond := splitKeyword(rest); w == "if" {
			if cond == "" {
				return fail("else if requires a condition")
			}

			return Stmt{Kind: KindElif, Expr: cond}, nil
		}

		if rest != "" {
			return fail("unexpected text after else")
		}

		return Stmt{Kind: KindElse}, nil

	case "end", "break", "continue":
		if rest != "" {
			return fail("unexpected text after " + word)
		}

		kind := map[string]Kind{"end": KindEnd, "break": KindBreak, "continue": KindContinue}[word]

		return Stmt{Kind: kind}, nil

	case "def":
		m := defRE.FindStringSubmatch(rest)
		if m == nil {
			return fail("expected: def NAME(PARAMS)")
		}

		params, err := splitParams(m[2])
		if err != nil {
			return fail(err.Error())
		}

		return Stmt{Kind: KindDef, Name: m[1], Params: params}, nil

	case "return":
		return Stmt{Kind: KindReturn, Expr: rest}, nil

	case "let":
		m := letRE.FindStringSubmatch(rest)
		if m == nil || strings.HasPrefix(m[2], "=") {
			return fail("expected: let NAME = EXPR")
		}

		return Stmt{Kind: KindLet, Name: m[1], Op: "=", Expr: m[2]}, nil
	}

	if m := assignRE.FindStringSubmatch(line); m != nil {
		val := strings.TrimSpace(m[3])

		// NAME == EXPR is a comparison, not an assignment.
		if !(m[2] == "=" && strings.HasPrefix(m[3], "=")) {
			if val == "" {
				return fail("assignment requires a value")
			}

			return Stmt{Kind: KindAssign, Name: m[1], Op: m[2], Expr: val}, nil
		}
	}

	return Stmt{Kind: KindExpr, Expr: line}, nil
}

// splitKeyword splits the leading identifier of line from the remainder.
// The identifier must end at whitespace or the end of the line.
func splitKeyword(line string) (word, rest string) {
	i := 0
	for i < len(line) && (line[i] == '_' || isAlnum(line[i])) {
		i++
	}

	if i == 0 || (i < len(line) && line[i] != ' ' && line[i] != '\t') {
		return "", line
	}

	return line[:i], strings.TrimSpace(line[i:])
}

func splitParams(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	params := strings.Split(list, ",")
	seen := make(map[string]bool, len(params))

	for i, p := range params {
		p = strings.TrimSpace(p)
		if !identRE.MatchString(p) {
			return nil, ErrSyntax.With(slog.String("parameter", p))
		}

		if seen[p] {
			return nil, ErrSyntax.With(slog.String("duplicate parameter", p))
		}

		seen[p] = true
		params[i] = p
	}

	return params, nil
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
