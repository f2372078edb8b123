package dna

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ardnew/ribosome/rna"
)

// Sigil marks a control line.
const Sigil = '.'

// Line is a classified template line: one of [Host], [Template] or
// [Directive].
type Line interface{ line() }

// Host is a statement of the host language, copied verbatim.
type Host struct {
	Text string
}

// Template is a line of output text with embedded markers.
type Template struct {
	Op     rna.Op // rna.OpEmit, rna.OpAdd or rna.OpAlign
	Indent int
	Text   string
}

// Directive is a /! command. Arg is the text between the parentheses.
type Directive struct {
	Indent int
	Name   string
	Arg    string
}

func (Host) line()      {}
func (Template) line()  {}
func (Directive) line() {}

var directiveName = regexp.MustCompile(`^[0-9A-Za-z_]+`)

// Classify determines the kind of one physical template line, without its
// line terminator.
func Classify(raw string) (Line, error) {
	raw = strings.TrimSuffix(raw, "\r")

	body := strings.TrimLeft(raw, " \t")
	if body == "" || body[0] != Sigil {
		return Host{Text: raw}, nil
	}

	indent := len(raw) - len(body)

	text := strings.TrimRight(body[1:], " \t")
	text = strings.TrimSuffix(text, "$")

	if strings.ContainsRune(text, '\t') {
		return nil, ErrTab
	}

	cmd := strings.TrimLeft(text, " ")

	switch {
	case strings.HasPrefix(cmd, "/+"):
		return Template{Op: rna.OpAdd, Indent: indent, Text: cmd[2:]}, nil

	case strings.HasPrefix(cmd, "/="):
		return Template{Op: rna.OpAlign, Indent: indent, Text: cmd[2:]}, nil

	case strings.HasPrefix(cmd, "/!"):
		return parseDirective(indent, cmd[2:])
	}

	return Template{Op: rna.OpEmit, Indent: indent, Text: text}, nil
}

func parseDirective(indent int, s string) (Line, error) {
	name := directiveName.FindString(s)
	if name == "" {
		return nil, ErrIdentifier
	}

	rest := strings.TrimSpace(s[len(name):])
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return nil, ErrArgument.With(slog.String("directive", name)).
			Wrap(errors.New("argument must be parenthesised"))
	}

	return Directive{
		Indent: indent,
		Name:   name,
		Arg:    strings.TrimSpace(rest[1 : len(rest)-1]),
	}, nil
}
