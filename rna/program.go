// Package rna defines the intermediate program produced from a template,
// the LineMap relating it back to template coordinates, and the interpreter
// that runs it against a composition [engine.Context].
//
// Each [Instruction] occupies one generated line; the generated line of an
// instruction is its index plus one. Failures while running a program are
// reported as a [GenerationError] whose frames have been remapped to the
// template files and lines that produced the failing instructions.
package rna

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ribosome/pkg"
)

// Op identifies the kind of an instruction.
type Op string

const (
	OpHost      Op = "host"      // statement of the host language
	OpEmit      Op = "emit"      // start a line and append template text
	OpAdd       Op = "add"       // append template text to the current line
	OpAlign     Op = "align"     // start an aligned line and append template text
	OpDirective Op = "directive" // run-time directive with an argument expression
	OpSeparate  Op = "separate"  // separator attached to the following loop
)

// Instruction is one line of a program.
type Instruction struct {
	Op     Op     `json:"op"               yaml:"op"`
	Indent int    `json:"indent,omitempty" yaml:"indent,omitempty"`
	Name   string `json:"name,omitempty"   yaml:"name,omitempty"`
	Text   string `json:"text"             yaml:"text"`
}

// String renders the instruction as one listing line.
func (in Instruction) String() string {
	pad := strings.Repeat(" ", in.Indent)

	switch in.Op {
	case OpHost:
		return in.Text
	case OpDirective:
		return pad + in.Name + "(" + in.Text + ")"
	default:
		return pad + string(in.Op) + "(" + strconv.Quote(in.Text) + ")"
	}
}

// Program is a translated template.
type Program struct {
	Name         string        `json:"name"              yaml:"name"`
	Instructions []Instruction `json:"instructions"      yaml:"instructions"`
	LineMap      *LineMap      `json:"linemap,omitempty" yaml:"linemap,omitempty"`
}

// ProgramName returns the artifact path of the program translated from the
// template at path.
func ProgramName(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + pkg.ProgramExt
}

// Len returns the number of generated lines.
func (p *Program) Len() int { return len(p.Instructions) }

// WriteTo writes the program listing, one instruction per line.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)

	var n int64

	for _, in := range p.Instructions {
		m, err := bw.WriteString(in.String() + "\n")
		n += int64(m)

		if err != nil {
			return n, err
		}
	}

	return n, bw.Flush()
}

// Format selects a program rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats returns the supported renderings.
func Formats() []Format { return []Format{FormatText, FormatJSON, FormatYAML} }

// Render writes p to w in format f. The LineMap is included only if
// withLineMap is set; the text listing then ends with one comment per record.
func (p *Program) Render(w io.Writer, f Format, withLineMap bool) error {
	q := *p
	if !withLineMap {
		q.LineMap = nil
	}

	switch f {
	case FormatText, "":
		if _, err := q.WriteTo(w); err != nil {
			return err
		}

		if q.LineMap != nil {
			return q.LineMap.writeComments(w)
		}

		return nil

	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(&q)

	case FormatYAML:
		return yaml.NewEncoder(w, yaml.Indent(2)).Encode(&q)
	}

	return ErrFormat.With(slog.String("format", string(f)))
}
