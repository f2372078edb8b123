package engine

import (
	"log/slog"
	"regexp"
	"strconv"

	"github.com/ardnew/ribosome/block"
)

// Sigils introducing a marker.
const (
	SigilTrim = '@'
	SigilKeep = '&'
)

var markerOpen = regexp.MustCompile(`[@&][1-9]?\{`)

// Span locates one marker within a line.
type Span struct {
	Start, End int    // byte offsets; End is just past the closing brace
	Sigil      byte   // SigilTrim or SigilKeep
	Level      int    // deferral depth, 0 for immediate evaluation
	Expr       string // text between the braces
}

// Defer returns the marker text re-emitted one level shallower.
func (s Span) Defer() string {
	head := string(s.Sigil)
	if s.Level > 1 {
		head += strconv.Itoa(s.Level - 1)
	}

	return head + "{" + s.Expr + "}"
}

// Scan returns the marker spans of line in order.
// It fails with [ErrUnterminated] if a marker's braces do not balance.
func Scan(line string) ([]Span, error) {
	var spans []Span

	for pos := 0; pos < len(line); {
		loc := markerOpen.FindStringIndex(line[pos:])
		if loc == nil {
			break
		}

		start, open := pos+loc[0], pos+loc[1]-1

		end := closeBrace(line, open)
		if end < 0 {
			return spans, ErrUnterminated.With(slog.Int("column", start+1))
		}

		s := Span{
			Start: start,
			End:   end + 1,
			Sigil: line[start],
			Expr:  line[open+1 : end],
		}

		if open-start == 2 {
			s.Level = int(line[start+1] - '0')
		}

		spans = append(spans, s)
		pos = s.End
	}

	return spans, nil
}

// closeBrace returns the index of the brace closing the one at open, or -1.
// Braces inside quoted string literals are ignored.
func closeBrace(line string, open int) int {
	depth := 0

	var quote byte

	for i := open; i < len(line); i++ {
		ch := line[i]

		if quote != 0 {
			switch ch {
			case '\\':
				if quote != '`' {
					i++
				}
			case quote:
				quote = 0
			}

			continue
		}

		switch ch {
		case '"', '\'', '`':
			quote = ch
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// Expand expands the markers of line into a block.
//
// Text between markers is copied literally. A deferred marker is re-emitted
// one level shallower without evaluation. An immediate marker is evaluated
// with eval inside a fresh level: if the evaluation composed output, those
// blocks are stacked and the value is ignored; otherwise the value's text
// is used. The trim sigil trims the resulting block.
func (c *Context) Expand(line string, eval Evaluator) (*block.Block, error) {
	spans, err := Scan(line)
	if err != nil {
		return nil, err
	}

	out := block.Empty()
	pos := 0

	for _, s := range spans {
		if s.Start > pos {
			out.AddRight(block.New(line[pos:s.Start]))
		}

		pos = s.End

		if s.Level > 0 {
			out.AddRight(block.New(s.Defer()))

			continue
		}

		b, err := c.evaluate(s.Expr, eval)
		if err != nil {
			return nil, err
		}

		if s.Sigil == SigilTrim {
			b = b.Trim()
		}

		out.AddRight(b)
	}

	if pos < len(line) {
		out.AddRight(block.New(line[pos:]))
	}

	return out, nil
}

func (c *Context) evaluate(expr string, eval Evaluator) (*block.Block, error) {
	c.push()

	val, err := eval(expr)

	lvl, perr := c.pop()
	if err != nil {
		return nil, err
	}

	if perr != nil {
		return nil, perr
	}

	if len(lvl) == 0 {
		return block.New(Text(val)), nil
	}

	b := lvl[0].Clone()
	for _, o := range lvl[1:] {
		b.AddBottom(o)
	}

	return b, nil
}
