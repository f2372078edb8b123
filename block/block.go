// Package block implements rectangular text fragments that compose
// horizontally and vertically.
//
// A [Block] is a sequence of rows and a width equal to the longest row,
// measured in runes. Rows shorter than the width are never padded in
// storage; padding is synthesized when blocks are joined side by side.
package block

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Block is a rectangular fragment of text.
//
// The zero value is the empty block: no rows and width 0.
type Block struct {
	rows  []string
	width int
}

// New returns a block holding the lines of text.
//
// Lines are split on newlines; a single trailing newline does not produce an
// extra empty row. The empty string yields a block with one empty row.
func New(text string) *Block {
	lines := splitLines(text)

	b := &Block{rows: lines}
	for _, l := range lines {
		b.width = max(b.width, utf8.RuneCountInString(l))
	}

	return b
}

// Empty returns a block with no rows.
func Empty() *Block { return &Block{} }

// Spaces returns a single-row block of n spaces.
func Spaces(n int) *Block {
	return &Block{rows: []string{strings.Repeat(" ", max(n, 0))}, width: max(n, 0)}
}

// Width returns the width of b in runes.
func (b *Block) Width() int { return b.width }

// Len returns the number of rows in b.
func (b *Block) Len() int { return len(b.rows) }

// Rows returns a copy of the rows of b.
func (b *Block) Rows() []string { return append([]string(nil), b.rows...) }

// Clone returns a deep copy of b.
func (b *Block) Clone() *Block {
	return &Block{rows: b.Rows(), width: b.width}
}

// String returns the rows of b joined by newlines.
func (b *Block) String() string { return strings.Join(b.rows, "\n") }

// AddRight joins other to the right edge of b.
//
// Row i of other is appended to row i of b after padding b's row to b's
// width. Rows missing from b are synthesized as blank rows of b's width.
func (b *Block) AddRight(other *Block) {
	for i, row := range other.rows {
		if i < len(b.rows) {
			pad := b.width - utf8.RuneCountInString(b.rows[i])
			b.rows[i] += strings.Repeat(" ", max(pad, 0)) + row
		} else {
			b.rows = append(b.rows, strings.Repeat(" ", b.width)+row)
		}
	}

	b.width += other.width
}

// AddBottom stacks other below b.
func (b *Block) AddBottom(other *Block) {
	b.rows = append(b.rows, other.rows...)
	b.width = max(b.width, other.width)
}

// Trim returns a copy of b with blank leading and trailing rows removed and
// columns cut to the bounding box of the non-whitespace content.
//
// A block without any non-whitespace content trims to the empty block.
func (b *Block) Trim() *Block {
	top, bottom, left, right := -1, -1, -1, -1

	for i, row := range b.rows {
		if strings.TrimSpace(row) == "" {
			continue
		}

		if top == -1 {
			top = i
		}

		bottom = i

		n := utf8.RuneCountInString(row)
		lead := n - utf8.RuneCountInString(strings.TrimLeftFunc(row, unicode.IsSpace))
		end := utf8.RuneCountInString(strings.TrimRightFunc(row, unicode.IsSpace))

		if left == -1 || lead < left {
			left = lead
		}

		if right == -1 || end > right {
			right = end
		}
	}

	if top == -1 {
		return Empty()
	}

	rows := make([]string, 0, bottom-top+1)
	for _, row := range b.rows[top : bottom+1] {
		rows = append(rows, sliceRunes(row, left, right))
	}

	return &Block{rows: rows, width: right - left}
}

// LastOffset returns the leading whitespace width of the final row of b, or 0
// if b has no rows.
func (b *Block) LastOffset() int {
	if len(b.rows) == 0 {
		return 0
	}

	last := b.rows[len(b.rows)-1]

	return utf8.RuneCountInString(last) -
		utf8.RuneCountInString(strings.TrimLeftFunc(last, unicode.IsSpace))
}

// Render writes each row of b followed by a newline.
//
// If tabsize is positive, the leading run of spaces of each row is re-encoded
// as tabs of that width followed by the remaining spaces.
func (b *Block) Render(w io.Writer, tabsize int) error {
	var sb strings.Builder

	for _, row := range b.rows {
		if tabsize > 0 {
			body := strings.TrimLeft(row, " ")
			n := len(row) - len(body)
			sb.WriteString(strings.Repeat("\t", n/tabsize))
			sb.WriteString(strings.Repeat(" ", n%tabsize))
			sb.WriteString(body)
		} else {
			sb.WriteString(row)
		}

		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())

	return err
}

// splitLines splits text on line boundaries the way Python's splitlines
// does for "\n" and "\r\n", except that the empty string yields one empty
// line.
func splitLines(text string) []string {
	if text == "" {
		return []string{""}
	}

	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")

	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}

	return lines
}

// sliceRunes returns the runes of s in [from, to), clamped to len(s).
func sliceRunes(s string, from, to int) string {
	r := []rune(s)
	if from > len(r) {
		return ""
	}

	return string(r[from:min(to, len(r))])
}
