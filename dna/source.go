package dna

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/readahead"
)

// maxLine bounds the length of one template line.
const maxLine = 1 << 20

// frame is an open template on the include stack.
type frame struct {
	path string // as reported in diagnostics
	dir  string // base of relative includes
	line int    // number of the line last read
	scan *bufio.Scanner
	rc   io.Closer
}

func newFrame(path, dir string, r io.Reader) *frame {
	ra := readahead.NewReader(r)

	s := bufio.NewScanner(ra)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)

	return &frame{path: path, dir: dir, scan: s, rc: ra}
}

func openFrame(path string) (*frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fr := newFrame(path, filepath.Dir(path), f)
	fr.rc = closers{fr.rc, f}

	return fr, nil
}

// next returns the next line of fr. ok is false at end of input.
func (fr *frame) next() (text string, ok bool, err error) {
	if !fr.scan.Scan() {
		return "", false, fr.scan.Err()
	}

	fr.line++

	return fr.scan.Text(), true, nil
}

func (fr *frame) close() error { return fr.rc.Close() }

type closers []io.Closer

func (cs closers) Close() error {
	var first error

	for _, c := range cs {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// stack is the include stack; the top is the file being read.
type stack []*frame

func (s *stack) push(fr *frame) { *s = append(*s, fr) }

func (s *stack) top() *frame { return (*s)[len(*s)-1] }

func (s *stack) pop() error {
	fr := s.top()
	*s = (*s)[:len(*s)-1]

	return fr.close()
}

// contains reports whether path is open on the stack.
func (s stack) contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	for _, fr := range s {
		if a, err := filepath.Abs(fr.path); err == nil && a == abs {
			return true
		}
	}

	return false
}

func (s *stack) closeAll() {
	for len(*s) > 0 {
		_ = s.pop()
	}
}
