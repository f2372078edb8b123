package rna

import (
	"fmt"
	"io"
)

// Record anchors generated line Generated to line Line of File. Generated
// lines after it map to source lines at the same offset until the next
// record.
type Record struct {
	Generated int    `json:"generated" yaml:"generated"`
	File      string `json:"file"      yaml:"file"`
	Line      int    `json:"line"      yaml:"line"`
}

// LineMap relates generated lines to template coordinates.
type LineMap struct {
	Records []Record `json:"records" yaml:"records"`
}

// Add notes that generated line g came from line of file. A record is kept
// only where the file or the offset between generated and source lines
// changes. Calls must use strictly increasing g.
func (m *LineMap) Add(g int, file string, line int) {
	if n := len(m.Records); n > 0 {
		last := m.Records[n-1]
		if last.File == file && g-last.Generated == line-last.Line {
			return
		}
	}

	m.Records = append(m.Records, Record{Generated: g, File: file, Line: line})
}

// Lookup returns the template coordinates of generated line g.
func (m *LineMap) Lookup(g int) (file string, line int, ok bool) {
	if m == nil {
		return "", 0, false
	}

	// Records are sorted by Generated: find the last one at or before g.
	lo, hi := 0, len(m.Records)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if m.Records[mid].Generated <= g {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	if lo == 0 {
		return "", 0, false
	}

	r := m.Records[lo-1]

	return r.File, g - r.Generated + r.Line, true
}

// Len returns the number of records.
func (m *LineMap) Len() int {
	if m == nil {
		return 0
	}

	return len(m.Records)
}

func (m *LineMap) writeComments(w io.Writer) error {
	for _, r := range m.Records {
		if _, err := fmt.Fprintf(w, "# %d -> %s:%d\n", r.Generated, r.File, r.Line); err != nil {
			return err
		}
	}

	return nil
}
