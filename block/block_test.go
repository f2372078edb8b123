package block

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		rows  []string
		width int
	}{
		{"empty", "", []string{""}, 0},
		{"single", "abc", []string{"abc"}, 3},
		{"multi", "a\nbcd\n", []string{"a", "bcd"}, 3},
		{"crlf", "ab\r\ncd", []string{"ab", "cd"}, 2},
		{"runes", "héllo", []string{"héllo"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.text)
			if diff := cmp.Diff(tt.rows, b.Rows()); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}

			if b.Width() != tt.width {
				t.Errorf("width = %d, want %d", b.Width(), tt.width)
			}
		})
	}
}

func TestAddRight(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		rows []string
	}{
		{"same height", "ab\nc", "x\ny", []string{"abx", "c y"}},
		{"taller right", "ab", "x\ny\nz", []string{"abx", "  y", "  z"}},
		{"taller left", "a\nb\nc", "xy", []string{"axy", "b", "c"}},
		{"empty right", "abc", "", []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := New(tt.a), New(tt.b)
			wantWidth := a.Width() + b.Width()
			wantLen := max(a.Len(), b.Len())

			a.AddRight(b)

			if diff := cmp.Diff(tt.rows, a.Rows()); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}

			if a.Width() != wantWidth {
				t.Errorf("width = %d, want %d", a.Width(), wantWidth)
			}

			if a.Len() != wantLen {
				t.Errorf("len = %d, want %d", a.Len(), wantLen)
			}
		})
	}
}

func TestAddRightWidthProperty(t *testing.T) {
	samples := []string{"", "a", "abc\nd", "  x  \n\n y", "1\n2\n3\n4"}

	for _, x := range samples {
		for _, y := range samples {
			a, b := New(x), New(y)
			wa, wb := a.Width(), b.Width()
			la, lb := a.Len(), b.Len()

			a.AddRight(b)

			if a.Width() != wa+wb {
				t.Errorf("AddRight(%q, %q) width = %d, want %d", x, y, a.Width(), wa+wb)
			}

			if a.Len() != max(la, lb) {
				t.Errorf("AddRight(%q, %q) len = %d, want %d", x, y, a.Len(), max(la, lb))
			}
		}
	}
}

func TestAddBottom(t *testing.T) {
	a := New("ab")
	a.AddBottom(New("wxyz\nq"))

	if diff := cmp.Diff([]string{"ab", "wxyz", "q"}, a.Rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	if a.Width() != 4 {
		t.Errorf("width = %d, want 4", a.Width())
	}
}

func TestTrim(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		rows  []string
		width int
	}{
		{"blank", "   \n  ", nil, 0},
		{"empty row", "", nil, 0},
		{"box", "\n   ab  \n    c   \n\n", []string{"ab", " c"}, 2},
		{"inner blank", "  x\n\n  y", []string{"x", "", "y"}, 1},
		{"already trimmed", "a\n b", []string{"a", " b"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.text).Trim()

			if diff := cmp.Diff(tt.rows, got.rows); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}

			if got.Width() != tt.width {
				t.Errorf("width = %d, want %d", got.Width(), tt.width)
			}
		})
	}
}

func TestTrimIdempotent(t *testing.T) {
	for _, text := range []string{"  a\n   bb  \n", "x", "\n\n  y  z  \n\t w"} {
		once := New(text).Trim()
		twice := once.Trim()

		if diff := cmp.Diff(once.Rows(), twice.Rows()); diff != "" {
			t.Errorf("Trim(%q) not idempotent (-once +twice):\n%s", text, diff)
		}

		if once.Width() != twice.Width() {
			t.Errorf("Trim(%q) width %d then %d", text, once.Width(), twice.Width())
		}
	}
}

func TestLastOffset(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"abc\n    def", 4},
		{"            x", 12},
	}

	for _, tt := range tests {
		if got := New(tt.text).LastOffset(); got != tt.want {
			t.Errorf("LastOffset(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}

	if got := Empty().LastOffset(); got != 0 {
		t.Errorf("LastOffset(empty) = %d, want 0", got)
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		tabsize int
		want    string
	}{
		{"plain", "a\n  b", 0, "a\n  b\n"},
		{"tabs", "          x\n   y", 4, "\t\t  x\n   y\n"},
		{"exact", "    z", 2, "\t\tz\n"},
		{"empty row", "", 4, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sb strings.Builder
			if err := New(tt.text).Render(&sb, tt.tabsize); err != nil {
				t.Fatalf("Render: %v", err)
			}

			if sb.String() != tt.want {
				t.Errorf("Render = %q, want %q", sb.String(), tt.want)
			}
		})
	}
}
