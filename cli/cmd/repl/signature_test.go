package repl

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ribosome/log"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cursor int
		want   functionCall
	}{
		{"no call", "greeting", 8, functionCall{}},
		{"first arg", "add(", 4, functionCall{"add", 0, true}},
		{"first arg with value", "add(1", 5, functionCall{"add", 0, true}},
		{"second arg", "add(1,", 6, functionCall{"add", 1, true}},
		{"second arg with value", "add(1, 2", 8, functionCall{"add", 1, true}},
		{"dotted name", "path.cat(", 9, functionCall{"path.cat", 0, true}},
		{"dotted name third arg", "path.cat('/a', '/b',", 21, functionCall{"path.cat", 2, true}},
		{"nested parens", "add(twice(2), ", 14, functionCall{"add", 1, true}},
		{"cursor inside nested call", "add(twice(2, 3), 4)", 10, functionCall{"twice", 0, true}},
		{"comma inside list", "join([1, 2], ", 13, functionCall{"join", 1, true}},
		{"closed call", "add(1, 2) + ", 12, functionCall{}},
		{"inside marker", ".x @{emit(", 10, functionCall{"emit", 0, true}},
		{"directive", `./!output(`, 10, functionCall{"output", 0, true}},
		{"grouping", "(1 + ", 5, functionCall{}},
		{"cursor past end", "add(", 99, functionCall{"add", 0, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(functionCall{})); diff != "" {
				t.Errorf("detectFunctionCall(%q, %d) mismatch (-want +got):\n%s",
					tt.input, tt.cursor, diff)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	s := NewSession(nil, t.TempDir(), log.Default())

	if _, err := s.Exec(t.Context(), "def add(x, y)\nreturn x + y\nend\n"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		want []string
		ok   bool
	}{
		{"add", []string{"x", "y"}, true},
		{"emit", []string{"text"}, true},
		{"output", []string{"path"}, true},
		{"flush", []string{}, true},
		{"join", []string{"array", "separator"}, true},
		{"upper", []string{"string"}, true},
		{"path.cat", []string{"...string"}, true},
		{"path.rel", []string{"string", "string"}, true},
		{"mung.prefix", []string{"string", "...string"}, true},
		{"mung.prefixif", []string{"string", "string", "...string"}, true},
		{"file.exists", []string{"string"}, true},
		{"cwd", []string{}, true},
		{"slash", nil, false},
		{"doesnotexist", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := getSignature(s, tt.name)
			if ok != tt.ok {
				t.Fatalf("getSignature(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}

			if diff := cmp.Diff(tt.want, got, cmpEmpty); diff != "" {
				t.Errorf("getSignature(%q) mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}

	if params, ok := getSignature(nil, "len"); !ok || len(params) != 1 {
		t.Errorf("getSignature(nil, len) = %v, %v", params, ok)
	}
}

// cmpEmpty treats nil and empty slices as equal.
var cmpEmpty = cmp.Comparer(func(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}

	return cmp.Equal(a, b)
})

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name     string
		params   []string
		argIndex int
	}{
		{"cwd", nil, 0},
		{"add", []string{"x", "y"}, 0},
		{"add", []string{"x", "y"}, 1},
		{"path.cat", []string{"...string"}, 3},
	}

	for _, tt := range tests {
		got := renderSignatureHint(tt.name, tt.params, tt.argIndex)

		if !strings.Contains(got, tt.name) {
			t.Errorf("renderSignatureHint(%q) = %q, lacks the name", tt.name, got)
		}

		for _, p := range tt.params {
			if !strings.Contains(got, p) {
				t.Errorf("renderSignatureHint(%q) = %q, lacks %q", tt.name, got, p)
			}
		}
	}
}

func TestExprLangBuiltinNames(t *testing.T) {
	names := ExprLangBuiltinNames()
	if len(names) != len(exprLangBuiltins) {
		t.Fatalf("got %d names, want %d", len(names), len(exprLangBuiltins))
	}

	for k := 1; k < len(names); k++ {
		if names[k-1] >= names[k] {
			t.Fatalf("names not sorted at %d: %q >= %q", k, names[k-1], names[k])
		}
	}
}
