package data

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	want := map[string]any{
		"name":  "World",
		"count": 3,
		"ratio": 0.5,
		"items": []any{"a", "b"},
		"on":    true,
	}

	tests := map[string]string{
		"d.json": `{"name": "World", "count": 3, "ratio": 0.5, "items": ["a", "b"], "on": true}`,
		"d.yaml": "name: World\ncount: 3\nratio: 0.5\nitems:\n  - a\n  - b\non: true\n",
		"d.YML":  "{name: World, count: 3, ratio: 0.5, items: [a, b], on: true}\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}

			got, err := Load(t.Context(), path)
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeXML(t *testing.T) {
	const doc = `<?xml version="1.0"?>
<root version="2">
  <title>Report</title>
  <item id="1">first</item>
  <item id="2"><name>second</name></item>
  <empty/>
</root>`

	got, err := Decode(t.Context(), XML, strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"version": "2",
		"title":   "Report",
		"item": []any{
			map[string]any{"id": "1", TextKey: "first"},
			map[string]any{"id": "2", "name": "second"},
		},
		"empty": "",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}

	empty := filepath.Join(dir, "empty.xml")
	if err := os.WriteFile(empty, []byte("<?xml version=\"1.0\"?>\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := map[string]error{
		filepath.Join(dir, "d.toml"):  ErrFormat,
		filepath.Join(dir, "no.json"): ErrRead,
		bad:                           ErrDecode,
		empty:                         ErrDecode,
	}

	for path, want := range tests {
		if _, err := Load(t.Context(), path); !errors.Is(err, want) {
			t.Errorf("Load(%s) = %v, want %v", filepath.Base(path), err, want)
		}
	}
}

func TestFormatOf(t *testing.T) {
	for _, ext := range Extensions() {
		if _, ok := FormatOf("x" + ext); !ok {
			t.Errorf("FormatOf(%q) not recognized", ext)
		}
	}

	if _, ok := FormatOf("x.txt"); ok {
		t.Error("FormatOf(x.txt) recognized")
	}
}
