package lang

import (
	"strconv"
	"testing"
)

// BenchmarkCacheEval measures evaluation of an already compiled expression.
func BenchmarkCacheEval(b *testing.B) {
	c := NewCache()
	env := map[string]any{"n": 4, "s": "ab", "xs": []any{1, 2, 3}}

	const src = `s + "-" + string(n * len(xs))`

	if _, err := c.Eval(src, env); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := c.Eval(src, env); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCacheEvalBuiltins measures evaluation against the full builtin
// environment.
func BenchmarkCacheEvalBuiltins(b *testing.B) {
	c := NewCache()
	env := Builtins()
	env["name"] = "max-size"

	const src = `mung.prefix(path.base(name), "x-")`

	if _, err := c.Eval(src, env); err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := c.Eval(src, env); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCacheCompile measures compilation of distinct expressions,
// each a cache miss.
func BenchmarkCacheCompile(b *testing.B) {
	c := NewCache()

	i := 0
	for b.Loop() {
		if _, err := c.Compile("n + " + strconv.Itoa(i)); err != nil {
			b.Fatal(err)
		}

		i++
	}
}
