package lang

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"

	"github.com/ardnew/ribosome/log"
)

// hyphenPatcher reconstructs hyphenated keys from BinaryNode("-")
// subtraction chains created by expr-lang's parser.
//
// Data files commonly use keys such as "max-size", which expr-lang parses as
// subtraction. When the combined name is one of the known hyphenated keys,
// the chain is rewritten to a single identifier or member access.
type hyphenPatcher struct {
	keys   map[string]struct{}
	logger log.Logger
}

// HyphenKeys returns every map key containing a hyphen found anywhere in v.
func HyphenKeys(v any) map[string]struct{} {
	keys := map[string]struct{}{}
	collectHyphenKeys(reflect.ValueOf(v), keys)

	return keys
}

func collectHyphenKeys(rv reflect.Value, keys map[string]struct{}) {
	for rv.IsValid() && (rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer) {
		if rv.IsNil() {
			return
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if k, ok := iter.Key().Interface().(string); ok && strings.Contains(k, "-") {
				keys[k] = struct{}{}
			}

			collectHyphenKeys(iter.Value(), keys)
		}

	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			collectHyphenKeys(rv.Index(i), keys)
		}
	}
}

// Visit implements ast.Visitor for hyphenPatcher.
func (p *hyphenPatcher) Visit(node *ast.Node) {
	if len(p.keys) == 0 {
		return
	}

	bin, ok := (*node).(*ast.BinaryNode)
	if !ok || bin.Operator != "-" {
		return
	}

	// The segment after the hyphen must be a bare identifier.
	right, ok := bin.Right.(*ast.IdentifierNode)
	if !ok {
		return
	}

	base, prop, ok := extractHyphenChain(bin.Left)
	if !ok {
		return
	}

	combined := prop + "-" + right.Value
	if _, ok := p.keys[combined]; !ok {
		return
	}

	kind := "identifier"

	if base == nil {
		ast.Patch(node, &ast.IdentifierNode{Value: combined})
	} else {
		kind = "member"
		ast.Patch(node, &ast.MemberNode{
			Node:     base,
			Property: &ast.StringNode{Value: combined},
		})
	}

	p.logger.Trace("patch hyphenated",
		slog.String("key", combined),
		slog.String("patch_type", kind))
}

// extractHyphenChain walks the left operand of an unpatched subtraction
// chain and returns the member base (nil for a top-level identifier) and the
// hyphen-joined property name accumulated so far.
func extractHyphenChain(left ast.Node) (base ast.Node, property string, ok bool) {
	switch n := left.(type) {
	case *ast.IdentifierNode:
		return nil, n.Value, true

	case *ast.MemberNode:
		prop, ok := n.Property.(*ast.StringNode)
		if !ok {
			return nil, "", false
		}

		return n.Node, prop.Value, true

	case *ast.BinaryNode:
		if n.Operator != "-" {
			return nil, "", false
		}

		right, ok := n.Right.(*ast.IdentifierNode)
		if !ok {
			return nil, "", false
		}

		base, prop, ok := extractHyphenChain(n.Left)
		if !ok {
			return nil, "", false
		}

		return base, prop + "-" + right.Value, true
	}

	return nil, "", false
}

// identCollector records the free identifiers of a compiled expression.
type identCollector struct {
	names    []string
	declared map[string]struct{}
}

// Visit implements ast.Visitor for identCollector.
func (c *identCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.VariableDeclaratorNode:
		if c.declared == nil {
			c.declared = map[string]struct{}{}
		}

		c.declared[n.Name] = struct{}{}

	case *ast.IdentifierNode:
		c.names = append(c.names, n.Value)
	}
}

// free returns the collected identifiers that are neither declared inside
// the expression nor expr-lang builtins.
func (c *identCollector) free() []string {
	out := make([]string, 0, len(c.names))
	seen := map[string]struct{}{}

	for _, n := range c.names {
		if _, ok := c.declared[n]; ok || strings.HasPrefix(n, "$") {
			continue
		}

		if _, ok := builtin.Index[n]; ok {
			continue
		}

		if _, ok := seen[n]; ok {
			continue
		}

		seen[n] = struct{}{}
		out = append(out, n)
	}

	return out
}
