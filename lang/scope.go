package lang

import (
	"maps"
	"slices"
)

// Scope is a chain of variable bindings.
type Scope struct {
	parent *Scope
	vars   map[string]any
}

// NewScope returns an empty scope enclosed by parent, which may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: map[string]any{}}
}

// Lookup returns the value bound to name in the nearest scope defining it.
func (s *Scope) Lookup(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Declare binds name in s, shadowing any outer binding.
func (s *Scope) Declare(name string, v any) { s.vars[name] = v }

// Assign updates the nearest binding of name, declaring it in s if no
// enclosing scope defines it.
func (s *Scope) Assign(name string, v any) {
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.vars[name]; ok {
			sc.vars[name] = v

			return
		}
	}

	s.vars[name] = v
}

// Names returns the sorted names visible from s.
func (s *Scope) Names() []string {
	seen := map[string]struct{}{}

	for sc := s; sc != nil; sc = sc.parent {
		for k := range sc.vars {
			seen[k] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}

// Env returns a flat evaluation environment: a copy of base overlaid with
// every binding visible from s, inner bindings taking precedence.
func (s *Scope) Env(base map[string]any) map[string]any {
	var chain []*Scope
	for sc := s; sc != nil; sc = sc.parent {
		chain = append(chain, sc)
	}

	env := maps.Clone(base)
	if env == nil {
		env = map[string]any{}
	}

	for _, sc := range slices.Backward(chain) {
		maps.Copy(env, sc.vars)
	}

	return env
}
