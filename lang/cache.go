package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/ribosome/log"
	"github.com/ardnew/ribosome/pkg"
)

// compiled is a cached expression program and its free identifiers.
type compiled struct {
	once    sync.Once
	program *vm.Program
	free    []string
	err     error
}

// Cache compiles expressions once and evaluates them against flat
// environments. Programs are keyed by the xxh3 hash of their source.
// A Cache is safe for concurrent use.
type Cache struct {
	progs  sync.Map // uint64 -> *compiled
	keys   map[string]struct{}
	logger log.Logger
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithHyphenKeys enables patching of subtraction chains that spell one of
// keys. See [HyphenKeys].
func WithHyphenKeys(keys map[string]struct{}) CacheOption {
	return func(c *Cache) { c.keys = keys }
}

// WithCacheLogger sets the logger receiving compile events.
func WithCacheLogger(l log.Logger) CacheOption {
	return func(c *Cache) { c.logger = l }
}

// NewCache returns an empty Cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile returns the compiled program for src.
func (c *Cache) Compile(src string) (*vm.Program, error) {
	e := c.load(src)

	return e.program, e.err
}

func (c *Cache) load(src string) *compiled {
	hash := xxh3.HashString(src)

	v, hit := c.progs.LoadOrStore(hash, new(compiled))
	e := v.(*compiled)

	e.once.Do(func() {
		c.logger.Trace("compile expression",
			slog.String("source", src),
			slog.String("hash", strconv.FormatUint(hash, 16)),
			slog.Bool("cache_hit", hit),
		)

		ids := &identCollector{}

		e.program, e.err = expr.Compile(src,
			expr.Patch(&hyphenPatcher{keys: c.keys, logger: c.logger}),
			expr.Patch(ids),
		)
		if e.err != nil {
			e.err = exprError(ErrCompile, src, e.err)

			return
		}

		e.free = ids.free()
	})

	return e
}

// Eval compiles src if needed and runs it against env.
// Every free identifier of src must be defined in env.
func (c *Cache) Eval(src string, env map[string]any) (any, error) {
	e := c.load(src)
	if e.err != nil {
		return nil, e.err
	}

	for _, name := range e.free {
		if _, ok := env[name]; !ok {
			return nil, ErrUndefined.With(
				slog.String("name", name),
				slog.String("expression", src),
			)
		}
	}

	out, err := vm.Run(e.program, env)
	if err != nil {
		return nil, exprError(ErrEvaluate, src, err)
	}

	return out, nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	n := 0

	c.progs.Range(func(any, any) bool {
		n++

		return true
	})

	return n
}

// exprError converts an expr-lang error into a derivation of sentinel.
// A cause raised by a called function is kept in the chain; otherwise only
// the message is kept, without expr-lang's source snippet.
func exprError(sentinel *pkg.Error, src string, err error) error {
	var fe *file.Error
	if !errors.As(err, &fe) {
		return sentinel.With(slog.String("expression", src)).Wrap(err)
	}

	cause := fe.Prev
	if cause == nil {
		cause = errors.New(fe.Message)
	}

	return sentinel.With(
		slog.String("expression", src),
		slog.Int("column", fe.Column+1),
	).Wrap(cause)
}
