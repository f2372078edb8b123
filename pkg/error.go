package pkg

import (
	"log/slog"
	"strings"
)

// Error is an error with structured logging attributes.
//
// Packages declare sentinel values with [NewError] and refine them at the
// failure site:
//
//	return ErrInclude.With(slog.String("path", p)).Wrap(err)
//
// Derived errors match their sentinel with [errors.Is].
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
	base  *Error
}

// NewError returns a sentinel Error with message msg.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Error returns "<msg>: <cause>", omitting whichever part is empty.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is e or the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || e.root() == t.root()
}

// LogValue implements [slog.LogValuer].
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e with cause err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs, base: e.root()}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: merged, base: e.root()}
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// Describe renders err with the attributes of every [Error] in its chain,
// as in "undefined variable (name=x): cause".
func Describe(err error) string {
	var sb strings.Builder

	for err != nil {
		e, ok := err.(*Error)
		if !ok {
			sb.WriteString(err.Error())

			break
		}

		sb.WriteString(e.msg)

		if len(e.attrs) > 0 {
			if e.msg != "" {
				sb.WriteByte(' ')
			}

			sb.WriteByte('(')

			for i, a := range e.attrs {
				if i > 0 {
					sb.WriteString(", ")
				}

				sb.WriteString(a.String())
			}

			sb.WriteByte(')')
		}

		if e.err == nil {
			break
		}

		if e.msg != "" || len(e.attrs) > 0 {
			sb.WriteString(": ")
		}

		err = e.err
	}

	return sb.String()
}
