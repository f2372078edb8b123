package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

const (
	ansiReset   = "\033[0m"
	ansiGray    = "\033[90m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

// prettyHandler writes colorized records either as key=value pairs on one
// line or as an indented JSON-like object.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	object bool
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, object bool) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, object: object}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)

	return &c
}

// WithGroup is not supported; grouped attributes are written flat.
func (h *prettyHandler) WithGroup(string) slog.Handler { return h }

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]slog.Attr, 0, r.NumAttrs()+len(h.attrs)+4)

	if !r.Time.IsZero() {
		fields = append(fields, h.replace(slog.Time(slog.TimeKey, r.Time)))
	}

	fields = append(fields, h.replace(slog.Any(slog.LevelKey, r.Level)))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fields = append(fields, slog.String(slog.SourceKey,
				src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	fields = append(fields, slog.String(slog.MessageKey, r.Message))
	fields = append(fields, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		fields = append(fields, a)

		return true
	})

	var buf bytes.Buffer

	if h.object {
		buf.WriteString("{\n")
	}

	first := true

	for _, a := range fields {
		if a.Key == "" {
			continue
		}

		switch {
		case h.object && !first:
			buf.WriteString(",\n  ")
		case h.object:
			buf.WriteString("  ")
		case !first:
			buf.WriteByte(' ')
		}

		first = false

		buf.WriteString(ansiGray + a.Key + ansiReset)

		if h.object {
			buf.WriteString(": ")
		} else {
			buf.WriteByte('=')
		}

		writeValue(&buf, a.Value.Resolve())
	}

	if h.object {
		buf.WriteString("\n}")
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) replace(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}

	return h.opts.ReplaceAttr(nil, a)
}

func writeValue(buf *bytes.Buffer, v slog.Value) {
	color, text := ansiCyan, ""

	switch v.Kind() {
	case slog.KindString:
		text = v.String()
		color = levelColor(text)

	case slog.KindInt64:
		color, text = ansiYellow, strconv.FormatInt(v.Int64(), 10)

	case slog.KindUint64:
		color, text = ansiYellow, strconv.FormatUint(v.Uint64(), 10)

	case slog.KindFloat64:
		color, text = ansiYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)

	case slog.KindBool:
		color, text = ansiRed, "false"
		if v.Bool() {
			color, text = ansiGreen, "true"
		}

	case slog.KindDuration:
		color, text = ansiMagenta, v.Duration().String()

	case slog.KindTime:
		color, text = ansiBlue, v.Time().Format(time.RFC3339)

	case slog.KindGroup:
		buf.WriteByte('{')

		for i, a := range v.Group() {
			if i > 0 {
				buf.WriteByte(' ')
			}

			buf.WriteString(ansiGray + a.Key + ansiReset + "=")
			writeValue(buf, a.Value.Resolve())
		}

		buf.WriteByte('}')

		return

	default:
		if l, ok := v.Any().(slog.Level); ok {
			text = Level(l).String()
			color = levelColor(text)
		} else {
			text = fmt.Sprint(v.Any())
		}
	}

	buf.WriteString(color + text + ansiReset)
}

// levelColor picks a color for level names and cyan for other strings.
func levelColor(s string) string {
	switch s {
	case "ERROR", "error":
		return ansiRed
	case "WARN", "warn":
		return ansiYellow
	case "INFO", "info":
		return ansiGreen
	case "DEBUG", "debug", "TRACE", "trace":
		return ansiBlue
	}

	return ansiCyan
}
