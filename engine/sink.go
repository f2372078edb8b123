package engine

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
)

// Sink is the destination of flushed blocks.
type Sink interface {
	io.Writer

	// IsFile reports whether the sink writes to a named file.
	IsFile() bool

	// Close releases the sink. A stream sink is never closed.
	Close() error

	// String names the sink for diagnostics.
	String() string
}

type streamSink struct {
	w    io.Writer
	name string
}

// Stream returns a sink writing to w.
func Stream(w io.Writer, name string) Sink { return &streamSink{w: w, name: name} }

func (s *streamSink) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *streamSink) IsFile() bool                { return false }
func (s *streamSink) Close() error                { return nil }
func (s *streamSink) String() string              { return s.name }

// fileSink opens its file on first write. In truncate mode an existing file
// is removed at that point rather than when the sink is selected.
type fileSink struct {
	path   string
	append bool
	closed bool
	f      *os.File
}

// File returns a sink writing to path, truncating any existing file.
func File(path string) Sink { return &fileSink{path: path} }

// AppendFile returns a sink appending to path.
func AppendFile(path string) Sink { return &fileSink{path: path, append: true} }

func (s *fileSink) IsFile() bool   { return true }
func (s *fileSink) String() string { return s.path }

func (s *fileSink) open() error {
	if s.f != nil {
		return nil
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND

	if !s.append {
		err := os.Remove(s.path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return ErrOpenSink.With(slog.String("path", s.path)).Wrap(err)
		}

		flag = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	f, err := os.OpenFile(s.path, flag, 0o644)
	if err != nil {
		return ErrOpenSink.With(slog.String("path", s.path)).Wrap(err)
	}

	s.f = f

	return nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	if err := s.open(); err != nil {
		return 0, err
	}

	n, err := s.f.Write(p)
	if err != nil {
		return n, ErrWriteSink.With(slog.String("path", s.path)).Wrap(err)
	}

	return n, nil
}

// Close closes the file. A sink that never received output leaves the path
// as it found it.
func (s *fileSink) Close() error {
	if s.closed || s.f == nil {
		s.closed = true

		return nil
	}

	s.closed = true

	err := s.f.Close()
	s.f = nil

	if err != nil {
		return ErrCloseSink.With(slog.String("path", s.path)).Wrap(err)
	}

	return nil
}
