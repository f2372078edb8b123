// Package log wraps [log/slog] with functional configuration, a trace level
// and colorized handlers for terminals.
//
// A [Logger] is an immutable value. [Logger.Wrap] and [Logger.With] derive
// new loggers; the zero Logger discards everything, so library packages can
// hold one without checking for nil.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Debug("translate", slog.String("file", "main.dna"))
//
// The package-level functions ([Config], [DebugContext], [Error], ...)
// operate on a default logger that writes to standard error; standard
// output is reserved for generated text.
package log
