// Package cli contains the command line interface for ribosome.
//
// # Usage
//
//	ribosome [flags] <template> [data-file] [args...]
//	ribosome rna [-f text|json|yaml] [--linemap] <template>
//	ribosome init [-f]
//	ribosome repl [-d data-file]
//
// The run command is the default: a bare template path translates the
// template and runs the resulting program. A template of "-" is read from
// standard input.
//
// # Configuration
//
// Global flags may be set in config.yaml under the user configuration
// directory (e.g. ~/.config/ribosome/config.yaml). The file is a flat YAML
// mapping of flag names to values; "ribosome init" writes one with the
// current settings. Command-line flags override it.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof
//
// It adds two flags:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default
//     ~/.cache/ribosome/pprof)
package cli
