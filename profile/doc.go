// Package profile runs an optional pprof profiler around a ribosome
// invocation.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof .
//	ribosome --pprof-mode cpu run report.dna
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a no-op.
// Profiles are written to the profiler's Path, named after the mode (for
// example cpu.pprof), and are read with go tool pprof.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
