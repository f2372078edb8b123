package profile

import "slices"

// Stopper ends a profiling session and writes its output.
type Stopper interface{ Stop() }

// Profiler selects one profiling mode and the directory receiving its
// output.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Start begins profiling. It returns a no-op Stopper if Mode is empty or
// unknown, or if profiling was not compiled in. Stop is always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" || !Supports(p.Mode) {
		return nop{}
	}

	return start(p)
}

// Supports reports whether mode is one of [Modes].
func Supports(mode string) bool {
	return slices.Contains(Modes(), mode)
}

type nop struct{}

func (nop) Stop() {}
