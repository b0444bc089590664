package profile

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler selects one profiling mode and where its output goes.
type Profiler struct {
	Mode  string
	Dir   string
	Quiet bool
}

// Start begins profiling. An empty or unknown Mode, or a build without the
// pprof tag, returns a Stopper that does nothing.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

// Enabled reports whether profiling support was compiled in.
func Enabled() bool { return enabled }

type ignore struct{}

func (ignore) Stop() {}
