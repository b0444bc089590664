// Package profile wraps [github.com/pkg/profile] for the etpl command.
//
// Profiling is compiled in only with the pprof build tag:
//
//	go build -tags pprof .
//	etpl --pprof-mode cpu render page.etpl
//
// Without the tag, [Modes] is empty and [Profiler.Start] does nothing.
// Profiles are written to the configured directory, which defaults to the
// pprof subdirectory of the user cache directory, and can be inspected with
// go tool pprof. The tagged build also registers the net/http/pprof
// handlers.
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
