// Package cli contains the command line interface for etpl.
//
// # Usage
//
//	etpl [flags] [render] [TEMPLATE]
//	etpl check TEMPLATE...
//	etpl dump text|json|yaml [TEMPLATE]
//	etpl id encrypt N... | etpl id decrypt ID...
//	etpl keygen
//	etpl repl
//	etpl init
//
// Render is the default command, so "etpl page.etpl" renders page.etpl.
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory, a mapping of flag names to values as written by "etpl init".
// Command-line flags override it. The secureid key may also come from
// ETPL_KEY, and ETPL_PATH lists extra template directories searched after
// those given with --path.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o etpl .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/etpl/pprof)
package cli
