// Package log wraps [log/slog] with a small, value-typed [Logger] used by
// every etpl component.
//
// A Logger is configured once with functional options and then copied
// freely; derived loggers ([Logger.Wrap], [Logger.With]) never affect their
// parent. The zero Logger discards everything, so library code can accept a
// Logger field without requiring callers to configure one.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//	)
//	logger.InfoContext(ctx, "compiled", slog.String("path", path))
//
// Levels extend slog's with [LevelTrace], used for per-token and per-node
// diagnostics in the template compiler.
//
// The package-level functions ([Info], [Error], ...) write through a default
// logger that [Config] reconfigures.
package log
