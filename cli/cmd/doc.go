// Package cmd implements the etpl subcommands: render, check, dump, id,
// keygen, repl and init.
//
// Global settings reach each command through [WithSettings]; the parsed
// [kong.Context] through [WithContext].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the configuration file.
	ConfigIdentifier = "config"
)
