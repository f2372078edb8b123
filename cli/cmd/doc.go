// Package cmd implements the ribosome subcommands: run, rna, init and repl.
//
// Each command is a kong command struct whose Run method receives the
// context bound by the cli package. The [kong.Context] is retrieved from it
// to reach the kong variables naming the configuration file and cache
// directory.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"
)
