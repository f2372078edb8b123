// Package pkg holds module metadata and the structured error type shared by
// the ribosome packages.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It also names the configuration and cache
	// directories.
	Name = "ribosome"

	// Description is the one-line summary shown in help output.
	Description = "Generate text from line-oriented templates"

	// TemplateExt is the conventional extension of template files.
	TemplateExt = ".dna"

	// ProgramExt replaces the template extension to name the intermediate
	// program artifact.
	ProgramExt = ".rna"
)
