package cmd

import "github.com/ardnew/ribosome/pkg"

var (
	ErrYAMLMarshal   = pkg.NewError("marshal YAML")
	ErrWriteConfig   = pkg.NewError("write configuration file")
	ErrFileExists    = pkg.NewError("file exists (use --force to overwrite)")
	ErrLoadData      = pkg.NewError("load data")
	ErrWriteArtifact = pkg.NewError("write program artifact")
	ErrArtifactClash = pkg.NewError("program artifact would replace the template")
	ErrGenerate      = pkg.NewError("generation failed")
	ErrTranslate     = pkg.NewError("translation failed")
)
