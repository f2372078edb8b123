package cmd

import (
	"context"

	"github.com/ardnew/ribosome/rna"
)

// RNA prints the intermediate program translated from a template.
type RNA struct {
	Template string `arg:"" help:"Template file or '-' for stdin"`

	Format  string `default:"text" enum:"text,json,yaml" help:"Listing format (${enum})" short:"f"`
	LineMap bool   `help:"Include the line map" name:"linemap"`
}

// Run executes the rna command.
func (c *RNA) Run(ctx context.Context) error {
	stdout, _ := streams(ctx)

	prog, err := translate(ctx, c.Template)
	if err != nil {
		return translationFailure(err)
	}

	return prog.Render(stdout, rna.Format(c.Format), c.LineMap)
}
