package cmd

import (
	"context"
	"os"

	"github.com/ardnew/ribosome/cli/cmd/repl"
	"github.com/ardnew/ribosome/log"
)

// Repl composes and runs template chunks interactively.
type Repl struct {
	Data   string `help:"Data file bound to root"                         short:"d" type:"existingfile"`
	OutDir string `help:"Directory of relative includes and output paths" short:"o" type:"path"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	root, err := loadData(ctx, r.Data)
	if err != nil {
		return err
	}

	dir := r.OutDir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return repl.Run(ctx, root, dir, kongVar(ctx, CacheIdentifier), log.Default())
}
