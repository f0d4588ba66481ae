package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/config"
	"todo/internal/task"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete tasks" }
func (c *RmCmd) Usage() string     { return "todo rm <ref...>" }
func (c *RmCmd) NeedsStore() bool  { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, store *task.Store, args []string, out, errOut io.Writer) int {
	// Resolve all refs first; positions shift once the first delete lands.
	targets, err := ResolveTaskRefs(store.Tasks(), args)
	if err != nil {
		return refFailed(errOut, err)
	}

	for _, t := range targets {
		if _, err := store.Delete(ctx, t.ID); err != nil {
			return storageFailed(errOut, err)
		}
	}
	return printOK(cfg, out)
}
