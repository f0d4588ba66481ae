package commands

import (
	"context"
	"flag"
	"io"

	"todo/internal/config"
	"todo/internal/task"
)

func init() {
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string      { return "toggle" }
func (c *ToggleCmd) Aliases() []string { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string  { return "Flip tasks between pending and completed" }
func (c *ToggleCmd) Usage() string     { return "todo toggle <ref...>" }
func (c *ToggleCmd) NeedsStore() bool  { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, store *task.Store, args []string, out, errOut io.Writer) int {
	targets, err := ResolveTaskRefs(store.Tasks(), args)
	if err != nil {
		return refFailed(errOut, err)
	}

	for _, t := range targets {
		if _, err := store.ToggleComplete(ctx, t.ID); err != nil {
			return storageFailed(errOut, err)
		}
	}
	return printOK(cfg, out)
}
