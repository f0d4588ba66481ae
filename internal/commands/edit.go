package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/task"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command: it commits new text for one task.
type EditCmd struct{}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Replace a task's text" }
func (c *EditCmd) Usage() string     { return "todo edit <ref> <text...>" }
func (c *EditCmd) NeedsStore() bool  { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, store *task.Store, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return refFailed(errOut, ErrTaskRefRequired)
	}

	target, err := ResolveTaskRef(store.Tasks(), args[0])
	if err != nil {
		return refFailed(errOut, err)
	}
	if target.Completed {
		fmt.Fprintln(errOut, "error: completed tasks cannot be edited")
		return exitcode.UserError
	}

	text := strings.Join(args[1:], " ")
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(errOut, "error: text required")
		return exitcode.UserError
	}

	if _, err := store.Update(ctx, target.ID, text); err != nil {
		return storageFailed(errOut, err)
	}
	return printOK(cfg, out)
}
