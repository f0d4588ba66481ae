package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/task"
)

func init() {
	Register(&StatsCmd{})
	Register(&RecentCmd{})
}

// StatsCmd implements the stats command.
type StatsCmd struct{}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Show task counts" }
func (c *StatsCmd) Usage() string     { return "todo stats" }
func (c *StatsCmd) NeedsStore() bool  { return true }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, store *task.Store, args []string, out, errOut io.Writer) int {
	output.NewPrinter(out).Stats(store.Statistics())
	return exitcode.Success
}

// RecentCmd implements the recent command.
type RecentCmd struct {
	n int
}

// SetCount sets the number of tasks shown (for testing).
func (c *RecentCmd) SetCount(n int) {
	c.n = n
}

func (c *RecentCmd) Name() string      { return "recent" }
func (c *RecentCmd) Aliases() []string { return nil }
func (c *RecentCmd) Synopsis() string  { return "Show the newest tasks" }
func (c *RecentCmd) Usage() string     { return "todo recent [--n <count>]" }
func (c *RecentCmd) NeedsStore() bool  { return true }

func (c *RecentCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.n, "n", 0, "")
}

func (c *RecentCmd) Run(ctx context.Context, cfg *config.Config, store *task.Store, args []string, out, errOut io.Writer) int {
	if c.n < 0 {
		fmt.Fprintf(errOut, "error: invalid count: %d\n", c.n)
		return exitcode.UserError
	}
	n := c.n
	if n == 0 {
		n = cfg.RecentCount()
	}

	activities := store.RecentActivities(n)
	p := output.NewPrinter(out)
	if len(activities) == 0 {
		if !cfg.Quiet {
			p.Note("no tasks")
		}
		return exitcode.Success
	}
	p.Recent(activities)
	return exitcode.Success
}
