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
	Register(&HelpCmd{registry: DefaultRegistry})
}

// HelpCmd implements the help command.
type HelpCmd struct {
	registry *Registry
}

// NewHelpCmd creates a help command listing the commands in r.
func NewHelpCmd(r *Registry) *HelpCmd {
	return &HelpCmd{registry: r}
}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todo help" }
func (c *HelpCmd) NeedsStore() bool  { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, store *task.Store, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, c.text())
	return exitcode.Success
}

func (c *HelpCmd) text() string {
	registry := c.registry
	if registry == nil {
		registry = DefaultRegistry
	}

	var b strings.Builder
	b.WriteString("Usage:\n")
	fmt.Fprintf(&b, "  %-54s %s\n", "todo", "List all tasks")
	var aliases []string
	for _, cmd := range registry.All() {
		fmt.Fprintf(&b, "  %-54s %s\n", cmd.Usage(), cmd.Synopsis())
		for _, a := range cmd.Aliases() {
			aliases = append(aliases, fmt.Sprintf("%s = %s", a, cmd.Name()))
		}
	}
	if len(aliases) > 0 {
		b.WriteString("\nAliases:\n")
		for _, a := range aliases {
			fmt.Fprintf(&b, "  %s\n", a)
		}
	}
	b.WriteString(commonFlagsText)
	return b.String()
}

const commonFlagsText = `
A <ref> is the position shown by 'todo list' or a unique prefix of a task id.

Common flags:
  --config <dir>    Override config directory
  --backend <name>  Storage backend: file, sqlite, mysql, googletasks
  --quiet           Suppress informational output
  --debug           Print debug logs to stderr
`
