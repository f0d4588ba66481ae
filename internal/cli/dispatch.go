// Package cli parses the command line and runs commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"todo/internal/backend"
	"todo/internal/backend/googletasks"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/logging"
	"todo/internal/storage"
	"todo/internal/task"
)

// BackendFactory opens the persistent store for a configuration.
// Used to inject the backend during dispatch.
type BackendFactory func(ctx context.Context, cfg *config.Config) (storage.Store, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  BackendFactory
}

// NewDispatcher creates a new dispatcher with the given registry and backend
// factory. A nil factory opens the configured backend with backend.Open.
func NewDispatcher(registry *commands.Registry, factory BackendFactory) *Dispatcher {
	if factory == nil {
		factory = backend.Open
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> list
	if len(args) == 0 {
		args = []string{"list"}
	}

	name := args[0]
	if strings.HasPrefix(name, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(name)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	backend   string
	quiet     bool
	debug     bool
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var common commonFlags
	fs.StringVar(&common.configDir, "config", "", "")
	fs.StringVar(&common.backend, "backend", "", "")
	fs.BoolVar(&common.quiet, "quiet", false, "")
	fs.BoolVar(&common.quiet, "q", false, "")
	fs.BoolVar(&common.debug, "debug", false, "")
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// First positional arg should have been parsed as a flag.
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return exitcode.UserError
	}

	cfg, err := d.loadConfig(common)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.ConfigError
	}

	logger := logging.Init(logging.Config{
		Level:  logLevel(cfg),
		Format: cfg.Log.Format,
		Output: errOut,
	})

	if !cmd.NeedsStore() {
		return cmd.Run(ctx, cfg, nil, positional, out, errOut)
	}

	kv, err := d.factory(ctx, cfg)
	if err != nil {
		return backendFailed(errOut, err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logger.Warn("closing backend failed", "backend", cfg.BackendName(), "error", err)
		}
	}()

	store := task.NewStore(kv,
		task.WithKey(cfg.StorageKey()),
		task.WithLogger(logging.NewModuleLogger("task", "store")),
	)
	unsubscribe := store.Subscribe(eventLogger(logging.NewModuleLogger("cli", "events")))
	defer unsubscribe()

	if err := store.Load(ctx); err != nil {
		return backendFailed(errOut, err)
	}

	logger.Debug("dispatching command", "command", cmd.Name(), "backend", cfg.BackendName(), "key", store.Key())
	return cmd.Run(ctx, cfg, store, positional, out, errOut)
}

// loadConfig reads the configuration and applies command-line overrides.
func (d *Dispatcher) loadConfig(common commonFlags) (*config.Config, error) {
	cfg, err := config.Load(common.configDir)
	if err != nil {
		return nil, err
	}
	if common.backend != "" {
		cfg.Backend = strings.ToLower(strings.TrimSpace(common.backend))
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	return cfg, nil
}

func logLevel(cfg *config.Config) string {
	if cfg.Debug {
		return "debug"
	}
	return cfg.Log.Level
}

// eventLogger returns an observer that logs every store event at debug level.
func eventLogger(logger *slog.Logger) task.Observer {
	return func(ev task.Event) {
		logger.Debug("store event",
			"op", string(ev.Op),
			"task_id", ev.TaskID,
			"total", ev.Stats.Total,
			"completed", ev.Stats.Completed,
			"pending", ev.Stats.Pending,
		)
	}
}

// backendFailed maps errors from opening or loading the backend to exit codes.
func backendFailed(errOut io.Writer, err error) int {
	if errors.Is(err, googletasks.ErrNotLoggedIn) || errors.Is(err, googletasks.ErrNoOAuthClient) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.ConfigError
	}
	fmt.Fprintf(errOut, "error: storage error: %v\n", err)
	return exitcode.StorageError
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	msg := err.Error()
	if name, ok := strings.CutPrefix(msg, "flag provided but not defined: "); ok {
		return "unknown flag: " + name
	}
	return msg
}
