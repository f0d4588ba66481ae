// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion, including no-op mutations.
	Success = 0

	// UserError indicates bad arguments or a task reference that does not
	// resolve.
	UserError = 1

	// ConfigError indicates an invalid configuration or missing credentials.
	ConfigError = 2

	// StorageError indicates the backend could not be read or written.
	StorageError = 3
)
