// Package storage defines the backend-agnostic persistent store used to keep
// the task snapshot between runs.
package storage

import "context"

// Store is a string key/value store that survives process restarts.
// The task store keeps its whole collection under a single key.
// Commands never import a concrete backend directly.
type Store interface {
	// Get returns the value stored under key.
	// ok is false if nothing has been stored yet.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Close releases any resources held by the backend.
	Close() error
}
