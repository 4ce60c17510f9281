package config

import "context"

// Loader is the interface for a format-specific bundle descriptor loader.
type Loader interface {
	// Load reads every descriptor file reachable from the given paths and
	// translates them into the format-agnostic model. It is called again on
	// every model rebuild, so implementations must re-read from disk.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
