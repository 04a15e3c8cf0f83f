package config

import "context"

// Loader is the interface for a format-specific build file loader.
type Loader interface {
	// Load reads the build files at paths (files or directories), translates
	// them into the format-agnostic model, applies defaults and validates it.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
