package config

import (
	"context"

	"github.com/vk/trackertools/internal/registry"
)

// Loader is the interface for a format-specific catalog loader.
type Loader interface {
	// Load reads catalogs from the given paths, translates them into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter turns a loaded model into something the registry understands.
// It owns the evaluation of the model's expressions.
type Converter interface {
	// Module compiles every field of the model into a registry.Module.
	Module(ctx context.Context, m *Model) (registry.Module, error)
}
