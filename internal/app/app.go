package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/trackertools/internal/catalog"
	"github.com/vk/trackertools/internal/config"
	"github.com/vk/trackertools/internal/ctxlog"
	"github.com/vk/trackertools/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
}

// NewApp is the constructor for the main application. Results go to outW and
// logs to logW. The field catalog is the built-in one unless the config names
// catalog files, which are read with loader.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.", "mode", cfg.Mode().String())

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
	}

	if cfg.Mode() == ModeRemote {
		if cfg.FieldsPath != "" {
			logger.Warn("Ignoring field catalog, the remote server owns the session.", "fields", cfg.FieldsPath)
		}
		return a, nil
	}

	reg, err := loadRegistry(ctx, cfg.FieldsPath, loader)
	if err != nil {
		return nil, err
	}
	a.registry = reg
	logger.Debug("Registry built.", "fields", reg.Len(), "sections", len(reg.Sections()))
	return a, nil
}

// Registry returns the application's registry. It is nil in remote mode.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

func loadRegistry(ctx context.Context, path string, loader config.Loader) (*registry.Registry, error) {
	logger := ctxlog.FromContext(ctx)
	if path == "" {
		logger.Debug("Using the built-in catalog.")
		return catalog.New()
	}
	if loader == nil {
		return nil, errors.New("a field catalog was given but no loader is configured")
	}

	model, converter, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load field catalog: %w", err)
	}
	logger.Debug("Field catalog translated into unified model.", "fields", len(model.Fields))

	mod, err := converter.Module(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("failed to compile field catalog: %w", err)
	}

	reg, err := registry.NewBuilder().Register(mod).Build()
	if err != nil {
		return nil, err
	}
	logger.Info("Field catalog loaded.", "path", path, "fields", reg.Len())
	return reg, nil
}
