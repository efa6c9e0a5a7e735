package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/stagegrid/internal/config"
	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/localsession"
	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	pipeline   *config.Pipeline
	sessions   session.SessionFactory
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the pipeline,
// registers the Go handlers and checks that every stage type has one. With no
// modules given, the core modules are registered.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	pipeline, err := loader.Load(ctx, cfg.PipelinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.", "pipeline", pipeline.Name)

	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	reg := registry.New(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "stage_types", reg.Names())

	if err := reg.Validate(ctx, pipeline.StageTypes()); err != nil {
		return nil, err
	}

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		pipeline: pipeline,
		sessions: &localsession.SessionFactory{
			Workers:     cfg.WorkerCount,
			Store:       cfg.Store,
			RedisAddr:   cfg.RedisAddr,
			RedisPrefix: cfg.RedisPrefix,
		},
	}, nil
}

