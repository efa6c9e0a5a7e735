package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vk/stagegrid/internal/localsession"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // hcl file or directory
	TriggerPath  string // optional yaml/json trigger payload
	// Trigger holds inline trigger values; they win over TriggerPath and the
	// pipeline's default trigger.
	Trigger map[string]any

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	Store       string // "memory" or "redis"
	RedisAddr   string
	RedisPrefix string
	// ExecutionID reuses an earlier run's ID so that a persistent store can
	// skip stages that already completed.
	ExecutionID string
}

var (
	logLevels  = []string{"", "debug", "info", "warn", "error"}
	logFormats = []string{"", "text", "json"}
)

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	switch cfg.Store {
	case "", localsession.StoreMemory:
	case localsession.StoreRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New("RedisAddr is required when the redis store is selected")
		}
	default:
		return nil, fmt.Errorf("invalid store %q: must be 'memory' or 'redis'", cfg.Store)
	}
	return &cfg, nil
}
