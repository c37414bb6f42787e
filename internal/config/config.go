// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/hydrochat-core/server/internal/agent/model"
	"github.com/hydrochat-core/server/internal/core"
	logx "github.com/hydrochat-core/server/pkg/logger"
	pkgredis "github.com/hydrochat-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config

	// Chat client
	Engine    model.EngineConfig
	Optimizer model.OptimizerConfig
	Router    model.RouterClientConfig
	Session   model.SessionConfig

	// Routing service
	Server model.ServerConfig
}

// Load reads envFile when it exists and binds the environment. A missing
// env file is not an error.
func Load(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

func (c *AppConfig) Env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

// InitLogger configures logx for this config. w defaults to stderr.
func (c *AppConfig) InitLogger(w io.Writer) {
	logx.Init(logx.LoggerOpts{
		Environment: c.Env(),
		Level:       c.LogLevel,
		Writer:      w,
	})
}
