// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages their lifecycle.
package app

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"

	"github.com/tidemark/soundlink/internal/adapter/mainthread"
	"github.com/tidemark/soundlink/internal/adapter/soundengine/sim"
	"github.com/tidemark/soundlink/internal/callback"
	"github.com/tidemark/soundlink/internal/logger"
	"github.com/tidemark/soundlink/internal/ports"
	"github.com/tidemark/soundlink/internal/service"
)

// Config holds application configuration, parsed from the environment.
type Config struct {
	// LogLevel controls logging verbosity (DEBUG, INFO, WARN, ERROR).
	LogLevel string `env:"SOUNDLINK_LOG_LEVEL" envDefault:"INFO"`

	// LogFormat selects the log output format ("text" or "json").
	LogFormat string `env:"SOUNDLINK_LOG_FORMAT" envDefault:"text"`

	// Optimize selects the callback manager's memory/speed policy
	// ("memory" or "speed").
	Optimize string `env:"SOUNDLINK_OPTIMIZE" envDefault:"memory"`

	// QueueSize is the capacity of the game-thread work queue.
	QueueSize int `env:"SOUNDLINK_MAIN_QUEUE_SIZE" envDefault:"256"`

	// TimeScale scales the simulated engine's notification schedule.
	TimeScale float64 `env:"SOUNDLINK_SIM_TIME_SCALE" envDefault:"1.0"`

	// Engine allows injecting a sound engine implementation.
	// When nil, the simulated engine is used.
	Engine ports.SoundEngine `env:"-"`
}

// LoadConfig parses configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Application is the root structure that holds all wired dependencies.
// It follows constructor-based dependency injection: the engine feeds
// notifications into the callback manager, the manager marshals delegate
// work through the main thread dispatcher, and the audio service fronts it
// all for game code.
type Application struct {
	logger *slog.Logger

	dispatcher *mainthread.Dispatcher
	engine     ports.SoundEngine
	manager    *callback.Manager

	audioService *service.AudioService
}

// NewApplication creates an application with all dependencies wired.
func NewApplication(config Config) (*Application, error) {
	app := &Application{}

	app.logger = logger.NewLogger(logger.Config{
		Level:  logger.ParseLevel(config.LogLevel),
		Format: config.LogFormat,
	})
	app.logger.Info("initializing soundlink",
		slog.String("version", Version),
		slog.String("optimize", config.Optimize))

	app.dispatcher = mainthread.NewDispatcher(
		app.logger.With(slog.String("component", "mainthread")), config.QueueSize)

	if config.Engine != nil {
		app.engine = config.Engine
	} else {
		engine := sim.NewEngine(app.logger.With(slog.String("component", "sim")))
		engine.SetTimeScale(config.TimeScale)
		app.engine = engine
	}

	policy := callback.OptimizeMemory
	if config.Optimize == "speed" {
		policy = callback.OptimizeSpeed
	}
	app.manager = callback.NewManager(
		app.logger.With(slog.String("component", "callback")),
		app.engine, app.dispatcher, policy)

	app.audioService = service.NewAudioService(
		app.logger.With(slog.String("component", "audio")),
		app.engine, app.manager)

	return app, nil
}

// AudioService returns the game-facing audio service.
func (a *Application) AudioService() *service.AudioService {
	return a.audioService
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger {
	return a.logger
}

// Shutdown tears the application down in dependency order: the engine first
// so no further notifications arrive, then the manager, then the game-thread
// queue once nothing can post to it anymore.
func (a *Application) Shutdown() error {
	a.logger.Info("shutting down soundlink")

	err := a.engine.Close()

	a.manager.Close()
	a.dispatcher.Close()

	if err != nil {
		return fmt.Errorf("close sound engine: %w", err)
	}
	return nil
}
