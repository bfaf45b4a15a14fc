package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mx-scissortail/wasdwm/internal/config"
	"github.com/mx-scissortail/wasdwm/internal/engine"
)

// configReloader re-reads the config file and swaps the engine settings.
// A rejected reload keeps the last valid config and logs what changed.
type configReloader struct {
	path   string
	logger zerolog.Logger
	engine *engine.Engine

	mu             sync.Mutex
	lastSerialized []byte
}

func newConfigReloader(path string, logger zerolog.Logger, eng *engine.Engine, serialized []byte) *configReloader {
	return &configReloader{
		path:           path,
		logger:         logger.With().Str("component", "reloader").Logger(),
		engine:         eng,
		lastSerialized: append([]byte(nil), serialized...),
	}
}

func (r *configReloader) Reload(ctx context.Context, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Info().Str("reason", reason).Msg("reloading config")

	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		r.logDiff(raw)
		return err
	}
	settings, err := engine.SettingsFromConfig(cfg)
	if err != nil {
		r.logDiff(raw)
		return err
	}
	if err := r.engine.Reload(ctx, settings); err != nil {
		r.logDiff(raw)
		return err
	}
	r.lastSerialized = append(r.lastSerialized[:0], raw...)
	return nil
}

func (r *configReloader) logDiff(current []byte) {
	diff := config.DiffSerialized(r.lastSerialized, current)
	if diff == "" {
		r.logger.Warn().Msg("config change rejected; unable to compute diff vs last valid config")
		return
	}
	r.logger.Warn().Str("diff", diff).Msg("config change rejected")
}
