// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/lipread/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ReloadListener is notified with the new configuration after a successful reload.
type ReloadListener func(old, updated AppConfig)

// ConfigHolder owns the current configuration and reloads it from disk.
// Only hot-reloadable settings (log level) take effect without a restart;
// listeners decide what they apply.
type ConfigHolder struct {
	mu         sync.RWMutex
	current    AppConfig
	loader     *Loader
	configPath string
	listeners  []ReloadListener
	logger     zerolog.Logger
	debounce   time.Duration
}

// NewConfigHolder creates a holder seeded with cfg.
func NewConfigHolder(cfg AppConfig, loader *Loader, configPath string) *ConfigHolder {
	return &ConfigHolder{
		current:    cfg,
		loader:     loader,
		configPath: configPath,
		logger:     log.WithComponent("config"),
		debounce:   500 * time.Millisecond,
	}
}

// Current returns a copy of the active configuration.
func (h *ConfigHolder) Current() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnReload registers a listener.
func (h *ConfigHolder) OnReload(fn ReloadListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload re-reads the configuration. An invalid file leaves the current config in place.
func (h *ConfigHolder) Reload(_ context.Context) error {
	if h.loader == nil {
		return fmt.Errorf("config reload: no loader")
	}
	updated, err := h.loader.Load()
	if err != nil {
		return fmt.Errorf("config reload: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = updated
	listeners := append([]ReloadListener(nil), h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(old, updated)
	}

	h.logger.Info().
		Str("event", "config.reloaded").
		Str("log_level", updated.LogLevel).
		Msg("configuration reloaded")
	return nil
}

// Watch blocks until ctx is done, reloading on file writes. Without a config file it returns immediately.
func (h *ConfigHolder) Watch(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(h.configPath); err != nil {
		return fmt.Errorf("watch config file: %w", err)
	}

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file for changes")

	// Debounce timer to avoid multiple reloads for rapid file changes
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Watch for Write and Create events (covers vim, nano, echo)
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				h.logger.Debug().
					Str("event", "config.file_changed").
					Str("op", event.Op.String()).
					Msg("config file changed")

				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(h.debounce, func() {
					if err := h.Reload(ctx); err != nil {
						h.logger.Error().
							Err(err).
							Str("event", "config.auto_reload_failed").
							Msg("automatic config reload failed")
					}
				})
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// ApplyLogLevel is a ReloadListener that hot-applies log level changes.
func ApplyLogLevel(old, updated AppConfig) {
	if old.LogLevel == updated.LogLevel {
		return
	}
	logger := log.WithComponent("config")
	if err := log.SetLevel(updated.LogLevel); err != nil {
		logger.Warn().Err(err).Str("level", updated.LogLevel).Msg("ignoring invalid log level")
		return
	}
	logger.Info().
		Str("event", "log.level_changed").
		Str("from", old.LogLevel).
		Str("to", updated.LogLevel).
		Msg("log level changed")
}
