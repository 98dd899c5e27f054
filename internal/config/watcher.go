// This file implements hot reloading of configuration in development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches for configuration changes and hot reloads them.
// This is primarily used in development environments for faster iteration.
type Watcher struct {
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewWatcher creates a new configuration watcher.
func NewWatcher(initial *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		config:    initial,
		callbacks: make([]func(*Config), 0),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}

	// Only enable hot reloading in development
	if initial.Environment == Development {
		fsWatcher, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("failed to create file watcher: %w", err)
		}
		w.watcher = fsWatcher

		if err := w.watchConfigFiles(); err != nil {
			fsWatcher.Close()
			return nil, fmt.Errorf("failed to watch config files: %w", err)
		}

		go w.watchLoop()

		logger.Info("Configuration hot reloading enabled",
			zap.String("environment", string(initial.Environment)),
		)
	} else {
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", string(initial.Environment)),
		)
	}

	return w, nil
}

// Current returns the latest configuration snapshot.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnReload registers a callback invoked with every successfully reloaded
// configuration.
func (w *Watcher) OnReload(cb func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Stop shuts the watcher down.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// watchConfigFiles adds configuration files to the watcher.
func (w *Watcher) watchConfigFiles() error {
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "./config"
	}

	err := filepath.Walk(configDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if info.IsDir() || isConfigFile(path) {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Warn("Failed to watch file",
					zap.String("path", path),
					zap.Error(err),
				)
			} else {
				w.logger.Debug("Watching config file",
					zap.String("path", path),
				)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk config directory: %w", err)
	}

	return nil
}

// watchLoop monitors for file changes and triggers reloads.
func (w *Watcher) watchLoop() {
	defer w.watcher.Close()

	// Debounce timer to avoid multiple rapid reloads
	var debounceTimer *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if isConfigFile(event.Name) {
					w.logger.Info("Configuration file changed",
						zap.String("file", event.Name),
						zap.String("operation", event.Op.String()),
					)

					if debounceTimer != nil {
						debounceTimer.Stop()
					}

					debounceTimer = time.AfterFunc(debounceDelay, func() {
						w.reloadConfig()
					})
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

// reloadConfig reloads the configuration and notifies callbacks.
func (w *Watcher) reloadConfig() {
	cfg, err := LoadWithLoader()
	if err != nil {
		w.logger.Error("Failed to reload configuration, keeping previous",
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	w.config = cfg
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded",
		zap.Strings("sources", cfg.LoadedFrom),
	)

	for _, cb := range callbacks {
		cb(cfg)
	}
}

// isConfigFile reports whether a path looks like a configuration file.
func isConfigFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
