package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading configuration from multiple sources.
type Loader struct {
	// basePath is the root directory for configuration files
	basePath string

	// environment is the current deployment environment
	environment Environment

	// sources tracks where configuration was loaded from
	sources []string

	// fileLoaders maps file extensions to their loaders
	fileLoaders map[string]FileLoader
}

// FileLoader interface for different configuration file formats.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a new configuration loader with sensible defaults.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}

	loader := &Loader{
		basePath:    basePath,
		environment: env,
		sources:     make([]string, 0),
		fileLoaders: make(map[string]FileLoader),
	}

	loader.RegisterLoader(&YAMLLoader{})
	loader.RegisterLoader(&JSONLoader{})

	return loader
}

// RegisterLoader registers a new file loader for a specific format.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders[loader.Extension()] = loader
}

// Load loads configuration using a hierarchy of sources.
// The loading order (from lowest to highest priority):
//  1. Default values (in code)
//  2. Base configuration file (base.yaml)
//  3. Environment-specific file (e.g., production.yaml)
//  4. Local overrides file (local.yaml - for development)
//  5. Environment variables (highest priority)
func (l *Loader) Load() (*Config, error) {
	cfg := l.defaultConfig()
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			// Local file errors are warnings in development
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config: %v\n", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")

	cfg.LoadedFrom = l.sources
	cfg.Version = "1.0.0" // Configuration schema version

	cfg.applyEnvironmentDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile loads configuration from a file with automatic format detection.
func (l *Loader) loadFile(name string, cfg *Config) error {
	for ext, loader := range l.fileLoaders {
		filename := fmt.Sprintf("%s.%s", name, ext)
		path := filepath.Join(l.basePath, filename)

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // Try next extension
			}
			return err
		}
		defer file.Close()

		if err := loader.Load(file, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}

	return os.ErrNotExist
}

// loadEnvironmentVariables overlays environment variables on the configuration.
func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port := parseInt(val); port > 0 {
			cfg.Server.Port = port
		}
	}
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}

	if val := os.Getenv("CATALOG_VARIANTS"); val != "" {
		cfg.Catalog.Variants = splitList(val)
	}
	if val := os.Getenv("CATALOG_MIRROR_URL"); val != "" {
		cfg.Catalog.MirrorURL = val
	}
	if val := os.Getenv("CATALOG_MIRROR_VARIANTS"); val != "" {
		cfg.Catalog.MirrorVariants = splitList(val)
	}

	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	if val := os.Getenv("ENABLE_METRICS"); val != "" {
		cfg.Metrics.Enabled = parseBool(val)
	}
	if val := os.Getenv("ENABLE_TRACING"); val != "" {
		cfg.Tracing.Enabled = parseBool(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
}

// defaultConfig returns a configuration with sensible defaults.
// This ensures the application can run even without configuration files.
func (l *Loader) defaultConfig() *Config {
	return &Config{
		Environment: l.environment,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Catalog: Catalog{
			Variants:      nil, // all bundled catalogs
			MirrorTimeout: 10 * time.Second,
		},
		Render: Render{
			WidthCm:         18,
			HeightCm:        12,
			DefaultFluxUnit: "erg cm-2 s-1",
			DefaultPoints:   100,
		},
		Logging: Logging{
			Level: "info",
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "sedcat",
			Path:      "/metrics",
		},
		Tracing: Tracing{
			Enabled:     false,
			ServiceName: "sedcat-backend",
			SampleRate:  0.1,
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
			MaxAge:         300,
		},
	}
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	decoder := yaml.NewDecoder(reader)
	return decoder.Decode(target)
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	decoder := json.NewDecoder(reader)
	return decoder.Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

func parseInt(s string) int {
	val, _ := strconv.Atoi(s)
	return val
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// LoadWithLoader loads configuration using the layered loader.
// This is the recommended way to load configuration.
func LoadWithLoader() (*Config, error) {
	env := getEnvironment()
	basePath := os.Getenv("CONFIG_DIR")
	loader := NewLoader(basePath, env)
	return loader.Load()
}

// MustLoadWithLoader loads configuration and panics on error.
// Use this only in main() or init() functions.
func MustLoadWithLoader() *Config {
	cfg, err := LoadWithLoader()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
