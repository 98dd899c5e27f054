// Package config provides configuration management for the SEDCat backend:
// layered loading from files and environment variables, validation, and hot
// reloading in development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the root configuration for the service.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment"`

	Server  Server  `yaml:"server" json:"server"`
	Catalog Catalog `yaml:"catalog" json:"catalog"`
	Render  Render  `yaml:"render" json:"render"`
	Logging Logging `yaml:"logging" json:"logging"`
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	Tracing Tracing `yaml:"tracing" json:"tracing"`
	CORS    CORS    `yaml:"cors" json:"cors"`

	// LoadedFrom tracks where configuration was loaded from.
	LoadedFrom []string `yaml:"-" json:"-"`
	// Version is the configuration schema version.
	Version string `yaml:"-" json:"-"`
}

// Server holds the HTTP server settings.
type Server struct {
	Host            string        `yaml:"host" json:"host" validate:"required"`
	Port            int           `yaml:"port" json:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"requestTimeout"`
}

// Catalog selects which catalogs to serve and an optional remote mirror for
// catalogs that are not bundled.
type Catalog struct {
	// Variants are the bundled catalogs to load; empty means all of them.
	Variants []string `yaml:"variants" json:"variants"`
	// MirrorURL, when set, enables fetching extra catalogs from a mirror.
	MirrorURL      string        `yaml:"mirror_url" json:"mirrorUrl" validate:"omitempty,url"`
	MirrorVariants []string      `yaml:"mirror_variants" json:"mirrorVariants"`
	MirrorTimeout  time.Duration `yaml:"mirror_timeout" json:"mirrorTimeout"`
}

// Render holds the plot defaults.
type Render struct {
	WidthCm         float64 `yaml:"width_cm" json:"widthCm" validate:"gt=0"`
	HeightCm        float64 `yaml:"height_cm" json:"heightCm" validate:"gt=0"`
	DefaultFluxUnit string  `yaml:"default_flux_unit" json:"defaultFluxUnit"`
	DefaultPoints   int     `yaml:"default_points" json:"defaultPoints" validate:"min=2,max=10000"`
	YMin            float64 `yaml:"y_min" json:"yMin"`
	YMax            float64 `yaml:"y_max" json:"yMax"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"oneof=json console"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace" validate:"required"`
	Path      string `yaml:"path" json:"path" validate:"required,startswith=/"`
}

// Tracing configures the OpenTelemetry exporter.
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	ServiceName string  `yaml:"service_name" json:"serviceName"`
	SampleRate  float64 `yaml:"sample_rate" json:"sampleRate" validate:"gte=0,lte=1"`
}

// CORS configures cross-origin access for the API.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowedOrigins"`
	MaxAge         int      `yaml:"max_age" json:"maxAge"`
}

// Validate checks the configuration after all sources are applied.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("invalid environment %q", c.Environment)
	}
	if c.Render.YMin != 0 || c.Render.YMax != 0 {
		if c.Render.YMin <= 0 || c.Render.YMin >= c.Render.YMax {
			return fmt.Errorf("render y limits must satisfy 0 < min < max, got [%g, %g]", c.Render.YMin, c.Render.YMax)
		}
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing is enabled but no endpoint is configured")
	}
	return nil
}

// applyEnvironmentDefaults adjusts defaults that differ per environment.
func (c *Config) applyEnvironmentDefaults() {
	if c.Environment == Development && c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// getEnvironment resolves the deployment environment from the process
// environment, defaulting to development.
func getEnvironment() Environment {
	switch strings.ToLower(os.Getenv("SEDCAT_ENV")) {
	case "production", "prod":
		return Production
	case "staging":
		return Staging
	default:
		return Development
	}
}
