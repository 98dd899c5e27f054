// Package di assembles the application object graph. The container is
// built once at startup; everything it holds is either immutable or safe
// for concurrent use.
package di

import (
	"context"
	"fmt"
	nethttp "net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sedcat-backend/internal/catalog"
	"sedcat-backend/internal/config"
	httpiface "sedcat-backend/internal/interfaces/http"
	"sedcat-backend/internal/interfaces/http/handlers"
	"sedcat-backend/internal/observability"
	"sedcat-backend/internal/service/sed"
)

// Container holds the assembled application.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Collector *observability.Collector
	Registry  *catalog.Registry
	Service   *sed.Service
	Router    nethttp.Handler

	tracer *observability.TracerProvider
}

// NewContainer loads configuration and wires the full object graph.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.LoadWithLoader()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewContainerWithConfig(ctx, cfg)
}

// NewContainerWithConfig wires the object graph from an explicit
// configuration. Tests use this to avoid touching the process environment.
func NewContainerWithConfig(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	collector := observability.NewCollector(cfg.Metrics.Namespace)

	registry, err := NewCatalogRegistry(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	service := sed.NewService(registry, logger.Named("sed"))

	router := httpiface.NewRouter(httpiface.RouterDeps{
		Config:    cfg,
		Logger:    logger.Named("http"),
		Collector: collector,
		Health:    handlers.NewHealthHandler(registry, cfg.Version),
		Catalog:   handlers.NewCatalogHandler(registry, collector, logger.Named("catalog")),
		SED:       handlers.NewSEDHandler(service, cfg.Render, collector, logger.Named("sed")),
	})

	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Collector: collector,
		Registry:  registry,
		Service:   service,
		Router:    router,
	}

	if cfg.Tracing.Enabled {
		tracer, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			Environment: string(cfg.Environment),
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRate:  cfg.Tracing.SampleRate,
		}, logger)
		if err != nil {
			// Tracing is best-effort; the service runs without it.
			logger.Warn("Failed to initialize tracing", zap.Error(err))
		} else {
			c.tracer = tracer
		}
	}

	return c, nil
}

// NewLogger builds the zap logger from the logging configuration.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Environment == config.Production {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.Encoding = encodingFor(cfg.Logging.Format)

	return zapCfg.Build()
}

func encodingFor(format string) string {
	if format == "console" {
		return "console"
	}
	return "json"
}

// NewCatalogRegistry loads the bundled catalogs and, when a mirror is
// configured, fetches the extra variants from it.
func NewCatalogRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*catalog.Registry, error) {
	registry := catalog.NewRegistry(logger.Named("catalog"))
	if err := registry.LoadBundled(cfg.Catalog.Variants...); err != nil {
		return nil, fmt.Errorf("failed to load bundled catalogs: %w", err)
	}

	if cfg.Catalog.MirrorURL != "" && len(cfg.Catalog.MirrorVariants) > 0 {
		mirror := catalog.NewMirrorClient(cfg.Catalog.MirrorURL, cfg.Catalog.MirrorTimeout, logger.Named("mirror"))
		for _, variant := range cfg.Catalog.MirrorVariants {
			cat, err := mirror.Fetch(ctx, variant)
			if err != nil {
				// A broken mirror should not prevent serving bundled data.
				logger.Warn("Skipping mirror catalog",
					zap.String("variant", variant),
					zap.Error(err),
				)
				continue
			}
			registry.Add(cat)
		}
	}

	return registry, nil
}

// Shutdown releases resources held by the container.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	if c.tracer != nil {
		if err := c.tracer.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	// Sync errors on stderr sinks are expected and harmless.
	_ = c.Logger.Sync()
	return firstErr
}
