//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"sedcat-backend/internal/config"
	httpiface "sedcat-backend/internal/interfaces/http"
	"sedcat-backend/internal/interfaces/http/handlers"
	"sedcat-backend/internal/observability"
	"sedcat-backend/internal/service/sed"
)

// ApplicationSet is the provider set for the full application graph. The
// hand-written constructors in container.go mirror this wiring; the set is
// kept in sync so the graph can be generated instead once it grows.
var ApplicationSet = wire.NewSet(
	config.LoadWithLoader,
	NewLogger,
	NewCatalogRegistry,
	observability.NewCollector,
	sed.NewService,
	handlers.NewHealthHandler,
	handlers.NewCatalogHandler,
	handlers.NewSEDHandler,
	httpiface.NewRouter,
)

// InitializeContainer builds the application container via wire.
func InitializeContainer(ctx context.Context) (*Container, error) {
	wire.Build(ApplicationSet, wire.Struct(new(Container), "*"))
	return nil, nil
}
