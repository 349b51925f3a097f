package http

import (
	natsadapter "github.com/samirrijal/walkies/internal/adapters/nats"
	"github.com/samirrijal/walkies/internal/adapters/postgres"
	"github.com/samirrijal/walkies/internal/adapters/valkey"
	"github.com/samirrijal/walkies/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions   *usecases.SessionService
	Navigation *usecases.NavigationService
	Resolver   *usecases.LocationResolver
	Events     *natsadapter.Subscriber
	DB         *postgres.DB
	Cache      *valkey.Cache
}
