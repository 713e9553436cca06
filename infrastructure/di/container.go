package di

import (
	"context"

	"catnook-backend/application/commands/bus"
	"catnook-backend/application/ports"
	querybus "catnook-backend/application/queries/bus"
	domainconfig "catnook-backend/domain/config"
	"catnook-backend/infrastructure/config"
	"catnook-backend/interfaces/http/rest"
	"catnook-backend/pkg/observability"

	"go.uber.org/zap"
)

// Storage is the repository trio of whichever driver was configured
type Storage struct {
	Cats         ports.CatRepository
	Accounts     ports.AccountRepository
	Interactions ports.InteractionRepository

	ping func(ctx context.Context) error
}

// Ping reports whether the backing store answers
func (s *Storage) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Economy    *domainconfig.EconomyConfig
	Storage    *Storage
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Metrics    *observability.Collector
	Router     *rest.Router
}
