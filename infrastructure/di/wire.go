//go:build wireinject
// +build wireinject

package di

import (
	"context"

	cmdhandlers "catnook-backend/application/commands/handlers"
	queryhandlers "catnook-backend/application/queries/handlers"
	"catnook-backend/domain/services"
	"catnook-backend/infrastructure/config"

	"github.com/google/wire"
)

// InfrastructureSet covers storage, AWS clients and cross-cutting services
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideEconomy,
	ProvideClock,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideStorage,
	wire.FieldsOf(new(*Storage), "Cats", "Accounts", "Interactions"),
	ProvideLocker,
	ProvideResourceGuard,
	ProvideMetrics,
	ProvideEventPublisher,
	ProvideConversationEngine,
)

// ApplicationSet covers command and query handlers and their buses
var ApplicationSet = wire.NewSet(
	services.NewAbsenceBonusCalculator,
	cmdhandlers.NewRecordInteractionHandler,
	cmdhandlers.NewApplyMoodHandler,
	cmdhandlers.NewProcessLoginHandler,
	cmdhandlers.NewAdoptionHandler,
	cmdhandlers.NewCreateCatHandler,
	cmdhandlers.NewChatRoundOrchestrator,
	wire.Struct(new(cmdhandlers.Set), "*"),
	queryhandlers.NewInteractionQueryHandler,
	queryhandlers.NewCatQueryHandler,
	wire.Struct(new(queryhandlers.Set), "*"),
	ProvideCommandBus,
	ProvideQueryBus,
)

// InterfaceSet covers the HTTP surface
var InterfaceSet = wire.NewSet(
	ProvideErrorHandler,
	ProvideAuthConfig,
	ProvideRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	InterfaceSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
