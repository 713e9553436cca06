package handlers

import (
	"context"

	"catnook-backend/application/commands"
	"catnook-backend/application/dto"
	"catnook-backend/application/ports"
	"catnook-backend/domain/config"
	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/domain/events"
	"catnook-backend/pkg/utils"

	"go.uber.org/zap"
)

// AdoptionHandler moves cats in and out of the adoption pool
type AdoptionHandler struct {
	cats      ports.CatRepository
	accounts  ports.AccountRepository
	guard     ports.ResourceGuard
	publisher ports.EventPublisher
	rules     *config.EconomyConfig
	clock     utils.Clock
	logger    *zap.Logger
}

func NewAdoptionHandler(
	cats ports.CatRepository,
	accounts ports.AccountRepository,
	guard ports.ResourceGuard,
	publisher ports.EventPublisher,
	rules *config.EconomyConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *AdoptionHandler {
	return &AdoptionHandler{
		cats:      cats,
		accounts:  accounts,
		guard:     guard,
		publisher: publisher,
		rules:     rules,
		clock:     clock,
		logger:    logger,
	}
}

// Adopt sets the owner exactly once
func (h *AdoptionHandler) Adopt(ctx context.Context, cmd commands.AdoptCatCommand) (*dto.CatView, error) {
	if _, err := h.accounts.GetByID(ctx, cmd.UserID); err != nil {
		return nil, err
	}
	return h.change(ctx, cmd.CatID, func(cat *entities.Cat) error {
		return cat.Adopt(cmd.UserID, h.clock.Now())
	})
}

// Abandon hands the cat back to the pool; only the owner may
func (h *AdoptionHandler) Abandon(ctx context.Context, cmd commands.AbandonCatCommand) (*dto.CatView, error) {
	return h.change(ctx, cmd.CatID, func(cat *entities.Cat) error {
		return cat.Abandon(cmd.UserID, h.clock.Now())
	})
}

func (h *AdoptionHandler) change(ctx context.Context, id valueobjects.CatID, mutate func(*entities.Cat) error) (*dto.CatView, error) {
	release, err := h.guard.AcquireAll(ctx, id.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()

	cat, err := h.cats.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	expected := cat.Version()
	if err := mutate(cat); err != nil {
		return nil, err
	}
	if err := h.cats.Save(ctx, cat, expected); err != nil {
		return nil, err
	}

	evts := cat.GetUncommittedEvents()
	for _, e := range evts {
		h.logger.Info("Cat ownership changed",
			zap.Int64("catID", int64(id)),
			zap.String("event", e.GetEventType()))
	}
	publish(ctx, h.publisher, h.logger, evts...)
	cat.MarkEventsAsCommitted()

	view := dto.NewCatView(cat, h.rules)
	return &view, nil
}

// CreateCatHandler adds cats to the adoption pool
type CreateCatHandler struct {
	cats      ports.CatRepository
	publisher ports.EventPublisher
	rules     *config.EconomyConfig
	clock     utils.Clock
	logger    *zap.Logger
}

func NewCreateCatHandler(
	cats ports.CatRepository,
	publisher ports.EventPublisher,
	rules *config.EconomyConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *CreateCatHandler {
	return &CreateCatHandler{
		cats:      cats,
		publisher: publisher,
		rules:     rules,
		clock:     clock,
		logger:    logger,
	}
}

func (h *CreateCatHandler) Handle(ctx context.Context, cmd commands.CreateCatCommand) (*dto.CatView, error) {
	now := h.clock.Now()
	cat, err := entities.NewCat(cmd.Name, cmd.Skin, cmd.Personality, h.rules, now)
	if err != nil {
		return nil, err
	}
	if err := h.cats.Create(ctx, cat); err != nil {
		return nil, err
	}

	h.logger.Info("Cat created",
		zap.Int64("catID", int64(cat.ID())),
		zap.String("name", cat.Name()),
		zap.Int64("createdBy", int64(cmd.UserID)))
	publish(ctx, h.publisher, h.logger, events.NewCatCreated(cat.ID(), cat.Name(), now))

	view := dto.NewCatView(cat, h.rules)
	return &view, nil
}
