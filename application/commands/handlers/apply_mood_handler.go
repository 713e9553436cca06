package handlers

import (
	"context"
	"time"

	"catnook-backend/application/commands"
	"catnook-backend/application/dto"
	"catnook-backend/application/ports"
	"catnook-backend/domain/config"
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/utils"

	"go.uber.org/zap"
)

// ApplyMoodHandler stores the vitals a conversation produced
type ApplyMoodHandler struct {
	cats      ports.CatRepository
	guard     ports.ResourceGuard
	publisher ports.EventPublisher
	rules     *config.EconomyConfig
	clock     utils.Clock
	logger    *zap.Logger
}

func NewApplyMoodHandler(
	cats ports.CatRepository,
	guard ports.ResourceGuard,
	publisher ports.EventPublisher,
	rules *config.EconomyConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *ApplyMoodHandler {
	return &ApplyMoodHandler{
		cats:      cats,
		guard:     guard,
		publisher: publisher,
		rules:     rules,
		clock:     clock,
		logger:    logger,
	}
}

// Handle clamps and applies the vitals under the cat lock. A caller that
// passes ExpectedVersion is rejected when the cat has moved on since.
func (h *ApplyMoodHandler) Handle(ctx context.Context, cmd commands.ApplyMoodCommand) (*dto.CatView, error) {
	kind := valueobjects.NewInteractionKind(cmd.InteractionType)
	if !kind.IsZero() {
		if _, ok := h.rules.Cost(kind.String()); !ok {
			return nil, pkgerrors.ErrInvalidInteractionKind.
				With("interactionType", cmd.InteractionType).
				WithDetail("allowed", h.rules.Kinds())
		}
	}

	at := h.clock.Now()
	if cmd.Timestamp != nil {
		at = cmd.Timestamp.UTC().Truncate(time.Millisecond)
	}

	release, err := h.guard.AcquireAll(ctx, cmd.CatID.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()

	cat, err := h.cats.GetByID(ctx, cmd.CatID)
	if err != nil {
		return nil, err
	}
	if !cat.CanBeTendedBy(cmd.UserID) {
		return nil, pkgerrors.ErrNotCatOwner.With("catId", int64(cmd.CatID))
	}
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != cat.Version() {
		return nil, pkgerrors.ErrConcurrentModification.
			With("catId", int64(cmd.CatID)).
			WithDetail("expectedVersion", *cmd.ExpectedVersion).
			WithDetail("actualVersion", cat.Version())
	}

	expected, wasAlive := cat.Version(), cat.IsAlive()
	cat.ApplyVitals(cmd.Mood, cmd.Patience, kind, at, h.rules)
	if err := h.cats.Save(ctx, cat, expected); err != nil {
		return nil, err
	}

	if wasAlive && !cat.IsAlive() {
		h.logger.Info("Cat died",
			zap.Int64("catID", int64(cat.ID())),
			zap.Int("deathFlag", cat.DeathFlag()))
	}
	publish(ctx, h.publisher, h.logger, cat.GetUncommittedEvents()...)
	cat.MarkEventsAsCommitted()

	view := dto.NewCatView(cat, h.rules)
	return &view, nil
}
