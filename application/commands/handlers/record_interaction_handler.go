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
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/utils"

	"go.uber.org/zap"
)

// interactionRecorder prices and commits one interaction. Callers hold the
// cat and user locks and pass in the cat they loaded under them.
type interactionRecorder struct {
	interactions ports.InteractionRepository
	publisher    ports.EventPublisher
	rules        *config.EconomyConfig
	clock        utils.Clock
	logger       *zap.Logger
}

func (r *interactionRecorder) record(
	ctx context.Context,
	cat *entities.Cat,
	user valueobjects.UserID,
	kind valueobjects.InteractionKind,
	description string,
) (*dto.RecordedInteraction, error) {
	if !cat.CanBeTendedBy(user) {
		return nil, pkgerrors.ErrNotCatOwner.With("catId", int64(cat.ID()))
	}
	if !cat.IsAlive() {
		return nil, pkgerrors.ErrCatDeceased.With("catId", int64(cat.ID()))
	}

	now := r.clock.Now()
	in, err := entities.NewInteraction(cat.ID(), user, kind, description, r.rules, now)
	if err != nil {
		return nil, err
	}

	expected := cat.Version()
	cat.RegisterInteraction(kind, now)
	balance, err := r.interactions.Record(ctx, ports.InteractionEntry{
		Interaction:        in,
		Cat:                cat,
		ExpectedCatVersion: expected,
		AllowNegative:      r.rules.AllowNegativeYarn,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Interaction recorded",
		zap.Int64("interactionID", int64(in.ID())),
		zap.Int64("catID", int64(cat.ID())),
		zap.Int64("userID", int64(user)),
		zap.String("kind", kind.String()),
		zap.Int64("cost", in.Cost()),
		zap.Int64("balance", balance),
	)
	publish(ctx, r.publisher, r.logger, events.NewInteractionRecorded(in.ID(), cat.ID(), user, kind, in.Cost(), balance, now))

	return &dto.RecordedInteraction{
		InteractionView: dto.NewInteractionView(in),
		CurrentYarn:     balance,
		CatVersion:      cat.Version(),
	}, nil
}

// RecordInteractionHandler handles RecordInteractionCommand
type RecordInteractionHandler struct {
	cats     ports.CatRepository
	guard    ports.ResourceGuard
	recorder *interactionRecorder
}

func NewRecordInteractionHandler(
	cats ports.CatRepository,
	interactions ports.InteractionRepository,
	guard ports.ResourceGuard,
	publisher ports.EventPublisher,
	rules *config.EconomyConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *RecordInteractionHandler {
	return &RecordInteractionHandler{
		cats:  cats,
		guard: guard,
		recorder: &interactionRecorder{
			interactions: interactions,
			publisher:    publisher,
			rules:        rules,
			clock:        clock,
			logger:       logger,
		},
	}
}

// Handle debits the interaction's cost and appends the record. Nothing is
// written when any step fails.
func (h *RecordInteractionHandler) Handle(ctx context.Context, cmd commands.RecordInteractionCommand) (*dto.RecordedInteraction, error) {
	kind := valueobjects.NewInteractionKind(cmd.InteractionType)

	release, err := h.guard.AcquireAll(ctx, cmd.CatID.LockKey(), cmd.UserID.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()

	cat, err := h.cats.GetByID(ctx, cmd.CatID)
	if err != nil {
		return nil, err
	}
	return h.recorder.record(ctx, cat, cmd.UserID, kind, cmd.Description)
}

// publish sends events after the state they describe is committed. A
// failure is logged; events are notifications, the write already stands.
func publish(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, evts ...events.DomainEvent) {
	if len(evts) == 0 {
		return
	}
	if err := publisher.PublishBatch(ctx, evts); err != nil {
		logger.Error("Failed to publish domain events",
			zap.Int("eventCount", len(evts)),
			zap.String("firstEventType", evts[0].GetEventType()),
			zap.Error(err),
		)
	}
}
