package handlers

import (
	"context"

	"catnook-backend/application/commands"
	"catnook-backend/application/dto"
	"catnook-backend/application/ports"
	"catnook-backend/domain/config"
	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/utils"

	"go.uber.org/zap"
)

// ChatRoundOrchestrator runs a whole chat turn under the cat lock:
// optional paid interaction, the engine call, then the vitals it returns.
// Holding the lock across all three means no other request can change the
// cat between the debit and the mood update.
type ChatRoundOrchestrator struct {
	cats         ports.CatRepository
	accounts     ports.AccountRepository
	interactions ports.InteractionRepository
	engine       ports.ConversationEngine
	guard        ports.ResourceGuard
	publisher    ports.EventPublisher
	recorder     *interactionRecorder
	rules        *config.EconomyConfig
	clock        utils.Clock
	logger       *zap.Logger
}

func NewChatRoundOrchestrator(
	cats ports.CatRepository,
	accounts ports.AccountRepository,
	interactions ports.InteractionRepository,
	engine ports.ConversationEngine,
	guard ports.ResourceGuard,
	publisher ports.EventPublisher,
	rules *config.EconomyConfig,
	clock utils.Clock,
	logger *zap.Logger,
) *ChatRoundOrchestrator {
	return &ChatRoundOrchestrator{
		cats:         cats,
		accounts:     accounts,
		interactions: interactions,
		engine:       engine,
		guard:        guard,
		publisher:    publisher,
		recorder: &interactionRecorder{
			interactions: interactions,
			publisher:    publisher,
			rules:        rules,
			clock:        clock,
			logger:       logger,
		},
		rules:  rules,
		clock:  clock,
		logger: logger,
	}
}

// Handle runs one round. If the engine fails after the interaction was
// paid for, the interaction stands and the error is returned.
func (o *ChatRoundOrchestrator) Handle(ctx context.Context, cmd commands.ChatRoundCommand) (*dto.ChatResult, error) {
	kind := valueobjects.NewInteractionKind(cmd.InteractionType)

	release, err := o.guard.AcquireAll(ctx, cmd.CatID.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()

	cat, err := o.cats.GetByID(ctx, cmd.CatID)
	if err != nil {
		return nil, err
	}
	if !cat.CanBeTendedBy(cmd.UserID) {
		return nil, pkgerrors.ErrNotCatOwner.With("catId", int64(cmd.CatID))
	}
	if !cat.IsAlive() {
		return nil, pkgerrors.ErrCatDeceased.With("catId", int64(cmd.CatID))
	}

	username := cmd.Username
	if username == "" {
		account, err := o.accounts.GetByID(ctx, cmd.UserID)
		if err != nil {
			return nil, err
		}
		username = account.Username()
	}

	var recorded *dto.RecordedInteraction
	if !kind.IsZero() {
		recorded, err = o.payFor(ctx, cat, cmd.UserID, kind)
		if err != nil {
			return nil, err
		}
	}

	recent, err := o.interactions.LastN(ctx, cat.ID(), cmd.UserID, o.rules.HistoryDefaultLimit)
	if err != nil {
		return nil, err
	}

	reply, err := o.engine.Respond(ctx, o.request(cat, cmd.UserID, username, cmd.Message, recent))
	if err != nil {
		fields := []zap.Field{zap.Int64("catID", int64(cat.ID())), zap.Error(err)}
		if recorded != nil {
			fields = append(fields, zap.Int64("interactionID", recorded.ID))
		}
		o.logger.Warn("Conversation engine failed", fields...)
		if _, ok := pkgerrors.AsDomainError(err); ok {
			return nil, err
		}
		return nil, pkgerrors.ErrConversationUnavailable.With("catId", int64(cat.ID())).WithCause(err)
	}

	expected := cat.Version()
	cat.ApplyVitals(reply.Mood, reply.Patience, kind, o.clock.Now(), o.rules)
	if err := o.cats.Save(ctx, cat, expected); err != nil {
		return nil, err
	}
	publish(ctx, o.publisher, o.logger, cat.GetUncommittedEvents()...)
	cat.MarkEventsAsCommitted()

	return &dto.ChatResult{
		Reply:       reply.Reply,
		Cat:         dto.NewCatView(cat, o.rules),
		Interaction: recorded,
	}, nil
}

// payFor takes the user lock only for the debit so a slow engine call does
// not hold up the user's other cats
func (o *ChatRoundOrchestrator) payFor(ctx context.Context, cat *entities.Cat, user valueobjects.UserID, kind valueobjects.InteractionKind) (*dto.RecordedInteraction, error) {
	release, err := o.guard.AcquireAll(ctx, user.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()
	return o.recorder.record(ctx, cat, user, kind, "")
}

func (o *ChatRoundOrchestrator) request(
	cat *entities.Cat,
	user valueobjects.UserID,
	username, message string,
	recent []*entities.Interaction,
) ports.ConversationRequest {
	history := make([]ports.RecentInteraction, 0, len(recent))
	for _, in := range recent {
		history = append(history, ports.RecentInteraction{Kind: in.Kind().String(), At: in.Date()})
	}
	return ports.ConversationRequest{
		Cat: ports.CatPersona{
			ID:          int64(cat.ID()),
			Name:        cat.Name(),
			Personality: cat.Personality(),
			Mood:        cat.Mood(),
			Patience:    cat.Patience(),
			State:       string(cat.State(o.rules)),
		},
		User:    ports.ConversationUser{ID: int64(user), Username: username},
		Message: message,
		Recent:  history,
	}
}
