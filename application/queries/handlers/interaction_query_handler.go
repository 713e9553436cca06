package handlers

import (
	"context"
	"errors"

	"catnook-backend/application/dto"
	"catnook-backend/application/ports"
	"catnook-backend/application/queries"
	"catnook-backend/domain/config"
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"

	"go.uber.org/zap"
)

// InteractionQueryHandler serves reads of the interaction ledger
type InteractionQueryHandler struct {
	interactions ports.InteractionRepository
	cats         ports.CatRepository
	accounts     ports.AccountRepository
	rules        *config.EconomyConfig
	logger       *zap.Logger
}

func NewInteractionQueryHandler(
	interactions ports.InteractionRepository,
	cats ports.CatRepository,
	accounts ports.AccountRepository,
	rules *config.EconomyConfig,
	logger *zap.Logger,
) *InteractionQueryHandler {
	return &InteractionQueryHandler{
		interactions: interactions,
		cats:         cats,
		accounts:     accounts,
		rules:        rules,
		logger:       logger,
	}
}

// Last returns 0..n records, newest first. A short history is not an error.
func (h *InteractionQueryHandler) Last(ctx context.Context, q queries.LastInteractionsQuery) ([]dto.InteractionSummary, error) {
	if _, err := h.cats.GetByID(ctx, q.CatID); err != nil {
		return nil, err
	}

	records, err := h.interactions.LastN(ctx, q.CatID, q.UserID, h.rules.HistoryLimit(q.N))
	if err != nil {
		return nil, err
	}
	out := make([]dto.InteractionSummary, 0, len(records))
	for _, in := range records {
		out = append(out, dto.InteractionSummary{
			InteractionType: in.Kind().String(),
			InteractionDate: in.Date(),
		})
	}
	return out, nil
}

// List returns the ledger oldest first with cat and user names filled in
func (h *InteractionQueryHandler) List(ctx context.Context, q queries.ListInteractionsQuery) ([]dto.InteractionView, error) {
	records, err := h.interactions.List(ctx, ports.InteractionFilter{CatID: q.CatID, UserID: q.FilterUserID})
	if err != nil {
		return nil, err
	}

	catNames := make(map[valueobjects.CatID]string)
	usernames := make(map[valueobjects.UserID]string)
	out := make([]dto.InteractionView, 0, len(records))
	for _, in := range records {
		view := dto.NewInteractionView(in)

		name, seen := catNames[in.CatID()]
		if !seen {
			name = h.catName(ctx, in.CatID())
			catNames[in.CatID()] = name
		}
		view.CatName = name

		username, seen := usernames[in.UserID()]
		if !seen {
			username = h.username(ctx, in.UserID())
			usernames[in.UserID()] = username
		}
		view.Username = username

		out = append(out, view)
	}
	return out, nil
}

// Get returns one record
func (h *InteractionQueryHandler) Get(ctx context.Context, q queries.GetInteractionQuery) (*dto.InteractionView, error) {
	in, err := h.interactions.GetByID(ctx, q.InteractionID)
	if err != nil {
		return nil, err
	}
	view := dto.NewInteractionView(in)
	view.CatName = h.catName(ctx, in.CatID())
	view.Username = h.username(ctx, in.UserID())
	return &view, nil
}

// catName tolerates a missing cat; names are decoration on the ledger
func (h *InteractionQueryHandler) catName(ctx context.Context, id valueobjects.CatID) string {
	cat, err := h.cats.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrCatNotFound) {
			h.logger.Warn("Failed to resolve cat name", zap.Int64("catID", int64(id)), zap.Error(err))
		}
		return ""
	}
	return cat.Name()
}

func (h *InteractionQueryHandler) username(ctx context.Context, id valueobjects.UserID) string {
	acct, err := h.accounts.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrUserNotFound) {
			h.logger.Warn("Failed to resolve username", zap.Int64("userID", int64(id)), zap.Error(err))
		}
		return ""
	}
	return acct.Username()
}
