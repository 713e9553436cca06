package handlers

import (
	"context"

	"catnook-backend/application/dto"
	"catnook-backend/application/ports"
	"catnook-backend/application/queries"
	"catnook-backend/domain/config"
)

// CatQueryHandler serves cat and account reads
type CatQueryHandler struct {
	cats     ports.CatRepository
	accounts ports.AccountRepository
	rules    *config.EconomyConfig
}

func NewCatQueryHandler(cats ports.CatRepository, accounts ports.AccountRepository, rules *config.EconomyConfig) *CatQueryHandler {
	return &CatQueryHandler{cats: cats, accounts: accounts, rules: rules}
}

func (h *CatQueryHandler) GetCat(ctx context.Context, q queries.GetCatQuery) (*dto.CatView, error) {
	cat, err := h.cats.GetByID(ctx, q.CatID)
	if err != nil {
		return nil, err
	}
	view := dto.NewCatView(cat, h.rules)
	return &view, nil
}

func (h *CatQueryHandler) ListAdoptable(ctx context.Context, _ queries.ListAdoptableCatsQuery) ([]dto.CatView, error) {
	cats, err := h.cats.ListAdoptable(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewCatViews(cats, h.rules), nil
}

func (h *CatQueryHandler) ListOwned(ctx context.Context, q queries.ListOwnedCatsQuery) ([]dto.CatView, error) {
	cats, err := h.cats.ListByOwner(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	return dto.NewCatViews(cats, h.rules), nil
}

func (h *CatQueryHandler) GetAccount(ctx context.Context, q queries.GetAccountQuery) (*dto.AccountView, error) {
	acct, err := h.accounts.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	view := dto.NewAccountView(acct)
	return &view, nil
}
