package queries

import (
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
)

// LastInteractionsQuery asks for the newest interactions between the actor
// and one cat. N outside 1..max falls back to the configured default or max.
type LastInteractionsQuery struct {
	UserID valueobjects.UserID
	CatID  valueobjects.CatID
	N      int
}

func (q LastInteractionsQuery) Validate() error {
	if q.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	if q.CatID.IsZero() {
		return pkgerrors.ErrInvalidInput.With("field", "catId")
	}
	return nil
}

// ListInteractionsQuery lists the whole ledger, optionally for one cat
// and/or one user, oldest first
type ListInteractionsQuery struct {
	UserID       valueobjects.UserID
	CatID        valueobjects.CatID
	FilterUserID valueobjects.UserID
}

func (q ListInteractionsQuery) Validate() error {
	if q.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	return nil
}

// GetInteractionQuery fetches one record
type GetInteractionQuery struct {
	UserID        valueobjects.UserID
	InteractionID valueobjects.InteractionID
}

func (q GetInteractionQuery) Validate() error {
	if q.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	if q.InteractionID <= 0 {
		return pkgerrors.ErrInvalidInput.With("field", "interactionId")
	}
	return nil
}
