package queries

import (
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
)

// GetCatQuery fetches one cat's projection
type GetCatQuery struct {
	CatID valueobjects.CatID
}

func (q GetCatQuery) Validate() error {
	if q.CatID.IsZero() {
		return pkgerrors.ErrInvalidInput.With("field", "catId")
	}
	return nil
}

// ListAdoptableCatsQuery lists living cats nobody owns
type ListAdoptableCatsQuery struct{}

func (ListAdoptableCatsQuery) Validate() error { return nil }

// ListOwnedCatsQuery lists the actor's cats, dead ones included
type ListOwnedCatsQuery struct {
	UserID valueobjects.UserID
}

func (q ListOwnedCatsQuery) Validate() error {
	if q.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	return nil
}
