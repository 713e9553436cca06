package queries

import (
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
)

// GetAccountQuery reads the actor's profile and balance
type GetAccountQuery struct {
	UserID valueobjects.UserID
}

func (q GetAccountQuery) Validate() error {
	if q.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	return nil
}
