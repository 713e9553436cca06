package commands

import (
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
)

// ProcessLoginCommand records a login and pays the absence bonus
type ProcessLoginCommand struct {
	UserID valueobjects.UserID
}

func (c ProcessLoginCommand) Validate() error {
	if c.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	return nil
}
