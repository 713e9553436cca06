package commands

import (
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
)

// RecordInteractionCommand spends yarn on one action towards a cat
type RecordInteractionCommand struct {
	UserID          valueobjects.UserID
	CatID           valueobjects.CatID
	InteractionType string `json:"interactionType"`
	Description     string `json:"description"`
}

// Validate validates the command
func (c RecordInteractionCommand) Validate() error {
	if c.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	if c.CatID.IsZero() {
		return pkgerrors.ErrInvalidInput.With("field", "catId")
	}
	if valueobjects.NewInteractionKind(c.InteractionType).IsZero() {
		return pkgerrors.ErrInvalidInteractionKind.With("interactionType", c.InteractionType)
	}
	return nil
}
