package commands

import (
	"time"

	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/utils"
)

// ApplyMoodCommand stores the absolute vitals a chat round produced.
// ExpectedVersion, when set, must match the cat's current version.
type ApplyMoodCommand struct {
	UserID          valueobjects.UserID
	CatID           valueobjects.CatID
	Mood            int
	Patience        int
	Timestamp       *time.Time
	InteractionType string
	ExpectedVersion *int64
}

func (c ApplyMoodCommand) Validate() error {
	if c.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	if c.CatID.IsZero() {
		return pkgerrors.ErrInvalidInput.With("field", "catId")
	}
	if c.ExpectedVersion != nil && *c.ExpectedVersion <= 0 {
		return pkgerrors.ErrInvalidInput.With("field", "expectedVersion")
	}
	return nil
}

// AdoptCatCommand gives an adoptable cat to the actor
type AdoptCatCommand struct {
	UserID valueobjects.UserID
	CatID  valueobjects.CatID
}

func (c AdoptCatCommand) Validate() error {
	return actorAndCat(c.UserID, c.CatID)
}

// AbandonCatCommand returns the actor's cat to the adoption pool
type AbandonCatCommand struct {
	UserID valueobjects.UserID
	CatID  valueobjects.CatID
}

func (c AbandonCatCommand) Validate() error {
	return actorAndCat(c.UserID, c.CatID)
}

// CreateCatCommand adds a cat to the adoption pool
type CreateCatCommand struct {
	UserID      valueobjects.UserID
	Name        string `json:"name" validate:"required,max=64"`
	Skin        string `json:"skin" validate:"required,alphanum,max=32"`
	Personality string `json:"personality" validate:"max=500"`
}

func (c CreateCatCommand) Validate() error {
	if c.UserID.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	return validateFields(c)
}

// ChatRoundCommand sends one message to a cat, optionally paying for an
// interaction first
type ChatRoundCommand struct {
	UserID          valueobjects.UserID
	Username        string
	CatID           valueobjects.CatID
	Message         string `json:"message" validate:"required,max=2000"`
	InteractionType string `json:"interactionType"`
}

func (c ChatRoundCommand) Validate() error {
	if err := actorAndCat(c.UserID, c.CatID); err != nil {
		return err
	}
	if c.Message == "" {
		return pkgerrors.ErrInvalidInput.With("field", "message")
	}
	return validateFields(c)
}

func actorAndCat(user valueobjects.UserID, cat valueobjects.CatID) error {
	if user.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	if cat.IsZero() {
		return pkgerrors.ErrInvalidInput.With("field", "catId")
	}
	return nil
}

// validateFields runs the struct's validate tags
func validateFields(v interface{}) error {
	if err := utils.ValidateStruct(v); err != nil {
		return pkgerrors.ErrInvalidInput.With("reason", err.Error())
	}
	return nil
}
