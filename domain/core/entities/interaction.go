package entities

import (
	"time"

	"catnook-backend/domain/config"
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
)

// Interaction is an immutable ledger line: one priced action a user took
// on a cat. Records are only ever appended.
type Interaction struct {
	id          valueobjects.InteractionID
	kind        valueobjects.InteractionKind
	cost        int64
	date        time.Time
	catID       valueobjects.CatID
	userID      valueobjects.UserID
	description string
}

// InteractionSnapshot is the flat, storage-facing form of an interaction
type InteractionSnapshot struct {
	ID          valueobjects.InteractionID
	Kind        valueobjects.InteractionKind
	Cost        int64
	Date        time.Time
	CatID       valueobjects.CatID
	UserID      valueobjects.UserID
	Description string
}

// NewInteraction prices kind against the cost table. The id is assigned by
// the store when the record is appended.
func NewInteraction(
	cat valueobjects.CatID,
	user valueobjects.UserID,
	kind valueobjects.InteractionKind,
	description string,
	rules *config.EconomyConfig,
	at time.Time,
) (*Interaction, error) {
	if user.IsZero() {
		return nil, pkgerrors.ErrUnauthenticated
	}
	if cat.IsZero() {
		return nil, pkgerrors.ErrInvalidInput.With("field", "catId")
	}
	cost, ok := rules.Cost(kind.String())
	if !ok {
		return nil, pkgerrors.ErrInvalidInteractionKind.
			With("interactionType", kind.String()).
			WithDetail("allowed", rules.Kinds())
	}
	if len(description) > rules.MaxDescriptionLength {
		return nil, pkgerrors.ErrInvalidInput.
			With("field", "description").
			WithDetail("max_length", rules.MaxDescriptionLength)
	}

	return &Interaction{
		kind:        kind,
		cost:        cost,
		date:        at,
		catID:       cat,
		userID:      user,
		description: description,
	}, nil
}

func ReconstructInteraction(s InteractionSnapshot) *Interaction {
	return &Interaction{
		id:          s.ID,
		kind:        s.Kind,
		cost:        s.Cost,
		date:        s.Date,
		catID:       s.CatID,
		userID:      s.UserID,
		description: s.Description,
	}
}

func (i *Interaction) Snapshot() InteractionSnapshot {
	return InteractionSnapshot{
		ID:          i.id,
		Kind:        i.kind,
		Cost:        i.cost,
		Date:        i.date,
		CatID:       i.catID,
		UserID:      i.userID,
		Description: i.description,
	}
}

// AssignID is called once by the store on append
func (i *Interaction) AssignID(id valueobjects.InteractionID) {
	if i.id <= 0 {
		i.id = id
	}
}

func (i *Interaction) ID() valueobjects.InteractionID { return i.id }
func (i *Interaction) Kind() valueobjects.InteractionKind { return i.kind }
func (i *Interaction) Cost() int64 { return i.cost }
func (i *Interaction) Date() time.Time { return i.date }
func (i *Interaction) CatID() valueobjects.CatID { return i.catID }
func (i *Interaction) UserID() valueobjects.UserID { return i.userID }
func (i *Interaction) Description() string { return i.description }
