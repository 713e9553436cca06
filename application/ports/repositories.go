package ports

import (
	"context"
	"time"

	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/domain/events"
)

// CatRepository persists cats. Every write is a compare-and-swap on the
// version the caller loaded, so two writers can never both win.
type CatRepository interface {
	// Create inserts a new cat and assigns its id
	Create(ctx context.Context, cat *entities.Cat) error

	// GetByID returns ErrCatNotFound when absent
	GetByID(ctx context.Context, id valueobjects.CatID) (*entities.Cat, error)

	// Save writes the cat's mutable fields if the stored version still
	// equals expectedVersion, otherwise ErrConcurrentModification
	Save(ctx context.Context, cat *entities.Cat, expectedVersion int64) error

	// ListAdoptable returns living cats without an owner
	ListAdoptable(ctx context.Context) ([]*entities.Cat, error)

	// ListByOwner returns every cat the user owns, dead or alive
	ListByOwner(ctx context.Context, owner valueobjects.UserID) ([]*entities.Cat, error)
}

// AccountRepository is the yarn ledger. Balances move only through atomic
// increments; nothing reads a balance, edits it and writes it back.
type AccountRepository interface {
	Create(ctx context.Context, account *entities.Account) error

	// GetByID returns ErrUserNotFound when absent
	GetByID(ctx context.Context, id valueobjects.UserID) (*entities.Account, error)

	GetByUsername(ctx context.Context, username string) (*entities.Account, error)

	// AdjustYarn adds delta to the balance and returns the new balance. When
	// floor is set and the result would drop below it, nothing changes and
	// ErrInsufficientYarn is returned.
	AdjustYarn(ctx context.Context, id valueobjects.UserID, delta int64, floor *int64) (int64, error)

	// RecordLogin moves lastLoginDate from expectedPrevious to at and credits
	// bonus in one atomic step. If lastLoginDate no longer equals
	// expectedPrevious, ErrConcurrentModification is returned.
	RecordLogin(ctx context.Context, id valueobjects.UserID, expectedPrevious *time.Time, at time.Time, bonus int64) (int64, error)
}

// InteractionEntry is everything one priced interaction changes. The store
// applies all of it or none of it.
type InteractionEntry struct {
	Interaction *entities.Interaction

	// Cat already has RegisterInteraction applied
	Cat                *entities.Cat
	ExpectedCatVersion int64

	// AllowNegative lifts the zero floor on the debit
	AllowNegative bool
}

// InteractionFilter narrows List; zero values mean "any"
type InteractionFilter struct {
	CatID  valueobjects.CatID
	UserID valueobjects.UserID
}

// InteractionRepository is the append-only interaction log
type InteractionRepository interface {
	// Record appends the interaction, debits its cost from the user and
	// writes the cat, atomically. Returns the new yarn balance.
	Record(ctx context.Context, entry InteractionEntry) (int64, error)

	// LastN returns up to n records between the cat and the user, newest first
	LastN(ctx context.Context, cat valueobjects.CatID, user valueobjects.UserID, n int) ([]*entities.Interaction, error)

	// List returns matching records, oldest first
	List(ctx context.Context, filter InteractionFilter) ([]*entities.Interaction, error)

	// GetByID returns ErrInteractionNotFound when absent
	GetByID(ctx context.Context, id valueobjects.InteractionID) (*entities.Interaction, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
