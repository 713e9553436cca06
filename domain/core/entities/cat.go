package entities

import (
	"strings"
	"time"

	"catnook-backend/domain/config"
	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/domain/events"
	pkgerrors "catnook-backend/pkg/errors"
)

// CatState is derived from the stored fields, never stored itself
type CatState string

const (
	StateAdoptable CatState = "adoptable"
	StateAlive     CatState = "alive"
	StateDying     CatState = "dying"
	StateDead      CatState = "dead"
)

// Cat is the pet aggregate. Mood and patience are always kept inside the
// configured ranges, and once the death flag reaches the threshold the cat
// stays dead.
type Cat struct {
	id           valueobjects.CatID
	name         string
	skin         string
	personality  string
	avatar       string
	mood         int
	patience     int
	lastFeedDate *time.Time
	deathFlag    int
	alive        bool
	ownerID      *valueobjects.UserID
	version      int64
	createdAt    time.Time
	updatedAt    time.Time

	events []events.DomainEvent
}

// CatSnapshot is the flat, storage-facing form of a cat
type CatSnapshot struct {
	ID           valueobjects.CatID
	Name         string
	Skin         string
	Personality  string
	Avatar       string
	Mood         int
	Patience     int
	LastFeedDate *time.Time
	DeathFlag    int
	IsAlive      bool
	OwnerID      *valueobjects.UserID
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewCat creates an adoptable cat with the configured starting vitals. The
// id is assigned by the store on insert.
func NewCat(name, skin, personality string, rules *config.EconomyConfig, now time.Time) (*Cat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.ErrInvalidInput.With("field", "name")
	}
	if len(name) > 64 {
		return nil, pkgerrors.ErrInvalidInput.With("field", "name").WithDetail("max_length", 64)
	}

	c := &Cat{
		name:        name,
		skin:        strings.TrimSpace(skin),
		personality: strings.TrimSpace(personality),
		mood:        rules.DefaultMood,
		patience:    rules.DefaultPatience,
		alive:       true,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}
	c.refreshAvatar(rules)
	return c, nil
}

// ReconstructCat rebuilds a cat from storage without re-running creation rules
func ReconstructCat(s CatSnapshot) *Cat {
	return &Cat{
		id:           s.ID,
		name:         s.Name,
		skin:         s.Skin,
		personality:  s.Personality,
		avatar:       s.Avatar,
		mood:         s.Mood,
		patience:     s.Patience,
		lastFeedDate: s.LastFeedDate,
		deathFlag:    s.DeathFlag,
		alive:        s.IsAlive,
		ownerID:      s.OwnerID,
		version:      s.Version,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
	}
}

// Snapshot flattens the cat for persistence
func (c *Cat) Snapshot() CatSnapshot {
	return CatSnapshot{
		ID:           c.id,
		Name:         c.name,
		Skin:         c.skin,
		Personality:  c.personality,
		Avatar:       c.avatar,
		Mood:         c.mood,
		Patience:     c.patience,
		LastFeedDate: c.lastFeedDate,
		DeathFlag:    c.deathFlag,
		IsAlive:      c.alive,
		OwnerID:      c.ownerID,
		Version:      c.version,
		CreatedAt:    c.createdAt,
		UpdatedAt:    c.updatedAt,
	}
}

// AssignID is called once by the store after insert
func (c *Cat) AssignID(id valueobjects.CatID) {
	if c.id.IsZero() {
		c.id = id
	}
}

func (c *Cat) ID() valueobjects.CatID { return c.id }
func (c *Cat) Name() string { return c.name }
func (c *Cat) Skin() string { return c.skin }
func (c *Cat) Personality() string { return c.personality }
func (c *Cat) Avatar() string { return c.avatar }
func (c *Cat) Mood() int { return c.mood }
func (c *Cat) Patience() int { return c.patience }
func (c *Cat) LastFeedDate() *time.Time { return c.lastFeedDate }
func (c *Cat) DeathFlag() int { return c.deathFlag }
func (c *Cat) IsAlive() bool { return c.alive }
func (c *Cat) OwnerID() *valueobjects.UserID { return c.ownerID }
func (c *Cat) Version() int64 { return c.version }
func (c *Cat) CreatedAt() time.Time { return c.createdAt }
func (c *Cat) UpdatedAt() time.Time { return c.updatedAt }

// IsOwnedBy reports whether user currently owns the cat
func (c *Cat) IsOwnedBy(user valueobjects.UserID) bool {
	return c.ownerID != nil && *c.ownerID == user
}

// CanBeTendedBy reports whether user may interact with or chat to the cat.
// Adoptable cats are open to everyone, owned cats only to their owner.
func (c *Cat) CanBeTendedBy(user valueobjects.UserID) bool {
	return c.ownerID == nil || *c.ownerID == user
}

// State derives the lifecycle state. Dying is cosmetic: it never blocks an
// operation, it only tells the client the cat needs care.
func (c *Cat) State(rules *config.EconomyConfig) CatState {
	switch {
	case !c.alive:
		return StateDead
	case c.ownerID == nil:
		return StateAdoptable
	case c.mood <= rules.DyingThreshold || c.patience <= rules.DyingThreshold:
		return StateDying
	default:
		return StateAlive
	}
}

// Adopt gives the cat its first owner. Vitals are left untouched.
func (c *Cat) Adopt(user valueobjects.UserID, now time.Time) error {
	if user.IsZero() {
		return pkgerrors.ErrUnauthenticated
	}
	if !c.alive {
		return pkgerrors.ErrCatDeceased.With("catId", int64(c.id))
	}
	if c.ownerID != nil {
		return pkgerrors.ErrAlreadyOwned.With("catId", int64(c.id))
	}

	owner := user
	c.ownerID = &owner
	c.touch(now)
	c.addEvent(events.NewCatAdopted(c.id, user, c.version, now))
	return nil
}

// Abandon returns the cat to the adoption pool
func (c *Cat) Abandon(user valueobjects.UserID, now time.Time) error {
	if !c.IsOwnedBy(user) {
		return pkgerrors.ErrNotCatOwner.With("catId", int64(c.id))
	}
	if !c.alive {
		return pkgerrors.ErrCatDeceased.With("catId", int64(c.id))
	}

	c.ownerID = nil
	c.touch(now)
	c.addEvent(events.NewCatAbandoned(c.id, user, c.version, now))
	return nil
}

// RegisterInteraction applies the side effects a priced interaction has on
// the cat itself: feeding refreshes lastFeedDate, and every interaction
// moves the version forward so a stale mood update can be detected.
func (c *Cat) RegisterInteraction(kind valueobjects.InteractionKind, at time.Time) {
	if kind.IsFeeding() {
		fed := at
		c.lastFeedDate = &fed
	}
	c.touch(at)
}

// ApplyVitals stores absolute mood and patience values from the
// conversation engine. Values are clamped, never rejected.
//
// Death rules: patience hitting its floor kills outright; mood at its floor
// adds a strike to the death flag and any better mood clears the strikes.
// A dead cat keeps its death flag and never comes back.
func (c *Cat) ApplyVitals(mood, patience int, kind valueobjects.InteractionKind, at time.Time, rules *config.EconomyConfig) {
	wasAlive := c.alive

	c.mood = rules.ClampMood(mood)
	c.patience = rules.ClampPatience(patience)
	if kind.IsFeeding() {
		fed := at
		c.lastFeedDate = &fed
	}

	if c.alive {
		switch {
		case c.patience <= rules.PatienceMin:
			c.deathFlag = rules.DeathFlagThreshold
		case c.mood <= rules.MoodMin:
			c.deathFlag++
		default:
			c.deathFlag = 0
		}
		c.alive = c.deathFlag < rules.DeathFlagThreshold
	}

	c.refreshAvatar(rules)
	c.touch(at)
	c.addEvent(events.NewCatMoodApplied(c.id, c.mood, c.patience, c.avatar, c.version, at))
	if wasAlive && !c.alive {
		c.addEvent(events.NewCatDied(c.id, c.deathFlag, c.version, at))
	}
}

// MoodBand is the 1-based avatar band for the current mood
func (c *Cat) MoodBand(rules *config.EconomyConfig) int {
	return valueobjects.MoodBand(c.mood, rules.MoodMin, rules.MoodMax, rules.AvatarBands)
}

func (c *Cat) refreshAvatar(rules *config.EconomyConfig) {
	c.avatar = valueobjects.Avatar(c.skin, c.MoodBand(rules))
}

func (c *Cat) touch(at time.Time) {
	c.version++
	c.updatedAt = at
}

// GetUncommittedEvents returns all uncommitted domain events
func (c *Cat) GetUncommittedEvents() []events.DomainEvent {
	return c.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (c *Cat) MarkEventsAsCommitted() {
	c.events = nil
}

func (c *Cat) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}
