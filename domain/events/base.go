package events

import (
	"time"

	"catnook-backend/domain/core/valueobjects"
)

// DomainEvent is something that already happened to an aggregate
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int64
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int64     `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int64       { return e.Version }

// Source tags every event this service emits
const Source = "catnook.backend"

const (
	TypeCatCreated          = "cat.created"
	TypeCatAdopted          = "cat.adopted"
	TypeCatAbandoned        = "cat.abandoned"
	TypeCatMoodApplied      = "cat.mood_applied"
	TypeCatDied             = "cat.died"
	TypeInteractionRecorded = "interaction.recorded"
	TypeAbsenceBonusAwarded = "account.absence_bonus_awarded"
)

func catBase(id valueobjects.CatID, eventType string, version int64, at time.Time) BaseEvent {
	return BaseEvent{AggregateID: "cat#" + id.String(), EventType: eventType, Timestamp: at, Version: version}
}

// CatCreated is raised when a cat joins the adoption pool
type CatCreated struct {
	BaseEvent
	CatID valueobjects.CatID `json:"cat_id"`
	Name  string             `json:"name"`
}

func NewCatCreated(id valueobjects.CatID, name string, at time.Time) CatCreated {
	return CatCreated{BaseEvent: catBase(id, TypeCatCreated, 1, at), CatID: id, Name: name}
}

// CatAdopted is raised when a cat gains an owner
type CatAdopted struct {
	BaseEvent
	CatID  valueobjects.CatID  `json:"cat_id"`
	UserID valueobjects.UserID `json:"user_id"`
}

func NewCatAdopted(id valueobjects.CatID, user valueobjects.UserID, version int64, at time.Time) CatAdopted {
	return CatAdopted{BaseEvent: catBase(id, TypeCatAdopted, version, at), CatID: id, UserID: user}
}

// CatAbandoned is raised when an owner gives a cat back
type CatAbandoned struct {
	BaseEvent
	CatID  valueobjects.CatID  `json:"cat_id"`
	UserID valueobjects.UserID `json:"user_id"`
}

func NewCatAbandoned(id valueobjects.CatID, user valueobjects.UserID, version int64, at time.Time) CatAbandoned {
	return CatAbandoned{BaseEvent: catBase(id, TypeCatAbandoned, version, at), CatID: id, UserID: user}
}

// CatMoodApplied carries the vitals after a conversational update
type CatMoodApplied struct {
	BaseEvent
	CatID    valueobjects.CatID `json:"cat_id"`
	Mood     int                `json:"mood"`
	Patience int                `json:"patience"`
	Avatar   string             `json:"avatar"`
}

func NewCatMoodApplied(id valueobjects.CatID, mood, patience int, avatar string, version int64, at time.Time) CatMoodApplied {
	return CatMoodApplied{
		BaseEvent: catBase(id, TypeCatMoodApplied, version, at),
		CatID:     id,
		Mood:      mood,
		Patience:  patience,
		Avatar:    avatar,
	}
}

// CatDied is raised once, on the transition into the terminal state
type CatDied struct {
	BaseEvent
	CatID     valueobjects.CatID `json:"cat_id"`
	DeathFlag int                `json:"death_flag"`
}

func NewCatDied(id valueobjects.CatID, deathFlag int, version int64, at time.Time) CatDied {
	return CatDied{BaseEvent: catBase(id, TypeCatDied, version, at), CatID: id, DeathFlag: deathFlag}
}

// InteractionRecorded is raised after a priced interaction commits
type InteractionRecorded struct {
	BaseEvent
	InteractionID valueobjects.InteractionID   `json:"interaction_id"`
	CatID         valueobjects.CatID           `json:"cat_id"`
	UserID        valueobjects.UserID          `json:"user_id"`
	Kind          valueobjects.InteractionKind `json:"kind"`
	Cost          int64                        `json:"cost"`
	Balance       int64                        `json:"balance"`
}

func NewInteractionRecorded(
	id valueobjects.InteractionID,
	cat valueobjects.CatID,
	user valueobjects.UserID,
	kind valueobjects.InteractionKind,
	cost, balance int64,
	at time.Time,
) InteractionRecorded {
	return InteractionRecorded{
		BaseEvent: BaseEvent{
			AggregateID: "interaction#" + id.String(),
			EventType:   TypeInteractionRecorded,
			Timestamp:   at,
			Version:     1,
		},
		InteractionID: id,
		CatID:         cat,
		UserID:        user,
		Kind:          kind,
		Cost:          cost,
		Balance:       balance,
	}
}

// AbsenceBonusAwarded is raised when a login credits yarn
type AbsenceBonusAwarded struct {
	BaseEvent
	UserID  valueobjects.UserID `json:"user_id"`
	Hours   int64               `json:"hours"`
	Bonus   int64               `json:"bonus"`
	Balance int64               `json:"balance"`
}

func NewAbsenceBonusAwarded(user valueobjects.UserID, hours, bonus, balance int64, at time.Time) AbsenceBonusAwarded {
	return AbsenceBonusAwarded{
		BaseEvent: BaseEvent{
			AggregateID: "user#" + user.String(),
			EventType:   TypeAbsenceBonusAwarded,
			Timestamp:   at,
			Version:     1,
		},
		UserID:  user,
		Hours:   hours,
		Bonus:   bonus,
		Balance: balance,
	}
}
