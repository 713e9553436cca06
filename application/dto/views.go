// Package dto holds the JSON projections commands and queries hand back
// to the transport layer.
package dto

import (
	"time"

	"catnook-backend/domain/config"
	"catnook-backend/domain/core/entities"
)

// CatView is the public projection of a cat
type CatView struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Skin         string     `json:"skin"`
	Personality  string     `json:"personality,omitempty"`
	Avatar       string     `json:"avatar"`
	Mood         int        `json:"mood"`
	Patience     int        `json:"patience"`
	LastFeedDate *time.Time `json:"lastFeedDate"`
	IsAlive      bool       `json:"isAlive"`
	DeathFlag    int        `json:"deathFlag"`
	State        string     `json:"state"`
	OwnerID      *int64     `json:"ownerId"`
	Version      int64      `json:"version"`
}

func NewCatView(cat *entities.Cat, rules *config.EconomyConfig) CatView {
	v := CatView{
		ID:           int64(cat.ID()),
		Name:         cat.Name(),
		Skin:         cat.Skin(),
		Personality:  cat.Personality(),
		Avatar:       cat.Avatar(),
		Mood:         cat.Mood(),
		Patience:     cat.Patience(),
		LastFeedDate: cat.LastFeedDate(),
		IsAlive:      cat.IsAlive(),
		DeathFlag:    cat.DeathFlag(),
		State:        string(cat.State(rules)),
		Version:      cat.Version(),
	}
	if owner := cat.OwnerID(); owner != nil {
		id := int64(*owner)
		v.OwnerID = &id
	}
	return v
}

func NewCatViews(cats []*entities.Cat, rules *config.EconomyConfig) []CatView {
	out := make([]CatView, 0, len(cats))
	for _, c := range cats {
		out = append(out, NewCatView(c, rules))
	}
	return out
}

// InteractionView is one ledger line. CatName and Username are filled in
// by listings only.
type InteractionView struct {
	ID              int64     `json:"id"`
	InteractionType string    `json:"interactionType"`
	InteractionDate time.Time `json:"interactionDate"`
	CatID           int64     `json:"catId"`
	UserID          int64     `json:"userId"`
	Description     string    `json:"description"`
	Cost            int64     `json:"cost"`
	CatName         string    `json:"catName,omitempty"`
	Username        string    `json:"username,omitempty"`
}

func NewInteractionView(in *entities.Interaction) InteractionView {
	return InteractionView{
		ID:              int64(in.ID()),
		InteractionType: in.Kind().String(),
		InteractionDate: in.Date(),
		CatID:           int64(in.CatID()),
		UserID:          int64(in.UserID()),
		Description:     in.Description(),
		Cost:            in.Cost(),
	}
}

// InteractionSummary is the short form returned by the history endpoint
type InteractionSummary struct {
	InteractionType string    `json:"interactionType"`
	InteractionDate time.Time `json:"interactionDate"`
}

// RecordedInteraction is the result of a priced interaction
type RecordedInteraction struct {
	InteractionView
	CurrentYarn int64 `json:"currentYarn"`
	CatVersion  int64 `json:"catVersion"`
}

// AccountView is the actor's own profile
type AccountView struct {
	ID            int64      `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	Bio           string     `json:"bio,omitempty"`
	Yarn          int64      `json:"yarn"`
	LastLoginDate *time.Time `json:"lastLoginDate"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func NewAccountView(a *entities.Account) AccountView {
	return AccountView{
		ID:            int64(a.ID()),
		Username:      a.Username(),
		Email:         a.Email(),
		Role:          a.Role(),
		Bio:           a.Bio(),
		Yarn:          a.Yarn(),
		LastLoginDate: a.LastLoginDate(),
		CreatedAt:     a.CreatedAt(),
	}
}

// LoginResult reports what a login earned
type LoginResult struct {
	LastLoginDate     time.Time  `json:"lastLoginDate"`
	PreviousLoginDate *time.Time `json:"previousLoginDate"`
	BonusAwarded      int64      `json:"bonusAwarded"`
	CurrentYarn       int64      `json:"currentYarn"`
}

// ChatResult is the cat's answer plus its state after the round
type ChatResult struct {
	Reply       string               `json:"reply"`
	Cat         CatView              `json:"cat"`
	Interaction *RecordedInteraction `json:"interaction,omitempty"`
}
