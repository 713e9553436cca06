package entities

import (
	"strings"
	"time"

	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
)

const RoleAdmin = "admin"

// Account is a player with a yarn balance. The balance only ever changes
// through the ledger operations of the account store, so the entity itself
// exposes no setters for it.
type Account struct {
	id            valueobjects.UserID
	username      string
	email         string
	role          string
	bio           string
	yarn          int64
	lastLoginDate *time.Time
	createdAt     time.Time
}

// AccountSnapshot is the flat, storage-facing form of an account
type AccountSnapshot struct {
	ID            valueobjects.UserID
	Username      string
	Email         string
	Role          string
	Bio           string
	Yarn          int64
	LastLoginDate *time.Time
	CreatedAt     time.Time
}

// NewAccount registers a player with an opening balance
func NewAccount(username, email string, openingYarn int64, now time.Time) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, pkgerrors.ErrInvalidInput.With("field", "username")
	}
	if openingYarn < 0 {
		return nil, pkgerrors.ErrInvalidInput.With("field", "yarn")
	}
	return &Account{
		username:  username,
		email:     strings.TrimSpace(email),
		role:      "user",
		yarn:      openingYarn,
		createdAt: now,
	}, nil
}

// ReconstructAccount rebuilds an account from storage
func ReconstructAccount(s AccountSnapshot) *Account {
	return &Account{
		id:            s.ID,
		username:      s.Username,
		email:         s.Email,
		role:          s.Role,
		bio:           s.Bio,
		yarn:          s.Yarn,
		lastLoginDate: s.LastLoginDate,
		createdAt:     s.CreatedAt,
	}
}

func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		ID:            a.id,
		Username:      a.username,
		Email:         a.email,
		Role:          a.role,
		Bio:           a.bio,
		Yarn:          a.yarn,
		LastLoginDate: a.lastLoginDate,
		CreatedAt:     a.createdAt,
	}
}

// AssignID is called once by the store after insert
func (a *Account) AssignID(id valueobjects.UserID) {
	if a.id.IsZero() {
		a.id = id
	}
}

// PromoteToAdmin grants the admin role; used by seeding only
func (a *Account) PromoteToAdmin() { a.role = RoleAdmin }

// SetBio replaces the free-form profile text
func (a *Account) SetBio(bio string) { a.bio = strings.TrimSpace(bio) }

func (a *Account) ID() valueobjects.UserID { return a.id }
func (a *Account) Username() string { return a.username }
func (a *Account) Email() string { return a.email }
func (a *Account) Role() string { return a.role }
func (a *Account) Bio() string { return a.bio }
func (a *Account) Yarn() int64 { return a.yarn }
func (a *Account) LastLoginDate() *time.Time { return a.lastLoginDate }
func (a *Account) CreatedAt() time.Time { return a.createdAt }
func (a *Account) IsAdmin() bool { return a.role == RoleAdmin }

// CanAfford reports whether a debit of cost is allowed under the policy
func (a *Account) CanAfford(cost int64, allowNegative bool) bool {
	return allowNegative || a.yarn >= cost
}
