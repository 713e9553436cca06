// Package memory is an in-process store used for local runs and tests. A
// single mutex guards all three tables, which makes Record trivially atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"catnook-backend/application/ports"
	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"
)

type state struct {
	mu sync.RWMutex

	cats         map[valueobjects.CatID]entities.CatSnapshot
	accounts     map[valueobjects.UserID]entities.AccountSnapshot
	interactions []entities.InteractionSnapshot

	nextCat         int64
	nextUser        int64
	nextInteraction int64
}

// Store bundles the three repositories over one shared state
type Store struct {
	st *state
}

func NewStore() *Store {
	return &Store{st: &state{
		cats:     make(map[valueobjects.CatID]entities.CatSnapshot),
		accounts: make(map[valueobjects.UserID]entities.AccountSnapshot),
	}}
}

func (s *Store) Cats() ports.CatRepository { return &CatRepository{st: s.st} }
func (s *Store) Accounts() ports.AccountRepository { return &AccountRepository{st: s.st} }
func (s *Store) Interactions() ports.InteractionRepository { return &InteractionRepository{st: s.st} }

// CatRepository implements ports.CatRepository
type CatRepository struct{ st *state }

func (r *CatRepository) Create(ctx context.Context, cat *entities.Cat) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	r.st.nextCat++
	cat.AssignID(valueobjects.CatID(r.st.nextCat))
	r.st.cats[cat.ID()] = cat.Snapshot()
	return nil
}

func (r *CatRepository) GetByID(ctx context.Context, id valueobjects.CatID) (*entities.Cat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	snap, ok := r.st.cats[id]
	if !ok {
		return nil, pkgerrors.ErrCatNotFound.With("catId", int64(id))
	}
	return entities.ReconstructCat(snap), nil
}

func (r *CatRepository) Save(ctx context.Context, cat *entities.Cat, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.saveCatLocked(cat, expectedVersion)
}

func (st *state) saveCatLocked(cat *entities.Cat, expectedVersion int64) error {
	cur, ok := st.cats[cat.ID()]
	if !ok {
		return pkgerrors.ErrCatNotFound.With("catId", int64(cat.ID()))
	}
	if cur.Version != expectedVersion {
		return pkgerrors.ErrConcurrentModification.
			With("catId", int64(cat.ID())).
			WithDetail("expectedVersion", expectedVersion).
			WithDetail("actualVersion", cur.Version)
	}
	st.cats[cat.ID()] = cat.Snapshot()
	return nil
}

func (r *CatRepository) ListAdoptable(ctx context.Context) ([]*entities.Cat, error) {
	return r.list(ctx, func(s entities.CatSnapshot) bool {
		return s.OwnerID == nil && s.IsAlive
	})
}

func (r *CatRepository) ListByOwner(ctx context.Context, owner valueobjects.UserID) ([]*entities.Cat, error) {
	return r.list(ctx, func(s entities.CatSnapshot) bool {
		return s.OwnerID != nil && *s.OwnerID == owner
	})
}

func (r *CatRepository) list(ctx context.Context, keep func(entities.CatSnapshot) bool) ([]*entities.Cat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	out := make([]*entities.Cat, 0)
	for _, snap := range r.st.cats {
		if keep(snap) {
			out = append(out, entities.ReconstructCat(snap))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// AccountRepository implements ports.AccountRepository
type AccountRepository struct{ st *state }

func (r *AccountRepository) Create(ctx context.Context, account *entities.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, a := range r.st.accounts {
		if strings.EqualFold(a.Username, account.Username()) {
			return pkgerrors.NewDomainError(pkgerrors.DomainConflictError, "USERNAME_TAKEN", "Username is already registered").
				WithDetail("username", account.Username())
		}
	}
	r.st.nextUser++
	account.AssignID(valueobjects.UserID(r.st.nextUser))
	r.st.accounts[account.ID()] = account.Snapshot()
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	snap, ok := r.st.accounts[id]
	if !ok {
		return nil, pkgerrors.ErrUserNotFound.With("userId", int64(id))
	}
	return entities.ReconstructAccount(snap), nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*entities.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	for _, a := range r.st.accounts {
		if strings.EqualFold(a.Username, username) {
			return entities.ReconstructAccount(a), nil
		}
	}
	return nil, pkgerrors.ErrUserNotFound.With("username", username)
}

func (r *AccountRepository) AdjustYarn(ctx context.Context, id valueobjects.UserID, delta int64, floor *int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.adjustYarnLocked(id, delta, floor)
}

func (st *state) adjustYarnLocked(id valueobjects.UserID, delta int64, floor *int64) (int64, error) {
	acct, ok := st.accounts[id]
	if !ok {
		return 0, pkgerrors.ErrUserNotFound.With("userId", int64(id))
	}
	next := acct.Yarn + delta
	if floor != nil && next < *floor {
		return acct.Yarn, pkgerrors.ErrInsufficientYarn.
			With("balance", acct.Yarn).
			WithDetail("required", -delta)
	}
	acct.Yarn = next
	st.accounts[id] = acct
	return next, nil
}

func (r *AccountRepository) RecordLogin(ctx context.Context, id valueobjects.UserID, expectedPrevious *time.Time, at time.Time, bonus int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	acct, ok := r.st.accounts[id]
	if !ok {
		return 0, pkgerrors.ErrUserNotFound.With("userId", int64(id))
	}
	if !sameInstant(acct.LastLoginDate, expectedPrevious) {
		return acct.Yarn, pkgerrors.ErrConcurrentModification.With("userId", int64(id))
	}
	stamp := at
	acct.LastLoginDate = &stamp
	acct.Yarn += bonus
	r.st.accounts[id] = acct
	return acct.Yarn, nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// InteractionRepository implements ports.InteractionRepository
type InteractionRepository struct{ st *state }

func (r *InteractionRepository) Record(ctx context.Context, entry ports.InteractionEntry) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	in := entry.Interaction
	cur, ok := r.st.cats[entry.Cat.ID()]
	if !ok {
		return 0, pkgerrors.ErrCatNotFound.With("catId", int64(entry.Cat.ID()))
	}
	if cur.Version != entry.ExpectedCatVersion {
		return 0, pkgerrors.ErrConcurrentModification.With("catId", int64(entry.Cat.ID()))
	}

	var floor *int64
	if !entry.AllowNegative {
		zero := int64(0)
		floor = &zero
	}
	balance, err := r.st.adjustYarnLocked(in.UserID(), -in.Cost(), floor)
	if err != nil {
		return 0, err
	}

	// nothing below can fail, so the debit above is never orphaned
	r.st.cats[entry.Cat.ID()] = entry.Cat.Snapshot()
	r.st.nextInteraction++
	in.AssignID(valueobjects.InteractionID(r.st.nextInteraction))
	r.st.interactions = append(r.st.interactions, in.Snapshot())
	return balance, nil
}

func (r *InteractionRepository) LastN(ctx context.Context, cat valueobjects.CatID, user valueobjects.UserID, n int) ([]*entities.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	out := make([]*entities.Interaction, 0, max(n, 0))
	for i := len(r.st.interactions) - 1; i >= 0 && len(out) < n; i-- {
		if snap := r.st.interactions[i]; snap.CatID == cat && snap.UserID == user {
			out = append(out, entities.ReconstructInteraction(snap))
		}
	}
	return out, nil
}

func (r *InteractionRepository) List(ctx context.Context, filter ports.InteractionFilter) ([]*entities.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	out := make([]*entities.Interaction, 0)
	for _, snap := range r.st.interactions {
		if filter.CatID != 0 && snap.CatID != filter.CatID {
			continue
		}
		if filter.UserID != 0 && snap.UserID != filter.UserID {
			continue
		}
		out = append(out, entities.ReconstructInteraction(snap))
	}
	return out, nil
}

func (r *InteractionRepository) GetByID(ctx context.Context, id valueobjects.InteractionID) (*entities.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	for _, snap := range r.st.interactions {
		if snap.ID == id {
			return entities.ReconstructInteraction(snap), nil
		}
	}
	return nil, pkgerrors.ErrInteractionNotFound.With("interactionId", int64(id))
}
