// Package storetest holds the behavioral contract every store driver must
// pass. Driver packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catnook-backend/application/ports"
	"catnook-backend/domain/config"
	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Repos is one freshly opened, empty store
type Repos struct {
	Cats         ports.CatRepository
	Accounts     ports.AccountRepository
	Interactions ports.InteractionRepository
}

// Factory opens an empty store for one subtest
type Factory func(t *testing.T) Repos

var base = time.Date(2026, time.April, 10, 8, 0, 0, 0, time.UTC)

// Run exercises the full repository contract against a driver
func Run(t *testing.T, open Factory) {
	t.Run("cat create and get", func(t *testing.T) { testCatCreateGet(t, open(t)) })
	t.Run("cat save is compare and swap", func(t *testing.T) { testCatSaveCAS(t, open(t)) })
	t.Run("cat listings", func(t *testing.T) { testCatListings(t, open(t)) })
	t.Run("account yarn floor", func(t *testing.T) { testAdjustYarn(t, open(t)) })
	t.Run("account yarn concurrent increments", func(t *testing.T) { testAdjustYarnConcurrent(t, open(t)) })
	t.Run("account login compare and swap", func(t *testing.T) { testRecordLogin(t, open(t)) })
	t.Run("record interaction is atomic", func(t *testing.T) { testRecordAtomic(t, open(t)) })
	t.Run("record interaction permissive yarn", func(t *testing.T) { testRecordPermissive(t, open(t)) })
	t.Run("interaction history", func(t *testing.T) { testHistory(t, open(t)) })
}

func mustAccount(t *testing.T, r Repos, name string, yarn int64) *entities.Account {
	t.Helper()
	acct, err := entities.NewAccount(name, name+"@example.com", yarn, base)
	require.NoError(t, err)
	require.NoError(t, r.Accounts.Create(context.Background(), acct))
	require.False(t, acct.ID().IsZero())
	return acct
}

func mustCat(t *testing.T, r Repos, name string, owner valueobjects.UserID) *entities.Cat {
	t.Helper()
	ctx := context.Background()
	cat, err := entities.NewCat(name, "tabby", "curious", config.DefaultEconomyConfig(), base)
	require.NoError(t, err)
	require.NoError(t, r.Cats.Create(ctx, cat))
	require.False(t, cat.ID().IsZero())
	if owner != 0 {
		v := cat.Version()
		require.NoError(t, cat.Adopt(owner, base))
		require.NoError(t, r.Cats.Save(ctx, cat, v))
	}
	return cat
}

func testCatCreateGet(t *testing.T, r Repos) {
	ctx := context.Background()
	cat := mustCat(t, r, "Miso", 0)

	got, err := r.Cats.GetByID(ctx, cat.ID())
	require.NoError(t, err)
	assert.Equal(t, "Miso", got.Name())
	assert.Equal(t, cat.Mood(), got.Mood())
	assert.Equal(t, cat.Avatar(), got.Avatar())
	assert.Equal(t, cat.Version(), got.Version())
	assert.True(t, got.IsAlive())
	assert.Nil(t, got.OwnerID())

	_, err = r.Cats.GetByID(ctx, cat.ID()+1000)
	assert.True(t, errors.Is(err, pkgerrors.ErrCatNotFound))
}

func testCatSaveCAS(t *testing.T, r Repos) {
	ctx := context.Background()
	rules := config.DefaultEconomyConfig()
	owner := mustAccount(t, r, "owner", 100)
	cat := mustCat(t, r, "Pip", owner.ID())

	a, err := r.Cats.GetByID(ctx, cat.ID())
	require.NoError(t, err)
	b, err := r.Cats.GetByID(ctx, cat.ID())
	require.NoError(t, err)

	va := a.Version()
	a.ApplyVitals(3, 9, valueobjects.KindFeed, base.Add(time.Minute), rules)
	require.NoError(t, r.Cats.Save(ctx, a, va))

	vb := b.Version()
	b.ApplyVitals(9, 9, "", base.Add(2*time.Minute), rules)
	err = r.Cats.Save(ctx, b, vb)
	assert.True(t, errors.Is(err, pkgerrors.ErrConcurrentModification))

	got, err := r.Cats.GetByID(ctx, cat.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, got.Mood())
	require.NotNil(t, got.LastFeedDate())
	assert.True(t, got.LastFeedDate().Equal(base.Add(time.Minute)))
	require.NotNil(t, got.OwnerID())
	assert.Equal(t, owner.ID(), *got.OwnerID())
}

func testCatListings(t *testing.T, r Repos) {
	ctx := context.Background()
	rules := config.DefaultEconomyConfig()
	owner := mustAccount(t, r, "owner", 100)

	free := mustCat(t, r, "Free", 0)
	mine := mustCat(t, r, "Mine", owner.ID())
	dead := mustCat(t, r, "Gone", owner.ID())
	v := dead.Version()
	dead.ApplyVitals(5, rules.PatienceMin, "", base, rules)
	require.NoError(t, r.Cats.Save(ctx, dead, v))

	adoptable, err := r.Cats.ListAdoptable(ctx)
	require.NoError(t, err)
	require.Len(t, adoptable, 1)
	assert.Equal(t, free.ID(), adoptable[0].ID())

	owned, err := r.Cats.ListByOwner(ctx, owner.ID())
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, mine.ID(), owned[0].ID())
	assert.False(t, owned[1].IsAlive())
}

func testAdjustYarn(t *testing.T, r Repos) {
	ctx := context.Background()
	acct := mustAccount(t, r, "saver", 25)
	zero := int64(0)

	bal, err := r.Accounts.AdjustYarn(ctx, acct.ID(), -20, &zero)
	require.NoError(t, err)
	assert.Equal(t, int64(5), bal)

	_, err = r.Accounts.AdjustYarn(ctx, acct.ID(), -10, &zero)
	assert.True(t, errors.Is(err, pkgerrors.ErrInsufficientYarn))

	bal, err = r.Accounts.AdjustYarn(ctx, acct.ID(), -10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), bal)

	_, err = r.Accounts.AdjustYarn(ctx, 9999, 1, nil)
	assert.True(t, errors.Is(err, pkgerrors.ErrUserNotFound))
}

func testAdjustYarnConcurrent(t *testing.T, r Repos) {
	ctx := context.Background()
	acct := mustAccount(t, r, "busy", 0)

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Accounts.AdjustYarn(ctx, acct.ID(), 3, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.Accounts.GetByID(ctx, acct.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(3*n), got.Yarn())
}

func testRecordLogin(t *testing.T, r Repos) {
	ctx := context.Background()
	acct := mustAccount(t, r, "wanderer", 500)

	first := base
	bal, err := r.Accounts.RecordLogin(ctx, acct.ID(), nil, first, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal)

	// stale expectation loses
	_, err = r.Accounts.RecordLogin(ctx, acct.ID(), nil, first.Add(time.Hour), 150)
	assert.True(t, errors.Is(err, pkgerrors.ErrConcurrentModification))

	later := first.Add(20 * time.Hour)
	bal, err = r.Accounts.RecordLogin(ctx, acct.ID(), &first, later, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(650), bal)

	got, err := r.Accounts.GetByID(ctx, acct.ID())
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginDate())
	assert.True(t, got.LastLoginDate().Equal(later))
	assert.Equal(t, int64(650), got.Yarn())
}

func record(ctx context.Context, r Repos, cat valueobjects.CatID, user valueobjects.UserID, kind valueobjects.InteractionKind, at time.Time, allowNegative bool) (*entities.Interaction, int64, error) {
	rules := config.DefaultEconomyConfig()
	c, err := r.Cats.GetByID(ctx, cat)
	if err != nil {
		return nil, 0, err
	}
	in, err := entities.NewInteraction(cat, user, kind, "", rules, at)
	if err != nil {
		return nil, 0, err
	}
	expected := c.Version()
	c.RegisterInteraction(kind, at)
	bal, err := r.Interactions.Record(ctx, ports.InteractionEntry{
		Interaction:        in,
		Cat:                c,
		ExpectedCatVersion: expected,
		AllowNegative:      allowNegative,
	})
	return in, bal, err
}

func testRecordAtomic(t *testing.T, r Repos) {
	ctx := context.Background()
	user := mustAccount(t, r, "johndoe", 500)
	cat := mustCat(t, r, "Biscuit", user.ID())
	at := base.Add(time.Hour)

	in, bal, err := record(ctx, r, cat.ID(), user.ID(), valueobjects.KindFeed, at, false)
	require.NoError(t, err)
	assert.Equal(t, int64(480), bal)
	assert.Positive(t, int64(in.ID()))

	got, err := r.Cats.GetByID(ctx, cat.ID())
	require.NoError(t, err)
	require.NotNil(t, got.LastFeedDate())
	assert.True(t, got.LastFeedDate().Equal(at))

	stored, err := r.Interactions.GetByID(ctx, in.ID())
	require.NoError(t, err)
	assert.Equal(t, valueobjects.KindFeed, stored.Kind())
	assert.Equal(t, int64(20), stored.Cost())
	assert.True(t, stored.Date().Equal(at))

	// drain the balance, then an unaffordable interaction writes nothing
	_, err = r.Accounts.AdjustYarn(ctx, user.ID(), -470, nil)
	require.NoError(t, err)
	before, err := r.Cats.GetByID(ctx, cat.ID())
	require.NoError(t, err)

	_, _, err = record(ctx, r, cat.ID(), user.ID(), valueobjects.KindGift, at.Add(time.Minute), false)
	assert.True(t, errors.Is(err, pkgerrors.ErrInsufficientYarn))

	after, err := r.Cats.GetByID(ctx, cat.ID())
	require.NoError(t, err)
	assert.Equal(t, before.Version(), after.Version())
	acct, err := r.Accounts.GetByID(ctx, user.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(10), acct.Yarn())
	all, err := r.Interactions.List(ctx, ports.InteractionFilter{CatID: cat.ID()})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// stale cat version writes nothing either
	c, err := r.Cats.GetByID(ctx, cat.ID())
	require.NoError(t, err)
	in2, err := entities.NewInteraction(cat.ID(), user.ID(), valueobjects.KindPlay, "", config.DefaultEconomyConfig(), at)
	require.NoError(t, err)
	c.RegisterInteraction(valueobjects.KindPlay, at)
	_, err = r.Interactions.Record(ctx, ports.InteractionEntry{Interaction: in2, Cat: c, ExpectedCatVersion: c.Version() - 5})
	assert.True(t, errors.Is(err, pkgerrors.ErrConcurrentModification))
	acct, err = r.Accounts.GetByID(ctx, user.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(10), acct.Yarn())
}

func testRecordPermissive(t *testing.T, r Repos) {
	ctx := context.Background()
	user := mustAccount(t, r, "spender", 5)
	cat := mustCat(t, r, "Tofu", user.ID())

	_, bal, err := record(ctx, r, cat.ID(), user.ID(), valueobjects.KindGift, base, true)
	require.NoError(t, err)
	assert.Equal(t, int64(-25), bal)
}

func testHistory(t *testing.T, r Repos) {
	ctx := context.Background()
	user := mustAccount(t, r, "catlover99", 700)
	other := mustAccount(t, r, "janedoe", 1000)
	cat := mustCat(t, r, "Noodle", user.ID())
	cat2 := mustCat(t, r, "Mochi", other.ID())

	kinds := []valueobjects.InteractionKind{
		valueobjects.KindPlay, valueobjects.KindFeed, valueobjects.KindGift,
		valueobjects.KindPlay, valueobjects.KindFeed, valueobjects.KindGift, valueobjects.KindPlay,
	}
	for i, k := range kinds {
		_, _, err := record(ctx, r, cat.ID(), user.ID(), k, base.Add(time.Duration(i)*time.Minute), false)
		require.NoError(t, err)
	}
	_, _, err := record(ctx, r, cat2.ID(), other.ID(), valueobjects.KindGift, base, false)
	require.NoError(t, err)
	// a visitor on the same cat stays out of the owner's history
	_, _, err = record(ctx, r, cat.ID(), other.ID(), valueobjects.KindFeed, base.Add(time.Hour), false)
	require.NoError(t, err)

	last, err := r.Interactions.LastN(ctx, cat.ID(), user.ID(), 5)
	require.NoError(t, err)
	require.Len(t, last, 5)
	for i := 1; i < len(last); i++ {
		assert.True(t, last[i-1].Date().After(last[i].Date()), "newest first")
	}
	assert.Equal(t, valueobjects.KindPlay, last[0].Kind())
	for _, in := range last {
		assert.Equal(t, user.ID(), in.UserID())
	}

	visitor, err := r.Interactions.LastN(ctx, cat.ID(), other.ID(), 5)
	require.NoError(t, err)
	require.Len(t, visitor, 1)
	assert.Equal(t, valueobjects.KindFeed, visitor[0].Kind())

	short, err := r.Interactions.LastN(ctx, cat2.ID(), other.ID(), 5)
	require.NoError(t, err)
	assert.Len(t, short, 1)

	none, err := r.Interactions.LastN(ctx, cat.ID()+100, user.ID(), 5)
	require.NoError(t, err)
	assert.Empty(t, none)

	zero, err := r.Interactions.LastN(ctx, cat.ID(), user.ID(), 0)
	require.NoError(t, err)
	assert.Empty(t, zero)

	all, err := r.Interactions.List(ctx, ports.InteractionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, len(kinds)+2)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID(), all[i].ID(), "ids grow")
	}

	byUser, err := r.Interactions.List(ctx, ports.InteractionFilter{UserID: other.ID()})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	pair, err := r.Interactions.List(ctx, ports.InteractionFilter{CatID: cat.ID(), UserID: other.ID()})
	require.NoError(t, err)
	assert.Len(t, pair, 1)

	_, err = r.Interactions.GetByID(ctx, 99999)
	assert.True(t, errors.Is(err, pkgerrors.ErrInteractionNotFound))
}
