package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"catnook-backend/application/dto"
	"catnook-backend/application/ports"
	"catnook-backend/application/queries"
	"catnook-backend/application/queries/bus"
	"catnook-backend/domain/config"
	"catnook-backend/domain/core/entities"
	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/infrastructure/persistence/memory"
	pkgerrors "catnook-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var start = time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	rules *config.EconomyConfig
	bus   *bus.QueryBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), rules: config.DefaultEconomyConfig()}
	cats, accounts, interactions := f.store.Cats(), f.store.Accounts(), f.store.Interactions()
	set := &Set{
		Interactions: NewInteractionQueryHandler(interactions, cats, accounts, f.rules, zap.NewNop()),
		Cats:         NewCatQueryHandler(cats, accounts, f.rules),
	}
	f.bus = bus.NewQueryBus()
	require.NoError(t, set.Register(f.bus))
	return f
}

func (f *fixture) account(t *testing.T, name string) valueobjects.UserID {
	t.Helper()
	acct, err := entities.NewAccount(name, name+"@example.com", 1000, start)
	require.NoError(t, err)
	require.NoError(t, f.store.Accounts().Create(context.Background(), acct))
	return acct.ID()
}

func (f *fixture) cat(t *testing.T, name string, owner valueobjects.UserID) valueobjects.CatID {
	t.Helper()
	ctx := context.Background()
	cat, err := entities.NewCat(name, "tabby", "lazy", f.rules, start)
	require.NoError(t, err)
	require.NoError(t, f.store.Cats().Create(ctx, cat))
	if owner != 0 {
		v := cat.Version()
		require.NoError(t, cat.Adopt(owner, start))
		require.NoError(t, f.store.Cats().Save(ctx, cat, v))
	}
	return cat.ID()
}

func (f *fixture) interact(t *testing.T, catID valueobjects.CatID, user valueobjects.UserID, kind string, at time.Time) {
	t.Helper()
	ctx := context.Background()
	cat, err := f.store.Cats().GetByID(ctx, catID)
	require.NoError(t, err)
	k := valueobjects.NewInteractionKind(kind)
	in, err := entities.NewInteraction(catID, user, k, "", f.rules, at)
	require.NoError(t, err)
	expected := cat.Version()
	cat.RegisterInteraction(k, at)
	_, err = f.store.Interactions().Record(ctx, ports.InteractionEntry{
		Interaction:        in,
		Cat:                cat,
		ExpectedCatVersion: expected,
	})
	require.NoError(t, err)
}

func (f *fixture) ask(q bus.Query) (interface{}, error) {
	return f.bus.Ask(context.Background(), q)
}

func TestLastInteractions(t *testing.T) {
	f := newFixture(t)
	user := f.account(t, "johndoe")
	visitor := f.account(t, "janedoe")
	cat := f.cat(t, "Miso", user)

	kinds := []string{"play", "feed", "gift", "play", "feed", "gift", "play"}
	for i, k := range kinds {
		f.interact(t, cat, user, k, start.Add(time.Duration(i)*time.Minute))
	}
	f.interact(t, cat, visitor, "gift", start.Add(time.Hour))

	t.Run("default is five, newest first", func(t *testing.T) {
		out, err := f.ask(queries.LastInteractionsQuery{UserID: user, CatID: cat})
		require.NoError(t, err)
		got := out.([]dto.InteractionSummary)
		require.Len(t, got, 5)
		assert.Equal(t, "play", got[0].InteractionType)
		assert.Equal(t, start.Add(6*time.Minute), got[0].InteractionDate)
		for i := 1; i < len(got); i++ {
			assert.True(t, got[i-1].InteractionDate.After(got[i].InteractionDate))
		}
	})

	t.Run("short history is not an error", func(t *testing.T) {
		out, err := f.ask(queries.LastInteractionsQuery{UserID: visitor, CatID: cat, N: 5})
		require.NoError(t, err)
		got := out.([]dto.InteractionSummary)
		require.Len(t, got, 1)
		assert.Equal(t, "gift", got[0].InteractionType)
	})

	t.Run("n above the cap is clamped", func(t *testing.T) {
		out, err := f.ask(queries.LastInteractionsQuery{UserID: user, CatID: cat, N: 10_000})
		require.NoError(t, err)
		assert.Len(t, out.([]dto.InteractionSummary), len(kinds))
	})

	t.Run("unknown cat", func(t *testing.T) {
		_, err := f.ask(queries.LastInteractionsQuery{UserID: user, CatID: 999})
		assert.ErrorIs(t, err, pkgerrors.ErrCatNotFound)
	})

	t.Run("no actor", func(t *testing.T) {
		_, err := f.ask(queries.LastInteractionsQuery{CatID: cat})
		assert.ErrorIs(t, err, pkgerrors.ErrUnauthenticated)
	})
}

func TestListInteractions(t *testing.T) {
	f := newFixture(t)
	john := f.account(t, "johndoe")
	jane := f.account(t, "janedoe")
	miso := f.cat(t, "Miso", john)
	tofu := f.cat(t, "Tofu", jane)

	f.interact(t, miso, john, "feed", start)
	f.interact(t, tofu, jane, "play", start.Add(time.Minute))
	f.interact(t, miso, jane, "gift", start.Add(2*time.Minute))

	out, err := f.ask(queries.ListInteractionsQuery{UserID: john})
	require.NoError(t, err)
	all := out.([]dto.InteractionView)
	require.Len(t, all, 3)
	assert.Equal(t, "feed", all[0].InteractionType)
	assert.Equal(t, "Miso", all[0].CatName)
	assert.Equal(t, "johndoe", all[0].Username)
	assert.Equal(t, "Tofu", all[1].CatName)
	assert.Equal(t, "janedoe", all[2].Username)
	assert.Equal(t, int64(30), all[2].Cost)

	out, err = f.ask(queries.ListInteractionsQuery{UserID: john, CatID: miso})
	require.NoError(t, err)
	assert.Len(t, out.([]dto.InteractionView), 2)

	out, err = f.ask(queries.ListInteractionsQuery{UserID: john, CatID: miso, FilterUserID: jane})
	require.NoError(t, err)
	require.Len(t, out.([]dto.InteractionView), 1)

	out, err = f.ask(queries.ListInteractionsQuery{UserID: john, CatID: 999})
	require.NoError(t, err)
	assert.Empty(t, out.([]dto.InteractionView))
}

func TestGetInteraction(t *testing.T) {
	f := newFixture(t)
	john := f.account(t, "johndoe")
	miso := f.cat(t, "Miso", john)
	f.interact(t, miso, john, "play", start)

	list, err := f.store.Interactions().List(context.Background(), ports.InteractionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	out, err := f.ask(queries.GetInteractionQuery{UserID: john, InteractionID: list[0].ID()})
	require.NoError(t, err)
	view := out.(*dto.InteractionView)
	assert.Equal(t, "play", view.InteractionType)
	assert.Equal(t, "Miso", view.CatName)
	assert.Equal(t, int64(10), view.Cost)

	_, err = f.ask(queries.GetInteractionQuery{UserID: john, InteractionID: 404})
	assert.ErrorIs(t, err, pkgerrors.ErrInteractionNotFound)

	_, err = f.ask(queries.GetInteractionQuery{UserID: john})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestCatQueries(t *testing.T) {
	f := newFixture(t)
	john := f.account(t, "johndoe")
	owned := f.cat(t, "Miso", john)
	free := f.cat(t, "Tofu", 0)

	out, err := f.ask(queries.GetCatQuery{CatID: owned})
	require.NoError(t, err)
	cat := out.(*dto.CatView)
	assert.Equal(t, "Miso", cat.Name)
	require.NotNil(t, cat.OwnerID)
	assert.Equal(t, int64(john), *cat.OwnerID)
	assert.True(t, cat.IsAlive)

	out, err = f.ask(queries.ListAdoptableCatsQuery{})
	require.NoError(t, err)
	adoptable := out.([]dto.CatView)
	require.Len(t, adoptable, 1)
	assert.Equal(t, int64(free), adoptable[0].ID)
	assert.Nil(t, adoptable[0].OwnerID)

	out, err = f.ask(queries.ListOwnedCatsQuery{UserID: john})
	require.NoError(t, err)
	mine := out.([]dto.CatView)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(owned), mine[0].ID)

	_, err = f.ask(queries.GetCatQuery{CatID: 999})
	assert.ErrorIs(t, err, pkgerrors.ErrCatNotFound)
	_, err = f.ask(queries.GetCatQuery{})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestGetAccount(t *testing.T) {
	f := newFixture(t)
	john := f.account(t, "johndoe")

	out, err := f.ask(queries.GetAccountQuery{UserID: john})
	require.NoError(t, err)
	acct := out.(*dto.AccountView)
	assert.Equal(t, "johndoe", acct.Username)
	assert.Equal(t, int64(1000), acct.Yarn)
	assert.Nil(t, acct.LastLoginDate)

	_, err = f.ask(queries.GetAccountQuery{UserID: 77})
	assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
}

type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
	timed  []string
}

func (m *recordingMetrics) StartTimer(metric, label string) bus.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timed = append(m.timed, metric+"/"+label)
	return stopFunc(func() {})
}

func (m *recordingMetrics) Increment(metric, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[metric+"/"+label]++
}

type stopFunc func()

func (s stopFunc) Stop() { s() }

func TestMetricsMiddleware(t *testing.T) {
	store := memory.NewStore()
	rules := config.DefaultEconomyConfig()
	metrics := &recordingMetrics{counts: map[string]int{}}

	b := bus.NewQueryBus()
	b.Use(bus.NewMetricsMiddleware(metrics).Wrap)
	set := &Set{
		Interactions: NewInteractionQueryHandler(store.Interactions(), store.Cats(), store.Accounts(), rules, zap.NewNop()),
		Cats:         NewCatQueryHandler(store.Cats(), store.Accounts(), rules),
	}
	require.NoError(t, set.Register(b))

	_, err := b.Ask(context.Background(), queries.ListAdoptableCatsQuery{})
	require.NoError(t, err)
	_, err = b.Ask(context.Background(), queries.GetCatQuery{CatID: 5})
	require.Error(t, err)

	assert.Equal(t, 1, metrics.counts["query_success/ListAdoptableCatsQuery"])
	assert.Equal(t, 1, metrics.counts["query_misses/GetCatQuery"], "a missing cat is a miss")
	assert.Zero(t, metrics.counts["query_errors/GetCatQuery"])
	assert.Equal(t, 1, metrics.counts["query_count/GetCatQuery"])
	assert.Contains(t, metrics.timed, "query_duration/ListAdoptableCatsQuery")
}

func TestRegisterTwiceFails(t *testing.T) {
	f := newFixture(t)
	err := f.bus.Register(queries.GetCatQuery{}, bus.QueryHandlerFunc(func(context.Context, bus.Query) (interface{}, error) {
		return nil, nil
	}))
	assert.Error(t, err)
}

func TestSlowQueryLogger(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := bus.NewQueryBus(bus.SlowQueryLogger(zap.New(core), 20*time.Millisecond))
	require.NoError(t, b.Register(queries.GetCatQuery{}, bus.QueryHandlerFunc(func(_ context.Context, q bus.Query) (interface{}, error) {
		switch q.(queries.GetCatQuery).CatID {
		case 1:
			time.Sleep(30 * time.Millisecond)
			return "ok", nil
		case 2:
			return nil, pkgerrors.ErrCatNotFound
		default:
			return nil, errors.New("table offline")
		}
	})))

	for _, id := range []valueobjects.CatID{1, 2, 3} {
		_, _ = b.Ask(context.Background(), queries.GetCatQuery{CatID: id})
	}

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Slow query", logs.All()[0].Message)
	assert.Equal(t, "Query failed", logs.All()[1].Message)
}
