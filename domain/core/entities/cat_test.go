package entities

import (
	"errors"
	"testing"
	"time"

	"catnook-backend/domain/config"
	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/domain/events"
	pkgerrors "catnook-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func ownedCat(t *testing.T, rules *config.EconomyConfig) *Cat {
	t.Helper()
	cat, err := NewCat("Miso", "tabby", "aloof", rules, t0)
	require.NoError(t, err)
	cat.AssignID(1)
	require.NoError(t, cat.Adopt(10, t0))
	cat.MarkEventsAsCommitted()
	return cat
}

func TestNewCat(t *testing.T) {
	rules := config.DefaultEconomyConfig()

	cat, err := NewCat("  Miso ", "tabby", "aloof", rules, t0)
	require.NoError(t, err)

	assert.Equal(t, "Miso", cat.Name())
	assert.Equal(t, rules.DefaultMood, cat.Mood())
	assert.Equal(t, rules.DefaultPatience, cat.Patience())
	assert.True(t, cat.IsAlive())
	assert.Nil(t, cat.OwnerID())
	assert.Equal(t, StateAdoptable, cat.State(rules))
	assert.Equal(t, "tabby_4", cat.Avatar())

	_, err = NewCat(" ", "tabby", "", rules, t0)
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
}

func TestAdoptAndAbandon(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	cat, err := NewCat("Miso", "tabby", "", rules, t0)
	require.NoError(t, err)
	cat.AssignID(3)
	startVersion := cat.Version()

	require.NoError(t, cat.Adopt(10, t0))
	assert.True(t, cat.IsOwnedBy(10))
	assert.Equal(t, startVersion+1, cat.Version())
	assert.Equal(t, StateAlive, cat.State(rules))
	require.Len(t, cat.GetUncommittedEvents(), 1)
	assert.Equal(t, events.TypeCatAdopted, cat.GetUncommittedEvents()[0].GetEventType())

	err = cat.Adopt(11, t0)
	assert.True(t, errors.Is(err, pkgerrors.ErrAlreadyOwned))

	err = cat.Abandon(11, t0)
	assert.True(t, errors.Is(err, pkgerrors.ErrNotCatOwner))

	require.NoError(t, cat.Abandon(10, t0))
	assert.Nil(t, cat.OwnerID())
	assert.Equal(t, StateAdoptable, cat.State(rules))
}

func TestCanBeTendedBy(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	stray, err := NewCat("Pip", "ginger", "", rules, t0)
	require.NoError(t, err)
	assert.True(t, stray.CanBeTendedBy(10))
	assert.True(t, stray.CanBeTendedBy(11))

	cat := ownedCat(t, rules)
	assert.True(t, cat.CanBeTendedBy(10))
	assert.False(t, cat.CanBeTendedBy(11))
}

func TestApplyVitalsClampsAndBands(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	cat := ownedCat(t, rules)

	cat.ApplyVitals(3, 8, "", t0, rules)
	assert.Equal(t, 3, cat.Mood())
	assert.Equal(t, 2, cat.MoodBand(rules))
	assert.Equal(t, "tabby_2", cat.Avatar())
	assert.Equal(t, StateDying, cat.State(rules))

	cat.ApplyVitals(42, -7, "", t0, rules)
	assert.Equal(t, rules.MoodMax, cat.Mood())
	assert.Equal(t, rules.PatienceMin, cat.Patience())
}

func TestApplyVitalsFeedSetsLastFeedDate(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	cat := ownedCat(t, rules)
	at := t0.Add(time.Hour)

	cat.ApplyVitals(6, 6, valueobjects.KindPlay, at, rules)
	assert.Nil(t, cat.LastFeedDate())

	cat.ApplyVitals(6, 6, valueobjects.KindFeed, at, rules)
	require.NotNil(t, cat.LastFeedDate())
	assert.True(t, cat.LastFeedDate().Equal(at))
}

func TestPatienceFloorKillsImmediately(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	cat := ownedCat(t, rules)

	cat.ApplyVitals(8, rules.PatienceMin, "", t0, rules)

	assert.False(t, cat.IsAlive())
	assert.Equal(t, rules.DeathFlagThreshold, cat.DeathFlag())
	assert.Equal(t, StateDead, cat.State(rules))

	var died int
	for _, e := range cat.GetUncommittedEvents() {
		if e.GetEventType() == events.TypeCatDied {
			died++
		}
	}
	assert.Equal(t, 1, died)
}

func TestMoodFloorStrikes(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	cat := ownedCat(t, rules)

	cat.ApplyVitals(rules.MoodMin, 6, "", t0, rules)
	cat.ApplyVitals(rules.MoodMin, 6, "", t0, rules)
	assert.Equal(t, 2, cat.DeathFlag())
	assert.True(t, cat.IsAlive())

	// a better mood clears the strikes
	cat.ApplyVitals(5, 6, "", t0, rules)
	assert.Equal(t, 0, cat.DeathFlag())

	for i := 0; i < rules.DeathFlagThreshold; i++ {
		cat.ApplyVitals(rules.MoodMin, 6, "", t0, rules)
	}
	assert.False(t, cat.IsAlive())
}

func TestDeathIsSticky(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	cat := ownedCat(t, rules)
	cat.ApplyVitals(5, rules.PatienceMin, "", t0, rules)
	require.False(t, cat.IsAlive())
	cat.MarkEventsAsCommitted()

	for _, v := range [][2]int{{10, 10}, {5, 5}, {1, 1}, {100, 100}} {
		cat.ApplyVitals(v[0], v[1], valueobjects.KindFeed, t0, rules)
		assert.False(t, cat.IsAlive())
		assert.Equal(t, rules.DeathFlagThreshold, cat.DeathFlag())
	}
	for _, e := range cat.GetUncommittedEvents() {
		assert.NotEqual(t, events.TypeCatDied, e.GetEventType())
	}

	assert.True(t, errors.Is(cat.Abandon(10, t0), pkgerrors.ErrCatDeceased))
}

func TestRegisterInteractionBumpsVersion(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	cat := ownedCat(t, rules)
	v := cat.Version()

	cat.RegisterInteraction(valueobjects.KindGift, t0)
	assert.Equal(t, v+1, cat.Version())
	assert.Nil(t, cat.LastFeedDate())

	cat.RegisterInteraction(valueobjects.KindFeed, t0)
	assert.Equal(t, v+2, cat.Version())
	assert.NotNil(t, cat.LastFeedDate())
}

func TestSnapshotRoundTrip(t *testing.T) {
	rules := config.DefaultEconomyConfig()
	cat := ownedCat(t, rules)
	cat.ApplyVitals(2, 4, valueobjects.KindFeed, t0, rules)

	again := ReconstructCat(cat.Snapshot())
	assert.Equal(t, cat.Snapshot(), again.Snapshot())
}

func TestNewInteraction(t *testing.T) {
	rules := config.DefaultEconomyConfig()

	in, err := NewInteraction(1, 2, valueobjects.KindGift, "yarn ball", rules, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(30), in.Cost())

	_, err = NewInteraction(1, 2, "pet", "", rules, t0)
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInteractionKind))

	_, err = NewInteraction(1, 0, valueobjects.KindPlay, "", rules, t0)
	assert.True(t, errors.Is(err, pkgerrors.ErrUnauthenticated))

	long := make([]byte, rules.MaxDescriptionLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = NewInteraction(1, 2, valueobjects.KindPlay, string(long), rules, t0)
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
}

func TestAccountCanAfford(t *testing.T) {
	acct, err := NewAccount("johndoe", "john@example.com", 15, t0)
	require.NoError(t, err)

	assert.True(t, acct.CanAfford(10, false))
	assert.False(t, acct.CanAfford(20, false))
	assert.True(t, acct.CanAfford(20, true))
}
