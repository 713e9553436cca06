package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoodBand(t *testing.T) {
	tests := []struct {
		mood int
		want int
	}{
		{1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {6, 3}, {7, 4}, {8, 4}, {9, 5}, {10, 5},
		{-3, 1}, {99, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MoodBand(tt.mood, 1, 10, 5), "mood %d", tt.mood)
	}
	assert.Equal(t, 1, MoodBand(7, 1, 10, 1))
}

func TestAvatar(t *testing.T) {
	assert.Equal(t, "tabby_2", Avatar("tabby", 2))
	assert.Equal(t, "default_1", Avatar("", 1))
}

func TestParseIDs(t *testing.T) {
	id, err := ParseCatID(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, CatID(42), id)
	assert.Equal(t, "cat#42", id.LockKey())

	for _, raw := range []string{"", "0", "-1", "abc", "1.5"} {
		_, err := ParseCatID(raw)
		assert.Error(t, err, raw)
	}

	uid, err := ParseUserID("7")
	require.NoError(t, err)
	assert.Equal(t, "user#7", uid.LockKey())
}

func TestInteractionKind(t *testing.T) {
	assert.Equal(t, KindFeed, NewInteractionKind(" FEED "))
	assert.True(t, KindFeed.IsFeeding())
	assert.False(t, KindPlay.IsFeeding())
	assert.True(t, NewInteractionKind("  ").IsZero())
}
