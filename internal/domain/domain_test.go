package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDirectKeyForIsOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, DirectKeyFor(a, b), DirectKeyFor(b, a))
	assert.NotEqual(t, DirectKeyFor(a, b), DirectKeyFor(a, uuid.New()))
}

func TestGroupReactions(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	msg := uuid.New()
	now := time.Now()

	groups := GroupReactions([]Reaction{
		{MessageID: msg, UserID: alice, Emoji: "🔥", CreatedAt: now},
		{MessageID: msg, UserID: bob, Emoji: "👍", CreatedAt: now.Add(time.Second)},
		{MessageID: msg, UserID: bob, Emoji: "🔥", CreatedAt: now.Add(2 * time.Second)},
	})

	// First-seen emoji order, counts aggregated.
	assert.Len(t, groups, 2)
	assert.Equal(t, "🔥", groups[0].Emoji)
	assert.Equal(t, 2, groups[0].Count)
	assert.ElementsMatch(t, []uuid.UUID{alice, bob}, groups[0].UserIDs)
	assert.Equal(t, "👍", groups[1].Emoji)
	assert.Equal(t, 1, groups[1].Count)
}

func TestGroupReactionsEmpty(t *testing.T) {
	groups := GroupReactions(nil)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}
