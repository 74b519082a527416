package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type presenceFixture struct {
	presence *PresenceService
	friends  *FriendService
	store    *fakePresenceRepo
	userRepo *fakeUserRepo
	notifier *fakeNotifier

	alice *domain.User
	bob   *domain.User
	convo *domain.Conversation
}

func newPresenceFixture(t *testing.T, ttl time.Duration) *presenceFixture {
	t.Helper()
	friendRepo := newFakeFriendRepo()
	userRepo := newFakeUserRepo()
	convRepo := newFakeConversationRepo()
	msgRepo := newFakeMessageRepo()
	store := newFakePresenceRepo()
	notifier := &fakeNotifier{}

	friends := NewFriendService(friendRepo, userRepo)
	conv := NewConversationService(convRepo, friendRepo, msgRepo, userRepo)
	presence := NewPresenceService(store, convRepo, friendRepo, userRepo, ttl)
	presence.SetNotifier(notifier)

	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	befriend(t, friends, alice, bob)

	convo, err := conv.GetOrCreateDirect(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	return &presenceFixture{
		presence: presence,
		friends:  friends,
		store:    store,
		userRepo: userRepo,
		notifier: notifier,
		alice:    alice,
		bob:      bob,
		convo:    convo,
	}
}

func TestSetTypingAndList(t *testing.T) {
	f := newPresenceFixture(t, 3*time.Second)
	ctx := context.Background()

	require.NoError(t, f.presence.SetTyping(ctx, f.alice.ID, f.convo.ID, true))
	assert.Equal(t, 1, f.notifier.count("typing"))

	// Bob sees Alice typing; Alice does not see herself.
	typists, err := f.presence.ListTyping(ctx, f.bob.ID, f.convo.ID)
	require.NoError(t, err)
	require.Len(t, typists, 1)
	assert.Equal(t, f.alice.ID, typists[0].UserID)
	assert.Equal(t, "alice", typists[0].Username)

	own, err := f.presence.ListTyping(ctx, f.alice.ID, f.convo.ID)
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestSetTypingStop(t *testing.T) {
	f := newPresenceFixture(t, 3*time.Second)
	ctx := context.Background()

	require.NoError(t, f.presence.SetTyping(ctx, f.alice.ID, f.convo.ID, true))
	require.NoError(t, f.presence.SetTyping(ctx, f.alice.ID, f.convo.ID, false))

	typists, err := f.presence.ListTyping(ctx, f.bob.ID, f.convo.ID)
	require.NoError(t, err)
	assert.Empty(t, typists)
}

func TestTypingExpiresWithoutStop(t *testing.T) {
	// Tiny TTL; no stop event ever arrives.
	f := newPresenceFixture(t, 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, f.presence.SetTyping(ctx, f.alice.ID, f.convo.ID, true))
	time.Sleep(20 * time.Millisecond)

	typists, err := f.presence.ListTyping(ctx, f.bob.ID, f.convo.ID)
	require.NoError(t, err)
	assert.Empty(t, typists)
}

func TestSetTypingParticipantOnly(t *testing.T) {
	f := newPresenceFixture(t, 3*time.Second)
	ctx := context.Background()
	outsider := seedUser(t, f.userRepo, "outsider")

	err := f.presence.SetTyping(ctx, outsider.ID, f.convo.ID, true)
	assert.ErrorIs(t, err, ErrNotParticipant)

	err = f.presence.SetTyping(ctx, f.alice.ID, uuid.New(), true)
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = f.presence.ListTyping(ctx, outsider.ID, f.convo.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSetTypingBlockedPair(t *testing.T) {
	f := newPresenceFixture(t, 3*time.Second)
	ctx := context.Background()

	require.NoError(t, f.presence.SetTyping(ctx, f.bob.ID, f.convo.ID, true))
	require.NoError(t, f.friends.Block(ctx, f.alice.ID, f.bob.ID))

	err := f.presence.SetTyping(ctx, f.bob.ID, f.convo.ID, true)
	assert.ErrorIs(t, err, ErrBlocked)

	// Clearing a stale flag is still allowed after the block.
	require.NoError(t, f.presence.SetTyping(ctx, f.bob.ID, f.convo.ID, false))

	typists, err := f.presence.ListTyping(ctx, f.alice.ID, f.convo.ID)
	require.NoError(t, err)
	assert.Empty(t, typists)
}

func TestSetStatus(t *testing.T) {
	f := newPresenceFixture(t, 3*time.Second)
	ctx := context.Background()

	require.NoError(t, f.presence.SetStatus(ctx, f.alice.ID, domain.StatusAway))
	assert.Equal(t, 1, f.notifier.count("presence"))

	user, err := f.userRepo.GetByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAway, user.Status)

	err = f.presence.SetStatus(ctx, f.alice.ID, "invisible")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
