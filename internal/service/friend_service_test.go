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

func seedUser(t *testing.T, repo *fakeUserRepo, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:          uuid.New(),
		Email:       username + "@example.com",
		Username:    username,
		DisplayName: username,
		Status:      domain.StatusOffline,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func newFriendFixture(t *testing.T) (*FriendService, *fakeFriendRepo, *fakeUserRepo, *fakeNotifier) {
	t.Helper()
	friendRepo := newFakeFriendRepo()
	userRepo := newFakeUserRepo()
	notifier := &fakeNotifier{}
	svc := NewFriendService(friendRepo, userRepo)
	svc.SetNotifier(notifier)
	return svc, friendRepo, userRepo, notifier
}

func befriend(t *testing.T, svc *FriendService, a, b *domain.User) {
	t.Helper()
	ctx := context.Background()
	req, err := svc.SendRequest(ctx, a.ID, b.Username)
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, b.ID, req.ID))
}

func TestSendRequestCreatesPending(t *testing.T) {
	svc, _, userRepo, notifier := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")

	req, err := svc.SendRequest(context.Background(), alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.FriendRequestPending, req.Status)
	assert.Equal(t, alice.ID, req.SenderID)
	assert.Equal(t, bob.ID, req.ReceiverID)
	assert.Equal(t, 1, notifier.count("friend.request"))
}

func TestSendRequestToSelf(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")

	_, err := svc.SendRequest(context.Background(), alice.ID, "alice")
	assert.ErrorIs(t, err, ErrCannotFriendSelf)
}

func TestSendRequestUnknownUser(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")

	_, err := svc.SendRequest(context.Background(), alice.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendRequestConflictsWhilePending(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)

	// Same direction again.
	_, err = svc.SendRequest(ctx, alice.ID, "bob")
	assert.ErrorIs(t, err, ErrRequestExists)

	// Reverse direction while the original is still pending.
	_, err = svc.SendRequest(ctx, bob.ID, "alice")
	assert.ErrorIs(t, err, ErrRequestExists)
}

func TestAcceptRequest(t *testing.T) {
	svc, _, userRepo, notifier := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, bob.ID, req.ID))

	ok, err := svc.IsFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, notifier.count("friend.accepted"))
}

func TestAcceptRequestOnlyReceiver(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	seedUser(t, userRepo, "bob")
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)

	err = svc.AcceptRequest(ctx, alice.ID, req.ID)
	assert.ErrorIs(t, err, ErrNotRequestReceiver)
}

func TestAcceptRequestNotPending(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, svc.AcceptRequest(ctx, bob.ID, req.ID))

	err = svc.AcceptRequest(ctx, bob.ID, req.ID)
	assert.ErrorIs(t, err, ErrRequestNotPending)
}

func TestRejectedRequestCanBeResent(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	ctx := context.Background()

	req, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)
	require.NoError(t, svc.RejectRequest(ctx, bob.ID, req.ID))

	// Bob can now initiate toward Alice; the row flips direction.
	resent, err := svc.SendRequest(ctx, bob.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.FriendRequestPending, resent.Status)
	assert.Equal(t, bob.ID, resent.SenderID)
	assert.Equal(t, alice.ID, resent.ReceiverID)
}

func TestSendRequestWhenAlreadyFriends(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	befriend(t, svc, alice, bob)

	_, err := svc.SendRequest(context.Background(), alice.ID, "bob")
	assert.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestUnfriendIsIdempotent(t *testing.T) {
	svc, _, userRepo, notifier := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	befriend(t, svc, alice, bob)
	ctx := context.Background()

	require.NoError(t, svc.Unfriend(ctx, alice.ID, bob.ID))
	ok, err := svc.IsFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, notifier.count("friend.removed"))

	// Removing again is a no-op.
	require.NoError(t, svc.Unfriend(ctx, alice.ID, bob.ID))
	assert.Equal(t, 1, notifier.count("friend.removed"))
}

func TestBlockOverwritesFriendship(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	befriend(t, svc, alice, bob)
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, alice.ID, bob.ID))

	ok, err := svc.IsFriend(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Neither side can send a request across the block.
	_, err = svc.SendRequest(ctx, bob.ID, "alice")
	assert.ErrorIs(t, err, ErrBlocked)
	_, err = svc.SendRequest(ctx, alice.ID, "bob")
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestBlockIsIdempotent(t *testing.T) {
	svc, friendRepo, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	ctx := context.Background()

	require.NoError(t, svc.Block(ctx, alice.ID, bob.ID))
	require.NoError(t, svc.Block(ctx, alice.ID, bob.ID))

	req, err := friendRepo.GetRequestBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, domain.FriendRequestBlocked, req.Status)
	assert.Equal(t, alice.ID, req.SenderID)
	assert.NotNil(t, req.BlockedAt)
}

func TestListRequests(t *testing.T) {
	svc, _, userRepo, _ := newFriendFixture(t)
	alice := seedUser(t, userRepo, "alice")
	bob := seedUser(t, userRepo, "bob")
	carol := seedUser(t, userRepo, "carol")
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, alice.ID, "bob")
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, carol.ID, "bob")
	require.NoError(t, err)

	incoming, err := svc.ListIncomingRequests(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, incoming, 2)

	outgoing, err := svc.ListOutgoingRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, outgoing, 1)

	// Empty results come back as empty slices, not nil.
	none, err := svc.ListIncomingRequests(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
