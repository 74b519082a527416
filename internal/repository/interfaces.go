package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
)

// ErrDuplicate is returned when an insert loses to a uniqueness constraint,
// e.g. two sides creating the same direct conversation at once.
var ErrDuplicate = errors.New("duplicate key")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Search(ctx context.Context, query string, limit int) ([]domain.User, error)
}

type FriendRepository interface {
	CreateRequest(ctx context.Context, req *domain.FriendRequest) error
	UpdateRequest(ctx context.Context, req *domain.FriendRequest) error
	GetRequestByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error)
	// GetRequestBetween returns the pair's row regardless of direction.
	GetRequestBetween(ctx context.Context, userA, userB uuid.UUID) (*domain.FriendRequest, error)
	DeleteRequest(ctx context.Context, id uuid.UUID) error
	// ReplaceWithBlock atomically removes any existing pair row and inserts
	// the blocked one.
	ReplaceWithBlock(ctx context.Context, req *domain.FriendRequest) error
	ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error)
	ListIncoming(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error)
	AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error)
}

type ConversationRepository interface {
	// Create inserts the conversation and all participant rows in one
	// transaction. Returns ErrDuplicate when a direct key already exists.
	Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetDirectByKey(ctx context.Context, key string) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
	// Touch bumps updated_at so ListByUser keeps recency order.
	Touch(ctx context.Context, id uuid.UUID) error
	// Delete removes reactions, messages, participants and the conversation
	// itself in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error
	GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error)
	ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error)
	RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error)
	Update(ctx context.Context, msg *domain.Message) error
	// Delete hard-deletes the message and its reactions.
	Delete(ctx context.Context, id uuid.UUID) error
	GetReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) (*domain.Reaction, error)
	AddReaction(ctx context.Context, reaction *domain.Reaction) error
	RemoveReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error
	ListReactions(ctx context.Context, messageID uuid.UUID) ([]domain.Reaction, error)
}

type CallRepository interface {
	Create(ctx context.Context, call *domain.Call, initiator *domain.CallParticipant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Call, error)
	GetActiveByConversation(ctx context.Context, conversationID uuid.UUID) (*domain.Call, error)
	Finish(ctx context.Context, id uuid.UUID, status string, endedAt time.Time, durationSeconds int64) error
	UpsertParticipant(ctx context.Context, p *domain.CallParticipant) error
	GetParticipant(ctx context.Context, callID, userID uuid.UUID) (*domain.CallParticipant, error)
	ListParticipants(ctx context.Context, callID uuid.UUID) ([]domain.CallParticipant, error)
	MarkLeft(ctx context.Context, callID, userID uuid.UUID, leftAt time.Time) error
	SetMuted(ctx context.Context, callID, userID uuid.UUID, muted bool) error
	SetVideo(ctx context.Context, callID, userID uuid.UUID, enabled bool) error
	CountJoined(ctx context.Context, callID uuid.UUID) (int, error)
	CountOthersEverJoined(ctx context.Context, callID, initiatorID uuid.UUID) (int, error)
}

// PresenceRepository holds ephemeral typing state. Entries expire on their
// own; ListTyping only ever sees live ones.
type PresenceRepository interface {
	SetTyping(ctx context.Context, conversationID, userID uuid.UUID, ttl time.Duration) error
	ClearTyping(ctx context.Context, conversationID, userID uuid.UUID) error
	ListTyping(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
}
