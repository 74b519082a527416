package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeSubscribe   = "conversation.subscribe"
	EventTypeUnsubscribe = "conversation.unsubscribe"
	EventTypeTypingStart = "typing.start"
	EventTypeTypingStop  = "typing.stop"
	EventTypePing        = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageNew      = "message.new"
	EventTypeMessageEdited   = "message.edited"
	EventTypeMessageDeleted  = "message.deleted"
	EventTypeReactionUpdated = "reaction.updated"

	EventTypeConversationCreated = "conversation.created"
	EventTypeConversationDeleted = "conversation.deleted"
	EventTypeMemberKicked        = "member.kicked"

	EventTypeFriendRequest  = "friend.request"
	EventTypeFriendAccepted = "friend.accepted"
	EventTypeFriendRemoved  = "friend.removed"
	EventTypeUserBlocked    = "friend.blocked"

	EventTypeTyping   = "typing"
	EventTypePresence = "presence"

	EventTypeCallStarted     = "call.started"
	EventTypeCallJoined      = "call.joined"
	EventTypeCallDeclined    = "call.declined"
	EventTypeCallLeft        = "call.left"
	EventTypeCallEnded       = "call.ended"
	EventTypeCallParticipant = "call.participant"

	EventTypePong  = "pong"
	EventTypeError = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type           string          `json:"type"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type ConversationPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
}

type MessageDeletedPayload struct {
	ID uuid.UUID `json:"id"`
}

type ReactionsPayload struct {
	MessageID uuid.UUID                `json:"message_id"`
	Reactions []domain.GroupedReaction `json:"reactions"`
}

type ConversationCreatedPayload struct {
	domain.Conversation
}

type ConversationDeletedPayload struct {
	ID uuid.UUID `json:"id"`
}

type MemberKickedPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
}

type FriendRequestPayload struct {
	domain.FriendRequest
}

type FriendPairPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	OtherUserID uuid.UUID `json:"other_user_id"`
}

type TypingPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Typing bool      `json:"typing"`
}

type PresencePayload struct {
	UserID uuid.UUID `json:"user_id"`
	Status string    `json:"status"` // "online" | "away" | "offline"
}

type CallPayload struct {
	domain.Call
}

type CallUserPayload struct {
	Call   domain.Call `json:"call"`
	UserID uuid.UUID   `json:"user_id"`
}

type CallParticipantPayload struct {
	Call        domain.Call            `json:"call"`
	Participant domain.CallParticipant `json:"participant"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, conversationID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:           eventType,
		ConversationID: conversationID,
		Payload:        data,
		Timestamp:      time.Now().Unix(),
	}, nil
}
