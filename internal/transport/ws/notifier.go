package ws

import (
	"log"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
// Conversation-scoped changes go to subscribers; user-scoped changes
// (friend requests, conversation membership) go straight to the user.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageNew, &msg.ConversationID, MessagePayload{Message: *msg})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(msg.ConversationID, evt, nil)
}

func (n *HubNotifier) NotifyEditedMessage(msg *domain.Message) {
	evt, err := NewEvent(EventTypeMessageEdited, &msg.ConversationID, MessagePayload{Message: *msg})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(msg.ConversationID, evt, nil)
}

func (n *HubNotifier) NotifyDeletedMessage(conversationID, messageID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageDeleted, &conversationID, MessageDeletedPayload{ID: messageID})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
}

func (n *HubNotifier) NotifyReactions(conversationID, messageID uuid.UUID, groups []domain.GroupedReaction) {
	evt, err := NewEvent(EventTypeReactionUpdated, &conversationID, ReactionsPayload{
		MessageID: messageID,
		Reactions: groups,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
}

func (n *HubNotifier) NotifyConversationCreated(conv *domain.Conversation, memberIDs []uuid.UUID) {
	evt, err := NewEvent(EventTypeConversationCreated, &conv.ID, ConversationCreatedPayload{Conversation: *conv})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	// Members haven't subscribed to a conversation they just learned exists,
	// so deliver per-user.
	for _, id := range memberIDs {
		n.hub.BroadcastToUser(id, evt)
	}
}

func (n *HubNotifier) NotifyConversationDeleted(conversationID uuid.UUID, memberIDs []uuid.UUID) {
	evt, err := NewEvent(EventTypeConversationDeleted, &conversationID, ConversationDeletedPayload{ID: conversationID})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	for _, id := range memberIDs {
		n.hub.BroadcastToUser(id, evt)
	}
}

func (n *HubNotifier) NotifyMemberKicked(conversationID, userID uuid.UUID) {
	evt, err := NewEvent(EventTypeMemberKicked, &conversationID, MemberKickedPayload{
		ConversationID: conversationID,
		UserID:         userID,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, nil)
	// The kicked member may not be subscribed anymore; tell them directly.
	n.hub.BroadcastToUser(userID, evt)
}

func (n *HubNotifier) NotifyFriendRequest(req *domain.FriendRequest) {
	evt, err := NewEvent(EventTypeFriendRequest, nil, FriendRequestPayload{FriendRequest: *req})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToUser(req.ReceiverID, evt)
}

func (n *HubNotifier) NotifyFriendAccepted(req *domain.FriendRequest) {
	evt, err := NewEvent(EventTypeFriendAccepted, nil, FriendRequestPayload{FriendRequest: *req})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToUser(req.SenderID, evt)
}

func (n *HubNotifier) NotifyFriendRemoved(userID, otherID uuid.UUID) {
	evt, err := NewEvent(EventTypeFriendRemoved, nil, FriendPairPayload{
		UserID:      userID,
		OtherUserID: otherID,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToUser(otherID, evt)
}

func (n *HubNotifier) NotifyUserBlocked(blockerID, blockedID uuid.UUID) {
	evt, err := NewEvent(EventTypeUserBlocked, nil, FriendPairPayload{
		UserID:      blockerID,
		OtherUserID: blockedID,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToUser(blockedID, evt)
}

func (n *HubNotifier) NotifyTyping(conversationID, userID uuid.UUID, typing bool) {
	evt, err := NewEvent(EventTypeTyping, &conversationID, TypingPayload{
		UserID: userID,
		Typing: typing,
	})
	if err != nil {
		return
	}
	n.hub.BroadcastToConversation(conversationID, evt, &userID)
}

func (n *HubNotifier) NotifyPresence(userID uuid.UUID, status string) {
	n.hub.broadcastPresence(userID, status)
}

func (n *HubNotifier) NotifyCallStarted(call *domain.Call) {
	n.broadcastCall(EventTypeCallStarted, call)
}

func (n *HubNotifier) NotifyCallJoined(call *domain.Call, userID uuid.UUID) {
	n.broadcastCallUser(EventTypeCallJoined, call, userID)
}

func (n *HubNotifier) NotifyCallDeclined(call *domain.Call, userID uuid.UUID) {
	n.broadcastCallUser(EventTypeCallDeclined, call, userID)
}

func (n *HubNotifier) NotifyCallLeft(call *domain.Call, userID uuid.UUID) {
	n.broadcastCallUser(EventTypeCallLeft, call, userID)
}

func (n *HubNotifier) NotifyCallEnded(call *domain.Call) {
	n.broadcastCall(EventTypeCallEnded, call)
}

func (n *HubNotifier) NotifyCallParticipantUpdated(call *domain.Call, p *domain.CallParticipant) {
	evt, err := NewEvent(EventTypeCallParticipant, &call.ConversationID, CallParticipantPayload{
		Call:        *call,
		Participant: *p,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(call.ConversationID, evt, nil)
}

func (n *HubNotifier) broadcastCall(eventType string, call *domain.Call) {
	evt, err := NewEvent(eventType, &call.ConversationID, CallPayload{Call: *call})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(call.ConversationID, evt, nil)
}

func (n *HubNotifier) broadcastCallUser(eventType string, call *domain.Call, userID uuid.UUID) {
	evt, err := NewEvent(eventType, &call.ConversationID, CallUserPayload{
		Call:   *call,
		UserID: userID,
	})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.BroadcastToConversation(call.ConversationID, evt, nil)
}
