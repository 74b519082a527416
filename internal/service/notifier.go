package service

import (
	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
)

// Notifier is the fan-out boundary. Services publish row-level changes
// through it; the ws package delivers them to subscribed clients.
// Delivery is at-least-once with no ordering guarantee across entities.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message)
	NotifyEditedMessage(msg *domain.Message)
	NotifyDeletedMessage(conversationID, messageID uuid.UUID)
	NotifyReactions(conversationID, messageID uuid.UUID, groups []domain.GroupedReaction)

	NotifyConversationCreated(conv *domain.Conversation, memberIDs []uuid.UUID)
	NotifyConversationDeleted(conversationID uuid.UUID, memberIDs []uuid.UUID)
	NotifyMemberKicked(conversationID, userID uuid.UUID)

	NotifyFriendRequest(req *domain.FriendRequest)
	NotifyFriendAccepted(req *domain.FriendRequest)
	NotifyFriendRemoved(userID, otherID uuid.UUID)
	NotifyUserBlocked(blockerID, blockedID uuid.UUID)

	NotifyTyping(conversationID, userID uuid.UUID, typing bool)
	NotifyPresence(userID uuid.UUID, status string)

	NotifyCallStarted(call *domain.Call)
	NotifyCallJoined(call *domain.Call, userID uuid.UUID)
	NotifyCallDeclined(call *domain.Call, userID uuid.UUID)
	NotifyCallLeft(call *domain.Call, userID uuid.UUID)
	NotifyCallEnded(call *domain.Call)
	NotifyCallParticipantUpdated(call *domain.Call, p *domain.CallParticipant)
}
