package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
	"github.com/semi556tgb/pure-converse/internal/repository"
)

var (
	ErrMessageNotFound    = errors.New("message not found")
	ErrNotMessageSender   = errors.New("only the message sender can perform this action")
	ErrEmptyContent       = errors.New("message content cannot be empty")
	ErrContentTooLong     = errors.New("message content exceeds the maximum length")
	ErrInvalidMessageType = errors.New("unknown message type")
	ErrBadReplyTarget     = errors.New("reply target must be a message in the same conversation")
	ErrInvalidEmoji       = errors.New("emoji cannot be empty")
)

type MessageService struct {
	msgRepo    repository.MessageRepository
	convRepo   repository.ConversationRepository
	friendRepo repository.FriendRepository
	presence   repository.PresenceRepository
	notifier   Notifier
}

func NewMessageService(
	msgRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	friendRepo repository.FriendRepository,
	presence repository.PresenceRepository,
) *MessageService {
	return &MessageService{
		msgRepo:    msgRepo,
		convRepo:   convRepo,
		friendRepo: friendRepo,
		presence:   presence,
	}
}

func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendInput struct {
	ConversationID   uuid.UUID  `json:"conversation_id"`
	Type             string     `json:"type"`
	Content          string     `json:"content"`
	EncryptedContent []byte     `json:"encrypted_content,omitempty"`
	KeyID            *string    `json:"key_id,omitempty"`
	ReplyToID        *uuid.UUID `json:"reply_to_id,omitempty"`
}

type MessageListResponse struct {
	Messages []domain.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

// Send appends a message to a conversation's log. Participant-only; the log
// order is creation time with the storage sequence breaking ties.
func (s *MessageService) Send(ctx context.Context, senderID uuid.UUID, input SendInput) (*domain.Message, error) {
	conv, err := s.checkParticipant(ctx, senderID, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotBlocked(ctx, senderID, conv); err != nil {
		return nil, err
	}

	msgType := input.Type
	if msgType == "" {
		msgType = domain.MessageText
	}
	switch msgType {
	case domain.MessageText, domain.MessageImage, domain.MessageFile, domain.MessageCallEvent:
	default:
		return nil, ErrInvalidMessageType
	}

	var content *string
	if len(input.EncryptedContent) == 0 {
		trimmed := strings.TrimSpace(input.Content)
		if trimmed == "" {
			return nil, ErrEmptyContent
		}
		if utf8.RuneCountInString(input.Content) > domain.MaxMessageLength {
			return nil, ErrContentTooLong
		}
		content = &input.Content
	} else if input.Content != "" {
		if utf8.RuneCountInString(input.Content) > domain.MaxMessageLength {
			return nil, ErrContentTooLong
		}
		content = &input.Content
	}

	if input.ReplyToID != nil {
		parent, err := s.msgRepo.GetByID(ctx, *input.ReplyToID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.ConversationID != input.ConversationID {
			return nil, ErrBadReplyTarget
		}
	}

	msg := &domain.Message{
		ID:               uuid.New(),
		ConversationID:   input.ConversationID,
		SenderID:         senderID,
		Type:             msgType,
		Content:          content,
		EncryptedContent: input.EncryptedContent,
		KeyID:            input.KeyID,
		ReplyToID:        input.ReplyToID,
		CreatedAt:        time.Now(),
	}

	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	// A new message bumps the conversation so sidebar recency ordering holds.
	_ = s.convRepo.Touch(ctx, input.ConversationID)

	// Sending implies the sender stopped typing.
	_ = s.presence.ClearTyping(ctx, input.ConversationID, senderID)

	full, err := s.msgRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(full)
	}

	return full, nil
}

// List returns paginated messages in ascending order, participant-only.
func (s *MessageService) List(ctx context.Context, callerID, conversationID uuid.UUID, before *uuid.UUID, limit int) (*MessageListResponse, error) {
	if _, err := s.checkParticipant(ctx, callerID, conversationID); err != nil {
		return nil, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	messages, err := s.msgRepo.ListByConversation(ctx, conversationID, before, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[len(messages)-limit:]
	}

	if messages == nil {
		messages = []domain.Message{}
	}

	return &MessageListResponse{
		Messages: messages,
		HasMore:  hasMore,
	}, nil
}

// Edit replaces a message's content and stamps it edited. Sender-only.
func (s *MessageService) Edit(ctx context.Context, actorID, messageID uuid.UUID, content string) (*domain.Message, error) {
	msg, err := s.ownMessage(ctx, actorID, messageID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return nil, ErrContentTooLong
	}

	msg.Content = &content
	if err := s.msgRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	updated, err := s.msgRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyEditedMessage(updated)
	}

	return updated, nil
}

// Delete hard-deletes a message and its reactions. Sender-only.
func (s *MessageService) Delete(ctx context.Context, actorID, messageID uuid.UUID) error {
	msg, err := s.ownMessage(ctx, actorID, messageID)
	if err != nil {
		return err
	}

	if err := s.msgRepo.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyDeletedMessage(msg.ConversationID, messageID)
	}
	return nil
}

// React toggles the (message, user, emoji) reaction: present removes it,
// absent adds it. Returns the refreshed aggregation and whether the reaction
// is now present.
func (s *MessageService) React(ctx context.Context, userID, messageID uuid.UUID, emoji string) ([]domain.GroupedReaction, bool, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, false, ErrInvalidEmoji
	}

	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, false, err
	}
	if msg == nil {
		return nil, false, ErrMessageNotFound
	}

	conv, err := s.checkParticipant(ctx, userID, msg.ConversationID)
	if err != nil {
		return nil, false, err
	}
	if err := s.checkNotBlocked(ctx, userID, conv); err != nil {
		return nil, false, err
	}

	existing, err := s.msgRepo.GetReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, false, err
	}

	added := existing == nil
	if added {
		reaction := &domain.Reaction{
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: time.Now(),
		}
		if err := s.msgRepo.AddReaction(ctx, reaction); err != nil {
			return nil, false, fmt.Errorf("adding reaction: %w", err)
		}
	} else {
		if err := s.msgRepo.RemoveReaction(ctx, messageID, userID, emoji); err != nil {
			return nil, false, fmt.Errorf("removing reaction: %w", err)
		}
	}

	reactions, err := s.msgRepo.ListReactions(ctx, messageID)
	if err != nil {
		return nil, false, err
	}
	groups := domain.GroupReactions(reactions)

	if s.notifier != nil {
		s.notifier.NotifyReactions(msg.ConversationID, messageID, groups)
	}

	return groups, added, nil
}

func (s *MessageService) checkParticipant(ctx context.Context, userID, conversationID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	p, err := s.convRepo.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotParticipant
	}
	return conv, nil
}

// checkNotBlocked rejects writes into a direct conversation whose pair has a
// blocked row. Blocking is symmetric: neither side can post. Group membership
// is curated by the creator, so groups are left alone.
func (s *MessageService) checkNotBlocked(ctx context.Context, userID uuid.UUID, conv *domain.Conversation) error {
	blocked, err := directPairBlocked(ctx, s.convRepo, s.friendRepo, conv, userID)
	if err != nil {
		return err
	}
	if blocked {
		return ErrBlocked
	}
	return nil
}

func directPairBlocked(
	ctx context.Context,
	convRepo repository.ConversationRepository,
	friendRepo repository.FriendRepository,
	conv *domain.Conversation,
	userID uuid.UUID,
) (bool, error) {
	if conv.Type != domain.ConversationDirect {
		return false, nil
	}
	participants, err := convRepo.ListParticipants(ctx, conv.ID)
	if err != nil {
		return false, err
	}
	for _, p := range participants {
		if p.UserID == userID {
			continue
		}
		req, err := friendRepo.GetRequestBetween(ctx, userID, p.UserID)
		if err != nil {
			return false, err
		}
		if req != nil && req.Status == domain.FriendRequestBlocked {
			return true, nil
		}
	}
	return false, nil
}

func (s *MessageService) ownMessage(ctx context.Context, actorID, messageID uuid.UUID) (*domain.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != actorID {
		return nil, ErrNotMessageSender
	}
	return msg, nil
}
