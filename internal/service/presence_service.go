package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
	"github.com/semi556tgb/pure-converse/internal/repository"
)

var ErrInvalidStatus = errors.New("status must be online, away or offline")

// PresenceService holds typing indicators and user status. Typing state lives
// in the presence store with a TTL, so it expires server-side even when the
// client disappears without a stop event.
type PresenceService struct {
	presence   repository.PresenceRepository
	convRepo   repository.ConversationRepository
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	typingTTL  time.Duration
	notifier   Notifier
}

func NewPresenceService(
	presence repository.PresenceRepository,
	convRepo repository.ConversationRepository,
	friendRepo repository.FriendRepository,
	userRepo repository.UserRepository,
	typingTTL time.Duration,
) *PresenceService {
	return &PresenceService{
		presence:   presence,
		convRepo:   convRepo,
		friendRepo: friendRepo,
		userRepo:   userRepo,
		typingTTL:  typingTTL,
	}
}

func (s *PresenceService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetTyping refreshes or clears the caller's typing flag in a conversation.
// Each refresh restarts the TTL window.
func (s *PresenceService) SetTyping(ctx context.Context, userID, conversationID uuid.UUID, typing bool) error {
	conv, err := s.checkParticipant(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	if typing {
		// A blocked pair cannot signal typing either; clearing stays allowed.
		blocked, err := directPairBlocked(ctx, s.convRepo, s.friendRepo, conv, userID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrBlocked
		}
		if err := s.presence.SetTyping(ctx, conversationID, userID, s.typingTTL); err != nil {
			return fmt.Errorf("setting typing state: %w", err)
		}
	} else {
		if err := s.presence.ClearTyping(ctx, conversationID, userID); err != nil {
			return fmt.Errorf("clearing typing state: %w", err)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyTyping(conversationID, userID, typing)
	}
	return nil
}

// ListTyping returns who is currently typing in a conversation, excluding the
// viewer. Expired entries never show up.
func (s *PresenceService) ListTyping(ctx context.Context, viewerID, conversationID uuid.UUID) ([]domain.TypingUser, error) {
	if _, err := s.checkParticipant(ctx, viewerID, conversationID); err != nil {
		return nil, err
	}

	userIDs, err := s.presence.ListTyping(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	typists := make([]domain.TypingUser, 0, len(userIDs))
	for _, id := range userIDs {
		if id == viewerID {
			continue
		}
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}
		typists = append(typists, domain.TypingUser{
			UserID:      user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
		})
	}
	return typists, nil
}

// SetStatus persists the caller's own presence status.
func (s *PresenceService) SetStatus(ctx context.Context, userID uuid.UUID, status string) error {
	switch status {
	case domain.StatusOnline, domain.StatusAway, domain.StatusOffline:
	default:
		return ErrInvalidStatus
	}

	if err := s.userRepo.UpdateStatus(ctx, userID, status); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyPresence(userID, status)
	}
	return nil
}

func (s *PresenceService) checkParticipant(ctx context.Context, userID, conversationID uuid.UUID) (*domain.Conversation, error) {
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
