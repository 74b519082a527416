package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
	"github.com/semi556tgb/pure-converse/internal/repository"
)

var (
	ErrCannotConverseSelf   = errors.New("cannot start a conversation with yourself")
	ErrNotFriends           = errors.New("users are not friends")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrNotCreator           = errors.New("only the conversation creator can perform this action")
	ErrNotGroup             = errors.New("conversation is not a group")
	ErrInvalidGroupName     = errors.New("group name cannot be empty")
	ErrNoInvitees           = errors.New("a group needs at least one invited friend")
	ErrTooManyInvitees      = errors.New("a group can have at most 5 invited friends")
	ErrInvalidInvitees      = errors.New("invitee list contains duplicates or the creator")
	ErrCannotKickCreator    = errors.New("the group creator cannot be kicked")
	ErrMemberNotFound       = errors.New("member not found in this conversation")
)

const recentMessageWindow = 50

type ConversationService struct {
	convRepo   repository.ConversationRepository
	friendRepo repository.FriendRepository
	msgRepo    repository.MessageRepository
	userRepo   repository.UserRepository
	notifier   Notifier
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	friendRepo repository.FriendRepository,
	msgRepo repository.MessageRepository,
	userRepo repository.UserRepository,
) *ConversationService {
	return &ConversationService{
		convRepo:   convRepo,
		friendRepo: friendRepo,
		msgRepo:    msgRepo,
		userRepo:   userRepo,
	}
}

func (s *ConversationService) SetNotifier(n Notifier) {
	s.notifier = n
}

// GetOrCreateDirect finds or creates the direct conversation between two
// friends. Safe under concurrent double-invocation: creation races resolve
// through the unique direct key, and both callers get the same id.
func (s *ConversationService) GetOrCreateDirect(ctx context.Context, userID, friendID uuid.UUID) (*domain.Conversation, error) {
	if userID == friendID {
		return nil, ErrCannotConverseSelf
	}

	friend, err := s.userRepo.GetByID(ctx, friendID)
	if err != nil {
		return nil, err
	}
	if friend == nil {
		return nil, ErrUserNotFound
	}

	ok, err := s.friendRepo.AreFriends(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFriends
	}

	key := domain.DirectKeyFor(userID, friendID)

	conv, err := s.convRepo.GetDirectByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return conv, nil
	}

	now := time.Now()
	conv = &domain.Conversation{
		ID:        uuid.New(),
		Type:      domain.ConversationDirect,
		CreatorID: userID,
		DirectKey: &key,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.convRepo.Create(ctx, conv, []uuid.UUID{userID, friendID})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost the race to the other side; return theirs.
		return s.convRepo.GetDirectByKey(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("creating direct conversation: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyConversationCreated(conv, []uuid.UUID{userID, friendID})
	}

	return conv, nil
}

// CreateGroup creates a group conversation with the creator plus 1-5 invited
// friends, inserted as one atomic unit.
func (s *ConversationService) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, friendIDs []uuid.UUID) (*domain.Conversation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidGroupName
	}
	if len(friendIDs) == 0 {
		return nil, ErrNoInvitees
	}
	if len(friendIDs) > domain.MaxGroupInvites {
		return nil, ErrTooManyInvitees
	}

	seen := make(map[uuid.UUID]struct{}, len(friendIDs))
	for _, id := range friendIDs {
		if id == creatorID {
			return nil, ErrInvalidInvitees
		}
		if _, dup := seen[id]; dup {
			return nil, ErrInvalidInvitees
		}
		seen[id] = struct{}{}

		ok, err := s.friendRepo.AreFriends(ctx, creatorID, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFriends
		}
	}

	now := time.Now()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		Type:      domain.ConversationGroup,
		Name:      &name,
		CreatorID: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	memberIDs := append([]uuid.UUID{creatorID}, friendIDs...)
	if err := s.convRepo.Create(ctx, conv, memberIDs); err != nil {
		return nil, fmt.Errorf("creating group conversation: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyConversationCreated(conv, memberIDs)
	}

	return conv, nil
}

// KickMember removes a participant from a group. Creator-only; the creator
// cannot be kicked.
func (s *ConversationService) KickMember(ctx context.Context, conversationID, actorID, targetID uuid.UUID) error {
	conv, err := s.groupOwnedBy(ctx, conversationID, actorID)
	if err != nil {
		return err
	}
	if targetID == conv.CreatorID {
		return ErrCannotKickCreator
	}

	p, err := s.convRepo.GetParticipant(ctx, conversationID, targetID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrMemberNotFound
	}

	if err := s.convRepo.RemoveParticipant(ctx, conversationID, targetID); err != nil {
		return fmt.Errorf("removing participant: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyMemberKicked(conversationID, targetID)
	}
	return nil
}

// DeleteGroup removes a group with all its participants, messages and
// reactions as one atomic unit. Creator-only.
func (s *ConversationService) DeleteGroup(ctx context.Context, conversationID, actorID uuid.UUID) error {
	if _, err := s.groupOwnedBy(ctx, conversationID, actorID); err != nil {
		return err
	}

	participants, err := s.convRepo.ListParticipants(ctx, conversationID)
	if err != nil {
		return err
	}
	memberIDs := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		memberIDs = append(memberIDs, p.UserID)
	}

	if err := s.convRepo.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("deleting group conversation: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyConversationDeleted(conversationID, memberIDs)
	}
	return nil
}

// Rename changes a group's name. Creator-only.
func (s *ConversationService) Rename(ctx context.Context, conversationID, actorID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidGroupName
	}

	if _, err := s.groupOwnedBy(ctx, conversationID, actorID); err != nil {
		return err
	}

	if err := s.convRepo.UpdateName(ctx, conversationID, name); err != nil {
		return fmt.Errorf("renaming conversation: %w", err)
	}
	return nil
}

// ListForUser returns the user's conversations with resolved participants and
// the most recent message window each.
func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	convs, err := s.convRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		participants, err := s.convRepo.ListParticipants(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		messages, err := s.msgRepo.ListByConversation(ctx, conv.ID, nil, recentMessageWindow)
		if err != nil {
			return nil, err
		}
		if messages == nil {
			messages = []domain.Message{}
		}
		summaries = append(summaries, domain.ConversationSummary{
			Conversation: conv,
			Participants: participants,
			Messages:     messages,
		})
	}
	return summaries, nil
}

// Get returns one conversation with participants, participant-only.
func (s *ConversationService) Get(ctx context.Context, conversationID, callerID uuid.UUID) (*domain.ConversationSummary, error) {
	conv, err := s.participantConversation(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}

	participants, err := s.convRepo.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.msgRepo.ListByConversation(ctx, conversationID, nil, recentMessageWindow)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}

	return &domain.ConversationSummary{
		Conversation: *conv,
		Participants: participants,
		Messages:     messages,
	}, nil
}

func (s *ConversationService) groupOwnedBy(ctx context.Context, conversationID, actorID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if conv.Type != domain.ConversationGroup {
		return nil, ErrNotGroup
	}
	if conv.CreatorID != actorID {
		return nil, ErrNotCreator
	}
	return conv, nil
}

func (s *ConversationService) participantConversation(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
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
