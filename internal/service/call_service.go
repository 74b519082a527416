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

var (
	ErrCallNotFound       = errors.New("call not found")
	ErrCallNotActive      = errors.New("call is not active")
	ErrCallInProgress     = errors.New("conversation already has an active call")
	ErrNotCallParticipant = errors.New("you are not a participant of this call")
	ErrAlreadyInCall      = errors.New("you already joined this call")
	ErrInvalidCallType    = errors.New("call type must be voice or video")
)

// CallService tracks call membership and lifecycle only; media negotiation
// and transport belong to an external layer consuming the snapshots.
type CallService struct {
	callRepo repository.CallRepository
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	notifier Notifier
}

func NewCallService(
	callRepo repository.CallRepository,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
) *CallService {
	return &CallService{
		callRepo: callRepo,
		convRepo: convRepo,
		msgRepo:  msgRepo,
	}
}

func (s *CallService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Initiate starts a call in a conversation. The call opens active with the
// initiator joined; callees learn about it from the fan-out. One active call
// per conversation.
func (s *CallService) Initiate(ctx context.Context, conversationID, initiatorID uuid.UUID, callType string) (*domain.CallSnapshot, error) {
	if callType != domain.CallVoice && callType != domain.CallVideo {
		return nil, ErrInvalidCallType
	}

	if err := s.checkConversationParticipant(ctx, initiatorID, conversationID); err != nil {
		return nil, err
	}

	active, err := s.callRepo.GetActiveByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrCallInProgress
	}

	now := time.Now()
	call := &domain.Call{
		ID:             uuid.New(),
		ConversationID: conversationID,
		InitiatorID:    initiatorID,
		Type:           callType,
		Status:         domain.CallActive,
		StartedAt:      now,
	}
	initiator := &domain.CallParticipant{
		CallID:       call.ID,
		UserID:       initiatorID,
		JoinedAt:     now,
		VideoEnabled: callType == domain.CallVideo,
	}

	if err := s.callRepo.Create(ctx, call, initiator); err != nil {
		return nil, fmt.Errorf("creating call: %w", err)
	}

	s.appendCallEvent(ctx, call)

	if s.notifier != nil {
		s.notifier.NotifyCallStarted(call)
	}

	return s.snapshot(ctx, call)
}

// Join adds a user to an active call. Re-joining after a leave reopens the
// same participant row.
func (s *CallService) Join(ctx context.Context, callID, userID uuid.UUID) (*domain.CallSnapshot, error) {
	call, err := s.activeCall(ctx, callID)
	if err != nil {
		return nil, err
	}

	if err := s.checkConversationParticipant(ctx, userID, call.ConversationID); err != nil {
		return nil, err
	}

	p := &domain.CallParticipant{
		CallID:       callID,
		UserID:       userID,
		JoinedAt:     time.Now(),
		VideoEnabled: call.Type == domain.CallVideo,
	}
	if err := s.callRepo.UpsertParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("joining call: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyCallJoined(call, userID)
	}

	return s.snapshot(ctx, call)
}

// Decline records that a callee refused the call. If nobody besides the
// initiator ever joined, the call terminates as declined.
func (s *CallService) Decline(ctx context.Context, callID, userID uuid.UUID) error {
	call, err := s.activeCall(ctx, callID)
	if err != nil {
		return err
	}

	if err := s.checkConversationParticipant(ctx, userID, call.ConversationID); err != nil {
		return err
	}

	p, err := s.callRepo.GetParticipant(ctx, callID, userID)
	if err != nil {
		return err
	}
	if p != nil && p.LeftAt == nil {
		return ErrAlreadyInCall
	}

	others, err := s.callRepo.CountOthersEverJoined(ctx, callID, call.InitiatorID)
	if err != nil {
		return err
	}
	if others == 0 {
		if err := s.finish(ctx, call, domain.CallDeclined); err != nil {
			return err
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyCallDeclined(call, userID)
	}
	return nil
}

// Leave closes the caller's own participant row. When the active set empties,
// the call ends: missed if nobody but the initiator ever joined, ended
// otherwise, with duration computed from the timestamps.
func (s *CallService) Leave(ctx context.Context, callID, userID uuid.UUID) error {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		return err
	}
	if call == nil {
		return ErrCallNotFound
	}

	p, err := s.callRepo.GetParticipant(ctx, callID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotCallParticipant
	}
	if p.LeftAt != nil {
		return nil
	}

	if err := s.callRepo.MarkLeft(ctx, callID, userID, time.Now()); err != nil {
		return fmt.Errorf("leaving call: %w", err)
	}

	joined, err := s.callRepo.CountJoined(ctx, callID)
	if err != nil {
		return err
	}
	if joined > 0 {
		if s.notifier != nil {
			s.notifier.NotifyCallLeft(call, userID)
		}
		return nil
	}

	if call.Status == domain.CallActive {
		others, err := s.callRepo.CountOthersEverJoined(ctx, callID, call.InitiatorID)
		if err != nil {
			return err
		}
		status := domain.CallEnded
		if others == 0 {
			status = domain.CallMissed
		}
		if err := s.finish(ctx, call, status); err != nil {
			return err
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyCallEnded(call)
	}
	return nil
}

// SetMute flips the caller's own mute flag.
func (s *CallService) SetMute(ctx context.Context, callID, userID uuid.UUID, muted bool) error {
	call, p, err := s.ownParticipant(ctx, callID, userID)
	if err != nil {
		return err
	}

	if err := s.callRepo.SetMuted(ctx, callID, userID, muted); err != nil {
		return fmt.Errorf("setting mute: %w", err)
	}
	p.Muted = muted

	if s.notifier != nil {
		s.notifier.NotifyCallParticipantUpdated(call, p)
	}
	return nil
}

// SetVideo flips the caller's own video flag.
func (s *CallService) SetVideo(ctx context.Context, callID, userID uuid.UUID, enabled bool) error {
	call, p, err := s.ownParticipant(ctx, callID, userID)
	if err != nil {
		return err
	}

	if err := s.callRepo.SetVideo(ctx, callID, userID, enabled); err != nil {
		return fmt.Errorf("setting video: %w", err)
	}
	p.VideoEnabled = enabled

	if s.notifier != nil {
		s.notifier.NotifyCallParticipantUpdated(call, p)
	}
	return nil
}

// Get returns the membership snapshot for a call, conversation-participant
// only.
func (s *CallService) Get(ctx context.Context, callID, callerID uuid.UUID) (*domain.CallSnapshot, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, ErrCallNotFound
	}

	if err := s.checkConversationParticipant(ctx, callerID, call.ConversationID); err != nil {
		return nil, err
	}

	return s.snapshot(ctx, call)
}

func (s *CallService) finish(ctx context.Context, call *domain.Call, status string) error {
	now := time.Now()
	duration := int64(now.Sub(call.StartedAt).Seconds())
	if err := s.callRepo.Finish(ctx, call.ID, status, now, duration); err != nil {
		return fmt.Errorf("finishing call: %w", err)
	}
	call.Status = status
	call.EndedAt = &now
	call.DurationSeconds = &duration
	return nil
}

// appendCallEvent records the call in the conversation's message log so it
// shows up in history. Best-effort; the call itself is already durable.
func (s *CallService) appendCallEvent(ctx context.Context, call *domain.Call) {
	content := call.ID.String()
	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: call.ConversationID,
		SenderID:       call.InitiatorID,
		Type:           domain.MessageCallEvent,
		Content:        &content,
		CreatedAt:      time.Now(),
	}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return
	}
	if s.notifier != nil {
		if full, err := s.msgRepo.GetByID(ctx, msg.ID); err == nil && full != nil {
			s.notifier.NotifyNewMessage(full)
		}
	}
}

func (s *CallService) checkConversationParticipant(ctx context.Context, userID, conversationID uuid.UUID) error {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	p, err := s.convRepo.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNotParticipant
	}
	return nil
}

func (s *CallService) activeCall(ctx context.Context, callID uuid.UUID) (*domain.Call, error) {
	call, err := s.callRepo.GetByID(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call == nil {
		return nil, ErrCallNotFound
	}
	if call.Status != domain.CallActive {
		return nil, ErrCallNotActive
	}
	return call, nil
}

func (s *CallService) ownParticipant(ctx context.Context, callID, userID uuid.UUID) (*domain.Call, *domain.CallParticipant, error) {
	call, err := s.activeCall(ctx, callID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.callRepo.GetParticipant(ctx, callID, userID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil || p.LeftAt != nil {
		return nil, nil, ErrNotCallParticipant
	}
	return call, p, nil
}

func (s *CallService) snapshot(ctx context.Context, call *domain.Call) (*domain.CallSnapshot, error) {
	participants, err := s.callRepo.ListParticipants(ctx, call.ID)
	if err != nil {
		return nil, err
	}
	if participants == nil {
		participants = []domain.CallParticipant{}
	}
	return &domain.CallSnapshot{
		Call:         *call,
		Participants: participants,
	}, nil
}
