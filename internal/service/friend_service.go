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
	ErrCannotFriendSelf   = errors.New("cannot send a friend request to yourself")
	ErrRequestExists      = errors.New("a request already exists between these users")
	ErrAlreadyFriends     = errors.New("you are already friends")
	ErrBlocked            = errors.New("this pair is blocked")
	ErrRequestNotFound    = errors.New("friend request not found")
	ErrNotRequestReceiver = errors.New("only the request receiver can perform this action")
	ErrRequestNotPending  = errors.New("friend request is not pending")
)

type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
	notifier   Notifier
}

func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

func (s *FriendService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SendRequest sends a friend request by target username. A rejected row
// between the pair is reused and flipped back to pending from the new sender;
// any other existing row blocks the send.
func (s *FriendService) SendRequest(ctx context.Context, senderID uuid.UUID, targetUsername string) (*domain.FriendRequest, error) {
	target, err := s.userRepo.GetByUsername(ctx, targetUsername)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	if senderID == target.ID {
		return nil, ErrCannotFriendSelf
	}

	existing, err := s.friendRepo.GetRequestBetween(ctx, senderID, target.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var req *domain.FriendRequest

	switch {
	case existing == nil:
		req = &domain.FriendRequest{
			ID:         uuid.New(),
			SenderID:   senderID,
			ReceiverID: target.ID,
			Status:     domain.FriendRequestPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.friendRepo.CreateRequest(ctx, req); err != nil {
			return nil, fmt.Errorf("creating friend request: %w", err)
		}

	case existing.Status == domain.FriendRequestRejected:
		// Reuse the row, re-pointed from the new sender.
		existing.SenderID = senderID
		existing.ReceiverID = target.ID
		existing.Status = domain.FriendRequestPending
		existing.UpdatedAt = now
		if err := s.friendRepo.UpdateRequest(ctx, existing); err != nil {
			return nil, fmt.Errorf("updating friend request: %w", err)
		}
		req = existing

	case existing.Status == domain.FriendRequestAccepted:
		return nil, ErrAlreadyFriends
	case existing.Status == domain.FriendRequestBlocked:
		return nil, ErrBlocked
	default:
		return nil, ErrRequestExists
	}

	req.ReceiverUsername = target.Username
	req.ReceiverDisplayName = target.DisplayName

	if s.notifier != nil {
		s.notifier.NotifyFriendRequest(req)
	}

	return req, nil
}

// AcceptRequest transitions a pending request to accepted. Only the receiver
// may accept.
func (s *FriendService) AcceptRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	req, err := s.respondable(ctx, userID, requestID)
	if err != nil {
		return err
	}

	req.Status = domain.FriendRequestAccepted
	req.UpdatedAt = time.Now()
	if err := s.friendRepo.UpdateRequest(ctx, req); err != nil {
		return fmt.Errorf("accepting friend request: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyFriendAccepted(req)
	}
	return nil
}

// RejectRequest transitions a pending request to rejected. Only the receiver
// may reject. The row stays so a later resend can reuse it.
func (s *FriendService) RejectRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	req, err := s.respondable(ctx, userID, requestID)
	if err != nil {
		return err
	}

	req.Status = domain.FriendRequestRejected
	req.UpdatedAt = time.Now()
	if err := s.friendRepo.UpdateRequest(ctx, req); err != nil {
		return fmt.Errorf("rejecting friend request: %w", err)
	}
	return nil
}

// Unfriend deletes the accepted row between two users. No-op when none exists.
func (s *FriendService) Unfriend(ctx context.Context, userID, otherUserID uuid.UUID) error {
	req, err := s.friendRepo.GetRequestBetween(ctx, userID, otherUserID)
	if err != nil {
		return err
	}
	if req == nil || req.Status != domain.FriendRequestAccepted {
		return nil
	}

	if err := s.friendRepo.DeleteRequest(ctx, req.ID); err != nil {
		return fmt.Errorf("removing friend: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyFriendRemoved(userID, otherUserID)
	}
	return nil
}

// Block overwrites whatever row exists for the pair with a blocked one owned
// by the blocker. Idempotent; the blocked timestamp only moves forward.
func (s *FriendService) Block(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrCannotFriendSelf
	}

	target, err := s.userRepo.GetByID(ctx, blockedID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}

	now := time.Now()

	existing, err := s.friendRepo.GetRequestBetween(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}

	if existing != nil && existing.Status == domain.FriendRequestBlocked && existing.SenderID == blockerID {
		existing.UpdatedAt = now
		existing.BlockedAt = &now
		if err := s.friendRepo.UpdateRequest(ctx, existing); err != nil {
			return fmt.Errorf("refreshing block: %w", err)
		}
	} else {
		req := &domain.FriendRequest{
			ID:         uuid.New(),
			SenderID:   blockerID,
			ReceiverID: blockedID,
			Status:     domain.FriendRequestBlocked,
			CreatedAt:  now,
			UpdatedAt:  now,
			BlockedAt:  &now,
		}
		if err := s.friendRepo.ReplaceWithBlock(ctx, req); err != nil {
			return fmt.Errorf("blocking user: %w", err)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyUserBlocked(blockerID, blockedID)
	}
	return nil
}

// IsFriend reports whether an accepted request exists in either direction.
func (s *FriendService) IsFriend(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	return s.friendRepo.AreFriends(ctx, userA, userB)
}

// ListFriends returns all accepted friends for a user.
func (s *FriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error) {
	friends, err := s.friendRepo.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	if friends == nil {
		friends = []domain.Friend{}
	}
	return friends, nil
}

// ListIncomingRequests returns pending requests received by the user.
func (s *FriendService) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	reqs, err := s.friendRepo.ListIncoming(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []domain.FriendRequest{}
	}
	return reqs, nil
}

// ListOutgoingRequests returns pending requests sent by the user.
func (s *FriendService) ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	reqs, err := s.friendRepo.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []domain.FriendRequest{}
	}
	return reqs, nil
}

func (s *FriendService) respondable(ctx context.Context, userID, requestID uuid.UUID) (*domain.FriendRequest, error) {
	req, err := s.friendRepo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.ReceiverID != userID {
		return nil, ErrNotRequestReceiver
	}
	if req.Status != domain.FriendRequestPending {
		return nil, ErrRequestNotPending
	}
	return req, nil
}
