package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/domain"
	"github.com/semi556tgb/pure-converse/internal/repository"
)

// In-memory repository fakes. Not safe for concurrent use; the tests are
// single-goroutine.

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if u, ok := r.users[id]; ok {
		u.Status = status
	}
	return nil
}

func (r *fakeUserRepo) Search(_ context.Context, query string, limit int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if strings.Contains(u.Username, query) || strings.Contains(u.DisplayName, query) {
			out = append(out, *u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeFriendRepo struct {
	requests map[uuid.UUID]*domain.FriendRequest
}

func newFakeFriendRepo() *fakeFriendRepo {
	return &fakeFriendRepo{requests: make(map[uuid.UUID]*domain.FriendRequest)}
}

func (r *fakeFriendRepo) CreateRequest(_ context.Context, req *domain.FriendRequest) error {
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeFriendRepo) UpdateRequest(_ context.Context, req *domain.FriendRequest) error {
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeFriendRepo) GetRequestByID(_ context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	if req, ok := r.requests[id]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeFriendRepo) GetRequestBetween(_ context.Context, userA, userB uuid.UUID) (*domain.FriendRequest, error) {
	for _, req := range r.requests {
		if (req.SenderID == userA && req.ReceiverID == userB) ||
			(req.SenderID == userB && req.ReceiverID == userA) {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendRepo) DeleteRequest(_ context.Context, id uuid.UUID) error {
	delete(r.requests, id)
	return nil
}

func (r *fakeFriendRepo) ReplaceWithBlock(_ context.Context, req *domain.FriendRequest) error {
	for id, existing := range r.requests {
		if (existing.SenderID == req.SenderID && existing.ReceiverID == req.ReceiverID) ||
			(existing.SenderID == req.ReceiverID && existing.ReceiverID == req.SenderID) {
			delete(r.requests, id)
		}
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeFriendRepo) ListFriends(_ context.Context, userID uuid.UUID) ([]domain.Friend, error) {
	var out []domain.Friend
	for _, req := range r.requests {
		if req.Status != domain.FriendRequestAccepted {
			continue
		}
		switch userID {
		case req.SenderID:
			out = append(out, domain.Friend{UserID: req.ReceiverID, Since: req.UpdatedAt})
		case req.ReceiverID:
			out = append(out, domain.Friend{UserID: req.SenderID, Since: req.UpdatedAt})
		}
	}
	return out, nil
}

func (r *fakeFriendRepo) ListIncoming(_ context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	var out []domain.FriendRequest
	for _, req := range r.requests {
		if req.ReceiverID == userID && req.Status == domain.FriendRequestPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeFriendRepo) ListOutgoing(_ context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	var out []domain.FriendRequest
	for _, req := range r.requests {
		if req.SenderID == userID && req.Status == domain.FriendRequestPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *fakeFriendRepo) AreFriends(_ context.Context, userA, userB uuid.UUID) (bool, error) {
	for _, req := range r.requests {
		if req.Status != domain.FriendRequestAccepted {
			continue
		}
		if (req.SenderID == userA && req.ReceiverID == userB) ||
			(req.SenderID == userB && req.ReceiverID == userA) {
			return true, nil
		}
	}
	return false, nil
}

type fakeConversationRepo struct {
	convs        map[uuid.UUID]*domain.Conversation
	participants map[uuid.UUID]map[uuid.UUID]*domain.Participant
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:        make(map[uuid.UUID]*domain.Conversation),
		participants: make(map[uuid.UUID]map[uuid.UUID]*domain.Participant),
	}
}

func (r *fakeConversationRepo) Create(_ context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	if conv.DirectKey != nil {
		for _, existing := range r.convs {
			if existing.DirectKey != nil && *existing.DirectKey == *conv.DirectKey {
				return repository.ErrDuplicate
			}
		}
	}
	cp := *conv
	r.convs[conv.ID] = &cp
	members := make(map[uuid.UUID]*domain.Participant, len(participantIDs))
	for _, id := range participantIDs {
		members[id] = &domain.Participant{
			ConversationID: conv.ID,
			UserID:         id,
			JoinedAt:       conv.CreatedAt,
		}
	}
	r.participants[conv.ID] = members
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	if conv, ok := r.convs[id]; ok {
		cp := *conv
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeConversationRepo) GetDirectByKey(_ context.Context, key string) (*domain.Conversation, error) {
	for _, conv := range r.convs {
		if conv.DirectKey != nil && *conv.DirectKey == key {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	var out []domain.Conversation
	for id, members := range r.participants {
		if _, ok := members[userID]; ok {
			out = append(out, *r.convs[id])
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	if conv, ok := r.convs[id]; ok {
		conv.Name = &name
		conv.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeConversationRepo) Touch(_ context.Context, id uuid.UUID) error {
	if conv, ok := r.convs[id]; ok {
		conv.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeConversationRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.convs, id)
	delete(r.participants, id)
	return nil
}

func (r *fakeConversationRepo) GetParticipant(_ context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error) {
	if members, ok := r.participants[conversationID]; ok {
		if p, ok := members[userID]; ok {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeConversationRepo) ListParticipants(_ context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	var out []domain.Participant
	for _, p := range r.participants[conversationID] {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeConversationRepo) RemoveParticipant(_ context.Context, conversationID, userID uuid.UUID) error {
	if members, ok := r.participants[conversationID]; ok {
		delete(members, userID)
	}
	return nil
}

type reactionKey struct {
	messageID uuid.UUID
	userID    uuid.UUID
	emoji     string
}

type fakeMessageRepo struct {
	messages  map[uuid.UUID]*domain.Message
	reactions map[reactionKey]*domain.Reaction
	nextSeq   int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:  make(map[uuid.UUID]*domain.Message),
		reactions: make(map[reactionKey]*domain.Reaction),
	}
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.nextSeq++
	msg.Seq = r.nextSeq
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	if msg, ok := r.messages[id]; ok {
		cp := *msg
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	var all []domain.Message
	for _, msg := range r.messages {
		if msg.ConversationID == conversationID {
			all = append(all, *msg)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].Seq < all[j].Seq
	})

	if before != nil {
		cursor, ok := r.messages[*before]
		if !ok {
			return nil, nil
		}
		var older []domain.Message
		for _, msg := range all {
			if msg.CreatedAt.Before(cursor.CreatedAt) ||
				(msg.CreatedAt.Equal(cursor.CreatedAt) && msg.Seq < cursor.Seq) {
				older = append(older, msg)
			}
		}
		all = older
	}

	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *fakeMessageRepo) Update(_ context.Context, msg *domain.Message) error {
	if stored, ok := r.messages[msg.ID]; ok {
		now := time.Now()
		stored.Content = msg.Content
		stored.EditedAt = &now
	}
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.messages, id)
	for key := range r.reactions {
		if key.messageID == id {
			delete(r.reactions, key)
		}
	}
	return nil
}

func (r *fakeMessageRepo) GetReaction(_ context.Context, messageID, userID uuid.UUID, emoji string) (*domain.Reaction, error) {
	if reaction, ok := r.reactions[reactionKey{messageID, userID, emoji}]; ok {
		cp := *reaction
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeMessageRepo) AddReaction(_ context.Context, reaction *domain.Reaction) error {
	key := reactionKey{reaction.MessageID, reaction.UserID, reaction.Emoji}
	if _, ok := r.reactions[key]; ok {
		return nil
	}
	cp := *reaction
	r.reactions[key] = &cp
	return nil
}

func (r *fakeMessageRepo) RemoveReaction(_ context.Context, messageID, userID uuid.UUID, emoji string) error {
	delete(r.reactions, reactionKey{messageID, userID, emoji})
	return nil
}

func (r *fakeMessageRepo) ListReactions(_ context.Context, messageID uuid.UUID) ([]domain.Reaction, error) {
	var out []domain.Reaction
	for key, reaction := range r.reactions {
		if key.messageID == messageID {
			out = append(out, *reaction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type fakeCallRepo struct {
	calls        map[uuid.UUID]*domain.Call
	participants map[uuid.UUID]map[uuid.UUID]*domain.CallParticipant
}

func newFakeCallRepo() *fakeCallRepo {
	return &fakeCallRepo{
		calls:        make(map[uuid.UUID]*domain.Call),
		participants: make(map[uuid.UUID]map[uuid.UUID]*domain.CallParticipant),
	}
}

func (r *fakeCallRepo) Create(_ context.Context, call *domain.Call, initiator *domain.CallParticipant) error {
	cp := *call
	r.calls[call.ID] = &cp
	icp := *initiator
	r.participants[call.ID] = map[uuid.UUID]*domain.CallParticipant{initiator.UserID: &icp}
	return nil
}

func (r *fakeCallRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Call, error) {
	if call, ok := r.calls[id]; ok {
		cp := *call
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeCallRepo) GetActiveByConversation(_ context.Context, conversationID uuid.UUID) (*domain.Call, error) {
	for _, call := range r.calls {
		if call.ConversationID == conversationID && call.Status == domain.CallActive {
			cp := *call
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCallRepo) Finish(_ context.Context, id uuid.UUID, status string, endedAt time.Time, durationSeconds int64) error {
	if call, ok := r.calls[id]; ok && call.Status == domain.CallActive {
		call.Status = status
		call.EndedAt = &endedAt
		call.DurationSeconds = &durationSeconds
	}
	return nil
}

func (r *fakeCallRepo) UpsertParticipant(_ context.Context, p *domain.CallParticipant) error {
	members, ok := r.participants[p.CallID]
	if !ok {
		members = make(map[uuid.UUID]*domain.CallParticipant)
		r.participants[p.CallID] = members
	}
	cp := *p
	cp.LeftAt = nil
	members[p.UserID] = &cp
	return nil
}

func (r *fakeCallRepo) GetParticipant(_ context.Context, callID, userID uuid.UUID) (*domain.CallParticipant, error) {
	if members, ok := r.participants[callID]; ok {
		if p, ok := members[userID]; ok {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeCallRepo) ListParticipants(_ context.Context, callID uuid.UUID) ([]domain.CallParticipant, error) {
	var out []domain.CallParticipant
	for _, p := range r.participants[callID] {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeCallRepo) MarkLeft(_ context.Context, callID, userID uuid.UUID, leftAt time.Time) error {
	if members, ok := r.participants[callID]; ok {
		if p, ok := members[userID]; ok && p.LeftAt == nil {
			p.LeftAt = &leftAt
		}
	}
	return nil
}

func (r *fakeCallRepo) SetMuted(_ context.Context, callID, userID uuid.UUID, muted bool) error {
	if members, ok := r.participants[callID]; ok {
		if p, ok := members[userID]; ok {
			p.Muted = muted
		}
	}
	return nil
}

func (r *fakeCallRepo) SetVideo(_ context.Context, callID, userID uuid.UUID, enabled bool) error {
	if members, ok := r.participants[callID]; ok {
		if p, ok := members[userID]; ok {
			p.VideoEnabled = enabled
		}
	}
	return nil
}

func (r *fakeCallRepo) CountJoined(_ context.Context, callID uuid.UUID) (int, error) {
	count := 0
	for _, p := range r.participants[callID] {
		if p.LeftAt == nil {
			count++
		}
	}
	return count, nil
}

func (r *fakeCallRepo) CountOthersEverJoined(_ context.Context, callID, initiatorID uuid.UUID) (int, error) {
	count := 0
	for id := range r.participants[callID] {
		if id != initiatorID {
			count++
		}
	}
	return count, nil
}

type typingKey struct {
	conversationID uuid.UUID
	userID         uuid.UUID
}

type fakePresenceRepo struct {
	typing map[typingKey]time.Time
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{typing: make(map[typingKey]time.Time)}
}

func (r *fakePresenceRepo) SetTyping(_ context.Context, conversationID, userID uuid.UUID, ttl time.Duration) error {
	r.typing[typingKey{conversationID, userID}] = time.Now().Add(ttl)
	return nil
}

func (r *fakePresenceRepo) ClearTyping(_ context.Context, conversationID, userID uuid.UUID) error {
	delete(r.typing, typingKey{conversationID, userID})
	return nil
}

func (r *fakePresenceRepo) ListTyping(_ context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	now := time.Now()
	var out []uuid.UUID
	for key, expiry := range r.typing {
		if key.conversationID != conversationID {
			continue
		}
		if expiry.Before(now) {
			delete(r.typing, key)
			continue
		}
		out = append(out, key.userID)
	}
	return out, nil
}

// fakeNotifier records which notifications fired.
type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) record(name string) { n.events = append(n.events, name) }

func (n *fakeNotifier) count(name string) int {
	total := 0
	for _, e := range n.events {
		if e == name {
			total++
		}
	}
	return total
}

func (n *fakeNotifier) NotifyNewMessage(*domain.Message)     { n.record("message.new") }
func (n *fakeNotifier) NotifyEditedMessage(*domain.Message)  { n.record("message.edited") }
func (n *fakeNotifier) NotifyDeletedMessage(_, _ uuid.UUID)  { n.record("message.deleted") }
func (n *fakeNotifier) NotifyReactions(_, _ uuid.UUID, _ []domain.GroupedReaction) {
	n.record("reaction.updated")
}

func (n *fakeNotifier) NotifyConversationCreated(*domain.Conversation, []uuid.UUID) {
	n.record("conversation.created")
}
func (n *fakeNotifier) NotifyConversationDeleted(uuid.UUID, []uuid.UUID) {
	n.record("conversation.deleted")
}
func (n *fakeNotifier) NotifyMemberKicked(_, _ uuid.UUID) { n.record("member.kicked") }

func (n *fakeNotifier) NotifyFriendRequest(*domain.FriendRequest)  { n.record("friend.request") }
func (n *fakeNotifier) NotifyFriendAccepted(*domain.FriendRequest) { n.record("friend.accepted") }
func (n *fakeNotifier) NotifyFriendRemoved(_, _ uuid.UUID)         { n.record("friend.removed") }
func (n *fakeNotifier) NotifyUserBlocked(_, _ uuid.UUID)           { n.record("friend.blocked") }

func (n *fakeNotifier) NotifyTyping(_, _ uuid.UUID, _ bool)  { n.record("typing") }
func (n *fakeNotifier) NotifyPresence(_ uuid.UUID, _ string) { n.record("presence") }

func (n *fakeNotifier) NotifyCallStarted(*domain.Call)               { n.record("call.started") }
func (n *fakeNotifier) NotifyCallJoined(*domain.Call, uuid.UUID)     { n.record("call.joined") }
func (n *fakeNotifier) NotifyCallDeclined(*domain.Call, uuid.UUID)   { n.record("call.declined") }
func (n *fakeNotifier) NotifyCallLeft(*domain.Call, uuid.UUID)       { n.record("call.left") }
func (n *fakeNotifier) NotifyCallEnded(*domain.Call)                 { n.record("call.ended") }
func (n *fakeNotifier) NotifyCallParticipantUpdated(*domain.Call, *domain.CallParticipant) {
	n.record("call.participant")
}
