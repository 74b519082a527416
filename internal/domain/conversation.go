package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// MaxGroupInvites is the number of friends a creator may invite, so a group
// holds at most MaxGroupInvites+1 participants.
const MaxGroupInvites = 5

type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Name      *string   `json:"name,omitempty"`
	CreatorID uuid.UUID `json:"creator_id"`
	// DirectKey is the sorted user id pair for direct conversations. Unique
	// in storage, which is what makes GetOrCreateDirect race-safe.
	DirectKey *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Participant struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
	// Joined fields
	Username    string  `json:"username,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Status      string  `json:"status,omitempty"`
}

// ConversationSummary is a conversation with resolved participants and the
// most recent message window, as rendered in the sidebar.
type ConversationSummary struct {
	Conversation
	Participants []Participant `json:"participants"`
	Messages     []Message     `json:"messages"`
}

// DirectKeyFor returns the canonical key for a direct conversation between
// two users, independent of argument order.
func DirectKeyFor(a, b uuid.UUID) string {
	u1, u2 := a.String(), b.String()
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	return strings.Join([]string{u1, u2}, ":")
}
