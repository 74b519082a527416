package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
	FriendRequestBlocked  = "blocked"
)

// FriendRequest is a directed edge between two users. At most one row exists
// per unordered pair; friendship is the row being in accepted state.
type FriendRequest struct {
	ID         uuid.UUID  `json:"id"`
	SenderID   uuid.UUID  `json:"sender_id"`
	ReceiverID uuid.UUID  `json:"receiver_id"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	BlockedAt  *time.Time `json:"blocked_at,omitempty"`
	// Joined fields
	SenderUsername      string `json:"sender_username,omitempty"`
	SenderDisplayName   string `json:"sender_display_name,omitempty"`
	ReceiverUsername    string `json:"receiver_username,omitempty"`
	ReceiverDisplayName string `json:"receiver_display_name,omitempty"`
}

// Friend is the other side of an accepted request, resolved for display.
type Friend struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Status      string    `json:"status"`
	Since       time.Time `json:"since"`
}
