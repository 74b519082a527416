package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	CallVoice = "voice"
	CallVideo = "video"
)

const (
	CallPending  = "pending"
	CallActive   = "active"
	CallEnded    = "ended"
	CallMissed   = "missed"
	CallDeclined = "declined"
)

type Call struct {
	ID              uuid.UUID  `json:"id"`
	ConversationID  uuid.UUID  `json:"conversation_id"`
	InitiatorID     uuid.UUID  `json:"initiator_id"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
}

type CallParticipant struct {
	CallID       uuid.UUID  `json:"call_id"`
	UserID       uuid.UUID  `json:"user_id"`
	JoinedAt     time.Time  `json:"joined_at"`
	LeftAt       *time.Time `json:"left_at,omitempty"`
	Muted        bool       `json:"muted"`
	VideoEnabled bool       `json:"video_enabled"`
	// Joined fields
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// CallSnapshot is what the external media layer consumes: the call plus its
// nominal membership.
type CallSnapshot struct {
	Call
	Participants []CallParticipant `json:"participants"`
}
