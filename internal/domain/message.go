package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message type discriminants. The payload shape per tag: text carries plain
// or encrypted content, image/file carry an attachment URL in Content,
// call_event carries the call id in Content.
const (
	MessageText      = "text"
	MessageImage     = "image"
	MessageFile      = "file"
	MessageCallEvent = "call_event"
)

const MaxMessageLength = 2000

type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Type           string    `json:"type"`
	Content        *string   `json:"content,omitempty"`
	// EncryptedContent/KeyID are stored opaquely; the server never derives
	// meaning from the ciphertext.
	EncryptedContent []byte     `json:"encrypted_content,omitempty"`
	KeyID            *string    `json:"key_id,omitempty"`
	ReplyToID        *uuid.UUID `json:"reply_to_id,omitempty"`
	EditedAt         *time.Time `json:"edited_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	// Seq is assigned by storage on insert and breaks created_at ties.
	Seq int64 `json:"seq"`
	// Joined fields
	SenderUsername    string `json:"sender_username,omitempty"`
	SenderDisplayName string `json:"sender_display_name,omitempty"`
}

type Reaction struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    uuid.UUID `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// GroupedReaction is the display aggregation: one entry per emoji with the
// distinct users holding it.
type GroupedReaction struct {
	Emoji   string      `json:"emoji"`
	Count   int         `json:"count"`
	UserIDs []uuid.UUID `json:"user_ids"`
}

// GroupReactions aggregates raw reaction rows by emoji, preserving first-seen
// emoji order.
func GroupReactions(reactions []Reaction) []GroupedReaction {
	var order []string
	byEmoji := make(map[string]*GroupedReaction)
	for _, r := range reactions {
		g, ok := byEmoji[r.Emoji]
		if !ok {
			g = &GroupedReaction{Emoji: r.Emoji}
			byEmoji[r.Emoji] = g
			order = append(order, r.Emoji)
		}
		g.Count++
		g.UserIDs = append(g.UserIDs, r.UserID)
	}
	groups := make([]GroupedReaction, 0, len(order))
	for _, emoji := range order {
		groups = append(groups, *byEmoji[emoji])
	}
	return groups
}
