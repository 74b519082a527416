package domain

import "github.com/google/uuid"

// TypingUser is one currently-typing participant, resolved for display.
type TypingUser struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
}
