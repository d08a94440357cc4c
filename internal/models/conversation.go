package models

import "time"

// ConversationHistory is one turn of a chat exchange, persisted so the AI
// layer can restore recent context after a restart.
type ConversationHistory struct {
	MessageID int64     `json:"message_id"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"` // user | assistant
	Content   string    `json:"content"`
	Platform  string    `json:"platform"` // telegram | slack
	CreatedAt time.Time `json:"created_at"`
}
