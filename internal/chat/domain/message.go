package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// WelcomeID is the id of the greeting that opens every transcript.
const WelcomeID = "welcome"

// Message is one transcript line. Messages are never edited or removed.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage stamps a message with a role-prefixed id ("u-…", "a-…").
func NewMessage(role Role, content string, at time.Time) Message {
	prefix := "u-"
	if role == RoleAssistant {
		prefix = "a-"
	}
	return Message{
		ID:        prefix + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: at.UTC(),
	}
}

// Session is a transcript and its id.
type Session struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`
}
