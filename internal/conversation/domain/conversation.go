package domain

import (
	"time"

	"github.com/google/uuid"
)

// Topic donde se publican los eventos de conversación.
const ConversationTopic = "conversation-events"

// Role identifica quién escribió un mensaje.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Conversation agrupa los mensajes de una sesión de chat.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Message es inmutable una vez añadido; el orden de inserción es el orden
// del transcript.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
