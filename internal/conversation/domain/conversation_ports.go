package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
)

// ---------- Errores de dominio ----------
var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInvalidMessage       = errors.New("invalid message")
)

// ---------- Interfaces (Ports) ----------

// ConversationRepository define las operaciones persistentes para
// Conversation y sus mensajes.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, conv *Conversation) error

	// Debe devolver ErrConversationNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// AppendMessage inserta el mensaje y su evento de outbox en la misma
	// transacción. Debe devolver ErrConversationNotFound si la conversación
	// no existe.
	AppendMessage(ctx context.Context, m *Message, msg sharedDomain.OutboxMessage) error

	// ListMessages devuelve los últimos limit mensajes en orden de inserción
	// (el más antiguo primero).
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*Message, error)
}
