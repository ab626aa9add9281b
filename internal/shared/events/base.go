package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tipos de evento de integración.
const (
	ProductCreatedType = "product.created"
	MessageCreatedType = "conversation.message-created"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento
}

// NewIntegrationEvent serializa data y la envuelve en un IntegrationEvent.
func NewIntegrationEvent(eventType string, data interface{}) (IntegrationEvent, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return IntegrationEvent{}, err
	}
	return IntegrationEvent{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// ProductCreated se publica al crear un producto; dispara la generación
// de su embedding.
type ProductCreated struct {
	ProductID uuid.UUID `json:"product_id"`
}

// MessageCreated se publica al añadir un mensaje a una conversación.
type MessageCreated struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
}
