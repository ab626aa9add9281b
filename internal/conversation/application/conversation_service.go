package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/tiendalab/internal/conversation/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	sharedEvents "github.com/davicafu/tiendalab/internal/shared/events"
)

// ConversationService define los casos de uso relacionados con Conversation.
type ConversationService struct {
	repo domain.ConversationRepository
}

// NewConversationService constructor
func NewConversationService(repo domain.ConversationRepository) *ConversationService {
	return &ConversationService{repo: repo}
}

func (s *ConversationService) CreateConversation(ctx context.Context) (*domain.Conversation, error) {
	conv := &domain.Conversation{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// AddMessage añade un mensaje al transcript y encola el evento
// conversation.message-created en la misma transacción.
func (s *ConversationService) AddMessage(ctx context.Context, conversationID uuid.UUID, role domain.Role, content string) (*domain.Message, error) {
	if content == "" || !role.IsValid() {
		return nil, domain.ErrInvalidMessage
	}

	message := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}

	evt, err := sharedEvents.NewIntegrationEvent(sharedEvents.MessageCreatedType, sharedEvents.MessageCreated{
		ConversationID: conversationID,
		MessageID:      message.ID,
		Role:           string(role),
		Content:        content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build message-created event: %w", err)
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message-created event: %w", err)
	}

	msg := sharedDomain.OutboxMessage{Topic: domain.ConversationTopic, Payload: payload}
	if err := s.repo.AppendMessage(ctx, message, msg); err != nil {
		return nil, err
	}
	return message, nil
}

// Transcript devuelve los últimos limit mensajes en orden cronológico.
func (s *ConversationService) Transcript(ctx context.Context, conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	return s.repo.ListMessages(ctx, conversationID, limit)
}
