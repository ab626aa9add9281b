package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	convDomain "github.com/davicafu/tiendalab/internal/conversation/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
)

// InMemoryConversationRepo simula el repo de conversaciones con su outbox.
type InMemoryConversationRepo struct {
	mu            sync.RWMutex
	Conversations map[uuid.UUID]*convDomain.Conversation
	Messages      map[uuid.UUID][]*convDomain.Message
	Outbox        []sharedDomain.OutboxMessage
}

func NewInMemoryConversationRepo() *InMemoryConversationRepo {
	return &InMemoryConversationRepo{
		Conversations: make(map[uuid.UUID]*convDomain.Conversation),
		Messages:      make(map[uuid.UUID][]*convDomain.Message),
	}
}

func (r *InMemoryConversationRepo) CreateConversation(ctx context.Context, conv *convDomain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Conversations[conv.ID] = conv
	return nil
}

func (r *InMemoryConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*convDomain.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.Conversations[id]
	if !ok {
		return nil, convDomain.ErrConversationNotFound
	}
	return conv, nil
}

func (r *InMemoryConversationRepo) AppendMessage(ctx context.Context, m *convDomain.Message, msg sharedDomain.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Conversations[m.ConversationID]; !ok {
		return convDomain.ErrConversationNotFound
	}
	r.Messages[m.ConversationID] = append(r.Messages[m.ConversationID], m)
	r.Outbox = append(r.Outbox, msg)
	return nil
}

func (r *InMemoryConversationRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*convDomain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	msgs := r.Messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*convDomain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Verificación estática
var _ convDomain.ConversationRepository = (*InMemoryConversationRepo)(nil)
