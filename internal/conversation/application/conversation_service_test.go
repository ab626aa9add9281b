package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/tiendalab/internal/conversation/domain"
	sharedEvents "github.com/davicafu/tiendalab/internal/shared/events"
	"github.com/davicafu/tiendalab/tests/mocks"
)

func TestAddMessage_EnqueuesOutboxEvent(t *testing.T) {
	repo := mocks.NewInMemoryConversationRepo()
	service := NewConversationService(repo)

	conv, err := service.CreateConversation(context.Background())
	require.NoError(t, err)

	msg, err := service.AddMessage(context.Background(), conv.ID, domain.RoleUser, "busco un abrigo rojo")
	require.NoError(t, err)

	require.Len(t, repo.Outbox, 1)
	assert.Equal(t, domain.ConversationTopic, repo.Outbox[0].Topic)

	var evt sharedEvents.IntegrationEvent
	require.NoError(t, json.Unmarshal(repo.Outbox[0].Payload, &evt))
	assert.Equal(t, sharedEvents.MessageCreatedType, evt.Type)

	var data sharedEvents.MessageCreated
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	assert.Equal(t, conv.ID, data.ConversationID)
	assert.Equal(t, msg.ID, data.MessageID)
	assert.Equal(t, "user", data.Role)
}

func TestAddMessage_InvalidRole(t *testing.T) {
	repo := mocks.NewInMemoryConversationRepo()
	service := NewConversationService(repo)

	conv, err := service.CreateConversation(context.Background())
	require.NoError(t, err)

	_, err = service.AddMessage(context.Background(), conv.ID, "system", "hola")
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)
	assert.Empty(t, repo.Outbox)
}

func TestAddMessage_ConversationNotFound(t *testing.T) {
	repo := mocks.NewInMemoryConversationRepo()
	service := NewConversationService(repo)

	_, err := service.AddMessage(context.Background(), uuid.New(), domain.RoleUser, "hola")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestTranscript_KeepsInsertionOrder(t *testing.T) {
	repo := mocks.NewInMemoryConversationRepo()
	service := NewConversationService(repo)

	conv, err := service.CreateConversation(context.Background())
	require.NoError(t, err)

	contents := []string{"hola", "¿qué buscas?", "unas botas de invierno"}
	roles := []domain.Role{domain.RoleUser, domain.RoleAssistant, domain.RoleUser}
	for i := range contents {
		_, err := service.AddMessage(context.Background(), conv.ID, roles[i], contents[i])
		require.NoError(t, err)
	}

	msgs, err := service.Transcript(context.Background(), conv.ID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, contents[i], m.Content)
		assert.Equal(t, roles[i], m.Role)
	}

	// limit acota por el final: se conservan los más recientes
	last, err := service.Transcript(context.Background(), conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "¿qué buscas?", last[0].Content)
}
