package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	convDomain "github.com/davicafu/tiendalab/internal/conversation/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	outboxPg "github.com/davicafu/tiendalab/internal/shared/infra/db/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type ConversationRepoPostgres struct {
	db *sql.DB
}

func NewConversationRepoPostgres(db *sql.DB) *ConversationRepoPostgres {
	return &ConversationRepoPostgres{db: db}
}

func (r *ConversationRepoPostgres) CreateConversation(ctx context.Context, conv *convDomain.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at) VALUES ($1, $2)`,
		conv.ID, conv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *ConversationRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*convDomain.Conversation, error) {
	var conv convDomain.Conversation
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conversations WHERE id=$1`, id,
	).Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, convDomain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &conv, nil
}

// AppendMessage inserta mensaje y evento en transacción
func (r *ConversationRepoPostgres) AppendMessage(ctx context.Context, m *convDomain.Message, msg sharedDomain.OutboxMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM conversations WHERE id=$1)`, m.ConversationID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if !exists {
		err = convDomain.ErrConversationNotFound
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.ConversationID, string(m.Role), m.Content, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if _, err = outboxPg.EnqueueOutboxTx(ctx, tx, msg); err != nil {
		return err
	}

	return tx.Commit()
}

// ListMessages devuelve los últimos limit mensajes en orden de inserción.
func (r *ConversationRepoPostgres) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*convDomain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM (
			SELECT id, conversation_id, role, content, created_at, seq
			FROM messages
			WHERE conversation_id=$1
			ORDER BY seq DESC
			LIMIT $2
		 ) recent ORDER BY seq ASC`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var messages []*convDomain.Message
	for rows.Next() {
		var m convDomain.Message
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = convDomain.Role(role)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// ------------------ Inicialización ------------------

func InitConversationsPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS conversations (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		seq BIGSERIAL,
		id UUID PRIMARY KEY,
		conversation_id UUID NOT NULL REFERENCES conversations(id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, seq)`)
	return err
}

// Verificación en tiempo de compilación.
var _ convDomain.ConversationRepository = (*ConversationRepoPostgres)(nil)
