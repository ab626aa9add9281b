package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	convDomain "github.com/davicafu/tiendalab/internal/conversation/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	outboxSqlite "github.com/davicafu/tiendalab/internal/shared/infra/db/sqlite"

	_ "modernc.org/sqlite"
)

type ConversationRepoSQLite struct {
	db *sql.DB
}

func NewConversationRepoSQLite(db *sql.DB) *ConversationRepoSQLite {
	return &ConversationRepoSQLite{db: db}
}

func (r *ConversationRepoSQLite) CreateConversation(ctx context.Context, conv *convDomain.Conversation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at) VALUES (?, ?)`,
		conv.ID.String(), conv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *ConversationRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*convDomain.Conversation, error) {
	var conv convDomain.Conversation
	var idStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM conversations WHERE id=?`, id.String(),
	).Scan(&idStr, &conv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, convDomain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	conv.ID, _ = uuid.Parse(idStr)
	return &conv, nil
}

// AppendMessage inserta mensaje y evento en transacción
func (r *ConversationRepoSQLite) AppendMessage(ctx context.Context, m *convDomain.Message, msg sharedDomain.OutboxMessage) error {
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
		`SELECT EXISTS(SELECT 1 FROM conversations WHERE id=?)`, m.ConversationID.String(),
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
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID.String(), m.ConversationID.String(), string(m.Role), m.Content, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if _, err = outboxSqlite.EnqueueOutboxTx(ctx, tx, msg); err != nil {
		return err
	}

	return tx.Commit()
}

// ListMessages devuelve los últimos limit mensajes en orden de inserción.
func (r *ConversationRepoSQLite) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]*convDomain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM (
			SELECT id, conversation_id, role, content, created_at, seq
			FROM messages
			WHERE conversation_id=?
			ORDER BY seq DESC
			LIMIT ?
		 ) ORDER BY seq ASC`,
		conversationID.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var messages []*convDomain.Message
	for rows.Next() {
		var m convDomain.Message
		var idStr, convIDStr, role string
		if err := rows.Scan(&idStr, &convIDStr, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ID, _ = uuid.Parse(idStr)
		m.ConversationID, _ = uuid.Parse(convIDStr)
		m.Role = convDomain.Role(role)
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// ------------------ Inicialización ------------------

func InitConversationsSQLite(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		conversation_id TEXT NOT NULL REFERENCES conversations(id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, seq)`)
	return err
}

// Verificación en tiempo de compilación.
var _ convDomain.ConversationRepository = (*ConversationRepoSQLite)(nil)
