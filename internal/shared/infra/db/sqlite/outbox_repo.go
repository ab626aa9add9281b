package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"

	_ "modernc.org/sqlite"
)

// OutboxRepoSQLite implementa la interfaz sharedDomain.OutboxRepository.
// SQLite no tiene FOR UPDATE SKIP LOCKED, así que el claim se hace con un
// update condicional atómico sobre una columna de propietario: la fila pasa a
// ser del worker que gana el update, y los demás la saltan sin bloquearse.
// El contrato observable es el mismo que en Postgres.
type OutboxRepoSQLite struct {
	db         *sql.DB
	maxRetries int
	claimTTL   time.Duration // reservas más viejas se consideran huérfanas
}

func NewOutboxRepoSQLite(db *sql.DB, maxRetries int, claimTTL time.Duration) *OutboxRepoSQLite {
	return &OutboxRepoSQLite{db: db, maxRetries: maxRetries, claimTTL: claimTTL}
}

// InitOutboxSQLite crea la tabla outbox si no existe.
func InitOutboxSQLite(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS outbox (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			topic          TEXT NOT NULL,
			payload        BLOB NOT NULL,
			created_at     TIMESTAMP NOT NULL,
			sent           INTEGER NOT NULL DEFAULT 0,
			sent_at        TIMESTAMP,
			retry_count    INTEGER NOT NULL DEFAULT 0,
			last_error     TEXT,
			last_failed_at TIMESTAMP,
			claimed_by     TEXT,
			claimed_at     TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox (sent, id);
	`)
	return err
}

// EnqueueOutboxTx inserta un registro dentro de la transacción del repositorio
// de dominio (atómico con la escritura que origina el evento).
func EnqueueOutboxTx(ctx context.Context, tx *sql.Tx, msg sharedDomain.OutboxMessage) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO outbox (topic, payload, created_at, sent, retry_count)
		 VALUES (?, ?, ?, 0, 0)`,
		msg.Topic, msg.Payload, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert outbox record: %w", err)
	}
	return res.LastInsertId()
}

func (r *OutboxRepoSQLite) Enqueue(ctx context.Context, msg sharedDomain.OutboxMessage) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin tx: %w", err)
	}
	id, err := EnqueueOutboxTx(ctx, tx, msg)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	return id, tx.Commit()
}

// Claim reserva hasta limit filas pendientes marcándolas con un token propio.
// El update es atómico: dos claimers concurrentes nunca reservan la misma fila.
func (r *OutboxRepoSQLite) Claim(ctx context.Context, limit int) (sharedDomain.ClaimedBatch, error) {
	token := uuid.NewString()
	now := time.Now().UTC()
	stale := now.Add(-r.claimTTL)

	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET claimed_by = ?, claimed_at = ?
		 WHERE id IN (
			SELECT id FROM outbox
			WHERE sent = 0
			  AND retry_count < ?
			  AND (claimed_by IS NULL OR claimed_at < ?)
			ORDER BY id
			LIMIT ?
		 )`,
		token, now, r.maxRetries, stale, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim outbox records: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, topic, payload, created_at, retry_count
		 FROM outbox
		 WHERE claimed_by = ? AND sent = 0
		 ORDER BY id`,
		token,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []sharedDomain.OutboxRecord
	for rows.Next() {
		var rec sharedDomain.OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.Payload, &rec.CreatedAt, &rec.RetryCount); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &claimedBatchSQLite{db: r.db, token: token, records: records}, nil
}

func (r *OutboxRepoSQLite) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE sent = 0 AND retry_count < ?`,
		r.maxRetries,
	).Scan(&n)
	return n, err
}

func (r *OutboxRepoSQLite) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE sent = 1 AND sent_at < ?`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

// ---------------- ClaimedBatch ----------------

type claimedBatchSQLite struct {
	db      *sql.DB
	token   string
	records []sharedDomain.OutboxRecord
	closed  bool
}

func (b *claimedBatchSQLite) Records() []sharedDomain.OutboxRecord {
	return b.records
}

func (b *claimedBatchSQLite) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(
		`UPDATE outbox
		 SET sent = 1, sent_at = ?, claimed_by = NULL, claimed_at = NULL
		 WHERE sent = 0 AND id IN (%s)`,
		questionMarks(len(ids)),
	)
	args := append([]interface{}{time.Now().UTC()}, toArgs(ids)...)
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark outbox records sent: %w", err)
	}
	return nil
}

func (b *claimedBatchSQLite) MarkFailed(ctx context.Context, ids []int64, cause string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(
		`UPDATE outbox
		 SET retry_count = retry_count + 1, last_error = ?, last_failed_at = ?
		 WHERE sent = 0 AND id IN (%s)`,
		questionMarks(len(ids)),
	)
	args := append([]interface{}{cause, time.Now().UTC()}, toArgs(ids)...)
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark outbox records failed: %w", err)
	}
	return nil
}

// Close libera las reservas que quedaron sin enviar para que otro ciclo las
// reclame.
func (b *claimedBatchSQLite) Close(ctx context.Context) error {
	if b.closed {
		return nil
	}
	b.closed = true
	_, err := b.db.ExecContext(ctx,
		`UPDATE outbox SET claimed_by = NULL, claimed_at = NULL
		 WHERE claimed_by = ? AND sent = 0`,
		b.token,
	)
	return err
}

// ---------------- Helpers SQL ----------------

func questionMarks(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func toArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepoSQLite)(nil)
