package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// OutboxRepoPostgres implementa la interfaz sharedDomain.OutboxRepository.
// El claim usa FOR UPDATE SKIP LOCKED: varios workers concurrentes se reparten
// las filas pendientes sin bloquearse ni duplicar entregas.
type OutboxRepoPostgres struct {
	db         *sql.DB
	maxRetries int
}

func NewOutboxRepoPostgres(db *sql.DB, maxRetries int) *OutboxRepoPostgres {
	return &OutboxRepoPostgres{db: db, maxRetries: maxRetries}
}

// InitOutboxPostgres crea la tabla outbox si no existe.
func InitOutboxPostgres(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS outbox (
			id             BIGSERIAL PRIMARY KEY,
			topic          TEXT NOT NULL,
			payload        BYTEA NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL,
			sent           BOOLEAN NOT NULL DEFAULT false,
			sent_at        TIMESTAMPTZ,
			retry_count    INTEGER NOT NULL DEFAULT 0,
			last_error     TEXT,
			last_failed_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox (id) WHERE sent = false;
	`)
	return err
}

// EnqueueOutboxTx inserta un registro dentro de una transacción abierta por el
// repositorio de dominio: o se confirman la escritura y el evento juntos, o
// ninguno de los dos.
func EnqueueOutboxTx(ctx context.Context, tx *sql.Tx, msg sharedDomain.OutboxMessage) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO outbox (topic, payload, created_at, sent, retry_count)
		 VALUES ($1, $2, $3, false, 0)
		 RETURNING id`,
		msg.Topic, msg.Payload, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert outbox record: %w", err)
	}
	return id, nil
}

func (r *OutboxRepoPostgres) Enqueue(ctx context.Context, msg sharedDomain.OutboxMessage) (int64, error) {
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

// Claim abre una transacción, selecciona hasta limit filas pendientes en orden
// de ID y las bloquea en exclusiva. Las filas bloqueadas por otro claimer se
// saltan. Los locks se liberan al hacer Close del lote.
func (r *OutboxRepoPostgres) Claim(ctx context.Context, limit int) (sharedDomain.ClaimedBatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, topic, payload, created_at, retry_count
		 FROM outbox
		 WHERE sent = false AND retry_count < $1
		 ORDER BY id
		 LIMIT $2
		 FOR UPDATE SKIP LOCKED`,
		r.maxRetries, limit,
	)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to claim outbox records: %w", err)
	}
	defer rows.Close()

	var records []sharedDomain.OutboxRecord
	for rows.Next() {
		var rec sharedDomain.OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.Payload, &rec.CreatedAt, &rec.RetryCount); err != nil {
			tx.Rollback()
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		tx.Rollback()
		return nil, err
	}

	return &claimedBatchPostgres{tx: tx, records: records}, nil
}

func (r *OutboxRepoPostgres) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE sent = false AND retry_count < $1`,
		r.maxRetries,
	).Scan(&n)
	return n, err
}

func (r *OutboxRepoPostgres) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM outbox WHERE sent = true AND sent_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

// ---------------- ClaimedBatch ----------------

type claimedBatchPostgres struct {
	tx      *sql.Tx
	records []sharedDomain.OutboxRecord
	closed  bool
}

func (b *claimedBatchPostgres) Records() []sharedDomain.OutboxRecord {
	return b.records
}

// MarkSent fija sent/sent_at solo sobre filas aún no enviadas: repetir la
// llamada no reescribe sent_at.
func (b *claimedBatchPostgres) MarkSent(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(
		`UPDATE outbox SET sent = true, sent_at = $1 WHERE sent = false AND id IN (%s)`,
		placeholders(2, len(ids)),
	)
	_, err := b.tx.ExecContext(ctx, query, prepend(time.Now().UTC(), ids)...)
	if err != nil {
		return fmt.Errorf("failed to mark outbox records sent: %w", err)
	}
	return nil
}

func (b *claimedBatchPostgres) MarkFailed(ctx context.Context, ids []int64, cause string) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(
		`UPDATE outbox
		 SET retry_count = retry_count + 1, last_error = $1, last_failed_at = $2
		 WHERE sent = false AND id IN (%s)`,
		placeholders(3, len(ids)),
	)
	args := append([]interface{}{cause, time.Now().UTC()}, toArgs(ids)...)
	_, err := b.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark outbox records failed: %w", err)
	}
	return nil
}

func (b *claimedBatchPostgres) Close(ctx context.Context) error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.tx.Commit()
}

// ---------------- Helpers SQL ----------------

// placeholders genera "$from, $from+1, ..." para cláusulas IN.
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(parts, ", ")
}

func toArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func prepend(first interface{}, ids []int64) []interface{} {
	return append([]interface{}{first}, toArgs(ids)...)
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepoPostgres)(nil)
