package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNothingClaimed se devuelve cuando Claim no encuentra registros pendientes.
var ErrNothingClaimed = errors.New("outbox: no pending records")

// OutboxRecord representa un evento pendiente de publicar en el broker.
// El ID es autoincremental y define el orden de entrega.
type OutboxRecord struct {
	ID           int64      `json:"id"`
	Topic        string     `json:"topic"` // topic de destino, ej. "product-events"
	Payload      []byte     `json:"payload"`
	CreatedAt    time.Time  `json:"created_at"`
	Sent         bool       `json:"sent"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	RetryCount   int        `json:"retry_count"`
	LastError    string     `json:"last_error,omitempty"`
	LastFailedAt *time.Time `json:"last_failed_at,omitempty"`
}

// OutboxMessage son los datos mínimos para encolar un evento junto a una
// escritura de dominio, dentro de la misma transacción.
type OutboxMessage struct {
	Topic   string
	Payload []byte
}

// ClaimedBatch es un lote de registros reclamados en exclusiva por un worker.
// Las filas quedan reservadas hasta Close; otro claimer concurrente las salta
// en vez de bloquearse.
type ClaimedBatch interface {
	// Records devuelve los registros reclamados, en orden ascendente de ID.
	Records() []OutboxRecord

	// MarkSent marca sent=true y fija sent_at una única vez. Repetir la
	// llamada sobre IDs ya enviados es un no-op.
	MarkSent(ctx context.Context, ids []int64) error

	// MarkFailed incrementa retry_count y guarda el último error. El registro
	// sigue sin enviar y será reclamable en el siguiente ciclo.
	MarkFailed(ctx context.Context, ids []int64, cause string) error

	// Close libera la reserva (commit). Debe llamarse siempre, también si el
	// procesamiento del lote falló a medias.
	Close(ctx context.Context) error
}

// OutboxRepository define el contrato para acceder a la tabla outbox.
type OutboxRepository interface {
	// Enqueue inserta un registro no enviado en su propia transacción y
	// devuelve el ID asignado. Para encolar junto a una escritura de dominio
	// se usan los helpers EnqueueTx de cada adaptador.
	Enqueue(ctx context.Context, msg OutboxMessage) (int64, error)

	// Claim selecciona hasta limit registros no enviados con retry_count por
	// debajo del máximo, en orden ascendente de ID, reservándolos en
	// exclusiva y saltando los que otro claimer tenga reservados.
	Claim(ctx context.Context, limit int) (ClaimedBatch, error)

	// CountPending devuelve el número de registros aún reclamables.
	CountPending(ctx context.Context) (int64, error)

	// DeleteSentBefore borra registros ya enviados con sent_at anterior al
	// corte. Solo lo usa el janitor de retención.
	DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
