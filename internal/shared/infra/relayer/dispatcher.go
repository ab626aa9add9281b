package relayer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	sharedBus "github.com/davicafu/tiendalab/internal/shared/infra/platform/bus"
)

// Dispatcher drena la tabla outbox de forma genérica: reclama un lote,
// publica cada registro en su topic y marca enviados solo los que el
// transporte aceptó. La entrega es al-menos-una-vez; los consumidores
// deben ser idempotentes.
type Dispatcher struct {
	repo           sharedDomain.OutboxRepository
	publisher      sharedBus.EventPublisher
	interval       time.Duration
	batchSize      int
	publishTimeout time.Duration
	log            *zap.Logger

	running atomic.Bool // evita solapar dos pasadas si una tarda más que el intervalo
}

func NewDispatcher(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventPublisher,
	interval time.Duration,
	batchSize int,
	publishTimeout time.Duration,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		repo:           repo,
		publisher:      publisher,
		interval:       interval,
		batchSize:      batchSize,
		publishTimeout: publishTimeout,
		log:            log,
	}
}

// Start inicia el bucle de polling del dispatcher.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.log.Info("🚀 Outbox dispatcher iniciado",
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	for {
		select {
		case <-ctx.Done():
			d.log.Info("🛑 Outbox dispatcher detenido.")
			return
		case <-ticker.C:
			if !d.running.CompareAndSwap(false, true) {
				continue // la pasada anterior sigue en curso
			}
			d.ProcessBatch(ctx)
			d.running.Store(false)
		}
	}
}

// ProcessBatch reclama y publica una tanda de registros pendientes.
// Devuelve cuántos registros se marcaron como enviados.
func (d *Dispatcher) ProcessBatch(ctx context.Context) int {
	batch, err := d.repo.Claim(ctx, d.batchSize)
	if err != nil {
		if errors.Is(err, sharedDomain.ErrNothingClaimed) {
			return 0
		}
		d.log.Warn("⚠️ Error al reclamar registros del outbox", zap.Error(err))
		return 0
	}
	defer batch.Close(ctx)

	records := batch.Records()
	if len(records) == 0 {
		return 0
	}
	d.log.Info("📬 Registros reclamados para publicar", zap.Int("count", len(records)))

	var sent, failed []int64
	var lastCause string
	for _, rec := range records {
		if err := d.publishOne(ctx, rec); err != nil {
			d.log.Warn("⚠️ No se pudo publicar registro",
				zap.Int64("outbox_id", rec.ID),
				zap.String("topic", rec.Topic),
				zap.Error(err),
			)
			failed = append(failed, rec.ID)
			lastCause = err.Error()
			continue
		}
		sent = append(sent, rec.ID)
	}

	if err := batch.MarkSent(ctx, sent); err != nil {
		d.log.Warn("⚠️ No se pudieron marcar registros como enviados", zap.Error(err))
		return 0
	}
	if err := batch.MarkFailed(ctx, failed, lastCause); err != nil {
		d.log.Warn("⚠️ No se pudo anotar el fallo de publicación", zap.Error(err))
	}

	if len(sent) > 0 {
		d.log.Info("✅ Registros publicados y marcados", zap.Int("count", len(sent)))
	}
	return len(sent)
}

func (d *Dispatcher) publishOne(ctx context.Context, rec sharedDomain.OutboxRecord) error {
	pubCtx, cancel := context.WithTimeout(ctx, d.publishTimeout)
	defer cancel()
	return d.publisher.Publish(pubCtx, rec.Topic, rec.Payload)
}
