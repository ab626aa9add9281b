package relayer

import (
	"context"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
)

// Janitor borra periódicamente los registros ya enviados que superan el
// periodo de retención. Los pendientes nunca se tocan.
type Janitor struct {
	repo      sharedDomain.OutboxRepository
	interval  time.Duration
	retention time.Duration
	log       *zap.Logger
}

func NewJanitor(repo sharedDomain.OutboxRepository, interval, retention time.Duration, log *zap.Logger) *Janitor {
	return &Janitor{repo: repo, interval: interval, retention: retention, log: log}
}

func (j *Janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.log.Info("🚀 Outbox janitor iniciado", zap.Duration("retention", j.retention))

	for {
		select {
		case <-ctx.Done():
			j.log.Info("🛑 Outbox janitor detenido.")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep ejecuta una pasada de limpieza y devuelve cuántas filas se borraron.
func (j *Janitor) Sweep(ctx context.Context) int64 {
	cutoff := time.Now().UTC().Add(-j.retention)
	deleted, err := j.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		j.log.Warn("⚠️ Error limpiando registros enviados", zap.Error(err))
		return 0
	}
	if deleted > 0 {
		j.log.Info("🧹 Registros enviados purgados", zap.Int64("deleted", deleted))
	}
	return deleted
}
