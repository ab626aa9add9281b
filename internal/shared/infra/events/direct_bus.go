package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	sharedBus "github.com/davicafu/tiendalab/internal/shared/infra/platform/bus"
)

// DirectBus entrega los eventos de forma síncrona a los handlers registrados
// por topic, sin broker de por medio. El error del handler llega al publisher,
// así el dispatcher del outbox solo marca como enviado lo que de verdad se
// consumió (despliegue local, sin Kafka).
type DirectBus struct {
	mu       sync.RWMutex
	handlers map[string][]sharedBus.MessageHandler
	log      *zap.Logger
}

func NewDirectBus(log *zap.Logger) *DirectBus {
	return &DirectBus{
		handlers: make(map[string][]sharedBus.MessageHandler),
		log:      log,
	}
}

// Subscribe registra un handler para un topic.
func (b *DirectBus) Subscribe(topic string, h sharedBus.MessageHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

func (b *DirectBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	hs := b.handlers[topic]
	b.mu.RUnlock()

	if len(hs) == 0 {
		return fmt.Errorf("direct bus: no handlers for topic %q", topic)
	}

	for _, h := range hs {
		if err := h.HandleMessage(ctx, "", payload); err != nil {
			b.log.Warn("⚠️ Handler falló, el evento se reintentará",
				zap.String("topic", topic),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// Verificación estática
var _ sharedBus.EventPublisher = (*DirectBus)(nil)
