package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/tiendalab/internal/shared/events"
	sharedBus "github.com/davicafu/tiendalab/internal/shared/infra/platform/bus"
)

// EmbeddingService es el caso de uso que dispara cada evento product.created.
type EmbeddingService interface {
	GenerateForProduct(ctx context.Context, productID uuid.UUID) error
}

// ProductConsumer consume los eventos de producto del topic product-events.
// Devolver error hace que el dispatcher no marque el registro como enviado y
// lo reintente; los payloads malformados se descartan porque reintentarlos
// nunca va a arreglarlos.
type ProductConsumer struct {
	service EmbeddingService
	log     *zap.Logger
}

func NewProductConsumer(service EmbeddingService, log *zap.Logger) *ProductConsumer {
	return &ProductConsumer{service: service, log: log}
}

func (c *ProductConsumer) HandleMessage(ctx context.Context, key string, payload []byte) error {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return nil
	}

	switch base.Type {
	case sharedEvents.ProductCreatedType:
		var evt sharedEvents.ProductCreated
		if err := json.Unmarshal(base.Data, &evt); err != nil {
			c.log.Warn("Failed to unmarshal product.created payload", zap.Error(err))
			return nil
		}
		return c.service.GenerateForProduct(ctx, evt.ProductID)

	default:
		c.log.Debug("Evento ignorado por el consumidor de embeddings", zap.String("type", base.Type))
		return nil
	}
}

// Verificación en tiempo de compilación.
var _ sharedBus.MessageHandler = (*ProductConsumer)(nil)
