package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	embDomain "github.com/davicafu/tiendalab/internal/embedding/domain"
	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	sharedUtils "github.com/davicafu/tiendalab/internal/shared/infra/utils"
)

// EmbeddingService genera y guarda el vector de un producto. Es el consumidor
// idempotente del evento product.created: el upsert tolera la entrega repetida.
type EmbeddingService struct {
	products productDomain.ProductRepository
	client   embDomain.EmbeddingClient
	vectors  embDomain.VectorRepository
	log      *zap.Logger
}

func NewEmbeddingService(
	products productDomain.ProductRepository,
	client embDomain.EmbeddingClient,
	vectors embDomain.VectorRepository,
	log *zap.Logger,
) *EmbeddingService {
	return &EmbeddingService{products: products, client: client, vectors: vectors, log: log}
}

// GenerateForProduct carga el producto, llama al servicio de embeddings y
// guarda el vector. El error sube al dispatcher para que el registro de
// outbox se reintente.
func (s *EmbeddingService) GenerateForProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	var vector []float32
	err = sharedUtils.Retry(ctx, 3, 200*time.Millisecond, func() error {
		var embedErr error
		vector, embedErr = s.client.Embed(ctx, product.EmbeddingText())
		return embedErr
	})
	if err != nil {
		s.log.Warn("⚠️ No se pudo generar el embedding",
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := s.vectors.Save(ctx, productID, vector); err != nil {
		return err
	}

	s.log.Info("✅ Embedding generado",
		zap.String("product_id", productID.String()),
		zap.Int("dims", len(vector)),
	)
	return nil
}
