package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	"github.com/davicafu/tiendalab/tests/mocks"
)

func seedProduct(t *testing.T, repo *mocks.InMemoryProductRepo) *productDomain.Product {
	t.Helper()
	p := &productDomain.Product{
		ID:          uuid.New(),
		Name:        "Wool coat",
		Description: "Long wool coat",
		Category:    productDomain.CategoryOuter,
	}
	repo.Products[p.ID] = p
	return p
}

func TestGenerateForProduct_SavesVector(t *testing.T) {
	products := mocks.NewInMemoryProductRepo()
	vectors := mocks.NewInMemoryVectorRepo()
	client := new(mocks.MockEmbeddingClient)
	p := seedProduct(t, products)

	client.On("Embed", mock.Anything, "Wool coat outerwear Long wool coat").
		Return([]float32{0.1, 0.2}, nil).Once()

	service := NewEmbeddingService(products, client, vectors, zap.NewNop())
	require.NoError(t, service.GenerateForProduct(context.Background(), p.ID))

	saved, err := vectors.GetByProductID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, saved)
	client.AssertExpectations(t)
}

func TestGenerateForProduct_ProductNotFound(t *testing.T) {
	products := mocks.NewInMemoryProductRepo()
	vectors := mocks.NewInMemoryVectorRepo()
	client := new(mocks.MockEmbeddingClient)

	service := NewEmbeddingService(products, client, vectors, zap.NewNop())
	err := service.GenerateForProduct(context.Background(), uuid.New())

	assert.ErrorIs(t, err, productDomain.ErrProductNotFound)
	client.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestGenerateForProduct_EmbedFails(t *testing.T) {
	products := mocks.NewInMemoryProductRepo()
	vectors := mocks.NewInMemoryVectorRepo()
	client := new(mocks.MockEmbeddingClient)
	p := seedProduct(t, products)

	client.On("Embed", mock.Anything, mock.Anything).
		Return(nil, errors.New("ml service down"))

	service := NewEmbeddingService(products, client, vectors, zap.NewNop())
	err := service.GenerateForProduct(context.Background(), p.ID)

	// El error sube al dispatcher: el registro de outbox no se marca enviado.
	require.Error(t, err)
	assert.Empty(t, vectors.Vectors)
}

func TestGenerateForProduct_IdempotentOnReplay(t *testing.T) {
	products := mocks.NewInMemoryProductRepo()
	vectors := mocks.NewInMemoryVectorRepo()
	client := new(mocks.MockEmbeddingClient)
	p := seedProduct(t, products)

	client.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.5}, nil)

	service := NewEmbeddingService(products, client, vectors, zap.NewNop())
	require.NoError(t, service.GenerateForProduct(context.Background(), p.ID))
	require.NoError(t, service.GenerateForProduct(context.Background(), p.ID))

	// La entrega repetida deja el mismo estado final.
	assert.Len(t, vectors.Vectors, 1)
	saved, _ := vectors.GetByProductID(context.Background(), p.ID)
	assert.Equal(t, []float32{0.5}, saved)
}
