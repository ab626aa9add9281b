package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	embDomain "github.com/davicafu/tiendalab/internal/embedding/domain"
)

// MockEmbeddingClient simula el cliente del servicio de embeddings
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// InMemoryVectorRepo simula el repo de vectores.
type InMemoryVectorRepo struct {
	mu      sync.RWMutex
	Vectors map[uuid.UUID][]float32
	Saves   int
}

func NewInMemoryVectorRepo() *InMemoryVectorRepo {
	return &InMemoryVectorRepo{Vectors: make(map[uuid.UUID][]float32)}
}

func (r *InMemoryVectorRepo) Save(ctx context.Context, productID uuid.UUID, vector []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Vectors[productID] = vector
	r.Saves++
	return nil
}

func (r *InMemoryVectorRepo) GetByProductID(ctx context.Context, productID uuid.UUID) ([]float32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.Vectors[productID]
	if !ok {
		return nil, embDomain.ErrVectorNotFound
	}
	return v, nil
}

// Verificación estática
var _ embDomain.EmbeddingClient = (*MockEmbeddingClient)(nil)
var _ embDomain.VectorRepository = (*InMemoryVectorRepo)(nil)
