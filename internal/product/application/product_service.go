package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davicafu/tiendalab/internal/product/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	sharedEvents "github.com/davicafu/tiendalab/internal/shared/events"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/tiendalab/internal/shared/infra/utils"
)

// ProductService define los casos de uso relacionados con Product.
type ProductService struct {
	repo  domain.ProductRepository
	cache domain.ProductCache
}

// NewProductService constructor
func NewProductService(repo domain.ProductRepository, cache domain.ProductCache) *ProductService {
	return &ProductService{repo: repo, cache: cache}
}

// CreateProduct inserta el producto junto con su evento product.created en la
// misma transacción: o se confirman ambos o ninguno.
func (s *ProductService) CreateProduct(ctx context.Context, name, description string, price int64, category domain.Category, season string) (*domain.Product, error) {
	if name == "" || !category.IsValid() {
		return nil, domain.ErrInvalidProduct
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		Season:      season,
		CreatedAt:   time.Now().UTC(),
	}

	evt, err := sharedEvents.NewIntegrationEvent(sharedEvents.ProductCreatedType, sharedEvents.ProductCreated{
		ProductID: product.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build product.created event: %w", err)
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal product.created event: %w", err)
	}

	msg := sharedDomain.OutboxMessage{Topic: domain.ProductTopic, Payload: payload}
	if err := s.repo.Create(ctx, product, msg); err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func(p *domain.Product) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Set(ctxCache, domain.CacheKeyByID(p.ID), p, 60)
		}(product)
	}

	return product, nil
}

// GetProduct obtiene un producto (primero intenta desde cache).
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if s.cache != nil {
		var p domain.Product
		if ok, _ := s.cache.Get(ctx, domain.CacheKeyByID(id), &p); ok {
			return &p, nil
		}
	}

	var product *domain.Product
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		product, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		go func(p *domain.Product) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Set(ctxCache, domain.CacheKeyByID(p.ID), p, 60)
		}(product)
	}

	return product, nil
}

// ListProducts devuelve los productos que cumplen el filtro.
func (s *ProductService) ListProducts(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*domain.Product, error) {
	return s.repo.ListByCriteria(ctx, criteria, pagination, sort)
}
