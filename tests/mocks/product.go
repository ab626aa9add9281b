package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
)

// InMemoryProductRepo simula el repo de productos con su outbox.
type InMemoryProductRepo struct {
	mu       sync.RWMutex
	Products map[uuid.UUID]*productDomain.Product
	Outbox   []sharedDomain.OutboxMessage
}

func NewInMemoryProductRepo() *InMemoryProductRepo {
	return &InMemoryProductRepo{Products: make(map[uuid.UUID]*productDomain.Product)}
}

func (r *InMemoryProductRepo) Create(ctx context.Context, p *productDomain.Product, msg sharedDomain.OutboxMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Products[p.ID] = p
	r.Outbox = append(r.Outbox, msg)
	return nil
}

func (r *InMemoryProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*productDomain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.Products[id]
	if !ok {
		return nil, productDomain.ErrProductNotFound
	}
	return p, nil
}

// ListByCriteria aplica solo los filtros de categoría y temporada; suficiente
// para los tests de recomendación.
func (r *InMemoryProductRepo) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*productDomain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var category, season string
	if criteria != nil {
		for _, c := range criteria.ToConditions() {
			switch c.Field {
			case "category":
				if v, ok := c.Value.(string); ok {
					category = v
				}
			case "season":
				if v, ok := c.Value.(string); ok {
					season = v
				}
			}
		}
	}

	var out []*productDomain.Product
	for _, p := range r.Products {
		if category != "" && string(p.Category) != category {
			continue
		}
		if season != "" && p.Season != season {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Verificación estática
var _ productDomain.ProductRepository = (*InMemoryProductRepo)(nil)
