package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
)

// ---------- Errores de dominio ----------
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

// ---------- Interfaces (Ports) ----------

// ProductRepository define las operaciones persistentes para Product.
type ProductRepository interface {
	// Create inserta el producto y su evento de outbox en la misma transacción.
	Create(ctx context.Context, p *Product, msg sharedDomain.OutboxMessage) error

	// Debe devolver ErrProductNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// ListByCriteria devuelve los productos que cumplen el filtro neutral.
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*Product, error)
}

type ProductCache interface {
	// Get intenta poblar dest (puntero) con el valor asociado a la key.
	// Devuelve (true, nil) si hay hit y dest fue rellenado.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set serializa y guarda el valor con TTL en segundos.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	// Delete elimina la key del cache.
	Delete(ctx context.Context, key string) error
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// CacheKeyByID forma una key consistente para cache usando ID.
func CacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("product:id:%s", id.String())
}
