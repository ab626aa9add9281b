package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
)

// ---------- Errores de dominio ----------
var (
	// ErrExtractionFailed agrupa cualquier fallo del backend de extracción:
	// red, timeout, respuesta malformada o estado de error del upstream.
	ErrExtractionFailed = errors.New("preference extraction failed")
)

// ChatMessage es un turno del transcript que se envía al modelo.
type ChatMessage struct {
	Role    string `json:"role"` // "user" | "assistant"
	Content string `json:"content"`
}

// ---------- Interfaces (Ports) ----------

// Completer convierte un transcript y un prompt en texto libre, o falla.
// Stateless: cada llamada es una petición independiente al upstream.
type Completer interface {
	Complete(ctx context.Context, transcript []ChatMessage, prompt string) (string, error)
}

// ProductFinder es el colaborador de consulta de productos.
type ProductFinder interface {
	ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*productDomain.Product, error)
}

// Cache guarda respuestas de recomendación ya calculadas.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error
	Delete(ctx context.Context, key string) error
}

// QueryLog es una fila del registro analítico de recomendaciones.
type QueryLog struct {
	ConversationID uuid.UUID
	Category       string
	Keywords       []string
	Season         string
	Degraded       bool // la extracción falló y se devolvió la consulta sin filtrar
	ResultCount    int
	ElapsedMs      int64
	CreatedAt      time.Time
}

// Analytics registra cada consulta de recomendación para análisis posterior.
// Los fallos del sink no deben tumbar la petición.
type Analytics interface {
	RecordQuery(ctx context.Context, entry QueryLog) error
}
