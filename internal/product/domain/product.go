package domain

import (
	"time"

	"github.com/google/uuid"

	sharedBus "github.com/davicafu/tiendalab/internal/shared/infra/platform/bus"
)

// Topic donde se publican los eventos de producto.
const ProductTopic = "product-events"

// Product representa un artículo del catálogo.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // céntimos, evita floats en dinero
	Category    Category  `json:"category"`
	Season      string    `json:"season,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (p *Product) PartitionKey() string {
	return p.ID.String()
}

// EmbeddingText construye el texto que alimenta al servicio de embeddings.
func (p *Product) EmbeddingText() string {
	text := p.Name
	if group := p.Category.GroupName(); group != "" {
		text += " " + group
	}
	if p.Description != "" {
		text += " " + p.Description
	}
	return text
}

// Verificación estática para asegurar que Product implementa la interfaz
var _ sharedBus.Keyer = (*Product)(nil)
