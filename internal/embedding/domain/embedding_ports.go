package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// ---------- Interfaces (Ports) ----------

// EmbeddingClient convierte texto en un vector denso.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorRepository persiste el vector de cada producto. Save debe ser un
// upsert: el consumidor de eventos es al-menos-una-vez y puede repetir.
type VectorRepository interface {
	Save(ctx context.Context, productID uuid.UUID, vector []float32) error
	GetByProductID(ctx context.Context, productID uuid.UUID) ([]float32, error)
}

var ErrVectorNotFound = errors.New("product vector not found")
