package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	embDomain "github.com/davicafu/tiendalab/internal/embedding/domain"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// VectorRepoPostgres guarda el embedding de cada producto como literal de
// pgvector ("[0.1,0.2,...]").
type VectorRepoPostgres struct {
	db *sql.DB
}

func NewVectorRepoPostgres(db *sql.DB) *VectorRepoPostgres {
	return &VectorRepoPostgres{db: db}
}

// Save es un upsert: repetir el evento product.created deja el mismo estado.
func (r *VectorRepoPostgres) Save(ctx context.Context, productID uuid.UUID, vector []float32) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_vectors (product_id, embedding, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (product_id) DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = EXCLUDED.updated_at`,
		productID, FormatVector(vector), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *VectorRepoPostgres) GetByProductID(ctx context.Context, productID uuid.UUID) ([]float32, error) {
	var literal string
	err := r.db.QueryRowContext(ctx,
		`SELECT embedding FROM product_vectors WHERE product_id=$1`, productID,
	).Scan(&literal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, embDomain.ErrVectorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ParseVector(literal)
}

// ------------------ Literales pgvector ------------------

// FormatVector serializa como "[a,b,c]", el literal que espera pgvector.
func FormatVector(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// ParseVector deshace FormatVector.
func ParseVector(literal string) ([]float32, error) {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(literal, "["), "]")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, ",")
	vector := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector literal: %w", err)
		}
		vector[i] = float32(f)
	}
	return vector, nil
}

// ------------------ Inicialización ------------------

// El tipo de columna es TEXT para no exigir la extensión pgvector en
// desarrollo; el literal es compatible si la columna pasa a ser vector(n).
func InitVectorsPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS product_vectors (
		product_id UUID PRIMARY KEY,
		embedding TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ embDomain.VectorRepository = (*VectorRepoPostgres)(nil)
