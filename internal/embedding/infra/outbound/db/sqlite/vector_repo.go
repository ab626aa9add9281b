package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	embDomain "github.com/davicafu/tiendalab/internal/embedding/domain"
	vectorPg "github.com/davicafu/tiendalab/internal/embedding/infra/outbound/db/postgres"

	_ "modernc.org/sqlite"
)

// VectorRepoSQLite guarda los embeddings con el mismo literal "[a,b,c]" que
// el adaptador de Postgres.
type VectorRepoSQLite struct {
	db *sql.DB
}

func NewVectorRepoSQLite(db *sql.DB) *VectorRepoSQLite {
	return &VectorRepoSQLite{db: db}
}

// Save es un upsert: repetir el evento product.created deja el mismo estado.
func (r *VectorRepoSQLite) Save(ctx context.Context, productID uuid.UUID, vector []float32) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO product_vectors (product_id, embedding, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (product_id) DO UPDATE SET embedding = excluded.embedding, updated_at = excluded.updated_at`,
		productID.String(), vectorPg.FormatVector(vector), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *VectorRepoSQLite) GetByProductID(ctx context.Context, productID uuid.UUID) ([]float32, error) {
	var literal string
	err := r.db.QueryRowContext(ctx,
		`SELECT embedding FROM product_vectors WHERE product_id=?`, productID.String(),
	).Scan(&literal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, embDomain.ErrVectorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return vectorPg.ParseVector(literal)
}

// ------------------ Inicialización ------------------

func InitVectorsSQLite(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS product_vectors (
		product_id TEXT PRIMARY KEY,
		embedding TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ embDomain.VectorRepository = (*VectorRepoSQLite)(nil)
