package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	outboxSqlite "github.com/davicafu/tiendalab/internal/shared/infra/db/sqlite"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/tiendalab/internal/shared/infra/utils"

	_ "modernc.org/sqlite"
)

type ProductRepoSQLite struct {
	db *sql.DB
}

func NewProductRepoSQLite(db *sql.DB) *ProductRepoSQLite {
	return &ProductRepoSQLite{db: db}
}

// ------------------ CRUD + Outbox ------------------

// Create inserta producto y evento en transacción
func (r *ProductRepoSQLite) Create(ctx context.Context, p *productDomain.Product, msg sharedDomain.OutboxMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, category, season, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Name, p.Description, p.Price, string(p.Category), p.Season, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if _, err = outboxSqlite.EnqueueOutboxTx(ctx, tx, msg); err != nil {
		return err
	}

	return tx.Commit()
}

// ------------------ Lectura ------------------

func (r *ProductRepoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*productDomain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, category, season, created_at
		 FROM products WHERE id=?`, id.String())

	p, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, productDomain.ErrProductNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Traduce criterios neutrales a SQL para SQLite (?); ILIKE no existe, pero
// LIKE ya es case-insensitive para ASCII.
func (r *ProductRepoSQLite) applyCriteria(criteria sharedDomain.Criteria) (string, []interface{}) {
	if criteria == nil {
		return "", nil
	}
	conds := criteria.ToConditions()
	var clauses []string
	var args []interface{}
	for _, c := range conds {
		op := c.Op
		if op == sharedDomain.OpILike {
			op = sharedDomain.OpLike
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", c.Field, op))
		args = append(args, c.Value)
	}
	return strings.Join(clauses, " AND "), args
}

func (r *ProductRepoSQLite) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*productDomain.Product, error) {
	whereSQL, args := r.applyCriteria(criteria)

	query := `SELECT id, name, description, price, category, season, created_at FROM products`
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	if sort.Field == "" {
		sort.Field = "created_at"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sort.Field, sharedUtils.Ternary(sort.Desc, "DESC", "ASC"))
	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		query += " LIMIT ? OFFSET ?"
		args = append(args, p.Limit, p.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var products []*productDomain.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func scanProduct(scan func(dest ...interface{}) error) (*productDomain.Product, error) {
	var p productDomain.Product
	var idStr, category string
	if err := scan(&idStr, &p.Name, &p.Description, &p.Price, &category, &p.Season, &p.CreatedAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, productDomain.ErrInvalidProduct
	}
	p.ID = id
	p.Category = productDomain.Category(category)
	return &p, nil
}

// ------------------ Inicialización ------------------

func InitProductsSQLite(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price INTEGER NOT NULL,
		category TEXT NOT NULL,
		season TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ productDomain.ProductRepository = (*ProductRepoSQLite)(nil)
