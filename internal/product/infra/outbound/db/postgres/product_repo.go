package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	outboxPg "github.com/davicafu/tiendalab/internal/shared/infra/db/postgres"
	sharedQuery "github.com/davicafu/tiendalab/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/tiendalab/internal/shared/infra/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type ProductRepoPostgres struct {
	db *sql.DB
}

func NewProductRepoPostgres(db *sql.DB) *ProductRepoPostgres {
	return &ProductRepoPostgres{db: db}
}

// ------------------ CRUD + Outbox ------------------

// Create inserta producto y evento en transacción
func (r *ProductRepoPostgres) Create(ctx context.Context, p *productDomain.Product, msg sharedDomain.OutboxMessage) error {
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
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Name, p.Description, p.Price, string(p.Category), p.Season, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if _, err = outboxPg.EnqueueOutboxTx(ctx, tx, msg); err != nil {
		return err
	}

	return tx.Commit()
}

// ------------------ Lectura ------------------

func (r *ProductRepoPostgres) GetByID(ctx context.Context, id uuid.UUID) (*productDomain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, category, season, created_at
		 FROM products WHERE id=$1`, id)

	p, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, productDomain.ErrProductNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

// Traduce criterios neutrales a SQL para Postgres ($1, $2...)
func (r *ProductRepoPostgres) applyCriteria(criteria sharedDomain.Criteria) (string, []interface{}) {
	if criteria == nil {
		return "", nil
	}
	conds := criteria.ToConditions()
	var clauses []string
	var args []interface{}
	for i, c := range conds {
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", c.Field, c.Op, i+1))
		args = append(args, c.Value)
	}
	return strings.Join(clauses, " AND "), args
}

func (r *ProductRepoPostgres) ListByCriteria(ctx context.Context, criteria sharedDomain.Criteria, pagination sharedQuery.Pagination, sort sharedQuery.Sort) ([]*productDomain.Product, error) {
	whereSQL, args := r.applyCriteria(criteria)

	query := `SELECT id, name, description, price, category, season, created_at FROM products`
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	if sort.Field == "" {
		sort.Field = "created_at"
	}
	if p, ok := pagination.(sharedQuery.OffsetPagination); ok {
		args = append(args, p.Limit, p.Offset)
		query += fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d",
			sort.Field, sharedUtils.Ternary(sort.Desc, "DESC", "ASC"), len(args)-1, len(args))
	} else {
		query += fmt.Sprintf(" ORDER BY %s %s", sort.Field, sharedUtils.Ternary(sort.Desc, "DESC", "ASC"))
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
	var category string
	if err := scan(&p.ID, &p.Name, &p.Description, &p.Price, &category, &p.Season, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Category = productDomain.Category(category)
	return &p, nil
}

// ------------------ Inicialización ------------------

func InitProductsPostgres(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price BIGINT NOT NULL,
		category TEXT NOT NULL,
		season TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

// Verificación en tiempo de compilación.
var _ productDomain.ProductRepository = (*ProductRepoPostgres)(nil)
