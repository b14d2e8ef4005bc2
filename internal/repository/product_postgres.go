package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"flash-sale-api/internal/model"
)

// PostgresProductRepository implements ProductRepository using PostgreSQL.
type PostgresProductRepository struct {
	db *sql.DB
}

// NewPostgresProductRepository creates a new PostgreSQL product repository.
func NewPostgresProductRepository(db *sql.DB) (*PostgresProductRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		base_price DOUBLE PRECISION NOT NULL,
		sale_price DOUBLE PRECISION NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create products table: %w", err)
	}

	return &PostgresProductRepository{db: db}, nil
}

const postgresProductColumns = `id, name, description, base_price, sale_price, image_url, created_at, updated_at`

func scanPostgresProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.BasePrice, &p.SalePrice,
		&p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product.
func (r *PostgresProductRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (` + postgresProductColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Description,
		p.BasePrice, p.SalePrice, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *PostgresProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `SELECT ` + postgresProductColumns + ` FROM products WHERE id = $1`

	p, err := scanPostgresProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// List returns products matching the query, newest first.
func (r *PostgresProductRepository) List(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	var conditions []string
	var args []any

	if q.Search != "" {
		args = append(args, "%"+strings.ToLower(q.Search)+"%")
		conditions = append(conditions, fmt.Sprintf(`(LOWER(name) LIKE $%d OR LOWER(description) LIKE $%d)`, len(args), len(args)))
	}
	if q.MinPrice != nil {
		args = append(args, *q.MinPrice)
		conditions = append(conditions, fmt.Sprintf(`sale_price >= $%d`, len(args)))
	}
	if q.MaxPrice != nil {
		args = append(args, *q.MaxPrice)
		conditions = append(conditions, fmt.Sprintf(`sale_price <= $%d`, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	args = append(args, q.Limit, (q.Page-1)*q.Limit)
	query := fmt.Sprintf(`SELECT `+postgresProductColumns+` FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, q.Limit)
	for rows.Next() {
		p, err := scanPostgresProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, total, nil
}

// Update applies the patch to an existing product.
func (r *PostgresProductRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, base_price = $3, sale_price = $4,
			image_url = $5, updated_at = $6
		WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.BasePrice,
		p.SalePrice, p.ImageURL, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// Delete removes a product.
func (r *PostgresProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// Ensure PostgresProductRepository implements ProductRepository
var _ ProductRepository = (*PostgresProductRepository)(nil)
