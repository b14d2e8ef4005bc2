package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"flash-sale-api/internal/model"
)

// SQLiteProductRepository implements ProductRepository using SQLite.
type SQLiteProductRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteProductRepository creates a new SQLite product repository.
func NewSQLiteProductRepository(db *sql.DB) (*SQLiteProductRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		base_price REAL NOT NULL,
		sale_price REAL NOT NULL,
		image_url TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create products table: %w", err)
	}

	return &SQLiteProductRepository{db: db}, nil
}

const sqliteProductColumns = `id, name, description, base_price, sale_price, image_url, created_at, updated_at`

func scanSQLiteProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.BasePrice, &p.SalePrice,
		&p.ImageURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product.
func (r *SQLiteProductRepository) Create(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO products (` + sqliteProductColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Description,
		p.BasePrice, p.SalePrice, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *SQLiteProductRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT ` + sqliteProductColumns + ` FROM products WHERE id = ?`

	p, err := scanSQLiteProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// List returns products matching the query, newest first.
func (r *SQLiteProductRepository) List(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var conditions []string
	var args []any

	if q.Search != "" {
		conditions = append(conditions, `(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`)
		pattern := "%" + strings.ToLower(q.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if q.MinPrice != nil {
		conditions = append(conditions, `sale_price >= ?`)
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		conditions = append(conditions, `sale_price <= ?`)
		args = append(args, *q.MaxPrice)
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

	query := `SELECT ` + sqliteProductColumns + ` FROM products` + where +
		` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, q.Limit, (q.Page-1)*q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]model.Product, 0, q.Limit)
	for rows.Next() {
		p, err := scanSQLiteProduct(rows)
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
func (r *SQLiteProductRepository) Update(ctx context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		UPDATE products
		SET name = ?, description = ?, base_price = ?, sale_price = ?,
			image_url = ?, updated_at = ?
		WHERE id = ?`

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
func (r *SQLiteProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
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

// Ensure SQLiteProductRepository implements ProductRepository
var _ ProductRepository = (*SQLiteProductRepository)(nil)
