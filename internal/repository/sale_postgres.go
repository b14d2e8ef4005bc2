package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"flash-sale-api/internal/model"
)

// PostgresSaleRepository implements SaleRepository using PostgreSQL.
type PostgresSaleRepository struct {
	db *sql.DB
}

// NewPostgresSaleRepository creates a new PostgreSQL sale repository and
// ensures the sales schema. The partial unique index enforces "at most one
// active sale" at the store level.
func NewPostgresSaleRepository(db *sql.DB) (*PostgresSaleRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		total_units INTEGER NOT NULL,
		remaining_units INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		max_purchase_per_user INTEGER NOT NULL DEFAULT 1,
		activated_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sales_start_time ON sales(start_time);
	CREATE INDEX IF NOT EXISTS idx_sales_product_active ON sales(product_id, is_active);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sales_single_active ON sales(is_active) WHERE is_active;
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create sales table: %w", err)
	}

	return &PostgresSaleRepository{db: db}, nil
}

const postgresSaleColumns = `id, product_id, start_time, end_time, total_units, remaining_units,
	is_active, max_purchase_per_user, activated_at, created_at, updated_at`

func scanPostgresSale(row interface{ Scan(...any) error }) (*model.Sale, error) {
	var (
		s           model.Sale
		endTime     sql.NullTime
		activatedAt sql.NullTime
	)

	err := row.Scan(&s.ID, &s.ProductID, &s.StartTime, &endTime, &s.TotalUnits,
		&s.RemainingUnits, &s.IsActive, &s.MaxPurchasePerUser, &activatedAt,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	if activatedAt.Valid {
		s.ActivatedAt = &activatedAt.Time
	}

	return &s, nil
}

// Create inserts a new sale in the Scheduled state.
func (r *PostgresSaleRepository) Create(ctx context.Context, sale *model.Sale) error {
	query := `
		INSERT INTO sales (id, product_id, start_time, end_time, total_units, remaining_units,
			is_active, max_purchase_per_user, activated_at, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, $4, $5, FALSE, $6, NULL, $7, $8)`

	_, err := r.db.ExecContext(ctx, query, sale.ID, sale.ProductID, sale.StartTime,
		sale.TotalUnits, sale.RemainingUnits, sale.MaxPurchasePerUser, sale.CreatedAt, sale.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

// GetByID fetches a sale by its ID.
func (r *PostgresSaleRepository) GetByID(ctx context.Context, id string) (*model.Sale, error) {
	query := `SELECT ` + postgresSaleColumns + ` FROM sales WHERE id = $1`

	sale, err := scanPostgresSale(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

// GetActive fetches the single active sale, if any.
func (r *PostgresSaleRepository) GetActive(ctx context.Context) (*model.Sale, error) {
	query := `SELECT ` + postgresSaleColumns + ` FROM sales WHERE is_active LIMIT 1`

	sale, err := scanPostgresSale(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get active sale: %w", err)
	}
	return sale, nil
}

// GetActiveByProduct fetches the active sale for a product, if any.
func (r *PostgresSaleRepository) GetActiveByProduct(ctx context.Context, productID string) (*model.Sale, error) {
	query := `SELECT ` + postgresSaleColumns + ` FROM sales WHERE product_id = $1 AND is_active LIMIT 1`

	sale, err := scanPostgresSale(r.db.QueryRowContext(ctx, query, productID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get active sale for product: %w", err)
	}
	return sale, nil
}

// List returns sales ordered by start time descending.
func (r *PostgresSaleRepository) List(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	query := `SELECT ` + postgresSaleColumns + ` FROM sales ORDER BY start_time DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]model.Sale, 0, limit)
	for rows.Next() {
		sale, err := scanPostgresSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate sales: %w", err)
	}

	return sales, total, nil
}

// Update persists schedule/capacity/cap edits.
func (r *PostgresSaleRepository) Update(ctx context.Context, sale *model.Sale) error {
	query := `
		UPDATE sales
		SET product_id = $1, start_time = $2, total_units = $3, max_purchase_per_user = $4, updated_at = $5
		WHERE id = $6`

	res, err := r.db.ExecContext(ctx, query, sale.ProductID, sale.StartTime,
		sale.TotalUnits, sale.MaxPurchasePerUser, sale.UpdatedAt, sale.ID)
	if err != nil {
		return fmt.Errorf("failed to update sale: %w", err)
	}

	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	} else if affected == 0 {
		return model.ErrSaleNotFound
	}
	return nil
}

// Activate conditionally flips a sale to active. The guard re-checks every
// activation precondition at write time; the partial unique index resolves
// the race between simultaneous activations of two different sales.
func (r *PostgresSaleRepository) Activate(ctx context.Context, id string, now time.Time) (*model.Sale, error) {
	query := `
		UPDATE sales
		SET is_active = TRUE,
			activated_at = COALESCE(activated_at, $1),
			updated_at = $2
		WHERE id = $3
		  AND NOT is_active
		  AND remaining_units > 0
		  AND start_time <= $4
		  AND NOT EXISTS (SELECT 1 FROM sales WHERE is_active)`

	res, err := r.db.ExecContext(ctx, query, now, now, id, now)
	if err != nil {
		if isPostgresUniqueViolation(err) {
			return nil, model.ErrAnotherSaleActive
		}
		return nil, fmt.Errorf("failed to activate sale: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 1 {
		return r.GetByID(ctx, id)
	}

	// Zero rows matched: re-read state to report the precise guard that failed.
	sale, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case sale.IsActive:
		// Already active: the caller's goal state holds.
		return sale, nil
	case sale.RemainingUnits <= 0:
		return nil, model.ErrNoRemainingUnits
	case !sale.Started(now):
		return nil, model.ErrSaleNotStarted
	default:
		return nil, model.ErrAnotherSaleActive
	}
}

// Deactivate ends an active sale, stamping its end time.
func (r *PostgresSaleRepository) Deactivate(ctx context.Context, id string, now time.Time) (*model.Sale, error) {
	query := `
		UPDATE sales
		SET is_active = FALSE, end_time = $1, updated_at = $2
		WHERE id = $3 AND is_active`

	res, err := r.db.ExecContext(ctx, query, now, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate sale: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		sale, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !sale.IsActive {
			return nil, model.ErrSaleNotActive
		}
		return nil, fmt.Errorf("failed to deactivate sale %s", id)
	}

	return r.GetByID(ctx, id)
}

// ResetInventory restores capacity on a non-active sale.
func (r *PostgresSaleRepository) ResetInventory(ctx context.Context, id string, totalUnits int, now time.Time) (*model.Sale, error) {
	query := `
		UPDATE sales
		SET total_units = $1, remaining_units = $2, end_time = NULL, updated_at = $3
		WHERE id = $4 AND NOT is_active`

	res, err := r.db.ExecContext(ctx, query, totalUnits, totalUnits, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reset sale inventory: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		sale, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sale.IsActive {
			return nil, model.ErrSaleActive
		}
		return nil, fmt.Errorf("failed to reset sale %s", id)
	}

	return r.GetByID(ctx, id)
}

// Ensure PostgresSaleRepository implements SaleRepository
var _ SaleRepository = (*PostgresSaleRepository)(nil)
