package repository

import (
	"context"
	"database/sql"
	"fmt"

	"flash-sale-api/internal/model"
)

// PostgresPurchaseRepository implements PurchaseRepository using PostgreSQL.
type PostgresPurchaseRepository struct {
	db *sql.DB
}

// NewPostgresPurchaseRepository creates a new PostgreSQL purchase repository
// and ensures the ledger schema.
func NewPostgresPurchaseRepository(db *sql.DB) (*PostgresPurchaseRepository, error) {
	query := `
	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		sale_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		total_price DOUBLE PRECISION NOT NULL,
		purchase_time TIMESTAMPTZ NOT NULL,
		transaction_id TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_purchases_user_sale ON purchases(user_id, sale_id);
	CREATE INDEX IF NOT EXISTS idx_purchases_sale_time ON purchases(sale_id, purchase_time);
	CREATE INDEX IF NOT EXISTS idx_purchases_user_time ON purchases(user_id, purchase_time);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create purchases table: %w", err)
	}

	return &PostgresPurchaseRepository{db: db}, nil
}

// CreateReserving commits a reservation: conditional stock decrement and
// ledger append in one transaction. Zero rows from the decrement means a
// concurrent purchase won the race; a failed ledger insert rolls the
// decrement back.
func (r *PostgresPurchaseRepository) CreateReserving(ctx context.Context, p *model.Purchase) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	decrement := `
		UPDATE sales
		SET remaining_units = remaining_units - $1,
			is_active = remaining_units - $1 > 0,
			end_time = CASE WHEN remaining_units - $1 <= 0 THEN $2 ELSE end_time END,
			updated_at = $2
		WHERE id = $3 AND is_active AND remaining_units >= $1`

	res, err := tx.ExecContext(ctx, decrement, p.Quantity, p.PurchaseTime, p.SaleID)
	if err != nil {
		return fmt.Errorf("failed to decrement remaining units: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return model.ErrStockDepleted
	}

	insert := `
		INSERT INTO purchases (id, user_id, sale_id, product_id, quantity, total_price,
			purchase_time, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.ExecContext(ctx, insert, p.ID, p.UserID, p.SaleID, p.ProductID,
		p.Quantity, p.TotalPrice, p.PurchaseTime, p.TransactionID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purchase: %w", err)
	}
	return nil
}

// CountByUserAndSale counts a user's committed purchase rows against a sale.
func (r *PostgresPurchaseRepository) CountByUserAndSale(ctx context.Context, userID, saleID string) (int, error) {
	query := `SELECT COUNT(*) FROM purchases WHERE user_id = $1 AND sale_id = $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, saleID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count purchases: %w", err)
	}
	return count, nil
}

// ListByUser returns a user's purchases, most recent first.
func (r *PostgresPurchaseRepository) ListByUser(ctx context.Context, userID string, page, limit int) ([]model.HistoryEntry, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM purchases WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	query := `
		SELECT p.id, p.user_id, p.sale_id, p.product_id, p.quantity, p.total_price,
			p.purchase_time, p.transaction_id, p.created_at,
			pr.name, s.start_time, s.end_time
		FROM purchases p
		LEFT JOIN products pr ON pr.id = p.product_id
		JOIN sales s ON s.id = p.sale_id
		WHERE p.user_id = $1
		ORDER BY p.purchase_time DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query purchase history: %w", err)
	}
	defer rows.Close()

	entries := make([]model.HistoryEntry, 0, limit)
	for rows.Next() {
		var (
			e           model.HistoryEntry
			productName sql.NullString
			saleEnd     sql.NullTime
		)
		err := rows.Scan(&e.ID, &e.UserID, &e.SaleID, &e.ProductID, &e.Quantity,
			&e.TotalPrice, &e.PurchaseTime, &e.TransactionID, &e.CreatedAt,
			&productName, &e.SaleStartTime, &saleEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.ProductName = productName.String
		if saleEnd.Valid {
			e.SaleEndTime = &saleEnd.Time
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate purchase history: %w", err)
	}

	return entries, total, nil
}

// ListBySale returns a sale's purchases in purchase-time ascending order.
func (r *PostgresPurchaseRepository) ListBySale(ctx context.Context, saleID string, page, limit int) ([]model.SalePurchase, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM purchases WHERE sale_id = $1`, saleID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	query := `
		SELECT p.id, p.user_id, p.sale_id, p.product_id, p.quantity, p.total_price,
			p.purchase_time, p.transaction_id, p.created_at, pr.name
		FROM purchases p
		LEFT JOIN products pr ON pr.id = p.product_id
		WHERE p.sale_id = $1
		ORDER BY p.purchase_time ASC, p.created_at ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, saleID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sale purchases: %w", err)
	}
	defer rows.Close()

	purchases := make([]model.SalePurchase, 0, limit)
	for rows.Next() {
		var (
			sp          model.SalePurchase
			productName sql.NullString
		)
		err := rows.Scan(&sp.ID, &sp.UserID, &sp.SaleID, &sp.ProductID, &sp.Quantity,
			&sp.TotalPrice, &sp.PurchaseTime, &sp.TransactionID, &sp.CreatedAt, &productName)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sale purchase: %w", err)
		}
		sp.ProductName = productName.String
		purchases = append(purchases, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate sale purchases: %w", err)
	}

	return purchases, total, nil
}

// GetStats returns ledger and sale counters.
func (r *PostgresPurchaseRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var purchases int64
	var unitsSold sql.NullInt64
	var revenue sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), SUM(quantity), SUM(total_price) FROM purchases`).
		Scan(&purchases, &unitsSold, &revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger stats: %w", err)
	}
	stats["total_purchases"] = purchases
	stats["units_sold"] = unitsSold.Int64
	stats["total_revenue"] = revenue.Float64

	var totalSales, depletedSales int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(CASE WHEN remaining_units = 0 THEN 1 END) FROM sales`).
		Scan(&totalSales, &depletedSales)
	if err != nil {
		return nil, fmt.Errorf("failed to read sale stats: %w", err)
	}
	stats["total_sales"] = totalSales
	stats["depleted_sales"] = depletedSales

	return stats, nil
}

// Ensure PostgresPurchaseRepository implements PurchaseRepository
var _ PurchaseRepository = (*PostgresPurchaseRepository)(nil)
