package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"flash-sale-api/internal/model"
	"flash-sale-api/pkg/uid"
)

type ledgerFixture struct {
	sales     *SQLiteSaleRepository
	purchases *SQLitePurchaseRepository
	products  *SQLiteProductRepository

	sale    *model.Sale
	product *model.Product
	now     time.Time
}

// newLedgerFixture builds all three stores on one database with an activated
// 10-unit sale ready for purchases.
func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := newTestDB(t)

	sales, err := NewSQLiteSaleRepository(db)
	if err != nil {
		t.Fatalf("NewSQLiteSaleRepository: %v", err)
	}
	purchases, err := NewSQLitePurchaseRepository(db)
	if err != nil {
		t.Fatalf("NewSQLitePurchaseRepository: %v", err)
	}
	products, err := NewSQLiteProductRepository(db)
	if err != nil {
		t.Fatalf("NewSQLiteProductRepository: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	product := &model.Product{
		ID: uid.New(), Name: "Widget", BasePrice: 20, SalePrice: 9.5,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := products.Create(ctx, product); err != nil {
		t.Fatalf("create product: %v", err)
	}

	sale := testSale(now.Add(-time.Hour))
	sale.ProductID = product.ID
	if err := sales.Create(ctx, sale); err != nil {
		t.Fatalf("create sale: %v", err)
	}
	sale, err = sales.Activate(ctx, sale.ID, now)
	if err != nil {
		t.Fatalf("activate sale: %v", err)
	}

	return &ledgerFixture{
		sales:     sales,
		purchases: purchases,
		products:  products,
		sale:      sale,
		product:   product,
		now:       now,
	}
}

func (f *ledgerFixture) purchase(userID string, quantity int, at time.Time) *model.Purchase {
	return &model.Purchase{
		ID:            uid.New(),
		UserID:        userID,
		SaleID:        f.sale.ID,
		ProductID:     f.product.ID,
		Quantity:      quantity,
		TotalPrice:    f.product.SalePrice * float64(quantity),
		PurchaseTime:  at,
		TransactionID: uid.New(),
		CreatedAt:     at,
	}
}

func TestSQLiteCreateReserving(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := uid.New()

	if err := f.purchases.CreateReserving(ctx, f.purchase(user, 3, f.now)); err != nil {
		t.Fatalf("CreateReserving: %v", err)
	}

	sale, err := f.sales.GetByID(ctx, f.sale.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if sale.RemainingUnits != 7 {
		t.Errorf("RemainingUnits = %d, want 7", sale.RemainingUnits)
	}
	if !sale.IsActive {
		t.Error("sale deactivated with stock remaining")
	}

	count, err := f.purchases.CountByUserAndSale(ctx, user, f.sale.ID)
	if err != nil {
		t.Fatalf("CountByUserAndSale: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSQLiteCreateReservingDepletesAndDeactivates(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	if err := f.purchases.CreateReserving(ctx, f.purchase(uid.New(), 10, f.now)); err != nil {
		t.Fatalf("CreateReserving: %v", err)
	}

	sale, _ := f.sales.GetByID(ctx, f.sale.ID)
	if sale.RemainingUnits != 0 {
		t.Errorf("RemainingUnits = %d, want 0", sale.RemainingUnits)
	}
	if sale.IsActive {
		t.Error("sale still active at zero stock")
	}
	if sale.EndTime == nil {
		t.Error("EndTime not stamped on depletion")
	}

	// Depleted means no further reservations.
	err := f.purchases.CreateReserving(ctx, f.purchase(uid.New(), 1, f.now))
	if !errors.Is(err, model.ErrStockDepleted) {
		t.Errorf("err = %v, want %v", err, model.ErrStockDepleted)
	}
}

func TestSQLiteCreateReservingGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("more than remaining", func(t *testing.T) {
		f := newLedgerFixture(t)
		err := f.purchases.CreateReserving(ctx, f.purchase(uid.New(), 11, f.now))
		if !errors.Is(err, model.ErrStockDepleted) {
			t.Errorf("err = %v, want %v", err, model.ErrStockDepleted)
		}

		sale, _ := f.sales.GetByID(ctx, f.sale.ID)
		if sale.RemainingUnits != 10 {
			t.Errorf("RemainingUnits = %d, want untouched 10", sale.RemainingUnits)
		}
	})

	t.Run("inactive sale", func(t *testing.T) {
		f := newLedgerFixture(t)
		if _, err := f.sales.Deactivate(ctx, f.sale.ID, f.now); err != nil {
			t.Fatalf("Deactivate: %v", err)
		}

		err := f.purchases.CreateReserving(ctx, f.purchase(uid.New(), 1, f.now))
		if !errors.Is(err, model.ErrStockDepleted) {
			t.Errorf("err = %v, want %v", err, model.ErrStockDepleted)
		}
	})
}

func TestSQLiteCreateReservingRollsBackOnInsertFailure(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	first := f.purchase(uid.New(), 1, f.now)
	if err := f.purchases.CreateReserving(ctx, first); err != nil {
		t.Fatalf("first CreateReserving: %v", err)
	}

	// Reusing the transaction ID violates the unique index; the whole
	// transaction, decrement included, must roll back.
	second := f.purchase(uid.New(), 2, f.now)
	second.TransactionID = first.TransactionID
	err := f.purchases.CreateReserving(ctx, second)
	if err == nil {
		t.Fatal("expected unique violation on duplicate transaction id")
	}
	if errors.Is(err, model.ErrStockDepleted) {
		t.Fatalf("duplicate transaction misreported as stock depletion: %v", err)
	}

	sale, _ := f.sales.GetByID(ctx, f.sale.ID)
	if sale.RemainingUnits != 9 {
		t.Errorf("RemainingUnits = %d, want 9 (only first purchase committed)", sale.RemainingUnits)
	}
	count, _ := f.purchases.CountByUserAndSale(ctx, second.UserID, f.sale.ID)
	if count != 0 {
		t.Errorf("rolled-back purchase visible in ledger: count = %d", count)
	}
}

func TestSQLiteCreateReservingConcurrent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	const attempts = 30
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.purchases.CreateReserving(ctx, f.purchase(uid.New(), 1, f.now))
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, model.ErrStockDepleted) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 10 {
		t.Errorf("successes = %d, want exactly 10 (total stock)", successes)
	}

	sale, _ := f.sales.GetByID(ctx, f.sale.ID)
	if sale.RemainingUnits != 0 {
		t.Errorf("RemainingUnits = %d, want 0", sale.RemainingUnits)
	}
	if sale.IsActive {
		t.Error("sale still active after depletion")
	}
}

func TestSQLiteListByUser(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	user := uid.New()

	for i := 0; i < 3; i++ {
		p := f.purchase(user, 1, f.now.Add(time.Duration(i)*time.Minute))
		if err := f.purchases.CreateReserving(ctx, p); err != nil {
			t.Fatalf("CreateReserving %d: %v", i, err)
		}
	}

	entries, total, err := f.purchases.ListByUser(ctx, user, 1, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].PurchaseTime.After(entries[i-1].PurchaseTime) {
			t.Errorf("entry %d newer than entry %d; want most recent first", i, i-1)
		}
	}
	for _, e := range entries {
		if e.ProductName != "Widget" {
			t.Errorf("ProductName = %q, want Widget", e.ProductName)
		}
	}

	entries, total, err = f.purchases.ListByUser(ctx, uid.New(), 1, 10)
	if err != nil {
		t.Fatalf("ListByUser unknown user: %v", err)
	}
	if total != 0 || len(entries) != 0 {
		t.Errorf("unknown user: got %d entries (total %d), want none", len(entries), total)
	}
}

func TestSQLiteListBySale(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := f.purchase(uid.New(), 1, f.now.Add(time.Duration(i)*time.Second))
		if err := f.purchases.CreateReserving(ctx, p); err != nil {
			t.Fatalf("CreateReserving %d: %v", i, err)
		}
	}

	page1, total, err := f.purchases.ListBySale(ctx, f.sale.ID, 1, 3)
	if err != nil {
		t.Fatalf("ListBySale: %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(page1) != 3 {
		t.Fatalf("page 1 has %d rows, want 3", len(page1))
	}
	for i := 1; i < len(page1); i++ {
		if page1[i].PurchaseTime.Before(page1[i-1].PurchaseTime) {
			t.Errorf("row %d older than row %d; want commit order", i, i-1)
		}
	}

	page2, _, err := f.purchases.ListBySale(ctx, f.sale.ID, 2, 3)
	if err != nil {
		t.Fatalf("ListBySale page 2: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page 2 has %d rows, want 2", len(page2))
	}
	if page2[0].PurchaseTime.Before(page1[2].PurchaseTime) {
		t.Error("page 2 starts before page 1 ends")
	}
}

func TestSQLiteGetStats(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	if err := f.purchases.CreateReserving(ctx, f.purchase(uid.New(), 4, f.now)); err != nil {
		t.Fatalf("CreateReserving: %v", err)
	}
	if err := f.purchases.CreateReserving(ctx, f.purchase(uid.New(), 6, f.now)); err != nil {
		t.Fatalf("CreateReserving: %v", err)
	}

	stats, err := f.purchases.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if got := stats["total_purchases"].(int64); got != 2 {
		t.Errorf("total_purchases = %d, want 2", got)
	}
	if got := stats["units_sold"].(int64); got != 10 {
		t.Errorf("units_sold = %d, want 10", got)
	}
	if got := stats["total_revenue"].(float64); got != 95 {
		t.Errorf("total_revenue = %v, want 95", got)
	}
	if got := stats["depleted_sales"].(int64); got != 1 {
		t.Errorf("depleted_sales = %d, want 1", got)
	}
}
