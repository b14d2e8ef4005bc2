package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"flash-sale-api/internal/model"
	"flash-sale-api/internal/repository"
)

// fakeSaleRepo is an in-memory SaleRepository with the same conditional-write
// semantics as the SQL backends. The mutex is shared with fakePurchaseRepo so
// reservation commits are atomic across both.
type fakeSaleRepo struct {
	mu    sync.Mutex
	sales map[string]*model.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[string]*model.Sale)}
}

func (f *fakeSaleRepo) put(s *model.Sale) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sales[s.ID] = &cp
}

func (f *fakeSaleRepo) Create(ctx context.Context, sale *model.Sale) error {
	f.put(sale)
	return nil
}

func (f *fakeSaleRepo) GetByID(ctx context.Context, id string) (*model.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getLocked(id)
}

func (f *fakeSaleRepo) getLocked(id string) (*model.Sale, error) {
	s, ok := f.sales[id]
	if !ok {
		return nil, model.ErrSaleNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSaleRepo) GetActive(ctx context.Context) (*model.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sales {
		if s.IsActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, model.ErrSaleNotFound
}

func (f *fakeSaleRepo) GetActiveByProduct(ctx context.Context, productID string) (*model.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sales {
		if s.IsActive && s.ProductID == productID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, model.ErrSaleNotFound
}

func (f *fakeSaleRepo) List(ctx context.Context, page, limit int) ([]model.Sale, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.Sale, 0, len(f.sales))
	for _, s := range f.sales {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (f *fakeSaleRepo) Update(ctx context.Context, sale *model.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.sales[sale.ID]
	if !ok {
		return model.ErrSaleNotFound
	}
	stored.ProductID = sale.ProductID
	stored.StartTime = sale.StartTime
	stored.TotalUnits = sale.TotalUnits
	stored.MaxPurchasePerUser = sale.MaxPurchasePerUser
	stored.UpdatedAt = sale.UpdatedAt
	return nil
}

func (f *fakeSaleRepo) Activate(ctx context.Context, id string, now time.Time) (*model.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return nil, model.ErrSaleNotFound
	}
	if s.IsActive {
		cp := *s
		return &cp, nil
	}
	if s.RemainingUnits <= 0 {
		return nil, model.ErrNoRemainingUnits
	}
	if s.StartTime.After(now) {
		return nil, model.ErrSaleNotStarted
	}
	for _, other := range f.sales {
		if other.IsActive {
			return nil, model.ErrAnotherSaleActive
		}
	}
	s.IsActive = true
	if s.ActivatedAt == nil {
		t := now
		s.ActivatedAt = &t
	}
	s.UpdatedAt = now
	cp := *s
	return &cp, nil
}

func (f *fakeSaleRepo) Deactivate(ctx context.Context, id string, now time.Time) (*model.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return nil, model.ErrSaleNotFound
	}
	if !s.IsActive {
		return nil, model.ErrSaleNotActive
	}
	s.IsActive = false
	t := now
	s.EndTime = &t
	s.UpdatedAt = now
	cp := *s
	return &cp, nil
}

func (f *fakeSaleRepo) ResetInventory(ctx context.Context, id string, totalUnits int, now time.Time) (*model.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return nil, model.ErrSaleNotFound
	}
	if s.IsActive {
		return nil, model.ErrSaleActive
	}
	s.TotalUnits = totalUnits
	s.RemainingUnits = totalUnits
	s.EndTime = nil
	s.UpdatedAt = now
	cp := *s
	return &cp, nil
}

// fakePurchaseRepo appends to an in-memory ledger. CreateReserving shares the
// sale repo's mutex so the guard check and decrement are one atomic step,
// mirroring the SQL transaction.
type fakePurchaseRepo struct {
	sales *fakeSaleRepo

	mu        sync.Mutex
	purchases []model.Purchase

	// test hooks
	beforeCommit func()
	failInsert   bool
}

func newFakePurchaseRepo(sales *fakeSaleRepo) *fakePurchaseRepo {
	return &fakePurchaseRepo{sales: sales}
}

func (f *fakePurchaseRepo) CreateReserving(ctx context.Context, p *model.Purchase) error {
	if f.beforeCommit != nil {
		f.beforeCommit()
	}

	f.sales.mu.Lock()
	defer f.sales.mu.Unlock()

	s, ok := f.sales.sales[p.SaleID]
	if !ok || !s.IsActive || s.RemainingUnits < p.Quantity {
		return model.ErrStockDepleted
	}

	s.RemainingUnits -= p.Quantity
	if s.RemainingUnits <= 0 {
		s.IsActive = false
		t := p.PurchaseTime
		s.EndTime = &t
	}
	s.UpdatedAt = p.PurchaseTime

	if f.failInsert {
		// Roll the decrement back, as the SQL transaction would.
		s.RemainingUnits += p.Quantity
		s.IsActive = true
		s.EndTime = nil
		return context.DeadlineExceeded
	}

	f.mu.Lock()
	f.purchases = append(f.purchases, *p)
	f.mu.Unlock()
	return nil
}

func (f *fakePurchaseRepo) CountByUserAndSale(ctx context.Context, userID, saleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, p := range f.purchases {
		if p.UserID == userID && p.SaleID == saleID {
			count++
		}
	}
	return count, nil
}

func (f *fakePurchaseRepo) ListByUser(ctx context.Context, userID string, page, limit int) ([]model.HistoryEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.Purchase
	for _, p := range f.purchases {
		if p.UserID == userID {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].PurchaseTime.After(matched[j].PurchaseTime) })

	entries := make([]model.HistoryEntry, len(matched))
	for i, p := range matched {
		entries[i] = model.HistoryEntry{Purchase: p}
	}
	return paginate(entries, page, limit), int64(len(entries)), nil
}

func (f *fakePurchaseRepo) ListBySale(ctx context.Context, saleID string, page, limit int) ([]model.SalePurchase, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []model.Purchase
	for _, p := range f.purchases {
		if p.SaleID == saleID {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].PurchaseTime.Before(matched[j].PurchaseTime) })

	out := make([]model.SalePurchase, len(matched))
	for i, p := range matched {
		out[i] = model.SalePurchase{Purchase: p}
	}
	return paginate(out, page, limit), int64(len(out)), nil
}

func (f *fakePurchaseRepo) GetStats(ctx context.Context) (map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return map[string]interface{}{"total_purchases": int64(len(f.purchases))}, nil
}

// fakeProductRepo is an in-memory ProductRepository.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*model.Product)}
}

func (f *fakeProductRepo) put(p *model.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.products[p.ID] = &cp
}

func (f *fakeProductRepo) Create(ctx context.Context, p *model.Product) error {
	f.put(p)
	return nil
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, model.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) List(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, q.Page, q.Limit), int64(len(all)), nil
}

func (f *fakeProductRepo) Update(ctx context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return model.ErrProductNotFound
	}
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return model.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User)}
}

func (f *fakeUserRepo) put(u *model.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return model.ErrEmailTaken
		}
		if existing.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmailOrUsername(ctx context.Context, identifier string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == identifier || u.Username == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (f *fakeUserRepo) GetUsernames(ctx context.Context, ids []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			names[id] = u.Username
		}
	}
	return names, nil
}

// fakeTokenIssuer records issued and revoked tokens.
type fakeTokenIssuer struct {
	mu      sync.Mutex
	issued  []model.TokenData
	revoked []string
}

func (f *fakeTokenIssuer) GenerateToken(ctx context.Context, data model.TokenData) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, data)
	return "fst_test_token", nil
}

func (f *fakeTokenIssuer) RevokeToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, token)
	return nil
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var (
	_ repository.SaleRepository     = (*fakeSaleRepo)(nil)
	_ repository.PurchaseRepository = (*fakePurchaseRepo)(nil)
	_ repository.ProductRepository  = (*fakeProductRepo)(nil)
	_ repository.UserRepository     = (*fakeUserRepo)(nil)
)
