package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rl1809/lot-allocation/internal/core/domain"
	"github.com/rl1809/lot-allocation/internal/port"
)

// Mock DatabaseRepository
type mockDB struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	lots      map[int64]domain.InventoryLot
	results   []domain.AllocationResult
	nextSeq   int64
	createErr error
	commitErr error
	commits   int
}

func newMockDB() *mockDB {
	return &mockDB{
		orders: make(map[string]domain.Order),
		lots:   make(map[int64]domain.InventoryLot),
	}
}

func (m *mockDB) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.orders[order.ID]; ok {
		return nil, errors.New("duplicate order")
	}
	m.nextSeq++
	order.CreatedSeq = m.nextSeq
	m.orders[order.ID] = order
	return &order, nil
}

func (m *mockDB) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedSeq < out[j].CreatedSeq })
	return out, nil
}

func (m *mockDB) ListUnfulfilledOrders(ctx context.Context) ([]domain.Order, error) {
	all, _ := m.ListOrders(ctx)
	var out []domain.Order
	for _, o := range all {
		if !o.Fulfilled {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockDB) CreateLot(ctx context.Context, lot domain.InventoryLot) (*domain.InventoryLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextSeq++
	lot.ID = m.nextSeq
	lot.ReceivedSeq = m.nextSeq
	m.lots[lot.ID] = lot
	return &lot, nil
}

func (m *mockDB) ListLots(ctx context.Context) ([]domain.InventoryLot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.InventoryLot, 0, len(m.lots))
	for _, l := range m.lots {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockDB) ListResults(ctx context.Context) ([]domain.AllocationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AllocationResult(nil), m.results...), nil
}

// CommitPass applies everything or nothing.
func (m *mockDB) CommitPass(ctx context.Context, commit port.PassCommit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.commitErr != nil {
		return m.commitErr
	}
	for _, l := range commit.Lots {
		if m.lots[l.ID].Version != l.Version {
			return errors.New("stale lot")
		}
	}
	for _, l := range commit.Lots {
		l.Version++
		m.lots[l.ID] = l
	}
	m.results = append(m.results, commit.Results...)
	for _, id := range commit.FulfilledOrderIDs {
		o := m.orders[id]
		o.Fulfilled = true
		m.orders[id] = o
	}
	m.commits++
	return nil
}

func (m *mockDB) lot(id int64) domain.InventoryLot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lots[id]
}

// Mock CacheRepository
type mockCacheRepo struct {
	mu             sync.Mutex
	idempotencySet map[string]bool
	lockHolder     string
	lockErr        error
	releases       int
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{idempotencySet: make(map[string]bool)}
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) ClearIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.idempotencySet, key)
	return nil
}

func (m *mockCacheRepo) AcquirePassLock(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lockErr != nil {
		return false, m.lockErr
	}
	if m.lockHolder != "" {
		return false, nil
	}
	m.lockHolder = token
	return true, nil
}

func (m *mockCacheRepo) ReleasePassLock(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lockHolder == token {
		m.lockHolder = ""
	}
	m.releases++
	return nil
}

// Mock EventPublisher
type mockPublisher struct {
	mu        sync.Mutex
	published []domain.AllocationResult
	err       error
}

func (m *mockPublisher) PublishResults(ctx context.Context, results []domain.AllocationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, results...)
	return nil
}
