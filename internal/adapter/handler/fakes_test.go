package handler

import (
	"context"

	"github.com/rl1809/lot-allocation/internal/core/domain"
)

type fakeOrders struct {
	placed []domain.Order
	err    error
}

func (f *fakeOrders) PlaceOrder(_ context.Context, _ string, order domain.Order) (*domain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	order.CreatedSeq = int64(len(f.placed) + 1)
	f.placed = append(f.placed, order)
	return &order, nil
}

func (f *fakeOrders) Orders(context.Context) ([]domain.Order, error) {
	return f.placed, nil
}

type fakeLots struct {
	received []domain.InventoryLot
	err      error
}

func (f *fakeLots) ReceiveLot(_ context.Context, _ string, lot domain.InventoryLot) (*domain.InventoryLot, error) {
	if f.err != nil {
		return nil, f.err
	}
	lot.ID = int64(len(f.received) + 1)
	f.received = append(f.received, lot)
	return &lot, nil
}

func (f *fakeLots) Lots(context.Context) ([]domain.InventoryLot, error) {
	return f.received, nil
}

type fakeAllocations struct {
	report  *domain.PassReport
	results []domain.AllocationResult
	err     error
	method  string
}

func (f *fakeAllocations) Run(_ context.Context, method string) (*domain.PassReport, error) {
	f.method = method
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func (f *fakeAllocations) Results(context.Context) ([]domain.AllocationResult, error) {
	return f.results, f.err
}
