package port

import (
	"context"
	"errors"

	"github.com/rl1809/lot-allocation/internal/core/domain"
)

var ErrDuplicateOrder = errors.New("order already exists")

// PassCommit is everything one allocation pass writes.
type PassCommit struct {
	Lots              []domain.InventoryLot
	Results           []domain.AllocationResult
	FulfilledOrderIDs []string
}

type DatabaseRepository interface {
	// CreateOrder persists a new unfulfilled order and returns it with its creation sequence
	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)

	ListOrders(ctx context.Context) ([]domain.Order, error)

	// ListUnfulfilledOrders returns pending orders in creation order
	ListUnfulfilledOrders(ctx context.Context) ([]domain.Order, error)

	// CreateLot persists a received lot and returns it with its id and receipt sequence
	CreateLot(ctx context.Context, lot domain.InventoryLot) (*domain.InventoryLot, error)

	// ListLots returns all lots in receipt order
	ListLots(ctx context.Context) ([]domain.InventoryLot, error)

	ListResults(ctx context.Context) ([]domain.AllocationResult, error)

	// CommitPass writes lot quantities, results and fulfilled flags in one
	// transaction, with version checks on every lot
	CommitPass(ctx context.Context, commit PassCommit) error
}
