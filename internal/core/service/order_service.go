package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/lot-allocation/internal/core/domain"
	"github.com/rl1809/lot-allocation/internal/port"
)

var (
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrInvalidOrder     = errors.New("invalid order")
)

type OrderService struct {
	db     port.DatabaseRepository
	cache  port.CacheRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewOrderService(db port.DatabaseRepository, cache port.CacheRepository, logger *zap.Logger) *OrderService {
	return &OrderService{
		db:     db,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// PlaceOrder records an unfulfilled order. A non-empty requestID makes the
// call idempotent: a repeated id returns ErrDuplicateRequest.
func (s *OrderService) PlaceOrder(ctx context.Context, requestID string, order domain.Order) (*domain.Order, error) {
	if order.ID == "" || order.ItemCode == "" {
		return nil, fmt.Errorf("%w: order id and item code are required", ErrInvalidOrder)
	}
	if order.RequestedQuantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidOrder)
	}
	if order.DesignatedLotID < 0 {
		return nil, fmt.Errorf("%w: designated lot id must not be negative", ErrInvalidOrder)
	}

	var key string
	if requestID != "" {
		key = fmt.Sprintf("order:%s", requestID)
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	order.Fulfilled = false
	order.CreatedAt = s.now()

	created, err := s.db.CreateOrder(ctx, order)
	if err != nil {
		clearIdempotency(ctx, s.cache, s.logger, key)
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order placed",
		zap.String("order_id", created.ID),
		zap.String("item_code", created.ItemCode),
		zap.Int("quantity", created.RequestedQuantity),
	)
	return created, nil
}

func (s *OrderService) Orders(ctx context.Context) ([]domain.Order, error) {
	return s.db.ListOrders(ctx)
}

// clearIdempotency frees key after a failed write so the caller can retry
// with the same request id.
func clearIdempotency(ctx context.Context, cache port.CacheRepository, logger *zap.Logger, key string) {
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := cache.ClearIdempotency(ctx, key); err != nil {
		logger.Error("clear idempotency key", zap.String("key", key), zap.Error(err))
	}
}
