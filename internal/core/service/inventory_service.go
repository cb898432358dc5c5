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

var ErrInvalidLot = errors.New("invalid lot")

type InventoryService struct {
	db     port.DatabaseRepository
	cache  port.CacheRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewInventoryService(db port.DatabaseRepository, cache port.CacheRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		db:     db,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// ReceiveLot stores a new lot at the end of the item's receipt order.
func (s *InventoryService) ReceiveLot(ctx context.Context, requestID string, lot domain.InventoryLot) (*domain.InventoryLot, error) {
	if lot.ItemCode == "" {
		return nil, fmt.Errorf("%w: item code is required", ErrInvalidLot)
	}
	if lot.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidLot)
	}
	if lot.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unit price must not be negative", ErrInvalidLot)
	}

	var key string
	if requestID != "" {
		key = fmt.Sprintf("lot:%s", requestID)
		ok, err := s.cache.SetIdempotency(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	now := s.now()
	lot.CreatedAt = now
	lot.UpdatedAt = now

	created, err := s.db.CreateLot(ctx, lot)
	if err != nil {
		clearIdempotency(ctx, s.cache, s.logger, key)
		return nil, fmt.Errorf("create lot: %w", err)
	}

	s.logger.Info("lot received",
		zap.Int64("lot_id", created.ID),
		zap.String("item_code", created.ItemCode),
		zap.Int("quantity", created.Quantity),
		zap.Float64("unit_price", created.UnitPrice),
	)
	return created, nil
}

func (s *InventoryService) Lots(ctx context.Context) ([]domain.InventoryLot, error) {
	return s.db.ListLots(ctx)
}
