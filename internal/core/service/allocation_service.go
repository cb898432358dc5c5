package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/lot-allocation/internal/core/allocation"
	"github.com/rl1809/lot-allocation/internal/core/domain"
	"github.com/rl1809/lot-allocation/internal/port"
)

var ErrPassInProgress = errors.New("allocation pass already in progress")

const releaseTimeout = 5 * time.Second

// AllocationService runs allocation passes against the stored snapshot. One
// pass at a time holds the cache lock; everything a pass writes commits in a
// single repository transaction.
type AllocationService struct {
	db        port.DatabaseRepository
	cache     port.CacheRepository
	publisher port.EventPublisher
	logger    *zap.Logger
	lockTTL   time.Duration
	opts      []allocation.Option
}

func NewAllocationService(
	db port.DatabaseRepository,
	cache port.CacheRepository,
	publisher port.EventPublisher,
	logger *zap.Logger,
	lockTTL time.Duration,
	opts ...allocation.Option,
) *AllocationService {
	return &AllocationService{
		db:        db,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		lockTTL:   lockTTL,
		opts:      opts,
	}
}

func (s *AllocationService) Run(ctx context.Context, method string) (*domain.PassReport, error) {
	name, err := allocation.ParseName(method)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	ok, err := s.cache.AcquirePassLock(ctx, token, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire pass lock: %w", err)
	}
	if !ok {
		return nil, ErrPassInProgress
	}
	defer s.releaseLock(ctx, token)

	orders, err := s.db.ListUnfulfilledOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	lots, err := s.db.ListLots(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lots: %w", err)
	}

	orderRefs := make([]*domain.Order, len(orders))
	for i := range orders {
		orderRefs[i] = &orders[i]
	}
	lotRefs := make([]*domain.InventoryLot, len(lots))
	lotsByID := make(map[int64]*domain.InventoryLot, len(lots))
	for i := range lots {
		lotRefs[i] = &lots[i]
		lotsByID[lots[i].ID] = &lots[i]
	}

	report, err := allocation.RunAllocation(orderRefs, lotRefs, name, s.opts...)
	if err != nil {
		return nil, err
	}

	for _, skip := range report.SkippedOrders {
		s.logger.Warn("order skipped", zap.String("order_id", skip.OrderID), zap.String("reason", skip.Reason))
	}
	for _, skip := range report.SkippedLots {
		s.logger.Warn("lot skipped", zap.Int64("lot_id", skip.LotID), zap.String("reason", skip.Reason))
	}

	commit := port.PassCommit{
		Results:           report.Results,
		FulfilledOrderIDs: report.Fulfilled,
	}
	for _, id := range report.TouchedLots {
		commit.Lots = append(commit.Lots, *lotsByID[id])
	}

	if err := s.db.CommitPass(ctx, commit); err != nil {
		return nil, fmt.Errorf("commit pass: %w", err)
	}

	for _, orderID := range report.Fulfilled {
		var qty int
		var price float64
		for _, r := range report.Results {
			if r.OrderID == orderID {
				qty += r.AllocatedQuantity
				price += r.AllocatedPrice
			}
		}
		s.logger.Info("allocation completed",
			zap.String("order_id", orderID),
			zap.Int("allocated_quantity", qty),
			zap.Float64("allocated_price", price),
		)
	}

	if err := s.publisher.PublishResults(ctx, report.Results); err != nil {
		s.logger.Error("publish allocation results", zap.Error(err), zap.Int("results", len(report.Results)))
	}

	s.logger.Info("allocation pass committed",
		zap.String("strategy", report.Strategy),
		zap.Int("orders", len(report.Fulfilled)),
		zap.Int("results", len(report.Results)),
		zap.Int("lots_touched", len(report.TouchedLots)),
		zap.Int("orders_skipped", len(report.SkippedOrders)),
	)
	return report, nil
}

func (s *AllocationService) Results(ctx context.Context) ([]domain.AllocationResult, error) {
	return s.db.ListResults(ctx)
}

func (s *AllocationService) releaseLock(ctx context.Context, token string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := s.cache.ReleasePassLock(ctx, token); err != nil {
		s.logger.Error("release pass lock", zap.Error(err))
	}
}
