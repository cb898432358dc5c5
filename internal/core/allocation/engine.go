package allocation

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/rl1809/lot-allocation/internal/core/domain"
)

var errMalformedOrder = errors.New("malformed order")

// RunAllocation runs one pass of the named strategy over the snapshot. Lot
// quantities and order Fulfilled flags are mutated in place; the caller owns
// persisting them together with the returned results.
//
// An unknown strategy is reported before anything is touched. Orders or lots
// carrying invalid data are skipped and listed in the report.
func RunAllocation(orders []*domain.Order, lots []*domain.InventoryLot, name Name, opts ...Option) (*domain.PassReport, error) {
	strategy, err := New(name, opts...)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	report := &domain.PassReport{Strategy: string(name)}

	valid := make([]*domain.InventoryLot, 0, len(lots))
	before := make(map[*domain.InventoryLot]int, len(lots))
	for _, lot := range lots {
		if lot == nil {
			continue
		}
		if lot.Quantity < 0 {
			report.SkippedLots = append(report.SkippedLots, domain.LotSkip{
				LotID:  lot.ID,
				Reason: fmt.Sprintf("%v: lot quantity %d", ErrInvalidQuantity, lot.Quantity),
			})
			continue
		}
		valid = append(valid, lot)
		before[lot] = lot.Quantity
	}
	slices.SortStableFunc(valid, func(a, b *domain.InventoryLot) int {
		if c := cmp.Compare(a.ReceivedSeq, b.ReceivedSeq); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	byItem := make(map[string][]*domain.InventoryLot)
	for _, lot := range valid {
		byItem[lot.ItemCode] = append(byItem[lot.ItemCode], lot)
	}

	pending := make([]*domain.Order, 0, len(orders))
	for _, order := range orders {
		if order != nil && !order.Fulfilled {
			pending = append(pending, order)
		}
	}
	slices.SortStableFunc(pending, func(a, b *domain.Order) int {
		return cmp.Compare(a.CreatedSeq, b.CreatedSeq)
	})

	allocationDate := o.now()
	for _, order := range pending {
		if err := validateOrder(order); err != nil {
			report.SkippedOrders = append(report.SkippedOrders, domain.OrderSkip{
				OrderID: order.ID,
				Reason:  err.Error(),
			})
			continue
		}

		if order.RequestedQuantity > 0 {
			fragments := strategy.Allocate(order, candidates(byItem[order.ItemCode]))
			for _, f := range fragments {
				if f.Quantity <= 0 {
					continue
				}
				report.Results = append(report.Results, domain.AllocationResult{
					ID:                o.newID(),
					OrderID:           order.ID,
					ItemCode:          order.ItemCode,
					LotID:             f.LotID,
					Strategy:          string(name),
					AllocatedQuantity: f.Quantity,
					AllocatedPrice:    f.Price,
					AllocationDate:    allocationDate,
				})
			}
		}

		order.Fulfilled = true
		report.Fulfilled = append(report.Fulfilled, order.ID)
	}

	for _, lot := range valid {
		if lot.Quantity != before[lot] {
			report.TouchedLots = append(report.TouchedLots, lot.ID)
		}
	}

	return report, nil
}

func validateOrder(order *domain.Order) error {
	switch {
	case order.ID == "":
		return fmt.Errorf("%w: missing order id", errMalformedOrder)
	case order.ItemCode == "":
		return fmt.Errorf("%w: missing item code", errMalformedOrder)
	case order.RequestedQuantity < 0:
		return fmt.Errorf("%w: requested quantity %d", ErrInvalidQuantity, order.RequestedQuantity)
	}
	return nil
}

func candidates(lots []*domain.InventoryLot) []*domain.InventoryLot {
	out := make([]*domain.InventoryLot, 0, len(lots))
	for _, lot := range lots {
		if lot.Quantity > 0 {
			out = append(out, lot)
		}
	}
	return out
}
