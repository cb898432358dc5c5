package allocation

import "github.com/rl1809/lot-allocation/internal/core/domain"

// averageStrategy implements AVERAGE and TOTAL_AVERAGE. Both consume lots
// oldest first and report one aggregate fragment priced at the weighted
// average of the item's lots as they stand when the order is processed.
type averageStrategy struct {
	name Name
}

func (s *averageStrategy) Name() Name { return s.name }

func (s *averageStrategy) Allocate(order *domain.Order, lots []*domain.InventoryLot) []Fragment {
	unitPrice := weightedAverage(lots, lotQuantity)

	remaining := order.RequestedQuantity
	allocated := 0
	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		n := take(lot, remaining)
		remaining -= n
		allocated += n
	}

	if allocated == 0 {
		return nil
	}
	return []Fragment{{Quantity: allocated, Price: float64(allocated) * unitPrice}}
}

func lotQuantity(lot *domain.InventoryLot) int {
	if lot.Quantity < 0 {
		return 0
	}
	return lot.Quantity
}
