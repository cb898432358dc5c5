package allocation

import "github.com/rl1809/lot-allocation/internal/core/domain"

// movingAverageStrategy walks lots oldest first, keeping a sliding window of
// the last window unit prices touched for the order. Every fragment is priced
// at the window average as it stands after the last lot touched.
type movingAverageStrategy struct {
	window int
}

func (s *movingAverageStrategy) Name() Name { return MovingAverage }

func (s *movingAverageStrategy) Allocate(order *domain.Order, lots []*domain.InventoryLot) []Fragment {
	remaining := order.RequestedQuantity
	prices := make([]float64, 0, s.window)
	var fragments []Fragment

	for _, lot := range lots {
		if remaining <= 0 {
			break
		}
		if lot.Quantity <= 0 {
			continue
		}

		prices = append(prices, lot.UnitPrice)
		if len(prices) > s.window {
			prices = prices[1:]
		}

		n := take(lot, remaining)
		remaining -= n
		fragments = append(fragments, Fragment{LotID: lot.ID, Quantity: n})
	}

	unitPrice := mean(prices)
	for i := range fragments {
		fragments[i].Price = float64(fragments[i].Quantity) * unitPrice
	}
	return fragments
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
