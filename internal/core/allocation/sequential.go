package allocation

import "github.com/rl1809/lot-allocation/internal/core/domain"

// sequentialStrategy implements FIFO and LIFO: every lot contact is priced at
// the lot's own unit price and yields its own fragment.
type sequentialStrategy struct {
	name        Name
	newestFirst bool
}

func (s *sequentialStrategy) Name() Name { return s.name }

func (s *sequentialStrategy) Allocate(order *domain.Order, lots []*domain.InventoryLot) []Fragment {
	remaining := order.RequestedQuantity
	var fragments []Fragment

	for i := range lots {
		if remaining <= 0 {
			break
		}
		lot := lots[i]
		if s.newestFirst {
			lot = lots[len(lots)-1-i]
		}
		if lot.Quantity <= 0 {
			continue
		}

		n := take(lot, remaining)
		remaining -= n
		fragments = append(fragments, Fragment{
			LotID:    lot.ID,
			Quantity: n,
			Price:    float64(n) * lot.UnitPrice,
		})
	}

	return fragments
}
