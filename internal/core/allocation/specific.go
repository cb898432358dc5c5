package allocation

import "github.com/rl1809/lot-allocation/internal/core/domain"

// specificStrategy allocates the whole order from one selected lot or not at
// all.
type specificStrategy struct {
	selectLot LotSelector
}

func (s *specificStrategy) Name() Name { return Specific }

func (s *specificStrategy) Allocate(order *domain.Order, lots []*domain.InventoryLot) []Fragment {
	lot := s.selectLot(order, lots)
	if lot == nil || lot.Quantity < order.RequestedQuantity {
		return nil
	}

	lot.Quantity -= order.RequestedQuantity
	return []Fragment{{
		LotID:    lot.ID,
		Quantity: order.RequestedQuantity,
		Price:    float64(order.RequestedQuantity) * lot.UnitPrice,
	}}
}
