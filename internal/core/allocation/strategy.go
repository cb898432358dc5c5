package allocation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/lot-allocation/internal/core/domain"
)

var (
	ErrUnknownStrategy = errors.New("unknown allocation strategy")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

type Name string

const (
	FIFO          Name = "FIFO"
	LIFO          Name = "LIFO"
	Average       Name = "AVERAGE"
	Specific      Name = "SPECIFIC"
	TotalAverage  Name = "TOTAL_AVERAGE"
	MovingAverage Name = "MOVING_AVERAGE"
)

const DefaultMovingAverageWindow = 3

func Names() []Name {
	return []Name{FIFO, LIFO, Average, Specific, TotalAverage, MovingAverage}
}

// ParseName accepts strategy names case-insensitively.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Names() {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Fragment is one (quantity, price) contribution to an order.
// Price is the monetary amount for Quantity units, not a unit price.
type Fragment struct {
	LotID    int64
	Quantity int
	Price    float64
}

// Strategy consumes lots for one order. Lots are the order's candidates in
// stored (ascending receipt) order; the strategy decrements their quantities
// in place.
type Strategy interface {
	Name() Name
	Allocate(order *domain.Order, lots []*domain.InventoryLot) []Fragment
}

// LotSelector picks the single lot SPECIFIC allocates from. It returns nil
// when no lot qualifies.
type LotSelector func(order *domain.Order, lots []*domain.InventoryLot) *domain.InventoryLot

// DesignatedOrFirstSufficient honours Order.DesignatedLotID when set and
// otherwise picks the first lot holding the whole requested quantity.
func DesignatedOrFirstSufficient(order *domain.Order, lots []*domain.InventoryLot) *domain.InventoryLot {
	if order.DesignatedLotID != 0 {
		for _, lot := range lots {
			if lot.ID == order.DesignatedLotID {
				return lot
			}
		}
		return nil
	}
	for _, lot := range lots {
		if lot.Quantity >= order.RequestedQuantity {
			return lot
		}
	}
	return nil
}

// New builds a fresh strategy instance for one pass.
func New(name Name, opts ...Option) (Strategy, error) {
	o := buildOptions(opts)

	switch name {
	case FIFO:
		return &sequentialStrategy{name: FIFO}, nil
	case LIFO:
		return &sequentialStrategy{name: LIFO, newestFirst: true}, nil
	case Average:
		return &averageStrategy{name: Average}, nil
	case TotalAverage:
		return &averageStrategy{name: TotalAverage}, nil
	case Specific:
		return &specificStrategy{selectLot: o.selector}, nil
	case MovingAverage:
		return &movingAverageStrategy{window: o.window}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// take decrements lot by up to remaining units and returns what was taken.
func take(lot *domain.InventoryLot, remaining int) int {
	n := remaining
	if lot.Quantity < n {
		n = lot.Quantity
	}
	lot.Quantity -= n
	return n
}

// weightedAverage is Σ(qty×price)/Σqty, or 0 when Σqty is 0.
func weightedAverage(lots []*domain.InventoryLot, qty func(*domain.InventoryLot) int) float64 {
	var totalQty int
	var totalValue float64
	for _, lot := range lots {
		q := qty(lot)
		totalQty += q
		totalValue += float64(q) * lot.UnitPrice
	}
	if totalQty == 0 {
		return 0
	}
	return totalValue / float64(totalQty)
}
