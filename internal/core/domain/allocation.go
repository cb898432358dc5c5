package domain

import "time"

// AllocationResult records one fulfilled portion of an order.
// LotID is zero for results aggregated over several lots.
type AllocationResult struct {
	ID                string
	OrderID           string
	ItemCode          string
	LotID             int64
	Strategy          string
	AllocatedQuantity int
	AllocatedPrice    float64
	AllocationDate    time.Time
}

type OrderSkip struct {
	OrderID string
	Reason  string
}

type LotSkip struct {
	LotID  int64
	Reason string
}

// PassReport is the outcome of one allocation pass.
type PassReport struct {
	Strategy      string
	Results       []AllocationResult
	Fulfilled     []string
	SkippedOrders []OrderSkip
	SkippedLots   []LotSkip
	TouchedLots   []int64
}

func (r *PassReport) AllocatedQuantity(orderID string) int {
	total := 0
	for _, res := range r.Results {
		if res.OrderID == orderID {
			total += res.AllocatedQuantity
		}
	}
	return total
}
