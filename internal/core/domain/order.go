package domain

import "time"

type Order struct {
	ID                string
	ItemCode          string
	RequestedQuantity int
	Fulfilled         bool
	CreatedSeq        int64
	// DesignatedLotID pins SPECIFIC allocation to one lot. Zero means unset.
	DesignatedLotID int64
	CreatedAt       time.Time
}
