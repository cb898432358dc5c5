package domain

import "time"

// InventoryLot is one batch of an item received at a point in time.
type InventoryLot struct {
	ID          int64
	ItemCode    string
	Quantity    int
	UnitPrice   float64
	ReceivedSeq int64 // receipt order, drives FIFO/LIFO
	ReceiptDate time.Time
	Version     int // optimistic locking
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
