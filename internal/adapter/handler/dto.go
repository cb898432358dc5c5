package handler

import (
	"context"
	"time"

	"github.com/rl1809/lot-allocation/internal/core/domain"
)

const dateLayout = "2006-01-02"

type AllocationRunner interface {
	Run(ctx context.Context, method string) (*domain.PassReport, error)
	Results(ctx context.Context) ([]domain.AllocationResult, error)
}

type OrderManager interface {
	PlaceOrder(ctx context.Context, requestID string, order domain.Order) (*domain.Order, error)
	Orders(ctx context.Context) ([]domain.Order, error)
}

type LotManager interface {
	ReceiveLot(ctx context.Context, requestID string, lot domain.InventoryLot) (*domain.InventoryLot, error)
	Lots(ctx context.Context) ([]domain.InventoryLot, error)
}

type OrderResponse struct {
	OrderID         string `json:"order_id"`
	ItemCode        string `json:"item_code"`
	Quantity        int    `json:"quantity"`
	Fulfilled       bool   `json:"fulfilled"`
	DesignatedLotID int64  `json:"designated_lot_id,omitempty"`
}

type LotResponse struct {
	LotID       int64   `json:"lot_id"`
	ItemCode    string  `json:"item_code"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	ReceiptDate string  `json:"receipt_date,omitempty"`
}

type AllocationResultResponse struct {
	AllocationID      string  `json:"allocation_id"`
	OrderID           string  `json:"order_id"`
	ItemCode          string  `json:"item_code"`
	LotID             int64   `json:"lot_id,omitempty"`
	Strategy          string  `json:"strategy"`
	AllocatedQuantity int     `json:"allocated_quantity"`
	AllocatedPrice    float64 `json:"allocated_price"`
	AllocationDate    string  `json:"allocation_date"`
}

type SkipResponse struct {
	OrderID string `json:"order_id,omitempty"`
	LotID   int64  `json:"lot_id,omitempty"`
	Reason  string `json:"reason"`
}

type PassReportResponse struct {
	Strategy        string                     `json:"strategy"`
	Results         []AllocationResultResponse `json:"results"`
	FulfilledOrders []string                   `json:"fulfilled_orders"`
	SkippedOrders   []SkipResponse             `json:"skipped_orders,omitempty"`
	SkippedLots     []SkipResponse             `json:"skipped_lots,omitempty"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:         o.ID,
		ItemCode:        o.ItemCode,
		Quantity:        o.RequestedQuantity,
		Fulfilled:       o.Fulfilled,
		DesignatedLotID: o.DesignatedLotID,
	}
}

func toLotResponse(l domain.InventoryLot) LotResponse {
	return LotResponse{
		LotID:       l.ID,
		ItemCode:    l.ItemCode,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		ReceiptDate: formatDate(l.ReceiptDate),
	}
}

func toResultResponses(results []domain.AllocationResult) []AllocationResultResponse {
	out := make([]AllocationResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, AllocationResultResponse{
			AllocationID:      r.ID,
			OrderID:           r.OrderID,
			ItemCode:          r.ItemCode,
			LotID:             r.LotID,
			Strategy:          r.Strategy,
			AllocatedQuantity: r.AllocatedQuantity,
			AllocatedPrice:    r.AllocatedPrice,
			AllocationDate:    formatDate(r.AllocationDate),
		})
	}
	return out
}

func toPassReportResponse(r *domain.PassReport) PassReportResponse {
	resp := PassReportResponse{
		Strategy:        r.Strategy,
		Results:         toResultResponses(r.Results),
		FulfilledOrders: r.Fulfilled,
	}
	if resp.FulfilledOrders == nil {
		resp.FulfilledOrders = []string{}
	}
	for _, s := range r.SkippedOrders {
		resp.SkippedOrders = append(resp.SkippedOrders, SkipResponse{OrderID: s.OrderID, Reason: s.Reason})
	}
	for _, s := range r.SkippedLots {
		resp.SkippedLots = append(resp.SkippedLots, SkipResponse{LotID: s.LotID, Reason: s.Reason})
	}
	return resp
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
