package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rl1809/lot-allocation/internal/core/allocation"
	"github.com/rl1809/lot-allocation/internal/core/domain"
	"github.com/rl1809/lot-allocation/internal/core/service"
	"github.com/rl1809/lot-allocation/internal/port"
)

type HTTPHandler struct {
	orders      OrderManager
	lots        LotManager
	allocations AllocationRunner
	logger      *zap.Logger
}

type PlaceOrderHTTPRequest struct {
	RequestID       string `json:"request_id"`
	OrderID         string `json:"order_id"`
	ItemCode        string `json:"item_code"`
	Quantity        int    `json:"quantity"`
	DesignatedLotID int64  `json:"designated_lot_id"`
}

type ReceiveLotHTTPRequest struct {
	RequestID   string  `json:"request_id"`
	ItemCode    string  `json:"item_code"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	ReceiptDate string  `json:"receipt_date"`
}

type AllocateHTTPRequest struct {
	AllocationMethod string `json:"allocation_method"`
}

type ErrorHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(orders OrderManager, lots LotManager, allocations AllocationRunner, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		orders:      orders,
		lots:        lots,
		allocations: allocations,
		logger:      logger,
	}
}

// Router mounts the API. auth wraps every /api route when non-nil.
func (h *HTTPHandler) Router(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		if auth != nil {
			r.Use(auth)
		}
		r.Post("/orders", h.PlaceOrder)
		r.Get("/orders", h.ListOrders)
		r.Post("/lots", h.ReceiveLot)
		r.Get("/lots", h.ListLots)
		r.Post("/allocations", h.Allocate)
		r.Get("/allocation-results", h.ListResults)
	})

	return r
}

func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.PlaceOrder(r.Context(), req.RequestID, domain.Order{
		ID:                req.OrderID,
		ItemCode:          req.ItemCode,
		RequestedQuantity: req.Quantity,
		DesignatedLotID:   req.DesignatedLotID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrder):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDuplicateRequest):
			writeError(w, http.StatusConflict, "duplicate request")
		case errors.Is(err, port.ErrDuplicateOrder):
			writeError(w, http.StatusConflict, "order already exists")
		default:
			h.internalError(w, "place order", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.Orders(r.Context())
	if err != nil {
		h.internalError(w, "list orders", err)
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) ReceiveLot(w http.ResponseWriter, r *http.Request) {
	var req ReceiveLotHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var receipt time.Time
	if req.ReceiptDate != "" {
		var err error
		receipt, err = time.Parse(dateLayout, req.ReceiptDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "receipt_date must be YYYY-MM-DD")
			return
		}
	}

	lot, err := h.lots.ReceiveLot(r.Context(), req.RequestID, domain.InventoryLot{
		ItemCode:    req.ItemCode,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		ReceiptDate: receipt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLot):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrDuplicateRequest):
			writeError(w, http.StatusConflict, "duplicate request")
		default:
			h.internalError(w, "receive lot", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toLotResponse(*lot))
}

func (h *HTTPHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	lots, err := h.lots.Lots(r.Context())
	if err != nil {
		h.internalError(w, "list lots", err)
		return
	}

	out := make([]LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, toLotResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.allocations.Run(r.Context(), req.AllocationMethod)
	if err != nil {
		switch {
		case errors.Is(err, allocation.ErrUnknownStrategy):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPassInProgress):
			writeError(w, http.StatusConflict, "allocation pass already in progress")
		default:
			h.internalError(w, "allocation pass", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toPassReportResponse(report))
}

func (h *HTTPHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.allocations.Results(r.Context())
	if err != nil {
		h.internalError(w, "list allocation results", err)
		return
	}

	writeJSON(w, http.StatusOK, toResultResponses(results))
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorHTTPResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
