package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/lot-allocation/internal/core/allocation"
	"github.com/rl1809/lot-allocation/internal/core/domain"
	"github.com/rl1809/lot-allocation/internal/core/service"
	"github.com/rl1809/lot-allocation/internal/port"
)

type httpFixture struct {
	orders      *fakeOrders
	lots        *fakeLots
	allocations *fakeAllocations
	router      http.Handler
}

func newHTTPFixture(auth func(http.Handler) http.Handler) *httpFixture {
	f := &httpFixture{orders: &fakeOrders{}, lots: &fakeLots{}, allocations: &fakeAllocations{}}
	f.router = NewHTTPHandler(f.orders, f.lots, f.allocations, zap.NewNop()).Router(auth)
	return f
}

func (f *httpFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := newHTTPFixture(nil).do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPlaceOrder(t *testing.T) {
	f := newHTTPFixture(nil)

	rec := f.do(http.MethodPost, "/api/orders", `{"request_id":"r1","order_id":"o-1","item_code":"ABC","quantity":5,"designated_lot_id":3}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.orders.placed, 1)
	assert.Equal(t, int64(3), f.orders.placed[0].DesignatedLotID)
	assert.JSONEq(t, `{"order_id":"o-1","item_code":"ABC","quantity":5,"fulfilled":false,"designated_lot_id":3}`, rec.Body.String())
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: quantity must be positive", service.ErrInvalidOrder), http.StatusBadRequest},
		{service.ErrDuplicateRequest, http.StatusConflict},
		{fmt.Errorf("create order: %w", port.ErrDuplicateOrder), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		f := newHTTPFixture(nil)
		f.orders.err = c.err
		rec := f.do(http.MethodPost, "/api/orders", `{"order_id":"o-1","item_code":"ABC","quantity":1}`)
		assert.Equal(t, c.code, rec.Code, c.err.Error())
	}

	rec := newHTTPFixture(nil).do(http.MethodPost, "/api/orders", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiveLot(t *testing.T) {
	f := newHTTPFixture(nil)

	rec := f.do(http.MethodPost, "/api/lots", `{"item_code":"ABC","quantity":4,"unit_price":10.5,"receipt_date":"2026-02-01"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.lots.received, 1)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), f.lots.received[0].ReceiptDate)

	rec = f.do(http.MethodGet, "/api/lots", "")
	assert.JSONEq(t, `[{"lot_id":1,"item_code":"ABC","quantity":4,"unit_price":10.5,"receipt_date":"2026-02-01"}]`, rec.Body.String())
}

func TestReceiveLot_BadDate(t *testing.T) {
	rec := newHTTPFixture(nil).do(http.MethodPost, "/api/lots", `{"item_code":"ABC","quantity":4,"unit_price":1,"receipt_date":"01/02/2026"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAllocate(t *testing.T) {
	f := newHTTPFixture(nil)
	f.allocations.report = &domain.PassReport{
		Strategy: "FIFO",
		Results: []domain.AllocationResult{{
			ID: "r-1", OrderID: "o-1", ItemCode: "ABC", LotID: 1, Strategy: "FIFO",
			AllocatedQuantity: 4, AllocatedPrice: 40,
			AllocationDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		}},
		Fulfilled:     []string{"o-1"},
		SkippedOrders: []domain.OrderSkip{{OrderID: "o-2", Reason: "invalid quantity: requested quantity -1"}},
	}

	rec := f.do(http.MethodPost, "/api/allocations", `{"allocation_method":"FIFO"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "FIFO", f.allocations.method)

	var resp PassReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "2026-03-01", resp.Results[0].AllocationDate)
	assert.Equal(t, []string{"o-1"}, resp.FulfilledOrders)
	require.Len(t, resp.SkippedOrders, 1)
	assert.Equal(t, "o-2", resp.SkippedOrders[0].OrderID)
}

func TestAllocate_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: %q", allocation.ErrUnknownStrategy, "BOGUS"), http.StatusBadRequest},
		{service.ErrPassInProgress, http.StatusConflict},
		{fmt.Errorf("commit pass: %w", fmt.Errorf("deadlock")), http.StatusInternalServerError},
	}
	for _, c := range cases {
		f := newHTTPFixture(nil)
		f.allocations.err = c.err
		rec := f.do(http.MethodPost, "/api/allocations", `{"allocation_method":"BOGUS"}`)
		assert.Equal(t, c.code, rec.Code, c.err.Error())
	}
}

func TestListResults(t *testing.T) {
	f := newHTTPFixture(nil)
	f.allocations.results = []domain.AllocationResult{{ID: "r-1", OrderID: "o-1", ItemCode: "ABC", Strategy: "AVERAGE", AllocatedQuantity: 6, AllocatedPrice: 128}}

	rec := f.do(http.MethodGet, "/api/allocation-results", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"allocation_id":"r-1","order_id":"o-1","item_code":"ABC","strategy":"AVERAGE","allocated_quantity":6,"allocated_price":128,"allocation_date":""}]`, rec.Body.String())
}
