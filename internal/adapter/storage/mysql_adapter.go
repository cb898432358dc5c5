package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/lot-allocation/internal/core/domain"
	"github.com/rl1809/lot-allocation/internal/port"
)

const mysqlDuplicateEntry = 1062

var (
	ErrOptimisticLock   = errors.New("optimistic lock conflict")
	ErrAlreadyFulfilled = errors.New("order already fulfilled")
)

//go:embed schema.sql
var schemaSQL string

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables if they do not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO orders (id, item_code, quantity, fulfilled, designated_lot_id, created_at)
		VALUES (?, ?, ?, FALSE, ?, ?)`,
		order.ID, order.ItemCode, order.RequestedQuantity, nullInt64(order.DesignatedLotID), order.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return nil, port.ErrDuplicateOrder
		}
		return nil, fmt.Errorf("insert order: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("order seq: %w", err)
	}

	order.CreatedSeq = seq
	order.Fulfilled = false
	return &order, nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.queryOrders(ctx, `
		SELECT seq, id, item_code, quantity, fulfilled, designated_lot_id, created_at
		FROM orders ORDER BY seq`)
}

func (m *MySQLAdapter) ListUnfulfilledOrders(ctx context.Context) ([]domain.Order, error) {
	return m.queryOrders(ctx, `
		SELECT seq, id, item_code, quantity, fulfilled, designated_lot_id, created_at
		FROM orders WHERE fulfilled = FALSE ORDER BY seq`)
}

func (m *MySQLAdapter) queryOrders(ctx context.Context, query string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var lotID sql.NullInt64
		if err := rows.Scan(&o.CreatedSeq, &o.ID, &o.ItemCode, &o.RequestedQuantity, &o.Fulfilled, &lotID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.DesignatedLotID = lotID.Int64
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func (m *MySQLAdapter) CreateLot(ctx context.Context, lot domain.InventoryLot) (*domain.InventoryLot, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_lots (item_code, quantity, unit_price, receipt_date, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		lot.ItemCode, lot.Quantity, lot.UnitPrice, nullTime(lot.ReceiptDate), lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert lot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("lot id: %w", err)
	}

	lot.ID = id
	lot.ReceivedSeq = id
	lot.Version = 0
	return &lot, nil
}

func (m *MySQLAdapter) ListLots(ctx context.Context) ([]domain.InventoryLot, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, item_code, quantity, unit_price, receipt_date, version, created_at, updated_at
		FROM inventory_lots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query lots: %w", err)
	}
	defer rows.Close()

	var lots []domain.InventoryLot
	for rows.Next() {
		var l domain.InventoryLot
		var receipt sql.NullTime
		if err := rows.Scan(&l.ID, &l.ItemCode, &l.Quantity, &l.UnitPrice, &receipt, &l.Version, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		l.ReceivedSeq = l.ID
		l.ReceiptDate = receipt.Time
		lots = append(lots, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lots: %w", err)
	}
	return lots, nil
}

func (m *MySQLAdapter) ListResults(ctx context.Context) ([]domain.AllocationResult, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, order_id, item_code, lot_id, strategy, allocated_quantity, allocated_price, allocation_date
		FROM allocation_results ORDER BY allocation_date, order_id, id`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []domain.AllocationResult
	for rows.Next() {
		var r domain.AllocationResult
		var lotID sql.NullInt64
		if err := rows.Scan(&r.ID, &r.OrderID, &r.ItemCode, &lotID, &r.Strategy, &r.AllocatedQuantity, &r.AllocatedPrice, &r.AllocationDate); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.LotID = lotID.Int64
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func (m *MySQLAdapter) CommitPass(ctx context.Context, commit port.PassCommit) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, lot := range commit.Lots {
		result, err := tx.ExecContext(ctx, `
			UPDATE inventory_lots
			SET quantity = ?, version = version + 1, updated_at = NOW()
			WHERE id = ? AND version = ?`,
			lot.Quantity, lot.ID, lot.Version,
		)
		if err != nil {
			return fmt.Errorf("update lot %d: %w", lot.ID, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("lot %d: %w", lot.ID, ErrOptimisticLock)
		}
	}

	for _, r := range commit.Results {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO allocation_results
				(id, order_id, item_code, lot_id, strategy, allocated_quantity, allocated_price, allocation_date)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.OrderID, r.ItemCode, nullInt64(r.LotID), r.Strategy, r.AllocatedQuantity, r.AllocatedPrice, r.AllocationDate,
		)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", r.ID, err)
		}
	}

	for _, id := range commit.FulfilledOrderIDs {
		result, err := tx.ExecContext(ctx, `
			UPDATE orders SET fulfilled = TRUE WHERE id = ? AND fulfilled = FALSE`, id)
		if err != nil {
			return fmt.Errorf("fulfill order %s: %w", id, err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("order %s: %w", id, ErrAlreadyFulfilled)
		}
	}

	return tx.Commit()
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
