package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	appOrder "shop-backoffice/internal/application/order"
	orderDomain "shop-backoffice/internal/domain/order"
)

// OrderRepo 提供訂單與明細的存取。
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo 建立 OrderRepo。
func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrder 在同一交易內寫入訂單主檔與明細。
func (r *OrderRepo) CreateOrder(ctx context.Context, o orderDomain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
INSERT INTO orders (id, customer_id, status, total_cents, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	if _, err := tx.ExecContext(ctx, q, o.ID, o.CustomerID, string(o.Status), o.TotalCents, o.CreatedAt, o.UpdatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	const qi = `
INSERT INTO order_items (order_id, product_id, quantity, price_cents)
VALUES ($1, $2, $3, $4);
`
	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, qi, o.ID, it.ProductID, it.Quantity, it.PriceCents); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrder 讀取訂單主檔與明細。
func (r *OrderRepo) GetOrder(ctx context.Context, id string) (orderDomain.Order, error) {
	const q = `
SELECT id, customer_id, status, total_cents, created_at, updated_at
FROM orders
WHERE id = $1
LIMIT 1;
`
	var o orderDomain.Order
	var status string
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&o.ID, &o.CustomerID, &status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return orderDomain.Order{}, err
	}
	o.Status = orderDomain.Status(status)

	items, err := r.loadItems(ctx, id)
	if err != nil {
		return orderDomain.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orderID string) ([]orderDomain.Item, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT product_id, quantity, price_cents FROM order_items WHERE order_id = $1;`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []orderDomain.Item
	for rows.Next() {
		var it orderDomain.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListOrders 依條件列出訂單主檔（不含明細，列表頁不需要）。
func (r *OrderRepo) ListOrders(ctx context.Context, filter appOrder.Filter) ([]orderDomain.Order, error) {
	q := `
SELECT id, customer_id, status, total_cents, created_at, updated_at
FROM orders
WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if filter.CustomerID != "" {
		q += fmt.Sprintf(" AND customer_id = $%d", idx)
		args = append(args, filter.CustomerID)
		idx++
	}
	if filter.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, string(filter.Status))
		idx++
	}
	if !filter.From.IsZero() {
		q += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, filter.From)
		idx++
	}
	if !filter.To.IsZero() {
		q += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, filter.To)
		idx++
	}
	q += " ORDER BY created_at DESC;"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orderDomain.Order
	for rows.Next() {
		var o orderDomain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.CustomerID, &status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = orderDomain.Status(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status orderDomain.Status, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1;`, id, string(status), updatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("order %s not found", id)
	}
	return nil
}

func (r *OrderRepo) DeleteOrder(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("order %s not found", id)
	}
	return nil
}

// UnpaidBefore 列出逾期未付款訂單（含明細），清理流程先歸還庫存再逐筆刪除。
func (r *OrderRepo) UnpaidBefore(ctx context.Context, cutoff time.Time) ([]orderDomain.Order, error) {
	const q = `
SELECT id, customer_id, status, total_cents, created_at, updated_at
FROM orders
WHERE status = 'pending' AND created_at < $1;
`
	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orderDomain.Order
	for rows.Next() {
		var o orderDomain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.CustomerID, &status, &o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = orderDomain.Status(status)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.loadItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// RevenueTotal 區間內已付款訂單總額。
func (r *OrderRepo) RevenueTotal(ctx context.Context, from, to time.Time) (int64, error) {
	const q = `
SELECT COALESCE(SUM(total_cents), 0)
FROM orders
WHERE status = 'paid' AND created_at BETWEEN $1 AND $2;
`
	var total int64
	err := r.db.QueryRowContext(ctx, q, from, to).Scan(&total)
	return total, err
}

// RevenueByDay 區間內逐日營收。
func (r *OrderRepo) RevenueByDay(ctx context.Context, from, to time.Time) ([]appOrder.RevenuePoint, error) {
	const q = `
SELECT date_trunc('day', created_at) AS day, SUM(total_cents), COUNT(*)
FROM orders
WHERE status = 'paid' AND created_at BETWEEN $1 AND $2
GROUP BY day
ORDER BY day;
`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []appOrder.RevenuePoint
	for rows.Next() {
		var pt appOrder.RevenuePoint
		if err := rows.Scan(&pt.Day, &pt.TotalCents, &pt.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}
