package order

import (
	"errors"
	"time"
)

// Status 訂單狀態。
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Order 訂單主檔。
type Order struct {
	ID         string
	CustomerID string
	Status     Status
	TotalCents int64
	Items      []Item
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Item 訂單明細。
type Item struct {
	ProductID  string
	Quantity   int
	PriceCents int64
}

// Validate 基本欄位檢查。
func (o Order) Validate() error {
	if o.CustomerID == "" {
		return errors.New("customer is required")
	}
	if len(o.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for _, it := range o.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return errors.New("invalid order item")
		}
	}
	return nil
}

// Undoable 顧客是否仍可自行取消：限未付款且建立後 30 分鐘內。
func (o Order) Undoable(now time.Time) bool {
	if o.Status != StatusPending {
		return false
	}
	return now.Sub(o.CreatedAt) <= 30*time.Minute
}
