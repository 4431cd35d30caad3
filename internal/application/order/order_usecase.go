package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	orderDomain "shop-backoffice/internal/domain/order"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrNotUndoable    = errors.New("order can no longer be cancelled")
	ErrNotOwner       = errors.New("order belongs to another customer")
	ErrAlreadyPaid    = errors.New("order already paid")
	ErrEmptyOrder     = errors.New("order must contain at least one item")
	ErrOutOfStock     = errors.New("insufficient stock")
	ErrUnknownProduct = errors.New("unknown product in order")
)

// Repository 訂單儲存介面。
type Repository interface {
	CreateOrder(ctx context.Context, o orderDomain.Order) error
	GetOrder(ctx context.Context, id string) (orderDomain.Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]orderDomain.Order, error)
	UpdateStatus(ctx context.Context, id string, status orderDomain.Status, updatedAt time.Time) error
	DeleteOrder(ctx context.Context, id string) error
	UnpaidBefore(ctx context.Context, cutoff time.Time) ([]orderDomain.Order, error)
	RevenueTotal(ctx context.Context, from, to time.Time) (int64, error)
	RevenueByDay(ctx context.Context, from, to time.Time) ([]RevenuePoint, error)
}

// StockReserver 下單時扣庫存的能力，由 catalog 儲存層提供。
type StockReserver interface {
	ReserveStock(ctx context.Context, productID string, qty int) (priceCents int64, err error)
	ReleaseStock(ctx context.Context, productID string, qty int) error
}

// Filter 訂單列表查詢條件。零值表示不過濾。
type Filter struct {
	CustomerID string
	Status     orderDomain.Status
	From       time.Time
	To         time.Time
}

// RevenuePoint 單日營收，供後台圖表使用。
type RevenuePoint struct {
	Day        time.Time `json:"day"`
	TotalCents int64     `json:"total_cents"`
	OrderCount int       `json:"order_count"`
}

// PaidNotifier 訂單完成付款時的外部通知。
type PaidNotifier interface {
	OrderPaid(ctx context.Context, o orderDomain.Order)
}

// UseCase 訂單管理。
type UseCase struct {
	repo       Repository
	stock      StockReserver
	notifier   PaidNotifier
	undoWindow time.Duration
	now        func() time.Time
}

func NewUseCase(repo Repository, stock StockReserver, notifier PaidNotifier, undoWindow time.Duration) *UseCase {
	if undoWindow <= 0 {
		undoWindow = 30 * time.Minute
	}
	return &UseCase{repo: repo, stock: stock, notifier: notifier, undoWindow: undoWindow, now: time.Now}
}

type ItemInput struct {
	ProductID string
	Quantity  int
}

// Place 顧客下單：扣庫存、計算總額、建立 pending 訂單。
func (uc *UseCase) Place(ctx context.Context, customerID string, items []ItemInput) (orderDomain.Order, error) {
	if len(items) == 0 {
		return orderDomain.Order{}, ErrEmptyOrder
	}

	var reserved []orderDomain.Item
	release := func() {
		for _, it := range reserved {
			_ = uc.stock.ReleaseStock(ctx, it.ProductID, it.Quantity)
		}
	}

	var total int64
	for _, in := range items {
		if in.ProductID == "" || in.Quantity <= 0 {
			release()
			return orderDomain.Order{}, ErrEmptyOrder
		}
		price, err := uc.stock.ReserveStock(ctx, in.ProductID, in.Quantity)
		if err != nil {
			release()
			return orderDomain.Order{}, err
		}
		reserved = append(reserved, orderDomain.Item{ProductID: in.ProductID, Quantity: in.Quantity, PriceCents: price})
		total += price * int64(in.Quantity)
	}

	now := uc.now()
	o := orderDomain.Order{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Status:     orderDomain.StatusPending,
		TotalCents: total,
		Items:      reserved,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := o.Validate(); err != nil {
		release()
		return orderDomain.Order{}, err
	}
	if err := uc.repo.CreateOrder(ctx, o); err != nil {
		release()
		return orderDomain.Order{}, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (orderDomain.Order, error) {
	o, err := uc.repo.GetOrder(ctx, id)
	if err != nil {
		return orderDomain.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (uc *UseCase) List(ctx context.Context, filter Filter) ([]orderDomain.Order, error) {
	return uc.repo.ListOrders(ctx, filter)
}

// MarkPaid 將訂單標記為已付款並觸發通知。
func (uc *UseCase) MarkPaid(ctx context.Context, id string) (orderDomain.Order, error) {
	o, err := uc.repo.GetOrder(ctx, id)
	if err != nil {
		return orderDomain.Order{}, ErrOrderNotFound
	}
	if o.Status == orderDomain.StatusPaid {
		return orderDomain.Order{}, ErrAlreadyPaid
	}
	now := uc.now()
	if err := uc.repo.UpdateStatus(ctx, id, orderDomain.StatusPaid, now); err != nil {
		return orderDomain.Order{}, fmt.Errorf("mark paid: %w", err)
	}
	o.Status = orderDomain.StatusPaid
	o.UpdatedAt = now
	if uc.notifier != nil {
		uc.notifier.OrderPaid(ctx, o)
	}
	return o, nil
}

// Undo 顧客自行取消：限本人、未付款且在取消時限內。取消會歸還庫存。
func (uc *UseCase) Undo(ctx context.Context, customerID, orderID string) error {
	o, err := uc.repo.GetOrder(ctx, orderID)
	if err != nil {
		return ErrOrderNotFound
	}
	if o.CustomerID != customerID {
		return ErrNotOwner
	}
	if o.Status != orderDomain.StatusPending || uc.now().Sub(o.CreatedAt) > uc.undoWindow {
		return ErrNotUndoable
	}
	if err := uc.repo.UpdateStatus(ctx, orderID, orderDomain.StatusCancelled, uc.now()); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	for _, it := range o.Items {
		_ = uc.stock.ReleaseStock(ctx, it.ProductID, it.Quantity)
	}
	return nil
}

// Delete 後台刪除訂單。未付款訂單仍佔著下單時保留的庫存，刪除時歸還。
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	o, err := uc.repo.GetOrder(ctx, id)
	if err != nil {
		return ErrOrderNotFound
	}
	if err := uc.repo.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if o.Status == orderDomain.StatusPending {
		for _, it := range o.Items {
			_ = uc.stock.ReleaseStock(ctx, it.ProductID, it.Quantity)
		}
	}
	return nil
}

// CleanupUnpaid 刪除逾期未付款訂單並歸還保留的庫存，回傳刪除筆數。
func (uc *UseCase) CleanupUnpaid(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := uc.now().Add(-olderThan)
	stale, err := uc.repo.UnpaidBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup unpaid orders: %w", err)
	}
	removed := 0
	for _, o := range stale {
		if err := uc.repo.DeleteOrder(ctx, o.ID); err != nil {
			continue
		}
		for _, it := range o.Items {
			_ = uc.stock.ReleaseStock(ctx, it.ProductID, it.Quantity)
		}
		removed++
	}
	return removed, nil
}

// RevenueTotal 區間內已付款訂單總額。
func (uc *UseCase) RevenueTotal(ctx context.Context, from, to time.Time) (int64, error) {
	return uc.repo.RevenueTotal(ctx, from, to)
}

// RevenueByDay 區間內逐日營收，供圖表使用。
func (uc *UseCase) RevenueByDay(ctx context.Context, from, to time.Time) ([]RevenuePoint, error) {
	return uc.repo.RevenueByDay(ctx, from, to)
}
