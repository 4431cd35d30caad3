package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	appOrder "shop-backoffice/internal/application/order"
	orderDomain "shop-backoffice/internal/domain/order"
)

// OrderRepo 記憶體版訂單儲存。
type OrderRepo struct {
	mu     sync.Mutex
	orders map[string]orderDomain.Order
}

// NewOrderRepo 建立記憶體實例。
func NewOrderRepo() *OrderRepo {
	return &OrderRepo{orders: make(map[string]orderDomain.Order)}
}

func (r *OrderRepo) CreateOrder(_ context.Context, o orderDomain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o
	return nil
}

func (r *OrderRepo) GetOrder(_ context.Context, id string) (orderDomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return orderDomain.Order{}, fmt.Errorf("order %s not found", id)
	}
	return o, nil
}

func (r *OrderRepo) ListOrders(_ context.Context, filter appOrder.Filter) ([]orderDomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]orderDomain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && o.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && o.CreatedAt.After(filter.To) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *OrderRepo) UpdateStatus(_ context.Context, id string, status orderDomain.Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order %s not found", id)
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	r.orders[id] = o
	return nil
}

func (r *OrderRepo) DeleteOrder(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("order %s not found", id)
	}
	delete(r.orders, id)
	return nil
}

func (r *OrderRepo) UnpaidBefore(_ context.Context, cutoff time.Time) ([]orderDomain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []orderDomain.Order
	for _, o := range r.orders {
		if o.Status == orderDomain.StatusPending && o.CreatedAt.Before(cutoff) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderRepo) RevenueTotal(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, o := range r.orders {
		if o.Status != orderDomain.StatusPaid {
			continue
		}
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		total += o.TotalCents
	}
	return total, nil
}

func (r *OrderRepo) RevenueByDay(_ context.Context, from, to time.Time) ([]appOrder.RevenuePoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byDay := make(map[time.Time]*appOrder.RevenuePoint)
	for _, o := range r.orders {
		if o.Status != orderDomain.StatusPaid {
			continue
		}
		if o.CreatedAt.Before(from) || o.CreatedAt.After(to) {
			continue
		}
		day := o.CreatedAt.UTC().Truncate(24 * time.Hour)
		pt, ok := byDay[day]
		if !ok {
			pt = &appOrder.RevenuePoint{Day: day}
			byDay[day] = pt
		}
		pt.TotalCents += o.TotalCents
		pt.OrderCount++
	}
	out := make([]appOrder.RevenuePoint, 0, len(byDay))
	for _, pt := range byDay {
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}
