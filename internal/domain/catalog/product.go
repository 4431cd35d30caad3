package catalog

import (
	"errors"
	"time"
)

// Product 商品基本資料。價格以最小貨幣單位（分）儲存。
type Product struct {
	ID         string
	CategoryID string
	Name       string
	PriceCents int64
	Stock      int
	IsFeatured bool
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate 基本欄位檢查。
func (p Product) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.CategoryID == "" {
		return errors.New("category is required")
	}
	if p.PriceCents < 0 {
		return errors.New("price must be non-negative")
	}
	if p.Stock < 0 {
		return errors.New("stock must be non-negative")
	}
	return nil
}
