package catalog

import (
	"errors"
	"time"
)

// Category 商品分類。
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Validate 基本欄位檢查。
func (c Category) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
