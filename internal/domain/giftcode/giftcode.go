package giftcode

import (
	"errors"
	"time"
)

// GiftCode 禮物卡代碼，單次兌換。
type GiftCode struct {
	ID          string
	Code        string
	ValueCents  int64
	RedeemedBy  string // 顧客 ID；空字串表示尚未兌換
	RedeemedAt  *time.Time
	PurchasedBy string // 由顧客購買時記錄，後台手動建立則為空
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

// Validate 基本欄位檢查。
func (g GiftCode) Validate() error {
	if g.Code == "" {
		return errors.New("code is required")
	}
	if g.ValueCents <= 0 {
		return errors.New("value must be positive")
	}
	return nil
}

// Redeemable 是否仍可兌換。
func (g GiftCode) Redeemable(now time.Time) bool {
	if g.RedeemedBy != "" {
		return false
	}
	if g.ExpiresAt != nil && g.ExpiresAt.Before(now) {
		return false
	}
	return true
}
