package customer

import (
	"errors"
	"time"

	authDomain "shop-backoffice/internal/domain/auth"
)

// Customer 商店顧客。認證欄位與管理員結構相同，共用同一個 auth 核心。
type Customer struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	TokenVersion int
	BalanceCents int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal 轉為 auth 核心使用的主體表示。
func (c Customer) Principal() authDomain.Principal {
	return authDomain.Principal{
		ID:           c.ID,
		Email:        c.Email,
		Name:         c.Name,
		PasswordHash: c.PasswordHash,
		TokenVersion: c.TokenVersion,
	}
}

// Validate 基本欄位檢查。
func (c Customer) Validate() error {
	if c.Email == "" {
		return errors.New("email is required")
	}
	if c.BalanceCents < 0 {
		return errors.New("balance must be non-negative")
	}
	return nil
}
