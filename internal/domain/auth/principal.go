package auth

import (
	"context"
	"errors"
	"strings"
)

// Principal 代表可登入的主體（後台管理員或商店顧客，結構相同）。
type Principal struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	TokenVersion int
}

// Validate 基本欄位檢查。
func (p Principal) Validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return errors.New("email is required")
	}
	if p.TokenVersion < 0 {
		return errors.New("token version must be non-negative")
	}
	return nil
}

// Identity 是 access token claims 內攜帶的公開身分欄位。
// 快速路徑只回傳這些欄位，不查資料庫。
type Identity struct {
	ID    string
	Email string
}

// PrincipalStore 抽象主體的讀取與撤銷紀元更新。
// TokenVersion 是唯一持久化的撤銷狀態；IncrementTokenVersion 回傳遞增後的值。
// RotateTokenVersion 是帶條件的版本：只有儲存值等於 expected 時才遞增，
// 否則回傳 ErrRevokedToken。refresh token 的輪替必須走這條路，兩個並發
// 換發同一顆 token 時恰好一個成功。
type PrincipalStore interface {
	FindByID(ctx context.Context, id string) (Principal, error)
	FindByEmail(ctx context.Context, email string) (Principal, error)
	Create(ctx context.Context, p Principal) error
	IncrementTokenVersion(ctx context.Context, id string) (int, error)
	RotateTokenVersion(ctx context.Context, id string, expected int) (int, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
