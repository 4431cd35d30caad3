package auth

import (
	"context"
	"errors"
	"fmt"

	authDomain "shop-backoffice/internal/domain/auth"
)

// TokenSource 是「目前執行情境」的能力抽象：知道去哪裡找 access token。
// 伺服器端的實作從 Authorization header 與具名 cookie 取值；
// 客戶端 SDK 的實作從本地 session 取值。兩者在組裝時選定，函式內不做環境判斷。
type TokenSource interface {
	AccessToken() (string, bool)
}

// TokenSourceFunc 讓函式直接作為 TokenSource 使用。
type TokenSourceFunc func() (string, bool)

func (f TokenSourceFunc) AccessToken() (string, bool) { return f() }

// Resolver 將任意情境解析為主體身分。
// Resolve 是無狀態快速路徑：只驗簽與檢查效期，不查資料庫——
// access token 在效期內不受紀元撤銷影響，這是刻意的延遲/即時性取捨。
type Resolver struct {
	codec TokenCodec
	store authDomain.PrincipalStore
}

// NewResolver 建立 Resolver。store 僅供 ResolveStrict 使用。
func NewResolver(codec TokenCodec, store authDomain.PrincipalStore) *Resolver {
	return &Resolver{codec: codec, store: store}
}

// Resolve 驗證 access token 並回傳 claims 內的身分。
// 任何失敗（無 token、格式錯誤、過期）一律回傳 ErrUnauthenticated，不拋例外。
func (r *Resolver) Resolve(src TokenSource) (authDomain.Identity, error) {
	token, ok := src.AccessToken()
	if !ok || token == "" {
		return authDomain.Identity{}, fmt.Errorf("%w: %w", authDomain.ErrUnauthenticated, authDomain.ErrNoToken)
	}
	ident, _, err := r.codec.DecodeAccess(token)
	if err != nil {
		return authDomain.Identity{}, fmt.Errorf("%w: %w", authDomain.ErrUnauthenticated, err)
	}
	return ident, nil
}

// ResolveStrict 除了驗 token 外，還要求主體在儲存層仍然存在。
// 用於敏感寫入路徑（刪除、改密碼、餘額調整）。
func (r *Resolver) ResolveStrict(ctx context.Context, src TokenSource) (authDomain.Principal, error) {
	ident, err := r.Resolve(src)
	if err != nil {
		return authDomain.Principal{}, err
	}
	if r.store == nil {
		return authDomain.Principal{}, errors.New("strict resolve requires a principal store")
	}
	p, err := r.store.FindByID(ctx, ident.ID)
	if err != nil {
		return authDomain.Principal{}, fmt.Errorf("%w: %w", authDomain.ErrUnauthenticated, authDomain.ErrPrincipalNotFound)
	}
	return p, nil
}
