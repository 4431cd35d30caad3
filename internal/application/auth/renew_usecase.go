package auth

import (
	"context"
	"errors"
	"fmt"

	authDomain "shop-backoffice/internal/domain/auth"
)

// RenewUseCase 是更新端點的核心：驗證 refresh token、比對撤銷紀元、
// 輪替後簽發新的 token 組。
//
// 輪替靠紀元遞增實現：每次成功更新都把儲存的 TokenVersion 加一，新 refresh
// token 內嵌新值，被取代的舊 token 從此比對失敗。儲存層因此只需要每個主體
// 一個整數，不需要 token 黑名單。效期內的 access token 不在此受影響。
type RenewUseCase struct {
	codec  TokenCodec
	store  authDomain.PrincipalStore
	issuer *SessionIssuer
}

func NewRenewUseCase(codec TokenCodec, store authDomain.PrincipalStore, issuer *SessionIssuer) *RenewUseCase {
	return &RenewUseCase{codec: codec, store: store, issuer: issuer}
}

// Execute 以 refresh token 換發新的 token 組。
// 失敗一律包成 ErrUnauthenticated，呼叫端只需導向重新登入。
func (uc *RenewUseCase) Execute(ctx context.Context, refreshToken string) (LoginResult, error) {
	var out LoginResult
	if refreshToken == "" {
		return out, fmt.Errorf("%w: %w", authDomain.ErrUnauthenticated, authDomain.ErrNoToken)
	}

	id, version, err := uc.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return out, fmt.Errorf("%w: %w", authDomain.ErrUnauthenticated, err)
	}

	p, err := uc.store.FindByID(ctx, id)
	if err != nil {
		return out, fmt.Errorf("%w: %w", authDomain.ErrUnauthenticated, authDomain.ErrPrincipalNotFound)
	}

	// 比對與遞增必須是同一個原子操作：兩個情境並發換發同一顆 refresh
	// token 時，恰好一個通過，另一個拿到 ErrRevokedToken。
	newVersion, err := uc.store.RotateTokenVersion(ctx, p.ID, version)
	if err != nil {
		if errors.Is(err, authDomain.ErrRevokedToken) {
			return out, fmt.Errorf("%w: %w", authDomain.ErrUnauthenticated, authDomain.ErrRevokedToken)
		}
		return out, fmt.Errorf("rotate token version: %w", err)
	}
	p.TokenVersion = newVersion

	pair, cookies, err := uc.issuer.Issue(p)
	if err != nil {
		return out, fmt.Errorf("issue session: %w", err)
	}

	out.Principal = p
	out.Pair = pair
	out.Cookies = cookies
	return out, nil
}
