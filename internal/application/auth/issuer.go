package auth

import (
	"fmt"
	"time"

	authDomain "shop-backoffice/internal/domain/auth"
)

// TokenCodec 簽發/驗證 token 的能力，由 infrastructure 層實作。
type TokenCodec interface {
	EncodeAccess(id, email string) (string, time.Time, error)
	DecodeAccess(token string) (authDomain.Identity, time.Time, error)
	EncodeRefresh(id string, tokenVersion int) (string, time.Time, error)
	DecodeRefresh(token string) (string, int, error)
}

// SessionIssuer 對已驗證的主體簽發 token 組與傳輸指示。
// 簽發不觸碰 TokenVersion。
type SessionIssuer struct {
	codec  TokenCodec
	policy CookiePolicy
	now    func() time.Time
}

// NewSessionIssuer 建立 SessionIssuer。
func NewSessionIssuer(codec TokenCodec, policy CookiePolicy) *SessionIssuer {
	return &SessionIssuer{codec: codec, policy: policy, now: time.Now}
}

// Issue 簽發 access/refresh token 組及其 cookie 描述。
func (i *SessionIssuer) Issue(p authDomain.Principal) (authDomain.TokenPair, []authDomain.CookieSpec, error) {
	access, accessExp, err := i.codec.EncodeAccess(p.ID, p.Email)
	if err != nil {
		return authDomain.TokenPair{}, nil, fmt.Errorf("encode access token: %w", err)
	}
	refresh, refreshExp, err := i.codec.EncodeRefresh(p.ID, p.TokenVersion)
	if err != nil {
		return authDomain.TokenPair{}, nil, fmt.Errorf("encode refresh token: %w", err)
	}
	pair := authDomain.TokenPair{
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessExpiry:  accessExp,
		RefreshExpiry: refreshExp,
		TokenVersion:  p.TokenVersion,
	}
	return pair, i.policy.Specs(pair, i.now()), nil
}

// ClearCookies 回傳登出時要送出的立即過期 cookie。
func (i *SessionIssuer) ClearCookies() []authDomain.CookieSpec {
	return i.policy.ClearSpecs()
}
