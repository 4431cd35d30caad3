package auth

import (
	"time"

	authDomain "shop-backoffice/internal/domain/auth"
)

// CookiePolicy 宣告 token cookie 的傳輸規則。Secure 取決於部署環境設定，
// 不在程式碼寫死；refresh cookie 限定在更新端點路徑，兩個領域一致。
type CookiePolicy struct {
	AccessName  string
	RefreshName string
	RefreshPath string // refresh cookie 的最窄可行路徑，例如 /api/admin/auth/refresh
	Domain      string
	Secure      bool
}

// Specs 把一組 token 轉成宣告式 cookie 描述，由 HTTP 邊界套用。
func (p CookiePolicy) Specs(pair authDomain.TokenPair, now time.Time) []authDomain.CookieSpec {
	return []authDomain.CookieSpec{
		{
			Name:     p.AccessName,
			Value:    pair.AccessToken,
			Path:     "/",
			Domain:   p.Domain,
			MaxAge:   int(pair.AccessExpiry.Sub(now).Seconds()),
			Secure:   p.Secure,
			HTTPOnly: true,
		},
		{
			Name:     p.RefreshName,
			Value:    pair.RefreshToken,
			Path:     p.RefreshPath,
			Domain:   p.Domain,
			MaxAge:   int(pair.RefreshExpiry.Sub(now).Seconds()),
			Secure:   p.Secure,
			HTTPOnly: true,
		},
	}
}

// ClearSpecs 回傳兩個 token cookie 的立即過期描述，登出時送出。
func (p CookiePolicy) ClearSpecs() []authDomain.CookieSpec {
	return []authDomain.CookieSpec{
		{Name: p.AccessName, Path: "/", Domain: p.Domain, MaxAge: -1, Secure: p.Secure, HTTPOnly: true},
		{Name: p.RefreshName, Path: p.RefreshPath, Domain: p.Domain, MaxAge: -1, Secure: p.Secure, HTTPOnly: true},
	}
}
