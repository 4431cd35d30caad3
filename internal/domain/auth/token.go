package auth

import "time"

// TokenPair 封裝一次簽發的 access/refresh token。
type TokenPair struct {
	AccessToken   string
	RefreshToken  string
	AccessExpiry  time.Time
	RefreshExpiry time.Time
	TokenVersion  int
}

// CookieSpec 宣告式描述一個 token cookie 該如何被送出。
// 這裡只描述屬性，不執行任何 I/O；由 HTTP 邊界套用。
type CookieSpec struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	MaxAge   int // 秒數；-1 表示立即過期
	Secure   bool
	HTTPOnly bool
}

// Expired 回傳同名 cookie 的立即過期版本，登出時使用。
func (c CookieSpec) Expired() CookieSpec {
	c.Value = ""
	c.MaxAge = -1
	return c
}
