package auth

import "errors"

// 失敗分類。Resolver 邊界會把下列錯誤一律正規化為 ErrUnauthenticated，
// 呼叫端只需要導向登入頁，不需要分辨細項。
var (
	ErrMalformedToken    = errors.New("malformed token")
	ErrExpiredToken      = errors.New("expired token")
	ErrRevokedToken      = errors.New("revoked token")
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrNoToken           = errors.New("no token present")

	// ErrUnauthenticated 是核心對外的唯一未驗證結果。
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials 僅用於登入時帳密不符。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken 註冊時 email 已存在。
	ErrEmailTaken = errors.New("email already registered")
)
