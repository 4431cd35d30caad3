package authinfra

import (
	"errors"
	"time"

	authDomain "shop-backoffice/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
)

// Codec 負責 access/refresh token 的編碼與驗證。
// 兩種 token 使用各自獨立的密鑰與 TTL，持有其中一種不代表能偽造另一種。
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewCodec 建立 Codec。TTL 與密鑰皆為設定值，不在此處寫死。
func NewCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	TokenVersion int `json:"token_version"`
	jwt.RegisteredClaims
}

// AccessTTL 回傳 access token 的壽命，供 cookie MaxAge 使用。
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL 回傳 refresh token 的壽命。
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// EncodeAccess 簽發 access token。
func (c *Codec) EncodeAccess(id, email string) (string, time.Time, error) {
	now := c.now()
	expiry := now.Add(c.accessTTL)
	claims := accessClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// DecodeAccess 驗證並解析 access token，回傳 claims 內的公開身分與到期時間。
func (c *Codec) DecodeAccess(token string) (authDomain.Identity, time.Time, error) {
	var claims accessClaims
	if err := c.decode(token, &claims, c.accessSecret); err != nil {
		return authDomain.Identity{}, time.Time{}, err
	}
	if claims.Subject == "" {
		return authDomain.Identity{}, time.Time{}, authDomain.ErrMalformedToken
	}
	return authDomain.Identity{ID: claims.Subject, Email: claims.Email}, claims.ExpiresAt.Time, nil
}

// EncodeRefresh 簽發 refresh token，內嵌當前撤銷紀元。
func (c *Codec) EncodeRefresh(id string, tokenVersion int) (string, time.Time, error) {
	now := c.now()
	expiry := now.Add(c.refreshTTL)
	claims := refreshClaims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// DecodeRefresh 驗證並解析 refresh token，回傳主體 ID 與內嵌紀元。
// 紀元與儲存值的比對由上層負責。
func (c *Codec) DecodeRefresh(token string) (string, int, error) {
	var claims refreshClaims
	if err := c.decode(token, &claims, c.refreshSecret); err != nil {
		return "", 0, err
	}
	if claims.Subject == "" {
		return "", 0, authDomain.ErrMalformedToken
	}
	return claims.Subject, claims.TokenVersion, nil
}

// decode 失敗一律回傳分類過的 domain 錯誤，不讓 jwt 套件錯誤外洩。
func (c *Codec) decode(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return authDomain.ErrExpiredToken
		}
		return authDomain.ErrMalformedToken
	}
	if !parsed.Valid {
		return authDomain.ErrMalformedToken
	}
	return nil
}
