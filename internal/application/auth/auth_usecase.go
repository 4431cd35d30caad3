package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	authDomain "shop-backoffice/internal/domain/auth"

	"github.com/google/uuid"
)

// PasswordHasher 驗證與產生密碼雜湊。
type PasswordHasher interface {
	Compare(hashed, plain string) bool
	Hash(plain string) (string, error)
}

// LoginUseCase 驗證帳密並簽發 session。
type LoginUseCase struct {
	store  authDomain.PrincipalStore
	hasher PasswordHasher
	issuer *SessionIssuer
}

func NewLoginUseCase(store authDomain.PrincipalStore, hasher PasswordHasher, issuer *SessionIssuer) *LoginUseCase {
	return &LoginUseCase{store: store, hasher: hasher, issuer: issuer}
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	Principal authDomain.Principal
	Pair      authDomain.TokenPair
	Cookies   []authDomain.CookieSpec
}

func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (LoginResult, error) {
	var out LoginResult
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return out, authDomain.ErrInvalidCredentials
	}

	p, err := uc.store.FindByEmail(ctx, email)
	if err != nil {
		// 找不到帳號與密碼錯誤回同一種錯，避免帳號枚舉
		return out, authDomain.ErrInvalidCredentials
	}
	if !uc.hasher.Compare(p.PasswordHash, input.Password) {
		return out, authDomain.ErrInvalidCredentials
	}

	pair, cookies, err := uc.issuer.Issue(p)
	if err != nil {
		return out, fmt.Errorf("issue session: %w", err)
	}

	out.Principal = p
	out.Pair = pair
	out.Cookies = cookies
	return out, nil
}

// RegisterUseCase 建立新主體並直接簽發 session。
type RegisterUseCase struct {
	store  authDomain.PrincipalStore
	hasher PasswordHasher
	issuer *SessionIssuer
}

func NewRegisterUseCase(store authDomain.PrincipalStore, hasher PasswordHasher, issuer *SessionIssuer) *RegisterUseCase {
	return &RegisterUseCase{store: store, hasher: hasher, issuer: issuer}
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (LoginResult, error) {
	var out LoginResult
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return out, errors.New("email required")
	}
	if len(input.Password) < 8 {
		return out, errors.New("password must be at least 8 characters")
	}

	if _, err := uc.store.FindByEmail(ctx, email); err == nil {
		return out, authDomain.ErrEmailTaken
	}

	hash, err := uc.hasher.Hash(input.Password)
	if err != nil {
		return out, fmt.Errorf("hash password: %w", err)
	}

	p := authDomain.Principal{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		TokenVersion: 0,
	}
	if err := uc.store.Create(ctx, p); err != nil {
		return out, fmt.Errorf("create principal: %w", err)
	}

	pair, cookies, err := uc.issuer.Issue(p)
	if err != nil {
		return out, fmt.Errorf("issue session: %w", err)
	}

	out.Principal = p
	out.Pair = pair
	out.Cookies = cookies
	return out, nil
}

// LogoutUseCase 處理登出。一般登出只清 cookie；
// Everywhere 會遞增撤銷紀元，讓所有外流的 refresh token 立即失效。
type LogoutUseCase struct {
	store  authDomain.PrincipalStore
	issuer *SessionIssuer
}

func NewLogoutUseCase(store authDomain.PrincipalStore, issuer *SessionIssuer) *LogoutUseCase {
	return &LogoutUseCase{store: store, issuer: issuer}
}

// Execute 回傳要送出的過期 cookie。
func (uc *LogoutUseCase) Execute() []authDomain.CookieSpec {
	return uc.issuer.ClearCookies()
}

// Everywhere 遞增主體的撤銷紀元並回傳過期 cookie。
func (uc *LogoutUseCase) Everywhere(ctx context.Context, principalID string) ([]authDomain.CookieSpec, error) {
	if _, err := uc.store.IncrementTokenVersion(ctx, principalID); err != nil {
		return nil, fmt.Errorf("increment token version: %w", err)
	}
	return uc.issuer.ClearCookies(), nil
}

// ChangePasswordUseCase 更新密碼並遞增撤銷紀元（強制所有裝置重新登入）。
type ChangePasswordUseCase struct {
	store  authDomain.PrincipalStore
	hasher PasswordHasher
}

func NewChangePasswordUseCase(store authDomain.PrincipalStore, hasher PasswordHasher) *ChangePasswordUseCase {
	return &ChangePasswordUseCase{store: store, hasher: hasher}
}

func (uc *ChangePasswordUseCase) Execute(ctx context.Context, principalID, current, next string) error {
	if len(next) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	p, err := uc.store.FindByID(ctx, principalID)
	if err != nil {
		return authDomain.ErrPrincipalNotFound
	}
	if !uc.hasher.Compare(p.PasswordHash, current) {
		return authDomain.ErrInvalidCredentials
	}
	hash, err := uc.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := uc.store.UpdatePassword(ctx, principalID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if _, err := uc.store.IncrementTokenVersion(ctx, principalID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}
	return nil
}
