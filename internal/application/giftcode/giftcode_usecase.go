package giftcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	giftcodeDomain "shop-backoffice/internal/domain/giftcode"

	"github.com/google/uuid"
)

var (
	ErrCodeNotFound  = errors.New("gift code not found")
	ErrCodeRedeemed  = errors.New("gift code already redeemed")
	ErrCodeExpired   = errors.New("gift code expired")
	ErrInvalidValue  = errors.New("gift code value must be positive")
	ErrDuplicateCode = errors.New("gift code already exists")
)

// Repository 禮物卡儲存介面。
type Repository interface {
	CreateCode(ctx context.Context, g giftcodeDomain.GiftCode) error
	GetByCode(ctx context.Context, code string) (giftcodeDomain.GiftCode, error)
	ListCodes(ctx context.Context, includeRedeemed bool) ([]giftcodeDomain.GiftCode, error)
	MarkRedeemed(ctx context.Context, id, customerID string, at time.Time) error
	DeleteCode(ctx context.Context, id string) error
}

// BalanceAdjuster 兌換入帳與購買扣款走顧客餘額。
type BalanceAdjuster interface {
	AdjustBalance(ctx context.Context, id string, deltaCents int64) (int64, error)
}

// UseCase 禮物卡建立、購買與兌換。
type UseCase struct {
	repo     Repository
	balances BalanceAdjuster
	now      func() time.Time
}

func NewUseCase(repo Repository, balances BalanceAdjuster) *UseCase {
	return &UseCase{repo: repo, balances: balances, now: time.Now}
}

// 產生 16 碼人類可讀代碼，排除易混淆字元。
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate gift code: %w", err)
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return fmt.Sprintf("%s-%s-%s-%s", out[0:4], out[4:8], out[8:12], out[12:16]), nil
}

type CreateInput struct {
	ValueCents int64
	ExpiresAt  *time.Time
}

// Create 後台手動建立禮物卡。
func (uc *UseCase) Create(ctx context.Context, input CreateInput) (giftcodeDomain.GiftCode, error) {
	if input.ValueCents <= 0 {
		return giftcodeDomain.GiftCode{}, ErrInvalidValue
	}
	code, err := generateCode()
	if err != nil {
		return giftcodeDomain.GiftCode{}, err
	}
	g := giftcodeDomain.GiftCode{
		ID:         uuid.NewString(),
		Code:       code,
		ValueCents: input.ValueCents,
		ExpiresAt:  input.ExpiresAt,
		CreatedAt:  uc.now(),
	}
	if err := uc.repo.CreateCode(ctx, g); err != nil {
		return giftcodeDomain.GiftCode{}, fmt.Errorf("create gift code: %w", err)
	}
	return g, nil
}

// Purchase 顧客以餘額購買禮物卡，面額即售價。
func (uc *UseCase) Purchase(ctx context.Context, customerID string, valueCents int64) (giftcodeDomain.GiftCode, error) {
	if valueCents <= 0 {
		return giftcodeDomain.GiftCode{}, ErrInvalidValue
	}
	if _, err := uc.balances.AdjustBalance(ctx, customerID, -valueCents); err != nil {
		return giftcodeDomain.GiftCode{}, err
	}
	code, err := generateCode()
	if err != nil {
		// 扣款已成立，產碼失敗時退回
		_, _ = uc.balances.AdjustBalance(ctx, customerID, valueCents)
		return giftcodeDomain.GiftCode{}, err
	}
	g := giftcodeDomain.GiftCode{
		ID:          uuid.NewString(),
		Code:        code,
		ValueCents:  valueCents,
		PurchasedBy: customerID,
		CreatedAt:   uc.now(),
	}
	if err := uc.repo.CreateCode(ctx, g); err != nil {
		_, _ = uc.balances.AdjustBalance(ctx, customerID, valueCents)
		return giftcodeDomain.GiftCode{}, fmt.Errorf("create gift code: %w", err)
	}
	return g, nil
}

// Redeem 兌換代碼並把面額加入顧客餘額。
func (uc *UseCase) Redeem(ctx context.Context, customerID, code string) (int64, error) {
	g, err := uc.repo.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		return 0, ErrCodeNotFound
	}
	now := uc.now()
	if g.RedeemedBy != "" {
		return 0, ErrCodeRedeemed
	}
	if g.ExpiresAt != nil && g.ExpiresAt.Before(now) {
		return 0, ErrCodeExpired
	}
	// 先標記兌換，避免同一張卡重複入帳
	if err := uc.repo.MarkRedeemed(ctx, g.ID, customerID, now); err != nil {
		return 0, fmt.Errorf("mark redeemed: %w", err)
	}
	balance, err := uc.balances.AdjustBalance(ctx, customerID, g.ValueCents)
	if err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}
	return balance, nil
}

func (uc *UseCase) List(ctx context.Context, includeRedeemed bool) ([]giftcodeDomain.GiftCode, error) {
	return uc.repo.ListCodes(ctx, includeRedeemed)
}

func (uc *UseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.DeleteCode(ctx, id)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
