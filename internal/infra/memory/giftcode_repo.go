package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	appGiftcode "shop-backoffice/internal/application/giftcode"
	giftcodeDomain "shop-backoffice/internal/domain/giftcode"
)

// GiftCodeRepo 記憶體版禮物卡儲存。
type GiftCodeRepo struct {
	mu     sync.Mutex
	byID   map[string]giftcodeDomain.GiftCode
	byCode map[string]string // code -> id
}

// NewGiftCodeRepo 建立記憶體實例。
func NewGiftCodeRepo() *GiftCodeRepo {
	return &GiftCodeRepo{
		byID:   make(map[string]giftcodeDomain.GiftCode),
		byCode: make(map[string]string),
	}
}

func (r *GiftCodeRepo) CreateCode(_ context.Context, g giftcodeDomain.GiftCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCode[g.Code]; ok {
		return appGiftcode.ErrDuplicateCode
	}
	r.byID[g.ID] = g
	r.byCode[g.Code] = g.ID
	return nil
}

func (r *GiftCodeRepo) GetByCode(_ context.Context, code string) (giftcodeDomain.GiftCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byCode[code]
	if !ok {
		return giftcodeDomain.GiftCode{}, appGiftcode.ErrCodeNotFound
	}
	return r.byID[id], nil
}

func (r *GiftCodeRepo) ListCodes(_ context.Context, includeRedeemed bool) ([]giftcodeDomain.GiftCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]giftcodeDomain.GiftCode, 0, len(r.byID))
	for _, g := range r.byID {
		if !includeRedeemed && g.RedeemedBy != "" {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *GiftCodeRepo) MarkRedeemed(_ context.Context, id, customerID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[id]
	if !ok {
		return appGiftcode.ErrCodeNotFound
	}
	if g.RedeemedBy != "" {
		return appGiftcode.ErrCodeRedeemed
	}
	g.RedeemedBy = customerID
	g.RedeemedAt = &at
	r.byID[id] = g
	return nil
}

func (r *GiftCodeRepo) DeleteCode(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[id]
	if !ok {
		return appGiftcode.ErrCodeNotFound
	}
	delete(r.byCode, g.Code)
	delete(r.byID, id)
	return nil
}
