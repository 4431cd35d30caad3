package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	appGiftcode "shop-backoffice/internal/application/giftcode"
	giftcodeDomain "shop-backoffice/internal/domain/giftcode"
)

// GiftCodeRepo 提供禮物卡的存取。
type GiftCodeRepo struct {
	db *sql.DB
}

// NewGiftCodeRepo 建立 GiftCodeRepo。
func NewGiftCodeRepo(db *sql.DB) *GiftCodeRepo {
	return &GiftCodeRepo{db: db}
}

func (r *GiftCodeRepo) CreateCode(ctx context.Context, g giftcodeDomain.GiftCode) error {
	const q = `
INSERT INTO gift_codes (id, code, value_cents, purchased_by, expires_at, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6);
`
	_, err := r.db.ExecContext(ctx, q, g.ID, g.Code, g.ValueCents, g.PurchasedBy, g.ExpiresAt, g.CreatedAt)
	return err
}

func (r *GiftCodeRepo) GetByCode(ctx context.Context, code string) (giftcodeDomain.GiftCode, error) {
	const q = `
SELECT id, code, value_cents, COALESCE(redeemed_by, ''), redeemed_at, COALESCE(purchased_by, ''), expires_at, created_at
FROM gift_codes
WHERE code = $1
LIMIT 1;
`
	var g giftcodeDomain.GiftCode
	err := r.db.QueryRowContext(ctx, q, code).Scan(&g.ID, &g.Code, &g.ValueCents, &g.RedeemedBy, &g.RedeemedAt, &g.PurchasedBy, &g.ExpiresAt, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return giftcodeDomain.GiftCode{}, appGiftcode.ErrCodeNotFound
	}
	return g, err
}

func (r *GiftCodeRepo) ListCodes(ctx context.Context, includeRedeemed bool) ([]giftcodeDomain.GiftCode, error) {
	q := `
SELECT id, code, value_cents, COALESCE(redeemed_by, ''), redeemed_at, COALESCE(purchased_by, ''), expires_at, created_at
FROM gift_codes`
	if !includeRedeemed {
		q += ` WHERE redeemed_by IS NULL`
	}
	q += ` ORDER BY created_at DESC;`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []giftcodeDomain.GiftCode
	for rows.Next() {
		var g giftcodeDomain.GiftCode
		if err := rows.Scan(&g.ID, &g.Code, &g.ValueCents, &g.RedeemedBy, &g.RedeemedAt, &g.PurchasedBy, &g.ExpiresAt, &g.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// MarkRedeemed 條件更新確保單次兌換：已兌換的卡不會被二次標記。
func (r *GiftCodeRepo) MarkRedeemed(ctx context.Context, id, customerID string, at time.Time) error {
	const q = `
UPDATE gift_codes
SET redeemed_by = $2, redeemed_at = $3
WHERE id = $1 AND redeemed_by IS NULL;
`
	res, err := r.db.ExecContext(ctx, q, id, customerID, at)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appGiftcode.ErrCodeRedeemed
	}
	return nil
}

func (r *GiftCodeRepo) DeleteCode(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gift_codes WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appGiftcode.ErrCodeNotFound
	}
	return nil
}
