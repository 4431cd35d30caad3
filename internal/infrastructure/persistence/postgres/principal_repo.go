package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	authDomain "shop-backoffice/internal/domain/auth"
	authinfra "shop-backoffice/internal/infrastructure/auth"

	"github.com/google/uuid"
)

// PrincipalRepo 提供後台管理員的存取。撤銷紀元（token_version）是
// 唯一持久化的撤銷狀態，遞增一律走資料庫端的原子更新。
type PrincipalRepo struct {
	db *sql.DB
}

// NewPrincipalRepo 建立 PrincipalRepo。
func NewPrincipalRepo(db *sql.DB) *PrincipalRepo {
	return &PrincipalRepo{db: db}
}

// FindByEmail 依 email 查詢管理員。
func (r *PrincipalRepo) FindByEmail(ctx context.Context, email string) (authDomain.Principal, error) {
	const q = `
SELECT id, email, display_name, password_hash, token_version
FROM admins
WHERE email = $1
LIMIT 1;
`
	var p authDomain.Principal
	if err := r.db.QueryRowContext(ctx, q, email).Scan(&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.TokenVersion); err != nil {
		return authDomain.Principal{}, err
	}
	return p, nil
}

// FindByID 依 ID 查詢管理員。
func (r *PrincipalRepo) FindByID(ctx context.Context, id string) (authDomain.Principal, error) {
	const q = `
SELECT id, email, display_name, password_hash, token_version
FROM admins
WHERE id = $1
LIMIT 1;
`
	var p authDomain.Principal
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.TokenVersion); err != nil {
		return authDomain.Principal{}, err
	}
	return p, nil
}

// Create 新增管理員。
func (r *PrincipalRepo) Create(ctx context.Context, p authDomain.Principal) error {
	const q = `
INSERT INTO admins (id, email, display_name, password_hash, token_version)
VALUES ($1, $2, $3, $4, $5);
`
	if _, err := r.db.ExecContext(ctx, q, p.ID, p.Email, p.Name, p.PasswordHash, p.TokenVersion); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// IncrementTokenVersion 原子遞增撤銷紀元並回傳新值。
func (r *PrincipalRepo) IncrementTokenVersion(ctx context.Context, id string) (int, error) {
	const q = `
UPDATE admins
SET token_version = token_version + 1
WHERE id = $1
RETURNING token_version;
`
	var v int
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, authDomain.ErrPrincipalNotFound
		}
		return 0, err
	}
	return v, nil
}

// RotateTokenVersion 只在儲存值等於 expected 時遞增。條件放在 WHERE，
// 比對與遞增是同一個 statement，並發換發同一顆 refresh token 恰好一個成功。
func (r *PrincipalRepo) RotateTokenVersion(ctx context.Context, id string, expected int) (int, error) {
	const q = `
UPDATE admins
SET token_version = token_version + 1
WHERE id = $1 AND token_version = $2
RETURNING token_version;
`
	var v int
	if err := r.db.QueryRowContext(ctx, q, id, expected).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, authDomain.ErrRevokedToken
		}
		return 0, err
	}
	return v, nil
}

// UpdatePassword 更新密碼雜湊。
func (r *PrincipalRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `
UPDATE admins
SET password_hash = $2
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, id, passwordHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authDomain.ErrPrincipalNotFound
	}
	return nil
}

// SeedDefaults 建立預設管理員帳號。
func (r *PrincipalRepo) SeedDefaults(ctx context.Context) error {
	hash, err := authinfra.HashPassword("password123")
	if err != nil {
		return err
	}
	const q = `
INSERT INTO admins (id, email, display_name, password_hash, token_version)
VALUES ($1, $2, $3, $4, 0)
ON CONFLICT (email) DO NOTHING;
`
	_, err = r.db.ExecContext(ctx, q, uuid.NewString(), "admin@example.com", "Admin", hash)
	return err
}
