package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appCustomer "shop-backoffice/internal/application/customer"
	authDomain "shop-backoffice/internal/domain/auth"
	customerDomain "shop-backoffice/internal/domain/customer"
)

// CustomerRepo 提供顧客的存取。同一張表同時支援商店端認證
// （authDomain.PrincipalStore）與後台顧客管理（customer.Repository）。
type CustomerRepo struct {
	db *sql.DB
}

// NewCustomerRepo 建立 CustomerRepo。
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

const customerColumns = `id, email, display_name, password_hash, token_version, balance_cents, created_at, updated_at`

func scanCustomer(row *sql.Row) (customerDomain.Customer, error) {
	var c customerDomain.Customer
	err := row.Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &c.TokenVersion, &c.BalanceCents, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// FindByEmail 依 email 查詢顧客（認證用）。
func (r *CustomerRepo) FindByEmail(ctx context.Context, email string) (authDomain.Principal, error) {
	q := fmt.Sprintf(`SELECT %s FROM customers WHERE email = $1 LIMIT 1;`, customerColumns)
	c, err := scanCustomer(r.db.QueryRowContext(ctx, q, email))
	if err != nil {
		return authDomain.Principal{}, err
	}
	return c.Principal(), nil
}

// FindByID 依 ID 查詢顧客（認證用）。
func (r *CustomerRepo) FindByID(ctx context.Context, id string) (authDomain.Principal, error) {
	q := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1 LIMIT 1;`, customerColumns)
	c, err := scanCustomer(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return authDomain.Principal{}, err
	}
	return c.Principal(), nil
}

// Create 註冊新顧客，餘額從零開始。
func (r *CustomerRepo) Create(ctx context.Context, p authDomain.Principal) error {
	const q = `
INSERT INTO customers (id, email, display_name, password_hash, token_version, balance_cents)
VALUES ($1, $2, $3, $4, $5, 0);
`
	if _, err := r.db.ExecContext(ctx, q, p.ID, p.Email, p.Name, p.PasswordHash, p.TokenVersion); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// IncrementTokenVersion 原子遞增撤銷紀元並回傳新值。
func (r *CustomerRepo) IncrementTokenVersion(ctx context.Context, id string) (int, error) {
	const q = `
UPDATE customers
SET token_version = token_version + 1, updated_at = NOW()
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

// RotateTokenVersion 只在儲存值等於 expected 時遞增；
// 比對與遞增是同一個 statement。
func (r *CustomerRepo) RotateTokenVersion(ctx context.Context, id string, expected int) (int, error) {
	const q = `
UPDATE customers
SET token_version = token_version + 1, updated_at = NOW()
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
func (r *CustomerRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const q = `
UPDATE customers
SET password_hash = $2, updated_at = NOW()
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

// GetCustomer 後台讀取單一顧客。
func (r *CustomerRepo) GetCustomer(ctx context.Context, id string) (customerDomain.Customer, error) {
	q := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1 LIMIT 1;`, customerColumns)
	return scanCustomer(r.db.QueryRowContext(ctx, q, id))
}

// ListCustomers 後台列表，可依 email / 名稱模糊搜尋。
func (r *CustomerRepo) ListCustomers(ctx context.Context, search string) ([]customerDomain.Customer, error) {
	q := fmt.Sprintf(`SELECT %s FROM customers`, customerColumns)
	args := []interface{}{}
	if search != "" {
		q += ` WHERE email ILIKE $1 OR display_name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	q += ` ORDER BY email;`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []customerDomain.Customer
	for rows.Next() {
		var c customerDomain.Customer
		if err := rows.Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &c.TokenVersion, &c.BalanceCents, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCustomer 後台更新顧客基本資料。
func (r *CustomerRepo) UpdateCustomer(ctx context.Context, c customerDomain.Customer) error {
	const q = `
UPDATE customers
SET email = $2, display_name = $3, updated_at = NOW()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, c.ID, c.Email, c.Name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("customer %s not found", c.ID)
	}
	return nil
}

// DeleteCustomer 刪除顧客。
func (r *CustomerRepo) DeleteCustomer(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("customer %s not found", id)
	}
	return nil
}

// AdjustBalance 條件更新確保餘額不會變負，違反時回傳 ErrInsufficientBalance。
func (r *CustomerRepo) AdjustBalance(ctx context.Context, id string, deltaCents int64) (int64, error) {
	const q = `
UPDATE customers
SET balance_cents = balance_cents + $2, updated_at = NOW()
WHERE id = $1 AND balance_cents + $2 >= 0
RETURNING balance_cents;
`
	var balance int64
	if err := r.db.QueryRowContext(ctx, q, id, deltaCents).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appCustomer.ErrInsufficientBalance
		}
		return 0, err
	}
	return balance, nil
}
