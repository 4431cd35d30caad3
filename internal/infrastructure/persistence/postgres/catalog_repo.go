package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appCatalog "shop-backoffice/internal/application/catalog"
	appOrder "shop-backoffice/internal/application/order"
	catalogDomain "shop-backoffice/internal/domain/catalog"
)

// CatalogRepo 提供商品與分類的存取。
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo 建立 CatalogRepo。
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, p catalogDomain.Product) error {
	const q = `
INSERT INTO products (id, category_id, name, price_cents, stock, is_featured, is_archived, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.CategoryID, p.Name, p.PriceCents, p.Stock, p.IsFeatured, p.IsArchived, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *CatalogRepo) UpdateProduct(ctx context.Context, p catalogDomain.Product) error {
	const q = `
UPDATE products
SET category_id = $2, name = $3, price_cents = $4, stock = $5, is_featured = $6, is_archived = $7, updated_at = $8
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, p.ID, p.CategoryID, p.Name, p.PriceCents, p.Stock, p.IsFeatured, p.IsArchived, p.UpdatedAt)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product %s not found", p.ID)
	}
	return nil
}

func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (catalogDomain.Product, error) {
	const q = `
SELECT id, category_id, name, price_cents, stock, is_featured, is_archived, created_at, updated_at
FROM products
WHERE id = $1
LIMIT 1;
`
	var p catalogDomain.Product
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.CategoryID, &p.Name, &p.PriceCents, &p.Stock, &p.IsFeatured, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *CatalogRepo) ListProducts(ctx context.Context, filter appCatalog.ProductFilter) ([]catalogDomain.Product, error) {
	q := `
SELECT id, category_id, name, price_cents, stock, is_featured, is_archived, created_at, updated_at
FROM products
WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if filter.CategoryID != "" {
		q += fmt.Sprintf(" AND category_id = $%d", idx)
		args = append(args, filter.CategoryID)
		idx++
	}
	if filter.FeaturedOnly {
		q += " AND is_featured"
	}
	if !filter.IncludeArchived {
		q += " AND NOT is_archived"
	}
	if filter.Search != "" {
		q += fmt.Sprintf(" AND name ILIKE $%d", idx)
		args = append(args, "%"+filter.Search+"%")
		idx++
	}
	q += " ORDER BY name;"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalogDomain.Product
	for rows.Next() {
		var p catalogDomain.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.PriceCents, &p.Stock, &p.IsFeatured, &p.IsArchived, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) DeleteProduct(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product %s not found", id)
	}
	return nil
}

func (r *CatalogRepo) CountProductsInCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1;`, categoryID).Scan(&n)
	return n, err
}

// ReserveStock 條件更新扣庫存並回傳單價；庫存不足或商品已封存時不更新。
func (r *CatalogRepo) ReserveStock(ctx context.Context, productID string, qty int) (int64, error) {
	const q = `
UPDATE products
SET stock = stock - $2, updated_at = NOW()
WHERE id = $1 AND stock >= $2 AND NOT is_archived
RETURNING price_cents;
`
	var price int64
	if err := r.db.QueryRowContext(ctx, q, productID, qty).Scan(&price); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// 分辨是缺貨還是商品不存在
			var stock int
			if lookupErr := r.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = $1 AND NOT is_archived;`, productID).Scan(&stock); lookupErr != nil {
				return 0, appOrder.ErrUnknownProduct
			}
			return 0, appOrder.ErrOutOfStock
		}
		return 0, err
	}
	return price, nil
}

// ReleaseStock 歸還庫存。
func (r *CatalogRepo) ReleaseStock(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1;`, productID, qty)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return appOrder.ErrUnknownProduct
	}
	return nil
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, c catalogDomain.Category) error {
	const q = `
INSERT INTO categories (id, name, created_at)
VALUES ($1, $2, $3);
`
	_, err := r.db.ExecContext(ctx, q, c.ID, c.Name, c.CreatedAt)
	return err
}

func (r *CatalogRepo) UpdateCategory(ctx context.Context, c catalogDomain.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = $2 WHERE id = $1;`, c.ID, c.Name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %s not found", c.ID)
	}
	return nil
}

func (r *CatalogRepo) GetCategory(ctx context.Context, id string) (catalogDomain.Category, error) {
	var c catalogDomain.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM categories WHERE id = $1 LIMIT 1;`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	return c, err
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]catalogDomain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalogDomain.Category
	for rows.Next() {
		var c catalogDomain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %s not found", id)
	}
	return nil
}
